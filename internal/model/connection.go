package model

import "time"

// Connection links one guardian and one teacher for one named child.
// The (guardian, teacher) pair is unique regardless of child name, and the
// connection is the authorization anchor for messages, appointments and
// notices. Connections are created only through invite redemption and are
// never updated or deleted.
type Connection struct {
	ID         string    `json:"id"`
	GuardianID string    `json:"guardian_id"`
	TeacherID  string    `json:"teacher_id"`
	ChildName  string    `json:"child_name"`
	CreatedAt  time.Time `json:"created_at"`

	// Заполняются сервисом для ответов API, не из БД.
	Guardian *UserSummary `json:"guardian,omitempty"`
	Teacher  *UserSummary `json:"teacher,omitempty"`
}

// HasMember reports whether the account is one of the two parties.
func (c *Connection) HasMember(accountID string) bool {
	return accountID == c.GuardianID || accountID == c.TeacherID
}

// CounterpartyID returns the other party of the connection relative to
// accountID. ok is false when accountID is not a member at all.
func (c *Connection) CounterpartyID(accountID string) (string, bool) {
	switch accountID {
	case c.GuardianID:
		return c.TeacherID, true
	case c.TeacherID:
		return c.GuardianID, true
	}
	return "", false
}
