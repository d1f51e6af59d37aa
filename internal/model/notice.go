package model

import "time"

type NoticeType string

const (
	NoticeTypeNotice    NoticeType = "NOTICE"
	NoticeTypeComplaint NoticeType = "COMPLAINT"
)

// ValidNoticeType reports whether s names a known notice type.
func ValidNoticeType(s string) bool {
	switch NoticeType(s) {
	case NoticeTypeNotice, NoticeTypeComplaint:
		return true
	}
	return false
}

// Notice is a one-way announcement from the teacher side of a connection.
// Immutable once created.
type Notice struct {
	ID           string     `json:"id"`
	ConnectionID string     `json:"connection_id"`
	TeacherID    string     `json:"teacher_id"`
	Type         NoticeType `json:"type"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	CreatedAt    time.Time  `json:"created_at"`

	Connection *Connection `json:"connection,omitempty"`
}
