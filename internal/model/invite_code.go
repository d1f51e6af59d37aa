package model

import "time"

// InviteCode is a one-time token a teacher issues for a guardian to redeem.
// Codes are stored in canonical uppercase form and are never recycled:
// a used or expired code keeps its row forever so the code value stays
// globally unique.
type InviteCode struct {
	ID        string    `json:"id"`
	TeacherID string    `json:"teacher_id"`
	Code      string    `json:"code"`
	Used      bool      `json:"used"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the code has passed its expiry at the given time.
func (c *InviteCode) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
