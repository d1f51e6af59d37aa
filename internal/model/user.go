package model

import "time"

type Role string

const (
	RoleGuardian Role = "GUARDIAN"
	RoleTeacher  Role = "TEACHER"
)

// User is an account holder. The role is fixed at creation; nothing in this
// service promotes or demotes an account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	APIToken  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

func (u *User) IsGuardian() bool {
	return u.Role == RoleGuardian
}

// UserSummary is the sender shape embedded in message and connection payloads.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
