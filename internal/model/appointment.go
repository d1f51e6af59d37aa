package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"   // initial, only non-terminal state
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED" // terminal
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED" // terminal
)

// ValidAppointmentStatus reports whether s names a known status.
func ValidAppointmentStatus(s string) bool {
	switch AppointmentStatus(s) {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Appointment is a scheduled meeting proposed on a connection. Either party
// creates it in PENDING; only the teacher side may confirm or cancel.
type Appointment struct {
	ID           string            `json:"id"`
	ConnectionID string            `json:"connection_id"`
	DateTime     time.Time         `json:"date_time"`
	Status       AppointmentStatus `json:"status"`
	Notes        *string           `json:"notes"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`

	Connection *Connection `json:"connection,omitempty"`
}

func (a *Appointment) IsPending() bool {
	return a.Status == AppointmentStatusPending
}
