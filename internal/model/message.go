package model

import "time"

// Message is one chat message inside a connection. Messages are append-only
// and immutable; ReceiverID is always the counterparty of the sender. The
// message ID is the deduplication key for clients that both poll history and
// receive realtime pushes.
type Message struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connection_id"`
	SenderID     string    `json:"sender_id"`
	ReceiverID   string    `json:"receiver_id"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`

	// Seq is the insertion-order tie breaker for equal timestamps.
	Seq int64 `json:"-"`

	Sender *UserSummary `json:"sender,omitempty"`
}
