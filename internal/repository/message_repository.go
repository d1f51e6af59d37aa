package repository

import (
	"context"
	"fmt"

	"github.com/knightkill/parley-app/internal/model"
	"github.com/knightkill/parley-app/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	db base.Queryer
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: pool}
}

// Create appends a message to the connection's log. The seq value comes from
// a sequence, so equal timestamps keep their insertion order.
func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO messages (id, connection_id, sender_id, receiver_id, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq, created_at
	`, msg.ID, msg.ConnectionID, msg.SenderID, msg.ReceiverID, msg.Content).Scan(&msg.Seq, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// ListByConnection получает все сообщения связи по возрастанию времени,
// при равном времени — в порядке вставки.
func (r *MessageRepository) ListByConnection(ctx context.Context, connectionID string) ([]*model.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.id, m.connection_id, m.sender_id, m.receiver_id, m.content, m.seq, m.created_at,
		       u.id, u.name, u.email, u.role
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.connection_id = $1
		ORDER BY m.created_at ASC, m.seq ASC
	`, connectionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		var m model.Message
		var sender model.UserSummary
		err := rows.Scan(
			&m.ID, &m.ConnectionID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Seq, &m.CreatedAt,
			&sender.ID, &sender.Name, &sender.Email, &sender.Role,
		)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Sender = &sender
		messages = append(messages, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}
