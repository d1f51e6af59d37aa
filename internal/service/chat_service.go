package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/knightkill/parley-app/internal/apperr"
	"github.com/knightkill/parley-app/internal/metrics"
	"github.com/knightkill/parley-app/internal/model"
	"github.com/knightkill/parley-app/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher fans a stored message out to the live sessions of its room.
// Satisfied by *relay.Hub.
type Publisher interface {
	Publish(msg *model.Message)
}

// ChatService appends to and reads the per-connection message log. The log
// is the source of truth; the relay push is a latency optimization that
// happens strictly after the durable write.
type ChatService struct {
	connSvc  *ConnectionService
	msgRepo  *repository.MessageRepository
	userRepo *repository.UserRepository
	relay    Publisher
	logger   *zap.Logger
}

func NewChatService(
	connSvc *ConnectionService,
	msgRepo *repository.MessageRepository,
	userRepo *repository.UserRepository,
	relay Publisher,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		connSvc:  connSvc,
		msgRepo:  msgRepo,
		userRepo: userRepo,
		relay:    relay,
		logger:   logger,
	}
}

// Append stores a message and publishes it to the room.
func (s *ChatService) Append(ctx context.Context, senderID, connectionID, content string) (*model.Message, error) {
	conn, err := s.connSvc.GetForAccount(ctx, senderID, connectionID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, "message content is empty")
	}

	receiverID, _ := conn.CounterpartyID(senderID)

	msg := &model.Message{
		ID:           uuid.NewString(),
		ConnectionID: connectionID,
		SenderID:     senderID,
		ReceiverID:   receiverID,
		Content:      content,
	}
	if err := s.msgRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesStored.Inc()

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("get sender: %w", err)
	}
	if sender != nil {
		sum := sender.Summary()
		msg.Sender = &sum
	}

	// Только после надёжной записи: реле никогда не заменяет лог.
	s.relay.Publish(msg)

	s.logger.Debug("message appended",
		zap.String("connection_id", connectionID),
		zap.String("message_id", msg.ID),
	)
	return msg, nil
}

// List returns the full message history of a connection, ascending by
// creation time, insertion order breaking ties. Repeated calls with no new
// appends return an identical sequence.
func (s *ChatService) List(ctx context.Context, callerID, connectionID string) ([]*model.Message, error) {
	if _, err := s.connSvc.GetForAccount(ctx, callerID, connectionID); err != nil {
		return nil, err
	}
	msgs, err := s.msgRepo.ListByConnection(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []*model.Message{}
	}
	return msgs, nil
}
