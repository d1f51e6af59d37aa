package service

import (
	"context"
	"fmt"

	"github.com/knightkill/parley-app/internal/apperr"
	"github.com/knightkill/parley-app/internal/model"
	"github.com/knightkill/parley-app/internal/repository"
	"go.uber.org/zap"
)

// ConnectionService is the access-control anchor: every message, appointment
// and notice operation resolves its connection through one of these methods.
// Lookups are pre-filtered to the caller's own connections, so a nonexistent
// ID and a foreign ID are observationally identical.
type ConnectionService struct {
	connRepo *repository.ConnectionRepository
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewConnectionService(
	connRepo *repository.ConnectionRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *ConnectionService {
	return &ConnectionService{connRepo: connRepo, userRepo: userRepo, logger: logger}
}

// GetForAccount fetches a connection scoped to the caller. Missing or
// foreign connections report ErrNotFound.
func (s *ConnectionService) GetForAccount(ctx context.Context, accountID, connectionID string) (*model.Connection, error) {
	conn, err := s.connRepo.GetForAccount(ctx, connectionID, accountID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, apperr.Wrap(apperr.ErrNotFound, "connection not found")
	}
	return conn, nil
}

// Authorize is GetForAccount for mutation paths, where a failed membership
// check reports ErrUnauthorized rather than ErrNotFound.
func (s *ConnectionService) Authorize(ctx context.Context, accountID, connectionID string) (*model.Connection, error) {
	conn, err := s.connRepo.GetForAccount(ctx, connectionID, accountID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, apperr.Wrap(apperr.ErrUnauthorized, "not a member of this connection")
	}
	return conn, nil
}

// Counterparty разрешает вторую сторону связи относительно accountID.
func (s *ConnectionService) Counterparty(ctx context.Context, conn *model.Connection, accountID string) (*model.User, error) {
	otherID, ok := conn.CounterpartyID(accountID)
	if !ok {
		return nil, apperr.Wrap(apperr.ErrUnauthorized, "not a member of this connection")
	}
	other, err := s.userRepo.GetByID(ctx, otherID)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, fmt.Errorf("counterparty %s missing for connection %s", otherID, conn.ID)
	}
	return other, nil
}

// ListForAccount returns the caller's connections, both party summaries
// attached, newest first.
func (s *ConnectionService) ListForAccount(ctx context.Context, accountID string) ([]*model.Connection, error) {
	conns, err := s.connRepo.ListForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(conns) == 0 {
		return []*model.Connection{}, nil
	}

	ids := make([]string, 0, len(conns)*2)
	for _, c := range conns {
		ids = append(ids, c.GuardianID, c.TeacherID)
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range conns {
		if g, ok := users[c.GuardianID]; ok {
			sum := g.Summary()
			c.Guardian = &sum
		}
		if t, ok := users[c.TeacherID]; ok {
			sum := t.Summary()
			c.Teacher = &sum
		}
	}
	return conns, nil
}
