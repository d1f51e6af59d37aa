package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knightkill/parley-app/internal/apperr"
	"github.com/knightkill/parley-app/internal/metrics"
	"github.com/knightkill/parley-app/internal/model"
	"github.com/knightkill/parley-app/internal/repository"
	"github.com/knightkill/parley-app/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// inviteTTL is how long an issued code stays redeemable.
const inviteTTL = 30 * 24 * time.Hour

// InviteService issues and redeems invite codes. Redemption is the only way
// a connection comes into existence.
type InviteService struct {
	pool       *pgxpool.Pool
	inviteRepo *repository.InviteCodeRepository
	connRepo   *repository.ConnectionRepository
	userRepo   *repository.UserRepository
	logger     *zap.Logger

	now func() time.Time
}

func NewInviteService(
	pool *pgxpool.Pool,
	inviteRepo *repository.InviteCodeRepository,
	connRepo *repository.ConnectionRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *InviteService {
	return &InviteService{
		pool:       pool,
		inviteRepo: inviteRepo,
		connRepo:   connRepo,
		userRepo:   userRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// Issue создает новый invite-код для учителя
func (s *InviteService) Issue(ctx context.Context, teacherID string) (*model.InviteCode, error) {
	teacher, err := s.userRepo.GetByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil || !teacher.IsTeacher() {
		return nil, apperr.Wrap(apperr.ErrUnauthorized, "only teachers issue invite codes")
	}

	code, err := uniqueCode(ctx, s.inviteRepo.CodeExists)
	if err != nil {
		return nil, err
	}

	invite := &model.InviteCode{
		ID:        uuid.NewString(),
		TeacherID: teacherID,
		Code:      code,
		ExpiresAt: s.now().Add(inviteTTL),
	}
	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		// Два одновременных Issue могли сгенерировать один код.
		if base.IsUniqueViolation(err) {
			return nil, apperr.Wrap(apperr.ErrConflict, "code collided with concurrent issue")
		}
		return nil, err
	}

	s.logger.Info("invite code issued",
		zap.String("teacher_id", teacherID),
		zap.String("code", code),
		zap.Time("expires_at", invite.ExpiresAt),
	)
	return invite, nil
}

// ListByTeacher получает все коды учителя, новые первыми
func (s *InviteService) ListByTeacher(ctx context.Context, teacherID string) ([]*model.InviteCode, error) {
	teacher, err := s.userRepo.GetByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil || !teacher.IsTeacher() {
		return nil, apperr.Wrap(apperr.ErrUnauthorized, "only teachers list invite codes")
	}
	return s.inviteRepo.GetByTeacherID(ctx, teacherID)
}

// Redeem redeems a code for a guardian and creates the connection.
//
// The whole flow runs in one transaction with the code row locked, so
// concurrent redeemers of the same code serialize: exactly one commits, the
// rest observe used=true and fail with ErrCodeAlreadyUsed. A failed
// redemption never consumes the code.
func (s *InviteService) Redeem(ctx context.Context, guardianID, code, childName string) (conn *model.Connection, err error) {
	defer func() { s.recordRedemption(err) }()

	guardian, err := s.userRepo.GetByID(ctx, guardianID)
	if err != nil {
		return nil, fmt.Errorf("get guardian: %w", err)
	}
	if guardian == nil || !guardian.IsGuardian() {
		return nil, apperr.Wrap(apperr.ErrUnauthorized, "only guardians redeem invite codes")
	}

	childName = strings.TrimSpace(childName)
	if childName == "" {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, "child name is required")
	}

	// Коды нечувствительны к регистру на входе, хранятся в uppercase.
	normalized := strings.ToUpper(strings.TrimSpace(code))

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	invites := s.inviteRepo.WithTx(tx)
	conns := s.connRepo.WithTx(tx)

	invite, err := invites.GetByCodeForUpdate(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		return nil, apperr.ErrInvalidCode
	}
	if invite.Used {
		return nil, apperr.ErrCodeAlreadyUsed
	}
	// Строго после проверки used: использованный и просроченный код
	// отвечает "already used".
	if invite.IsExpired(s.now()) {
		return nil, apperr.ErrCodeExpired
	}

	existing, err := conns.GetByPair(ctx, guardianID, invite.TeacherID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// Код не тронут: неудачная попытка его не расходует.
		return nil, apperr.ErrAlreadyConnected
	}

	conn = &model.Connection{
		ID:         uuid.NewString(),
		GuardianID: guardianID,
		TeacherID:  invite.TeacherID,
		ChildName:  childName,
	}
	if err := conns.Create(ctx, conn); err != nil {
		// Гонка по другой паре кодов на ту же пару (guardian, teacher).
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.ErrAlreadyConnected
		}
		return nil, err
	}

	marked, err := invites.MarkUsed(ctx, invite.ID)
	if err != nil {
		return nil, err
	}
	if !marked {
		// Недостижимо под блокировкой строки, но проверяем, не предполагаем.
		return nil, apperr.ErrCodeAlreadyUsed
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	if teacher, terr := s.userRepo.GetByID(ctx, invite.TeacherID); terr == nil && teacher != nil {
		sum := teacher.Summary()
		conn.Teacher = &sum
	}

	s.logger.Info("invite code redeemed",
		zap.String("code", normalized),
		zap.String("guardian_id", guardianID),
		zap.String("teacher_id", invite.TeacherID),
		zap.String("connection_id", conn.ID),
	)
	return conn, nil
}

func (s *InviteService) recordRedemption(err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrInvalidCode):
		outcome = "invalid_code"
	case errors.Is(err, apperr.ErrCodeAlreadyUsed):
		outcome = "already_used"
	case errors.Is(err, apperr.ErrCodeExpired):
		outcome = "expired"
	case errors.Is(err, apperr.ErrAlreadyConnected):
		outcome = "already_connected"
	default:
		outcome = "error"
	}
	metrics.InviteRedemptions.WithLabelValues(outcome).Inc()
}
