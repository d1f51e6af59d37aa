package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/knightkill/parley-app/internal/apperr"
	"github.com/knightkill/parley-app/internal/model"
	"github.com/knightkill/parley-app/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NoticeService handles one-way announcements from the teacher side of a
// connection.
type NoticeService struct {
	connSvc    *ConnectionService
	noticeRepo *repository.NoticeRepository
	userRepo   *repository.UserRepository
	logger     *zap.Logger
}

func NewNoticeService(
	connSvc *ConnectionService,
	noticeRepo *repository.NoticeRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *NoticeService {
	return &NoticeService{
		connSvc:    connSvc,
		noticeRepo: noticeRepo,
		userRepo:   userRepo,
		logger:     logger,
	}
}

// Create публикует уведомление. Только учительская сторона связи.
func (s *NoticeService) Create(ctx context.Context, callerID, connectionID string, typ model.NoticeType, title, content string) (*model.Notice, error) {
	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("get caller: %w", err)
	}
	if caller == nil || !caller.IsTeacher() {
		return nil, apperr.Wrap(apperr.ErrUnauthorized, "only teachers create notices")
	}

	conn, err := s.connSvc.GetForAccount(ctx, callerID, connectionID)
	if err != nil {
		return nil, err
	}

	if !model.ValidNoticeType(string(typ)) {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, "unknown notice type %q", typ)
	}
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, "title and content are required")
	}

	notice := &model.Notice{
		ID:           uuid.NewString(),
		ConnectionID: conn.ID,
		TeacherID:    callerID,
		Type:         typ,
		Title:        title,
		Content:      content,
	}
	if err := s.noticeRepo.Create(ctx, notice); err != nil {
		return nil, err
	}

	s.logger.Info("notice created",
		zap.String("notice_id", notice.ID),
		zap.String("connection_id", conn.ID),
		zap.String("type", string(typ)),
	)
	return notice, nil
}

// ListForAccount returns notices visible to the account. The role decides
// the shape once, here at the boundary: teachers see what they authored,
// guardians see everything across their connections. Newest first.
func (s *NoticeService) ListForAccount(ctx context.Context, accountID string) ([]*model.Notice, error) {
	account, err := s.userRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, apperr.ErrUnauthenticated
	}

	var notices []*model.Notice
	if account.IsTeacher() {
		notices, err = s.noticeRepo.ListByTeacher(ctx, accountID)
	} else {
		notices, err = s.noticeRepo.ListByGuardian(ctx, accountID)
	}
	if err != nil {
		return nil, err
	}
	if notices == nil {
		notices = []*model.Notice{}
	}
	return notices, nil
}
