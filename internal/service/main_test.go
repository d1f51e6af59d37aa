package service_test

import (
	"context"
	"testing"

	"github.com/knightkill/parley-app/internal/model"
	"github.com/knightkill/parley-app/internal/relay"
	"github.com/knightkill/parley-app/internal/repository"
	"github.com/knightkill/parley-app/internal/service"
	"github.com/knightkill/parley-app/internal/testutil/testdb"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// env wires real services over a disposable Postgres container.
type env struct {
	ctx context.Context

	users   *repository.UserRepository
	invites *repository.InviteCodeRepository
	conns   *repository.ConnectionRepository

	hub *relay.Hub

	inviteSvc *service.InviteService
	connSvc   *service.ConnectionService
	chatSvc   *service.ChatService
	apptSvc   *service.AppointmentService
	noticeSvc *service.NoticeService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	if testing.Short() {
		t.Skip("requires docker")
	}

	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)

	logger := zap.NewNop()
	pool := h.Pool

	users := repository.NewUserRepository(pool)
	invites := repository.NewInviteCodeRepository(pool)
	conns := repository.NewConnectionRepository(pool)
	msgs := repository.NewMessageRepository(pool)
	appts := repository.NewAppointmentRepository(pool)
	notices := repository.NewNoticeRepository(pool)

	hub := relay.NewHub(logger)
	t.Cleanup(hub.Close)

	connSvc := service.NewConnectionService(conns, users, logger)
	return &env{
		ctx:       ctx,
		users:     users,
		invites:   invites,
		conns:     conns,
		hub:       hub,
		inviteSvc: service.NewInviteService(pool, invites, conns, users, logger),
		connSvc:   connSvc,
		chatSvc:   service.NewChatService(connSvc, msgs, users, hub, logger),
		apptSvc:   service.NewAppointmentService(connSvc, appts, logger),
		noticeSvc: service.NewNoticeService(connSvc, notices, users, logger),
	}
}

func (e *env) seedUser(t *testing.T, name string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    uuid.NewString() + "@example.com",
		Role:     role,
		APIToken: uuid.NewString(),
	}
	if err := e.users.Create(e.ctx, u); err != nil {
		t.Fatal(err)
	}
	return u
}

// connect issues a fresh code for the teacher and redeems it as the guardian.
func (e *env) connect(t *testing.T, teacher, guardian *model.User, childName string) *model.Connection {
	t.Helper()
	code, err := e.inviteSvc.Issue(e.ctx, teacher.ID)
	if err != nil {
		t.Fatal(err)
	}
	conn, err := e.inviteSvc.Redeem(e.ctx, guardian.ID, code.Code, childName)
	if err != nil {
		t.Fatal(err)
	}
	return conn
}
