package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/knightkill/parley-app/internal/api"
	"github.com/knightkill/parley-app/internal/app"
	"github.com/knightkill/parley-app/internal/auth"
	"github.com/knightkill/parley-app/internal/config"
	"github.com/knightkill/parley-app/internal/observability"
	"github.com/knightkill/parley-app/internal/relay"
	"github.com/knightkill/parley-app/internal/repository"
	"github.com/knightkill/parley-app/internal/service"
	"github.com/knightkill/parley-app/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const release = "parley-app@dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	flushSentry, err := observability.InitSentry(cfg.SentryDSN, cfg.Environment, release)
	if err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer flushSentry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}
	_ = migrator.Close()

	userRepo := repository.NewUserRepository(pool)
	inviteRepo := repository.NewInviteCodeRepository(pool)
	connRepo := repository.NewConnectionRepository(pool)
	msgRepo := repository.NewMessageRepository(pool)
	apptRepo := repository.NewAppointmentRepository(pool)
	noticeRepo := repository.NewNoticeRepository(pool)

	hub := relay.NewHub(logger)

	connSvc := service.NewConnectionService(connRepo, userRepo, logger)
	inviteSvc := service.NewInviteService(pool, inviteRepo, connRepo, userRepo, logger)
	chatSvc := service.NewChatService(connSvc, msgRepo, userRepo, hub, logger)
	apptSvc := service.NewAppointmentService(connSvc, apptRepo, logger)
	noticeSvc := service.NewNoticeService(connSvc, noticeRepo, userRepo, logger)

	authn := auth.NewTokenAuthenticator(userRepo)
	apiServer := api.NewServer(authn, inviteSvc, connSvc, chatSvc, apptSvc, noticeSvc, logger)
	gateway := ws.NewGateway(authn, connSvc, chatSvc, hub, logger)

	srv := app.StartHTTP(ctx, cfg.HTTPAddr, pool, apiServer.Handler(), gateway)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// Комнаты не переживают рестарт: клиенты пере-Join при reconnect.
		hub.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		observability.CaptureErr(err)
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
