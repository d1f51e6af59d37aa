// Package api is the JSON surface over the services. Handlers do transport
// work only: decode, resolve the caller, call one service method, encode.
// All domain decisions live in internal/service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/knightkill/parley-app/internal/apperr"
	"github.com/knightkill/parley-app/internal/auth"
	"github.com/knightkill/parley-app/internal/metrics"
	"github.com/knightkill/parley-app/internal/model"
	"github.com/knightkill/parley-app/internal/observability"
	"github.com/knightkill/parley-app/internal/service"
	"go.uber.org/zap"
)

type Server struct {
	authn   auth.Authenticator
	invites *service.InviteService
	conns   *service.ConnectionService
	chat    *service.ChatService
	appts   *service.AppointmentService
	notices *service.NoticeService
	logger  *zap.Logger
	mux     *http.ServeMux
}

func NewServer(
	authn auth.Authenticator,
	invites *service.InviteService,
	conns *service.ConnectionService,
	chat *service.ChatService,
	appts *service.AppointmentService,
	notices *service.NoticeService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		authn:   authn,
		invites: invites,
		conns:   conns,
		chat:    chat,
		appts:   appts,
		notices: notices,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be mounted under /api/.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/invite-codes", s.handleListInviteCodes)
	s.mux.HandleFunc("POST /api/invite-codes", s.handleIssueInviteCode)

	s.mux.HandleFunc("POST /api/connect", s.handleConnect)
	s.mux.HandleFunc("GET /api/connections", s.handleListConnections)
	s.mux.HandleFunc("GET /api/connections/{connectionId}", s.handleGetConnection)

	s.mux.HandleFunc("GET /api/messages", s.handleListMessages)
	s.mux.HandleFunc("POST /api/messages", s.handleSendMessage)

	s.mux.HandleFunc("GET /api/appointments", s.handleListAppointments)
	s.mux.HandleFunc("POST /api/appointments", s.handleCreateAppointment)
	s.mux.HandleFunc("PATCH /api/appointments/{appointmentId}", s.handleTransitionAppointment)

	s.mux.HandleFunc("GET /api/notices", s.handleListNotices)
	s.mux.HandleFunc("POST /api/notices", s.handleCreateNotice)
}

// caller authenticates the request and rejects it when there is no session.
func (s *Server) caller(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, err := s.authn.Authenticate(r)
	if err != nil {
		s.respondErr(w, err)
		return nil, false
	}
	return user, true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.Error("encode response", zap.Error(err))
		}
	}
}

// respondErr maps a domain error to its status and stable message. Anything
// outside the taxonomy is logged, reported and answered with a generic 500.
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	if !apperr.IsDomain(err) {
		metrics.HandlerErrors.Inc()
		observability.CaptureErr(err)
		s.logger.Error("handler failed", zap.Error(err))
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	s.respondJSON(w, apperr.HTTPStatus(err), map[string]string{"error": domainMessage(err)})
}

// domainMessage strips wrap context, leaving the sentinel's stable message.
func domainMessage(err error) string {
	for _, sentinel := range []error{
		apperr.ErrUnauthenticated, apperr.ErrUnauthorized, apperr.ErrNotFound,
		apperr.ErrInvalidInput, apperr.ErrInvalidCode, apperr.ErrCodeAlreadyUsed,
		apperr.ErrCodeExpired, apperr.ErrAlreadyConnected,
		apperr.ErrCodeSpaceExhausted, apperr.ErrConflict, apperr.ErrUnavailable,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.ErrInvalidInput, "malformed request body")
	}
	return nil
}
