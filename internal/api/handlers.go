package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/knightkill/parley-app/internal/apperr"
	"github.com/knightkill/parley-app/internal/model"
)

// ---------------------------------------------------------------------------
// Invite codes
// ---------------------------------------------------------------------------

func (s *Server) handleListInviteCodes(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	codes, err := s.invites.ListByTeacher(r.Context(), user.ID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if codes == nil {
		codes = []*model.InviteCode{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"inviteCodes": codes})
}

func (s *Server) handleIssueInviteCode(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	code, err := s.invites.Issue(r.Context(), user.ID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"inviteCode": code})
}

// ---------------------------------------------------------------------------
// Connections
// ---------------------------------------------------------------------------

type connectRequest struct {
	InviteCode string `json:"inviteCode"`
	ChildName  string `json:"childName"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req connectRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	if req.InviteCode == "" {
		s.respondErr(w, apperr.Wrap(apperr.ErrInvalidInput, "inviteCode is required"))
		return
	}

	conn, err := s.invites.Redeem(r.Context(), user.ID, req.InviteCode, req.ChildName)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	greeting := "Successfully connected!"
	if conn.Teacher != nil {
		greeting = fmt.Sprintf("Successfully connected with %s!", conn.Teacher.Name)
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{
		"connection": conn,
		"message":    greeting,
	})
}

func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	conns, err := s.conns.ListForAccount(r.Context(), user.ID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"connections": conns})
}

func (s *Server) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	conn, err := s.conns.GetForAccount(r.Context(), user.ID, r.PathValue("connectionId"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	other, err := s.conns.Counterparty(r.Context(), conn, user.ID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"connection": conn,
		"otherUser":  other.Summary(),
	})
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

type sendMessageRequest struct {
	ConnectionID string `json:"connectionId"`
	Content      string `json:"content"`
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	connectionID := r.URL.Query().Get("connectionId")
	if connectionID == "" {
		s.respondErr(w, apperr.Wrap(apperr.ErrInvalidInput, "connectionId is required"))
		return
	}
	msgs, err := s.chat.List(r.Context(), user.ID, connectionID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	msg, err := s.chat.Append(r.Context(), user.ID, req.ConnectionID, req.Content)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"message": msg})
}

// ---------------------------------------------------------------------------
// Appointments
// ---------------------------------------------------------------------------

type createAppointmentRequest struct {
	ConnectionID string  `json:"connectionId"`
	DateTime     string  `json:"dateTime"`
	Notes        *string `json:"notes,omitempty"`
}

type transitionAppointmentRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	appts, err := s.appts.ListForAccount(r.Context(), user.ID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req createAppointmentRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	dateTime, err := time.Parse(time.RFC3339, req.DateTime)
	if err != nil {
		s.respondErr(w, apperr.Wrap(apperr.ErrInvalidInput, "dateTime must be RFC 3339"))
		return
	}
	appt, err := s.appts.Create(r.Context(), user.ID, req.ConnectionID, dateTime, req.Notes)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"appointment": appt})
}

func (s *Server) handleTransitionAppointment(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req transitionAppointmentRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	if !model.ValidAppointmentStatus(req.Status) {
		s.respondErr(w, apperr.Wrap(apperr.ErrInvalidInput, "unknown status %q", req.Status))
		return
	}
	appt, err := s.appts.Transition(r.Context(), user.ID, r.PathValue("appointmentId"), model.AppointmentStatus(req.Status))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"appointment": appt})
}

// ---------------------------------------------------------------------------
// Notices
// ---------------------------------------------------------------------------

type createNoticeRequest struct {
	ConnectionID string `json:"connectionId"`
	Type         string `json:"type"`
	Title        string `json:"title"`
	Content      string `json:"content"`
}

func (s *Server) handleListNotices(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	notices, err := s.notices.ListForAccount(r.Context(), user.ID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"notices": notices})
}

func (s *Server) handleCreateNotice(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req createNoticeRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	notice, err := s.notices.Create(r.Context(), user.ID, req.ConnectionID, model.NoticeType(req.Type), req.Title, req.Content)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"notice": notice})
}
