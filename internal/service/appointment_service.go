package service

import (
	"context"
	"fmt"
	"time"

	"github.com/knightkill/parley-app/internal/apperr"
	"github.com/knightkill/parley-app/internal/model"
	"github.com/knightkill/parley-app/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AppointmentService drives the PENDING → CONFIRMED | CANCELLED lifecycle.
// Either party proposes; only the teacher side settles.
type AppointmentService struct {
	connSvc  *ConnectionService
	apptRepo *repository.AppointmentRepository
	logger   *zap.Logger

	now func() time.Time
}

func NewAppointmentService(
	connSvc *ConnectionService,
	apptRepo *repository.AppointmentRepository,
	logger *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		connSvc:  connSvc,
		apptRepo: apptRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// Create proposes an appointment on a connection the caller belongs to.
func (s *AppointmentService) Create(ctx context.Context, callerID, connectionID string, dateTime time.Time, notes *string) (*model.Appointment, error) {
	conn, err := s.connSvc.GetForAccount(ctx, callerID, connectionID)
	if err != nil {
		return nil, err
	}

	if dateTime.Before(s.now()) {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, "appointment time is in the past")
	}

	appt := &model.Appointment{
		ID:           uuid.NewString(),
		ConnectionID: conn.ID,
		DateTime:     dateTime,
		Status:       model.AppointmentStatusPending,
		Notes:        notes,
	}
	if err := s.apptRepo.Create(ctx, appt); err != nil {
		return nil, err
	}

	s.logger.Info("appointment proposed",
		zap.String("appointment_id", appt.ID),
		zap.String("connection_id", conn.ID),
		zap.Time("date_time", dateTime),
	)
	return appt, nil
}

// Transition settles a PENDING appointment. Teacher side only; a guardian
// attempt fails with ErrUnauthorized regardless of target status. A
// non-PENDING source state reports ErrConflict — confirmed and cancelled are
// terminal.
func (s *AppointmentService) Transition(ctx context.Context, callerID, appointmentID string, status model.AppointmentStatus) (*model.Appointment, error) {
	if status != model.AppointmentStatusConfirmed && status != model.AppointmentStatusCancelled {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, "status must be CONFIRMED or CANCELLED")
	}

	appt, err := s.apptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, apperr.Wrap(apperr.ErrNotFound, "appointment not found")
	}

	conn, err := s.connSvc.Authorize(ctx, callerID, appt.ConnectionID)
	if err != nil {
		return nil, err
	}
	if callerID != conn.TeacherID {
		return nil, apperr.Wrap(apperr.ErrUnauthorized, "only the teacher settles appointments")
	}

	if !appt.IsPending() {
		return nil, apperr.Wrap(apperr.ErrConflict, "appointment already %s", appt.Status)
	}

	changed, err := s.apptRepo.SetStatus(ctx, appointmentID, status)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Проиграли гонку другому переходу.
		return nil, apperr.Wrap(apperr.ErrConflict, "appointment settled concurrently")
	}

	appt, err = s.apptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, fmt.Errorf("appointment %s vanished after transition", appointmentID)
	}
	appt.Connection = conn

	s.logger.Info("appointment settled",
		zap.String("appointment_id", appointmentID),
		zap.String("status", string(status)),
	)
	return appt, nil
}

// ListForAccount returns appointments across all of the caller's
// connections, soonest first.
func (s *AppointmentService) ListForAccount(ctx context.Context, accountID string) ([]*model.Appointment, error) {
	appts, err := s.apptRepo.ListForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if appts == nil {
		appts = []*model.Appointment{}
	}
	return appts, nil
}
