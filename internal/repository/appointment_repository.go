package repository

import (
	"context"
	"fmt"

	"github.com/knightkill/parley-app/internal/model"
	"github.com/knightkill/parley-app/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AppointmentRepository struct {
	db base.Queryer
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{db: pool}
}

const appointmentColumns = `id, connection_id, date_time, status, notes, created_at, updated_at`

func scanAppointment(row interface{ Scan(...any) error }) (*model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(&a.ID, &a.ConnectionID, &a.DateTime, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create создает встречу в статусе PENDING
func (r *AppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, connection_id, date_time, status, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, appt.ID, appt.ConnectionID, appt.DateTime, appt.Status, appt.Notes).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// GetByID получает встречу по ID
func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)

	appt, err := scanAppointment(row)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}
	return appt, nil
}

// SetStatus переводит встречу из PENDING в новый статус. Compare-and-set:
// возвращает false, если встреча уже не PENDING.
func (r *AppointmentRepository) SetStatus(ctx context.Context, id string, status model.AppointmentStatus) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = 'PENDING'
	`, status, id)
	if err != nil {
		return false, fmt.Errorf("set appointment status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListForAccount получает встречи по всем связям участника по возрастанию времени
func (r *AppointmentRepository) ListForAccount(ctx context.Context, accountID string) ([]*model.Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.connection_id, a.date_time, a.status, a.notes, a.created_at, a.updated_at,
		       c.id, c.guardian_id, c.teacher_id, c.child_name, c.created_at
		FROM appointments a
		JOIN connections c ON c.id = a.connection_id
		WHERE c.guardian_id = $1 OR c.teacher_id = $1
		ORDER BY a.date_time ASC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appts []*model.Appointment
	for rows.Next() {
		var a model.Appointment
		var c model.Connection
		err := rows.Scan(
			&a.ID, &a.ConnectionID, &a.DateTime, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
			&c.ID, &c.GuardianID, &c.TeacherID, &c.ChildName, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		a.Connection = &c
		appts = append(appts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return appts, nil
}
