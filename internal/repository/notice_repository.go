package repository

import (
	"context"
	"fmt"

	"github.com/knightkill/parley-app/internal/model"
	"github.com/knightkill/parley-app/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NoticeRepository struct {
	db base.Queryer
}

func NewNoticeRepository(pool *pgxpool.Pool) *NoticeRepository {
	return &NoticeRepository{db: pool}
}

// Create создает уведомление
func (r *NoticeRepository) Create(ctx context.Context, notice *model.Notice) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO notices (id, connection_id, teacher_id, type, title, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, notice.ID, notice.ConnectionID, notice.TeacherID, notice.Type, notice.Title, notice.Content).Scan(&notice.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notice: %w", err)
	}
	return nil
}

const noticeSelect = `
	SELECT n.id, n.connection_id, n.teacher_id, n.type, n.title, n.content, n.created_at,
	       c.id, c.guardian_id, c.teacher_id, c.child_name, c.created_at
	FROM notices n
	JOIN connections c ON c.id = n.connection_id
`

func (r *NoticeRepository) collect(ctx context.Context, query string, args ...any) ([]*model.Notice, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	var notices []*model.Notice
	for rows.Next() {
		var n model.Notice
		var c model.Connection
		err := rows.Scan(
			&n.ID, &n.ConnectionID, &n.TeacherID, &n.Type, &n.Title, &n.Content, &n.CreatedAt,
			&c.ID, &c.GuardianID, &c.TeacherID, &c.ChildName, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		n.Connection = &c
		notices = append(notices, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notices: %w", err)
	}
	return notices, nil
}

// ListByTeacher получает уведомления, созданные учителем, новые первыми
func (r *NoticeRepository) ListByTeacher(ctx context.Context, teacherID string) ([]*model.Notice, error) {
	return r.collect(ctx, noticeSelect+`
		WHERE n.teacher_id = $1
		ORDER BY n.created_at DESC
	`, teacherID)
}

// ListByGuardian получает уведомления по всем связям опекуна, новые первыми
func (r *NoticeRepository) ListByGuardian(ctx context.Context, guardianID string) ([]*model.Notice, error) {
	return r.collect(ctx, noticeSelect+`
		WHERE c.guardian_id = $1
		ORDER BY n.created_at DESC
	`, guardianID)
}
