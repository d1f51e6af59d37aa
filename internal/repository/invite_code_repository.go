package repository

import (
	"context"
	"fmt"

	"github.com/knightkill/parley-app/internal/model"
	"github.com/knightkill/parley-app/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InviteCodeRepository struct {
	db base.Queryer
}

func NewInviteCodeRepository(pool *pgxpool.Pool) *InviteCodeRepository {
	return &InviteCodeRepository{db: pool}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *InviteCodeRepository) WithTx(tx pgx.Tx) *InviteCodeRepository {
	return &InviteCodeRepository{db: tx}
}

const inviteColumns = `id, teacher_id, code, used, expires_at, created_at`

func scanInvite(row interface{ Scan(...any) error }) (*model.InviteCode, error) {
	var c model.InviteCode
	err := row.Scan(&c.ID, &c.TeacherID, &c.Code, &c.Used, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create создает новый invite-код
func (r *InviteCodeRepository) Create(ctx context.Context, code *model.InviteCode) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO invite_codes (id, teacher_id, code, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING used, created_at
	`, code.ID, code.TeacherID, code.Code, code.ExpiresAt).Scan(&code.Used, &code.CreatedAt)
	if err != nil {
		return fmt.Errorf("create invite code: %w", err)
	}
	return nil
}

// GetByCode получает код по строке (каноническая форма — uppercase)
func (r *InviteCodeRepository) GetByCode(ctx context.Context, code string) (*model.InviteCode, error) {
	row := r.db.QueryRow(ctx, `SELECT `+inviteColumns+` FROM invite_codes WHERE code = $1`, code)

	invite, err := scanInvite(row)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invite code by code: %w", err)
	}
	return invite, nil
}

// GetByCodeForUpdate reads the code row under a row lock. Concurrent
// redeemers of the same code serialize here: the loser blocks until the
// winner commits and then observes used=true.
func (r *InviteCodeRepository) GetByCodeForUpdate(ctx context.Context, code string) (*model.InviteCode, error) {
	row := r.db.QueryRow(ctx, `SELECT `+inviteColumns+` FROM invite_codes WHERE code = $1 FOR UPDATE`, code)

	invite, err := scanInvite(row)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invite code for update: %w", err)
	}
	return invite, nil
}

// GetByTeacherID получает все коды учителя, новые первыми
func (r *InviteCodeRepository) GetByTeacherID(ctx context.Context, teacherID string) ([]*model.InviteCode, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+inviteColumns+`
		FROM invite_codes
		WHERE teacher_id = $1
		ORDER BY created_at DESC
	`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get invite codes by teacher: %w", err)
	}
	defer rows.Close()

	var codes []*model.InviteCode
	for rows.Next() {
		code, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invite code: %w", err)
		}
		codes = append(codes, code)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invite codes: %w", err)
	}
	return codes, nil
}

// MarkUsed помечает код использованным. Compare-and-set: возвращает false,
// если код уже был использован.
func (r *InviteCodeRepository) MarkUsed(ctx context.Context, codeID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE invite_codes
		SET used = TRUE
		WHERE id = $1 AND NOT used
	`, codeID)
	if err != nil {
		return false, fmt.Errorf("mark invite code used: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CodeExists проверяет, существует ли код с такой строкой
func (r *InviteCodeRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM invite_codes WHERE code = $1)
	`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check code exists: %w", err)
	}
	return exists, nil
}
