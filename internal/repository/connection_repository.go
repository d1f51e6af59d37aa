package repository

import (
	"context"
	"fmt"

	"github.com/knightkill/parley-app/internal/apperr"
	"github.com/knightkill/parley-app/internal/model"
	"github.com/knightkill/parley-app/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConnectionRepository struct {
	db base.Queryer
}

func NewConnectionRepository(pool *pgxpool.Pool) *ConnectionRepository {
	return &ConnectionRepository{db: pool}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *ConnectionRepository) WithTx(tx pgx.Tx) *ConnectionRepository {
	return &ConnectionRepository{db: tx}
}

const connectionColumns = `id, guardian_id, teacher_id, child_name, created_at`

func scanConnection(row interface{ Scan(...any) error }) (*model.Connection, error) {
	var c model.Connection
	err := row.Scan(&c.ID, &c.GuardianID, &c.TeacherID, &c.ChildName, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create создает связь. Нарушение уникальности пары (guardian, teacher) —
// гонка, проскочившая мимо прикладной проверки — транслируется в ErrConflict.
func (r *ConnectionRepository) Create(ctx context.Context, conn *model.Connection) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO connections (id, guardian_id, teacher_id, child_name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, conn.ID, conn.GuardianID, conn.TeacherID, conn.ChildName).Scan(&conn.CreatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return apperr.Wrap(apperr.ErrConflict, "connection for pair already exists")
		}
		return fmt.Errorf("create connection: %w", err)
	}
	return nil
}

// GetByPair получает связь по паре (guardian, teacher)
func (r *ConnectionRepository) GetByPair(ctx context.Context, guardianID, teacherID string) (*model.Connection, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+connectionColumns+`
		FROM connections
		WHERE guardian_id = $1 AND teacher_id = $2
	`, guardianID, teacherID)

	conn, err := scanConnection(row)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get connection by pair: %w", err)
	}
	return conn, nil
}

// GetForAccount получает связь по ID, отфильтрованную по участнику.
// Чужая связь и несуществующая неразличимы для вызывающего.
func (r *ConnectionRepository) GetForAccount(ctx context.Context, connectionID, accountID string) (*model.Connection, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+connectionColumns+`
		FROM connections
		WHERE id = $1 AND (guardian_id = $2 OR teacher_id = $2)
	`, connectionID, accountID)

	conn, err := scanConnection(row)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get connection for account: %w", err)
	}
	return conn, nil
}

// ListForAccount получает все связи участника, новые первыми
func (r *ConnectionRepository) ListForAccount(ctx context.Context, accountID string) ([]*model.Connection, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+connectionColumns+`
		FROM connections
		WHERE guardian_id = $1 OR teacher_id = $1
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	var conns []*model.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		conns = append(conns, conn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}
	return conns, nil
}
