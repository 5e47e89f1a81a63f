package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suporte-ops/ticket-desk/internal/domain"
)

// AttendantRepository manages the attendant lookup table.
type AttendantRepository interface {
	Create(ctx context.Context, attendant *domain.Attendant) error
	GetByID(ctx context.Context, id string) (*domain.Attendant, error)
	ListActive(ctx context.Context) ([]domain.Attendant, error)
	Deactivate(ctx context.Context, id string) error
}

type attendantRepository struct {
	pool *pgxpool.Pool
}

// NewAttendantRepository constructs repository.
func NewAttendantRepository(pool *pgxpool.Pool) AttendantRepository {
	return &attendantRepository{pool: pool}
}

func (r *attendantRepository) Create(ctx context.Context, attendant *domain.Attendant) error {
	const query = `
        INSERT INTO attendants (name, active)
        VALUES ($1, TRUE)
        RETURNING id, active, created_at`
	return r.pool.QueryRow(ctx, query, attendant.Name).Scan(&attendant.ID, &attendant.Active, &attendant.CreatedAt)
}

func (r *attendantRepository) GetByID(ctx context.Context, id string) (*domain.Attendant, error) {
	const query = `SELECT id, name, active, created_at FROM attendants WHERE id=$1`
	var attendant domain.Attendant
	if err := r.pool.QueryRow(ctx, query, id).Scan(&attendant.ID, &attendant.Name, &attendant.Active, &attendant.CreatedAt); err != nil {
		return nil, mapNoRows(err)
	}
	return &attendant, nil
}

func (r *attendantRepository) ListActive(ctx context.Context) ([]domain.Attendant, error) {
	const query = `SELECT id, name, active, created_at FROM attendants WHERE active=TRUE ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attendant
	for rows.Next() {
		var attendant domain.Attendant
		if err := rows.Scan(&attendant.ID, &attendant.Name, &attendant.Active, &attendant.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, attendant)
	}
	return result, rows.Err()
}

func (r *attendantRepository) Deactivate(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE attendants SET active=FALSE WHERE id=$1`, id)
	if err != nil {
		return mapNoRows(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
