package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suporte-ops/ticket-desk/internal/domain"
)

// TeamRepository manages persistence for teams.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	GetByName(ctx context.Context, name domain.TeamName) (*domain.Team, error)
	ListActive(ctx context.Context) ([]domain.Team, error)
	UpdateSecret(ctx context.Context, id, secretHash string) error
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository constructs repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	const query = `
        INSERT INTO teams (name, secret_hash, active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		team.Name,
		team.SecretHash,
		team.Active,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	const query = `
        SELECT id, name, secret_hash, active, created_at, updated_at
        FROM teams WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *teamRepository) GetByName(ctx context.Context, name domain.TeamName) (*domain.Team, error) {
	const query = `
        SELECT id, name, secret_hash, active, created_at, updated_at
        FROM teams WHERE name=$1`
	return r.fetchSingle(ctx, query, name)
}

func (r *teamRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Team, error) {
	var team domain.Team
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&team.ID,
		&team.Name,
		&team.SecretHash,
		&team.Active,
		&team.CreatedAt,
		&team.UpdatedAt,
	); err != nil {
		return nil, mapNoRows(err)
	}
	return &team, nil
}

func (r *teamRepository) ListActive(ctx context.Context) ([]domain.Team, error) {
	const query = `
        SELECT id, name, secret_hash, active, created_at, updated_at
        FROM teams WHERE active=TRUE ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.SecretHash, &team.Active, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, team)
	}
	return result, rows.Err()
}

func (r *teamRepository) UpdateSecret(ctx context.Context, id, secretHash string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE teams SET secret_hash=$1, updated_at=NOW() WHERE id=$2`, secretHash, id)
	if err != nil {
		return mapNoRows(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
