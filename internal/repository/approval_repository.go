package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suporte-ops/ticket-desk/internal/domain"
)

// ApprovalFilter narrows approval listings.
type ApprovalFilter struct {
	Statuses []domain.ApprovalStatus
	Limit    int
	Offset   int
}

// ApprovalRepository persists approval requests. Resolve is a conditional write that
// only succeeds while the request is still pending.
type ApprovalRepository interface {
	Create(ctx context.Context, ticketID string) (*domain.ApprovalRequest, error)
	GetByID(ctx context.Context, id string) (*domain.ApprovalRequest, error)
	GetByTicket(ctx context.Context, ticketID string) (*domain.ApprovalRequest, error)
	Resolve(ctx context.Context, id string, resolution domain.ApprovalResolution) (*domain.ApprovalRequest, error)
	List(ctx context.Context, filter ApprovalFilter) ([]domain.ApprovalRequest, error)
}

type approvalRepository struct {
	pool *pgxpool.Pool
}

// NewApprovalRepository constructs repository.
func NewApprovalRepository(pool *pgxpool.Pool) ApprovalRepository {
	return &approvalRepository{pool: pool}
}

const approvalColumns = `id, ticket_id, status, resolved_by_team, notes, link, created_at, updated_at`

func (r *approvalRepository) Create(ctx context.Context, ticketID string) (*domain.ApprovalRequest, error) {
	query := `
        INSERT INTO approval_requests (ticket_id, status)
        VALUES ($1, $2)
        RETURNING ` + approvalColumns
	approval, err := scanApproval(r.pool.QueryRow(ctx, query, ticketID, domain.ApprovalStatusPending))
	if err != nil {
		return nil, mapConstraint(err)
	}
	return approval, nil
}

func (r *approvalRepository) GetByID(ctx context.Context, id string) (*domain.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE id=$1`
	approval, err := scanApproval(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return approval, nil
}

func (r *approvalRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE ticket_id=$1`
	approval, err := scanApproval(r.pool.QueryRow(ctx, query, ticketID))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return approval, nil
}

// Resolve writes the decision only while the request is still pending. A miss is
// split into ErrNotFound and ErrInvalidState by a second lookup. The memory store
// keeps the same contract; see TestResolveIsConditionalOnPending and
// TestResolveUnknownApproval in repository/memory.
func (r *approvalRepository) Resolve(ctx context.Context, id string, resolution domain.ApprovalResolution) (*domain.ApprovalRequest, error) {
	query := `
        UPDATE approval_requests
        SET status=$2, resolved_by_team=$3, notes=$4, link=$5, updated_at=NOW()
        WHERE id=$1 AND status=$6
        RETURNING ` + approvalColumns
	approval, err := scanApproval(r.pool.QueryRow(ctx, query,
		id,
		resolution.Status,
		resolution.ResolvedByTeam,
		nullIfEmpty(resolution.Notes),
		nullIfEmpty(resolution.Link),
		domain.ApprovalStatusPending,
	))
	if err == nil {
		return approval, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapNoRows(err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM approval_requests WHERE id=$1)`, id).Scan(&exists); err != nil {
		return nil, mapNoRows(err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrInvalidState
}

func (r *approvalRepository) List(ctx context.Context, filter ApprovalFilter) ([]domain.ApprovalRequest, error) {
	base := `SELECT s.id, s.ticket_id, s.status, s.resolved_by_team, s.notes, s.link, s.created_at, s.updated_at,
                    ` + ticketColumns + `
             FROM approval_requests s
             JOIN tickets t ON t.id = s.ticket_id
             JOIN attendants a ON a.id = t.attendant_id`
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("s.status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY s.created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ApprovalRequest
	for rows.Next() {
		var (
			approval    domain.ApprovalRequest
			ticket      domain.Ticket
			subcategory *string
		)
		if err := rows.Scan(
			&approval.ID,
			&approval.TicketID,
			&approval.Status,
			&approval.ResolvedByTeam,
			&approval.Notes,
			&approval.Link,
			&approval.CreatedAt,
			&approval.UpdatedAt,
			&ticket.ID,
			&ticket.AttendantID,
			&ticket.AttendantName,
			&ticket.RegistrationCode,
			&ticket.CustomerName,
			&ticket.AmountCents,
			&ticket.Installments,
			&ticket.Phone,
			&ticket.Kind.Category,
			&subcategory,
			&ticket.Sent,
			&ticket.SentAt,
			&ticket.Paid,
			&ticket.PaidAt,
			&ticket.Notes,
			&ticket.CreatedAt,
		); err != nil {
			return nil, err
		}
		if subcategory != nil {
			ticket.Kind.Subcategory = domain.Subcategory(*subcategory)
		}
		approval.Ticket = &ticket
		result = append(result, approval)
	}
	return result, rows.Err()
}

func scanApproval(row pgx.Row) (*domain.ApprovalRequest, error) {
	var approval domain.ApprovalRequest
	if err := row.Scan(
		&approval.ID,
		&approval.TicketID,
		&approval.Status,
		&approval.ResolvedByTeam,
		&approval.Notes,
		&approval.Link,
		&approval.CreatedAt,
		&approval.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &approval, nil
}
