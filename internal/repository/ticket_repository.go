package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suporte-ops/ticket-desk/internal/domain"
)

// TicketFilter captures list parameters for the history views.
type TicketFilter struct {
	Category   *domain.Category
	SearchTerm *string
	Sent       *bool
	Paid       *bool
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByRegistration(ctx context.Context, registrationCode string) ([]domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateFlag(ctx context.Context, id string, flag domain.TicketFlag, value bool, at *time.Time) (*domain.Ticket, error)
	UpdateNotes(ctx context.Context, id string, notes *string) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `t.id, t.attendant_id, a.name, t.registration_code, t.customer_name,
               (t.amount * 100)::BIGINT, t.installments, t.phone, t.category, t.subcategory,
               t.sent, t.sent_at, t.paid, t.paid_at, t.notes, t.created_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (attendant_id, registration_code, customer_name, amount, installments, phone, category, subcategory)
        VALUES ($1,$2,$3,$4::NUMERIC / 100,$5,$6,$7,$8)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.AttendantID,
		ticket.RegistrationCode,
		ticket.CustomerName,
		ticket.AmountCents,
		ticket.Installments,
		ticket.Phone,
		ticket.Kind.Category,
		nullIfEmpty(string(ticket.Kind.Subcategory)),
	).Scan(&ticket.ID, &ticket.CreatedAt)
	return mapConstraint(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
        FROM tickets t JOIN attendants a ON a.id = t.attendant_id
        WHERE t.id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return ticket, nil
}

func (r *ticketRepository) ListByRegistration(ctx context.Context, registrationCode string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
        FROM tickets t JOIN attendants a ON a.id = t.attendant_id
        WHERE t.registration_code=$1
        ORDER BY t.created_at DESC`
	rows, err := r.pool.Query(ctx, query, registrationCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + `
             FROM tickets t JOIN attendants a ON a.id = t.attendant_id`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("t.category=$%d", len(args)))
	}
	if filter.Sent != nil {
		args = append(args, *filter.Sent)
		clauses = append(clauses, fmt.Sprintf("t.sent=$%d", len(args)))
	}
	if filter.Paid != nil {
		args = append(args, *filter.Paid)
		clauses = append(clauses, fmt.Sprintf("t.paid=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(t.customer_name) LIKE %s OR LOWER(t.registration_code) LIKE %s OR LOWER(a.name) LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateFlag(ctx context.Context, id string, flag domain.TicketFlag, value bool, at *time.Time) (*domain.Ticket, error) {
	var set string
	switch flag {
	case domain.TicketFlagSent:
		set = "sent=$2, sent_at=$3"
	case domain.TicketFlagPaid:
		set = "paid=$2, paid_at=$3"
	default:
		return nil, fmt.Errorf("unknown ticket flag %q", flag)
	}
	query := `
        WITH t AS (UPDATE tickets SET ` + set + ` WHERE id=$1 RETURNING *)
        SELECT ` + ticketColumns + ` FROM t JOIN attendants a ON a.id = t.attendant_id`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id, value, at))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return ticket, nil
}

func (r *ticketRepository) UpdateNotes(ctx context.Context, id string, notes *string) (*domain.Ticket, error) {
	query := `
        WITH t AS (UPDATE tickets SET notes=$2 WHERE id=$1 RETURNING *)
        SELECT ` + ticketColumns + ` FROM t JOIN attendants a ON a.id = t.attendant_id`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id, notes))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return ticket, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket      domain.Ticket
		subcategory *string
	)
	if err := row.Scan(
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
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
