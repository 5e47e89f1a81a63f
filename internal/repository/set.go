package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Set groups the repositories the services are built from.
type Set struct {
	Tickets    TicketRepository
	Approvals  ApprovalRepository
	Attendants AttendantRepository
	Teams      TeamRepository
	History    TicketHistoryRepository
}

// NewPostgresSet builds every repository on the same pool.
func NewPostgresSet(pool *pgxpool.Pool) Set {
	return Set{
		Tickets:    NewTicketRepository(pool),
		Approvals:  NewApprovalRepository(pool),
		Attendants: NewAttendantRepository(pool),
		Teams:      NewTeamRepository(pool),
		History:    NewTicketHistoryRepository(pool),
	}
}
