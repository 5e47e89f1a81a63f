// Package memory provides an in-process implementation of the repository contracts.
// It backs the service when no postgres DSN is configured and is used by tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/suporte-ops/ticket-desk/internal/domain"
	"github.com/suporte-ops/ticket-desk/internal/repository"
)

// Store holds every table behind a single mutex so each call is one atomic
// read-modify-write, matching the row-level guarantees of the postgres store.
type Store struct {
	mu         sync.Mutex
	now        func() time.Time
	tickets    map[string]domain.Ticket
	approvals  map[string]domain.ApprovalRequest
	attendants map[string]domain.Attendant
	teams      map[string]domain.Team
	history    []domain.TicketHistory
}

// New creates an empty store.
func New() *Store {
	return &Store{
		now:        time.Now,
		tickets:    map[string]domain.Ticket{},
		approvals:  map[string]domain.ApprovalRequest{},
		attendants: map[string]domain.Attendant{},
		teams:      map[string]domain.Team{},
	}
}

// Set returns every repository view backed by this store.
func (s *Store) Set() repository.Set {
	return repository.Set{
		Tickets:    s.Tickets(),
		Approvals:  s.Approvals(),
		Attendants: s.Attendants(),
		Teams:      s.Teams(),
		History:    s.History(),
	}
}

// Tickets returns the ticket repository view.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// Approvals returns the approval repository view.
func (s *Store) Approvals() repository.ApprovalRepository { return approvalRepo{s} }

// Attendants returns the attendant repository view.
func (s *Store) Attendants() repository.AttendantRepository { return attendantRepo{s} }

// Teams returns the team repository view.
func (s *Store) Teams() repository.TeamRepository { return teamRepo{s} }

// History returns the ticket history repository view.
func (s *Store) History() repository.TicketHistoryRepository { return historyRepo{s} }

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	attendant, ok := r.s.attendants[ticket.AttendantID]
	if !ok {
		return repository.ErrNotFound
	}
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = r.s.now()
	ticket.AttendantName = attendant.Name
	r.s.tickets[ticket.ID] = *ticket
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ticket, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ticket, nil
}

func (r ticketRepo) ListByRegistration(_ context.Context, registrationCode string) ([]domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.s.tickets {
		if ticket.RegistrationCode == registrationCode {
			result = append(result, ticket)
		}
	}
	sortTickets(result)
	return result, nil
}

func (r ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	search := ""
	if filter.SearchTerm != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
	}
	var result []domain.Ticket
	for _, ticket := range r.s.tickets {
		if filter.Category != nil && ticket.Kind.Category != *filter.Category {
			continue
		}
		if filter.Sent != nil && ticket.Sent != *filter.Sent {
			continue
		}
		if filter.Paid != nil && ticket.Paid != *filter.Paid {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(ticket.CustomerName), search) &&
			!strings.Contains(strings.ToLower(ticket.RegistrationCode), search) &&
			!strings.Contains(strings.ToLower(ticket.AttendantName), search) {
			continue
		}
		result = append(result, ticket)
	}
	sortTickets(result)
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (r ticketRepo) UpdateFlag(_ context.Context, id string, flag domain.TicketFlag, value bool, at *time.Time) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ticket, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	stamp := r.s.now()
	if at != nil {
		stamp = *at
	}
	if err := ticket.ApplyFlag(flag, value, stamp); err != nil {
		return nil, repository.ErrInvalidState
	}
	r.s.tickets[id] = ticket
	return &ticket, nil
}

func (r ticketRepo) UpdateNotes(_ context.Context, id string, notes *string) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ticket, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ticket.Notes = notes
	r.s.tickets[id] = ticket
	return &ticket, nil
}

type approvalRepo struct{ s *Store }

func (r approvalRepo) Create(_ context.Context, ticketID string) (*domain.ApprovalRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[ticketID]; !ok {
		return nil, repository.ErrNotFound
	}
	for _, existing := range r.s.approvals {
		if existing.TicketID == ticketID {
			return nil, repository.ErrInvalidState
		}
	}
	now := r.s.now()
	approval := domain.ApprovalRequest{
		ID:        uuid.NewString(),
		TicketID:  ticketID,
		Status:    domain.ApprovalStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.approvals[approval.ID] = approval
	return &approval, nil
}

func (r approvalRepo) GetByID(_ context.Context, id string) (*domain.ApprovalRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	approval, ok := r.s.approvals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &approval, nil
}

func (r approvalRepo) GetByTicket(_ context.Context, ticketID string) (*domain.ApprovalRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, approval := range r.s.approvals {
		if approval.TicketID == ticketID {
			return &approval, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Resolve compares the current status with pending and swaps in the resolution under
// the store lock.
func (r approvalRepo) Resolve(_ context.Context, id string, resolution domain.ApprovalResolution) (*domain.ApprovalRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	approval, ok := r.s.approvals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if approval.Status != domain.ApprovalStatusPending {
		return nil, repository.ErrInvalidState
	}
	approval.Status = resolution.Status
	approval.ResolvedByTeam = optional(resolution.ResolvedByTeam)
	approval.Notes = optional(resolution.Notes)
	approval.Link = optional(resolution.Link)
	approval.UpdatedAt = r.s.now()
	r.s.approvals[id] = approval
	return &approval, nil
}

func (r approvalRepo) List(_ context.Context, filter repository.ApprovalFilter) ([]domain.ApprovalRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.ApprovalRequest
	for _, approval := range r.s.approvals {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, approval.Status) {
			continue
		}
		if ticket, ok := r.s.tickets[approval.TicketID]; ok {
			approval.Ticket = &ticket
		}
		result = append(result, approval)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return paginate(result, filter.Limit, filter.Offset), nil
}

type attendantRepo struct{ s *Store }

func (r attendantRepo) Create(_ context.Context, attendant *domain.Attendant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	attendant.ID = uuid.NewString()
	attendant.Active = true
	attendant.CreatedAt = r.s.now()
	r.s.attendants[attendant.ID] = *attendant
	return nil
}

func (r attendantRepo) GetByID(_ context.Context, id string) (*domain.Attendant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	attendant, ok := r.s.attendants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &attendant, nil
}

func (r attendantRepo) ListActive(_ context.Context) ([]domain.Attendant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Attendant
	for _, attendant := range r.s.attendants {
		if attendant.Active {
			result = append(result, attendant)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r attendantRepo) Deactivate(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	attendant, ok := r.s.attendants[id]
	if !ok {
		return repository.ErrNotFound
	}
	attendant.Active = false
	r.s.attendants[id] = attendant
	return nil
}

type teamRepo struct{ s *Store }

func (r teamRepo) Create(_ context.Context, team *domain.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.teams {
		if existing.Name == team.Name {
			return repository.ErrInvalidState
		}
	}
	now := r.s.now()
	team.ID = uuid.NewString()
	team.CreatedAt, team.UpdatedAt = now, now
	r.s.teams[team.ID] = *team
	return nil
}

func (r teamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	team, ok := r.s.teams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &team, nil
}

func (r teamRepo) GetByName(_ context.Context, name domain.TeamName) (*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, team := range r.s.teams {
		if team.Name == name {
			return &team, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r teamRepo) ListActive(_ context.Context) ([]domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Team
	for _, team := range r.s.teams {
		if team.Active {
			result = append(result, team)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r teamRepo) UpdateSecret(_ context.Context, id, secretHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	team, ok := r.s.teams[id]
	if !ok {
		return repository.ErrNotFound
	}
	team.SecretHash = secretHash
	team.UpdatedAt = r.s.now()
	r.s.teams[id] = team
	return nil
}

type historyRepo struct{ s *Store }

func (r historyRepo) Create(_ context.Context, history *domain.TicketHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[history.TicketID]; !ok {
		return repository.ErrNotFound
	}
	history.ID = uuid.NewString()
	history.CreatedAt = r.s.now()
	r.s.history = append(r.s.history, *history)
	return nil
}

func (r historyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.TicketHistory
	for _, entry := range r.s.history {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func containsStatus(statuses []domain.ApprovalStatus, status domain.ApprovalStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func sortTickets(tickets []domain.Ticket) {
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].CreatedAt.After(tickets[j].CreatedAt) })
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
