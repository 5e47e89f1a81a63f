package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suporte-ops/ticket-desk/internal/dispatch"
	"github.com/suporte-ops/ticket-desk/internal/domain"
	"github.com/suporte-ops/ticket-desk/internal/events"
	"github.com/suporte-ops/ticket-desk/internal/repository"
	apperrors "github.com/suporte-ops/ticket-desk/pkg/util/errorutil"
)

// SubmitOutcome tells the caller what happened after a ticket was stored.
type SubmitOutcome string

const (
	OutcomeQueuedForApproval SubmitOutcome = "queued_for_approval"
	OutcomeDispatched        SubmitOutcome = "dispatched"
)

// TicketService coordinates ticket submission and status tracking.
type TicketService struct {
	tickets    repository.TicketRepository
	approvals  repository.ApprovalRepository
	attendants repository.AttendantRepository
	history    repository.TicketHistoryRepository
	runner     *DispatchRunner
	events     eventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo    repository.TicketRepository
	ApprovalRepo  repository.ApprovalRepository
	AttendantRepo repository.AttendantRepository
	HistoryRepo   repository.TicketHistoryRepository
	Runner        *DispatchRunner
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// SubmitTicketInput carries the raw form fields of a new ticket.
type SubmitTicketInput struct {
	AttendantID      string
	RegistrationCode string
	CustomerName     string
	Amount           string
	Installments     string
	Phone            string
	Category         string
	Subcategory      string
}

// SubmitResult describes a stored ticket and what followed.
type SubmitResult struct {
	Ticket   *domain.Ticket
	Approval *domain.ApprovalRequest
	Outcome  SubmitOutcome
	Dispatch DispatchReport
}

// TicketFilter describes listing filters.
type TicketFilter struct {
	Category   *domain.Category
	SearchTerm *string
	Sent       *bool
	Paid       *bool
	Limit      int
	Offset     int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := nonNilLogger(deps.Logger)
	return &TicketService{
		tickets:    deps.TicketRepo,
		approvals:  deps.ApprovalRepo,
		attendants: deps.AttendantRepo,
		history:    deps.HistoryRepo,
		runner:     deps.Runner,
		events:     eventPublisher{dispatcher: deps.Dispatcher, logger: logger},
		logger:     logger,
		now:        time.Now,
	}
}

// SubmitTicket validates and stores a ticket. Link tickets are queued for approval;
// every other category is dispatched right after the insert.
func (s *TicketService) SubmitTicket(ctx context.Context, actingTeam string, input SubmitTicketInput) (*SubmitResult, error) {
	ticket, err := buildTicket(input)
	if err != nil {
		return nil, err
	}

	attendant, err := s.attendants.GetByID(ctx, ticket.AttendantID)
	if err != nil {
		return nil, mapStoreError("load attendant", "attendant", ticket.AttendantID, err)
	}
	if !attendant.Active {
		return nil, apperrors.NewValidationError("attendant is inactive", map[string]any{"attendant_id": attendant.ID})
	}
	ticket.AttendantName = attendant.Name

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, mapStoreError("create ticket", "attendant", ticket.AttendantID, err)
	}

	result := &SubmitResult{Ticket: ticket}
	submitted := events.TicketSubmittedPayload{
		Category:       ticket.Kind.Category,
		Subcategory:    ticket.Kind.Subcategory,
		AmountCents:    ticket.AmountCents,
		NeedsApproval:  ticket.RequiresApproval(),
		RegistrationNo: ticket.RegistrationCode,
	}

	if ticket.RequiresApproval() {
		approval, err := s.approvals.Create(ctx, ticket.ID)
		if err != nil {
			s.logger.Error("approval insert failed after ticket commit",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
			return nil, apperrors.NewPartialWrite("ticket stored but approval request could not be created",
				map[string]any{"ticket_id": ticket.ID}, err)
		}
		result.Approval = approval
		result.Outcome = OutcomeQueuedForApproval
		submitted.ApprovalID = approval.ID
		s.publishSubmitted(ctx, actingTeam, ticket.ID, submitted)
		return result, nil
	}

	s.publishSubmitted(ctx, actingTeam, ticket.ID, submitted)
	result.Outcome = OutcomeDispatched
	result.Dispatch = s.runner.Run(ctx, ticket, "", actingTeam)
	return result, nil
}

func (s *TicketService) publishSubmitted(ctx context.Context, actingTeam, ticketID string, payload events.TicketSubmittedPayload) {
	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketSubmitted,
		TicketID: ticketID,
		Actor:    actorFor(actingTeam),
		Payload:  payload,
	})
}

// buildTicket runs every field check before anything is written and reports all
// failures together.
func buildTicket(input SubmitTicketInput) (*domain.Ticket, error) {
	problems := map[string]any{}
	required := map[string]string{
		"attendant_id": input.AttendantID,
		"matricula":    input.RegistrationCode,
		"nome":         input.CustomerName,
		"telefone":     input.Phone,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			problems[field] = "is required"
		}
	}

	if id := strings.TrimSpace(input.AttendantID); id != "" {
		if _, err := uuid.Parse(id); err != nil {
			problems["attendant_id"] = "is not a valid id"
		}
	}

	ticket := &domain.Ticket{
		AttendantID:      strings.TrimSpace(input.AttendantID),
		RegistrationCode: strings.TrimSpace(input.RegistrationCode),
		CustomerName:     strings.TrimSpace(input.CustomerName),
		Phone:            strings.TrimSpace(input.Phone),
	}

	amount, err := domain.ParseAmount(input.Amount)
	if err != nil {
		problems["valor"] = err.Error()
	}
	ticket.AmountCents = amount

	installments, err := domain.ParseInstallments(input.Installments)
	if err != nil {
		problems["qtd"] = err.Error()
	}
	ticket.Installments = installments

	category, err := domain.ParseCategory(input.Category)
	if err != nil {
		problems["categoria"] = err.Error()
	} else {
		kind, err := domain.NewKind(category, input.Subcategory)
		if err != nil {
			problems["subcategoria"] = err.Error()
		}
		ticket.Kind = kind
	}

	if len(problems) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", problems)
	}
	return ticket, nil
}

// GetTicket returns a single ticket.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError("load ticket", "ticket", ticketID, err)
	}
	return ticket, nil
}

// ListTickets lists tickets, newest first.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, repository.TicketFilter(filter))
	if err != nil {
		return nil, apperrors.NewStoreError("list tickets", err)
	}
	return tickets, nil
}

// ListHistory returns the audit trail of a ticket, oldest first.
func (s *TicketService) ListHistory(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	if _, err := s.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewStoreError("list history", err)
	}
	return entries, nil
}

// SetTicketFlag sets the sent or paid flag, stamping or clearing its timestamp.
func (s *TicketService) SetTicketFlag(ctx context.Context, ticketID string, flag domain.TicketFlag, value bool, actingTeam string) (*domain.Ticket, error) {
	if flag != domain.TicketFlagSent && flag != domain.TicketFlagPaid {
		return nil, apperrors.NewValidationError("unknown status flag", map[string]any{"flag": string(flag)})
	}
	before, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError("load ticket", "ticket", ticketID, err)
	}

	var at *time.Time
	if value {
		now := s.now()
		at = &now
	}
	updated, err := s.tickets.UpdateFlag(ctx, ticketID, flag, value, at)
	if err != nil {
		return nil, mapStoreError("update ticket flag", "ticket", ticketID, err)
	}

	old := before.Sent
	if flag == domain.TicketFlagPaid {
		old = before.Paid
	}
	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketFlagChanged,
		TicketID: ticketID,
		Actor:    actorFor(actingTeam),
		Payload: events.TicketFlagChangedPayload{
			Flag:     flag,
			OldValue: old,
			NewValue: value,
			At:       at,
		},
	})
	return updated, nil
}

// SetTicketFlagByRegistration resolves the single ticket carrying registrationCode and
// sets its flag.
func (s *TicketService) SetTicketFlagByRegistration(ctx context.Context, registrationCode string, flag domain.TicketFlag, value bool, actingTeam string) (*domain.Ticket, error) {
	code := strings.TrimSpace(registrationCode)
	if code == "" {
		return nil, apperrors.NewValidationError("matricula is required", nil)
	}
	tickets, err := s.tickets.ListByRegistration(ctx, code)
	if err != nil {
		return nil, apperrors.NewStoreError("find ticket by matricula", err)
	}
	switch len(tickets) {
	case 0:
		return nil, apperrors.NewNotFound("ticket", map[string]any{"matricula": code})
	case 1:
		return s.SetTicketFlag(ctx, tickets[0].ID, flag, value, actingTeam)
	}
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	return nil, apperrors.NewConflict("several tickets share this matricula", map[string]any{"matricula": code, "ticket_ids": ids})
}

// SetTicketNotes replaces the free-text notes of a ticket. Blank notes clear them.
func (s *TicketService) SetTicketNotes(ctx context.Context, ticketID, notes, actingTeam string) (*domain.Ticket, error) {
	before, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError("load ticket", "ticket", ticketID, err)
	}
	var next *string
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		next = &trimmed
	}
	updated, err := s.tickets.UpdateNotes(ctx, ticketID, next)
	if err != nil {
		return nil, mapStoreError("update ticket notes", "ticket", ticketID, err)
	}
	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketNotesChanged,
		TicketID: ticketID,
		Actor:    actorFor(actingTeam),
		Payload:  events.TicketNotesChangedPayload{OldNotes: before.Notes, NewNotes: next},
	})
	return updated, nil
}

// EnsureApproval creates the pending approval request of a Link ticket that has
// none, which is the state a partial write leaves behind. It returns the existing
// request untouched otherwise; created reports which case applied.
func (s *TicketService) EnsureApproval(ctx context.Context, ticketID, actingTeam string) (approval *domain.ApprovalRequest, created bool, err error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, false, mapStoreError("load ticket", "ticket", ticketID, err)
	}
	if !ticket.RequiresApproval() {
		return nil, false, apperrors.NewInvalidState("ticket category does not need approval", map[string]any{
			"ticket_id": ticketID,
			"categoria": string(ticket.Kind.Category),
		})
	}

	approval, err = s.approvals.GetByTicket(ctx, ticketID)
	if err == nil {
		return approval, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, apperrors.NewStoreError("load approval", err)
	}

	approval, err = s.approvals.Create(ctx, ticketID)
	if errors.Is(err, repository.ErrInvalidState) {
		// a concurrent call created it first
		approval, err = s.approvals.GetByTicket(ctx, ticketID)
		if err != nil {
			return nil, false, mapStoreError("load approval", "ticket", ticketID, err)
		}
		return approval, false, nil
	}
	if err != nil {
		return nil, false, mapStoreError("create approval", "ticket", ticketID, err)
	}
	s.logger.Info("approval request restored",
		zap.String("ticket_id", ticketID),
		zap.String("approval_id", approval.ID),
		zap.String("team", actingTeam))
	return approval, true, nil
}

// Redispatch sends a ticket to the automation endpoint again. Link tickets need an
// approved request and reuse its link.
func (s *TicketService) Redispatch(ctx context.Context, ticketID, actingTeam string) (DispatchReport, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return DispatchReport{}, mapStoreError("load ticket", "ticket", ticketID, err)
	}

	link := ""
	if ticket.RequiresApproval() {
		approval, err := s.approvals.GetByTicket(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return DispatchReport{}, apperrors.NewInvalidState("ticket has no approval request; create it with POST /tickets/:id/approval", map[string]any{"ticket_id": ticketID})
			}
			return DispatchReport{}, apperrors.NewStoreError("load approval", err)
		}
		if approval.Status != domain.ApprovalStatusApproved || approval.Link == nil {
			return DispatchReport{}, apperrors.NewInvalidState("ticket is not approved", map[string]any{
				"ticket_id": ticketID,
				"status":    string(approval.Status),
			})
		}
		link = *approval.Link
	}

	return s.runner.Run(ctx, ticket, link, actingTeam), nil
}

// FailedDispatches lists tickets whose last dispatch attempt failed.
func (s *TicketService) FailedDispatches(ctx context.Context, limit int64) ([]dispatch.Outcome, error) {
	outcomes, err := s.runner.Failed(ctx, limit)
	if err != nil {
		if errors.Is(err, dispatch.ErrJournalDisabled) {
			return nil, apperrors.NewDomainError(apperrors.CodeInternal, "dispatch journal is not configured", http.StatusServiceUnavailable, nil)
		}
		return nil, apperrors.NewStoreError("read dispatch journal", err)
	}
	return outcomes, nil
}
