package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/suporte-ops/ticket-desk/internal/domain"
	"github.com/suporte-ops/ticket-desk/internal/events"
	"github.com/suporte-ops/ticket-desk/internal/repository"
	apperrors "github.com/suporte-ops/ticket-desk/pkg/util/errorutil"
)

// ApprovalService resolves the approval requests raised for Link tickets.
type ApprovalService struct {
	approvals repository.ApprovalRepository
	tickets   repository.TicketRepository
	runner    *DispatchRunner
	events    eventPublisher
	logger    *zap.Logger
}

// ApprovalDependencies bundles the approval service collaborators.
type ApprovalDependencies struct {
	ApprovalRepo repository.ApprovalRepository
	TicketRepo   repository.TicketRepository
	Runner       *DispatchRunner
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// ResolveApprovalInput is a decision taken by an approver team.
type ResolveApprovalInput struct {
	ApprovalID    string
	Decision      string
	ResolvingTeam string
	Notes         string
	Link          string
}

// ResolveResult carries the resolved request and the dispatch that followed an
// approval.
type ResolveResult struct {
	Approval *domain.ApprovalRequest
	Dispatch DispatchReport
}

// ApprovalFilter describes listing filters.
type ApprovalFilter struct {
	Statuses []domain.ApprovalStatus
	Limit    int
	Offset   int
}

// NewApprovalService constructs the service.
func NewApprovalService(deps ApprovalDependencies) *ApprovalService {
	logger := nonNilLogger(deps.Logger)
	return &ApprovalService{
		approvals: deps.ApprovalRepo,
		tickets:   deps.TicketRepo,
		runner:    deps.Runner,
		events:    eventPublisher{dispatcher: deps.Dispatcher, logger: logger},
		logger:    logger,
	}
}

// ResolveApproval moves a pending request to approved or rejected. The write is
// conditional on the request still being pending, so of two concurrent resolutions
// exactly one succeeds. An approval dispatches the ticket with the link after commit.
func (s *ApprovalService) ResolveApproval(ctx context.Context, input ResolveApprovalInput) (*ResolveResult, error) {
	team := strings.TrimSpace(input.ResolvingTeam)
	if team == "" {
		return nil, apperrors.NewValidationError("resolving team is required", nil)
	}
	status, ok := parseDecision(input.Decision)
	if !ok {
		return nil, apperrors.NewValidationError("decision must be approved or rejected", map[string]any{"decision": input.Decision})
	}

	current, err := s.approvals.GetByID(ctx, input.ApprovalID)
	if err != nil {
		return nil, mapStoreError("load approval", "approval request", input.ApprovalID, err)
	}
	if current.Status != domain.ApprovalStatusPending {
		return nil, alreadyResolved(current)
	}

	ticket, err := s.tickets.GetByID(ctx, current.TicketID)
	if err != nil {
		return nil, mapStoreError("load ticket", "ticket", current.TicketID, err)
	}

	resolution := domain.ApprovalResolution{
		Status:         status,
		ResolvedByTeam: team,
		Notes:          strings.TrimSpace(input.Notes),
	}
	if status == domain.ApprovalStatusApproved {
		link := strings.TrimSpace(input.Link)
		if ticket.RequiresApproval() && link == "" {
			return nil, apperrors.NewValidationError("link required for Link-category approval", map[string]any{"approval_id": current.ID})
		}
		resolution.Link = link
	}

	resolved, err := s.approvals.Resolve(ctx, current.ID, resolution)
	if err != nil {
		return nil, mapStoreError("resolve approval", "approval request", current.ID, err)
	}
	resolved.Ticket = ticket

	s.events.publish(ctx, events.Event{
		Type:     events.EventApprovalResolved,
		TicketID: ticket.ID,
		Actor:    actorFor(team),
		Payload: events.ApprovalResolvedPayload{
			ApprovalID: resolved.ID,
			OldStatus:  current.Status,
			NewStatus:  resolved.Status,
			Notes:      resolution.Notes,
			Link:       resolution.Link,
		},
	})

	result := &ResolveResult{Approval: resolved}
	if resolved.Status == domain.ApprovalStatusApproved {
		result.Dispatch = s.runner.Run(ctx, ticket, resolution.Link, team)
	}
	return result, nil
}

// ListApprovals lists requests joined with their tickets, newest first.
func (s *ApprovalService) ListApprovals(ctx context.Context, filter ApprovalFilter) ([]domain.ApprovalRequest, error) {
	approvals, err := s.approvals.List(ctx, repository.ApprovalFilter(filter))
	if err != nil {
		return nil, apperrors.NewStoreError("list approvals", err)
	}
	return approvals, nil
}

func parseDecision(raw string) (domain.ApprovalStatus, bool) {
	status, ok := domain.ParseApprovalStatus(raw)
	if !ok || !status.IsTerminal() {
		return "", false
	}
	return status, true
}

func alreadyResolved(approval *domain.ApprovalRequest) error {
	return apperrors.NewInvalidState("approval request already resolved", map[string]any{
		"approval_id": approval.ID,
		"status":      string(approval.Status),
	})
}
