package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/suporte-ops/ticket-desk/internal/domain"
	"github.com/suporte-ops/ticket-desk/internal/events"
	"github.com/suporte-ops/ticket-desk/internal/repository"
)

// AuditService turns domain events into ticket history entries and log lines.
type AuditService struct {
	dispatcher events.Dispatcher
	history    repository.TicketHistoryRepository
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, history repository.TicketHistoryRepository, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		history:    history,
		logger:     nonNilLogger(logger),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketSubmitted, a.handleTicketSubmitted)
	a.dispatcher.Subscribe(events.EventApprovalResolved, a.handleApprovalResolved)
	a.dispatcher.Subscribe(events.EventTicketFlagChanged, a.handleFlagChanged)
	a.dispatcher.Subscribe(events.EventTicketNotesChanged, a.handleNotesChanged)
	a.dispatcher.Subscribe(events.EventTicketDispatched, a.handleTicketDispatched)
}

func (a *AuditService) handleTicketSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketSubmittedPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	a.logger.Info("TicketSubmitted",
		zap.String("ticket_id", event.TicketID),
		zap.String("categoria", string(payload.Category)),
		zap.Bool("needs_approval", payload.NeedsApproval))
	newValue := map[string]any{
		"categoria":      string(payload.Category),
		"amount_cents":   payload.AmountCents,
		"needs_approval": payload.NeedsApproval,
	}
	if payload.Subcategory != "" {
		newValue["subcategoria"] = string(payload.Subcategory)
	}
	if payload.ApprovalID != "" {
		newValue["approval_id"] = payload.ApprovalID
	}
	return a.write(ctx, event, domain.ChangeTypeSubmitted, nil, newValue)
}

func (a *AuditService) handleApprovalResolved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ApprovalResolvedPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	a.logger.Info("ApprovalResolved",
		zap.String("ticket_id", event.TicketID),
		zap.String("approval_id", payload.ApprovalID),
		zap.String("status", string(payload.NewStatus)),
		zap.String("team", event.Actor.Team))
	newValue := map[string]any{"status": string(payload.NewStatus)}
	if payload.Link != "" {
		newValue["link"] = payload.Link
	}
	if payload.Notes != "" {
		newValue["notes"] = payload.Notes
	}
	return a.write(ctx, event, domain.ChangeTypeApprovalResolved,
		map[string]any{"status": string(payload.OldStatus)}, newValue)
}

func (a *AuditService) handleFlagChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketFlagChangedPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	a.logger.Info("TicketFlagChanged",
		zap.String("ticket_id", event.TicketID),
		zap.String("flag", string(payload.Flag)),
		zap.Bool("value", payload.NewValue))
	return a.write(ctx, event, domain.ChangeTypeFlag,
		map[string]any{string(payload.Flag): payload.OldValue},
		map[string]any{string(payload.Flag): payload.NewValue})
}

func (a *AuditService) handleNotesChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketNotesChangedPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	a.logger.Debug("TicketNotesChanged", zap.String("ticket_id", event.TicketID))
	return a.write(ctx, event, domain.ChangeTypeNotes,
		map[string]any{"notes": derefOrNil(payload.OldNotes)},
		map[string]any{"notes": derefOrNil(payload.NewNotes)})
}

func (a *AuditService) handleTicketDispatched(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketDispatchedPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	changeType := domain.ChangeTypeDispatched
	newValue := map[string]any{"categoria": string(payload.Category)}
	if payload.Link != "" {
		newValue["link"] = payload.Link
	}
	if !payload.OK {
		changeType = domain.ChangeTypeDispatchFailed
		newValue["error"] = payload.Error
	}
	return a.write(ctx, event, changeType, nil, newValue)
}

func (a *AuditService) write(ctx context.Context, event events.Event, changeType domain.TicketChangeType, oldValue, newValue map[string]any) error {
	if a.history == nil {
		return nil
	}
	entry := &domain.TicketHistory{
		TicketID:   event.TicketID,
		ChangeType: changeType,
		OldValue:   oldValue,
		NewValue:   newValue,
		CreatedAt:  event.Timestamp,
	}
	if event.Actor.Team != "" {
		team := event.Actor.Team
		entry.ChangedByTeam = &team
	}
	if err := a.history.Create(ctx, entry); err != nil {
		a.logger.Error("history write failed",
			zap.String("ticket_id", event.TicketID),
			zap.String("change_type", string(changeType)),
			zap.Error(err))
		return err
	}
	return nil
}

func unexpectedPayload(event events.Event) error {
	return fmt.Errorf("event %s: unexpected payload %T", event.Type, event.Payload)
}

func derefOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
