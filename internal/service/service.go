package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suporte-ops/ticket-desk/internal/dispatch"
	"github.com/suporte-ops/ticket-desk/internal/events"
	"github.com/suporte-ops/ticket-desk/internal/repository"
	apperrors "github.com/suporte-ops/ticket-desk/pkg/util/errorutil"
)

// Notifier delivers a ticket payload to the automation endpoint.
type Notifier interface {
	Notify(ctx context.Context, payload dispatch.Payload) error
}

// eventPublisher stamps and publishes events after a write has committed. Handler
// failures are logged and never reach the caller.
type eventPublisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func (p eventPublisher) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil && p.logger != nil {
		p.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

// mapStoreError translates repository sentinels into domain errors.
func mapStoreError(op, resource, id string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	case errors.Is(err, repository.ErrInvalidState):
		return apperrors.NewInvalidState(resource+" is not in the expected state", map[string]any{"id": id})
	}
	return apperrors.NewStoreError(op, err)
}

func nonNilLogger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func actorFor(team string) events.Actor {
	return events.Actor{Team: team}
}
