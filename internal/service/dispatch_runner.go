package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/suporte-ops/ticket-desk/internal/dispatch"
	"github.com/suporte-ops/ticket-desk/internal/domain"
	"github.com/suporte-ops/ticket-desk/internal/events"
	"github.com/suporte-ops/ticket-desk/internal/observability"
)

const journalWriteTimeout = 2 * time.Second

// DispatchReport is the outcome of a single notification attempt. Err is a
// *dispatch.Error and never fails the operation that triggered the attempt.
type DispatchReport struct {
	Attempted bool
	Err       error
}

// OK reports whether the attempt went through.
func (r DispatchReport) OK() bool {
	return r.Attempted && r.Err == nil
}

// DispatchRunner performs one notification attempt after a committed write and records
// its outcome in logs, metrics, the journal and the event stream.
type DispatchRunner struct {
	notifier Notifier
	journal  dispatch.Journal
	metrics  *observability.Metrics
	events   eventPublisher
	logger   *zap.Logger
	timeout  time.Duration
	now      func() time.Time
}

// DispatchDependencies bundles the runner collaborators.
type DispatchDependencies struct {
	Notifier   Notifier
	Journal    dispatch.Journal
	Metrics    *observability.Metrics
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Timeout    time.Duration
}

// NewDispatchRunner constructs the runner.
func NewDispatchRunner(deps DispatchDependencies) *DispatchRunner {
	journal := deps.Journal
	if journal == nil {
		journal = dispatch.NewJournal(nil, 0)
	}
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	logger := nonNilLogger(deps.Logger)
	return &DispatchRunner{
		notifier: deps.Notifier,
		journal:  journal,
		metrics:  deps.Metrics,
		events:   eventPublisher{dispatcher: deps.Dispatcher, logger: logger},
		logger:   logger,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Run notifies the automation endpoint about ticket. The call is detached from ctx
// cancellation and bounded by the runner timeout.
func (r *DispatchRunner) Run(ctx context.Context, ticket *domain.Ticket, link, actingTeam string) DispatchReport {
	payload := dispatch.PayloadFromTicket(ticket, link)

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	err := r.notifier.Notify(callCtx, payload)
	cancel()

	if err != nil {
		var dispatchErr *dispatch.Error
		if !errors.As(err, &dispatchErr) {
			err = &dispatch.Error{TicketID: ticket.ID, Err: err}
		}
		r.logger.Warn("dispatch failed",
			zap.String("ticket_id", ticket.ID),
			zap.String("categoria", string(ticket.Kind.Category)),
			zap.Error(err))
	} else {
		r.logger.Info("ticket dispatched",
			zap.String("ticket_id", ticket.ID),
			zap.String("categoria", string(ticket.Kind.Category)))
	}
	report := DispatchReport{Attempted: true, Err: err}

	r.metrics.RecordDispatch(string(ticket.Kind.Category), report.OK())
	r.record(ctx, ticket, payload.Link, report)

	dispatched := events.TicketDispatchedPayload{
		Category: ticket.Kind.Category,
		Link:     payload.Link,
		OK:       report.OK(),
	}
	if err != nil {
		dispatched.Error = err.Error()
	}
	r.events.publish(context.WithoutCancel(ctx), events.Event{
		Type:     events.EventTicketDispatched,
		TicketID: ticket.ID,
		Actor:    actorFor(actingTeam),
		Payload:  dispatched,
	})
	return report
}

func (r *DispatchRunner) record(ctx context.Context, ticket *domain.Ticket, link string, report DispatchReport) {
	outcome := dispatch.Outcome{
		TicketID: ticket.ID,
		Category: string(ticket.Kind.Category),
		Link:     link,
		OK:       report.OK(),
		At:       r.now(),
	}
	if report.Err != nil {
		outcome.Error = report.Err.Error()
	}
	journalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalWriteTimeout)
	defer cancel()
	if err := r.journal.Record(journalCtx, outcome); err != nil {
		r.logger.Warn("dispatch journal write failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
}

// Failed lists the most recent tickets whose last dispatch failed.
func (r *DispatchRunner) Failed(ctx context.Context, limit int64) ([]dispatch.Outcome, error) {
	return r.journal.Failed(ctx, limit)
}
