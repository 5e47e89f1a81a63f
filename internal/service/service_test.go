package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/suporte-ops/ticket-desk/internal/dispatch"
	"github.com/suporte-ops/ticket-desk/internal/domain"
	"github.com/suporte-ops/ticket-desk/internal/events"
	"github.com/suporte-ops/ticket-desk/internal/observability"
	"github.com/suporte-ops/ticket-desk/internal/repository"
	"github.com/suporte-ops/ticket-desk/internal/repository/memory"
)

type fakeNotifier struct {
	mu       sync.Mutex
	payloads []dispatch.Payload
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, payload dispatch.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return f.err
}

func (f *fakeNotifier) calls() []dispatch.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dispatch.Payload(nil), f.payloads...)
}

type fakeJournal struct {
	mu       sync.Mutex
	outcomes []dispatch.Outcome
}

func (f *fakeJournal) Record(_ context.Context, outcome dispatch.Outcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
	return nil
}

func (f *fakeJournal) Failed(context.Context, int64) ([]dispatch.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var failed []dispatch.Outcome
	for _, o := range f.outcomes {
		if !o.OK {
			failed = append(failed, o)
		}
	}
	return failed, nil
}

// flakyApprovals fails the first inserts and then delegates.
type flakyApprovals struct {
	repository.ApprovalRepository
	mu       sync.Mutex
	failures int
}

func (f *flakyApprovals) Create(ctx context.Context, ticketID string) (*domain.ApprovalRequest, error) {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return nil, errors.New("connection reset")
	}
	f.mu.Unlock()
	return f.ApprovalRepository.Create(ctx, ticketID)
}

type harness struct {
	store       *memory.Store
	notifier    *fakeNotifier
	journal     *fakeJournal
	metrics     *observability.Metrics
	tickets     *TicketService
	approvals   *ApprovalService
	attendantID string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, nil)
}

// newHarnessWith lets wrap decorate the store's approval repository.

func newHarnessWith(t *testing.T, wrap func(repository.ApprovalRepository) repository.ApprovalRepository) *harness {
	t.Helper()
	store := memory.New()
	approvalRepo := store.Approvals()
	if wrap != nil {
		approvalRepo = wrap(approvalRepo)
	}
	h := &harness{
		store:    store,
		notifier: &fakeNotifier{},
		journal:  &fakeJournal{},
		metrics:  observability.NewMetrics(),
	}
	dispatcher := events.NewInMemoryDispatcher()
	NewAuditService(dispatcher, store.History(), nil).RegisterHandlers()

	runner := NewDispatchRunner(DispatchDependencies{
		Notifier:   h.notifier,
		Journal:    h.journal,
		Metrics:    h.metrics,
		Dispatcher: dispatcher,
	})
	h.tickets = NewTicketService(TicketDependencies{
		TicketRepo:    store.Tickets(),
		ApprovalRepo:  approvalRepo,
		AttendantRepo: store.Attendants(),
		HistoryRepo:   store.History(),
		Runner:        runner,
		Dispatcher:    dispatcher,
	})
	h.approvals = NewApprovalService(ApprovalDependencies{
		ApprovalRepo: approvalRepo,
		TicketRepo:   store.Tickets(),
		Runner:       runner,
		Dispatcher:   dispatcher,
	})

	attendant, err := NewAttendantService(store.Attendants()).Create(context.Background(), "Maria Souza")
	if err != nil {
		t.Fatalf("create attendant: %v", err)
	}
	h.attendantID = attendant.ID
	return h
}

func (h *harness) input(category, subcategory string) SubmitTicketInput {
	return SubmitTicketInput{
		AttendantID:      h.attendantID,
		RegistrationCode: "2024001",
		CustomerName:     "Joao Silva",
		Amount:           "150",
		Installments:     "3",
		Phone:            "11999990000",
		Category:         category,
		Subcategory:      subcategory,
	}
}

func (h *harness) submit(t *testing.T, category, subcategory string) *SubmitResult {
	t.Helper()
	result, err := h.tickets.SubmitTicket(context.Background(), "ligacao", h.input(category, subcategory))
	if err != nil {
		t.Fatalf("SubmitTicket: %v", err)
	}
	return result
}

func (h *harness) pendingApprovals(t *testing.T) []domain.ApprovalRequest {
	t.Helper()
	list, err := h.approvals.ListApprovals(context.Background(), ApprovalFilter{Statuses: []domain.ApprovalStatus{domain.ApprovalStatusPending}})
	if err != nil {
		t.Fatalf("ListApprovals: %v", err)
	}
	return list
}

func approve(id, link string) ResolveApprovalInput {
	return ResolveApprovalInput{ApprovalID: id, Decision: "approved", ResolvingTeam: "whatsapp", Link: link}
}
