package service

import (
	"context"
	"sync"
	"testing"

	"github.com/suporte-ops/ticket-desk/internal/domain"
	apperrors "github.com/suporte-ops/ticket-desk/pkg/util/errorutil"
)

func TestApproveRequiresLink(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	submitted := h.submit(t, "Link", "")

	for _, link := range []string{"", "   "} {
		_, err := h.approvals.ResolveApproval(ctx, approve(submitted.Approval.ID, link))
		if !apperrors.HasCode(err, apperrors.CodeValidation) {
			t.Fatalf("link %q: expected validation error, got %v", link, err)
		}
	}
	if pending := h.pendingApprovals(t); len(pending) != 1 {
		t.Fatalf("approval must stay pending, got %d pending", len(pending))
	}
	if len(h.notifier.calls()) != 0 {
		t.Fatal("no dispatch expected")
	}
}

func TestApproveDispatchesWithLink(t *testing.T) {
	h := newHarness(t)
	submitted := h.submit(t, "Link", "")

	result, err := h.approvals.ResolveApproval(context.Background(), approve(submitted.Approval.ID, " https://pay/1 "))
	if err != nil {
		t.Fatalf("ResolveApproval: %v", err)
	}
	approval := result.Approval
	if approval.Status != domain.ApprovalStatusApproved || approval.Link == nil || *approval.Link != "https://pay/1" {
		t.Fatalf("unexpected approval %+v", approval)
	}
	if approval.ResolvedByTeam == nil || *approval.ResolvedByTeam != "whatsapp" {
		t.Fatalf("unexpected resolving team %v", approval.ResolvedByTeam)
	}

	calls := h.notifier.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(calls))
	}
	values := calls[0].Values()
	if values.Get("categoria") != "Link" || values.Get("link") != "https://pay/1" {
		t.Fatalf("unexpected payload %v", values)
	}
}

func TestRejectDoesNotDispatch(t *testing.T) {
	h := newHarness(t)
	submitted := h.submit(t, "Link", "")

	result, err := h.approvals.ResolveApproval(context.Background(), ResolveApprovalInput{
		ApprovalID:    submitted.Approval.ID,
		Decision:      "rejeitado",
		ResolvingTeam: "whatsapp",
		Notes:         "cliente desistiu",
		Link:          "https://pay/ignored",
	})
	if err != nil {
		t.Fatalf("ResolveApproval: %v", err)
	}
	if result.Approval.Status != domain.ApprovalStatusRejected || result.Approval.Link != nil {
		t.Fatalf("unexpected approval %+v", result.Approval)
	}
	if result.Dispatch.Attempted || len(h.notifier.calls()) != 0 {
		t.Fatal("rejection must not dispatch")
	}
}

func TestResolveValidatesInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	submitted := h.submit(t, "Link", "")

	_, err := h.approvals.ResolveApproval(ctx, ResolveApprovalInput{ApprovalID: submitted.Approval.ID, Decision: "approved", Link: "https://pay/1"})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("missing team: expected validation error, got %v", err)
	}
	_, err = h.approvals.ResolveApproval(ctx, ResolveApprovalInput{ApprovalID: submitted.Approval.ID, Decision: "pendente", ResolvingTeam: "whatsapp"})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("pending decision: expected validation error, got %v", err)
	}
	_, err = h.approvals.ResolveApproval(ctx, approve("missing", "https://pay/1"))
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSecondResolveIsInvalidState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	submitted := h.submit(t, "Link", "")

	if _, err := h.approvals.ResolveApproval(ctx, approve(submitted.Approval.ID, "https://pay/1")); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	_, err := h.approvals.ResolveApproval(ctx, ResolveApprovalInput{ApprovalID: submitted.Approval.ID, Decision: "rejected", ResolvingTeam: "whatsapp"})
	if !apperrors.HasCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if calls := h.notifier.calls(); len(calls) != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", len(calls))
	}
}

func TestConcurrentResolveDispatchesOnce(t *testing.T) {
	h := newHarness(t)
	submitted := h.submit(t, "Link", "")

	const workers = 2
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.approvals.ResolveApproval(context.Background(), approve(submitted.Approval.ID, "https://pay/1"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, invalid int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case apperrors.HasCode(err, apperrors.CodeInvalidState):
			invalid++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || invalid != 1 {
		t.Fatalf("expected one winner and one loser, got ok=%d invalid=%d", ok, invalid)
	}
	if calls := h.notifier.calls(); len(calls) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(calls))
	}
}

func TestResolveRecordsHistory(t *testing.T) {
	h := newHarness(t)
	submitted := h.submit(t, "Link", "")
	if _, err := h.approvals.ResolveApproval(context.Background(), approve(submitted.Approval.ID, "https://pay/1")); err != nil {
		t.Fatalf("ResolveApproval: %v", err)
	}

	history, err := h.tickets.ListHistory(context.Background(), submitted.Ticket.ID)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	want := []domain.TicketChangeType{domain.ChangeTypeSubmitted, domain.ChangeTypeApprovalResolved, domain.ChangeTypeDispatched}
	if len(history) != len(want) {
		t.Fatalf("unexpected history %+v", history)
	}
	for i, entry := range history {
		if entry.ChangeType != want[i] {
			t.Fatalf("entry %d: got %s want %s", i, entry.ChangeType, want[i])
		}
	}
	if history[1].ChangedByTeam == nil || *history[1].ChangedByTeam != "whatsapp" {
		t.Fatalf("expected resolving team on history, got %v", history[1].ChangedByTeam)
	}
}
