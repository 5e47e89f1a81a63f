package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/suporte-ops/ticket-desk/internal/domain"
	"github.com/suporte-ops/ticket-desk/internal/repository"
)

func seedTicket(t *testing.T, s *Store, category domain.Category) *domain.Ticket {
	t.Helper()
	ctx := context.Background()
	attendant := &domain.Attendant{Name: "Maria"}
	if err := s.Attendants().Create(ctx, attendant); err != nil {
		t.Fatalf("create attendant: %v", err)
	}
	ticket := &domain.Ticket{
		AttendantID:      attendant.ID,
		RegistrationCode: "2024001",
		CustomerName:     "Joao",
		AmountCents:      15000,
		Installments:     3,
		Phone:            "11999990000",
		Kind:             domain.Kind{Category: category},
	}
	if err := s.Tickets().Create(ctx, ticket); err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func TestResolveIsConditionalOnPending(t *testing.T) {
	s := New()
	ctx := context.Background()
	ticket := seedTicket(t, s, domain.CategoryLink)
	approval, err := s.Approvals().Create(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("create approval: %v", err)
	}

	resolution := domain.ApprovalResolution{Status: domain.ApprovalStatusApproved, ResolvedByTeam: "whatsapp", Link: "https://pay/1"}
	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Approvals().Resolve(ctx, approval.ID, resolution)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, invalid int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, repository.ErrInvalidState):
			invalid++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || invalid != 7 {
		t.Fatalf("expected 1 winner and 7 losers, got %d/%d", ok, invalid)
	}
}

func TestResolveUnknownApproval(t *testing.T) {
	s := New()
	_, err := s.Approvals().Resolve(context.Background(), "missing", domain.ApprovalResolution{Status: domain.ApprovalStatusRejected, ResolvedByTeam: "whatsapp"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOneApprovalPerTicket(t *testing.T) {
	s := New()
	ctx := context.Background()
	ticket := seedTicket(t, s, domain.CategoryLink)
	if _, err := s.Approvals().Create(ctx, ticket.ID); err != nil {
		t.Fatalf("create approval: %v", err)
	}
	if _, err := s.Approvals().Create(ctx, ticket.ID); !errors.Is(err, repository.ErrInvalidState) {
		t.Fatalf("expected duplicate approval to fail, got %v", err)
	}
}

func TestTicketListFilters(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedTicket(t, s, domain.CategoryLink)
	pix := seedTicket(t, s, domain.CategoryPix)
	now := time.Now()
	if _, err := s.Tickets().UpdateFlag(ctx, pix.ID, domain.TicketFlagPaid, true, &now); err != nil {
		t.Fatalf("update flag: %v", err)
	}

	category := domain.CategoryPix
	got, err := s.Tickets().List(ctx, repository.TicketFilter{Category: &category})
	if err != nil || len(got) != 1 || got[0].ID != pix.ID {
		t.Fatalf("category filter: %v %v", got, err)
	}
	paid := true
	got, _ = s.Tickets().List(ctx, repository.TicketFilter{Paid: &paid})
	if len(got) != 1 || got[0].PaidAt == nil {
		t.Fatalf("paid filter: %v", got)
	}
	search := "mar"
	got, _ = s.Tickets().List(ctx, repository.TicketFilter{SearchTerm: &search, Limit: 1})
	if len(got) != 1 {
		t.Fatalf("search with limit: %v", got)
	}
}

func TestTicketRequiresKnownAttendant(t *testing.T) {
	s := New()
	err := s.Tickets().Create(context.Background(), &domain.Ticket{AttendantID: "ghost"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedTicket(t, s, domain.CategoryLink)

	checks := map[string]error{}
	_, checks["ticket get"] = s.Tickets().GetByID(ctx, "abc")
	_, checks["ticket flag"] = s.Tickets().UpdateFlag(ctx, "abc", domain.TicketFlagSent, true, nil)
	_, checks["approval get"] = s.Approvals().GetByID(ctx, "abc")
	_, checks["approval create"] = s.Approvals().Create(ctx, "abc")
	_, checks["approval resolve"] = s.Approvals().Resolve(ctx, "abc", domain.ApprovalResolution{Status: domain.ApprovalStatusRejected, ResolvedByTeam: "whatsapp"})
	_, checks["attendant get"] = s.Attendants().GetByID(ctx, "abc")
	checks["attendant deactivate"] = s.Attendants().Deactivate(ctx, "abc")
	for name, err := range checks {
		if !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
}
