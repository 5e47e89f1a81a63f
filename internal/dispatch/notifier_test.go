package dispatch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/suporte-ops/ticket-desk/internal/config"
	"github.com/suporte-ops/ticket-desk/internal/domain"
)

func pixTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:               "t-1",
		AttendantName:    "Maria Souza",
		RegistrationCode: "2024001",
		CustomerName:     "Joao & Filhos",
		AmountCents:      15000,
		Installments:     3,
		Phone:            "11999990000",
		Kind:             domain.Kind{Category: domain.CategoryPix},
	}
}

func TestNotifySendsSingleGetWithQuery(t *testing.T) {
	calls := make(chan url.Values, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		calls <- r.URL.Query()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n, err := NewHTTPNotifier(config.DispatchConfig{BaseURL: srv.URL + "/webhook/trello-ctn?source=desk", TimeoutSeconds: 2}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHTTPNotifier: %v", err)
	}
	if err := n.Notify(context.Background(), PayloadFromTicket(pixTicket(), "https://ignored")); err != nil {
		t.Fatalf("response status must not be treated as failure: %v", err)
	}

	close(calls)
	var got []url.Values
	for q := range calls {
		got = append(got, q)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly one call, got %d", len(got))
	}
	q := got[0]
	want := map[string]string{
		"source":    "desk",
		"atendente": "Maria Souza",
		"matricula": "2024001",
		"nome":      "Joao & Filhos",
		"valor":     "150.00",
		"qtd":       "3",
		"telefone":  "11999990000",
		"categoria": "Pix",
	}
	for k, v := range want {
		if q.Get(k) != v {
			t.Fatalf("param %s = %q, want %q", k, q.Get(k), v)
		}
	}
	if q.Has("link") || q.Has("subcategoria") {
		t.Fatalf("unexpected optional params: %v", q)
	}
}

func TestNotifyTimeoutIsDispatchError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	n, err := NewHTTPNotifier(config.DispatchConfig{BaseURL: srv.URL}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHTTPNotifier: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = n.Notify(ctx, PayloadFromTicket(pixTicket(), ""))
	var dispatchErr *Error
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if dispatchErr.TicketID != "t-1" {
		t.Fatalf("unexpected ticket id %q", dispatchErr.TicketID)
	}
}

func TestNotifyWithoutEndpointIsNoop(t *testing.T) {
	n, err := NewHTTPNotifier(config.DispatchConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHTTPNotifier: %v", err)
	}
	if err := n.Notify(context.Background(), PayloadFromTicket(pixTicket(), "")); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestNewHTTPNotifierRejectsBadScheme(t *testing.T) {
	if _, err := NewHTTPNotifier(config.DispatchConfig{BaseURL: "ftp://example.com"}, zap.NewNop()); err == nil {
		t.Fatal("expected error for ftp scheme")
	}
}

func TestPayloadValues(t *testing.T) {
	cases := []struct {
		name       string
		kind       domain.Kind
		link       string
		wantLink   string
		wantSubcat string
	}{
		{"link with url", domain.Kind{Category: domain.CategoryLink}, "https://pay/1", "https://pay/1", ""},
		{"link without url", domain.Kind{Category: domain.CategoryLink}, "", "", ""},
		{"pix ignores link", domain.Kind{Category: domain.CategoryPix}, "https://pay/1", "", ""},
		{"other carries subcategory", domain.Kind{Category: domain.CategoryOther, Subcategory: domain.SubcategoryAddress}, "", "", "endereco"},
	}
	for _, tc := range cases {
		ticket := pixTicket()
		ticket.Kind = tc.kind
		q := PayloadFromTicket(ticket, tc.link).Values()
		if q.Get("link") != tc.wantLink {
			t.Fatalf("%s: link = %q, want %q", tc.name, q.Get("link"), tc.wantLink)
		}
		if q.Get("subcategoria") != tc.wantSubcat {
			t.Fatalf("%s: subcategoria = %q, want %q", tc.name, q.Get("subcategoria"), tc.wantSubcat)
		}
		if q.Get("categoria") != string(tc.kind.Category) {
			t.Fatalf("%s: categoria = %q", tc.name, q.Get("categoria"))
		}
	}
}

func TestNoopJournal(t *testing.T) {
	j := NewJournal(nil, time.Hour)
	if err := j.Record(context.Background(), Outcome{TicketID: "t-1"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := j.Failed(context.Background(), 10); !errors.Is(err, ErrJournalDisabled) {
		t.Fatalf("expected ErrJournalDisabled, got %v", err)
	}
}
