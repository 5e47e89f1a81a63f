package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/suporte-ops/ticket-desk/internal/domain"
	"github.com/suporte-ops/ticket-desk/internal/repository/memory"
	apperrors "github.com/suporte-ops/ticket-desk/pkg/util/errorutil"
)

func newGuardedApp(t *testing.T) (*fiber.App, map[domain.TeamName]string) {
	t.Helper()
	store := memory.New()
	tokens := NewTokenManager("secret", 5)
	issued := map[domain.TeamName]string{}
	for _, name := range domain.AllTeams() {
		team := &domain.Team{Name: name, SecretHash: "x", Active: true}
		if err := store.Teams().Create(context.Background(), team); err != nil {
			t.Fatalf("create team: %v", err)
		}
		token, _, err := tokens.GenerateToken(team)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		issued[name] = token
	}

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			return c.SendStatus(domainErr.HTTPStatus)
		}
		return c.SendStatus(http.StatusInternalServerError)
	}})
	mw := NewAuthMiddleware(tokens, store.Teams())
	app.Post("/approve", mw.Handle, RequireTeam(ApproverTeams()...), func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return c.SendString(principal.TeamName())
	})
	app.Post("/callback", RequireCallbackToken("tok"), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app, issued
}

func call(t *testing.T, app *fiber.App, path string, headers map[string]string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestRequireTeam(t *testing.T) {
	app, tokens := newGuardedApp(t)
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"wrong team", "Bearer " + tokens[domain.TeamLigacao], http.StatusForbidden},
		{"approver", "Bearer " + tokens[domain.TeamWhatsapp], http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			headers := map[string]string{}
			if tc.header != "" {
				headers["Authorization"] = tc.header
			}
			if got := call(t, app, "/approve", headers); got != tc.want {
				t.Fatalf("got %d want %d", got, tc.want)
			}
		})
	}
}

func TestRequireCallbackToken(t *testing.T) {
	app, _ := newGuardedApp(t)
	if got := call(t, app, "/callback", nil); got != http.StatusUnauthorized {
		t.Fatalf("got %d want 401", got)
	}
	if got := call(t, app, "/callback", map[string]string{"X-Callback-Token": "tok"}); got != http.StatusNoContent {
		t.Fatalf("got %d want 204", got)
	}
}

func TestTeamGroups(t *testing.T) {
	if got := ApproverTeams(); len(got) != 1 || got[0] != domain.TeamWhatsapp {
		t.Fatalf("unexpected approvers %v", got)
	}
	if got := SubmitterTeams(); len(got) != 2 {
		t.Fatalf("unexpected submitters %v", got)
	}
	if got := AdminTeams(); len(got) != 1 || got[0] != domain.TeamSupervisao {
		t.Fatalf("unexpected admins %v", got)
	}
}
