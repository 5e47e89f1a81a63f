package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/suporte-ops/ticket-desk/internal/domain"
	"github.com/suporte-ops/ticket-desk/internal/repository"
	apperrors "github.com/suporte-ops/ticket-desk/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated team.
type Principal struct {
	Team *domain.Team
}

// TeamName returns the acting team identifier recorded on writes.
func (p *Principal) TeamName() string {
	if p == nil || p.Team == nil {
		return ""
	}
	return string(p.Team.Name)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	teams  repository.TeamRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, teams repository.TeamRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, teams: teams}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	team, err := m.teams.GetByID(c.UserContext(), claims.TeamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnauthorized("team not found")
		}
		return apperrors.NewStoreError("load team", err)
	}
	if !team.Active {
		return apperrors.NewUnauthorized("team inactive")
	}

	c.Locals(principalKey, &Principal{Team: team})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated team.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// RequireCallbackToken guards the automation status callback with a shared token.
// An empty token disables the check.
func RequireCallbackToken(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}
		got := c.Get("X-Callback-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return apperrors.NewUnauthorized("invalid callback token")
		}
		return c.Next()
	}
}
