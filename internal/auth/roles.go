package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/suporte-ops/ticket-desk/internal/domain"
	apperrors "github.com/suporte-ops/ticket-desk/pkg/util/errorutil"
)

// RequireTeam ensures the principal belongs to one of the allowed teams.
func RequireTeam(allowed ...domain.TeamName) fiber.Handler {
	allowedSet := make(map[domain.TeamName]struct{}, len(allowed))
	for _, name := range allowed {
		allowedSet[name] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Team == nil {
			return apperrors.NewUnauthorized("team login required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Team.Name]; !exists {
			return apperrors.NewForbidden("team not allowed")
		}
		return c.Next()
	}
}

// ApproverTeams may resolve approval requests.
func ApproverTeams() []domain.TeamName {
	return teamsWhere(domain.TeamName.CanResolveApprovals)
}

// SubmitterTeams may open tickets.
func SubmitterTeams() []domain.TeamName {
	return teamsWhere(domain.TeamName.CanSubmitTickets)
}

// AdminTeams manage attendants, team secrets and re-dispatches.
func AdminTeams() []domain.TeamName {
	return teamsWhere(domain.TeamName.CanAdminister)
}

func teamsWhere(allowed func(domain.TeamName) bool) []domain.TeamName {
	var names []domain.TeamName
	for _, name := range domain.AllTeams() {
		if allowed(name) {
			names = append(names, name)
		}
	}
	return names
}
