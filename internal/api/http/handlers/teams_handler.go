package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/suporte-ops/ticket-desk/internal/api/dto"
	"github.com/suporte-ops/ticket-desk/internal/service"
	apperrors "github.com/suporte-ops/ticket-desk/pkg/util/errorutil"
)

// TeamsHandler serves team login and the supervision roster endpoints.
type TeamsHandler struct {
	teams      *service.TeamService
	attendants *service.AttendantService
}

// NewTeamsHandler constructs handler.
func NewTeamsHandler(teamService *service.TeamService, attendantService *service.AttendantService) *TeamsHandler {
	return &TeamsHandler{teams: teamService, attendants: attendantService}
}

// Login POST /auth/teams/login.
func (h *TeamsHandler) Login(c *fiber.Ctx) error {
	var req dto.TeamLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Team == "" || req.Secret == "" {
		return apperrors.NewValidationError("team and secret required", nil)
	}
	team, token, exp, err := h.teams.Login(c.UserContext(), req.Team, req.Secret)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{Token: token, ExpiresAt: exp, Team: dto.NewTeamResponse(team)}})
}

// ListTeams GET /teams.
func (h *TeamsHandler) ListTeams(c *fiber.Ctx) error {
	teams, err := h.teams.ListTeams(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		items = append(items, dto.NewTeamResponse(&teams[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ChangeSecret PUT /teams/:id/secret.
func (h *TeamsHandler) ChangeSecret(c *fiber.Ctx) error {
	var req dto.ChangeSecretRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.teams.ChangeSecret(c.UserContext(), c.Params("id"), req.Secret); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListAttendants GET /attendants.
func (h *TeamsHandler) ListAttendants(c *fiber.Ctx) error {
	attendants, err := h.attendants.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.AttendantResponse, 0, len(attendants))
	for i := range attendants {
		items = append(items, dto.NewAttendantResponse(&attendants[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateAttendant POST /attendants.
func (h *TeamsHandler) CreateAttendant(c *fiber.Ctx) error {
	var req dto.CreateAttendantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	attendant, err := h.attendants.Create(c.UserContext(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAttendantResponse(attendant)})
}

// DeactivateAttendant DELETE /attendants/:id.
func (h *TeamsHandler) DeactivateAttendant(c *fiber.Ctx) error {
	if err := h.attendants.Deactivate(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
