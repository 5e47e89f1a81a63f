package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/suporte-ops/ticket-desk/internal/api/dto"
	"github.com/suporte-ops/ticket-desk/internal/auth"
	"github.com/suporte-ops/ticket-desk/internal/service"
	apperrors "github.com/suporte-ops/ticket-desk/pkg/util/errorutil"
)

const maxPageSize = 100

// actingTeam returns the name of the authenticated team.
func actingTeam(c *fiber.Ctx) (string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Team == nil {
		return "", apperrors.NewUnauthorized("team login required")
	}
	return principal.TeamName(), nil
}

func parsePage(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = 20
	}
	return pageSize, (page - 1) * pageSize
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}

func parseBoolQuery(c *fiber.Ctx, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid boolean query parameter", map[string]any{key: raw})
	}
	return &val, nil
}

func dispatchResponse(report service.DispatchReport) *dto.DispatchResponse {
	if !report.Attempted {
		return nil
	}
	resp := &dto.DispatchResponse{Attempted: true, OK: report.OK()}
	if report.Err != nil {
		resp.Error = report.Err.Error()
	}
	return resp
}
