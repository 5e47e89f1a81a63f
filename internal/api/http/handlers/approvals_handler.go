package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/suporte-ops/ticket-desk/internal/api/dto"
	"github.com/suporte-ops/ticket-desk/internal/domain"
	"github.com/suporte-ops/ticket-desk/internal/service"
	apperrors "github.com/suporte-ops/ticket-desk/pkg/util/errorutil"
)

// ApprovalsHandler exposes the approval queue.
type ApprovalsHandler struct {
	service *service.ApprovalService
}

// NewApprovalsHandler constructs handler.
func NewApprovalsHandler(approvalService *service.ApprovalService) *ApprovalsHandler {
	return &ApprovalsHandler{service: approvalService}
}

// ListApprovals GET /approvals?status=pendente,aprovado.
func (h *ApprovalsHandler) ListApprovals(c *fiber.Ctx) error {
	filter := service.ApprovalFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			status, ok := domain.ParseApprovalStatus(strings.TrimSpace(part))
			if !ok {
				return apperrors.NewValidationError("unknown approval status", map[string]any{"status": part})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	filter.Limit, filter.Offset = parsePage(c)

	approvals, err := h.service.ListApprovals(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ApprovalResponse, 0, len(approvals))
	for i := range approvals {
		items = append(items, dto.NewApprovalResponse(&approvals[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ResolveApproval POST /approvals/:id/resolve.
func (h *ApprovalsHandler) ResolveApproval(c *fiber.Ctx) error {
	team, err := actingTeam(c)
	if err != nil {
		return err
	}
	var req dto.ResolveApprovalRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.ResolveApproval(c.UserContext(), service.ResolveApprovalInput{
		ApprovalID:    c.Params("id"),
		Decision:      req.Decision,
		ResolvingTeam: team,
		Notes:         req.Notes,
		Link:          req.Link,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ResolveApprovalResponse{
		Approval: dto.NewApprovalResponse(result.Approval),
		Dispatch: dispatchResponse(result.Dispatch),
	}})
}
