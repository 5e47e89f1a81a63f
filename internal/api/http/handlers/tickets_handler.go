package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/suporte-ops/ticket-desk/internal/api/dto"
	"github.com/suporte-ops/ticket-desk/internal/domain"
	"github.com/suporte-ops/ticket-desk/internal/service"
	apperrors "github.com/suporte-ops/ticket-desk/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// SubmitTicket POST /tickets.
func (h *TicketsHandler) SubmitTicket(c *fiber.Ctx) error {
	team, err := actingTeam(c)
	if err != nil {
		return err
	}
	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.service.SubmitTicket(c.UserContext(), team, service.SubmitTicketInput{
		AttendantID:      req.AttendantID,
		RegistrationCode: req.RegistrationCode,
		CustomerName:     req.CustomerName,
		Amount:           string(req.Amount),
		Installments:     string(req.Installments),
		Phone:            req.Phone,
		Category:         req.Category,
		Subcategory:      req.Subcategory,
	})
	if err != nil {
		return err
	}

	resp := dto.SubmitTicketResponse{
		Ticket:   dto.NewTicketResponse(result.Ticket),
		Outcome:  string(result.Outcome),
		Dispatch: dispatchResponse(result.Dispatch),
	}
	if result.Approval != nil {
		approval := dto.NewApprovalResponse(result.Approval)
		resp.Approval = &approval
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": resp})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	entries, err := h.service.ListHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewTicketHistoryResponse(entry))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetFlag PATCH /tickets/:id/flags.
func (h *TicketsHandler) SetFlag(c *fiber.Ctx) error {
	team, err := actingTeam(c)
	if err != nil {
		return err
	}
	var req dto.SetFlagRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	flag, ok := domain.ParseTicketFlag(req.Flag)
	if !ok {
		return apperrors.NewValidationError("flag must be sent or paid", map[string]any{"flag": req.Flag})
	}
	if req.Value == nil {
		return apperrors.NewValidationError("value required", nil)
	}
	ticket, err := h.service.SetTicketFlag(c.UserContext(), c.Params("id"), flag, *req.Value, team)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// SetNotes PATCH /tickets/:id/notes.
func (h *TicketsHandler) SetNotes(c *fiber.Ctx) error {
	team, err := actingTeam(c)
	if err != nil {
		return err
	}
	var req dto.SetNotesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.SetTicketNotes(c.UserContext(), c.Params("id"), req.Notes, team)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Redispatch POST /tickets/:id/redispatch.
func (h *TicketsHandler) Redispatch(c *fiber.Ctx) error {
	team, err := actingTeam(c)
	if err != nil {
		return err
	}
	report, err := h.service.Redispatch(c.UserContext(), c.Params("id"), team)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dispatchResponse(report)})
}

// EnsureApproval POST /tickets/:id/approval.
func (h *TicketsHandler) EnsureApproval(c *fiber.Ctx) error {
	team, err := actingTeam(c)
	if err != nil {
		return err
	}
	approval, created, err := h.service.EnsureApproval(c.UserContext(), c.Params("id"), team)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": dto.NewApprovalResponse(approval)})
}

// StatusCallback POST /tickets/status. Called by the automation, not by a team.
func (h *TicketsHandler) StatusCallback(c *fiber.Ctx) error {
	var req dto.StatusCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	flag, ok := domain.ParseTicketFlag(req.StatusType)
	if !ok {
		return apperrors.NewValidationError("status_type must be enviado or pago", map[string]any{"status_type": req.StatusType})
	}
	if req.Value == nil {
		return apperrors.NewValidationError("value required", nil)
	}

	var (
		ticket *domain.Ticket
		err    error
	)
	switch {
	case strings.TrimSpace(req.TicketID) != "":
		ticket, err = h.service.SetTicketFlag(c.UserContext(), strings.TrimSpace(req.TicketID), flag, *req.Value, "")
	case strings.TrimSpace(req.RegistrationCode) != "":
		ticket, err = h.service.SetTicketFlagByRegistration(c.UserContext(), req.RegistrationCode, flag, *req.Value, "")
	default:
		return apperrors.NewValidationError("ticket_id or matricula required", nil)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// FailedDispatches GET /dispatches/failed.
func (h *TicketsHandler) FailedDispatches(c *fiber.Ctx) error {
	limit := parseInt(c.Query("limit"), 100)
	outcomes, err := h.service.FailedDispatches(c.UserContext(), int64(limit))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": outcomes})
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketFilter, error) {
	filter := service.TicketFilter{}
	if raw := strings.TrimSpace(c.Query("categoria")); raw != "" {
		category, err := domain.ParseCategory(raw)
		if err != nil {
			return filter, apperrors.NewValidationError("unknown category", map[string]any{"categoria": raw})
		}
		filter.Category = &category
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filter.SearchTerm = &q
	}
	sent, err := parseBoolQuery(c, "enviado")
	if err != nil {
		return filter, err
	}
	paid, err := parseBoolQuery(c, "pago")
	if err != nil {
		return filter, err
	}
	filter.Sent, filter.Paid = sent, paid
	filter.Limit, filter.Offset = parsePage(c)
	return filter, nil
}
