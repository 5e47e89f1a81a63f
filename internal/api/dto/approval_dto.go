package dto

import (
	"time"

	"github.com/suporte-ops/ticket-desk/internal/domain"
)

// ResolveApprovalRequest payload.
type ResolveApprovalRequest struct {
	Decision string `json:"status"`
	Notes    string `json:"observacoes"`
	Link     string `json:"link"`
}

// ApprovalResponse represents an approval request, with its ticket when loaded.
type ApprovalResponse struct {
	ID             string          `json:"id"`
	TicketID       string          `json:"ticket_id"`
	Status         string          `json:"status"`
	ResolvedByTeam *string         `json:"aprovado_por_equipe"`
	Notes          *string         `json:"observacoes"`
	Link           *string         `json:"link"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Ticket         *TicketResponse `json:"ticket,omitempty"`
}

// ResolveApprovalResponse response.
type ResolveApprovalResponse struct {
	Approval ApprovalResponse  `json:"approval"`
	Dispatch *DispatchResponse `json:"dispatch,omitempty"`
}

// NewApprovalResponse maps a domain approval request.
func NewApprovalResponse(approval *domain.ApprovalRequest) ApprovalResponse {
	resp := ApprovalResponse{
		ID:             approval.ID,
		TicketID:       approval.TicketID,
		Status:         string(approval.Status),
		ResolvedByTeam: approval.ResolvedByTeam,
		Notes:          approval.Notes,
		Link:           approval.Link,
		CreatedAt:      approval.CreatedAt,
		UpdatedAt:      approval.UpdatedAt,
	}
	if approval.Ticket != nil {
		ticket := NewTicketResponse(approval.Ticket)
		resp.Ticket = &ticket
	}
	return resp
}
