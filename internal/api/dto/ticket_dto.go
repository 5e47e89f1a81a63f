package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/suporte-ops/ticket-desk/internal/domain"
)

// FormValue accepts a JSON string or number and keeps its literal text, so amounts and
// counts are validated by the service exactly as typed.
type FormValue string

// UnmarshalJSON implements json.Unmarshaler.
func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = FormValue(n.String())
	return nil
}

// SubmitTicketRequest payload.
type SubmitTicketRequest struct {
	AttendantID      string    `json:"atendente_id"`
	RegistrationCode string    `json:"matricula"`
	CustomerName     string    `json:"nome"`
	Amount           FormValue `json:"valor"`
	Installments     FormValue `json:"qtd_mensalidades"`
	Phone            string    `json:"telefone"`
	Category         string    `json:"categoria"`
	Subcategory      string    `json:"subcategoria"`
}

// TicketResponse represents a stored ticket.
type TicketResponse struct {
	ID               string     `json:"id"`
	AttendantID      string     `json:"atendente_id"`
	AttendantName    string     `json:"atendente"`
	RegistrationCode string     `json:"matricula"`
	CustomerName     string     `json:"nome"`
	Amount           string     `json:"valor"`
	Installments     int        `json:"qtd_mensalidades"`
	Phone            string     `json:"telefone"`
	Category         string     `json:"categoria"`
	Subcategory      string     `json:"subcategoria,omitempty"`
	Sent             bool       `json:"enviado"`
	SentAt           *time.Time `json:"data_envio"`
	Paid             bool       `json:"pago"`
	PaidAt           *time.Time `json:"data_pagamento"`
	Notes            *string    `json:"observacoes"`
	CreatedAt        time.Time  `json:"created_at"`
}

// DispatchResponse reports the notification attempt that followed a write.
type DispatchResponse struct {
	Attempted bool   `json:"attempted"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

// SubmitTicketResponse response.
type SubmitTicketResponse struct {
	Ticket   TicketResponse    `json:"ticket"`
	Outcome  string            `json:"outcome"`
	Approval *ApprovalResponse `json:"approval,omitempty"`
	Dispatch *DispatchResponse `json:"dispatch,omitempty"`
}

// SetFlagRequest payload for PATCH /tickets/:id/flags.
type SetFlagRequest struct {
	Flag  string `json:"flag"`
	Value *bool  `json:"value"`
}

// SetNotesRequest payload.
type SetNotesRequest struct {
	Notes string `json:"observacoes"`
}

// StatusCallbackRequest is posted by the automation once a message went out or a
// payment cleared. Either TicketID or RegistrationCode identifies the ticket.
type StatusCallbackRequest struct {
	TicketID         string `json:"ticket_id"`
	RegistrationCode string `json:"matricula"`
	StatusType       string `json:"status_type"`
	Value            *bool  `json:"value"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID            string         `json:"id"`
	ChangeType    string         `json:"change_type"`
	ChangedByTeam *string        `json:"changed_by_team"`
	OldValue      map[string]any `json:"old_value,omitempty"`
	NewValue      map[string]any `json:"new_value,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:               ticket.ID,
		AttendantID:      ticket.AttendantID,
		AttendantName:    ticket.AttendantName,
		RegistrationCode: ticket.RegistrationCode,
		CustomerName:     ticket.CustomerName,
		Amount:           domain.FormatAmount(ticket.AmountCents),
		Installments:     ticket.Installments,
		Phone:            ticket.Phone,
		Category:         string(ticket.Kind.Category),
		Subcategory:      string(ticket.Kind.Subcategory),
		Sent:             ticket.Sent,
		SentAt:           ticket.SentAt,
		Paid:             ticket.Paid,
		PaidAt:           ticket.PaidAt,
		Notes:            ticket.Notes,
		CreatedAt:        ticket.CreatedAt,
	}
}

// NewTicketHistoryResponse maps a history entry.
func NewTicketHistoryResponse(entry domain.TicketHistory) TicketHistoryResponse {
	return TicketHistoryResponse{
		ID:            entry.ID,
		ChangeType:    string(entry.ChangeType),
		ChangedByTeam: entry.ChangedByTeam,
		OldValue:      entry.OldValue,
		NewValue:      entry.NewValue,
		CreatedAt:     entry.CreatedAt,
	}
}
