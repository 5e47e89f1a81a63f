package events

import (
	"time"

	"github.com/suporte-ops/ticket-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketSubmitted    EventType = "ticket_submitted"
	EventApprovalResolved   EventType = "approval_resolved"
	EventTicketFlagChanged  EventType = "ticket_flag_changed"
	EventTicketNotesChanged EventType = "ticket_notes_changed"
	EventTicketDispatched   EventType = "ticket_dispatched"
)

// Actor identifies the team behind an event. Team is empty for automation callbacks.
type Actor struct {
	Team string `json:"team,omitempty"`
}

// Event represents a domain event emitted by services after their write committed.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketSubmittedPayload payload.
type TicketSubmittedPayload struct {
	Category       domain.Category    `json:"categoria"`
	Subcategory    domain.Subcategory `json:"subcategoria,omitempty"`
	AmountCents    int64              `json:"amount_cents"`
	ApprovalID     string             `json:"approval_id,omitempty"`
	NeedsApproval  bool               `json:"needs_approval"`
	RegistrationNo string             `json:"matricula"`
}

// ApprovalResolvedPayload payload.
type ApprovalResolvedPayload struct {
	ApprovalID string                `json:"approval_id"`
	OldStatus  domain.ApprovalStatus `json:"old_status"`
	NewStatus  domain.ApprovalStatus `json:"new_status"`
	Notes      string                `json:"notes,omitempty"`
	Link       string                `json:"link,omitempty"`
}

// TicketFlagChangedPayload payload.
type TicketFlagChangedPayload struct {
	Flag     domain.TicketFlag `json:"flag"`
	OldValue bool              `json:"old_value"`
	NewValue bool              `json:"new_value"`
	At       *time.Time        `json:"at,omitempty"`
}

// TicketNotesChangedPayload payload.
type TicketNotesChangedPayload struct {
	OldNotes *string `json:"old_notes,omitempty"`
	NewNotes *string `json:"new_notes,omitempty"`
}

// TicketDispatchedPayload payload.
type TicketDispatchedPayload struct {
	Category domain.Category `json:"categoria"`
	Link     string          `json:"link,omitempty"`
	OK       bool            `json:"ok"`
	Error    string          `json:"error,omitempty"`
}
