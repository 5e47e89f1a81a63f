package domain

import "time"

// ApprovalStatus enumerates approval request states.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pendente"
	ApprovalStatusApproved ApprovalStatus = "aprovado"
	ApprovalStatusRejected ApprovalStatus = "rejeitado"
)

// ParseApprovalStatus accepts the stored value or the english alias.
func ParseApprovalStatus(raw string) (ApprovalStatus, bool) {
	switch raw {
	case "pendente", "pending", "PENDING":
		return ApprovalStatusPending, true
	case "aprovado", "approved", "APPROVED":
		return ApprovalStatusApproved, true
	case "rejeitado", "rejected", "REJECTED":
		return ApprovalStatusRejected, true
	}
	return "", false
}

// IsTerminal reports whether no further transition is allowed.
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

// ApprovalRequest gates dispatch of a Link ticket until a team resolves it.
type ApprovalRequest struct {
	ID             string
	TicketID       string
	Status         ApprovalStatus
	ResolvedByTeam *string
	Notes          *string
	Link           *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Ticket         *Ticket
}

// ApprovalResolution is the data written by a single Pending -> terminal transition.
type ApprovalResolution struct {
	Status         ApprovalStatus
	ResolvedByTeam string
	Notes          string
	Link           string
}
