package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeSubmitted        TicketChangeType = "SUBMITTED"
	ChangeTypeApprovalResolved TicketChangeType = "APPROVAL_RESOLVED"
	ChangeTypeFlag             TicketChangeType = "FLAG_CHANGE"
	ChangeTypeNotes            TicketChangeType = "NOTES_CHANGE"
	ChangeTypeDispatched       TicketChangeType = "DISPATCHED"
	ChangeTypeDispatchFailed   TicketChangeType = "DISPATCH_FAILED"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID            string
	TicketID      string
	ChangedByTeam *string
	ChangeType    TicketChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
