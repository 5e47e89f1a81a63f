package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TicketFlag names the post-creation status flags tracked on a ticket.
type TicketFlag string

const (
	TicketFlagSent TicketFlag = "sent"
	TicketFlagPaid TicketFlag = "paid"
)

// ParseTicketFlag accepts both the english names and the ones used by the automation callback.
func ParseTicketFlag(raw string) (TicketFlag, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sent", "enviado":
		return TicketFlagSent, true
	case "paid", "pago":
		return TicketFlagPaid, true
	}
	return "", false
}

// Ticket is a service request submitted by an attendant on behalf of a customer.
type Ticket struct {
	ID               string
	AttendantID      string
	AttendantName    string
	RegistrationCode string
	CustomerName     string
	AmountCents      int64
	Installments     int
	Phone            string
	Kind             Kind
	Sent             bool
	SentAt           *time.Time
	Paid             bool
	PaidAt           *time.Time
	Notes            *string
	CreatedAt        time.Time
}

// RequiresApproval reports whether the ticket must be approved before dispatch.
func (t *Ticket) RequiresApproval() bool {
	return t.Kind.Category == CategoryLink
}

// ApplyFlag sets the named flag keeping its timestamp paired with the value.
func (t *Ticket) ApplyFlag(flag TicketFlag, value bool, now time.Time) error {
	var stamp *time.Time
	if value {
		stamp = &now
	}
	switch flag {
	case TicketFlagSent:
		t.Sent, t.SentAt = value, stamp
	case TicketFlagPaid:
		t.Paid, t.PaidAt = value, stamp
	default:
		return fmt.Errorf("unknown ticket flag %q", flag)
	}
	return nil
}

// MaxAmountCents is the largest amount the tickets.amount NUMERIC(14,2) column holds.
const MaxAmountCents int64 = 99_999_999_999_999

var (
	errAmountRange    = errors.New("amount must not exceed 999999999999.99")
	errAmountEmpty    = errors.New("amount is required")
	errAmountNegative = errors.New("amount must not be negative")
	errAmountFormat   = errors.New("amount must be a decimal number with at most two decimal places")
)

// ParseAmount converts a decimal string ("150", "150.5", "150,50") into cents.
func ParseAmount(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errAmountEmpty
	}
	if strings.HasPrefix(s, "-") {
		return 0, errAmountNegative
	}
	s = strings.TrimPrefix(s, "+")
	s = strings.Replace(s, ",", ".", 1)

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (frac == "" || len(frac) > 2) {
		return 0, errAmountFormat
	}
	if !isDigits(whole) || (hasFrac && !isDigits(frac)) {
		return 0, errAmountFormat
	}
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, errAmountFormat
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, errAmountFormat
	}
	if units > (MaxAmountCents-cents)/100 {
		return 0, errAmountRange
	}
	return units*100 + cents, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// FormatAmount renders cents as a plain decimal with two places.
func FormatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// ParseInstallments validates the installment count.
func ParseInstallments(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errors.New("installment count is required")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.New("installment count must be a positive integer")
	}
	return n, nil
}
