package dispatch

import (
	"net/url"
	"strconv"

	"github.com/suporte-ops/ticket-desk/internal/domain"
)

// Payload is the set of ticket fields forwarded to the automation endpoint.
type Payload struct {
	TicketID         string
	AttendantName    string
	RegistrationCode string
	CustomerName     string
	AmountCents      int64
	Installments     int
	Phone            string
	Kind             domain.Kind
	Link             string
}

// PayloadFromTicket builds the payload for a ticket. link is only carried for Link
// tickets.
func PayloadFromTicket(ticket *domain.Ticket, link string) Payload {
	p := Payload{
		TicketID:         ticket.ID,
		AttendantName:    ticket.AttendantName,
		RegistrationCode: ticket.RegistrationCode,
		CustomerName:     ticket.CustomerName,
		AmountCents:      ticket.AmountCents,
		Installments:     ticket.Installments,
		Phone:            ticket.Phone,
		Kind:             ticket.Kind,
	}
	if ticket.Kind.Category == domain.CategoryLink {
		p.Link = link
	}
	return p
}

// Values renders the query parameters expected by the automation endpoint.
func (p Payload) Values() url.Values {
	v := url.Values{}
	v.Set("atendente", p.AttendantName)
	v.Set("matricula", p.RegistrationCode)
	v.Set("nome", p.CustomerName)
	v.Set("valor", domain.FormatAmount(p.AmountCents))
	v.Set("qtd", strconv.Itoa(p.Installments))
	v.Set("telefone", p.Phone)
	v.Set("categoria", string(p.Kind.Category))
	if p.Kind.HasSubcategory() {
		v.Set("subcategoria", string(p.Kind.Subcategory))
	}
	if p.Kind.Category == domain.CategoryLink && p.Link != "" {
		v.Set("link", p.Link)
	}
	return v
}
