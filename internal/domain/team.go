package domain

import "time"

// TeamName identifies the coarse-grained actor groups.
type TeamName string

const (
	TeamWhatsapp   TeamName = "whatsapp"
	TeamLigacao    TeamName = "ligacao"
	TeamSupervisao TeamName = "supervisao"
)

// AllTeams lists the fixed set of teams.
func AllTeams() []TeamName {
	return []TeamName{TeamWhatsapp, TeamLigacao, TeamSupervisao}
}

// Team is a shared-secret login group.
type Team struct {
	ID         string
	Name       TeamName
	SecretHash string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CanResolveApprovals reports whether the team signs off Link tickets.
func (n TeamName) CanResolveApprovals() bool {
	return n == TeamWhatsapp
}

// CanSubmitTickets reports whether the team opens new tickets.
func (n TeamName) CanSubmitTickets() bool {
	return n == TeamLigacao || n == TeamSupervisao
}

// CanAdminister reports whether the team manages attendants, teams and redispatches.
func (n TeamName) CanAdminister() bool {
	return n == TeamSupervisao
}
