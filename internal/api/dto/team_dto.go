package dto

import (
	"time"

	"github.com/suporte-ops/ticket-desk/internal/domain"
)

// TeamLoginRequest payload for login.
type TeamLoginRequest struct {
	Team   string `json:"team"`
	Secret string `json:"secret"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Team      TeamResponse `json:"team"`
}

// ChangeSecretRequest payload.
type ChangeSecretRequest struct {
	Secret string `json:"secret"`
}

// TeamResponse never carries the secret hash.
type TeamResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"nome"`
	Active    bool      `json:"ativo"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateAttendantRequest payload.
type CreateAttendantRequest struct {
	Name string `json:"nome"`
}

// AttendantResponse represents an attendant.
type AttendantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"nome"`
	Active    bool      `json:"ativo"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTeamResponse maps a team.
func NewTeamResponse(team *domain.Team) TeamResponse {
	return TeamResponse{ID: team.ID, Name: string(team.Name), Active: team.Active, CreatedAt: team.CreatedAt}
}

// NewAttendantResponse maps an attendant.
func NewAttendantResponse(attendant *domain.Attendant) AttendantResponse {
	return AttendantResponse{ID: attendant.ID, Name: attendant.Name, Active: attendant.Active, CreatedAt: attendant.CreatedAt}
}
