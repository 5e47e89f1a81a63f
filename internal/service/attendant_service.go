package service

import (
	"context"
	"strings"

	"github.com/suporte-ops/ticket-desk/internal/domain"
	"github.com/suporte-ops/ticket-desk/internal/repository"
	apperrors "github.com/suporte-ops/ticket-desk/pkg/util/errorutil"
)

// AttendantService manages the roster of attendants tickets are filed under.
type AttendantService struct {
	attendants repository.AttendantRepository
}

// NewAttendantService builds the service.
func NewAttendantService(attendants repository.AttendantRepository) *AttendantService {
	return &AttendantService{attendants: attendants}
}

// Create adds an active attendant.
func (s *AttendantService) Create(ctx context.Context, name string) (*domain.Attendant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	attendant := &domain.Attendant{Name: name, Active: true}
	if err := s.attendants.Create(ctx, attendant); err != nil {
		return nil, apperrors.NewStoreError("create attendant", err)
	}
	return attendant, nil
}

// Deactivate hides an attendant from the roster. Existing tickets keep referencing it.
func (s *AttendantService) Deactivate(ctx context.Context, id string) error {
	if err := s.attendants.Deactivate(ctx, id); err != nil {
		return mapStoreError("deactivate attendant", "attendant", id, err)
	}
	return nil
}

// List returns active attendants ordered by name.
func (s *AttendantService) List(ctx context.Context) ([]domain.Attendant, error) {
	attendants, err := s.attendants.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("list attendants", err)
	}
	return attendants, nil
}
