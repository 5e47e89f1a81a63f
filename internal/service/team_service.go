package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/suporte-ops/ticket-desk/internal/auth"
	"github.com/suporte-ops/ticket-desk/internal/config"
	"github.com/suporte-ops/ticket-desk/internal/domain"
	"github.com/suporte-ops/ticket-desk/internal/repository"
	apperrors "github.com/suporte-ops/ticket-desk/pkg/util/errorutil"
)

const minSecretLength = 6

// TeamService authenticates teams with their shared secret.
type TeamService struct {
	teams      repository.TeamRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewTeamService builds the service.
func NewTeamService(cfg config.AuthConfig, teams repository.TeamRepository, tokenMgr *auth.TokenManager, logger *zap.Logger) *TeamService {
	return &TeamService{
		teams:      teams,
		tokenMgr:   tokenMgr,
		bcryptCost: cfg.BcryptCost,
		logger:     nonNilLogger(logger),
	}
}

// Login checks the team secret and issues a session token.
func (s *TeamService) Login(ctx context.Context, name, secret string) (*domain.Team, string, time.Time, error) {
	invalid := apperrors.NewUnauthorized("team not found/inactive or wrong secret")

	team, err := s.teams.GetByName(ctx, domain.TeamName(strings.ToLower(strings.TrimSpace(name))))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, invalid
		}
		return nil, "", time.Time{}, apperrors.NewStoreError("load team", err)
	}
	if !team.Active {
		return nil, "", time.Time{}, invalid
	}
	if err := auth.CompareSecret(team.SecretHash, secret); err != nil {
		return nil, "", time.Time{}, invalid
	}

	token, exp, err := s.tokenMgr.GenerateToken(team)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return team, token, exp, nil
}

// ChangeSecret rehashes and stores a new team secret.
func (s *TeamService) ChangeSecret(ctx context.Context, teamID, newSecret string) error {
	if len(strings.TrimSpace(newSecret)) < minSecretLength {
		return apperrors.NewValidationError("secret too short", map[string]any{"min_length": minSecretLength})
	}
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return mapStoreError("load team", "team", teamID, err)
	}
	hash, err := auth.HashSecret(newSecret, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.teams.UpdateSecret(ctx, teamID, hash); err != nil {
		return mapStoreError("update team secret", "team", teamID, err)
	}
	s.logger.Info("team secret changed", zap.String("team_id", teamID))
	return nil
}

// ListTeams lists active teams.
func (s *TeamService) ListTeams(ctx context.Context) ([]domain.Team, error) {
	teams, err := s.teams.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("list teams", err)
	}
	return teams, nil
}

// EnsureTeams creates the fixed teams that do not exist yet, using the configured
// secrets. Teams without a configured secret are skipped.
func (s *TeamService) EnsureTeams(ctx context.Context, secrets map[string]string) error {
	for _, name := range domain.AllTeams() {
		_, err := s.teams.GetByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		secret := secrets[string(name)]
		if secret == "" {
			s.logger.Warn("team missing and no secret configured", zap.String("team", string(name)))
			continue
		}
		hash, err := auth.HashSecret(secret, s.bcryptCost)
		if err != nil {
			return err
		}
		if err := s.teams.Create(ctx, &domain.Team{Name: name, SecretHash: hash, Active: true}); err != nil {
			return err
		}
		s.logger.Info("team seeded", zap.String("team", string(name)))
	}
	return nil
}
