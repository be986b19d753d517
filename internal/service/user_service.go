package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/conduit-api/internal/apperror"
	"github.com/conduit-api/internal/metrics"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
	"github.com/conduit-api/internal/validation"
)

// userService is the concrete implementation of UserService
type userService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func newUserService(repos *repository.Repositories, log zerolog.Logger) *userService {
	return &userService{
		repos: repos,
		log:   log.With().Str("service", "user").Logger(),
	}
}

// Create registers a user record. Username and email are unique.
func (s *userService) Create(ctx context.Context, input models.UserInput) (*models.UserView, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validation.ValidateUserInput(input); err != nil {
		return nil, err
	}

	user := &models.User{
		Username: input.Username,
		Email:    input.Email,
		Bio:      input.Bio,
		Image:    input.Image,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			metrics.ObserveConflict("create_user")
			return nil, apperror.Conflict("username or email is already taken")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	metrics.ObserveUser("create")
	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User created")

	view := models.NewUserView(user)
	return &view, nil
}

// Current returns the account of userID
func (s *userService) Current(ctx context.Context, userID int64) (*models.UserView, error) {
	user, err := requireUser(ctx, s.repos, userID)
	if err != nil {
		return nil, err
	}
	view := models.NewUserView(user)
	return &view, nil
}

// Update merges patch into the account of userID
func (s *userService) Update(ctx context.Context, userID int64, patch models.UserPatch) (*models.UserView, error) {
	if err := validation.ValidateUserPatch(patch); err != nil {
		return nil, err
	}

	user, err := requireUser(ctx, s.repos, userID)
	if err != nil {
		return nil, err
	}

	patch.Apply(user)
	if err := s.repos.User.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, apperror.NotFound("user %d not found", userID)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	metrics.ObserveUser("update")
	s.log.Debug().Int64("user_id", userID).Msg("User updated")

	view := models.NewUserView(user)
	return &view, nil
}
