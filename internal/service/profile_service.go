package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/conduit-api/internal/apperror"
	"github.com/conduit-api/internal/metrics"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
)

// profileService is the concrete implementation of ProfileService
type profileService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func newProfileService(repos *repository.Repositories, log zerolog.Logger) *profileService {
	return &profileService{
		repos: repos,
		log:   log.With().Str("service", "profile").Logger(),
	}
}

// GetProfile returns the public profile of username as seen by currentUserID
func (s *profileService) GetProfile(ctx context.Context, username string, currentUserID int64) (*models.Profile, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	following, err := s.IsFollowing(ctx, currentUserID, user.ID)
	if err != nil {
		return nil, err
	}

	profile := models.NewProfile(user, following)
	return &profile, nil
}

// Follow adds the edge followerID -> username
func (s *profileService) Follow(ctx context.Context, followerID int64, username string) (*models.Profile, error) {
	target, err := s.resolveEdge(ctx, followerID, username, "follow")
	if err != nil {
		return nil, err
	}

	created, err := s.repos.Follow.Create(ctx, followerID, target.ID)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		created = false
	case errors.Is(err, repository.ErrMissingReference):
		return nil, apperror.NotFound("user not found")
	case err != nil:
		return nil, fmt.Errorf("failed to create follow: %w", err)
	}
	if !created {
		metrics.ObserveConflict("follow")
		return nil, apperror.Conflict("already following %s", username)
	}

	metrics.ObserveFollow("follow")
	s.log.Debug().Int64("follower_id", followerID).Int64("following_id", target.ID).Msg("User followed")

	profile := models.NewProfile(target, true)
	return &profile, nil
}

// Unfollow removes the edge followerID -> username
func (s *profileService) Unfollow(ctx context.Context, followerID int64, username string) (*models.Profile, error) {
	target, err := s.resolveEdge(ctx, followerID, username, "unfollow")
	if err != nil {
		return nil, err
	}

	removed, err := s.repos.Follow.Delete(ctx, followerID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete follow: %w", err)
	}
	if !removed {
		metrics.ObserveConflict("unfollow")
		return nil, apperror.Conflict("not following %s", username)
	}

	metrics.ObserveFollow("unfollow")
	s.log.Debug().Int64("follower_id", followerID).Int64("following_id", target.ID).Msg("User unfollowed")

	profile := models.NewProfile(target, false)
	return &profile, nil
}

// resolveEdge loads both ends of a follow edge and rejects self edges
func (s *profileService) resolveEdge(ctx context.Context, followerID int64, username, action string) (*models.User, error) {
	target, err := s.userByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == followerID {
		return nil, apperror.BadRequest("cannot %s yourself", action)
	}
	if _, err := requireUser(ctx, s.repos, followerID); err != nil {
		return nil, err
	}
	return target, nil
}

// IsFollowing reports whether followerID follows targetID. Anonymous callers follow nobody.
func (s *profileService) IsFollowing(ctx context.Context, followerID, targetID int64) (bool, error) {
	if followerID == AnonymousUserID {
		return false, nil
	}
	following, err := s.repos.Follow.Exists(ctx, followerID, targetID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return following, nil
}

// FollowingIDs returns the users followerID follows
func (s *profileService) FollowingIDs(ctx context.Context, followerID int64) ([]int64, error) {
	if followerID == AnonymousUserID {
		return []int64{}, nil
	}
	ids, err := s.repos.Follow.FollowingIDs(ctx, followerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load followed users: %w", err)
	}
	return ids, nil
}

// followingSet returns FollowingIDs as a lookup set
func (s *profileService) followingSet(ctx context.Context, followerID int64) (map[int64]bool, error) {
	ids, err := s.FollowingIDs(ctx, followerID)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (s *profileService) userByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repos.User.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("profile %s not found", username)
	}
	return user, nil
}

// requireUser loads the acting user or reports NotFound
func requireUser(ctx context.Context, repos *repository.Repositories, id int64) (*models.User, error) {
	if id == AnonymousUserID {
		return nil, apperror.Unauthorized("authentication required")
	}
	user, err := repos.User.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user %d not found", id)
	}
	return user, nil
}
