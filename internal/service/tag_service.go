package service

import (
	"context"
	"fmt"

	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
)

// tagService is the concrete implementation of TagService
type tagService struct {
	repos *repository.Repositories
}

func newTagService(repos *repository.Repositories) *tagService {
	return &tagService{repos: repos}
}

// List returns every known tag in lexical order
func (s *tagService) List(ctx context.Context) ([]string, error) {
	tags, err := s.repos.Tag.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// statsService is the concrete implementation of StatsService
type statsService struct {
	repos *repository.Repositories
}

func newStatsService(repos *repository.Repositories) *statsService {
	return &statsService{repos: repos}
}

// Counts returns the number of users, articles and comments
func (s *statsService) Counts(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	var err error

	if stats.Users, err = s.repos.User.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if stats.Articles, err = s.repos.Article.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}
	if stats.Comments, err = s.repos.Comment.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}
	return &stats, nil
}
