package mocks

import (
	"context"

	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/service"
)

// MockTagService is a mock implementation of TagService
type MockTagService struct {
	ListFunc func(ctx context.Context) ([]string, error)
}

// Verify interface compliance
var _ service.TagService = (*MockTagService)(nil)

func (m *MockTagService) List(ctx context.Context) ([]string, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []string{}, nil
}

// MockStatsService is a mock implementation of StatsService
type MockStatsService struct {
	Stats models.Stats
	Err   error
}

// Verify interface compliance
var _ service.StatsService = (*MockStatsService)(nil)

func (m *MockStatsService) Counts(ctx context.Context) (*models.Stats, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	stats := m.Stats
	return &stats, nil
}

// MockHealthChecker reports Err from every health check
type MockHealthChecker struct {
	Err   error
	Calls int
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	m.Calls++
	return m.Err
}
