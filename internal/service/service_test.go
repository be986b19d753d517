package service_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/conduit-api/internal/apperror"
	"github.com/conduit-api/internal/config"
	"github.com/conduit-api/internal/mocks"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/service"
)

type fixture struct {
	ctx   context.Context
	repos *mocks.MockRepositories
	svc   *service.Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithConfig(t, config.Defaults())
}

func newFixtureWithConfig(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	repos := mocks.NewMockRepositories()
	return &fixture{
		ctx:   context.Background(),
		repos: repos,
		svc:   service.NewServices(repos.Repositories(), cfg, zerolog.Nop()),
	}
}

func (f *fixture) publish(t *testing.T, author *models.User, title string, tags ...string) *models.ArticleView {
	t.Helper()
	view, err := f.svc.Article.Create(f.ctx, author.ID, models.ArticleInput{
		Title:       title,
		Description: "about " + title,
		Body:        "body of " + title,
		TagList:     tags,
	})
	require.NoError(t, err)
	return view
}

func requireKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperror.KindOf(err), "unexpected error: %v", err)
}
