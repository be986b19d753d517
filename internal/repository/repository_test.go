package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-api/internal/models"
)

func TestDistinctTags(t *testing.T) {
	assert.Equal(t, []string{"go", "web"}, distinctTags([]string{"go", "", "web", "go"}))
	assert.Empty(t, distinctTags(nil))
}

func TestLikeEscaper(t *testing.T) {
	assert.Equal(t, `50\%`, likeEscaper.Replace("50%"))
	assert.Equal(t, `snake\_case`, likeEscaper.Replace("snake_case"))
	assert.Equal(t, `back\\slash`, likeEscaper.Replace(`back\slash`))
}

func TestApplyFilter(t *testing.T) {
	tests := []struct {
		name     string
		filter   models.ArticleFilter
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:    "no predicates",
			filter:  models.ArticleFilter{},
			wantSQL: "SELECT COUNT(*) FROM articles a",
		},
		{
			name:     "authors",
			filter:   models.ArticleFilter{AuthorIDs: []int64{1, 2}},
			wantSQL:  "SELECT COUNT(*) FROM articles a WHERE a.author_id IN ($1,$2)",
			wantArgs: []interface{}{int64(1), int64(2)},
		},
		{
			name:     "articles and tag",
			filter:   models.ArticleFilter{ArticleIDs: []int64{7}, Tag: "go"},
			wantSQL:  "SELECT COUNT(*) FROM articles a WHERE a.id IN ($1) AND array_to_string(a.tag_list, ',') LIKE $2",
			wantArgs: []interface{}{int64(7), "%go%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := applyFilter(psql.Select("COUNT(*)").From("articles a"), tt.filter).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, len(tt.wantArgs), len(args))
			for i := range tt.wantArgs {
				assert.Equal(t, tt.wantArgs[i], args[i])
			}
		})
	}
}

func TestRepositoriesInTx_WithoutTxFuncRunsInline(t *testing.T) {
	repos := &Repositories{}
	called := false
	err := repos.InTx(context.Background(), func(tx *Repositories) error {
		called = true
		assert.Same(t, repos, tx)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestRepositoriesInSnapshot(t *testing.T) {
	repos := &Repositories{}
	var inline *Repositories
	require.NoError(t, repos.InSnapshot(context.Background(), func(tx *Repositories) error {
		inline = tx
		return nil
	}))
	assert.Same(t, repos, inline)

	bound := &Repositories{}
	calls := 0
	repos.Snapshot = func(ctx context.Context, fn func(*Repositories) error) error {
		calls++
		return fn(bound)
	}
	var got *Repositories
	require.NoError(t, repos.InSnapshot(context.Background(), func(tx *Repositories) error {
		got = tx
		return nil
	}))
	assert.Equal(t, 1, calls)
	assert.Same(t, bound, got)
}
