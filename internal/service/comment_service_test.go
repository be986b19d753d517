package service_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-api/internal/apperror"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/service"
)

func TestCommentService_AddAndList(t *testing.T) {
	f := newFixture(t)
	alice := f.repos.SeedUser("alice")
	bob := f.repos.SeedUser("bob")
	article := f.publish(t, alice, "Discussed")

	first, err := f.svc.Comment.Add(f.ctx, bob.ID, article.Slug, models.CommentInput{Body: "first!"})
	require.NoError(t, err)
	assert.Equal(t, "first!", first.Body)
	assert.Equal(t, "bob", first.Author.Username)

	_, err = f.svc.Comment.Add(f.ctx, alice.ID, article.Slug, models.CommentInput{Body: "thanks"})
	require.NoError(t, err)

	_, err = f.svc.Profile.Follow(f.ctx, alice.ID, "bob")
	require.NoError(t, err)

	comments, err := f.svc.Comment.List(f.ctx, article.Slug, alice.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first!", comments[0].Body, "oldest first")
	assert.Equal(t, "thanks", comments[1].Body)
	assert.True(t, comments[0].Author.Following)
	assert.False(t, comments[1].Author.Following)

	comments, err = f.svc.Comment.List(f.ctx, article.Slug, service.AnonymousUserID)
	require.NoError(t, err)
	assert.False(t, comments[0].Author.Following)
}

func TestCommentService_MissingArticle(t *testing.T) {
	f := newFixture(t)
	alice := f.repos.SeedUser("alice")

	_, err := f.svc.Comment.Add(f.ctx, alice.ID, "missing-slug", models.CommentInput{Body: "hi"})
	requireKind(t, err, apperror.KindNotFound)

	_, err = f.svc.Comment.List(f.ctx, "missing-slug", service.AnonymousUserID)
	requireKind(t, err, apperror.KindNotFound)
}

func TestCommentService_EmptyBody(t *testing.T) {
	f := newFixture(t)
	alice := f.repos.SeedUser("alice")
	article := f.publish(t, alice, "Quiet")

	_, err := f.svc.Comment.Add(f.ctx, alice.ID, article.Slug, models.CommentInput{Body: "  "})
	requireKind(t, err, apperror.KindValidation)
}

func TestCommentService_Delete(t *testing.T) {
	f := newFixture(t)
	alice := f.repos.SeedUser("alice")
	bob := f.repos.SeedUser("bob")
	article := f.publish(t, alice, "Discussed")
	other := f.publish(t, alice, "Elsewhere")

	comment, err := f.svc.Comment.Add(f.ctx, bob.ID, article.Slug, models.CommentInput{Body: "mine"})
	require.NoError(t, err)

	_, err = f.svc.Comment.Delete(f.ctx, alice.ID, article.Slug, comment.ID)
	requireKind(t, err, apperror.KindForbidden)

	_, err = f.svc.Comment.Delete(f.ctx, bob.ID, other.Slug, comment.ID)
	requireKind(t, err, apperror.KindNotFound)

	_, err = f.svc.Comment.Delete(f.ctx, bob.ID, article.Slug, 999)
	requireKind(t, err, apperror.KindNotFound)

	deleted, err := f.svc.Comment.Delete(f.ctx, bob.ID, article.Slug, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, comment.ID, deleted.ID)

	comments, err := f.svc.Comment.List(f.ctx, article.Slug, service.AnonymousUserID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestCommentService_ConcurrentDeletesSucceedOnce(t *testing.T) {
	f := newFixture(t)
	alice := f.repos.SeedUser("alice")
	article := f.publish(t, alice, "Discussed")
	comment, err := f.svc.Comment.Add(f.ctx, alice.ID, article.Slug, models.CommentInput{Body: "twice?"})
	require.NoError(t, err)

	const attempts = 10
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		notFound  atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Comment.Delete(f.ctx, alice.ID, article.Slug, comment.ID)
			switch {
			case err == nil:
				succeeded.Add(1)
			case apperror.Is(err, apperror.KindNotFound):
				notFound.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(attempts-1), notFound.Load())
	assert.GreaterOrEqual(t, f.repos.TxCalls, attempts)
}

func TestStatsService_Counts(t *testing.T) {
	f := newFixture(t)
	alice := f.repos.SeedUser("alice")
	article := f.publish(t, alice, "Counted")
	_, err := f.svc.Comment.Add(f.ctx, alice.ID, article.Slug, models.CommentInput{Body: "self"})
	require.NoError(t, err)

	stats, err := f.svc.Stats.Counts(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{Users: 1, Articles: 1, Comments: 1}, *stats)
}
