package service_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-api/internal/apperror"
	"github.com/conduit-api/internal/service"
)

func TestProfileService_FollowAndUnfollow(t *testing.T) {
	f := newFixture(t)
	alice := f.repos.SeedUser("alice")
	bob := f.repos.SeedUser("bob")

	profile, err := f.svc.Profile.Follow(f.ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", profile.Username)
	assert.True(t, profile.Following)

	following, err := f.svc.Profile.IsFollowing(f.ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	reverse, err := f.svc.Profile.IsFollowing(f.ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, reverse, "follow edges are directed")

	ids, err := f.svc.Profile.FollowingIDs(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{bob.ID}, ids)

	profile, err = f.svc.Profile.Unfollow(f.ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.False(t, profile.Following)

	ids, err = f.svc.Profile.FollowingIDs(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestProfileService_FollowSelf(t *testing.T) {
	f := newFixture(t)
	alice := f.repos.SeedUser("alice")

	_, err := f.svc.Profile.Follow(f.ctx, alice.ID, "alice")
	requireKind(t, err, apperror.KindBadRequest)

	_, err = f.svc.Profile.Unfollow(f.ctx, alice.ID, "alice")
	requireKind(t, err, apperror.KindBadRequest)

	ids, err := f.svc.Profile.FollowingIDs(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestProfileService_FollowConflicts(t *testing.T) {
	f := newFixture(t)
	alice := f.repos.SeedUser("alice")
	f.repos.SeedUser("bob")

	_, err := f.svc.Profile.Unfollow(f.ctx, alice.ID, "bob")
	requireKind(t, err, apperror.KindConflict)

	_, err = f.svc.Profile.Follow(f.ctx, alice.ID, "bob")
	require.NoError(t, err)

	_, err = f.svc.Profile.Follow(f.ctx, alice.ID, "bob")
	requireKind(t, err, apperror.KindConflict)

	ids, err := f.svc.Profile.FollowingIDs(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestProfileService_FollowUnknownUser(t *testing.T) {
	f := newFixture(t)
	alice := f.repos.SeedUser("alice")

	_, err := f.svc.Profile.Follow(f.ctx, alice.ID, "ghost")
	requireKind(t, err, apperror.KindNotFound)

	_, err = f.svc.Profile.Follow(f.ctx, 999, "alice")
	requireKind(t, err, apperror.KindNotFound)
}

func TestProfileService_GetProfile(t *testing.T) {
	f := newFixture(t)
	alice := f.repos.SeedUser("alice")
	f.repos.SeedUser("bob")

	_, err := f.svc.Profile.Follow(f.ctx, alice.ID, "bob")
	require.NoError(t, err)

	profile, err := f.svc.Profile.GetProfile(f.ctx, "bob", alice.ID)
	require.NoError(t, err)
	assert.True(t, profile.Following)
	assert.Equal(t, "bio of bob", profile.Bio)

	profile, err = f.svc.Profile.GetProfile(f.ctx, "bob", service.AnonymousUserID)
	require.NoError(t, err)
	assert.False(t, profile.Following)

	raw, err := json.Marshal(profile)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "bob@example.com")
	assert.NotContains(t, string(raw), "hash-bob")

	_, err = f.svc.Profile.GetProfile(f.ctx, "ghost", service.AnonymousUserID)
	requireKind(t, err, apperror.KindNotFound)
}
