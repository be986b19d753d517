package repository

import (
	"context"

	"github.com/conduit-api/internal/database"
)

// followRepo is the concrete implementation of FollowRepository
type followRepo struct {
	db database.Querier
}

// NewFollowRepo creates a new follow repository
func NewFollowRepo(db database.Querier) FollowRepository {
	return &followRepo{db: db}
}

// Create adds the edge followerID -> followingID
func (r *followRepo) Create(ctx context.Context, followerID, followingID int64) (bool, error) {
	query := `
		INSERT INTO follows (follower_id, following_id) VALUES ($1, $2)
		ON CONFLICT (follower_id, following_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, followerID, followingID)
	if err != nil {
		return false, translate(err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Delete removes the edge followerID -> followingID
func (r *followRepo) Delete(ctx context.Context, followerID, followingID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`, followerID, followingID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Exists reports whether followerID follows followingID
func (r *followRepo) Exists(ctx context.Context, followerID, followingID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)`,
		followerID, followingID,
	).Scan(&exists)
	return exists, err
}

// FollowingIDs returns the IDs of every user followerID follows
func (r *followRepo) FollowingIDs(ctx context.Context, followerID int64) ([]int64, error) {
	return queryIDs(ctx, r.db, `SELECT following_id FROM follows WHERE follower_id = $1`, followerID)
}
