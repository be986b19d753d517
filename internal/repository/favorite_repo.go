package repository

import (
	"context"

	"github.com/lib/pq"

	"github.com/conduit-api/internal/database"
)

// favoriteRepo is the concrete implementation of FavoriteRepository
type favoriteRepo struct {
	db database.Querier
}

// NewFavoriteRepo creates a new favorite repository
func NewFavoriteRepo(db database.Querier) FavoriteRepository {
	return &favoriteRepo{db: db}
}

// Add records that userID favourited articleID
func (r *favoriteRepo) Add(ctx context.Context, userID, articleID int64) (bool, error) {
	query := `
		INSERT INTO favorites (user_id, article_id) VALUES ($1, $2)
		ON CONFLICT (user_id, article_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, userID, articleID)
	if err != nil {
		return false, translate(err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Remove deletes the membership of userID on articleID
func (r *favoriteRepo) Remove(ctx context.Context, userID, articleID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND article_id = $2`, userID, articleID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Exists reports whether userID favourited articleID
func (r *favoriteRepo) Exists(ctx context.Context, userID, articleID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND article_id = $2)`,
		userID, articleID,
	).Scan(&exists)
	return exists, err
}

// ArticleIDsByUser returns the IDs of every article userID favourited
func (r *favoriteRepo) ArticleIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	return queryIDs(ctx, r.db, `SELECT article_id FROM favorites WHERE user_id = $1`, userID)
}

// FavoritedAmong returns the subset of articleIDs that userID favourited
func (r *favoriteRepo) FavoritedAmong(ctx context.Context, userID int64, articleIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(articleIDs))
	if len(articleIDs) == 0 {
		return result, nil
	}

	ids, err := queryIDs(ctx, r.db,
		`SELECT article_id FROM favorites WHERE user_id = $1 AND article_id = ANY($2)`,
		userID, pq.Array(articleIDs),
	)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

// CountByArticle returns the number of users who favourited articleID
func (r *favoriteRepo) CountByArticle(ctx context.Context, articleID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE article_id = $1`, articleID,
	).Scan(&count)
	return count, err
}

// queryIDs runs a single-column BIGINT query
func queryIDs(ctx context.Context, db database.Querier, query string, args ...any) ([]int64, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
