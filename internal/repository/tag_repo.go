package repository

import (
	"context"

	"github.com/lib/pq"

	"github.com/conduit-api/internal/database"
)

// tagRepo is the concrete implementation of TagRepository
type tagRepo struct {
	db database.Querier
}

// NewTagRepo creates a new tag repository
func NewTagRepo(db database.Querier) TagRepository {
	return &tagRepo{db: db}
}

// List returns every known tag name in lexical order
func (r *tagRepo) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}

// Register adds names to the catalog, skipping blanks and known tags
func (r *tagRepo) Register(ctx context.Context, names []string) error {
	names = distinctTags(names)
	if len(names) == 0 {
		return nil
	}

	query := `
		INSERT INTO tags (name)
		SELECT unnest($1::text[])
		ON CONFLICT (name) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, pq.Array(names))
	return err
}

func distinctTags(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
