package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/conduit-api/internal/database"
	"github.com/conduit-api/internal/models"
)

var articleColumns = []string{
	"a.id", "a.slug", "a.title", "a.description", "a.body", "a.tag_list",
	"a.favorites_count", "a.author_id", "a.created_at", "a.updated_at",
	"u.id", "u.username", "u.bio", "u.image",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db database.Querier
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db database.Querier) ArticleRepository {
	return &articleRepo{db: db}
}

// Create inserts a new article and fills in the generated fields
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	article.TagList = models.NormalizeTags(article.TagList)

	query := `
		INSERT INTO articles (slug, title, description, body, tag_list, author_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, favorites_count, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		article.Slug, article.Title, article.Description, article.Body,
		pq.Array(article.TagList), article.AuthorID,
	).Scan(&article.ID, &article.FavouritesCount, &article.CreatedAt, &article.UpdatedAt)
	return translate(err)
}

// GetBySlug retrieves an article and its author by slug
func (r *articleRepo) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	return r.getOne(ctx, r.selectArticles().Where(sq.Eq{"a.slug": slug}))
}

// GetBySlugForUpdate retrieves an article by slug and locks its row
func (r *articleRepo) GetBySlugForUpdate(ctx context.Context, slug string) (*models.Article, error) {
	return r.getOne(ctx, r.selectArticles().Where(sq.Eq{"a.slug": slug}).Suffix("FOR UPDATE OF a"))
}

func (r *articleRepo) getOne(ctx context.Context, b sq.SelectBuilder) (*models.Article, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build article query: %w", err)
	}

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return article, nil
}

// Update writes the mutable fields of an article and refreshes UpdatedAt
func (r *articleRepo) Update(ctx context.Context, article *models.Article) error {
	article.TagList = models.NormalizeTags(article.TagList)

	query := `
		UPDATE articles
		SET title = $1, description = $2, body = $3, tag_list = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		article.Title, article.Description, article.Body, pq.Array(article.TagList), article.ID,
	).Scan(&article.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMissingReference
	}
	return err
}

// Delete removes an article. Favorites and comments cascade.
func (r *articleRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	return err
}

// AdjustFavoritesCount adds delta to the favorites counter and returns the new value
func (r *articleRepo) AdjustFavoritesCount(ctx context.Context, id int64, delta int) (int, error) {
	query := `
		UPDATE articles SET favorites_count = favorites_count + $1
		WHERE id = $2
		RETURNING favorites_count
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, delta, id).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrMissingReference
	}
	return count, err
}

// List returns one page of articles matching filter, newest first, together
// with the total number of matches before paging. The count and the page are
// separate statements; callers run List under Repositories.InSnapshot so both
// see the same rows.
func (r *articleRepo) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	countQuery, countArgs, err := applyFilter(psql.Select("COUNT(*)").From("articles a"), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*models.Article{}, 0, nil
	}

	b := applyFilter(r.selectArticles(), filter).OrderBy("a.created_at DESC", "a.id DESC")
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		b = b.Offset(uint64(filter.Offset))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	articles := make([]*models.Article, 0, filter.Limit)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		articles = append(articles, article)
	}

	return articles, total, rows.Err()
}

// Count returns the total number of articles
func (r *articleRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	return count, err
}

func (r *articleRepo) selectArticles() sq.SelectBuilder {
	return psql.Select(articleColumns...).
		From("articles a").
		Join("users u ON u.id = a.author_id")
}

// applyFilter narrows b by the filter predicates. A nil ID slice means no
// restriction, an empty one matches nothing.
func applyFilter(b sq.SelectBuilder, filter models.ArticleFilter) sq.SelectBuilder {
	if filter.AuthorIDs != nil {
		b = b.Where(sq.Eq{"a.author_id": filter.AuthorIDs})
	}
	if filter.ArticleIDs != nil {
		b = b.Where(sq.Eq{"a.id": filter.ArticleIDs})
	}
	if filter.Tag != "" {
		b = b.Where(sq.Like{"array_to_string(a.tag_list, ',')": "%" + likeEscaper.Replace(filter.Tag) + "%"})
	}
	return b
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var article models.Article
	var author models.User
	err := row.Scan(
		&article.ID, &article.Slug, &article.Title, &article.Description, &article.Body,
		pq.Array(&article.TagList), &article.FavouritesCount, &article.AuthorID,
		&article.CreatedAt, &article.UpdatedAt,
		&author.ID, &author.Username, &author.Bio, &author.Image,
	)
	if err != nil {
		return nil, err
	}
	article.TagList = models.NormalizeTags(article.TagList)
	article.Author = &author
	return &article, nil
}
