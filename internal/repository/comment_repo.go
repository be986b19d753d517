package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/conduit-api/internal/database"
	"github.com/conduit-api/internal/models"
)

const commentSelect = `
	SELECT c.id, c.article_id, c.author_id, c.body, c.created_at, c.updated_at,
	       u.id, u.username, u.bio, u.image
	FROM comments c
	JOIN users u ON u.id = c.author_id
`

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db database.Querier
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db database.Querier) CommentRepository {
	return &commentRepo{db: db}
}

// Create inserts a new comment and fills in the generated fields
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (article_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		comment.ArticleID, comment.AuthorID, comment.Body,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	return translate(err)
}

// GetByID retrieves a comment and its author by ID
func (r *commentRepo) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	return r.getOne(ctx, commentSelect+`WHERE c.id = $1`, id)
}

// GetByIDForUpdate retrieves a comment by ID and locks its row
func (r *commentRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.Comment, error) {
	return r.getOne(ctx, commentSelect+`WHERE c.id = $1 FOR UPDATE OF c`, id)
}

func (r *commentRepo) getOne(ctx context.Context, query string, id int64) (*models.Comment, error) {
	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListByArticle returns the comments of an article, oldest first
func (r *commentRepo) ListByArticle(ctx context.Context, articleID int64) ([]*models.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		commentSelect+`WHERE c.article_id = $1 ORDER BY c.created_at ASC, c.id ASC`, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

// Delete removes a comment
func (r *commentRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Count returns the total number of comments
func (r *commentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&count)
	return count, err
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var comment models.Comment
	var author models.User
	err := row.Scan(
		&comment.ID, &comment.ArticleID, &comment.AuthorID, &comment.Body,
		&comment.CreatedAt, &comment.UpdatedAt,
		&author.ID, &author.Username, &author.Bio, &author.Image,
	)
	if err != nil {
		return nil, err
	}
	comment.Author = &author
	return &comment, nil
}
