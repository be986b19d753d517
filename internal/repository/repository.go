package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/conduit-api/internal/database"
	"github.com/conduit-api/internal/models"
)

// psql builds PostgreSQL ($n) placeholder statements
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// Update writes Bio and Image and refreshes UpdatedAt
	Update(ctx context.Context, user *models.User) error
	Count(ctx context.Context) (int, error)
}

// ArticleRepository defines the interface for article data operations.
// Reads populate Article.Author.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	// GetBySlugForUpdate locks the article row until the surrounding transaction ends
	GetBySlugForUpdate(ctx context.Context, slug string) (*models.Article, error)
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id int64) error
	AdjustFavoritesCount(ctx context.Context, id int64, delta int) (int, error)
	List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error)
	Count(ctx context.Context) (int, error)
}

// FavoriteRepository defines the interface for the (user, article) favorite set
type FavoriteRepository interface {
	// Add reports false when the membership already exists
	Add(ctx context.Context, userID, articleID int64) (bool, error)
	// Remove reports false when there was no membership
	Remove(ctx context.Context, userID, articleID int64) (bool, error)
	Exists(ctx context.Context, userID, articleID int64) (bool, error)
	ArticleIDsByUser(ctx context.Context, userID int64) ([]int64, error)
	FavoritedAmong(ctx context.Context, userID int64, articleIDs []int64) (map[int64]bool, error)
	CountByArticle(ctx context.Context, articleID int64) (int, error)
}

// FollowRepository defines the interface for the follow graph
type FollowRepository interface {
	// Create reports false when the edge already exists
	Create(ctx context.Context, followerID, followingID int64) (bool, error)
	// Delete reports false when there was no edge
	Delete(ctx context.Context, followerID, followingID int64) (bool, error)
	Exists(ctx context.Context, followerID, followingID int64) (bool, error)
	FollowingIDs(ctx context.Context, followerID int64) ([]int64, error)
}

// CommentRepository defines the interface for comment data operations.
// Reads populate Comment.Author.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	// GetByIDForUpdate locks the comment row until the surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Comment, error)
	ListByArticle(ctx context.Context, articleID int64) ([]*models.Comment, error)
	// Delete reports false when the comment no longer exists
	Delete(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int, error)
}

// TagRepository defines the interface for the tag catalog
type TagRepository interface {
	List(ctx context.Context) ([]string, error)
	Register(ctx context.Context, names []string) error
}

// TxFunc runs fn with repositories bound to a single transaction
type TxFunc func(ctx context.Context, fn func(repos *Repositories) error) error

// Repositories holds all repository interfaces
type Repositories struct {
	User     UserRepository
	Article  ArticleRepository
	Favorite FavoriteRepository
	Follow   FollowRepository
	Comment  CommentRepository
	Tag      TagRepository

	// Tx and Snapshot are nil for repositories that are already transaction-bound
	Tx       TxFunc
	Snapshot TxFunc
}

// InTx runs fn as one atomic unit. Nested calls reuse the current transaction.
func (r *Repositories) InTx(ctx context.Context, fn func(repos *Repositories) error) error {
	if r.Tx == nil {
		return fn(r)
	}
	return r.Tx(ctx, fn)
}

// InSnapshot runs the reads in fn against one consistent snapshot.
// Nested calls reuse the current transaction.
func (r *Repositories) InSnapshot(ctx context.Context, fn func(repos *Repositories) error) error {
	if r.Snapshot == nil {
		return fn(r)
	}
	return r.Snapshot(ctx, fn)
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	repos := bind(db.DB)
	repos.Tx = txFunc(db, nil)
	repos.Snapshot = txFunc(db, database.ReadSnapshot)
	return repos
}

func txFunc(db *database.DB, opts *sql.TxOptions) TxFunc {
	return func(ctx context.Context, fn func(repos *Repositories) error) error {
		return db.WithTx(ctx, opts, func(tx *sql.Tx) error {
			return fn(bind(tx))
		})
	}
}

func bind(q database.Querier) *Repositories {
	return &Repositories{
		User:     NewUserRepo(q),
		Article:  NewArticleRepo(q),
		Favorite: NewFavoriteRepo(q),
		Follow:   NewFollowRepo(q),
		Comment:  NewCommentRepo(q),
		Tag:      NewTagRepo(q),
	}
}
