package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/conduit-api/internal/config"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
)

// AnonymousUserID identifies a caller without an authenticated identity
const AnonymousUserID int64 = 0

// ArticleService defines the interface for article, favorite and listing operations
type ArticleService interface {
	Create(ctx context.Context, authorID int64, input models.ArticleInput) (*models.ArticleView, error)
	Get(ctx context.Context, slug string, currentUserID int64) (*models.ArticleView, error)
	Update(ctx context.Context, requesterID int64, slug string, patch models.ArticlePatch) (*models.ArticleView, error)
	Delete(ctx context.Context, requesterID int64, slug string) (*models.ArticleView, error)
	Favorite(ctx context.Context, userID int64, slug string) (*models.ArticleView, error)
	Unfavorite(ctx context.Context, userID int64, slug string) (*models.ArticleView, error)
	List(ctx context.Context, currentUserID int64, query models.ArticleQuery) (*models.ArticlesResponse, error)
	Feed(ctx context.Context, currentUserID int64, query models.ArticleQuery) (*models.ArticlesResponse, error)
}

// CommentService defines the interface for comment operations
type CommentService interface {
	Add(ctx context.Context, authorID int64, slug string, input models.CommentInput) (*models.CommentView, error)
	List(ctx context.Context, slug string, currentUserID int64) ([]models.CommentView, error)
	Delete(ctx context.Context, requesterID int64, slug string, commentID int64) (*models.CommentView, error)
}

// ProfileService defines the interface for profiles and the follow graph
type ProfileService interface {
	GetProfile(ctx context.Context, username string, currentUserID int64) (*models.Profile, error)
	Follow(ctx context.Context, followerID int64, username string) (*models.Profile, error)
	Unfollow(ctx context.Context, followerID int64, username string) (*models.Profile, error)
	IsFollowing(ctx context.Context, followerID, targetID int64) (bool, error)
	FollowingIDs(ctx context.Context, followerID int64) ([]int64, error)
}

// UserService defines the interface for user account records
type UserService interface {
	Create(ctx context.Context, input models.UserInput) (*models.UserView, error)
	Current(ctx context.Context, userID int64) (*models.UserView, error)
	Update(ctx context.Context, userID int64, patch models.UserPatch) (*models.UserView, error)
}

// TagService defines the interface for the tag catalog
type TagService interface {
	List(ctx context.Context) ([]string, error)
}

// StatsService reports record counts for the ops endpoint
type StatsService interface {
	Counts(ctx context.Context) (*models.Stats, error)
}

// Services holds all service interfaces
type Services struct {
	Article ArticleService
	Comment CommentService
	Profile ProfileService
	User    UserService
	Tag     TagService
	Stats   StatsService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	profileSvc := newProfileService(repos, log)

	return &Services{
		Article: newArticleService(repos, profileSvc, cfg.API, log),
		Comment: newCommentService(repos, profileSvc, log),
		Profile: profileSvc,
		User:    newUserService(repos, log),
		Tag:     newTagService(repos),
		Stats:   newStatsService(repos),
	}
}
