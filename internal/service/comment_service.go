package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/conduit-api/internal/apperror"
	"github.com/conduit-api/internal/metrics"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
	"github.com/conduit-api/internal/validation"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	repos    *repository.Repositories
	profiles *profileService
	log      zerolog.Logger
}

func newCommentService(repos *repository.Repositories, profiles *profileService, log zerolog.Logger) *commentService {
	return &commentService{
		repos:    repos,
		profiles: profiles,
		log:      log.With().Str("service", "comment").Logger(),
	}
}

// Add attaches a comment by authorID to the article with slug
func (s *commentService) Add(ctx context.Context, authorID int64, slug string, input models.CommentInput) (*models.CommentView, error) {
	if err := validation.ValidateCommentInput(input); err != nil {
		return nil, err
	}

	author, err := requireUser(ctx, s.repos, authorID)
	if err != nil {
		return nil, err
	}

	article, err := s.article(ctx, slug)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ArticleID: article.ID,
		AuthorID:  author.ID,
		Body:      input.Body,
	}
	if err := s.repos.Comment.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, articleNotFound(slug)
		}
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	comment.Author = author

	metrics.ObserveComment("add")
	s.log.Debug().Str("slug", slug).Int64("comment_id", comment.ID).Msg("Comment added")

	view := models.NewCommentView(comment, false)
	return &view, nil
}

// List returns the comments of the article, oldest first
func (s *commentService) List(ctx context.Context, slug string, currentUserID int64) ([]models.CommentView, error) {
	article, err := s.article(ctx, slug)
	if err != nil {
		return nil, err
	}

	comments, err := s.repos.Comment.ListByArticle(ctx, article.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	following, err := s.profiles.followingSet(ctx, currentUserID)
	if err != nil {
		return nil, err
	}

	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, models.NewCommentView(c, following[c.AuthorID]))
	}
	return views, nil
}

// Delete removes a comment. Only its author may delete it. The ownership
// check and the delete run under a row lock, so exactly one of several
// concurrent deletes succeeds.
func (s *commentService) Delete(ctx context.Context, requesterID int64, slug string, commentID int64) (*models.CommentView, error) {
	if requesterID == AnonymousUserID {
		return nil, apperror.Unauthorized("authentication required")
	}

	article, err := s.article(ctx, slug)
	if err != nil {
		return nil, err
	}

	var comment *models.Comment
	err = s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		c, err := tx.Comment.GetByIDForUpdate(ctx, commentID)
		if err != nil {
			return fmt.Errorf("failed to load comment: %w", err)
		}
		if c == nil || c.ArticleID != article.ID {
			return commentNotFound(commentID)
		}
		if c.AuthorID != requesterID {
			return apperror.Forbidden("only the author can delete this comment")
		}

		deleted, err := tx.Comment.Delete(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		if !deleted {
			return commentNotFound(commentID)
		}
		comment = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveComment("delete")
	s.log.Debug().Str("slug", slug).Int64("comment_id", commentID).Msg("Comment deleted")

	view := models.NewCommentView(comment, false)
	return &view, nil
}

func commentNotFound(id int64) error {
	return apperror.NotFound("comment %d not found", id)
}

func (s *commentService) article(ctx context.Context, slug string) (*models.Article, error) {
	article, err := s.repos.Article.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load article: %w", err)
	}
	if article == nil {
		return nil, articleNotFound(slug)
	}
	return article, nil
}
