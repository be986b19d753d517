package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/conduit-api/internal/apperror"
	"github.com/conduit-api/internal/config"
	"github.com/conduit-api/internal/metrics"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
	"github.com/conduit-api/internal/slug"
	"github.com/conduit-api/internal/validation"
)

// articleService is the concrete implementation of ArticleService
type articleService struct {
	repos    *repository.Repositories
	profiles *profileService
	paging   config.APIConfig
	log      zerolog.Logger
}

func newArticleService(repos *repository.Repositories, profiles *profileService, paging config.APIConfig, log zerolog.Logger) *articleService {
	return &articleService{
		repos:    repos,
		profiles: profiles,
		paging:   paging,
		log:      log.With().Str("service", "article").Logger(),
	}
}

// Create stores a new article authored by authorID under a freshly generated slug
func (s *articleService) Create(ctx context.Context, authorID int64, input models.ArticleInput) (*models.ArticleView, error) {
	if err := validation.ValidateArticleInput(input); err != nil {
		return nil, err
	}

	author, err := requireUser(ctx, s.repos, authorID)
	if err != nil {
		return nil, err
	}

	article := &models.Article{
		Slug:        slug.Generate(input.Title),
		Title:       input.Title,
		Description: input.Description,
		Body:        input.Body,
		TagList:     models.NormalizeTags(input.TagList),
		AuthorID:    author.ID,
	}

	err = s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Article.Create(ctx, article); err != nil {
			switch {
			case errors.Is(err, repository.ErrDuplicate):
				return apperror.Conflict("slug %s already exists", article.Slug)
			case errors.Is(err, repository.ErrMissingReference):
				return apperror.NotFound("user %d not found", authorID)
			}
			return fmt.Errorf("failed to create article: %w", err)
		}
		if err := tx.Tag.Register(ctx, article.TagList); err != nil {
			return fmt.Errorf("failed to register tags: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	article.Author = author

	metrics.ObserveArticle("create")
	s.log.Info().Str("slug", article.Slug).Int64("author_id", authorID).Msg("Article created")

	view := models.NewArticleView(article, false, false)
	return &view, nil
}

// Get returns the article with slug annotated for currentUserID
func (s *articleService) Get(ctx context.Context, slug string, currentUserID int64) (*models.ArticleView, error) {
	article, err := s.repos.Article.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load article: %w", err)
	}
	if article == nil {
		return nil, articleNotFound(slug)
	}

	views, err := s.annotate(ctx, currentUserID, []*models.Article{article})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Update merges patch into the article. Only the author may update it; the slug never changes.
func (s *articleService) Update(ctx context.Context, requesterID int64, slug string, patch models.ArticlePatch) (*models.ArticleView, error) {
	if err := validation.ValidateArticlePatch(patch); err != nil {
		return nil, err
	}

	var article *models.Article
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		a, err := lockOwned(ctx, tx, requesterID, slug, "update")
		if err != nil {
			return err
		}

		patch.Apply(a)
		if err := tx.Article.Update(ctx, a); err != nil {
			return fmt.Errorf("failed to update article: %w", err)
		}
		if patch.TagList != nil {
			if err := tx.Tag.Register(ctx, a.TagList); err != nil {
				return fmt.Errorf("failed to register tags: %w", err)
			}
		}
		article = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveArticle("update")
	s.log.Info().Str("slug", slug).Int64("author_id", requesterID).Msg("Article updated")

	views, err := s.annotate(ctx, requesterID, []*models.Article{article})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Delete removes the article and returns its last state. Only the author may delete it.
func (s *articleService) Delete(ctx context.Context, requesterID int64, slug string) (*models.ArticleView, error) {
	var (
		article    *models.Article
		favourited bool
	)
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		a, err := lockOwned(ctx, tx, requesterID, slug, "delete")
		if err != nil {
			return err
		}

		favourited, err = tx.Favorite.Exists(ctx, requesterID, a.ID)
		if err != nil {
			return fmt.Errorf("failed to check favorite: %w", err)
		}
		if err := tx.Article.Delete(ctx, a.ID); err != nil {
			return fmt.Errorf("failed to delete article: %w", err)
		}
		article = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveArticle("delete")
	s.log.Info().Str("slug", slug).Int64("author_id", requesterID).Msg("Article deleted")

	view := models.NewArticleView(article, favourited, false)
	return &view, nil
}

// lockOwned loads and locks the article, enforcing that requesterID is its author
func lockOwned(ctx context.Context, tx *repository.Repositories, requesterID int64, slug, action string) (*models.Article, error) {
	if requesterID == AnonymousUserID {
		return nil, apperror.Unauthorized("authentication required")
	}

	article, err := tx.Article.GetBySlugForUpdate(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load article: %w", err)
	}
	if article == nil {
		return nil, articleNotFound(slug)
	}
	if article.AuthorID != requesterID {
		return nil, apperror.Forbidden("only the author can %s this article", action)
	}
	return article, nil
}

// Favorite adds userID to the article's favorites and increments its counter by one
func (s *articleService) Favorite(ctx context.Context, userID int64, slug string) (*models.ArticleView, error) {
	return s.toggleFavorite(ctx, userID, slug, true)
}

// Unfavorite removes userID from the article's favorites and decrements its counter by one
func (s *articleService) Unfavorite(ctx context.Context, userID int64, slug string) (*models.ArticleView, error) {
	return s.toggleFavorite(ctx, userID, slug, false)
}

// toggleFavorite changes the membership and the counter in one transaction
// with the article row locked, so the counter always equals the set size.
func (s *articleService) toggleFavorite(ctx context.Context, userID int64, slug string, add bool) (*models.ArticleView, error) {
	action, delta := "unfavorite", -1
	if add {
		action, delta = "favorite", 1
	}

	if _, err := requireUser(ctx, s.repos, userID); err != nil {
		return nil, err
	}

	var article *models.Article
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		a, err := tx.Article.GetBySlugForUpdate(ctx, slug)
		if err != nil {
			return fmt.Errorf("failed to load article: %w", err)
		}
		if a == nil {
			return articleNotFound(slug)
		}

		changed, err := s.changeMembership(ctx, tx, userID, a.ID, add)
		if err != nil {
			return err
		}
		if !changed {
			metrics.ObserveConflict(action)
			if add {
				return apperror.Conflict("article is already favourited")
			}
			return apperror.Conflict("article is not favourited")
		}

		count, err := tx.Article.AdjustFavoritesCount(ctx, a.ID, delta)
		if err != nil {
			return fmt.Errorf("failed to adjust favorites count: %w", err)
		}
		a.FavouritesCount = count
		article = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveFavorite(action)
	s.log.Debug().Str("slug", slug).Int64("user_id", userID).Str("action", action).Msg("Favorite toggled")

	following, err := s.profiles.IsFollowing(ctx, userID, article.AuthorID)
	if err != nil {
		return nil, err
	}
	view := models.NewArticleView(article, add, following)
	return &view, nil
}

func (s *articleService) changeMembership(ctx context.Context, tx *repository.Repositories, userID, articleID int64, add bool) (bool, error) {
	if !add {
		removed, err := tx.Favorite.Remove(ctx, userID, articleID)
		if err != nil {
			return false, fmt.Errorf("failed to remove favorite: %w", err)
		}
		return removed, nil
	}

	added, err := tx.Favorite.Add(ctx, userID, articleID)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return false, nil
	case errors.Is(err, repository.ErrMissingReference):
		return false, apperror.NotFound("user %d not found", userID)
	case err != nil:
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	return added, nil
}

// List returns articles matching query, newest first
func (s *articleService) List(ctx context.Context, currentUserID int64, query models.ArticleQuery) (*models.ArticlesResponse, error) {
	if err := validation.ValidateArticleQuery(query); err != nil {
		return nil, err
	}

	filter := s.page(query)
	filter.Tag = query.Tag

	if query.Author != "" {
		author, err := s.repos.User.GetByUsername(ctx, query.Author)
		if err != nil {
			return nil, fmt.Errorf("failed to load author: %w", err)
		}
		if author == nil {
			return models.EmptyArticles(), nil
		}
		filter.AuthorIDs = []int64{author.ID}
	}

	if query.FavouritedBy != "" {
		user, err := s.repos.User.GetByUsername(ctx, query.FavouritedBy)
		if err != nil {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		if user == nil {
			return models.EmptyArticles(), nil
		}
		ids, err := s.repos.Favorite.ArticleIDsByUser(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load favorites: %w", err)
		}
		if len(ids) == 0 {
			return models.EmptyArticles(), nil
		}
		filter.ArticleIDs = ids
	}

	return s.list(ctx, currentUserID, filter)
}

// Feed returns articles written by the users currentUserID follows
func (s *articleService) Feed(ctx context.Context, currentUserID int64, query models.ArticleQuery) (*models.ArticlesResponse, error) {
	if err := validation.ValidateArticleQuery(query); err != nil {
		return nil, err
	}

	followed, err := s.profiles.FollowingIDs(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	if len(followed) == 0 {
		return models.EmptyArticles(), nil
	}

	filter := s.page(query)
	filter.AuthorIDs = followed
	return s.list(ctx, currentUserID, filter)
}

func (s *articleService) list(ctx context.Context, currentUserID int64, filter models.ArticleFilter) (*models.ArticlesResponse, error) {
	var (
		articles []*models.Article
		total    int
	)
	err := s.repos.InSnapshot(ctx, func(tx *repository.Repositories) error {
		var err error
		articles, total, err = tx.Article.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	views, err := s.annotate(ctx, currentUserID, articles)
	if err != nil {
		return nil, err
	}
	return &models.ArticlesResponse{Articles: views, ArticlesCount: total}, nil
}

// page resolves limit and offset against the configured defaults
func (s *articleService) page(query models.ArticleQuery) models.ArticleFilter {
	limit := query.Limit
	if limit == 0 {
		limit = s.paging.DefaultPageSize
	}
	if s.paging.MaxPageSize > 0 && limit > s.paging.MaxPageSize {
		limit = s.paging.MaxPageSize
	}
	return models.ArticleFilter{Limit: limit, Offset: query.Offset}
}

// annotate builds views carrying the favourited and following flags for currentUserID
func (s *articleService) annotate(ctx context.Context, currentUserID int64, articles []*models.Article) ([]models.ArticleView, error) {
	views := make([]models.ArticleView, 0, len(articles))
	if len(articles) == 0 {
		return views, nil
	}

	favourited := map[int64]bool{}
	following := map[int64]bool{}
	if currentUserID != AnonymousUserID {
		ids := make([]int64, len(articles))
		for i, a := range articles {
			ids[i] = a.ID
		}

		var err error
		favourited, err = s.repos.Favorite.FavoritedAmong(ctx, currentUserID, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load favorites: %w", err)
		}
		following, err = s.profiles.followingSet(ctx, currentUserID)
		if err != nil {
			return nil, err
		}
	}

	for _, a := range articles {
		views = append(views, models.NewArticleView(a, favourited[a.ID], following[a.AuthorID]))
	}
	return views, nil
}

func articleNotFound(slug string) error {
	return apperror.NotFound("article %s not found", slug)
}
