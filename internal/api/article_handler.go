package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/service"
)

const (
	msgArticleDeleted     = "Article successfully deleted"
	msgArticleFavourited  = "Article successfully favourited"
	msgArticleUnfavourite = "Article successfully unfavourited"
)

type createArticleRequest struct {
	Article models.ArticleInput `json:"article"`
}

type updateArticleRequest struct {
	Article models.ArticlePatch `json:"article"`
}

// ArticleHandler handles article, favorite and feed endpoints
type ArticleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		log:      log.With().Str("handler", "article").Logger(),
	}
}

// List handles GET /api/articles?author=&tag=&favouritedBy=&limit=&offset=
func (h *ArticleHandler) List(c *gin.Context) {
	var query models.ArticleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBadBody(c, err)
		return
	}

	res, err := h.services.Article.List(c.Request.Context(), currentUserID(c), query)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Feed handles GET /api/articles/feed
func (h *ArticleHandler) Feed(c *gin.Context) {
	var query models.ArticleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBadBody(c, err)
		return
	}

	res, err := h.services.Article.Feed(c.Request.Context(), currentUserID(c), query)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Create handles POST /api/articles
func (h *ArticleHandler) Create(c *gin.Context) {
	var req createArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadBody(c, err)
		return
	}

	view, err := h.services.Article.Create(c.Request.Context(), currentUserID(c), req.Article)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, models.ArticleResponse{Article: *view})
}

// Get handles GET /api/articles/:slug
func (h *ArticleHandler) Get(c *gin.Context) {
	view, err := h.services.Article.Get(c.Request.Context(), c.Param("slug"), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.ArticleResponse{Article: *view})
}

// Update handles PUT /api/articles/:slug
func (h *ArticleHandler) Update(c *gin.Context) {
	var req updateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadBody(c, err)
		return
	}

	view, err := h.services.Article.Update(c.Request.Context(), currentUserID(c), c.Param("slug"), req.Article)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.ArticleResponse{Article: *view})
}

// Delete handles DELETE /api/articles/:slug
func (h *ArticleHandler) Delete(c *gin.Context) {
	view, err := h.services.Article.Delete(c.Request.Context(), currentUserID(c), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.ArticleResponse{Message: msgArticleDeleted, Article: *view})
}

// Favorite handles POST /api/articles/:slug/favorite
func (h *ArticleHandler) Favorite(c *gin.Context) {
	view, err := h.services.Article.Favorite(c.Request.Context(), currentUserID(c), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.ArticleResponse{Message: msgArticleFavourited, Article: *view})
}

// Unfavorite handles DELETE /api/articles/:slug/favorite
func (h *ArticleHandler) Unfavorite(c *gin.Context) {
	view, err := h.services.Article.Unfavorite(c.Request.Context(), currentUserID(c), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.ArticleResponse{Message: msgArticleUnfavourite, Article: *view})
}
