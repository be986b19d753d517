package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/conduit-api/internal/config"
	"github.com/conduit-api/internal/service"
)

const serviceName = "conduit-api"

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, db HealthChecker, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(metricsMiddleware())
	router.Use(corsMiddleware(cfg.API.UserIDHeader))
	router.Use(identityMiddleware(cfg.API.UserIDHeader))

	// Handlers
	articleHandler := NewArticleHandler(services, log)
	commentHandler := NewCommentHandler(services, log)
	profileHandler := NewProfileHandler(services, log)
	tagHandler := NewTagHandler(services, log)
	userHandler := NewUserHandler(services, log)

	// Ops
	router.GET("/health", healthCheck)
	router.GET("/live", liveCheck)
	router.GET("/ready", readyCheck(db, log))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/stats", statsHandler(services, log))

	api := router.Group("/api")
	{
		api.GET("/tags", tagHandler.List)

		api.POST("/users", userHandler.Create)
		api.GET("/user", requireAuth(), userHandler.Current)
		api.PUT("/user", requireAuth(), userHandler.Update)

		articles := api.Group("/articles")
		{
			articles.GET("", articleHandler.List)
			articles.GET("/feed", requireAuth(), articleHandler.Feed)
			articles.POST("", requireAuth(), articleHandler.Create)
			articles.GET("/:slug", articleHandler.Get)
			articles.PUT("/:slug", requireAuth(), articleHandler.Update)
			articles.DELETE("/:slug", requireAuth(), articleHandler.Delete)

			articles.POST("/:slug/favorite", requireAuth(), articleHandler.Favorite)
			articles.DELETE("/:slug/favorite", requireAuth(), articleHandler.Unfavorite)

			articles.GET("/:slug/comments", commentHandler.List)
			articles.POST("/:slug/comments", requireAuth(), commentHandler.Add)
			articles.DELETE("/:slug/comments/:id", requireAuth(), commentHandler.Delete)
		}

		profiles := api.Group("/profiles")
		{
			profiles.GET("/:username", profileHandler.Get)
			profiles.POST("/:username/follow", requireAuth(), profileHandler.Follow)
			profiles.DELETE("/:username/follow", requireAuth(), profileHandler.Unfollow)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   serviceName,
	})
}

// liveCheck reports that the process is serving requests
func liveCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// readyCheck reports whether the database is reachable
func readyCheck(db HealthChecker, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			log.Warn().Err(err).Msg("Readiness check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"checks": gin.H{"database": "unreachable"},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
			"checks": gin.H{"database": "ok"},
		})
	}
}

// statsHandler returns record counts
func statsHandler(services *service.Services, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := services.Stats.Counts(c.Request.Context())
		if err != nil {
			respondError(c, log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"database":  stats,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}
