// Package api wires together all HTTP routes for the Descubre Boyacá backend.
//
// Route grouping philosophy:
//   - Discovery routes (restaurant listings, menus, reviews, GraphQL reads)
//     are public so the directory can be browsed without an account.
//   - Favorites and review writes require a valid access token.
//   - Owner routes (/api/v1/owner/) additionally require an ownership
//     relation on the target restaurant, checked either by the
//     RequireRestaurantRole middleware or inside the handler for dish routes
//     whose restaurant is only known after a lookup.
//   - Admin routes (/api/v1/admin/) require the admin role and are audited
//     together with all other authenticated mutations.
package api

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/descubre-boyaca/descubre-backend/internal/api/admin"
	authapi "github.com/descubre-boyaca/descubre-backend/internal/api/auth"
	"github.com/descubre-boyaca/descubre-backend/internal/api/dishes"
	"github.com/descubre-boyaca/descubre-backend/internal/api/favorites"
	"github.com/descubre-boyaca/descubre-backend/internal/api/graphql"
	"github.com/descubre-boyaca/descubre-backend/internal/api/restaurants"
	"github.com/descubre-boyaca/descubre-backend/internal/api/reviews"
	"github.com/descubre-boyaca/descubre-backend/internal/archive"
	"github.com/descubre-boyaca/descubre-backend/internal/auth"
	"github.com/descubre-boyaca/descubre-backend/internal/auth/google"
	"github.com/descubre-boyaca/descubre-backend/internal/config"
	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
	"github.com/descubre-boyaca/descubre-backend/internal/middleware"
	"github.com/descubre-boyaca/descubre-backend/internal/ownership"
)

// BackgroundServices holds references to resources that must be stopped during
// graceful shutdown. The caller (cmd/server) is responsible for calling
// Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	rateLimiters []middleware.ClientLimiter
	redisClient  *redis.Client
}

// Shutdown stops all background goroutines. It should be called after the
// HTTP server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	if bg.redisClient != nil {
		if err := bg.redisClient.Close(); err != nil {
			slog.Error("failed to close redis client", "error", err)
		}
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	restaurantRepo := repositories.NewRestaurantRepository(db)
	dishRepo := repositories.NewDishRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)
	favoriteRepo := repositories.NewFavoriteRepository(db)
	ownershipRepo := repositories.NewOwnershipRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	// Wrap *sql.DB with sqlx for the archive repository
	sqlxDB := sqlx.NewDb(db, "postgres")
	archiveRepo := repositories.NewArchiveRepository(sqlxDB)

	archiveSvc := archive.NewService(db, archiveRepo, restaurantRepo, dishRepo, reviewRepo)
	ownershipSvc := ownership.NewService(db, ownershipRepo, restaurantRepo, dishRepo, userRepo)

	tokens, err := auth.NewTokenService(
		cfg.Auth.JWT.Secret,
		cfg.Auth.JWT.AccessTTL,
		cfg.Auth.JWT.RefreshTTL,
		!cfg.IsProduction(),
	)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	// Google login is optional. A failed discovery request must not take the
	// rest of the API down, so the provider stays nil and the redirect
	// endpoint answers 404 until the next restart.
	var googleProvider *google.Provider
	if cfg.Auth.Google.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		googleProvider, err = google.NewProvider(ctx, &google.Config{
			Enabled:      cfg.Auth.Google.Enabled,
			ClientID:     cfg.Auth.Google.ClientID,
			ClientSecret: cfg.Auth.Google.ClientSecret,
			RedirectURL:  cfg.Auth.Google.RedirectURL,
		})
		cancel()
		if err != nil {
			slog.Error("google login disabled, provider initialization failed", "error", err)
			googleProvider = nil
		} else {
			slog.Info("google login enabled")
		}
	}

	// Initialize rate limiters. With redis configured the budget is shared
	// across replicas; otherwise each process keeps its own token buckets.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		slog.Info("rate limiting backed by redis", "addr", cfg.Redis.Addr)
	}
	newLimiter := func(limitCfg middleware.RateLimitConfig) middleware.ClientLimiter {
		if redisClient != nil {
			return middleware.NewRedisLimiter(redisClient, limitCfg)
		}
		return middleware.NewRateLimiter(limitCfg)
	}

	generalCfg := middleware.DefaultRateLimitConfig()
	if cfg.Security.RateLimiting.RequestsPerMinute > 0 {
		generalCfg.RequestsPerMinute = cfg.Security.RateLimiting.RequestsPerMinute
	}
	if cfg.Security.RateLimiting.Burst > 0 {
		generalCfg.BurstSize = cfg.Security.RateLimiting.Burst
	}
	generalRateLimiter := newLimiter(generalCfg)
	authRateLimiter := newLimiter(middleware.AuthRateLimitConfig())

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORS))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Readiness check endpoint (includes redis probe when configured)
	router.GET("/ready", readinessHandler(db, redisClient))

	// API version
	router.GET("/version", versionHandler())

	// Initialize handlers
	authHandlers := authapi.NewHandlers(userRepo, tokens, googleProvider)
	restaurantHandlers := restaurants.NewHandlers(restaurantRepo, favoriteRepo, archiveSvc)
	dishHandlers := dishes.NewHandlers(dishRepo, restaurantRepo, ownershipSvc, archiveSvc)
	reviewHandlers := reviews.NewHandlers(reviewRepo, restaurantRepo, archiveSvc)
	favoriteHandlers := favorites.NewHandlers(favoriteRepo, restaurantRepo, dishRepo)
	graphqlHandler := graphql.NewHandler(restaurantRepo, dishRepo, reviewRepo)

	archiveHandlers := admin.NewArchiveHandlers(archiveSvc)
	ownerHandlers := admin.NewOwnerHandlers(ownershipSvc)
	userHandlers := admin.NewUserHandlers(db, userRepo)
	statsHandlers := admin.NewStatsHandlers(restaurantRepo, dishRepo, reviewRepo, userRepo, favoriteRepo, archiveRepo)
	auditLogHandlers := admin.NewAuditLogHandlers(auditRepo)

	apiV1 := router.Group("/api/v1")
	{
		// Public authentication endpoints (no auth required, but strictly
		// rate limited against credential stuffing)
		authGroup := apiV1.Group("/auth")
		authGroup.Use(middleware.RateLimitMiddleware(authRateLimiter))
		{
			authGroup.POST("/register", authHandlers.RegisterHandler())
			authGroup.POST("/login", authHandlers.LoginHandler())
			authGroup.POST("/refresh", authHandlers.RefreshHandler())
			authGroup.GET("/google", authHandlers.GoogleRedirectHandler())
			authGroup.GET("/google/callback", authHandlers.GoogleCallbackHandler())
		}

		// Public discovery endpoints. No auth required, but a valid bearer
		// token personalizes reads (is_favorite on restaurant detail).
		publicGroup := apiV1.Group("")
		if cfg.Security.RateLimiting.Enabled {
			publicGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
		}
		publicGroup.Use(middleware.OptionalAuthMiddleware(tokens, userRepo))
		{
			publicGroup.GET("/restaurants", restaurantHandlers.ListHandler())
			publicGroup.GET("/restaurants/:id", restaurantHandlers.GetHandler())
			publicGroup.GET("/restaurants/:id/dishes", dishHandlers.ListByRestaurantHandler())
			publicGroup.GET("/restaurants/:id/reviews", reviewHandlers.ListByRestaurantHandler())
			publicGroup.GET("/dishes/:id", dishHandlers.GetHandler())
			publicGroup.POST("/graphql", graphqlHandler.QueryHandler())
		}

		// Authenticated endpoints
		authenticatedGroup := apiV1.Group("")
		if cfg.Security.RateLimiting.Enabled {
			authenticatedGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
		}
		authenticatedGroup.Use(middleware.AuthMiddleware(tokens, userRepo))
		authenticatedGroup.Use(middleware.AuditMiddleware(auditRepo, cfg.Audit))
		{
			// Favorites (any authenticated user, own collection only)
			authenticatedGroup.POST("/favorites", favoriteHandlers.CreateHandler())
			authenticatedGroup.GET("/favorites", favoriteHandlers.ListHandler())
			authenticatedGroup.GET("/favorites/:entity_type/:entity_id", favoriteHandlers.IsFavoriteHandler())
			authenticatedGroup.DELETE("/favorites/:entity_type/:entity_id", favoriteHandlers.DeleteHandler())

			// Reviews (one per user per restaurant, author-scoped updates)
			authenticatedGroup.POST("/restaurants/:id/reviews", reviewHandlers.CreateHandler())
			authenticatedGroup.PATCH("/reviews/:id", reviewHandlers.UpdateHandler())
			authenticatedGroup.DELETE("/reviews/:id", reviewHandlers.DeleteHandler())

			// Owner endpoints. Restaurant-scoped routes are gated by the
			// ownership middleware; dish routes resolve the restaurant inside
			// the handler because the path only carries the dish id.
			ownerGroup := authenticatedGroup.Group("/owner")
			{
				ownerGroup.GET("/restaurants", restaurantHandlers.ListOwnedHandler())
				ownerGroup.PATCH("/restaurants/:id",
					middleware.RequireRestaurantRole(ownershipSvc, models.OwnershipManager, "id"),
					restaurantHandlers.UpdateHandler())
				ownerGroup.POST("/restaurants/:id/dishes",
					middleware.RequireRestaurantRole(ownershipSvc, models.OwnershipManager, "id"),
					dishHandlers.CreateHandler())
				ownerGroup.PATCH("/dishes/:id", dishHandlers.UpdateHandler())
				ownerGroup.DELETE("/dishes/:id", dishHandlers.DeleteHandler())
			}

			// Admin endpoints
			adminGroup := authenticatedGroup.Group("/admin")
			adminGroup.Use(middleware.RequireAdmin())
			{
				adminGroup.GET("/restaurants", restaurantHandlers.ListAllHandler())
				adminGroup.POST("/restaurants", restaurantHandlers.CreateHandler())
				adminGroup.PATCH("/restaurants/:id", restaurantHandlers.UpdateHandler())
				adminGroup.DELETE("/restaurants/:id", restaurantHandlers.DeleteHandler())

				adminGroup.GET("/restaurants/:id/owners", ownerHandlers.ListOwnersHandler())
				adminGroup.POST("/restaurants/:id/owners", ownerHandlers.AssignOwnerHandler())
				adminGroup.PATCH("/restaurants/:id/owners/:user_id/role", ownerHandlers.UpdateRoleHandler())
				adminGroup.POST("/restaurants/:id/owners/:user_id/transfer", ownerHandlers.TransferPrimaryHandler())
				adminGroup.DELETE("/restaurants/:id/owners/:user_id", ownerHandlers.RemoveOwnerHandler())

				adminGroup.GET("/archives", archiveHandlers.ListHandler())
				adminGroup.GET("/archives/:table/:id", archiveHandlers.GetByOriginalHandler())
				adminGroup.POST("/archives/:id/restore", archiveHandlers.RestoreHandler())
				adminGroup.DELETE("/archives/:id", archiveHandlers.HardDeleteHandler())

				adminGroup.GET("/users", userHandlers.ListUsersHandler())
				adminGroup.GET("/users/:id", userHandlers.GetUserHandler())
				adminGroup.PATCH("/users/:id/role", userHandlers.UpdateRoleHandler())
				adminGroup.DELETE("/users/:id", userHandlers.DeleteUserHandler())

				adminGroup.GET("/stats", statsHandlers.StatsHandler())
				adminGroup.GET("/audit-logs", auditLogHandlers.ListAuditLogsHandler())
			}
		}
	}

	bg := &BackgroundServices{
		rateLimiters: []middleware.ClientLimiter{generalRateLimiter, authRateLimiter},
		redisClient:  redisClient,
	}

	return router, bg
}

// @Summary      Health check
// @Description  Returns the health status of the service, including database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      Readiness check
// @Description  Returns whether the service is ready to accept traffic. Checks database and, when configured, redis connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ready: true, checks per dependency"
// @Failure      503  {object}  map[string]interface{}  "ready: false, error naming the failed dependency"
// @Router       /ready [get]
// readinessHandler returns the readiness status of the service. Unlike the
// liveness probe (/health), this also checks redis when rate limiting is
// backed by it, so a readiness gate fails before clients see shared-limit
// errors.
func readinessHandler(db *sql.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				checks["redis"] = "unhealthy"
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"ready":  false,
					"checks": checks,
					"error":  "redis not ready",
				})
				return
			}
			checks["redis"] = "healthy"
		}

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Description  Returns the current API version.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "version, api_version"
// @Router       /version [get]
// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured request logging through the process
// slog handler configured in telemetry.SetupLogger.
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		requestID, _ := c.Get(middleware.RequestIDKey)
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.Any("request_id", requestID),
			slog.String("user_agent", c.Request.UserAgent()),
		}

		level := slog.LevelInfo
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			level = slog.LevelError
		case c.Writer.Status() >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		slog.LogAttrs(c.Request.Context(), level, "http request", attrs...)
	}
}
