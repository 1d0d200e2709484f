// Package server contains the HTTP handlers for the gallery API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"promptgallery/internal/cache"
	"promptgallery/internal/config"
	"promptgallery/internal/database"
	"promptgallery/internal/experience"
	"promptgallery/internal/featureflags"
	"promptgallery/internal/middleware"
	"promptgallery/internal/models"
	"promptgallery/internal/notifications"
	"promptgallery/internal/repository"
	"promptgallery/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "gallery-api"
	tokenAudience = "gallery-client"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	profileRepo    repository.ProfileRepository
	imageRepo      repository.ImageRepository
	commentRepo    repository.CommentRepository
	categoryRepo   repository.CategoryRepository
	tierRepo       repository.RankTierRepository
	notifier       *notifications.Notifier
	featureFlags   *featureflags.Manager
	tracker        *experience.Tracker
	rankSvc        *service.RankService
	leaderboardSvc *service.LeaderboardService
	profileSvc     *service.ProfileService
	imageSvc       *service.ImageService
}

// NewServer connects to the database and Redis and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// performs explicit seeding. redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("gallery-api"),
		profileRepo:    repository.NewProfileRepository(db),
		imageRepo:      repository.NewImageRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		categoryRepo:   repository.NewCategoryRepository(db),
		tierRepo:       repository.NewRankTierRepository(db),
		notifier:       notifications.NewNotifier(redisClient),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	var mirror experience.Mirror
	if redisClient != nil {
		mirror = cache.NewExpMirror(redisClient)
	}
	s.tracker = experience.NewTracker(s.profileRepo, mirror, s.notifier)

	s.rankSvc = service.NewRankService(s.tierRepo, s.profileRepo, s.imageRepo, s.tracker, cfg.RankTiersFile)
	s.leaderboardSvc = service.NewLeaderboardService(s.profileRepo, s.imageRepo, s.rankSvc, cfg.ScoreWeights())
	s.profileSvc = service.NewProfileService(s.profileRepo, s.tracker)
	s.imageSvc = service.NewImageService(s.imageRepo, s.commentRepo, s.categoryRepo, s.profileRepo, s.tracker)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.rankSvc.Reload(ctx); err != nil {
		slog.Warn("starting with built-in rank tiers", slog.String("error", err.Error()))
	}

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Prompt Gallery Metrics",
	}))

	auth := s.AuthRequired()
	admin := s.AdminRequired()

	api.Post("/auth/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	api.Get("/leaderboard", s.GetLeaderboard)

	ranks := api.Group("/ranks")
	ranks.Get("/", s.GetRanks)
	ranks.Put("/", auth, admin, s.ReplaceRanks)

	// Specific /me routes before generic /:id routes.
	users := api.Group("/users")
	users.Get("/", s.GetUsers)
	users.Get("/me/progress", auth, s.GetMyProgress)
	users.Put("/me", auth, s.UpdateMyProfile)
	users.Get("/:id/rank", s.GetUserRank)
	users.Get("/:id/images", s.GetUserImages)
	users.Get("/:id", s.GetUser)
	users.Put("/:id", auth, admin, s.AdminUpdateUser)

	api.Post("/exp/tick", auth, s.IdleTick)

	images := api.Group("/images")
	images.Get("/", s.GetImages)
	images.Post("/", auth, middleware.RateLimit(s.redis, 10, time.Minute, "create_image"), s.CreateImage)
	images.Post("/:id/like", auth, s.ToggleLike)
	images.Post("/:id/view", middleware.RateLimit(s.redis, 60, time.Minute, "image_view"), s.RecordView)
	images.Get("/:id/comments", s.GetComments)
	images.Post("/:id/comments", auth, middleware.RateLimit(s.redis, 5, time.Minute, "create_comment"), s.CreateComment)
	images.Get("/:id", s.GetImage)
	images.Put("/:id", auth, s.UpdateImage)
	images.Delete("/:id", auth, s.DeleteImage)

	categories := api.Group("/categories")
	categories.Get("/", s.GetCategories)
	categories.Post("/", auth, admin, s.CreateCategory)
	categories.Put("/:id", auth, admin, s.RenameCategory)
	categories.Delete("/:id", auth, admin, s.DeleteCategory)

	api.Get("/feature-flags", auth, s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional: the
// gallery degrades to in-process caches without it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.profileRepo.GetByID(c.UserContext(), currentUserID(c))
		if err != nil {
			if models.IsNotFound(err) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Unknown user"))
			}
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !user.IsAdmin() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := ""
		if parts := strings.Split(c.Get("Authorization"), " "); len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		userID, err := s.parseToken(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		c.Locals("userID", userID)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}

func (s *Server) parseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", models.NewUnauthorizedError("Invalid or expired token")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return "", models.NewUnauthorizedError("Invalid subject claim")
	}
	return sub, nil
}

// App builds the Fiber app with middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Prompt Gallery API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			slog.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.App()

	if s.redis != nil && !s.config.IsProduction() {
		err := s.notifier.StartPatternSubscriber(s.shutdownCtx, func(channel, payload string) {
			slog.Debug("notification delivered", slog.String("channel", channel), slog.String("payload", payload))
		})
		if err != nil {
			slog.Warn("notification subscriber not started", slog.String("error", err.Error()))
		}
	}

	slog.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			slog.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			slog.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	slog.Info("server shutdown complete")
	return nil
}
