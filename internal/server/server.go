// Package server contains HTTP and WebSocket handlers for the auction API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "auctions/docs" // swagger docs
	"auctions/internal/cache"
	"auctions/internal/config"
	"auctions/internal/database"
	"auctions/internal/middleware"
	"auctions/internal/models"
	"auctions/internal/notifications"
	"auctions/internal/repository"
	"auctions/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config           *config.Config
	db               *gorm.DB
	redis            *redis.Client
	app              *fiber.App
	promMiddleware   *fiberprometheus.FiberPrometheus
	shutdownCtx      context.Context
	shutdownFn       context.CancelFunc
	userRepo         repository.UserRepository
	auctionRepo      repository.AuctionRepository
	bidRepo          repository.BidRepository
	commentRepo      repository.CommentRepository
	watchlistRepo    repository.WatchlistRepository
	notifier         *notifications.Notifier
	hub              *notifications.Hub
	auctionService   *service.AuctionService
	commentService   *service.CommentService
	watchlistService *service.WatchlistService
	userService      *service.UserService
}

// NewServer connects to the database and Redis described by cfg and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; a nil client disables caching, rate limits and cross-instance events.
	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with SQLite and miniredis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("auctions-api"),
		userRepo:       repository.NewUserRepository(db),
		auctionRepo:    repository.NewAuctionRepository(db),
		bidRepo:        repository.NewBidRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		watchlistRepo:  repository.NewWatchlistRepository(db),
		hub:            notifications.NewHub(),
	}

	// Repositories read through the package-level cache client.
	cache.SetClient(redisClient)

	// Without Redis, events go straight to this process's hub.
	s.notifier = notifications.NewNotifier(redisClient)
	if redisClient == nil {
		s.notifier.WithLocalFallback(s.hub)
	}

	s.auctionService = service.NewAuctionService(s.auctionRepo, s.bidRepo, s.commentRepo, s.watchlistRepo, s.notifier)
	s.commentService = service.NewCommentService(s.commentRepo, s.auctionRepo, s.notifier)
	s.watchlistService = service.NewWatchlistService(s.watchlistRepo)
	s.userService = service.NewUserService(s.userRepo)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Propagate request ID and trace ID into the user context.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
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
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Accounts
	app.Post("/register", middleware.RateLimit(s.redis, middleware.RegisterLimit), s.Register)
	app.Post("/login", middleware.RateLimit(s.redis, middleware.LoginLimit), s.Login)
	app.Post("/logout", s.AuthRequired(), s.Logout)

	// Catalogue
	app.Get("/", s.Index)
	app.Get("/categories", s.GetCategories)
	app.Get("/categories/:category", s.GetCategoryListings)
	app.Post("/create", s.AuthRequired(), s.CreateListing)

	// Listings: specific /:id/:resource routes before generic /:id
	listings := app.Group("/listings")
	listings.Get("/:id/bids", s.GetBids)
	listings.Post("/:id/bids", s.AuthRequired(),
		middleware.RateLimit(s.redis, middleware.BidLimit), s.PlaceBid)
	listings.Get("/:id/comments", s.GetComments)
	listings.Post("/:id/comments", s.AuthRequired(),
		middleware.RateLimit(s.redis, middleware.CommentLimit), s.CreateComment)
	listings.Post("/:id/close", s.AuthRequired(), s.CloseListing)
	listings.Get("/:id", s.GetListing)
	listings.Post("/:id", s.AuthRequired(),
		middleware.RateLimit(s.redis, middleware.ListingActionLimit), s.PostListing)

	// Watchlist
	app.Post("/watch/:id", s.AuthRequired(), s.Watch)
	app.Post("/unwatch/:id", s.AuthRequired(), s.Unwatch)
	app.Get("/watchlist", s.AuthRequired(), s.GetWatchlist)

	// Realtime auction feed
	app.Get("/ws/listings/:id", s.websocketUpgrade, s.WebSocketAuctionHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so a missing
// client is reported but does not fail the probe.
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
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
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

// NewApp builds a Fiber app with the server's error handler, middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Auctions API",
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start wires the realtime hub and listens on the configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.redis != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring",
					slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
