package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
	"financeapi.app/config"
	financeerr "financeapi.app/errors"
	"financeapi.app/models"
	"financeapi.app/pkg/validation"
	"financeapi.app/service"
)

// Server represents the HTTP server and API handler
type Server struct {
	router             *gin.Engine
	db                 *gorm.DB
	config             *config.Config
	authService        service.AuthServiceInterface
	transactionService service.TransactionServiceInterface
	categoryService    service.CategoryServiceInterface
	analyticsService   service.AnalyticsServiceInterface
	cacheAdminService  service.CacheAdminServiceInterface
	limiter            *ipLimiter
}

// ServerOptions represents options for creating the HTTP server
type ServerOptions struct {
	DB                 *gorm.DB
	Config             *config.Config
	AuthService        service.AuthServiceInterface
	TransactionService service.TransactionServiceInterface
	CategoryService    service.CategoryServiceInterface
	AnalyticsService   service.AnalyticsServiceInterface
	CacheAdminService  service.CacheAdminServiceInterface
}

// Validate checks if all required dependencies are provided
func (opts *ServerOptions) Validate() error {
	if opts.Config == nil {
		return financeerr.NewValidationError("config is required")
	}
	if opts.AuthService == nil {
		return financeerr.NewValidationError("auth service is required")
	}
	if opts.TransactionService == nil {
		return financeerr.NewValidationError("transaction service is required")
	}
	if opts.CategoryService == nil {
		return financeerr.NewValidationError("category service is required")
	}
	if opts.AnalyticsService == nil {
		return financeerr.NewValidationError("analytics service is required")
	}
	if opts.CacheAdminService == nil {
		return financeerr.NewValidationError("cache admin service is required")
	}
	return nil
}

// validateCategoryKind validates the category kind enum value
func validateCategoryKind(fl validator.FieldLevel) bool {
	return validation.IsValidCategoryKind(strings.ToLower(fl.Field().String()))
}

// NewServer creates and configures a new HTTP server
func NewServer(opts ServerOptions) (*Server, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server options: %w", err)
	}

	// Register custom validator for the category kind enum
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("categorykind", validateCategoryKind); err != nil {
			slog.Warn("Failed to register category kind validator", "error", err)
		}
	}

	router := gin.Default()

	server := &Server{
		router:             router,
		db:                 opts.DB,
		config:             opts.Config,
		authService:        opts.AuthService,
		transactionService: opts.TransactionService,
		categoryService:    opts.CategoryService,
		analyticsService:   opts.AnalyticsService,
		cacheAdminService:  opts.CacheAdminService,
	}
	if opts.Config.RateLimit.Enabled {
		server.limiter = newIPLimiter(opts.Config.RateLimit.RPS, opts.Config.RateLimit.Burst)
	}

	server.setupRoutes()
	return server, nil
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	if s.limiter != nil {
		api.Use(s.rateLimit)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/register", s.register)
		auth.POST("/login", s.login)
		auth.POST("/logout", s.requireAuth, s.logout)
	}

	authed := api.Group("", s.requireAuth)
	{
		authed.GET("/transactions", s.listTransactions)
		authed.POST("/transactions", s.createTransaction)
		authed.GET("/transactions/:id", s.getTransaction)
		authed.PUT("/transactions/:id", s.updateTransaction)
		authed.DELETE("/transactions/:id", s.deleteTransaction)

		authed.GET("/categories", s.listCategories)
		authed.POST("/categories", s.requireAdmin, s.createCategory)
		authed.PUT("/categories/:id", s.requireAdmin, s.updateCategory)
		authed.DELETE("/categories/:id", s.requireAdmin, s.deleteCategory)

		authed.GET("/analytics", s.getAnalytics)

		cacheAdmin := authed.Group("/cache")
		{
			cacheAdmin.GET("/metrics", s.requireAdmin, s.cacheMetrics)
			cacheAdmin.POST("/metrics/reset", s.requireAdmin, s.resetCacheMetrics)
			cacheAdmin.GET("/info/:key", s.requireAdmin, s.cacheKeyInfo)
			cacheAdmin.POST("/warm/:userId", s.requireSelfOrAdmin, s.warmUserCache)
			cacheAdmin.DELETE("/user/:userId", s.requireSelfOrAdmin, s.invalidateUserCache)
		}
	}

	api.GET("/health", s.health)

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Start begins the HTTP server
func (s *Server) Start() error {
	return s.router.Run(fmt.Sprintf(":%d", s.config.Server.Port))
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// health reports component status. A down cache store does not fail the
// check; reads fall through to the database, so the service is degraded
// but serving.
func (s *Server) health(c *gin.Context) {
	dbHealthy := false
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil && sqlDB.Ping() == nil {
			dbHealthy = true
		}
	}
	cacheHealthy := s.cacheAdminService.StoreHealthy()

	status := http.StatusOK
	overall := "ok"
	if !cacheHealthy {
		overall = "degraded"
	}
	if !dbHealthy {
		status = http.StatusServiceUnavailable
		overall = "down"
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"database": dbHealthy,
		"cache":    cacheHealthy,
	})
}

// handleError handles different types of application errors
func (s *Server) handleError(c *gin.Context, err error) {
	var appErr *financeerr.AppError
	var statusCode int
	var message string

	if errors.As(err, &appErr) {
		switch appErr.Type {
		case financeerr.ValidationError, financeerr.InvalidKeyError:
			statusCode = http.StatusBadRequest
			message = appErr.Message
		case financeerr.UnauthorizedError:
			statusCode = http.StatusUnauthorized
			message = appErr.Message
		case financeerr.ForbiddenError:
			statusCode = http.StatusForbidden
			message = appErr.Message
		case financeerr.NotFoundError:
			statusCode = http.StatusNotFound
			message = appErr.Message
		case financeerr.AlreadyExistsError:
			statusCode = http.StatusConflict
			message = appErr.Message
		case financeerr.RateLimitError:
			statusCode = http.StatusTooManyRequests
			message = appErr.Message
		case financeerr.CacheError:
			statusCode = http.StatusServiceUnavailable
			message = "Cache service unavailable"
		case financeerr.DatabaseError:
			statusCode = http.StatusInternalServerError
			message = "Internal server error"
		default:
			statusCode = http.StatusInternalServerError
			message = "Internal server error"
		}
	} else {
		statusCode = http.StatusInternalServerError
		message = "Internal server error"
	}

	c.JSON(statusCode, models.ErrorResponse{Error: message})
}
