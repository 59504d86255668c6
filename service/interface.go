package service

import (
	"context"
	"time"

	"financeapi.app/cache"
	"financeapi.app/metrics"
	"financeapi.app/models"
)

// UserRepositoryInterface defines the interface for user data operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	FindByEmail(email string) (*models.User, error)
	FindByID(id uint) (*models.User, error)
}

// SessionRepositoryInterface defines the interface for session operations
type SessionRepositoryInterface interface {
	Create(userID uint, expiresIn time.Duration) (*models.Session, error)
	FindByToken(token string) (*models.Session, error)
	DeleteByToken(token string) error
	DeleteExpired() error
}

// CategoryRepositoryInterface defines the interface for category data operations
type CategoryRepositoryInterface interface {
	FindAll() ([]models.Category, error)
	FindByID(id uint) (*models.Category, error)
	FindByName(name string) (*models.Category, error)
	Create(category *models.Category) error
	Update(category *models.Category) error
	Delete(category *models.Category) error
	CountTransactions(categoryID uint) (int64, error)
}

// TransactionRepositoryInterface defines the interface for transaction data operations
type TransactionRepositoryInterface interface {
	Create(transaction *models.Transaction) error
	FindByID(id uint) (*models.Transaction, error)
	Update(transaction *models.Transaction) error
	Delete(transaction *models.Transaction) error
	FindPage(userID uint, filter models.TransactionFilter) ([]models.Transaction, int64, error)
	SummarizeByCategory(userID uint, from, to time.Time) ([]models.CategoryTotal, error)
}

// CacheReaderInterface is the cache-aside read path used by read endpoints
type CacheReaderInterface interface {
	GetOrLoad(ctx context.Context, key cache.Key, kind cache.EntityKind, load cache.Loader) ([]byte, error)
}

// CacheInvalidatorInterface fans canonical writes out to stale cache keys
type CacheInvalidatorInterface interface {
	InvalidateUser(ctx context.Context, userID uint, families ...cache.Family) error
	InvalidateUserAnalytics(ctx context.Context, userID uint) error
	InvalidateUserTransactions(ctx context.Context, userID uint) error
	InvalidateCategories(ctx context.Context)
}

// CacheWarmerInterface pre-populates a user's common cache entries
type CacheWarmerInterface interface {
	Warm(ctx context.Context, userID uint) ([]cache.WarmResult, error)
	WarmCategories(ctx context.Context) error
}

// CacheStoreInterface exposes the operator-facing store operations
type CacheStoreInterface interface {
	Info(ctx context.Context, key string) cache.KeyInfo
	Healthy() bool
}

// AuthServiceInterface defines the interface for account and session operations
type AuthServiceInterface interface {
	Register(req *models.RegisterRequest) (*models.User, error)
	Login(req *models.LoginRequest) (*models.LoginResponse, error)
	Logout(token string) error
	Authenticate(token string) (*models.User, error)
}

// TransactionServiceInterface defines the interface for transaction operations
type TransactionServiceInterface interface {
	Create(ctx context.Context, userID uint, req *models.TransactionRequest) (*models.Transaction, error)
	Get(ctx context.Context, userID, id uint) (*models.Transaction, error)
	Update(ctx context.Context, userID, id uint, req *models.TransactionRequest) (*models.Transaction, error)
	Delete(ctx context.Context, userID, id uint) error
	List(ctx context.Context, userID uint, filter models.TransactionFilter) (*models.TransactionPage, error)
}

// CategoryServiceInterface defines the interface for category operations
type CategoryServiceInterface interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, req *models.CategoryRequest) (*models.Category, error)
	Update(ctx context.Context, id uint, req *models.CategoryRequest) (*models.Category, error)
	Delete(ctx context.Context, id uint) error
}

// AnalyticsServiceInterface defines the interface for analytics summaries
type AnalyticsServiceInterface interface {
	GetSummary(ctx context.Context, userID uint, period cache.Period) (*models.AnalyticsSummary, error)
}

// CacheAdminServiceInterface defines the operator surface of the cache layer
type CacheAdminServiceInterface interface {
	Metrics() metrics.Snapshot
	ResetMetrics()
	KeyInfo(ctx context.Context, key string) (cache.KeyInfo, error)
	WarmUser(ctx context.Context, userID uint) ([]cache.WarmResult, error)
	InvalidateUser(ctx context.Context, userID uint) error
	StoreHealthy() bool
}

// Ensure implementations satisfy interfaces
var _ AuthServiceInterface = (*AuthService)(nil)
var _ TransactionServiceInterface = (*TransactionService)(nil)
var _ CategoryServiceInterface = (*CategoryService)(nil)
var _ AnalyticsServiceInterface = (*AnalyticsService)(nil)
var _ CacheAdminServiceInterface = (*CacheAdminService)(nil)
var _ cache.WarmSource = (*CacheWarmSource)(nil)
