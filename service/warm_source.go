package service

import (
	"context"

	"financeapi.app/cache"
	"financeapi.app/models"
)

// CacheWarmSource feeds the warmer from the same load paths a cache miss
// uses, so warmed entries are byte-identical to miss-populated ones
type CacheWarmSource struct {
	analytics    *AnalyticsService
	categories   *CategoryService
	transactions *TransactionService
}

// NewCacheWarmSource creates the warmer's canonical data source
func NewCacheWarmSource(
	analytics *AnalyticsService,
	categories *CategoryService,
	transactions *TransactionService,
) *CacheWarmSource {
	return &CacheWarmSource{
		analytics:    analytics,
		categories:   categories,
		transactions: transactions,
	}
}

// AnalyticsData computes the serialized summary for one period
func (s *CacheWarmSource) AnalyticsData(ctx context.Context, userID uint, period cache.Period) ([]byte, error) {
	return s.analytics.summaryBytes(userID, period)
}

// CategoriesData loads the serialized shared category list
func (s *CacheWarmSource) CategoriesData(ctx context.Context) ([]byte, error) {
	return s.categories.categoriesBytes()
}

// TransactionsPageData loads one serialized page of the default list view
func (s *CacheWarmSource) TransactionsPageData(ctx context.Context, userID uint, page, perPage int) ([]byte, error) {
	return s.transactions.pageBytes(userID, models.TransactionFilter{Page: page, PerPage: perPage})
}
