package service

import (
	"context"
	"log"

	"financeapi.app/cache"
	"financeapi.app/errors"
	"financeapi.app/metrics"
)

// CacheAdminService is the operator surface of the cache layer: metrics
// snapshots, key inspection, manual warming and invalidation
type CacheAdminService struct {
	store       CacheStoreInterface
	collector   *metrics.CacheCollector
	invalidator CacheInvalidatorInterface
	warmer      CacheWarmerInterface
}

// NewCacheAdminService creates a new cache admin service
func NewCacheAdminService(
	store CacheStoreInterface,
	collector *metrics.CacheCollector,
	invalidator CacheInvalidatorInterface,
	warmer CacheWarmerInterface,
) *CacheAdminService {
	return &CacheAdminService{
		store:       store,
		collector:   collector,
		invalidator: invalidator,
		warmer:      warmer,
	}
}

// Metrics returns the current cache counter snapshot
func (s *CacheAdminService) Metrics() metrics.Snapshot {
	return s.collector.Snapshot()
}

// ResetMetrics zeroes the snapshot counters
func (s *CacheAdminService) ResetMetrics() {
	s.collector.Reset()
	log.Println("[DEBUG] Cache metrics counters reset")
}

// KeyInfo inspects a literal cache key
func (s *CacheAdminService) KeyInfo(ctx context.Context, key string) (cache.KeyInfo, error) {
	if key == "" {
		return cache.KeyInfo{}, errors.NewInvalidKeyError("cache key is required")
	}
	return s.store.Info(ctx, key), nil
}

// WarmUser pre-populates the user's common cache entries
func (s *CacheAdminService) WarmUser(ctx context.Context, userID uint) ([]cache.WarmResult, error) {
	return s.warmer.Warm(ctx, userID)
}

// InvalidateUser drops every cached entry in all of the user's key families
func (s *CacheAdminService) InvalidateUser(ctx context.Context, userID uint) error {
	return s.invalidator.InvalidateUser(ctx, userID, cache.AllFamilies()...)
}

// StoreHealthy reports the store connection monitor's last view
func (s *CacheAdminService) StoreHealthy() bool {
	return s.store.Healthy()
}
