package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"financeapi.app/cache"
	"financeapi.app/errors"
	"financeapi.app/models"
)

// AnalyticsService derives per-user income and spending summaries. The
// aggregation query is the most expensive read in the system, so summaries
// are served through the cache with a short TTL.
type AnalyticsService struct {
	transactionRepo TransactionRepositoryInterface
	cache           CacheReaderInterface
	now             func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(transactionRepo TransactionRepositoryInterface, cacheReader CacheReaderInterface) *AnalyticsService {
	return &AnalyticsService{
		transactionRepo: transactionRepo,
		cache:           cacheReader,
		now:             time.Now,
	}
}

// GetSummary returns the user's aggregation for one period window
func (s *AnalyticsService) GetSummary(ctx context.Context, userID uint, period cache.Period) (*models.AnalyticsSummary, error) {
	key, err := cache.AnalyticsKey(userID, period)
	if err != nil {
		return nil, err
	}

	data, err := s.cache.GetOrLoad(ctx, key, cache.KindAnalytics, func(ctx context.Context) ([]byte, error) {
		return s.summaryBytes(userID, period)
	})
	if err != nil {
		return nil, err
	}

	var summary models.AnalyticsSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		log.Printf("[ERROR] Corrupt cached analytics summary, recomputing: %v\n", err)
		return s.buildSummary(userID, period)
	}
	return &summary, nil
}

func (s *AnalyticsService) summaryBytes(userID uint, period cache.Period) ([]byte, error) {
	summary, err := s.buildSummary(userID, period)
	if err != nil {
		return nil, err
	}
	return json.Marshal(summary)
}

func (s *AnalyticsService) buildSummary(userID uint, period cache.Period) (*models.AnalyticsSummary, error) {
	now := s.now().UTC()
	from, to := periodWindow(period, now)

	totals, err := s.transactionRepo.SummarizeByCategory(userID, from, to)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to summarize transactions", err)
	}
	if totals == nil {
		totals = []models.CategoryTotal{}
	}

	summary := &models.AnalyticsSummary{
		Period:      string(period),
		From:        from,
		To:          to,
		ByCategory:  totals,
		GeneratedAt: now,
	}
	for _, total := range totals {
		switch total.Kind {
		case models.KindIncome:
			summary.TotalIncomeCents += total.TotalCents
		case models.KindExpense:
			summary.TotalExpenseCents += total.TotalCents
		}
	}
	summary.NetCents = summary.TotalIncomeCents - summary.TotalExpenseCents

	return summary, nil
}

// periodWindow returns the UTC half-open interval [from, to) for a period.
// The "all" period returns zero bounds, leaving the window open on both sides.
func periodWindow(period cache.Period, now time.Time) (from, to time.Time) {
	switch period {
	case cache.PeriodDay:
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 0, 1)
	case cache.PeriodWeek:
		// weeks start on Monday
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1-weekday)
		return from, from.AddDate(0, 0, 7)
	case cache.PeriodMonth:
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0)
	case cache.PeriodYear:
		from = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0)
	}
	return time.Time{}, time.Time{}
}
