package cache

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// WarmSource supplies canonical payloads for the entries the warmer
// populates. The service layer implements it on top of the repositories.
type WarmSource interface {
	AnalyticsData(ctx context.Context, userID uint, period Period) ([]byte, error)
	CategoriesData(ctx context.Context) ([]byte, error)
	TransactionsPageData(ctx context.Context, userID uint, page, perPage int) ([]byte, error)
}

// WarmResult reports the outcome for one warmed entry
type WarmResult struct {
	Entry  string `json:"entry"`
	Key    Key    `json:"key"`
	Warmed bool   `json:"warmed"`
	Error  string `json:"error,omitempty"`
}

// Warmer pre-populates a user's most requested entries so a login or a broad
// invalidation does not turn into a burst of cold misses. Entries load
// through the same path a miss takes, so warming exercises the exact
// serialization and TTL a request would.
type Warmer struct {
	cache       *Service
	source      WarmSource
	concurrency int
}

func NewWarmer(cache *Service, source WarmSource, concurrency int) *Warmer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Warmer{
		cache:       cache,
		source:      source,
		concurrency: concurrency,
	}
}

type warmEntry struct {
	name string
	key  Key
	kind EntityKind
	load Loader
}

func (w *Warmer) entries(userID uint) ([]warmEntry, error) {
	analyticsKey, err := AnalyticsKey(userID, CurrentPeriod)
	if err != nil {
		return nil, err
	}
	listKey, err := TransactionsPageKey(userID, 1, DefaultListPerPage)
	if err != nil {
		return nil, err
	}

	return []warmEntry{
		{
			name: "analytics:" + string(CurrentPeriod),
			key:  analyticsKey,
			kind: KindAnalytics,
			load: func(ctx context.Context) ([]byte, error) {
				return w.source.AnalyticsData(ctx, userID, CurrentPeriod)
			},
		},
		{
			name: "categories",
			key:  CategoriesKey(),
			kind: KindCategories,
			load: w.source.CategoriesData,
		},
		{
			name: "transactions:first-page",
			key:  listKey,
			kind: KindTransactionList,
			load: func(ctx context.Context) ([]byte, error) {
				return w.source.TransactionsPageData(ctx, userID, 1, DefaultListPerPage)
			},
		},
	}, nil
}

// Warm populates the user's common entries concurrently. One entry failing
// never stops the others; the per-entry report tells the caller which
// entries are hot. The error return covers invalid input only.
func (w *Warmer) Warm(ctx context.Context, userID uint) ([]WarmResult, error) {
	entries, err := w.entries(userID)
	if err != nil {
		return nil, err
	}

	results := make([]WarmResult, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			result := WarmResult{Entry: entry.name, Key: entry.key}
			if _, err := w.cache.GetOrLoad(gctx, entry.key, entry.kind, entry.load); err != nil {
				result.Error = err.Error()
				slog.Warn("cache warm entry failed", "user_id", userID, "entry", entry.name, "error", err)
			} else {
				result.Warmed = true
			}
			results[i] = result
			return nil
		})
	}
	// every goroutine returns nil; Wait only fences completion
	_ = g.Wait()

	slog.Info("cache warm finished", "user_id", userID, "entries", len(results), "failed", countFailed(results))

	return results, nil
}

// WarmCategories refreshes the shared categories entry if it has expired.
// The background scheduler calls this to keep the global key hot.
func (w *Warmer) WarmCategories(ctx context.Context) error {
	_, err := w.cache.GetOrLoad(ctx, CategoriesKey(), KindCategories, w.source.CategoriesData)
	return err
}

func countFailed(results []WarmResult) int {
	n := 0
	for _, r := range results {
		if !r.Warmed {
			n++
		}
	}
	return n
}
