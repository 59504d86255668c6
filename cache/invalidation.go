package cache

import (
	"context"
	"log/slog"

	"financeapi.app/errors"
)

// Family groups the keys that go stale together when one entity class is
// written. A transaction write invalidates both per-user families: the list
// view it appears in and every analytics window derived from it.
type Family string

const (
	FamilyAnalytics    Family = "analytics"
	FamilyTransactions Family = "transactions"
)

// AllFamilies returns every per-user family, used for a full user reset
func AllFamilies() []Family {
	return []Family{FamilyAnalytics, FamilyTransactions}
}

// Invalidator fans canonical writes out to the cache keys they make stale.
// The store offers no pattern deletion, so every family expands to a fixed,
// explicit key enumeration.
type Invalidator struct {
	store     *Store
	listPages int
}

// NewInvalidator builds the coordinator. listPages is how many leading pages
// of the default transaction list view are cached and therefore enumerated.
func NewInvalidator(store *Store, listPages int) *Invalidator {
	if listPages < 1 {
		listPages = 1
	}
	return &Invalidator{
		store:     store,
		listPages: listPages,
	}
}

// ListPages reports how many leading list pages are cache-eligible
func (inv *Invalidator) ListPages() int {
	return inv.listPages
}

// InvalidateUser removes every key in the given families for one user.
// Absent keys delete as no-ops, so calling this twice is harmless. Keys a
// degraded store fails to delete are logged and left to expire by TTL; the
// call still succeeds because the canonical write already happened.
func (inv *Invalidator) InvalidateUser(ctx context.Context, userID uint, families ...Family) error {
	if userID == 0 {
		return errors.NewInvalidKeyError("cache invalidation requires an owner id")
	}

	var keys []Key
	for _, family := range families {
		keys = append(keys, inv.expand(family, userID)...)
	}

	if failed := inv.store.DeleteMany(ctx, keys); len(failed) > 0 {
		slog.Warn("partial cache invalidation, stale keys bounded by TTL",
			"user_id", userID, "failed", len(failed), "keys", failed)
	}
	return nil
}

// InvalidateUserAnalytics drops every analytics window for the user
func (inv *Invalidator) InvalidateUserAnalytics(ctx context.Context, userID uint) error {
	return inv.InvalidateUser(ctx, userID, FamilyAnalytics)
}

// InvalidateUserTransactions drops the user's cached list view pages
func (inv *Invalidator) InvalidateUserTransactions(ctx context.Context, userID uint) error {
	return inv.InvalidateUser(ctx, userID, FamilyTransactions)
}

// InvalidateCategories drops the shared category list after an
// administrative category write
func (inv *Invalidator) InvalidateCategories(ctx context.Context) {
	if failed := inv.store.DeleteMany(ctx, []Key{CategoriesKey()}); len(failed) > 0 {
		slog.Warn("categories cache invalidation failed, stale entry bounded by TTL")
	}
}

// expand lists the concrete keys for one family and user
func (inv *Invalidator) expand(family Family, userID uint) []Key {
	switch family {
	case FamilyAnalytics:
		keys := make([]Key, 0, len(Periods()))
		for _, period := range Periods() {
			key, err := AnalyticsKey(userID, period)
			if err != nil {
				continue
			}
			keys = append(keys, key)
		}
		return keys
	case FamilyTransactions:
		keys := make([]Key, 0, inv.listPages)
		for page := 1; page <= inv.listPages; page++ {
			key, err := TransactionsPageKey(userID, page, DefaultListPerPage)
			if err != nil {
				continue
			}
			keys = append(keys, key)
		}
		return keys
	}

	slog.Warn("unknown cache family, nothing to invalidate", "family", family)
	return nil
}
