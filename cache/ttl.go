package cache

import "time"

// EntityKind classifies a cached value for TTL policy lookup
type EntityKind string

const (
	KindAnalytics       EntityKind = "analytics"
	KindTransactionList EntityKind = "transaction-list"
	KindCategories      EntityKind = "categories"
)

// TTLs bound staleness per entity class: categories change rarely and tolerate
// hours, derived analytics go stale with every write and tolerate minutes,
// list views sit in between.
const (
	analyticsTTL       = 15 * time.Minute
	transactionListTTL = 30 * time.Minute
	categoriesTTL      = 6 * time.Hour

	// defaultTTL caps staleness for kinds the policy table does not know
	defaultTTL = time.Minute
)

var ttlByKind = map[EntityKind]time.Duration{
	KindAnalytics:       analyticsTTL,
	KindTransactionList: transactionListTTL,
	KindCategories:      categoriesTTL,
}

// TTLFor returns the expiry for an entity kind. Unknown kinds fall back to
// the short default instead of failing; a missing policy entry must never
// block a request or produce a long-lived entry.
func TTLFor(kind EntityKind) time.Duration {
	if ttl, ok := ttlByKind[kind]; ok {
		return ttl
	}
	return defaultTTL
}
