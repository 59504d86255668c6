// Package cache implements the cache-aside layer between request handlers
// and the canonical store: deterministic key construction, a fail-open Redis
// store adapter, TTL policy, write invalidation fan-out, and proactive
// warming. Values are opaque bytes; the layer never inspects payload shape.
package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"financeapi.app/errors"
)

// Key is a fully-built cache key: <namespace>:<owner>:<scope>[:<paramsHash>]
type Key string

// Namespace identifies one cached entity family
type Namespace string

const (
	NamespaceAnalytics    Namespace = "analytics"
	NamespaceTransactions Namespace = "transactions"
	NamespaceCategories   Namespace = "categories"
)

// globalOwner fills the owner segment for owner-less namespaces
const globalOwner = "global"

const scopeList = "list"

// DefaultListPerPage is the page size used by cached transaction list views.
// Requests with any other page size bypass the cache so invalidation can
// enumerate every cached list key.
const DefaultListPerPage = 20

func (n Namespace) valid() bool {
	switch n {
	case NamespaceAnalytics, NamespaceTransactions, NamespaceCategories:
		return true
	}
	return false
}

// requiresOwner reports whether keys in this namespace are scoped to a user
func (n Namespace) requiresOwner() bool {
	switch n {
	case NamespaceAnalytics, NamespaceTransactions:
		return true
	}
	return false
}

// Period enumerates the analytics aggregation windows. Invalidation fans out
// over this fixed set instead of relying on store-side pattern deletion.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// CurrentPeriod is the window warmed proactively after login
const CurrentPeriod = PeriodMonth

// Periods returns the fixed period enumeration
func Periods() []Period {
	return []Period{PeriodDay, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll}
}

func (p Period) valid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return true
	}
	return false
}

// ParsePeriod maps a query-string value to a Period
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.valid() {
		return "", errors.NewValidationError("period must be one of: day, week, month, year, all")
	}
	return p, nil
}

// Params holds primitive query parameters for a parameterized key. Builder
// normalization (sorted names, canonical value formatting) guarantees that
// semantically-equal parameter sets hash to the same key.
type Params map[string]any

// Build constructs a cache key from its parts. It fails with an
// INVALID_KEY_INPUT error when the namespace is unknown, the owner id is
// missing for an owner-scoped namespace (or given for a global one), or a
// parameter value is not a supported primitive.
func Build(ns Namespace, ownerID uint, scope string, params Params) (Key, error) {
	if !ns.valid() {
		return "", errors.NewInvalidKeyError(fmt.Sprintf("unknown cache namespace %q", ns))
	}

	segments := []string{string(ns)}
	if ns.requiresOwner() {
		if ownerID == 0 {
			return "", errors.NewInvalidKeyError(fmt.Sprintf("namespace %q requires an owner id", ns))
		}
		segments = append(segments, strconv.FormatUint(uint64(ownerID), 10))
	} else {
		if ownerID != 0 {
			return "", errors.NewInvalidKeyError(fmt.Sprintf("namespace %q is global and takes no owner id", ns))
		}
		segments = append(segments, globalOwner)
	}

	if scope != "" {
		segments = append(segments, scope)
	}

	if len(params) > 0 {
		hash, err := hashParams(params)
		if err != nil {
			return "", err
		}
		segments = append(segments, hash)
	}

	return Key(strings.Join(segments, ":")), nil
}

// hashParams fingerprints a parameter set deterministically: names are
// sorted, values formatted canonically, and the joined form hashed.
func hashParams(params Params) (string, error) {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		value, err := formatParam(params[name])
		if err != nil {
			return "", errors.NewInvalidKeyError(fmt.Sprintf("parameter %q: %v", name, err))
		}
		pairs = append(pairs, name+"="+value)
	}

	sum := xxhash.Sum64String(strings.Join(pairs, "&"))
	return fmt.Sprintf("%016x", sum), nil
}

func formatParam(v any) (string, error) {
	switch value := v.(type) {
	case string:
		return value, nil
	case bool:
		return strconv.FormatBool(value), nil
	case int:
		return strconv.Itoa(value), nil
	case int64:
		return strconv.FormatInt(value, 10), nil
	case uint:
		return strconv.FormatUint(uint64(value), 10), nil
	case uint64:
		return strconv.FormatUint(value, 10), nil
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("unsupported type %T", v)
}

// AnalyticsKey is the fixed recipe for a user's analytics summary of one period
func AnalyticsKey(userID uint, period Period) (Key, error) {
	if !period.valid() {
		return "", errors.NewInvalidKeyError(fmt.Sprintf("unknown analytics period %q", period))
	}
	return Build(NamespaceAnalytics, userID, string(period), nil)
}

// CategoriesKey is the fixed recipe for the shared, owner-less category list
func CategoriesKey() Key {
	return Key(string(NamespaceCategories) + ":" + globalOwner)
}

// TransactionsPageKey is the fixed recipe for one page of a user's
// transaction list view
func TransactionsPageKey(userID uint, page, perPage int) (Key, error) {
	if page < 1 || perPage < 1 {
		return "", errors.NewInvalidKeyError("transaction list page and per_page must be positive")
	}
	return Build(NamespaceTransactions, userID, scopeList, Params{
		"page":     page,
		"per_page": perPage,
	})
}
