package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"financeapi.app/cache"
	apperrors "financeapi.app/errors"
	"financeapi.app/models"
	"financeapi.app/repository"
)

type mockInvalidator struct {
	mock.Mock
}

var _ CacheInvalidatorInterface = (*mockInvalidator)(nil)

func (m *mockInvalidator) InvalidateUser(ctx context.Context, userID uint, families ...cache.Family) error {
	args := m.Called(userID, families)
	return args.Error(0)
}

func (m *mockInvalidator) InvalidateUserAnalytics(ctx context.Context, userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *mockInvalidator) InvalidateUserTransactions(ctx context.Context, userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *mockInvalidator) InvalidateCategories(ctx context.Context) {
	m.Called()
}

// seedOwnerKeys plants every cached key family for a user so invalidation
// tests can observe which entries a write removes
func seedOwnerKeys(t *testing.T, env *testEnv, userID uint) []cache.Key {
	t.Helper()

	var keys []cache.Key
	for _, period := range cache.Periods() {
		key, err := cache.AnalyticsKey(userID, period)
		require.NoError(t, err)
		keys = append(keys, key)
	}
	for page := 1; page <= 3; page++ {
		key, err := cache.TransactionsPageKey(userID, page, cache.DefaultListPerPage)
		require.NoError(t, err)
		keys = append(keys, key)
	}
	for _, key := range keys {
		require.NoError(t, env.mockRedis.Set(string(key), "cached"))
	}
	return keys
}

func TestTransactionService_Create(t *testing.T) {
	env := setupServiceTest(t)
	user := env.createUser(t, "alice@example.com")
	groceries := env.createCategory(t, "Groceries", models.KindExpense)

	t.Run("ValidRequest", func(t *testing.T) {
		transaction, err := env.transactions.Create(context.Background(), user.ID, &models.TransactionRequest{
			CategoryID:  groceries.ID,
			AmountCents: 12050,
			Note:        "  weekly shop  ",
			OccurredAt:  "2026-03-10T14:30:00Z",
		})
		require.NoError(t, err)
		assert.NotZero(t, transaction.ID)
		assert.Equal(t, user.ID, transaction.UserID)
		assert.Equal(t, int64(12050), transaction.AmountCents)
		assert.Equal(t, "weekly shop", transaction.Note, "note is trimmed")
		assert.Equal(t, "Groceries", transaction.Category.Name)
		assert.Equal(t, time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC), transaction.OccurredAt)
	})

	t.Run("DefaultsOccurredAtToNow", func(t *testing.T) {
		transaction, err := env.transactions.Create(context.Background(), user.ID, &models.TransactionRequest{
			CategoryID:  groceries.ID,
			AmountCents: 500,
		})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().UTC(), transaction.OccurredAt, 5*time.Second)
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		_, err := env.transactions.Create(context.Background(), user.ID, &models.TransactionRequest{
			CategoryID:  groceries.ID,
			AmountCents: 0,
		})
		assertErrorType(t, err, apperrors.ValidationError)
	})

	t.Run("UnknownCategory", func(t *testing.T) {
		_, err := env.transactions.Create(context.Background(), user.ID, &models.TransactionRequest{
			CategoryID:  9999,
			AmountCents: 500,
		})
		assertErrorType(t, err, apperrors.ValidationError)
	})

	t.Run("MalformedTimestamp", func(t *testing.T) {
		_, err := env.transactions.Create(context.Background(), user.ID, &models.TransactionRequest{
			CategoryID:  groceries.ID,
			AmountCents: 500,
			OccurredAt:  "10/03/2026",
		})
		assertErrorType(t, err, apperrors.ValidationError)
	})
}

func TestTransactionService_WriteInvalidatesBothFamilies(t *testing.T) {
	env := setupServiceTest(t)
	writer := env.createUser(t, "writer@example.com")
	bystander := env.createUser(t, "bystander@example.com")
	salary := env.createCategory(t, "Salary", models.KindIncome)

	assertOwnerKeysGone := func(t *testing.T, keys []cache.Key) {
		t.Helper()
		for _, key := range keys {
			assert.False(t, env.mockRedis.Exists(string(key)), "expected %s to be invalidated", key)
		}
	}
	assertKeysSurvive := func(t *testing.T, keys []cache.Key) {
		t.Helper()
		for _, key := range keys {
			assert.True(t, env.mockRedis.Exists(string(key)), "expected %s to survive", key)
		}
	}

	t.Run("Create", func(t *testing.T) {
		ownerKeys := seedOwnerKeys(t, env, writer.ID)
		otherKeys := seedOwnerKeys(t, env, bystander.ID)

		_, err := env.transactions.Create(context.Background(), writer.ID, &models.TransactionRequest{
			CategoryID:  salary.ID,
			AmountCents: 500000,
		})
		require.NoError(t, err)

		assertOwnerKeysGone(t, ownerKeys)
		assertKeysSurvive(t, otherKeys)
	})

	transaction, err := env.transactions.Create(context.Background(), writer.ID, &models.TransactionRequest{
		CategoryID:  salary.ID,
		AmountCents: 1000,
	})
	require.NoError(t, err)

	t.Run("Update", func(t *testing.T) {
		ownerKeys := seedOwnerKeys(t, env, writer.ID)

		_, err := env.transactions.Update(context.Background(), writer.ID, transaction.ID, &models.TransactionRequest{
			CategoryID:  salary.ID,
			AmountCents: 2000,
		})
		require.NoError(t, err)

		assertOwnerKeysGone(t, ownerKeys)
	})

	t.Run("Delete", func(t *testing.T) {
		ownerKeys := seedOwnerKeys(t, env, writer.ID)

		require.NoError(t, env.transactions.Delete(context.Background(), writer.ID, transaction.ID))

		assertOwnerKeysGone(t, ownerKeys)
	})
}

func TestTransactionService_InvalidationFailureDoesNotFailWrite(t *testing.T) {
	env := setupServiceTest(t)
	user := env.createUser(t, "resilient@example.com")
	groceries := env.createCategory(t, "Groceries", models.KindExpense)

	invalidator := new(mockInvalidator)
	invalidator.On("InvalidateUser", user.ID, cache.AllFamilies()).
		Return(apperrors.NewCacheError("store unreachable", nil))

	service := NewTransactionService(
		repository.NewTransactionRepository(env.db),
		repository.NewCategoryRepository(env.db),
		cache.NewService(env.store),
		invalidator,
		3,
	)

	transaction, err := service.Create(context.Background(), user.ID, &models.TransactionRequest{
		CategoryID:  groceries.ID,
		AmountCents: 4200,
	})
	require.NoError(t, err, "the canonical write must succeed even when invalidation fails")
	assert.NotZero(t, transaction.ID)
	invalidator.AssertExpectations(t)
}

func TestTransactionService_GetOwnership(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.createUser(t, "owner@example.com")
	intruder := env.createUser(t, "intruder@example.com")
	rent := env.createCategory(t, "Rent", models.KindExpense)

	transaction, err := env.transactions.Create(context.Background(), owner.ID, &models.TransactionRequest{
		CategoryID:  rent.ID,
		AmountCents: 90000,
	})
	require.NoError(t, err)

	t.Run("OwnerSeesIt", func(t *testing.T) {
		found, err := env.transactions.Get(context.Background(), owner.ID, transaction.ID)
		require.NoError(t, err)
		assert.Equal(t, transaction.ID, found.ID)
		assert.Equal(t, "Rent", found.Category.Name)
	})

	t.Run("OtherUserGetsNotFound", func(t *testing.T) {
		_, err := env.transactions.Get(context.Background(), intruder.ID, transaction.ID)
		assertErrorType(t, err, apperrors.NotFoundError)
	})

	t.Run("OtherUserCannotUpdate", func(t *testing.T) {
		_, err := env.transactions.Update(context.Background(), intruder.ID, transaction.ID, &models.TransactionRequest{
			CategoryID:  rent.ID,
			AmountCents: 1,
		})
		assertErrorType(t, err, apperrors.NotFoundError)
	})

	t.Run("OtherUserCannotDelete", func(t *testing.T) {
		err := env.transactions.Delete(context.Background(), intruder.ID, transaction.ID)
		assertErrorType(t, err, apperrors.NotFoundError)
	})

	t.Run("UnknownID", func(t *testing.T) {
		_, err := env.transactions.Get(context.Background(), owner.ID, 424242)
		assertErrorType(t, err, apperrors.NotFoundError)
	})
}

func TestTransactionService_List(t *testing.T) {
	env := setupServiceTest(t)
	user := env.createUser(t, "lister@example.com")
	groceries := env.createCategory(t, "Groceries", models.KindExpense)

	for i := 0; i < 25; i++ {
		_, err := env.transactions.Create(context.Background(), user.ID, &models.TransactionRequest{
			CategoryID:  groceries.ID,
			AmountCents: int64(100 + i),
			OccurredAt:  time.Date(2026, 1, 1+i, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
		})
		require.NoError(t, err)
	}

	t.Run("DefaultViewIsCached", func(t *testing.T) {
		before := env.collector.Snapshot()

		page, err := env.transactions.List(context.Background(), user.ID, models.TransactionFilter{Page: 1})
		require.NoError(t, err)
		assert.Len(t, page.Items, cache.DefaultListPerPage)
		assert.Equal(t, int64(25), page.Total)
		assert.Equal(t, "Groceries", page.Items[0].Category.Name)

		key, err := cache.TransactionsPageKey(user.ID, 1, cache.DefaultListPerPage)
		require.NoError(t, err)
		assert.True(t, env.mockRedis.Exists(string(key)))

		again, err := env.transactions.List(context.Background(), user.ID, models.TransactionFilter{Page: 1})
		require.NoError(t, err)
		assert.Equal(t, page.Total, again.Total)

		after := env.collector.Snapshot()
		assert.Equal(t, before.Misses+1, after.Misses, "first read misses")
		assert.Equal(t, before.Hits+1, after.Hits, "second read hits")
	})

	t.Run("NewestFirst", func(t *testing.T) {
		page, err := env.transactions.List(context.Background(), user.ID, models.TransactionFilter{Page: 1})
		require.NoError(t, err)
		assert.True(t, page.Items[0].OccurredAt.After(page.Items[1].OccurredAt))
	})

	t.Run("SecondPagePartial", func(t *testing.T) {
		page, err := env.transactions.List(context.Background(), user.ID, models.TransactionFilter{Page: 2})
		require.NoError(t, err)
		assert.Len(t, page.Items, 5)
	})

	t.Run("FilteredViewBypassesCache", func(t *testing.T) {
		keysBefore := len(env.mockRedis.Keys())

		page, err := env.transactions.List(context.Background(), user.ID, models.TransactionFilter{
			Page:       1,
			CategoryID: groceries.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(25), page.Total)
		assert.Equal(t, keysBefore, len(env.mockRedis.Keys()), "filtered views never touch the cache")
	})

	t.Run("CustomPageSizeBypassesCache", func(t *testing.T) {
		keysBefore := len(env.mockRedis.Keys())

		page, err := env.transactions.List(context.Background(), user.ID, models.TransactionFilter{
			Page:    1,
			PerPage: 10,
		})
		require.NoError(t, err)
		assert.Len(t, page.Items, 10)
		assert.Equal(t, keysBefore, len(env.mockRedis.Keys()))
	})

	t.Run("DeepPageBypassesCache", func(t *testing.T) {
		keysBefore := len(env.mockRedis.Keys())

		_, err := env.transactions.List(context.Background(), user.ID, models.TransactionFilter{Page: 9})
		require.NoError(t, err)
		assert.Equal(t, keysBefore, len(env.mockRedis.Keys()))
	})

	t.Run("CorruptCachedPageFallsBackToDatabase", func(t *testing.T) {
		key, err := cache.TransactionsPageKey(user.ID, 1, cache.DefaultListPerPage)
		require.NoError(t, err)
		require.NoError(t, env.mockRedis.Set(string(key), "{not json"))

		page, err := env.transactions.List(context.Background(), user.ID, models.TransactionFilter{Page: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(25), page.Total)
	})
}

func TestTransactionService_ListEmpty(t *testing.T) {
	env := setupServiceTest(t)
	user := env.createUser(t, "empty@example.com")

	page, err := env.transactions.List(context.Background(), user.ID, models.TransactionFilter{})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, cache.DefaultListPerPage, page.PerPage)
}
