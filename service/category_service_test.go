package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"financeapi.app/cache"
	apperrors "financeapi.app/errors"
	"financeapi.app/models"
)

func TestCategoryService_List(t *testing.T) {
	env := setupServiceTest(t)
	env.createCategory(t, "Salary", models.KindIncome)
	env.createCategory(t, "Groceries", models.KindExpense)

	before := env.collector.Snapshot()

	categories, err := env.categories.List(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Groceries", categories[0].Name, "sorted by name")
	assert.Equal(t, "Salary", categories[1].Name)
	assert.True(t, env.mockRedis.Exists(string(cache.CategoriesKey())))

	again, err := env.categories.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, again, 2)

	after := env.collector.Snapshot()
	assert.Equal(t, before.Misses+1, after.Misses)
	assert.Equal(t, before.Hits+1, after.Hits)
}

func TestCategoryService_Create(t *testing.T) {
	env := setupServiceTest(t)

	t.Run("ValidRequest", func(t *testing.T) {
		require.NoError(t, env.mockRedis.Set(string(cache.CategoriesKey()), "cached"))

		category, err := env.categories.Create(context.Background(), &models.CategoryRequest{
			Name: "  Transport ",
			Kind: "EXPENSE",
		})
		require.NoError(t, err)
		assert.NotZero(t, category.ID)
		assert.Equal(t, "Transport", category.Name, "name is trimmed")
		assert.Equal(t, models.KindExpense, category.Kind, "kind is normalized")
		assert.False(t, env.mockRedis.Exists(string(cache.CategoriesKey())), "catalog entry is invalidated")
	})

	t.Run("DuplicateName", func(t *testing.T) {
		_, err := env.categories.Create(context.Background(), &models.CategoryRequest{
			Name: "Transport",
			Kind: models.KindExpense,
		})
		assertErrorType(t, err, apperrors.AlreadyExistsError)
	})

	t.Run("EmptyName", func(t *testing.T) {
		_, err := env.categories.Create(context.Background(), &models.CategoryRequest{
			Name: "   ",
			Kind: models.KindExpense,
		})
		assertErrorType(t, err, apperrors.ValidationError)
	})

	t.Run("UnknownKind", func(t *testing.T) {
		_, err := env.categories.Create(context.Background(), &models.CategoryRequest{
			Name: "Stocks",
			Kind: "investment",
		})
		assertErrorType(t, err, apperrors.ValidationError)
	})
}

func TestCategoryService_Update(t *testing.T) {
	env := setupServiceTest(t)
	rent := env.createCategory(t, "Rent", models.KindExpense)
	env.createCategory(t, "Salary", models.KindIncome)

	t.Run("Rename", func(t *testing.T) {
		require.NoError(t, env.mockRedis.Set(string(cache.CategoriesKey()), "cached"))

		updated, err := env.categories.Update(context.Background(), rent.ID, &models.CategoryRequest{
			Name: "Housing",
			Kind: models.KindExpense,
		})
		require.NoError(t, err)
		assert.Equal(t, "Housing", updated.Name)
		assert.False(t, env.mockRedis.Exists(string(cache.CategoriesKey())))
	})

	t.Run("KeepOwnName", func(t *testing.T) {
		updated, err := env.categories.Update(context.Background(), rent.ID, &models.CategoryRequest{
			Name: "Housing",
			Kind: models.KindExpense,
		})
		require.NoError(t, err)
		assert.Equal(t, "Housing", updated.Name)
	})

	t.Run("NameTakenByAnother", func(t *testing.T) {
		_, err := env.categories.Update(context.Background(), rent.ID, &models.CategoryRequest{
			Name: "Salary",
			Kind: models.KindExpense,
		})
		assertErrorType(t, err, apperrors.AlreadyExistsError)
	})

	t.Run("UnknownID", func(t *testing.T) {
		_, err := env.categories.Update(context.Background(), 9999, &models.CategoryRequest{
			Name: "Ghost",
			Kind: models.KindExpense,
		})
		assertErrorType(t, err, apperrors.NotFoundError)
	})
}

func TestCategoryService_Delete(t *testing.T) {
	env := setupServiceTest(t)
	user := env.createUser(t, "spender@example.com")
	unused := env.createCategory(t, "Unused", models.KindExpense)
	groceries := env.createCategory(t, "Groceries", models.KindExpense)

	_, err := env.transactions.Create(context.Background(), user.ID, &models.TransactionRequest{
		CategoryID:  groceries.ID,
		AmountCents: 100,
	})
	require.NoError(t, err)

	t.Run("UnusedCategory", func(t *testing.T) {
		require.NoError(t, env.mockRedis.Set(string(cache.CategoriesKey()), "cached"))

		require.NoError(t, env.categories.Delete(context.Background(), unused.ID))
		assert.False(t, env.mockRedis.Exists(string(cache.CategoriesKey())))

		categories, err := env.categories.List(context.Background())
		require.NoError(t, err)
		for _, category := range categories {
			assert.NotEqual(t, "Unused", category.Name)
		}
	})

	t.Run("ReferencedCategory", func(t *testing.T) {
		err := env.categories.Delete(context.Background(), groceries.ID)
		assertErrorType(t, err, apperrors.ValidationError)
	})

	t.Run("UnknownID", func(t *testing.T) {
		err := env.categories.Delete(context.Background(), 9999)
		assertErrorType(t, err, apperrors.NotFoundError)
	})
}
