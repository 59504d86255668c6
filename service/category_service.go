package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"financeapi.app/cache"
	"financeapi.app/errors"
	"financeapi.app/models"
	"financeapi.app/pkg/validation"
)

// CategoryService handles the shared category catalog. Reads go through the
// global cache entry; administrative writes invalidate it.
type CategoryService struct {
	categoryRepo CategoryRepositoryInterface
	cache        CacheReaderInterface
	invalidator  CacheInvalidatorInterface
}

// NewCategoryService creates a new category service
func NewCategoryService(
	categoryRepo CategoryRepositoryInterface,
	cacheReader CacheReaderInterface,
	invalidator CacheInvalidatorInterface,
) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		cache:        cacheReader,
		invalidator:  invalidator,
	}
}

// List returns every category through the shared owner-less cache entry
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	data, err := s.cache.GetOrLoad(ctx, cache.CategoriesKey(), cache.KindCategories, func(ctx context.Context) ([]byte, error) {
		return s.categoriesBytes()
	})
	if err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		log.Printf("[ERROR] Corrupt cached category list, reloading: %v\n", err)
		return s.loadCategories()
	}
	return categories, nil
}

// Create adds a category to the shared catalog
func (s *CategoryService) Create(ctx context.Context, req *models.CategoryRequest) (*models.Category, error) {
	name, kind, err := validateCategoryRequest(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.categoryRepo.FindByName(name)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to check existing category", err)
	}
	if existing != nil {
		return nil, errors.NewAlreadyExistsError("category already exists")
	}

	category := &models.Category{Name: name, Kind: kind}
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, errors.NewDatabaseError("failed to create category", err)
	}

	s.invalidator.InvalidateCategories(ctx)
	return category, nil
}

// Update renames or reclassifies a category
func (s *CategoryService) Update(ctx context.Context, id uint, req *models.CategoryRequest) (*models.Category, error) {
	name, kind, err := validateCategoryRequest(req)
	if err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to load category", err)
	}
	if category == nil {
		return nil, errors.NewNotFoundError("category not found")
	}

	clash, err := s.categoryRepo.FindByName(name)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to check category name", err)
	}
	if clash != nil && clash.ID != category.ID {
		return nil, errors.NewAlreadyExistsError("category name already in use")
	}

	category.Name = name
	category.Kind = kind
	if err := s.categoryRepo.Update(category); err != nil {
		return nil, errors.NewDatabaseError("failed to update category", err)
	}

	s.invalidator.InvalidateCategories(ctx)
	return category, nil
}

// Delete removes an unused category from the catalog
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		return errors.NewDatabaseError("failed to load category", err)
	}
	if category == nil {
		return errors.NewNotFoundError("category not found")
	}

	count, err := s.categoryRepo.CountTransactions(category.ID)
	if err != nil {
		return errors.NewDatabaseError("failed to check category usage", err)
	}
	if count > 0 {
		return errors.NewValidationError("category is referenced by transactions")
	}

	if err := s.categoryRepo.Delete(category); err != nil {
		return errors.NewDatabaseError("failed to delete category", err)
	}

	s.invalidator.InvalidateCategories(ctx)
	return nil
}

func (s *CategoryService) loadCategories() ([]models.Category, error) {
	categories, err := s.categoryRepo.FindAll()
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list categories", err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func (s *CategoryService) categoriesBytes() ([]byte, error) {
	categories, err := s.loadCategories()
	if err != nil {
		return nil, err
	}
	return json.Marshal(categories)
}

func validateCategoryRequest(req *models.CategoryRequest) (name, kind string, err error) {
	name = strings.TrimSpace(req.Name)
	if name == "" {
		return "", "", errors.NewValidationError("category name is required")
	}
	kind = strings.ToLower(strings.TrimSpace(req.Kind))
	if !validation.IsValidCategoryKind(kind) {
		return "", "", errors.NewValidationError("category kind must be 'income' or 'expense'")
	}
	return name, kind, nil
}
