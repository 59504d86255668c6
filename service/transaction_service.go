package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"financeapi.app/cache"
	"financeapi.app/errors"
	"financeapi.app/models"
)

// maxPerPage caps page sizes so one request cannot drag the whole table
const maxPerPage = 100

// TransactionService handles transaction business logic. Every successful
// write invalidates both of the owner's cache key families: the list view
// the transaction appears in and every analytics window derived from it.
type TransactionService struct {
	transactionRepo TransactionRepositoryInterface
	categoryRepo    CategoryRepositoryInterface
	cache           CacheReaderInterface
	invalidator     CacheInvalidatorInterface
	listPages       int
}

// NewTransactionService creates a new transaction service. listPages is how
// many leading pages of the default list view are cached.
func NewTransactionService(
	transactionRepo TransactionRepositoryInterface,
	categoryRepo CategoryRepositoryInterface,
	cacheReader CacheReaderInterface,
	invalidator CacheInvalidatorInterface,
	listPages int,
) *TransactionService {
	if listPages < 1 {
		listPages = 1
	}
	return &TransactionService{
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		cache:           cacheReader,
		invalidator:     invalidator,
		listPages:       listPages,
	}
}

// Create records a new transaction for the user
func (s *TransactionService) Create(ctx context.Context, userID uint, req *models.TransactionRequest) (*models.Transaction, error) {
	log.Printf("[DEBUG] TransactionService.Create called for user %d\n", userID)

	category, occurredAt, err := s.validateRequest(req)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:      userID,
		CategoryID:  category.ID,
		AmountCents: req.AmountCents,
		Note:        strings.TrimSpace(req.Note),
		OccurredAt:  occurredAt,
	}
	if err := s.transactionRepo.Create(transaction); err != nil {
		return nil, errors.NewDatabaseError("failed to create transaction", err)
	}
	transaction.Category = *category

	s.invalidateAfterWrite(ctx, userID)
	return transaction, nil
}

// Get retrieves one of the user's transactions
func (s *TransactionService) Get(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	return s.findOwned(userID, id)
}

// Update modifies one of the user's transactions
func (s *TransactionService) Update(ctx context.Context, userID, id uint, req *models.TransactionRequest) (*models.Transaction, error) {
	transaction, err := s.findOwned(userID, id)
	if err != nil {
		return nil, err
	}

	category, occurredAt, err := s.validateRequest(req)
	if err != nil {
		return nil, err
	}

	transaction.CategoryID = category.ID
	// clear the preloaded association so Save only touches the row
	transaction.Category = models.Category{}
	transaction.AmountCents = req.AmountCents
	transaction.Note = strings.TrimSpace(req.Note)
	transaction.OccurredAt = occurredAt
	if err := s.transactionRepo.Update(transaction); err != nil {
		return nil, errors.NewDatabaseError("failed to update transaction", err)
	}
	transaction.Category = *category

	s.invalidateAfterWrite(ctx, userID)
	return transaction, nil
}

// Delete removes one of the user's transactions
func (s *TransactionService) Delete(ctx context.Context, userID, id uint) error {
	transaction, err := s.findOwned(userID, id)
	if err != nil {
		return err
	}

	if err := s.transactionRepo.Delete(transaction); err != nil {
		return errors.NewDatabaseError("failed to delete transaction", err)
	}

	s.invalidateAfterWrite(ctx, userID)
	return nil
}

// List returns one page of the user's transactions. The default view (no
// filters, default page size, leading pages) is served through the cache;
// anything else goes straight to the database so the invalidator's fixed
// key enumeration stays complete.
func (s *TransactionService) List(ctx context.Context, userID uint, filter models.TransactionFilter) (*models.TransactionPage, error) {
	filter = normalizeFilter(filter)

	if !s.cacheEligible(filter) {
		return s.loadPage(userID, filter)
	}

	key, err := cache.TransactionsPageKey(userID, filter.Page, filter.PerPage)
	if err != nil {
		return nil, err
	}

	data, err := s.cache.GetOrLoad(ctx, key, cache.KindTransactionList, func(ctx context.Context) ([]byte, error) {
		return s.pageBytes(userID, filter)
	})
	if err != nil {
		return nil, err
	}

	var page models.TransactionPage
	if err := json.Unmarshal(data, &page); err != nil {
		log.Printf("[ERROR] Corrupt cached transaction page, reloading: %v\n", err)
		return s.loadPage(userID, filter)
	}
	return &page, nil
}

func normalizeFilter(filter models.TransactionFilter) models.TransactionFilter {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = cache.DefaultListPerPage
	}
	if filter.PerPage > maxPerPage {
		filter.PerPage = maxPerPage
	}
	return filter
}

// cacheEligible reports whether a list view is one of the enumerable cached
// pages the invalidator knows how to delete
func (s *TransactionService) cacheEligible(filter models.TransactionFilter) bool {
	return filter.CategoryID == 0 &&
		filter.From.IsZero() &&
		filter.To.IsZero() &&
		filter.PerPage == cache.DefaultListPerPage &&
		filter.Page <= s.listPages
}

func (s *TransactionService) loadPage(userID uint, filter models.TransactionFilter) (*models.TransactionPage, error) {
	items, total, err := s.transactionRepo.FindPage(userID, filter)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list transactions", err)
	}
	if items == nil {
		items = []models.Transaction{}
	}
	return &models.TransactionPage{
		Items:   items,
		Page:    filter.Page,
		PerPage: filter.PerPage,
		Total:   total,
	}, nil
}

func (s *TransactionService) pageBytes(userID uint, filter models.TransactionFilter) ([]byte, error) {
	page, err := s.loadPage(userID, filter)
	if err != nil {
		return nil, err
	}
	return json.Marshal(page)
}

// findOwned loads a transaction and checks tenancy. A transaction belonging
// to another user looks absent, not forbidden.
func (s *TransactionService) findOwned(userID, id uint) (*models.Transaction, error) {
	transaction, err := s.transactionRepo.FindByID(id)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to load transaction", err)
	}
	if transaction == nil || transaction.UserID != userID {
		return nil, errors.NewNotFoundError("transaction not found")
	}
	return transaction, nil
}

func (s *TransactionService) validateRequest(req *models.TransactionRequest) (*models.Category, time.Time, error) {
	if req.AmountCents <= 0 {
		return nil, time.Time{}, errors.NewValidationError("amount must be a positive number of cents")
	}

	category, err := s.categoryRepo.FindByID(req.CategoryID)
	if err != nil {
		return nil, time.Time{}, errors.NewDatabaseError("failed to load category", err)
	}
	if category == nil {
		return nil, time.Time{}, errors.NewValidationError("unknown category")
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			return nil, time.Time{}, errors.NewValidationError("occurred_at must be an RFC 3339 timestamp")
		}
		occurredAt = parsed.UTC()
	}

	return category, occurredAt, nil
}

// invalidateAfterWrite drops both of the owner's key families. The canonical
// write has already committed, so invalidation failure is logged and
// absorbed; stale reads are bounded by TTL.
func (s *TransactionService) invalidateAfterWrite(ctx context.Context, userID uint) {
	if err := s.invalidator.InvalidateUser(ctx, userID, cache.AllFamilies()...); err != nil {
		log.Printf("[ERROR] Cache invalidation failed for user %d: %v\n", userID, err)
	}
}
