// Package repository implements data access layer for the application
package repository

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"financeapi.app/models"
)

// UserRepository handles data access operations for user accounts
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository for user data
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create persists a new user account
func (r *UserRepository) Create(user *models.User) error {
	log.Printf("[DEBUG] UserRepository.Create: email=%s\n", user.Email)

	result := r.db.Create(user)
	if result.Error != nil {
		log.Printf("[ERROR] Database error when creating user: %v\n", result.Error)
		return result.Error
	}

	log.Printf("[DEBUG] Created user with ID: %d\n", user.ID)
	return nil
}

// FindByEmail retrieves a user by email, or nil when no account exists
func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	log.Printf("[DEBUG] UserRepository.FindByEmail: email=%s\n", email)

	var user models.User
	result := r.db.Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			log.Println("[DEBUG] No user found")
			return nil, nil
		}
		log.Printf("[ERROR] Database error when finding user: %v\n", result.Error)
		return nil, result.Error
	}

	return &user, nil
}

// FindByID retrieves a user by its ID
func (r *UserRepository) FindByID(id uint) (*models.User, error) {
	log.Printf("[DEBUG] UserRepository.FindByID: id=%d\n", id)

	var user models.User
	result := r.db.First(&user, id)
	if result.Error != nil {
		log.Printf("[ERROR] Database error when finding user by ID: %v\n", result.Error)
		return nil, result.Error
	}

	return &user, nil
}

// SessionRepository handles data access operations for login sessions
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new repository for session operations
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create generates and stores a new session for a user
func (r *SessionRepository) Create(userID uint, expiresIn time.Duration) (*models.Session, error) {
	log.Printf("[DEBUG] SessionRepository.Create: userID=%d, expiresIn=%v\n", userID, expiresIn)

	session := &models.Session{
		Token:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(expiresIn),
	}

	result := r.db.Create(session)
	if result.Error != nil {
		log.Printf("[ERROR] Database error when creating session: %v\n", result.Error)
		return nil, result.Error
	}

	log.Printf("[DEBUG] Created session ID: %d\n", session.ID)
	return session, nil
}

// FindByToken retrieves a non-expired session by its token value, or nil
// when no live session matches
func (r *SessionRepository) FindByToken(token string) (*models.Session, error) {
	var session models.Session
	result := r.db.Where("token = ? AND expires_at > ?", token, time.Now()).First(&session)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("[ERROR] Database error when finding session: %v\n", result.Error)
		return nil, result.Error
	}

	return &session, nil
}

// DeleteByToken removes a session, ending that login
func (r *SessionRepository) DeleteByToken(token string) error {
	result := r.db.Where("token = ?", token).Delete(&models.Session{})
	if result.Error != nil {
		log.Printf("[ERROR] Database error when deleting session: %v\n", result.Error)
		return result.Error
	}

	log.Printf("[DEBUG] Deleted %d session(s)\n", result.RowsAffected)
	return nil
}

// DeleteExpired removes all expired sessions from the database
func (r *SessionRepository) DeleteExpired() error {
	result := r.db.Where("expires_at < ?", time.Now()).Delete(&models.Session{})
	if result.Error != nil {
		log.Printf("[ERROR] Database error when deleting expired sessions: %v\n", result.Error)
		return result.Error
	}

	log.Printf("[DEBUG] Deleted %d expired sessions\n", result.RowsAffected)
	return nil
}

// CategoryRepository handles data access operations for categories
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new repository for category data
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindAll retrieves every category ordered by name
func (r *CategoryRepository) FindAll() ([]models.Category, error) {
	var categories []models.Category
	result := r.db.Order("name ASC").Find(&categories)
	if result.Error != nil {
		log.Printf("[ERROR] Database error when listing categories: %v\n", result.Error)
		return nil, result.Error
	}

	log.Printf("[DEBUG] Found %d categories\n", len(categories))
	return categories, nil
}

// FindByID retrieves a category by its ID, or nil when none exists
func (r *CategoryRepository) FindByID(id uint) (*models.Category, error) {
	var category models.Category
	result := r.db.First(&category, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("[ERROR] Database error when finding category: %v\n", result.Error)
		return nil, result.Error
	}

	return &category, nil
}

// FindByName retrieves a category by name, or nil when none exists
func (r *CategoryRepository) FindByName(name string) (*models.Category, error) {
	var category models.Category
	result := r.db.Where("name = ?", name).First(&category)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("[ERROR] Database error when finding category by name: %v\n", result.Error)
		return nil, result.Error
	}

	return &category, nil
}

// Create persists a new category
func (r *CategoryRepository) Create(category *models.Category) error {
	log.Printf("[DEBUG] CategoryRepository.Create: name=%s kind=%s\n", category.Name, category.Kind)

	result := r.db.Create(category)
	if result.Error != nil {
		log.Printf("[ERROR] Database error when creating category: %v\n", result.Error)
		return result.Error
	}

	return nil
}

// Update modifies an existing category
func (r *CategoryRepository) Update(category *models.Category) error {
	result := r.db.Save(category)
	if result.Error != nil {
		log.Printf("[ERROR] Database error when updating category: %v\n", result.Error)
		return result.Error
	}

	return nil
}

// Delete removes a category from the database
func (r *CategoryRepository) Delete(category *models.Category) error {
	result := r.db.Delete(category)
	if result.Error != nil {
		log.Printf("[ERROR] Database error when deleting category: %v\n", result.Error)
		return result.Error
	}

	return nil
}

// CountTransactions reports how many transactions reference a category
func (r *CategoryRepository) CountTransactions(categoryID uint) (int64, error) {
	var count int64
	result := r.db.Model(&models.Transaction{}).Where("category_id = ?", categoryID).Count(&count)
	if result.Error != nil {
		log.Printf("[ERROR] Database error when counting category transactions: %v\n", result.Error)
		return 0, result.Error
	}

	return count, nil
}

// TransactionRepository handles data access operations for transactions
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new repository for transaction data
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create persists a new transaction
func (r *TransactionRepository) Create(transaction *models.Transaction) error {
	log.Printf("[DEBUG] TransactionRepository.Create: userID=%d categoryID=%d amount=%d\n",
		transaction.UserID, transaction.CategoryID, transaction.AmountCents)

	result := r.db.Create(transaction)
	if result.Error != nil {
		log.Printf("[ERROR] Database error when creating transaction: %v\n", result.Error)
		return result.Error
	}

	log.Printf("[DEBUG] Created transaction with ID: %d\n", transaction.ID)
	return nil
}

// FindByID retrieves a transaction by its ID, or nil when none exists
func (r *TransactionRepository) FindByID(id uint) (*models.Transaction, error) {
	var transaction models.Transaction
	result := r.db.Preload("Category").First(&transaction, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("[ERROR] Database error when finding transaction: %v\n", result.Error)
		return nil, result.Error
	}

	return &transaction, nil
}

// Update modifies an existing transaction
func (r *TransactionRepository) Update(transaction *models.Transaction) error {
	result := r.db.Save(transaction)
	if result.Error != nil {
		log.Printf("[ERROR] Database error when updating transaction: %v\n", result.Error)
		return result.Error
	}

	return nil
}

// Delete removes a transaction from the database
func (r *TransactionRepository) Delete(transaction *models.Transaction) error {
	result := r.db.Delete(transaction)
	if result.Error != nil {
		log.Printf("[ERROR] Database error when deleting transaction: %v\n", result.Error)
		return result.Error
	}

	return nil
}

// scoped builds the base query for one user's transactions with the
// filter's constraints applied
func (r *TransactionRepository) scoped(userID uint, filter models.TransactionFilter) *gorm.DB {
	query := r.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if !filter.From.IsZero() {
		query = query.Where("occurred_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("occurred_at < ?", filter.To)
	}
	return query
}

// FindPage retrieves one page of a user's transactions, newest first,
// along with the total row count for the filter
func (r *TransactionRepository) FindPage(userID uint, filter models.TransactionFilter) ([]models.Transaction, int64, error) {
	var total int64
	if err := r.scoped(userID, filter).Count(&total).Error; err != nil {
		log.Printf("[ERROR] Database error when counting transactions: %v\n", err)
		return nil, 0, err
	}

	var transactions []models.Transaction
	err := r.scoped(userID, filter).
		Preload("Category").
		Order("occurred_at DESC, id DESC").
		Limit(filter.PerPage).
		Offset((filter.Page - 1) * filter.PerPage).
		Find(&transactions).Error
	if err != nil {
		log.Printf("[ERROR] Database error when listing transactions: %v\n", err)
		return nil, 0, err
	}

	log.Printf("[DEBUG] Found %d of %d transactions for user %d\n", len(transactions), total, userID)
	return transactions, total, nil
}

// SummarizeByCategory aggregates a user's transactions per category inside
// a time window. Zero bounds leave that side of the window open.
func (r *TransactionRepository) SummarizeByCategory(userID uint, from, to time.Time) ([]models.CategoryTotal, error) {
	query := r.db.Model(&models.Transaction{}).
		Select("categories.id AS category_id, categories.name AS name, categories.kind AS kind, SUM(transactions.amount_cents) AS total_cents").
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ?", userID)
	if !from.IsZero() {
		query = query.Where("transactions.occurred_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("transactions.occurred_at < ?", to)
	}

	var totals []models.CategoryTotal
	err := query.
		Group("categories.id, categories.name, categories.kind").
		Order("total_cents DESC").
		Scan(&totals).Error
	if err != nil {
		log.Printf("[ERROR] Database error when summarizing transactions: %v\n", err)
		return nil, err
	}

	log.Printf("[DEBUG] Summarized %d categories for user %d\n", len(totals), userID)
	return totals, nil
}
