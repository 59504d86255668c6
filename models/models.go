// Package models defines data structures used throughout the application
package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Category kinds
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// User represents an account holder
type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Email        string         `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string         `json:"-" gorm:"not null"`
	Name         string         `json:"name" gorm:"not null"`
	Role         string         `json:"role" gorm:"not null;default:user"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsAdmin reports whether the user holds the administrator role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session represents an issued login session
type Session struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Token     string    `json:"token" gorm:"uniqueIndex;not null"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	User      User      `json:"-" gorm:"foreignKey:UserID"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Category represents a shared (owner-less) transaction category
type Category struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"uniqueIndex;not null"`
	Kind      string         `json:"kind" gorm:"not null"` // "income" or "expense"
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Transaction represents a single money movement owned by a user. The
// amount is a positive magnitude; its direction follows the category kind.
type Transaction struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      uint           `json:"user_id" gorm:"index;not null"`
	CategoryID  uint           `json:"category_id" gorm:"index;not null"`
	Category    Category       `json:"category" gorm:"foreignKey:CategoryID"`
	AmountCents int64          `json:"amount_cents" gorm:"not null"`
	Note        string         `json:"note"`
	OccurredAt  time.Time      `json:"occurred_at" gorm:"index;not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// RegisterRequest represents data required to create an account
type RegisterRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,min=8"`
	Name     string `json:"name" form:"name" binding:"required"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// LoginResponse carries the issued session token
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// TransactionRequest represents data required to create or update a
// transaction. Amounts are positive magnitudes; the category's kind decides
// whether the money moved in or out.
type TransactionRequest struct {
	CategoryID  uint   `json:"category_id" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	Note        string `json:"note"`
	OccurredAt  string `json:"occurred_at"` // RFC 3339; defaults to now when empty
}

// CategoryRequest represents data required to create or update a category
type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
	Kind string `json:"kind" binding:"required,categorykind"`
}

// TransactionFilter narrows a transaction listing
type TransactionFilter struct {
	Page       int
	PerPage    int
	CategoryID uint
	From       time.Time
	To         time.Time
}

// TransactionPage is one page of a user's transaction listing
type TransactionPage struct {
	Items   []Transaction `json:"items"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
	Total   int64         `json:"total"`
}

// CategoryTotal is one category's aggregate within an analytics summary
type CategoryTotal struct {
	CategoryID uint   `json:"category_id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	TotalCents int64  `json:"total_cents"`
}

// AnalyticsSummary is the derived per-user aggregation for one period
type AnalyticsSummary struct {
	Period            string          `json:"period"`
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	TotalIncomeCents  int64           `json:"total_income_cents"`
	TotalExpenseCents int64           `json:"total_expense_cents"`
	NetCents          int64           `json:"net_cents"`
	ByCategory        []CategoryTotal `json:"by_category"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// ErrorResponse represents an error message structure for API responses
type ErrorResponse struct {
	Error string `json:"error"`
}
