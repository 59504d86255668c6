// Package database provides database connection and migration functionality
package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"financeapi.app/config"
	"financeapi.app/models"
)

// InitDB initializes the database connection
func InitDB(config config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(config.GetDSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return db, nil
}

// RunMigrations executes database schema migrations
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Category{},
		&models.Transaction{},
	)
}

// SeedDefaultCategories inserts the starter category set on first boot.
// Existing names are left untouched, so reruns are safe.
func SeedDefaultCategories(db *gorm.DB) error {
	defaults := []models.Category{
		{Name: "Salary", Kind: models.KindIncome},
		{Name: "Groceries", Kind: models.KindExpense},
		{Name: "Rent", Kind: models.KindExpense},
		{Name: "Transport", Kind: models.KindExpense},
		{Name: "Entertainment", Kind: models.KindExpense},
		{Name: "Utilities", Kind: models.KindExpense},
		{Name: "Other", Kind: models.KindExpense},
	}

	for _, category := range defaults {
		result := db.Where(models.Category{Name: category.Name}).FirstOrCreate(&category)
		if result.Error != nil {
			return fmt.Errorf("seed category %s: %w", category.Name, result.Error)
		}
	}

	return nil
}

// CloseDB safely closes the database connection
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
