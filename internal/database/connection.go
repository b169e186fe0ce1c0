// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/distrokey/distrokey-backend/internal/config"
	"github.com/distrokey/distrokey-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.Key{},
		&models.LedgerTransaction{},
		&models.EndUser{},
		&models.EMIPlan{},
		&models.AuditLog{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",
		"CREATE INDEX IF NOT EXISTS idx_users_role_status ON users(role, status)",

		// Key indexes: eligible-key selection scans by owner+status in
		// creation order
		"CREATE INDEX IF NOT EXISTS idx_keys_assigned_status ON keys(assigned_to, status, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_keys_created_by ON keys(created_by)",
		"CREATE INDEX IF NOT EXISTS idx_keys_valid_until ON keys(valid_until)",

		// Ledger indexes: participant membership + descending (time, id) cursor
		"CREATE INDEX IF NOT EXISTS idx_ledger_participants ON ledger_transactions USING GIN(participants)",
		"CREATE INDEX IF NOT EXISTS idx_ledger_created_at ON ledger_transactions(created_at DESC, id DESC)",
		"CREATE INDEX IF NOT EXISTS idx_ledger_action ON ledger_transactions(action, created_at DESC)",

		// EMI indexes
		"CREATE INDEX IF NOT EXISTS idx_emi_plans_next_installment ON emi_plans(next_installment_at)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// SeedInitialData creates the bootstrap super admin and its wallet row.
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	var adminCount int64
	db.Model(&models.User{}).Where("role = ?", models.RoleSuperAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Name:   "System Administrator",
			Email:  "admin@distrokey.io",
			Role:   models.RoleSuperAdmin,
			Status: models.UserStatusActive,
			Hierarchy: models.JSONB{
				"ancestors": []string{},
			},
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		wallet := &models.Wallet{UserID: admin.ID}
		if err := db.Create(wallet).Error; err != nil {
			return fmt.Errorf("failed to create admin wallet: %w", err)
		}

		log.Println("Default super admin created successfully")
	}

	log.Println("Initial data seeding completed")
	return nil
}
