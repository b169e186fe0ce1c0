// internal/services/suite_test.go
package services

import (
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/distrokey/distrokey-backend/internal/database"
	"github.com/distrokey/distrokey-backend/internal/models"
)

// openTestDB connects to the database named by TEST_DATABASE_URL and
// applies migrations. Database-backed suites skip when the variable is
// unset, so the pure unit tests still run anywhere.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping database-backed tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	return db
}

func resetTables(t *testing.T, db *gorm.DB) {
	t.Helper()

	err := db.Exec(
		"TRUNCATE users, wallets, keys, ledger_transactions, end_users, emi_plans, audit_logs CASCADE",
	).Error
	require.NoError(t, err)
}

var userSeq int

// seedUser inserts an active hierarchy user with an empty wallet, linked
// under the given parent when one is provided.
func seedUser(t *testing.T, db *gorm.DB, role models.Role, parent *models.User) *models.User {
	t.Helper()

	userSeq++
	user := &models.User{
		Name:   fmt.Sprintf("%s %d", role, userSeq),
		Email:  fmt.Sprintf("%s%d@example.com", role, userSeq),
		Phone:  "+919800000000",
		Role:   role,
		Status: models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("Distr0Key!test"))

	if parent != nil {
		user.Hierarchy = AncestorSnapshot(parent)
		switch role {
		case models.RoleSuperDistributor:
			user.SuperAdminID = &parent.ID
		case models.RoleDistributor:
			user.SuperDistributorID = &parent.ID
		case models.RoleRetailer:
			user.DistributorID = &parent.ID
		}
	}

	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&models.Wallet{UserID: user.ID}).Error)

	return user
}

// seedChain builds one user per distributing tier, each the child of the
// previous one.
func seedChain(t *testing.T, db *gorm.DB) (admin, superDist, dist, retailer *models.User) {
	t.Helper()

	admin = seedUser(t, db, models.RoleSuperAdmin, nil)
	superDist = seedUser(t, db, models.RoleSuperDistributor, admin)
	dist = seedUser(t, db, models.RoleDistributor, superDist)
	retailer = seedUser(t, db, models.RoleRetailer, dist)
	return
}

func fetchWallet(t *testing.T, db *gorm.DB, userID uuid.UUID) *models.Wallet {
	t.Helper()

	var wallet models.Wallet
	require.NoError(t, db.Where("user_id = ?", userID).First(&wallet).Error)
	return &wallet
}

func countLedgerRecords(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.LedgerTransaction{}).Count(&n).Error)
	return n
}
