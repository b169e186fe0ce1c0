// internal/services/wallet_service.go
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/distrokey/distrokey-backend/internal/apperrors"
	"github.com/distrokey/distrokey-backend/internal/models"
)

type WalletService struct {
	db *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{db: db}
}

// GetWallet returns the counters for a hierarchy user. A user who has
// never received keys gets a zeroed wallet rather than an error.
func (s *WalletService) GetWallet(userID uuid.UUID) (*models.Wallet, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	var wallet models.Wallet
	if err := s.db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Wallet{UserID: userID}, nil
		}
		return nil, apperrors.Internal("database error", err)
	}

	return &wallet, nil
}

// creditWallet adds received keys to a wallet, creating the row on first
// credit (upsert semantics). Runs inside the caller's transaction.
func creditWallet(tx *gorm.DB, userID uuid.UUID, count int64) error {
	wallet := models.Wallet{
		UserID:            userID,
		AvailableKeys:     count,
		TotalKeysReceived: count,
	}

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"available_keys":      gorm.Expr("wallets.available_keys + ?", count),
			"total_keys_received": gorm.Expr("wallets.total_keys_received + ?", count),
			"updated_at":          time.Now(),
		}),
	}).Create(&wallet).Error

	if err != nil {
		return apperrors.Internal("failed to credit wallet", err)
	}
	return nil
}

// debitWallet removes available keys and bumps the given outflow counter
// (total_keys_transferred, total_provisioned, or total_revoked). The
// balance guard turns a concurrent drain of the same wallet into a
// Conflict instead of a negative counter.
func debitWallet(tx *gorm.DB, userID uuid.UUID, count int64, outflowColumn string) error {
	result := tx.Model(&models.Wallet{}).
		Where("user_id = ? AND available_keys >= ?", userID, count).
		Updates(map[string]interface{}{
			"available_keys": gorm.Expr("available_keys - ?", count),
			outflowColumn:    gorm.Expr(outflowColumn+" + ?", count),
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return apperrors.Internal("failed to debit wallet", result.Error)
	}

	if result.RowsAffected == 0 {
		return apperrors.Conflict("wallet balance changed concurrently")
	}

	return nil
}
