// internal/models/wallet.go
package models

import (
	"github.com/google/uuid"
)

// Wallet holds the per-user key counters. Rows are mutated only by the
// ledger service, atomically with the key-state change they account for.
type Wallet struct {
	BaseModel
	UserID               uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	AvailableKeys        int64     `json:"available_keys" gorm:"not null;default:0"`
	TotalKeysReceived    int64     `json:"total_keys_received" gorm:"not null;default:0"`
	TotalKeysTransferred int64     `json:"total_keys_transferred" gorm:"not null;default:0"`
	TotalProvisioned     int64     `json:"total_provisioned" gorm:"not null;default:0"`
	TotalRevoked         int64     `json:"total_revoked" gorm:"not null;default:0"`
}

// Balanced reports whether the counter invariant holds:
// available = received - transferred - provisioned - revoked.
func (w *Wallet) Balanced() bool {
	return w.AvailableKeys == w.TotalKeysReceived-w.TotalKeysTransferred-w.TotalProvisioned-w.TotalRevoked
}
