// internal/models/key.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Key struct {
	BaseModel
	Status       KeyStatus  `json:"status" gorm:"type:varchar(20);not null;default:'unassigned';index"`
	AssignedTo   *uuid.UUID `json:"assigned_to" gorm:"type:uuid;index"`
	AssignedRole *Role      `json:"assigned_role" gorm:"type:varchar(20)"`
	CreatedBy    uuid.UUID  `json:"created_by" gorm:"type:uuid;not null;index"`

	TransferredFrom *uuid.UUID `json:"transferred_from,omitempty" gorm:"type:uuid"`
	TransferredAt   *time.Time `json:"transferred_at,omitempty"`

	ProvisionedAt *time.Time `json:"provisioned_at,omitempty"`
	EndUserID     *uuid.UUID `json:"end_user_id,omitempty" gorm:"type:uuid;index"`

	RevokedAt *time.Time `json:"revoked_at,omitempty"`

	ValidUntil *time.Time `json:"valid_until,omitempty"`

	// Twelve distinct 6-digit codes generated per key at creation,
	// immutable afterwards.
	UnlockCodes pq.StringArray `json:"unlock_codes,omitempty" gorm:"type:text[]"`

	// Relationships
	Creator User     `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
	EndUser *EndUser `json:"end_user,omitempty" gorm:"foreignKey:EndUserID"`
}

// Expired reports whether the key's validity window has passed. Expiry is
// a read-time property, not a stored status transition.
func (k *Key) Expired() bool {
	return k.ValidUntil != nil && time.Now().After(*k.ValidUntil)
}

// EffectiveStatus is the stored status with the derived expired overlay
// applied for keys that are still in circulation.
func (k *Key) EffectiveStatus() KeyStatus {
	if k.Expired() && (k.Status == KeyStatusUnassigned || k.Status == KeyStatusCredited) {
		return KeyStatusExpired
	}
	return k.Status
}
