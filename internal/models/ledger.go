// internal/models/ledger.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// LedgerTransaction is one immutable audit entry. Rows are created once by
// the ledger service, immediately after the key/wallet mutation, and never
// updated or deleted. Corrections are made by follow-up operations, not
// edits.
type LedgerTransaction struct {
	BaseModel
	Action LedgerAction `json:"action" gorm:"type:varchar(20);not null;index"`

	// Ordered ids of every key the operation touched. Batched operations
	// produce one record for all keys, not one per key.
	KeyIDs pq.StringArray `json:"key_ids" gorm:"type:text[];not null"`

	FromUser *uuid.UUID `json:"from_user" gorm:"type:uuid;index"`
	ToUser   *uuid.UUID `json:"to_user" gorm:"type:uuid;index"`
	FromRole *Role      `json:"from_role" gorm:"type:varchar(20)"`
	ToRole   *Role      `json:"to_role" gorm:"type:varchar(20)"`

	// PerformedBy may differ from FromUser, e.g. an admin revoking on a
	// user's behalf.
	PerformedBy uuid.UUID `json:"performed_by" gorm:"type:uuid;not null;index"`

	// Every user id involved, used for "transactions I'm part of" queries.
	Participants pq.StringArray `json:"participants" gorm:"type:text[];not null"`

	Reason string `json:"reason,omitempty" gorm:"type:text"`
}

type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:255;not null"`
	ResourceType string     `json:"resource_type" gorm:"size:100"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"size:500"`
	NewValues    JSONB      `json:"new_values" gorm:"type:jsonb"`
}
