// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums

type Role string

const (
	RoleSuperAdmin       Role = "super_admin"
	RoleSuperDistributor Role = "super_distributor"
	RoleDistributor      Role = "distributor"
	RoleRetailer         Role = "retailer"
	RoleEndUser          Role = "end_user"
)

// ParseRole normalizes role strings seen at the boundary ("super-admin",
// "Super_Admin", ...) to the canonical enum. Unknown values are rejected
// instead of falling through to empty-result behavior.
func ParseRole(s string) (Role, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	switch Role(normalized) {
	case RoleSuperAdmin, RoleSuperDistributor, RoleDistributor, RoleRetailer, RoleEndUser:
		return Role(normalized), true
	}
	return "", false
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// HierarchyEdge is one permitted parent->child transfer pair. LinkField
// names the column on the child row that records the parent id.
type HierarchyEdge struct {
	ParentRole Role   `json:"parent_role"`
	ChildRole  Role   `json:"child_role"`
	LinkField  string `json:"link_field"`
}

// HierarchyEdges is the single source of truth for the distribution tree.
// Transfer authorization, subordinate creation, and downline queries all
// consult this table.
var HierarchyEdges = []HierarchyEdge{
	{ParentRole: RoleSuperAdmin, ChildRole: RoleSuperDistributor, LinkField: "super_admin_id"},
	{ParentRole: RoleSuperDistributor, ChildRole: RoleDistributor, LinkField: "super_distributor_id"},
	{ParentRole: RoleDistributor, ChildRole: RoleRetailer, LinkField: "distributor_id"},
	{ParentRole: RoleRetailer, ChildRole: RoleEndUser, LinkField: "retailer_id"},
}

// EdgeFor returns the hierarchy edge rooted at parentRole, if any.
func EdgeFor(parentRole Role) (HierarchyEdge, bool) {
	for _, e := range HierarchyEdges {
		if e.ParentRole == parentRole {
			return e, true
		}
	}
	return HierarchyEdge{}, false
}

type KeyStatus string

const (
	KeyStatusUnassigned  KeyStatus = "unassigned"
	KeyStatusCredited    KeyStatus = "credited"
	KeyStatusProvisioned KeyStatus = "provisioned"
	KeyStatusRevoked     KeyStatus = "revoked"

	// KeyStatusExpired is derived at read time from valid_until and is
	// never stored.
	KeyStatusExpired KeyStatus = "expired"
)

type LedgerAction string

const (
	LedgerActionCreated     LedgerAction = "created"
	LedgerActionCredited    LedgerAction = "credited"
	LedgerActionRevoked     LedgerAction = "revoked"
	LedgerActionProvisioned LedgerAction = "provisioned"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)
