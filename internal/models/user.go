// internal/models/user.go
package models

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Name         string     `json:"name" gorm:"size:100;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Phone        string     `json:"phone" gorm:"size:20"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Role         Role       `json:"role" gorm:"type:varchar(20);not null;index"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`

	// Parent link, role-dependent: exactly one of these is set for every
	// user below the super admin (see HierarchyEdges.LinkField).
	SuperAdminID       *uuid.UUID `json:"super_admin_id,omitempty" gorm:"type:uuid;index"`
	SuperDistributorID *uuid.UUID `json:"super_distributor_id,omitempty" gorm:"type:uuid;index"`
	DistributorID      *uuid.UUID `json:"distributor_id,omitempty" gorm:"type:uuid;index"`

	// Denormalized snapshot of all ancestor ids, taken at creation time.
	Hierarchy JSONB `json:"hierarchy" gorm:"type:jsonb"`

	// Relationships
	Wallet *Wallet `json:"wallet,omitempty" gorm:"foreignKey:UserID"`
	Keys   []Key   `json:"keys,omitempty" gorm:"foreignKey:AssignedTo"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// ParentID returns the parent link for the user's role, nil for the
// super admin.
func (u *User) ParentID() *uuid.UUID {
	switch u.Role {
	case RoleSuperDistributor:
		return u.SuperAdminID
	case RoleDistributor:
		return u.SuperDistributorID
	case RoleRetailer:
		return u.DistributorID
	}
	return nil
}
