// internal/models/enduser.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// EndUser is a provisioned customer at the bottom of the hierarchy. End
// users hold no wallet; a key is consumed, not re-transferred, when it
// reaches them.
type EndUser struct {
	BaseModel
	Name       string    `json:"name" gorm:"size:100;not null"`
	Email      string    `json:"email" gorm:"size:255;index"`
	Phone      string    `json:"phone" gorm:"size:20;not null"`
	DeviceIMEI string    `json:"device_imei" gorm:"size:32;index"`
	DeviceMake string    `json:"device_make" gorm:"size:50"`
	RetailerID uuid.UUID `json:"retailer_id" gorm:"type:uuid;not null;index"`
	KeyID      uuid.UUID `json:"key_id" gorm:"type:uuid;not null;uniqueIndex"`

	// Relationships
	Retailer User     `json:"retailer,omitempty" gorm:"foreignKey:RetailerID"`
	EMIPlan  *EMIPlan `json:"emi_plan,omitempty" gorm:"foreignKey:EndUserID"`
}

// EMIPlan is the installment schedule attached to an end user at
// provisioning time.
type EMIPlan struct {
	BaseModel
	EndUserID          uuid.UUID  `json:"end_user_id" gorm:"type:uuid;not null;uniqueIndex"`
	StartDate          time.Time  `json:"start_date" gorm:"not null"`
	InstallmentsLeft   int        `json:"installments_left" gorm:"not null"`
	MonthlyInstallment float64    `json:"monthly_installment" gorm:"type:decimal(10,2);not null"`
	TotalAmount        float64    `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	DownPayment        float64    `json:"down_payment" gorm:"type:decimal(10,2);not null"`
	AmountLeft         float64    `json:"amount_left" gorm:"type:decimal(10,2);not null"`
	NextInstallmentAt  time.Time  `json:"next_installment_date" gorm:"not null"`
	LastPaymentRef     string     `json:"last_payment_reference,omitempty" gorm:"size:255"`
	LastPaidAt         *time.Time `json:"last_paid_at,omitempty"`
}

// DeviceRecord is the control document pushed to the secondary device
// store at provisioning time. It is not a gorm row; the secondary store
// sits outside the primary transaction boundary.
type DeviceRecord struct {
	ID            string    `json:"id"`
	EndUserID     string    `json:"end_user_id"`
	KeyID         string    `json:"key_id"`
	RetailerID    string    `json:"retailer_id"`
	DeviceIMEI    string    `json:"device_imei"`
	DeviceMake    string    `json:"device_make"`
	Locked        bool      `json:"locked"`
	ProvisionedAt time.Time `json:"provisioned_at"`
}
