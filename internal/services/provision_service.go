// internal/services/provision_service.go
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/distrokey/distrokey-backend/internal/apperrors"
	"github.com/distrokey/distrokey-backend/internal/models"
	"github.com/distrokey/distrokey-backend/internal/utils"
)

const installmentPeriod = 30 * 24 * time.Hour

// ProvisionService binds a credited key to a new end user. The end-user
// row, EMI schedule, key flip, and wallet debit commit as one database
// transaction; the device-store write and the ledger append follow after
// commit as best-effort side effects.
type ProvisionService struct {
	db                  *gorm.DB
	deviceStore         *DeviceStoreService
	notificationService *NotificationService
}

type EMIPlanRequest struct {
	StartDate          time.Time `json:"start_date" validate:"required"`
	InstallmentsLeft   int       `json:"installments_left" validate:"required,gt=0"`
	MonthlyInstallment float64   `json:"monthly_installment" validate:"required,gt=0"`
	TotalAmount        float64   `json:"total_amount" validate:"required,gt=0"`
	DownPayment        float64   `json:"down_payment" validate:"gte=0"`
}

type ProvisionKeyRequest struct {
	KeyID      uuid.UUID      `json:"key_id" validate:"required"`
	Name       string         `json:"name" validate:"required,max=100"`
	Email      string         `json:"email" validate:"omitempty,email"`
	Phone      string         `json:"phone" validate:"required,phone"`
	DeviceIMEI string         `json:"device_imei" validate:"required,max=32"`
	DeviceMake string         `json:"device_make" validate:"omitempty,max=50"`
	EMIPlan    EMIPlanRequest `json:"emi_plan" validate:"required"`
}

type ProvisionResult struct {
	EndUserID      uuid.UUID `json:"end_user_id"`
	KeyID          uuid.UUID `json:"key_id"`
	DeviceRecordID string    `json:"device_record_id"`
}

func NewProvisionService(db *gorm.DB, deviceStore *DeviceStoreService, notificationService *NotificationService) *ProvisionService {
	return &ProvisionService{
		db:                  db,
		deviceStore:         deviceStore,
		notificationService: notificationService,
	}
}

// ProvisionKey consumes one of the retailer's credited keys for a new end
// user. A PartialFailure return means the primary state committed and
// only the device record is missing.
func (s *ProvisionService) ProvisionKey(retailerID uuid.UUID, req *ProvisionKeyRequest) (*ProvisionResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidArgument, "validation failed", err)
	}

	if req.EMIPlan.DownPayment > req.EMIPlan.TotalAmount {
		return nil, apperrors.InvalidArgument("down payment cannot exceed total amount")
	}

	var retailer models.User
	if err := s.db.First(&retailer, retailerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("retailer not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	if retailer.Role != models.RoleRetailer {
		return nil, apperrors.Forbidden("only retailers can provision keys")
	}

	if retailer.Status != models.UserStatusActive {
		return nil, apperrors.Forbidden("retailer account is not active")
	}

	now := time.Now()
	endUser := &models.EndUser{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		DeviceIMEI: req.DeviceIMEI,
		DeviceMake: req.DeviceMake,
		RetailerID: retailer.ID,
		KeyID:      req.KeyID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var key models.Key
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&key, req.KeyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("key not found")
			}
			return apperrors.Internal("database error", err)
		}

		if key.AssignedTo == nil || *key.AssignedTo != retailer.ID || key.Status != models.KeyStatusCredited {
			return apperrors.Forbidden("key is not credited to this retailer")
		}

		if key.Expired() {
			return apperrors.Forbidden("key has expired")
		}

		if err := tx.Create(endUser).Error; err != nil {
			return apperrors.Internal("failed to create end user", err)
		}

		emi := &models.EMIPlan{
			EndUserID:          endUser.ID,
			StartDate:          req.EMIPlan.StartDate,
			InstallmentsLeft:   req.EMIPlan.InstallmentsLeft,
			MonthlyInstallment: req.EMIPlan.MonthlyInstallment,
			TotalAmount:        req.EMIPlan.TotalAmount,
			DownPayment:        req.EMIPlan.DownPayment,
			AmountLeft:         req.EMIPlan.TotalAmount - req.EMIPlan.DownPayment,
			NextInstallmentAt:  req.EMIPlan.StartDate.Add(installmentPeriod),
		}
		if err := tx.Create(emi).Error; err != nil {
			return apperrors.Internal("failed to create EMI plan", err)
		}

		if err := tx.Model(&key).Updates(map[string]interface{}{
			"status":         models.KeyStatusProvisioned,
			"provisioned_at": now,
			"end_user_id":    endUser.ID,
		}).Error; err != nil {
			return apperrors.Internal("failed to update key", err)
		}

		return debitWallet(tx, retailer.ID, 1, "total_provisioned")
	})

	if err != nil {
		return nil, err
	}

	result := &ProvisionResult{
		EndUserID:      endUser.ID,
		KeyID:          req.KeyID,
		DeviceRecordID: uuid.New().String(),
	}

	// Best-effort secondary write. Primary state is already committed;
	// a failure here is surfaced distinctly so the caller can reconcile.
	record := &models.DeviceRecord{
		ID:            result.DeviceRecordID,
		EndUserID:     endUser.ID.String(),
		KeyID:         req.KeyID.String(),
		RetailerID:    retailer.ID.String(),
		DeviceIMEI:    req.DeviceIMEI,
		DeviceMake:    req.DeviceMake,
		Locked:        false,
		ProvisionedAt: now,
	}
	if storeErr := s.deviceStore.PutDeviceRecord(record); storeErr != nil {
		logrus.WithError(storeErr).WithFields(logrus.Fields{
			"end_user_id": endUser.ID,
			"key_id":      req.KeyID,
		}).Error("Device record write failed after provisioning commit")

		return result, apperrors.PartialFailure(
			"key provisioned but the device record could not be written", storeErr).
			WithDetails(map[string]interface{}{
				"end_user_id":      endUser.ID.String(),
				"key_id":           req.KeyID.String(),
				"device_record_id": result.DeviceRecordID,
			})
	}

	// Best-effort ledger append: logged on failure, never fails the
	// request.
	s.appendProvisionRecord(&retailer, endUser, req.KeyID)

	go s.notifyProvisioned(&retailer, endUser)

	return result, nil
}

// GetEMIPlan returns the installment schedule for one of the retailer's
// end users.
func (s *ProvisionService) GetEMIPlan(retailerID, endUserID uuid.UUID) (*models.EMIPlan, error) {
	var endUser models.EndUser
	if err := s.db.First(&endUser, endUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("end user not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	if endUser.RetailerID != retailerID {
		return nil, apperrors.Forbidden("end user belongs to a different retailer")
	}

	var emi models.EMIPlan
	if err := s.db.Where("end_user_id = ?", endUserID).First(&emi).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("EMI plan not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	return &emi, nil
}

func (s *ProvisionService) appendProvisionRecord(retailer *models.User, endUser *models.EndUser, keyID uuid.UUID) {
	retailerRole := retailer.Role
	endUserRole := models.RoleEndUser

	record := &models.LedgerTransaction{
		Action:       models.LedgerActionProvisioned,
		KeyIDs:       pq.StringArray{keyID.String()},
		FromUser:     &retailer.ID,
		FromRole:     &retailerRole,
		ToUser:       &endUser.ID,
		ToRole:       &endUserRole,
		PerformedBy:  retailer.ID,
		Participants: pq.StringArray{retailer.ID.String(), endUser.ID.String()},
	}

	if err := appendLedgerRecord(s.db, record); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"key_id":      keyID,
			"end_user_id": endUser.ID,
		}).Error("Failed to append provisioning ledger record")
	}
}

func (s *ProvisionService) notifyProvisioned(retailer *models.User, endUser *models.EndUser) {
	if s.notificationService != nil {
		s.notificationService.SendKeyProvisionedNotification(retailer, endUser)
	}
}
