// internal/services/ledger_service.go
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/distrokey/distrokey-backend/internal/apperrors"
	"github.com/distrokey/distrokey-backend/internal/models"
	"github.com/distrokey/distrokey-backend/internal/utils"
)

// LedgerService is the engine behind key creation, transfer, and
// revocation. Each operation runs as one database transaction: every
// key-status change and wallet-counter change commits together or not at
// all, and the ledger record is appended inside the same transaction.
type LedgerService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type CreateKeysRequest struct {
	Count            int `json:"count" validate:"required,min=1,max=100"`
	ValidityInMonths int `json:"validity_in_months" validate:"gte=0"`
}

type TransferKeysRequest struct {
	ToUserID uuid.UUID `json:"to_user_id" validate:"required"`
	Count    int       `json:"count" validate:"required,gt=0"`
}

type RevokeKeysRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Count  int       `json:"count" validate:"required,gt=0"`
	Reason string    `json:"reason,omitempty"`
}

func NewLedgerService(db *gorm.DB, notificationService *NotificationService) *LedgerService {
	return &LedgerService{
		db:                  db,
		notificationService: notificationService,
	}
}

// CreateKeys mints new keys onto the super admin's own wallet. Each key
// gets its own set of twelve unlock codes.
func (s *LedgerService) CreateKeys(callerID uuid.UUID, req *CreateKeysRequest) ([]uuid.UUID, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidArgument, "validation failed", err)
	}

	caller, err := s.activeUser(callerID)
	if err != nil {
		return nil, err
	}

	if caller.Role != models.RoleSuperAdmin {
		return nil, apperrors.Forbidden("only the super admin can create keys")
	}

	var validUntil *time.Time
	if req.ValidityInMonths > 0 {
		t := time.Now().AddDate(0, req.ValidityInMonths, 0)
		validUntil = &t
	}

	keyIDs := make([]uuid.UUID, 0, req.Count)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		callerRole := caller.Role

		for i := 0; i < req.Count; i++ {
			codes, err := utils.GenerateUnlockCodes(utils.UnlockCodeCount)
			if err != nil {
				return apperrors.Internal("failed to generate unlock codes", err)
			}

			key := &models.Key{
				Status:       models.KeyStatusUnassigned,
				AssignedTo:   &caller.ID,
				AssignedRole: &callerRole,
				CreatedBy:    caller.ID,
				ValidUntil:   validUntil,
				UnlockCodes:  pq.StringArray(codes),
			}

			if err := tx.Create(key).Error; err != nil {
				return apperrors.Internal("failed to create key", err)
			}

			keyIDs = append(keyIDs, key.ID)
		}

		if err := creditWallet(tx, caller.ID, int64(req.Count)); err != nil {
			return err
		}

		return appendLedgerRecord(tx, &models.LedgerTransaction{
			Action:       models.LedgerActionCreated,
			KeyIDs:       uuidStrings(keyIDs),
			ToUser:       &caller.ID,
			ToRole:       &callerRole,
			PerformedBy:  caller.ID,
			Participants: pq.StringArray{caller.ID.String()},
		})
	})

	if err != nil {
		return nil, err
	}

	return keyIDs, nil
}

// TransferKeys moves keys one tier down the hierarchy. Selection takes
// the oldest eligible keys first; exact identities are not significant,
// only the count.
func (s *LedgerService) TransferKeys(callerID, toUserID uuid.UUID, count int) ([]uuid.UUID, error) {
	if count <= 0 {
		return nil, apperrors.InvalidArgument("count must be positive")
	}

	caller, err := s.activeUser(callerID)
	if err != nil {
		return nil, err
	}

	var recipient models.User
	if err := s.db.First(&recipient, toUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("recipient not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	if recipient.Status != models.UserStatusActive {
		return nil, apperrors.Forbidden("recipient account is not active")
	}

	if err := ValidateTransferEdge(caller.Role, recipient.Role); err != nil {
		return nil, err
	}

	sourceStatus := EligibleSourceStatus(caller.Role)
	now := time.Now()

	var keyIDs []uuid.UUID

	err = s.db.Transaction(func(tx *gorm.DB) error {
		keys, err := lockEligibleKeys(tx, caller.ID, sourceStatus, count)
		if err != nil {
			return err
		}

		if len(keys) < count {
			return apperrors.Newf(apperrors.KindInsufficientInventory,
				"requested %d keys but only %d are eligible", count, len(keys))
		}

		keyIDs = keyIDList(keys)

		if err := tx.Model(&models.Key{}).
			Where("id IN ?", uuidStrings(keyIDs)).
			Updates(map[string]interface{}{
				"status":           models.KeyStatusCredited,
				"assigned_to":      recipient.ID,
				"assigned_role":    recipient.Role,
				"transferred_from": caller.ID,
				"transferred_at":   now,
			}).Error; err != nil {
			return apperrors.Internal("failed to update keys", err)
		}

		if err := debitWallet(tx, caller.ID, int64(count), "total_keys_transferred"); err != nil {
			return err
		}

		// Recipient wallet is created on first credit (upsert semantics).
		if err := creditWallet(tx, recipient.ID, int64(count)); err != nil {
			return err
		}

		callerRole := caller.Role
		recipientRole := recipient.Role
		return appendLedgerRecord(tx, &models.LedgerTransaction{
			Action:       models.LedgerActionCredited,
			KeyIDs:       uuidStrings(keyIDs),
			FromUser:     &caller.ID,
			FromRole:     &callerRole,
			ToUser:       &recipient.ID,
			ToRole:       &recipientRole,
			PerformedBy:  caller.ID,
			Participants: pq.StringArray{caller.ID.String(), recipient.ID.String()},
		})
	})

	if err != nil {
		return nil, err
	}

	go s.notifyTransfer(&recipient, count)

	return keyIDs, nil
}

// RevokeKeys pulls credited keys back out of circulation. Like transfer,
// the operation is all-or-nothing: it never revokes fewer keys than
// requested.
func (s *LedgerService) RevokeKeys(callerID uuid.UUID, req *RevokeKeysRequest) ([]uuid.UUID, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidArgument, "validation failed", err)
	}

	caller, err := s.activeUser(callerID)
	if err != nil {
		return nil, err
	}

	if caller.Role != models.RoleSuperAdmin {
		return nil, apperrors.Forbidden("only the super admin can revoke keys")
	}

	var target models.User
	if err := s.db.First(&target, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	now := time.Now()
	var keyIDs []uuid.UUID

	// Same eligibility rule as transfer: unassigned stock for the super
	// admin, credited keys for everyone below.
	sourceStatus := EligibleSourceStatus(target.Role)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		keys, err := lockEligibleKeys(tx, target.ID, sourceStatus, req.Count)
		if err != nil {
			return err
		}

		if len(keys) == 0 {
			return apperrors.NotFound("no revocable keys found for user")
		}

		if len(keys) < req.Count {
			return apperrors.Newf(apperrors.KindInsufficientInventory,
				"requested %d keys but only %d are eligible", req.Count, len(keys))
		}

		keyIDs = keyIDList(keys)

		if err := tx.Model(&models.Key{}).
			Where("id IN ?", uuidStrings(keyIDs)).
			Updates(map[string]interface{}{
				"status":        models.KeyStatusRevoked,
				"assigned_to":   nil,
				"assigned_role": nil,
				"revoked_at":    now,
			}).Error; err != nil {
			return apperrors.Internal("failed to update keys", err)
		}

		if err := debitWallet(tx, target.ID, int64(req.Count), "total_revoked"); err != nil {
			return err
		}

		targetRole := target.Role
		return appendLedgerRecord(tx, &models.LedgerTransaction{
			Action:       models.LedgerActionRevoked,
			KeyIDs:       uuidStrings(keyIDs),
			FromUser:     &target.ID,
			FromRole:     &targetRole,
			PerformedBy:  caller.ID,
			Participants: pq.StringArray{target.ID.String(), caller.ID.String()},
			Reason:       req.Reason,
		})
	})

	if err != nil {
		return nil, err
	}

	go s.notifyRevocation(&target, req.Count, req.Reason)

	return keyIDs, nil
}

// GetKeys lists keys assigned to a user, optionally filtered by status.
// The derived expired status is honored both as filter and in output.
func (s *LedgerService) GetKeys(userID uuid.UUID, status string) ([]models.Key, error) {
	query := s.db.Where("assigned_to = ?", userID).Order("created_at ASC")

	filterExpired := false
	if status != "" {
		ks := models.KeyStatus(status)
		switch ks {
		case models.KeyStatusExpired:
			filterExpired = true
		case models.KeyStatusUnassigned, models.KeyStatusCredited,
			models.KeyStatusProvisioned, models.KeyStatusRevoked:
			query = query.Where("status = ?", ks)
		default:
			return nil, apperrors.Newf(apperrors.KindInvalidArgument, "unknown key status %q", status)
		}
	}

	var keys []models.Key
	if err := query.Find(&keys).Error; err != nil {
		return nil, apperrors.Internal("failed to fetch keys", err)
	}

	if filterExpired {
		expired := keys[:0]
		for _, k := range keys {
			if k.EffectiveStatus() == models.KeyStatusExpired {
				expired = append(expired, k)
			}
		}
		keys = expired
	}

	return keys, nil
}

func (s *LedgerService) activeUser(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	if user.Status != models.UserStatusActive {
		return nil, apperrors.Forbidden("user account is not active")
	}

	return &user, nil
}

func (s *LedgerService) notifyTransfer(recipient *models.User, count int) {
	if s.notificationService != nil {
		s.notificationService.SendKeysCreditedNotification(recipient, count)
	}
}

func (s *LedgerService) notifyRevocation(target *models.User, count int, reason string) {
	if s.notificationService != nil {
		s.notificationService.SendKeysRevokedNotification(target, count, reason)
	}
}

// lockEligibleKeys selects up to count eligible keys in creation order,
// row-locked so concurrent transfers racing for the same pool serialize
// instead of double-allocating.
func lockEligibleKeys(tx *gorm.DB, ownerID uuid.UUID, status models.KeyStatus, count int) ([]models.Key, error) {
	var keys []models.Key
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("assigned_to = ? AND status = ?", ownerID, status).
		Order("created_at ASC").
		Limit(count).
		Find(&keys).Error; err != nil {
		return nil, apperrors.Internal("failed to select eligible keys", err)
	}
	return keys, nil
}

func keyIDList(keys []models.Key) []uuid.UUID {
	ids := make([]uuid.UUID, len(keys))
	for i, k := range keys {
		ids[i] = k.ID
	}
	return ids
}

func uuidStrings(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
