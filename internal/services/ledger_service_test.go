// internal/services/ledger_service_test.go
package services

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/distrokey/distrokey-backend/internal/apperrors"
	"github.com/distrokey/distrokey-backend/internal/models"
	"github.com/distrokey/distrokey-backend/internal/utils"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *LedgerService
}

func (s *LedgerServiceTestSuite) SetupSuite() {
	s.db = openTestDB(s.T())
	s.svc = NewLedgerService(s.db, nil)
}

func (s *LedgerServiceTestSuite) SetupTest() {
	resetTables(s.T(), s.db)
}

func (s *LedgerServiceTestSuite) TestCreateKeysMintsStock() {
	admin := seedUser(s.T(), s.db, models.RoleSuperAdmin, nil)

	keyIDs, err := s.svc.CreateKeys(admin.ID, &CreateKeysRequest{Count: 5})
	s.Require().NoError(err)
	s.Require().Len(keyIDs, 5)

	var keys []models.Key
	s.Require().NoError(s.db.Where("assigned_to = ?", admin.ID).Find(&keys).Error)
	s.Require().Len(keys, 5)

	for _, key := range keys {
		assert.Equal(s.T(), models.KeyStatusUnassigned, key.Status)
		assert.Equal(s.T(), admin.ID, key.CreatedBy)
		assert.Nil(s.T(), key.ValidUntil)
		assert.Len(s.T(), key.UnlockCodes, utils.UnlockCodeCount)

		seen := map[string]bool{}
		for _, code := range key.UnlockCodes {
			assert.Len(s.T(), code, 6)
			assert.False(s.T(), seen[code])
			seen[code] = true
		}
	}

	wallet := fetchWallet(s.T(), s.db, admin.ID)
	assert.Equal(s.T(), int64(5), wallet.AvailableKeys)
	assert.Equal(s.T(), int64(5), wallet.TotalKeysReceived)
	assert.True(s.T(), wallet.Balanced())

	var records []models.LedgerTransaction
	s.Require().NoError(s.db.Find(&records).Error)
	s.Require().Len(records, 1)
	assert.Equal(s.T(), models.LedgerActionCreated, records[0].Action)
	assert.Len(s.T(), records[0].KeyIDs, 5)
	assert.Equal(s.T(), admin.ID, records[0].PerformedBy)
	assert.Contains(s.T(), records[0].Participants, admin.ID.String())
}

func (s *LedgerServiceTestSuite) TestCreateKeysWithValidity() {
	admin := seedUser(s.T(), s.db, models.RoleSuperAdmin, nil)

	keyIDs, err := s.svc.CreateKeys(admin.ID, &CreateKeysRequest{Count: 1, ValidityInMonths: 3})
	s.Require().NoError(err)

	var key models.Key
	s.Require().NoError(s.db.First(&key, keyIDs[0]).Error)
	s.Require().NotNil(key.ValidUntil)

	want := time.Now().AddDate(0, 3, 0)
	assert.WithinDuration(s.T(), want, *key.ValidUntil, time.Minute)
	assert.False(s.T(), key.Expired())
}

func (s *LedgerServiceTestSuite) TestCreateKeysValidatesCount() {
	admin := seedUser(s.T(), s.db, models.RoleSuperAdmin, nil)

	_, err := s.svc.CreateKeys(admin.ID, &CreateKeysRequest{Count: 0})
	assert.Equal(s.T(), apperrors.KindInvalidArgument, apperrors.KindOf(err))

	_, err = s.svc.CreateKeys(admin.ID, &CreateKeysRequest{Count: 101})
	assert.Equal(s.T(), apperrors.KindInvalidArgument, apperrors.KindOf(err))
}

func (s *LedgerServiceTestSuite) TestCreateKeysRequiresSuperAdmin() {
	admin := seedUser(s.T(), s.db, models.RoleSuperAdmin, nil)
	superDist := seedUser(s.T(), s.db, models.RoleSuperDistributor, admin)

	_, err := s.svc.CreateKeys(superDist.ID, &CreateKeysRequest{Count: 1})
	assert.Equal(s.T(), apperrors.KindForbidden, apperrors.KindOf(err))
}

func (s *LedgerServiceTestSuite) TestTransferChain() {
	admin, superDist, dist, retailer := seedChain(s.T(), s.db)

	_, err := s.svc.CreateKeys(admin.ID, &CreateKeysRequest{Count: 10})
	s.Require().NoError(err)

	_, err = s.svc.TransferKeys(admin.ID, superDist.ID, 4)
	s.Require().NoError(err)

	_, err = s.svc.TransferKeys(superDist.ID, dist.ID, 2)
	s.Require().NoError(err)

	transferred, err := s.svc.TransferKeys(dist.ID, retailer.ID, 1)
	s.Require().NoError(err)
	s.Require().Len(transferred, 1)

	checks := []struct {
		userID      uuid.UUID
		available   int64
		received    int64
		transferred int64
	}{
		{admin.ID, 6, 10, 4},
		{superDist.ID, 2, 4, 2},
		{dist.ID, 1, 2, 1},
		{retailer.ID, 1, 1, 0},
	}
	for _, c := range checks {
		wallet := fetchWallet(s.T(), s.db, c.userID)
		assert.Equal(s.T(), c.available, wallet.AvailableKeys)
		assert.Equal(s.T(), c.received, wallet.TotalKeysReceived)
		assert.Equal(s.T(), c.transferred, wallet.TotalKeysTransferred)
		assert.True(s.T(), wallet.Balanced())
	}

	// One ledger record per operation, four so far.
	assert.Equal(s.T(), int64(4), countLedgerRecords(s.T(), s.db))

	var key models.Key
	s.Require().NoError(s.db.First(&key, transferred[0]).Error)
	assert.Equal(s.T(), models.KeyStatusCredited, key.Status)
	s.Require().NotNil(key.AssignedTo)
	assert.Equal(s.T(), retailer.ID, *key.AssignedTo)
	s.Require().NotNil(key.TransferredFrom)
	assert.Equal(s.T(), dist.ID, *key.TransferredFrom)
	assert.NotNil(s.T(), key.TransferredAt)
}

func (s *LedgerServiceTestSuite) TestTransferInsufficientLeavesNoTrace() {
	admin, superDist, _, _ := seedChain(s.T(), s.db)

	_, err := s.svc.CreateKeys(admin.ID, &CreateKeysRequest{Count: 3})
	s.Require().NoError(err)

	_, err = s.svc.TransferKeys(admin.ID, superDist.ID, 5)
	s.Require().Error(err)
	assert.Equal(s.T(), apperrors.KindInsufficientInventory, apperrors.KindOf(err))

	// Nothing moved: no key changed hands, no wallet changed, and only
	// the creation record exists.
	var credited int64
	s.Require().NoError(s.db.Model(&models.Key{}).
		Where("assigned_to = ?", superDist.ID).Count(&credited).Error)
	assert.Zero(s.T(), credited)

	wallet := fetchWallet(s.T(), s.db, admin.ID)
	assert.Equal(s.T(), int64(3), wallet.AvailableKeys)
	assert.Zero(s.T(), wallet.TotalKeysTransferred)

	assert.Equal(s.T(), int64(1), countLedgerRecords(s.T(), s.db))
}

func (s *LedgerServiceTestSuite) TestTransferRejectsSkippedTier() {
	admin, _, dist, _ := seedChain(s.T(), s.db)

	_, err := s.svc.CreateKeys(admin.ID, &CreateKeysRequest{Count: 1})
	s.Require().NoError(err)

	_, err = s.svc.TransferKeys(admin.ID, dist.ID, 1)
	assert.Equal(s.T(), apperrors.KindForbidden, apperrors.KindOf(err))
}

func (s *LedgerServiceTestSuite) TestTransferRepeatAppendsDistinctRecords() {
	admin, superDist, _, _ := seedChain(s.T(), s.db)

	_, err := s.svc.CreateKeys(admin.ID, &CreateKeysRequest{Count: 6})
	s.Require().NoError(err)

	first, err := s.svc.TransferKeys(admin.ID, superDist.ID, 2)
	s.Require().NoError(err)
	second, err := s.svc.TransferKeys(admin.ID, superDist.ID, 2)
	s.Require().NoError(err)

	// Identical request, not idempotent: different keys move each time
	// and each transfer appends its own record.
	assert.NotElementsMatch(s.T(), first, second)
	assert.Equal(s.T(), int64(3), countLedgerRecords(s.T(), s.db))

	wallet := fetchWallet(s.T(), s.db, superDist.ID)
	assert.Equal(s.T(), int64(4), wallet.AvailableKeys)
	assert.Equal(s.T(), int64(4), wallet.TotalKeysReceived)
}

func (s *LedgerServiceTestSuite) TestConcurrentTransfersNeverDoubleAllocate() {
	admin := seedUser(s.T(), s.db, models.RoleSuperAdmin, nil)
	recipients := []*models.User{
		seedUser(s.T(), s.db, models.RoleSuperDistributor, admin),
		seedUser(s.T(), s.db, models.RoleSuperDistributor, admin),
	}

	_, err := s.svc.CreateKeys(admin.ID, &CreateKeysRequest{Count: 4})
	s.Require().NoError(err)

	// Two transfers race for the same eligible pool. The row locks on
	// the selected keys force them to serialize: each one that succeeds
	// moved keys no other transfer touched.
	results := make([][]uuid.UUID, len(recipients))
	errs := make([]error, len(recipients))

	var wg sync.WaitGroup
	for i := range recipients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.svc.TransferKeys(admin.ID, recipients[i].ID, 2)
		}(i)
	}
	wg.Wait()

	moved := map[uuid.UUID]bool{}
	succeeded := 0
	for i := range recipients {
		if errs[i] != nil {
			kind := apperrors.KindOf(errs[i])
			s.Require().True(
				kind == apperrors.KindInsufficientInventory || kind == apperrors.KindConflict,
				"unexpected failure kind %s", kind)
			continue
		}
		succeeded++
		for _, id := range results[i] {
			s.Require().False(moved[id], "key %s allocated twice", id)
			moved[id] = true
		}
	}
	s.Require().GreaterOrEqual(succeeded, 1)

	// Ledger, key rows, and wallets all agree on who got what.
	for i := range recipients {
		var credited int64
		s.Require().NoError(s.db.Model(&models.Key{}).
			Where("assigned_to = ? AND status = ?", recipients[i].ID, models.KeyStatusCredited).
			Count(&credited).Error)

		wallet := fetchWallet(s.T(), s.db, recipients[i].ID)
		if errs[i] != nil {
			assert.Zero(s.T(), credited)
			assert.Zero(s.T(), wallet.AvailableKeys)
			continue
		}
		assert.Equal(s.T(), int64(2), credited)
		assert.Equal(s.T(), int64(2), wallet.AvailableKeys)
		assert.True(s.T(), wallet.Balanced())
	}

	adminWallet := fetchWallet(s.T(), s.db, admin.ID)
	assert.Equal(s.T(), int64(4-2*succeeded), adminWallet.AvailableKeys)
	assert.Equal(s.T(), int64(2*succeeded), adminWallet.TotalKeysTransferred)
	assert.True(s.T(), adminWallet.Balanced())
}

func (s *LedgerServiceTestSuite) TestRevokeRoundTrip() {
	admin := seedUser(s.T(), s.db, models.RoleSuperAdmin, nil)

	created, err := s.svc.CreateKeys(admin.ID, &CreateKeysRequest{Count: 5})
	s.Require().NoError(err)

	revoked, err := s.svc.RevokeKeys(admin.ID, &RevokeKeysRequest{
		UserID: admin.ID,
		Count:  5,
		Reason: "inventory audit",
	})
	s.Require().NoError(err)
	assert.ElementsMatch(s.T(), created, revoked)

	wallet := fetchWallet(s.T(), s.db, admin.ID)
	assert.Zero(s.T(), wallet.AvailableKeys)
	assert.Equal(s.T(), int64(5), wallet.TotalKeysReceived)
	assert.Equal(s.T(), int64(5), wallet.TotalRevoked)
	assert.True(s.T(), wallet.Balanced())

	var keys []models.Key
	s.Require().NoError(s.db.Where("status = ?", models.KeyStatusRevoked).Find(&keys).Error)
	s.Require().Len(keys, 5)
	for _, key := range keys {
		assert.Nil(s.T(), key.AssignedTo)
		assert.NotNil(s.T(), key.RevokedAt)
	}

	var record models.LedgerTransaction
	s.Require().NoError(s.db.Where("action = ?", models.LedgerActionRevoked).First(&record).Error)
	assert.Equal(s.T(), "inventory audit", record.Reason)
	assert.Len(s.T(), record.KeyIDs, 5)
}

func (s *LedgerServiceTestSuite) TestRevokeCreditedKeys() {
	admin, superDist, _, _ := seedChain(s.T(), s.db)

	_, err := s.svc.CreateKeys(admin.ID, &CreateKeysRequest{Count: 4})
	s.Require().NoError(err)
	_, err = s.svc.TransferKeys(admin.ID, superDist.ID, 3)
	s.Require().NoError(err)

	_, err = s.svc.RevokeKeys(admin.ID, &RevokeKeysRequest{UserID: superDist.ID, Count: 2})
	s.Require().NoError(err)

	wallet := fetchWallet(s.T(), s.db, superDist.ID)
	assert.Equal(s.T(), int64(1), wallet.AvailableKeys)
	assert.Equal(s.T(), int64(2), wallet.TotalRevoked)
	assert.True(s.T(), wallet.Balanced())
}

func (s *LedgerServiceTestSuite) TestRevokeRequiresSuperAdmin() {
	admin, superDist, _, _ := seedChain(s.T(), s.db)

	_, err := s.svc.CreateKeys(admin.ID, &CreateKeysRequest{Count: 2})
	s.Require().NoError(err)
	_, err = s.svc.TransferKeys(admin.ID, superDist.ID, 2)
	s.Require().NoError(err)

	_, err = s.svc.RevokeKeys(superDist.ID, &RevokeKeysRequest{UserID: superDist.ID, Count: 1})
	assert.Equal(s.T(), apperrors.KindForbidden, apperrors.KindOf(err))
}

func (s *LedgerServiceTestSuite) TestRevokeNoEligibleKeys() {
	admin, superDist, _, _ := seedChain(s.T(), s.db)

	_, err := s.svc.RevokeKeys(admin.ID, &RevokeKeysRequest{UserID: superDist.ID, Count: 1})
	assert.Equal(s.T(), apperrors.KindNotFound, apperrors.KindOf(err))
}

func (s *LedgerServiceTestSuite) TestRevokePartialEligible() {
	admin, superDist, _, _ := seedChain(s.T(), s.db)

	_, err := s.svc.CreateKeys(admin.ID, &CreateKeysRequest{Count: 3})
	s.Require().NoError(err)
	_, err = s.svc.TransferKeys(admin.ID, superDist.ID, 2)
	s.Require().NoError(err)

	_, err = s.svc.RevokeKeys(admin.ID, &RevokeKeysRequest{UserID: superDist.ID, Count: 3})
	s.Require().Error(err)
	assert.Equal(s.T(), apperrors.KindInsufficientInventory, apperrors.KindOf(err))

	// All-or-nothing: the two eligible keys stay credited.
	wallet := fetchWallet(s.T(), s.db, superDist.ID)
	assert.Equal(s.T(), int64(2), wallet.AvailableKeys)
	assert.Zero(s.T(), wallet.TotalRevoked)
}

func (s *LedgerServiceTestSuite) TestGetKeysExpiredFilter() {
	admin := seedUser(s.T(), s.db, models.RoleSuperAdmin, nil)

	keyIDs, err := s.svc.CreateKeys(admin.ID, &CreateKeysRequest{Count: 2})
	s.Require().NoError(err)

	past := time.Now().Add(-time.Hour)
	s.Require().NoError(s.db.Model(&models.Key{}).
		Where("id = ?", keyIDs[0]).
		Update("valid_until", past).Error)

	expired, err := s.svc.GetKeys(admin.ID, "expired")
	s.Require().NoError(err)
	s.Require().Len(expired, 1)
	assert.Equal(s.T(), keyIDs[0], expired[0].ID)
	assert.Equal(s.T(), models.KeyStatusExpired, expired[0].EffectiveStatus())
	// Stored status is untouched; expiry is derived at read time.
	assert.Equal(s.T(), models.KeyStatusUnassigned, expired[0].Status)

	all, err := s.svc.GetKeys(admin.ID, "")
	s.Require().NoError(err)
	assert.Len(s.T(), all, 2)

	_, err = s.svc.GetKeys(admin.ID, "melted")
	assert.Equal(s.T(), apperrors.KindInvalidArgument, apperrors.KindOf(err))
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
