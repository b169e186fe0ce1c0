// internal/services/transaction_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/distrokey/distrokey-backend/internal/apperrors"
	"github.com/distrokey/distrokey-backend/internal/models"
	"github.com/distrokey/distrokey-backend/internal/utils"
)

type TransactionServiceTestSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *TransactionService
}

func (s *TransactionServiceTestSuite) SetupSuite() {
	s.db = openTestDB(s.T())
	s.svc = NewTransactionService(s.db)
}

func (s *TransactionServiceTestSuite) SetupTest() {
	resetTables(s.T(), s.db)
}

// seedRecords inserts n ledger records for the participant a minute
// apart, newest last, and returns their ids oldest-first.
func (s *TransactionServiceTestSuite) seedRecords(participant uuid.UUID, n int) []uuid.UUID {
	base := time.Now().Add(-24 * time.Hour)
	ids := make([]uuid.UUID, 0, n)

	for i := 0; i < n; i++ {
		record := &models.LedgerTransaction{
			Action:       models.LedgerActionCredited,
			KeyIDs:       pq.StringArray{uuid.New().String()},
			PerformedBy:  participant,
			Participants: pq.StringArray{participant.String()},
		}
		record.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		s.Require().NoError(s.db.Create(record).Error)
		ids = append(ids, record.ID)
	}

	return ids
}

func (s *TransactionServiceTestSuite) TestPaginationCoversFullHistory() {
	caller := uuid.New()
	bystander := uuid.New()

	seeded := s.seedRecords(caller, 7)
	s.seedRecords(bystander, 2)

	var collected []uuid.UUID
	cursor := ""
	pages := 0

	for {
		page, err := s.svc.ListTransactions(caller, utils.CursorParams{Cursor: cursor, PageSize: 3})
		s.Require().NoError(err)
		pages++

		for _, tx := range page.Transactions {
			collected = append(collected, tx.ID)
			assert.Contains(s.T(), tx.Participants, caller.String())
		}

		if !page.HasMore {
			assert.Empty(s.T(), page.NextCursor)
			break
		}
		s.Require().NotEmpty(page.NextCursor)
		cursor = page.NextCursor
	}

	assert.Equal(s.T(), 3, pages)
	s.Require().Len(collected, 7)

	// Newest first, no gaps, no duplicates: the concatenated pages are
	// exactly the seeded set reversed.
	for i, id := range collected {
		assert.Equal(s.T(), seeded[len(seeded)-1-i], id)
	}
}

func (s *TransactionServiceTestSuite) TestPaginationBreaksTimestampTies() {
	caller := uuid.New()

	// Five records sharing one timestamp: Postgres keeps microseconds,
	// so batched appends can collide. The id tie-breaker in the cursor
	// must still cover every record exactly once.
	shared := time.Now().Add(-time.Hour).Truncate(time.Microsecond)
	for i := 0; i < 5; i++ {
		record := &models.LedgerTransaction{
			Action:       models.LedgerActionCreated,
			KeyIDs:       pq.StringArray{uuid.New().String()},
			PerformedBy:  caller,
			Participants: pq.StringArray{caller.String()},
		}
		record.CreatedAt = shared
		s.Require().NoError(s.db.Create(record).Error)
	}

	seen := map[uuid.UUID]bool{}
	cursor := ""
	for {
		page, err := s.svc.ListTransactions(caller, utils.CursorParams{Cursor: cursor, PageSize: 2})
		s.Require().NoError(err)

		for _, tx := range page.Transactions {
			s.Require().False(seen[tx.ID], "record %s returned twice", tx.ID)
			seen[tx.ID] = true
		}

		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	assert.Len(s.T(), seen, 5)
}

func (s *TransactionServiceTestSuite) TestExactPageBoundary() {
	caller := uuid.New()
	s.seedRecords(caller, 3)

	page, err := s.svc.ListTransactions(caller, utils.CursorParams{PageSize: 3})
	s.Require().NoError(err)
	assert.Len(s.T(), page.Transactions, 3)
	assert.False(s.T(), page.HasMore)
	assert.Empty(s.T(), page.NextCursor)
}

func (s *TransactionServiceTestSuite) TestEmptyHistory() {
	page, err := s.svc.ListTransactions(uuid.New(), utils.CursorParams{PageSize: 10})
	s.Require().NoError(err)
	assert.Empty(s.T(), page.Transactions)
	assert.False(s.T(), page.HasMore)
}

func (s *TransactionServiceTestSuite) TestInvalidCursor() {
	_, err := s.svc.ListTransactions(uuid.New(), utils.CursorParams{Cursor: "not-a-cursor", PageSize: 10})
	assert.Equal(s.T(), apperrors.KindInvalidArgument, apperrors.KindOf(err))
}

func TestTransactionServiceSuite(t *testing.T) {
	suite.Run(t, new(TransactionServiceTestSuite))
}
