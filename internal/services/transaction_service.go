// internal/services/transaction_service.go
package services

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/distrokey/distrokey-backend/internal/apperrors"
	"github.com/distrokey/distrokey-backend/internal/models"
	"github.com/distrokey/distrokey-backend/internal/utils"
)

// TransactionService reads the append-only ledger. Writes happen inside
// the ledger/provision transactions via appendLedgerRecord; nothing ever
// updates or deletes a record.
type TransactionService struct {
	db *gorm.DB
}

type TransactionPage struct {
	Transactions []models.LedgerTransaction `json:"transactions"`
	NextCursor   string                     `json:"next_cursor,omitempty"`
	HasMore      bool                       `json:"has_more"`
}

func NewTransactionService(db *gorm.DB) *TransactionService {
	return &TransactionService{db: db}
}

// ListTransactions pages through the transactions a user participates
// in, descending by timestamp with the record id as tie-breaker. The
// cursor carries both, so records sharing the boundary timestamp are
// never dropped, and pages stay correct under concurrent appends:
// records newer than an issued cursor never leak into later pages.
func (s *TransactionService) ListTransactions(callerID uuid.UUID, params utils.CursorParams) (*TransactionPage, error) {
	query := s.db.Model(&models.LedgerTransaction{}).
		Where("participants @> ?", pq.StringArray{callerID.String()}).
		Order("created_at DESC, id DESC")

	if params.Cursor != "" {
		before, beforeID, err := utils.DecodeCursor(params.Cursor)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInvalidArgument, "invalid cursor", err)
		}
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", before, before, beforeID)
	}

	// Fetch one extra row to learn whether another page exists.
	var transactions []models.LedgerTransaction
	if err := query.Limit(params.PageSize + 1).Find(&transactions).Error; err != nil {
		return nil, apperrors.Internal("failed to fetch transactions", err)
	}

	page := &TransactionPage{}
	if len(transactions) > params.PageSize {
		page.HasMore = true
		transactions = transactions[:params.PageSize]
	}

	page.Transactions = transactions
	if page.HasMore && len(transactions) > 0 {
		last := transactions[len(transactions)-1]
		page.NextCursor = utils.EncodeCursor(last.CreatedAt, last.ID)
	}

	return page, nil
}

// appendLedgerRecord writes one immutable audit entry. It participates in
// the caller's transaction where one is open; best-effort callers pass
// the bare db handle.
func appendLedgerRecord(tx *gorm.DB, record *models.LedgerTransaction) error {
	if err := tx.Create(record).Error; err != nil {
		return apperrors.Internal("failed to append ledger record", err)
	}
	return nil
}
