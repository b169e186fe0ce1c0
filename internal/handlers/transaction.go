// internal/handlers/transaction.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/distrokey/distrokey-backend/internal/services"
	"github.com/distrokey/distrokey-backend/internal/utils"
)

type TransactionHandler struct {
	transactionService *services.TransactionService
}

func NewTransactionHandler(transactionService *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// GET /transactions
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}

	params := utils.GetCursorParams(c)

	page, err := h.transactionService.ListTransactions(caller, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, page.Transactions, gin.H{
		"next_cursor": page.NextCursor,
		"has_more":    page.HasMore,
	})
}
