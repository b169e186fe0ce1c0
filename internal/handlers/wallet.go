// internal/handlers/wallet.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/distrokey/distrokey-backend/internal/services"
	"github.com/distrokey/distrokey-backend/internal/utils"
)

type WalletHandler struct {
	walletService *services.WalletService
}

func NewWalletHandler(walletService *services.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// GET /wallet
func (h *WalletHandler) GetOwnWallet(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}

	h.respondWithWallet(c, caller)
}

// GET /wallets/:id — super admin view into any wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	h.respondWithWallet(c, userID)
}

func (h *WalletHandler) respondWithWallet(c *gin.Context, userID uuid.UUID) {
	wallet, err := h.walletService.GetWallet(userID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"wallet":   wallet,
		"balanced": wallet.Balanced(),
	})
}
