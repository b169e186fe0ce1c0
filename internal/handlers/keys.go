// internal/handlers/keys.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/distrokey/distrokey-backend/internal/i18n"
	"github.com/distrokey/distrokey-backend/internal/models"
	"github.com/distrokey/distrokey-backend/internal/services"
	"github.com/distrokey/distrokey-backend/internal/utils"
)

type KeyHandler struct {
	ledgerService *services.LedgerService
}

func NewKeyHandler(ledgerService *services.LedgerService) *KeyHandler {
	return &KeyHandler{
		ledgerService: ledgerService,
	}
}

// POST /keys
func (h *KeyHandler) CreateKeys(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	caller, ok := callerID(c)
	if !ok {
		return
	}

	var req services.CreateKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	keyIDs, err := h.ledgerService.CreateKeys(caller, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyKeysCreated),
		"key_ids": keyIDs,
	})
}

// POST /keys/transfer
func (h *KeyHandler) TransferKeys(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	caller, ok := callerID(c)
	if !ok {
		return
	}

	var req services.TransferKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	keyIDs, err := h.ledgerService.TransferKeys(caller, req.ToUserID, req.Count)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyKeysTransferred),
		"key_ids": keyIDs,
	})
}

// POST /keys/revoke
func (h *KeyHandler) RevokeKeys(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	caller, ok := callerID(c)
	if !ok {
		return
	}

	var req services.RevokeKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	keyIDs, err := h.ledgerService.RevokeKeys(caller, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyKeysRevoked),
		"key_ids": keyIDs,
	})
}

// GET /keys
func (h *KeyHandler) GetKeys(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}

	keys, err := h.ledgerService.GetKeys(caller, c.Query("status"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	// Expose the derived status alongside the stored row
	type keyView struct {
		models.Key
		EffectiveStatus models.KeyStatus `json:"effective_status"`
	}

	views := make([]keyView, len(keys))
	for i, k := range keys {
		views[i] = keyView{Key: k, EffectiveStatus: k.EffectiveStatus()}
	}

	utils.SuccessResponse(c, gin.H{
		"keys":  views,
		"count": len(views),
	})
}
