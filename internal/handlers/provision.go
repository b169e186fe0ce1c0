// internal/handlers/provision.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/distrokey/distrokey-backend/internal/apperrors"
	"github.com/distrokey/distrokey-backend/internal/i18n"
	"github.com/distrokey/distrokey-backend/internal/services"
	"github.com/distrokey/distrokey-backend/internal/utils"
)

type ProvisionHandler struct {
	provisionService *services.ProvisionService
}

func NewProvisionHandler(provisionService *services.ProvisionService) *ProvisionHandler {
	return &ProvisionHandler{
		provisionService: provisionService,
	}
}

// POST /provision
func (h *ProvisionHandler) ProvisionKey(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	retailerID, ok := callerID(c)
	if !ok {
		return
	}

	var req services.ProvisionKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	result, err := h.provisionService.ProvisionKey(retailerID, &req)
	if err != nil {
		// Primary state committed; report the partial outcome with the
		// ids the operator needs to reconcile the device store.
		var appErr *apperrors.Error
		if errors.As(err, &appErr) && appErr.Kind == apperrors.KindPartialFailure {
			c.JSON(http.StatusInternalServerError, utils.APIResponse{
				Success: false,
				Data:    result,
				Error: &utils.APIError{
					Code:    string(apperrors.KindPartialFailure),
					Message: i18n.T(lang, i18n.KeyKeyPartialProvision),
					Details: appErr.Details,
				},
			})
			return
		}

		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyKeyProvisioned),
		"end_user_id": result.EndUserID,
		"key_id":      result.KeyID,
	})
}

// GET /provision/end-users/:id/emi
func (h *ProvisionHandler) GetEMIPlan(c *gin.Context) {
	retailerID, ok := callerID(c)
	if !ok {
		return
	}

	endUserID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid end user ID", nil)
		return
	}

	emi, err := h.provisionService.GetEMIPlan(retailerID, endUserID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"emi_plan": emi})
}
