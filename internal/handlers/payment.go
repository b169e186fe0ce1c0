// internal/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/distrokey/distrokey-backend/internal/i18n"
	"github.com/distrokey/distrokey-backend/internal/services"
	"github.com/distrokey/distrokey-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// POST /payments/installment-intent
func (h *PaymentHandler) CreateInstallmentIntent(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	retailerID, ok := callerID(c)
	if !ok {
		return
	}

	var req services.InstallmentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	resp, err := h.paymentService.CreateInstallmentIntent(retailerID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, resp)
}

// POST /payments/installment-confirm
func (h *PaymentHandler) ConfirmInstallment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	retailerID, ok := callerID(c)
	if !ok {
		return
	}

	var req services.ConfirmInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	emi, err := h.paymentService.ConfirmInstallment(retailerID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyPaymentSuccess),
		"emi_plan": emi,
	})
}
