// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"gorm.io/gorm"

	"github.com/distrokey/distrokey-backend/internal/apperrors"
	"github.com/distrokey/distrokey-backend/internal/config"
	"github.com/distrokey/distrokey-backend/internal/models"
	"github.com/distrokey/distrokey-backend/internal/utils"
)

// PaymentService collects EMI installments through Stripe. It only moves
// money and mutates the EMI schedule; key state never changes here.
type PaymentService struct {
	db     *gorm.DB
	config *config.Config
}

type InstallmentIntentRequest struct {
	EndUserID uuid.UUID `json:"end_user_id" validate:"required"`
	Currency  string    `json:"currency,omitempty"`
}

type InstallmentIntentResponse struct {
	ClientSecret string  `json:"client_secret"`
	PaymentID    string  `json:"payment_id"`
	Amount       float64 `json:"amount"`
	Status       string  `json:"status"`
}

type ConfirmInstallmentRequest struct {
	PaymentIntentID string    `json:"payment_intent_id" validate:"required"`
	EndUserID       uuid.UUID `json:"end_user_id" validate:"required"`
}

func NewPaymentService(db *gorm.DB, config *config.Config) *PaymentService {
	// Initialize Stripe
	stripe.Key = config.Payment.StripeSecretKey

	return &PaymentService{
		db:     db,
		config: config,
	}
}

// CreateInstallmentIntent opens a Stripe PaymentIntent for the next
// monthly installment of an end user's EMI plan.
func (s *PaymentService) CreateInstallmentIntent(retailerID uuid.UUID, req *InstallmentIntentRequest) (*InstallmentIntentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidArgument, "validation failed", err)
	}

	emi, err := s.planForRetailer(retailerID, req.EndUserID)
	if err != nil {
		return nil, err
	}

	if emi.InstallmentsLeft <= 0 {
		return nil, apperrors.InvalidArgument("EMI plan is fully paid")
	}

	currency := req.Currency
	if currency == "" {
		currency = "inr"
	}

	// Stripe wants the smallest currency unit
	amountInSubunits := int64(emi.MonthlyInstallment * 100)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInSubunits),
		Currency: stripe.String(currency),
	}
	params.AddMetadata("end_user_id", req.EndUserID.String())
	params.AddMetadata("retailer_id", retailerID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, apperrors.Internal("failed to create payment intent", err)
	}

	return &InstallmentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Amount:       emi.MonthlyInstallment,
		Status:       string(pi.Status),
	}, nil
}

// ConfirmInstallment checks the PaymentIntent with Stripe and, on
// success, advances the EMI schedule by one installment.
func (s *PaymentService) ConfirmInstallment(retailerID uuid.UUID, req *ConfirmInstallmentRequest) (*models.EMIPlan, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidArgument, "validation failed", err)
	}

	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return nil, apperrors.Internal("failed to get payment intent", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, apperrors.Newf(apperrors.KindInvalidArgument,
			"payment intent is %s, not succeeded", pi.Status)
	}

	emi, err := s.planForRetailer(retailerID, req.EndUserID)
	if err != nil {
		return nil, err
	}

	if emi.InstallmentsLeft <= 0 {
		return nil, apperrors.InvalidArgument("EMI plan is fully paid")
	}

	now := time.Now()
	emi.InstallmentsLeft--
	emi.AmountLeft -= emi.MonthlyInstallment
	if emi.AmountLeft < 0 {
		emi.AmountLeft = 0
	}
	emi.NextInstallmentAt = emi.NextInstallmentAt.Add(installmentPeriod)
	emi.LastPaymentRef = pi.ID
	emi.LastPaidAt = &now

	if err := s.db.Save(emi).Error; err != nil {
		return nil, apperrors.Internal("failed to update EMI plan", err)
	}

	return emi, nil
}

func (s *PaymentService) planForRetailer(retailerID, endUserID uuid.UUID) (*models.EMIPlan, error) {
	var endUser models.EndUser
	if err := s.db.First(&endUser, endUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("end user not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	if endUser.RetailerID != retailerID {
		return nil, apperrors.Forbidden(fmt.Sprintf("end user %s belongs to a different retailer", endUserID))
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
