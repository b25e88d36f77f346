package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrisoko/farmhub-backend/api/responses"
	"github.com/agrisoko/farmhub-backend/api/validators"
	"github.com/agrisoko/farmhub-backend/internal/hubs"
	"github.com/agrisoko/farmhub-backend/internal/inventory"
	"github.com/agrisoko/farmhub-backend/internal/settlement"
	"github.com/agrisoko/farmhub-backend/pkg/enums"
	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
	"github.com/agrisoko/farmhub-backend/pkg/logger"
)

type directSaleRequest struct {
	FarmerID     string  `json:"farmerId" validate:"required,uuid"`
	ProduceName  string  `json:"produceName" validate:"required,min=2,max=120"`
	Category     string  `json:"category" validate:"required,min=2,max=60"`
	Quantity     string  `json:"quantity" validate:"required"`
	Unit         string  `json:"unit" validate:"required,min=1,max=20"`
	PricePerUnit string  `json:"pricePerUnit" validate:"required"`
	Method       string  `json:"method" validate:"required,oneof=MOBILE_MONEY BANK_TRANSFER CASH"`
	ExpiryDate   *string `json:"expiryDate,omitempty"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type processPayoutRequest struct {
	ProviderRef string `json:"providerRef" validate:"omitempty,min=4,max=128"`
}

// ClerkRegisterDirectSale records a walk-in sale of a farmer's delivery and
// settles it immediately, hub fee withheld and the payout marked sent.
func ClerkRegisterDirectSale(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clerkID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body directSaleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		farmerID, err := uuid.Parse(body.FarmerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "farmerId must be a valid uuid"))
			return
		}
		qty, err := decimal.NewFromString(body.Quantity)
		if err != nil || !qty.IsPositive() {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive decimal"))
			return
		}
		price, err := decimal.NewFromString(body.PricePerUnit)
		if err != nil || !price.IsPositive() {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "pricePerUnit must be a positive decimal"))
			return
		}

		var expiry *time.Time
		if body.ExpiryDate != nil && *body.ExpiryDate != "" {
			parsed, err := time.Parse(time.RFC3339, *body.ExpiryDate)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "expiryDate must be an RFC3339 timestamp"))
				return
			}
			expiry = &parsed
		}

		result, err := svc.RegisterDirectSale(r.Context(), clerkID, settlement.DirectSaleInput{
			FarmerID:     farmerID,
			ProduceName:  body.ProduceName,
			Category:     body.Category,
			Quantity:     qty,
			Unit:         body.Unit,
			PricePerUnit: price,
			Method:       enums.PaymentMethod(body.Method),
			ExpiryDate:   expiry,
			Notes:        body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ClerkProcessPayout disburses a pending payout from the clerk's hub.
func ClerkProcessPayout(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clerkID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payoutID, err := pathUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// The body is optional, the gateway reference is used when absent.
		var body processPayoutRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		payout, err := svc.ProcessPayout(r.Context(), clerkID, payoutID, body.ProviderRef)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payout)
	}
}

// ClerkListPendingPayouts returns the hub's payout queue.
func ClerkListPendingPayouts(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clerkID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.PaginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, cursor, err := svc.ListPendingPayoutsForClerk(r.Context(), clerkID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": cursor})
	}
}

// ClerkListLots returns the hub's inventory, optionally filtered by status.
func ClerkListLots(hubsRepo hubs.Repository, lotsRepo inventory.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clerkID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.PaginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.LotStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := enums.ParseLotStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "status must be a valid lot status"))
				return
			}
			status = &parsed
		}

		hub, err := hubsRepo.FindByManagerID(r.Context(), clerkID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, cursor, err := lotsRepo.ListByHub(r.Context(), hub.ID, status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": cursor})
	}
}
