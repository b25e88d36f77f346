package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrisoko/farmhub-backend/api/responses"
	"github.com/agrisoko/farmhub-backend/api/validators"
	"github.com/agrisoko/farmhub-backend/internal/orders"
	"github.com/agrisoko/farmhub-backend/internal/settlement"
	"github.com/agrisoko/farmhub-backend/pkg/enums"
	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
	"github.com/agrisoko/farmhub-backend/pkg/logger"
)

type createOrderRequest struct {
	Items []orderItemRequest `json:"items" validate:"required,min=1,max=50,dive"`
}

type orderItemRequest struct {
	LotID    string `json:"lotId" validate:"required,uuid"`
	Quantity string `json:"quantity" validate:"required"`
}

type initiatePaymentRequest struct {
	Method      string `json:"method" validate:"required,oneof=MOBILE_MONEY BANK_TRANSFER CASH"`
	ProviderRef string `json:"providerRef" validate:"required,min=4,max=128"`
}

// BuyerCreateOrder reserves the requested lots and opens a pending order.
func BuyerCreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.CreateOrderInput{Items: make([]orders.OrderItemInput, 0, len(body.Items))}
		for _, item := range body.Items {
			lotID, err := uuid.Parse(item.LotID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "lotId must be a valid uuid"))
				return
			}
			qty, err := decimal.NewFromString(item.Quantity)
			if err != nil || qty.IsNegative() || qty.IsZero() {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive decimal"))
				return
			}
			input.Items = append(input.Items, orders.OrderItemInput{LotID: lotID, Quantity: qty})
		}

		order, err := svc.Create(r.Context(), buyerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// BuyerListOrders returns the buyer's orders newest first.
func BuyerListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.PaginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, cursor, err := svc.ListForBuyer(r.Context(), buyerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": cursor})
	}
}

func BuyerOrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForBuyer(r.Context(), orderID, buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// BuyerInitiatePayment charges the buyer for a pending order and, on
// success, settles the proceeds across the platform, hub, and farmers.
func BuyerInitiatePayment(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body initiatePaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SettleCheckout(r.Context(), settlement.CheckoutInput{
			OrderID:     orderID,
			BuyerID:     buyerID,
			Method:      enums.PaymentMethod(body.Method),
			ProviderRef: body.ProviderRef,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
