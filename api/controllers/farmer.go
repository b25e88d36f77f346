package controllers

import (
	"net/http"

	"github.com/agrisoko/farmhub-backend/api/responses"
	"github.com/agrisoko/farmhub-backend/api/validators"
	"github.com/agrisoko/farmhub-backend/internal/inventory"
	"github.com/agrisoko/farmhub-backend/internal/settlement"
	"github.com/agrisoko/farmhub-backend/pkg/logger"
)

// FarmerListLots returns the farmer's lots across hubs, newest first.
func FarmerListLots(lotsRepo inventory.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		farmerID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.PaginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, cursor, err := lotsRepo.ListByFarmer(r.Context(), farmerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": cursor})
	}
}

// FarmerListPayouts returns the farmer's payout history.
func FarmerListPayouts(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		farmerID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.PaginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, cursor, err := svc.ListPayoutsForFarmer(r.Context(), farmerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": cursor})
	}
}
