package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agrisoko/farmhub-backend/pkg/db/models"
	"github.com/agrisoko/farmhub-backend/pkg/enums"
	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
)

// ReservationRequest asks for a quantity from one lot.
type ReservationRequest struct {
	LotID    uuid.UUID
	Quantity decimal.Decimal
}

// ReservationResult reports the state of a lot after its quantity was taken.
type ReservationResult struct {
	Lot       models.Lot
	Taken     decimal.Decimal
	Remaining decimal.Decimal
}

// ReserveLots locks the requested lots and decrements their quantities inside
// the caller's transaction. Lots are locked in ascending id order so two
// concurrent orders touching the same lots cannot deadlock. Any shortfall
// fails the whole reservation; the caller's rollback restores every lot.
func ReserveLots(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]ReservationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reservation requires a transaction")
	}
	if len(requests) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one lot is required")
	}

	merged := make(map[uuid.UUID]decimal.Decimal, len(requests))
	for _, req := range requests {
		if req.LotID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot id is required")
		}
		if req.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "requested quantity must be positive")
		}
		merged[req.LotID] = merged[req.LotID].Add(req.Quantity)
	}

	ids := make([]uuid.UUID, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	results := make([]ReservationResult, 0, len(ids))
	for _, id := range ids {
		var lot models.Lot
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&lot).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("lot %s not found", id))
		}
		if err != nil {
			return nil, err
		}

		if lot.Status != enums.LotStatusAvailable {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("lot %s is %s", lot.Code, lot.Status)).
				WithDetails(map[string]any{"lot_id": lot.ID, "status": lot.Status})
		}

		wanted := merged[id]
		if lot.Quantity.LessThan(wanted) {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("lot %s has %s, requested %s", lot.Code, lot.Quantity, wanted)).
				WithDetails(map[string]any{
					"lot_id":    lot.ID,
					"available": lot.Quantity,
					"requested": wanted,
				})
		}

		remaining := lot.Quantity.Sub(wanted)
		updates := map[string]any{"quantity": remaining}
		if remaining.IsZero() {
			updates["status"] = enums.LotStatusReserved
		}
		if err := tx.WithContext(ctx).
			Model(&models.Lot{}).
			Where("id = ?", lot.ID).
			Updates(updates).Error; err != nil {
			return nil, err
		}

		lot.Quantity = remaining
		if remaining.IsZero() {
			lot.Status = enums.LotStatusReserved
		}
		results = append(results, ReservationResult{
			Lot:       lot,
			Taken:     wanted,
			Remaining: remaining,
		})
	}
	return results, nil
}
