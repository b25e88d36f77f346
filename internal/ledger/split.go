package ledger

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
)

// Breakdown is the three-way division of a settled payment. The parts always
// sum exactly to the total they were derived from.
type Breakdown struct {
	SystemFee    decimal.Decimal
	HubFee       decimal.Decimal
	FarmerAmount decimal.Decimal
}

// SplitProceeds divides a checkout payment between the platform, the hub, and
// the farmers. Fees are rounded to two decimal places and the farmer share is
// the exact remainder, so no cent is created or lost.
func SplitProceeds(total, systemRate, hubRate decimal.Decimal) (Breakdown, error) {
	if total.LessThanOrEqual(decimal.Zero) {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "settlement total must be positive")
	}
	systemFee := total.Mul(systemRate).Round(2)
	hubFee := total.Mul(hubRate).Round(2)
	farmer := total.Sub(systemFee).Sub(hubFee)
	if farmer.LessThan(decimal.Zero) {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "fee rates exceed the settlement total")
	}
	return Breakdown{SystemFee: systemFee, HubFee: hubFee, FarmerAmount: farmer}, nil
}

// SplitDirect divides a direct hub sale between the hub and the farmer. No
// platform fee applies at the hub counter.
func SplitDirect(total, hubRate decimal.Decimal) (Breakdown, error) {
	if total.LessThanOrEqual(decimal.Zero) {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "sale total must be positive")
	}
	hubFee := total.Mul(hubRate).Round(2)
	farmer := total.Sub(hubFee)
	if farmer.LessThan(decimal.Zero) {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "hub fee exceeds the sale total")
	}
	return Breakdown{HubFee: hubFee, FarmerAmount: farmer}, nil
}

// Allocation assigns one recipient's share of a divided amount.
type Allocation struct {
	Amount decimal.Decimal
}

// AllocateAcross divides amount across recipients in proportion to their
// weights. Each share is rounded to two decimal places and the final
// recipient absorbs the rounding remainder, so the shares sum exactly to
// amount. The weights slice must be non-empty with positive entries.
func AllocateAcross(amount decimal.Decimal, weights []decimal.Decimal) ([]decimal.Decimal, error) {
	if len(weights) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one recipient is required")
	}
	if amount.LessThan(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "allocation amount cannot be negative")
	}
	totalWeight := decimal.Zero
	for _, w := range weights {
		if w.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "allocation weights must be positive")
		}
		totalWeight = totalWeight.Add(w)
	}

	shares := make([]decimal.Decimal, len(weights))
	allocated := decimal.Zero
	for i, w := range weights {
		if i == len(weights)-1 {
			shares[i] = amount.Sub(allocated)
			break
		}
		share := amount.Mul(w).Div(totalWeight).Round(2)
		shares[i] = share
		allocated = allocated.Add(share)
	}
	if shares[len(shares)-1].LessThan(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rounding left a negative final share")
	}
	return shares, nil
}
