package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrisoko/farmhub-backend/pkg/enums"
)

// Payout is the farmer-facing disbursement derived from a payment, net of the
// hub and system fees. Details carries the itemized breakdown for settlements
// spanning multiple lots.
type Payout struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID   uuid.UUID          `gorm:"column:payment_id;type:uuid;not null;index"`
	FarmerID    uuid.UUID          `gorm:"column:farmer_id;type:uuid;not null;index"`
	Amount      decimal.Decimal    `gorm:"column:amount;type:numeric(14,2);not null"`
	Status      enums.PayoutStatus `gorm:"column:status;type:payout_status;not null;default:'PENDING'"`
	ProviderRef *string            `gorm:"column:provider_ref;type:text"`
	Details     json.RawMessage    `gorm:"column:details;type:jsonb"`
	PaidAt      *time.Time         `gorm:"column:paid_at"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
