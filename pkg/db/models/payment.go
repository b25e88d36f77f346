package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrisoko/farmhub-backend/pkg/enums"
)

// Payment records one settlement attempt against an order. ProviderRef is the
// caller-supplied idempotency key and is globally unique. The fee columns
// always satisfy Amount = SystemFee + HubFee + FarmerAmount.
type Payment struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	PayerID      uuid.UUID           `gorm:"column:payer_id;type:uuid;not null"`
	Amount       decimal.Decimal     `gorm:"column:amount;type:numeric(14,2);not null"`
	SystemFee    decimal.Decimal     `gorm:"column:system_fee;type:numeric(14,2);not null;default:0"`
	HubFee       decimal.Decimal     `gorm:"column:hub_fee;type:numeric(14,2);not null;default:0"`
	FarmerAmount decimal.Decimal     `gorm:"column:farmer_amount;type:numeric(14,2);not null;default:0"`
	Method       enums.PaymentMethod `gorm:"column:method;type:payment_method;not null"`
	Status       enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'PENDING'"`
	ProviderRef  string              `gorm:"column:provider_ref;type:text;not null;uniqueIndex:uq_payments_provider_ref"`
	ProcessedAt  *time.Time          `gorm:"column:processed_at"`
	PaidAt       *time.Time          `gorm:"column:paid_at"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
