package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrisoko/farmhub-backend/pkg/enums"
)

// Lot represents a farmer's delivered batch of produce available at a hub.
// Quantity is mutated only by order creation under a row lock; the status
// moves to RESERVED when the remaining quantity reaches zero.
type Lot struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code         string          `gorm:"column:code;type:text;not null;uniqueIndex"`
	FarmerID     uuid.UUID       `gorm:"column:farmer_id;type:uuid;not null"`
	HubID        uuid.UUID       `gorm:"column:hub_id;type:uuid;not null"`
	ProduceName  string          `gorm:"column:produce_name;type:text;not null"`
	Category     string          `gorm:"column:category;type:text;not null"`
	Quantity     decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null"`
	Unit         string          `gorm:"column:unit;type:text;not null"`
	PricePerUnit decimal.Decimal `gorm:"column:price_per_unit;type:numeric(14,2);not null"`
	Status       enums.LotStatus `gorm:"column:status;type:lot_status;not null;default:'AVAILABLE'"`
	ExpiryDate   *time.Time      `gorm:"column:expiry_date"`
	Notes        *string         `gorm:"column:notes"`
	PostedAt     time.Time       `gorm:"column:posted_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
