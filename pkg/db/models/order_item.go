package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem captures the quantity and price snapshot of one lot within an
// order. UnitPrice is the lot price at order time, not the live lot price.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	LotID     uuid.UUID       `gorm:"column:lot_id;type:uuid;not null;index"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(14,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
