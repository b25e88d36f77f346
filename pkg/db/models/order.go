package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrisoko/farmhub-backend/pkg/enums"
)

// Order aggregates the items a buyer committed to at a hub. For direct clerk
// registrations the buyer id is the clerk acting as the internal buyer.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID     uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null"`
	HubID       uuid.UUID         `gorm:"column:hub_id;type:uuid;not null"`
	TotalAmount decimal.Decimal   `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'PENDING'"`
	PaidAt      *time.Time        `gorm:"column:paid_at"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
