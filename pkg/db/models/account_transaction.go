package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrisoko/farmhub-backend/pkg/enums"
)

// AccountTransaction is an append-only ledger movement against an account.
// BalanceAfter is computed from the balance read under the same row lock as
// the write, so concurrent settlements cannot lose updates.
type AccountTransaction struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID    uuid.UUID            `gorm:"column:account_id;type:uuid;not null;index"`
	PaymentID    uuid.UUID            `gorm:"column:payment_id;type:uuid;not null;index"`
	Direction    enums.EntryDirection `gorm:"column:direction;type:entry_direction;not null"`
	Amount       decimal.Decimal      `gorm:"column:amount;type:numeric(14,2);not null"`
	BalanceAfter decimal.Decimal      `gorm:"column:balance_after;type:numeric(14,2);not null"`
	Memo         string               `gorm:"column:memo;type:text;not null"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
}
