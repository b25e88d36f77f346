package models

import (
	"time"

	"github.com/google/uuid"
)

// Hub is a physical collection point managed by one clerk. The one-hub-per-
// manager rule is enforced at write time, not by a schema constraint.
type Hub struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null"`
	Location  string    `gorm:"column:location;type:text;not null"`
	ManagerID uuid.UUID `gorm:"column:manager_id;type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
