package hubs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrisoko/farmhub-backend/pkg/db/models"
	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
)

// Repository manages persistence for hubs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, hub *models.Hub) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Hub, error)
	FindByManagerID(ctx context.Context, managerID uuid.UUID) (*models.Hub, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a hub repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, hub *models.Hub) error {
	return r.db.WithContext(ctx).Create(hub).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Hub, error) {
	var hub models.Hub
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&hub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "hub not found")
		}
		return nil, err
	}
	return &hub, nil
}

// FindByManagerID resolves the hub a clerk manages. One clerk manages at most
// one hub; a clerk with no hub cannot register direct sales.
func (r *repository) FindByManagerID(ctx context.Context, managerID uuid.UUID) (*models.Hub, error) {
	var hub models.Hub
	err := r.db.WithContext(ctx).
		Where("manager_id = ?", managerID).
		Order("created_at ASC").
		First(&hub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "clerk does not manage a hub")
		}
		return nil, err
	}
	return &hub, nil
}
