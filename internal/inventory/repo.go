package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrisoko/farmhub-backend/pkg/db/models"
	"github.com/agrisoko/farmhub-backend/pkg/enums"
	"github.com/agrisoko/farmhub-backend/pkg/pagination"
)

// Repository manages persistence for produce lots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, lot *models.Lot) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lot, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Lot, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.LotStatus) error
	ListByFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) ([]models.Lot, string, error)
	ListByHub(ctx context.Context, hubID uuid.UUID, status *enums.LotStatus, params pagination.Params) ([]models.Lot, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a lot repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, lot *models.Lot) error {
	return r.db.WithContext(ctx).Create(lot).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Lot, error) {
	var lot models.Lot
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&lot).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Lot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var lots []models.Lot
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.LotStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Lot{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) ListByFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) ([]models.Lot, string, error) {
	qb := r.db.WithContext(ctx).Where("farmer_id = ?", farmerID)
	return r.listPage(ctx, qb, params)
}

func (r *repository) ListByHub(ctx context.Context, hubID uuid.UUID, status *enums.LotStatus, params pagination.Params) ([]models.Lot, string, error) {
	qb := r.db.WithContext(ctx).Where("hub_id = ?", hubID)
	if status != nil {
		qb = qb.Where("status = ?", *status)
	}
	return r.listPage(ctx, qb, params)
}

func (r *repository) listPage(ctx context.Context, qb *gorm.DB, params pagination.Params) ([]models.Lot, string, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		qb = qb.Where("(posted_at < ?) OR (posted_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var lots []models.Lot
	if err := qb.Order("posted_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&lots).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(lots) > pageSize {
		lots = lots[:pageSize]
		last := lots[len(lots)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.PostedAt, ID: last.ID})
	}
	return lots, nextCursor, nil
}
