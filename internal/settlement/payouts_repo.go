package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agrisoko/farmhub-backend/pkg/db/models"
	"github.com/agrisoko/farmhub-backend/pkg/enums"
	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
	"github.com/agrisoko/farmhub-backend/pkg/pagination"
)

// PayoutsRepository persists farmer disbursements.
type PayoutsRepository interface {
	WithTx(tx *gorm.DB) PayoutsRepository
	Create(ctx context.Context, payout *models.Payout) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	MarkSent(ctx context.Context, id uuid.UUID, providerRef string, paidAt time.Time) error
	ListByFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) ([]models.Payout, string, error)
	ListPendingByHub(ctx context.Context, hubID uuid.UUID, params pagination.Params) ([]models.Payout, string, error)
}

type payoutsRepository struct {
	db *gorm.DB
}

// NewPayoutsRepository builds a gorm-backed payouts repository.
func NewPayoutsRepository(db *gorm.DB) PayoutsRepository {
	return &payoutsRepository{db: db}
}

func (r *payoutsRepository) WithTx(tx *gorm.DB) PayoutsRepository {
	if tx == nil {
		return r
	}
	return &payoutsRepository{db: tx}
}

func (r *payoutsRepository) Create(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *payoutsRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	return r.findByID(ctx, r.db.WithContext(ctx), id)
}

// FindByIDForUpdate locks the payout row so concurrent processing attempts
// serialize and the loser observes the SENT status.
func (r *payoutsRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	qb := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.findByID(ctx, qb, id)
}

func (r *payoutsRepository) findByID(_ context.Context, qb *gorm.DB, id uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	if err := qb.First(&payout, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
		}
		return nil, err
	}
	return &payout, nil
}

func (r *payoutsRepository) MarkSent(ctx context.Context, id uuid.UUID, providerRef string, paidAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ? AND status = ?", id, enums.PayoutStatusPending).
		Updates(map[string]any{
			"status":       enums.PayoutStatusSent,
			"provider_ref": providerRef,
			"paid_at":      paidAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payout is not pending")
	}
	return nil
}

func (r *payoutsRepository) ListByFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) ([]models.Payout, string, error) {
	qb := r.db.WithContext(ctx).Where("farmer_id = ?", farmerID)
	return r.listPage(qb, params)
}

// ListPendingByHub is the clerk's processing queue: pending payouts whose
// originating order belongs to the given hub.
func (r *payoutsRepository) ListPendingByHub(ctx context.Context, hubID uuid.UUID, params pagination.Params) ([]models.Payout, string, error) {
	qb := r.db.WithContext(ctx).
		Joins("JOIN payments ON payments.id = payouts.payment_id").
		Joins("JOIN orders ON orders.id = payments.order_id").
		Where("orders.hub_id = ? AND payouts.status = ?", hubID, enums.PayoutStatusPending)
	return r.listPage(qb, params)
}

func (r *payoutsRepository) listPage(qb *gorm.DB, params pagination.Params) ([]models.Payout, string, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		qb = qb.Where("(payouts.created_at < ?) OR (payouts.created_at = ? AND payouts.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var payouts []models.Payout
	if err := qb.Order("payouts.created_at DESC").Order("payouts.id DESC").Limit(limitWithBuffer).Find(&payouts).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(payouts) > pageSize {
		payouts = payouts[:pageSize]
		last := payouts[len(payouts)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return payouts, nextCursor, nil
}
