package settlement

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrisoko/farmhub-backend/pkg/db/models"
	"github.com/agrisoko/farmhub-backend/pkg/enums"
	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
)

// PaymentsRepository persists payment rows. ProviderRef uniqueness is
// enforced by the database; CreatePayment translates that violation into a
// typed duplicate-reference error so callers racing on the same reference
// get the same answer as the pre-check.
type PaymentsRepository interface {
	WithTx(tx *gorm.DB) PaymentsRepository
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByProviderRef(ctx context.Context, providerRef string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus, processedAt, paidAt *time.Time) error
}

type paymentsRepository struct {
	db *gorm.DB
}

// NewPaymentsRepository builds a gorm-backed payments repository.
func NewPaymentsRepository(db *gorm.DB) PaymentsRepository {
	return &paymentsRepository{db: db}
}

func (r *paymentsRepository) WithTx(tx *gorm.DB) PaymentsRepository {
	if tx == nil {
		return r
	}
	return &paymentsRepository{db: tx}
}

func (r *paymentsRepository) Create(ctx context.Context, payment *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		if isProviderRefConflict(err) {
			return pkgerrors.Wrap(pkgerrors.CodeDuplicateReference, err, "provider reference already used")
		}
		return err
	}
	return nil
}

func (r *paymentsRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, err
	}
	return &payment, nil
}

func (r *paymentsRepository) FindByProviderRef(ctx context.Context, providerRef string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "provider_ref = ?", providerRef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, err
	}
	return &payment, nil
}

func (r *paymentsRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus, processedAt, paidAt *time.Time) error {
	updates := map[string]any{"status": status}
	if processedAt != nil {
		updates["processed_at"] = *processedAt
	}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
	}
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return nil
}

func isProviderRefConflict(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "uq_payments_provider_ref") ||
		strings.Contains(msg, "unique constraint failed: payments.provider_ref")
}
