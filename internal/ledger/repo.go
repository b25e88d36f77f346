package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agrisoko/farmhub-backend/pkg/db/models"
)

// Repository manages persistence for accounts and their ledger movements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindAccountByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Account, error)
	FindAccountByOwnerForUpdate(ctx context.Context, ownerID uuid.UUID) (*models.Account, error)
	CreateAccount(ctx context.Context, account *models.Account) error
	UpdateAccountBalance(ctx context.Context, account *models.Account) error
	CreateTransaction(ctx context.Context, movement *models.AccountTransaction) error
	ListTransactionsByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]models.AccountTransaction, error)
	ListTransactionsByAccountID(ctx context.Context, accountID uuid.UUID) ([]models.AccountTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindAccountByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindAccountByOwnerForUpdate(ctx context.Context, ownerID uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ?", ownerID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) CreateAccount(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) UpdateAccountBalance(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", account.ID).
		Update("balance", account.Balance).Error
}

func (r *repository) CreateTransaction(ctx context.Context, movement *models.AccountTransaction) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListTransactionsByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]models.AccountTransaction, error) {
	var movements []models.AccountTransaction
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) ListTransactionsByAccountID(ctx context.Context, accountID uuid.UUID) ([]models.AccountTransaction, error) {
	var movements []models.AccountTransaction
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
