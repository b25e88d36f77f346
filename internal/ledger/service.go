package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agrisoko/farmhub-backend/pkg/db/models"
	"github.com/agrisoko/farmhub-backend/pkg/enums"
	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
)

// Service records balance movements against owner accounts.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.AccountTransaction, error)
	BalanceOf(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error)
	ListByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]models.AccountTransaction, error)
}

// MovementInput captures one ledger movement before it is applied.
type MovementInput struct {
	OwnerID   uuid.UUID
	PaymentID uuid.UUID
	Direction enums.EntryDirection
	Amount    decimal.Decimal
	Memo      string
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

// Record applies a movement inside the caller's transaction. The account row
// is locked before the balance read so concurrent settlements serialize.
func (s *service) Record(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.AccountTransaction, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger movements require a transaction")
	}
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	if !input.Direction.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid entry direction %q", input.Direction))
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "movement amount must be positive")
	}

	repo := s.repo.WithTx(tx)
	account, err := repo.FindAccountByOwnerForUpdate(ctx, input.OwnerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = &models.Account{ID: uuid.New(), OwnerID: input.OwnerID, Balance: decimal.Zero}
		if cerr := repo.CreateAccount(ctx, account); cerr != nil {
			return nil, cerr
		}
	} else if err != nil {
		return nil, err
	}

	balance := account.Balance
	switch input.Direction {
	case enums.EntryDirectionDebit:
		balance = balance.Sub(input.Amount)
	case enums.EntryDirectionCredit:
		balance = balance.Add(input.Amount)
	}

	account.Balance = balance
	if err := repo.UpdateAccountBalance(ctx, account); err != nil {
		return nil, err
	}

	movement := &models.AccountTransaction{
		ID:           uuid.New(),
		AccountID:    account.ID,
		PaymentID:    input.PaymentID,
		Direction:    input.Direction,
		Amount:       input.Amount,
		BalanceAfter: balance,
		Memo:         input.Memo,
	}
	if err := repo.CreateTransaction(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *service) BalanceOf(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error) {
	if ownerID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	account, err := s.repo.FindAccountByOwner(ctx, ownerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

func (s *service) ListByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]models.AccountTransaction, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	return s.repo.ListTransactionsByPaymentID(ctx, paymentID)
}
