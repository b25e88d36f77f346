package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agrisoko/farmhub-backend/pkg/enums"
	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:ledger_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	ddl := []string{
		`CREATE TABLE accounts (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL UNIQUE,
			balance NUMERIC NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE account_transactions (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			payment_id TEXT NOT NULL,
			direction TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			balance_after NUMERIC NOT NULL,
			memo TEXT NOT NULL,
			created_at DATETIME
		)`,
	}
	for _, stmt := range ddl {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func TestRecordCreatesAccountAndMovement(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	owner := uuid.New()
	paymentID := uuid.New()

	err = db.Transaction(func(tx *gorm.DB) error {
		movement, terr := svc.Record(ctx, tx, MovementInput{
			OwnerID:   owner,
			PaymentID: paymentID,
			Direction: enums.EntryDirectionCredit,
			Amount:    d("552.50"),
			Memo:      "farmer share",
		})
		if terr != nil {
			return terr
		}
		if !movement.BalanceAfter.Equal(d("552.50")) {
			t.Fatalf("expected balance after 552.50, got %s", movement.BalanceAfter)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("record credit: %v", err)
	}

	balance, err := svc.BalanceOf(ctx, owner)
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	if !balance.Equal(d("552.50")) {
		t.Fatalf("expected balance 552.50, got %s", balance)
	}
}

func TestRecordDebitAndCreditSequence(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	buyer := uuid.New()
	hubManager := uuid.New()
	paymentID := uuid.New()

	err = db.Transaction(func(tx *gorm.DB) error {
		if _, terr := svc.Record(ctx, tx, MovementInput{
			OwnerID:   buyer,
			PaymentID: paymentID,
			Direction: enums.EntryDirectionDebit,
			Amount:    d("650.00"),
			Memo:      "order payment",
		}); terr != nil {
			return terr
		}
		if _, terr := svc.Record(ctx, tx, MovementInput{
			OwnerID:   hubManager,
			PaymentID: paymentID,
			Direction: enums.EntryDirectionCredit,
			Amount:    d("32.50"),
			Memo:      "hub fee",
		}); terr != nil {
			return terr
		}
		return nil
	})
	if err != nil {
		t.Fatalf("record movements: %v", err)
	}

	buyerBalance, err := svc.BalanceOf(ctx, buyer)
	if err != nil {
		t.Fatalf("buyer balance: %v", err)
	}
	if !buyerBalance.Equal(d("-650.00")) {
		t.Fatalf("expected buyer balance -650.00, got %s", buyerBalance)
	}

	movements, err := svc.ListByPaymentID(ctx, paymentID)
	if err != nil {
		t.Fatalf("list by payment: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}
}

func TestRecordValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	cases := []MovementInput{
		{OwnerID: uuid.Nil, PaymentID: uuid.New(), Direction: enums.EntryDirectionDebit, Amount: d("1")},
		{OwnerID: uuid.New(), PaymentID: uuid.Nil, Direction: enums.EntryDirectionDebit, Amount: d("1")},
		{OwnerID: uuid.New(), PaymentID: uuid.New(), Direction: "sideways", Amount: d("1")},
		{OwnerID: uuid.New(), PaymentID: uuid.New(), Direction: enums.EntryDirectionCredit, Amount: d("0")},
	}
	for _, input := range cases {
		rerr := db.Transaction(func(tx *gorm.DB) error {
			_, terr := svc.Record(ctx, tx, input)
			return terr
		})
		typed := pkgerrors.As(rerr)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", input, rerr)
		}
	}

	if _, err := svc.Record(ctx, nil, MovementInput{}); err == nil {
		t.Fatal("expected error without transaction")
	}
}

func TestBalanceOfUnknownOwnerIsZero(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	balance, err := svc.BalanceOf(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", balance)
	}
}
