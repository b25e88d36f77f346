package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agrisoko/farmhub-backend/pkg/db/models"
	"github.com/agrisoko/farmhub-backend/pkg/enums"
	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	ddl := []string{
		`CREATE TABLE lots (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			farmer_id TEXT NOT NULL,
			hub_id TEXT NOT NULL,
			produce_name TEXT NOT NULL,
			category TEXT NOT NULL,
			quantity NUMERIC NOT NULL,
			unit TEXT NOT NULL,
			price_per_unit NUMERIC NOT NULL,
			status TEXT NOT NULL DEFAULT 'AVAILABLE',
			expiry_date DATETIME,
			notes TEXT,
			posted_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE orders (
			id TEXT PRIMARY KEY,
			buyer_id TEXT NOT NULL,
			hub_id TEXT NOT NULL,
			total_amount NUMERIC NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			paid_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE order_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			lot_id TEXT NOT NULL,
			quantity NUMERIC NOT NULL,
			unit_price NUMERIC NOT NULL,
			subtotal NUMERIC NOT NULL,
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

func seedLot(t *testing.T, db *gorm.DB, hubID uuid.UUID, qty, price string) models.Lot {
	t.Helper()
	lot := models.Lot{
		ID:           uuid.New(),
		Code:         "LOT-" + uuid.NewString()[:8],
		FarmerID:     uuid.New(),
		HubID:        hubID,
		ProduceName:  "maize",
		Category:     "grain",
		Quantity:     d(qty),
		Unit:         "kg",
		PricePerUnit: d(price),
		Status:       enums.LotStatusAvailable,
	}
	if err := db.Create(&lot).Error; err != nil {
		t.Fatalf("seed lot: %v", err)
	}
	return lot
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(gormTxRunner{db: db}, NewRepository(db), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateOrderSnapshotsPricesAndReserves(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	hubID := uuid.New()
	buyerID := uuid.New()

	lotA := seedLot(t, db, hubID, "50.000", "13.00")
	lotB := seedLot(t, db, hubID, "20.000", "8.50")

	order, err := svc.Create(ctx, buyerID, CreateOrderInput{Items: []OrderItemInput{
		{LotID: lotA.ID, Quantity: d("30.000")},
		{LotID: lotB.ID, Quantity: d("20.000")},
	}})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if !order.TotalAmount.Equal(d("560.00")) {
		t.Fatalf("expected total 560.00, got %s", order.TotalAmount)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}
	for _, item := range order.Items {
		if !item.Subtotal.Equal(item.UnitPrice.Mul(item.Quantity).Round(2)) {
			t.Fatalf("item subtotal mismatch: %+v", item)
		}
	}

	var gotA, gotB models.Lot
	if err := db.First(&gotA, "id = ?", lotA.ID).Error; err != nil {
		t.Fatalf("load lot a: %v", err)
	}
	if err := db.First(&gotB, "id = ?", lotB.ID).Error; err != nil {
		t.Fatalf("load lot b: %v", err)
	}
	if !gotA.Quantity.Equal(d("20.000")) {
		t.Fatalf("expected lot a decremented to 20.000, got %s", gotA.Quantity)
	}
	if gotB.Status != enums.LotStatusReserved {
		t.Fatalf("expected lot b reserved, got %s", gotB.Status)
	}
}

func TestCreateOrderFailsWholeOrderOnShortfall(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	hubID := uuid.New()

	lotA := seedLot(t, db, hubID, "50.000", "13.00")
	lotB := seedLot(t, db, hubID, "5.000", "8.50")

	_, err := svc.Create(ctx, uuid.New(), CreateOrderInput{Items: []OrderItemInput{
		{LotID: lotA.ID, Quantity: d("10.000")},
		{LotID: lotB.ID, Quantity: d("6.000")},
	}})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	var count int64
	if err := db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no orders after rollback, got %d", count)
	}

	var gotA models.Lot
	if err := db.First(&gotA, "id = ?", lotA.ID).Error; err != nil {
		t.Fatalf("load lot a: %v", err)
	}
	if !gotA.Quantity.Equal(d("50.000")) {
		t.Fatalf("expected lot a untouched, got %s", gotA.Quantity)
	}
}

func TestCreateOrderRejectsEmptyAndCrossHub(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	_, err := svc.Create(ctx, uuid.New(), CreateOrderInput{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty order, got %v", err)
	}

	lotA := seedLot(t, db, uuid.New(), "10.000", "5.00")
	lotB := seedLot(t, db, uuid.New(), "10.000", "5.00")
	_, err = svc.Create(ctx, uuid.New(), CreateOrderInput{Items: []OrderItemInput{
		{LotID: lotA.ID, Quantity: d("1.000")},
		{LotID: lotB.ID, Quantity: d("1.000")},
	}})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for cross-hub order, got %v", err)
	}
}

func TestGetForBuyerScopesOwnership(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	hubID := uuid.New()
	buyerID := uuid.New()

	lot := seedLot(t, db, hubID, "10.000", "5.00")
	order, err := svc.Create(ctx, buyerID, CreateOrderInput{Items: []OrderItemInput{
		{LotID: lot.ID, Quantity: d("2.000")},
	}})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	got, err := svc.GetForBuyer(ctx, order.ID, buyerID)
	if err != nil {
		t.Fatalf("get for buyer: %v", err)
	}
	if got.ID != order.ID || len(got.Items) != 1 {
		t.Fatalf("unexpected order detail: %+v", got)
	}

	_, err = svc.GetForBuyer(ctx, order.ID, uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for another buyer, got %v", err)
	}
}
