package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agrisoko/farmhub-backend/internal/inventory"
	"github.com/agrisoko/farmhub-backend/pkg/db/models"
	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
	"github.com/agrisoko/farmhub-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type reservationRunner interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) ([]inventory.ReservationResult, error)
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) ([]inventory.ReservationResult, error) {
	return inventory.ReserveLots(ctx, tx, requests)
}

// Service defines order operations.
type Service interface {
	Create(ctx context.Context, buyerID uuid.UUID, input CreateOrderInput) (*models.Order, error)
	GetForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
}

// CreateOrderInput carries the buyer's requested lots and quantities.
type CreateOrderInput struct {
	Items []OrderItemInput
}

// OrderItemInput is one lot/quantity pair within a new order.
type OrderItemInput struct {
	LotID    uuid.UUID
	Quantity decimal.Decimal
}

type service struct {
	tx          txRunner
	repo        Repository
	reservation reservationRunner
}

// NewService builds the orders service.
func NewService(tx txRunner, repo Repository, reservation reservationRunner) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if reservation == nil {
		reservation = reservationEngine{}
	}
	return &service{tx: tx, repo: repo, reservation: reservation}, nil
}

// Create reserves the requested lot quantities and records the order with
// price snapshots, all inside one transaction. A shortfall on any lot fails
// the whole order and releases everything.
func (s *service) Create(ctx context.Context, buyerID uuid.UUID, input CreateOrderInput) (*models.Order, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order contains no items")
	}

	requests := make([]inventory.ReservationRequest, len(input.Items))
	for i, item := range input.Items {
		requests[i] = inventory.ReservationRequest{LotID: item.LotID, Quantity: item.Quantity}
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		reservations, err := s.reservation.Reserve(ctx, tx, requests)
		if err != nil {
			return err
		}

		lotsByID := make(map[uuid.UUID]models.Lot, len(reservations))
		var hubID uuid.UUID
		for _, res := range reservations {
			lotsByID[res.Lot.ID] = res.Lot
			if hubID == uuid.Nil {
				hubID = res.Lot.HubID
			} else if hubID != res.Lot.HubID {
				return pkgerrors.New(pkgerrors.CodeValidation, "all lots in an order must belong to one hub")
			}
		}

		order := &models.Order{ID: uuid.New(), BuyerID: buyerID, HubID: hubID}
		items := make([]models.OrderItem, 0, len(input.Items))
		total := decimal.Zero
		for _, item := range input.Items {
			lot := lotsByID[item.LotID]
			subtotal := lot.PricePerUnit.Mul(item.Quantity).Round(2)
			items = append(items, models.OrderItem{
				ID:        uuid.New(),
				OrderID:   order.ID,
				LotID:     lot.ID,
				Quantity:  item.Quantity,
				UnitPrice: lot.PricePerUnit,
				Subtotal:  subtotal,
			})
			total = total.Add(subtotal)
		}
		order.TotalAmount = total

		if err := repo.Create(ctx, order); err != nil {
			return err
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return err
		}

		result, err = repo.FindDetail(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil || buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and buyer id required")
	}
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if buyerID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	return s.repo.ListByBuyer(ctx, buyerID, params)
}
