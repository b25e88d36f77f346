package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agrisoko/farmhub-backend/internal/hubs"
	"github.com/agrisoko/farmhub-backend/internal/inventory"
	"github.com/agrisoko/farmhub-backend/internal/ledger"
	"github.com/agrisoko/farmhub-backend/internal/notifications"
	"github.com/agrisoko/farmhub-backend/internal/orders"
	"github.com/agrisoko/farmhub-backend/internal/users"
	"github.com/agrisoko/farmhub-backend/pkg/config"
	"github.com/agrisoko/farmhub-backend/pkg/db/models"
	"github.com/agrisoko/farmhub-backend/pkg/enums"
	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
	"github.com/agrisoko/farmhub-backend/pkg/gateway"
	"github.com/agrisoko/farmhub-backend/pkg/logger"
	"github.com/agrisoko/farmhub-backend/pkg/metrics"
	"github.com/agrisoko/farmhub-backend/pkg/pagination"
)

const (
	flowCheckout = "checkout"
	flowDirect   = "direct"
	flowPayout   = "payout"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input ledger.MovementInput) (*models.AccountTransaction, error)
}

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, input notifications.NotifyInput) error
}

// Service executes the two settlement workflows and payout processing. The
// buyer checkout flow and the clerk direct-sale flow stay separate on purpose:
// they differ in who pays, when the gateway is consulted, and whether the
// payout starts PENDING or SENT.
type Service interface {
	SettleCheckout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	RegisterDirectSale(ctx context.Context, clerkID uuid.UUID, input DirectSaleInput) (*DirectSaleResult, error)
	ProcessPayout(ctx context.Context, clerkID, payoutID uuid.UUID, providerRef string) (*models.Payout, error)
	ListPayoutsForFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) ([]models.Payout, string, error)
	ListPendingPayoutsForClerk(ctx context.Context, clerkID uuid.UUID, params pagination.Params) ([]models.Payout, string, error)
}

// CheckoutInput is the buyer's request to settle a pending order.
type CheckoutInput struct {
	OrderID     uuid.UUID
	BuyerID     uuid.UUID
	Method      enums.PaymentMethod
	ProviderRef string
}

// CheckoutResult reports a completed checkout settlement.
type CheckoutResult struct {
	Payment   *models.Payment  `json:"payment"`
	PayoutIDs []uuid.UUID      `json:"payout_ids"`
	Breakdown ledger.Breakdown `json:"breakdown"`
}

// DirectSaleInput is the clerk's registration of a farmer delivery sold at
// the hub counter.
type DirectSaleInput struct {
	FarmerID     uuid.UUID
	ProduceName  string
	Category     string
	Quantity     decimal.Decimal
	Unit         string
	PricePerUnit decimal.Decimal
	Method       enums.PaymentMethod
	ExpiryDate   *time.Time
	Notes        *string
}

// DirectSaleResult reports a completed direct sale.
type DirectSaleResult struct {
	Lot       *models.Lot      `json:"lot"`
	Payment   *models.Payment  `json:"payment"`
	Payout    *models.Payout   `json:"payout"`
	Breakdown ledger.Breakdown `json:"breakdown"`
}

type service struct {
	tx        txRunner
	payments  PaymentsRepository
	payouts   PayoutsRepository
	orders    orders.Repository
	lots      inventory.Repository
	hubs      hubs.Repository
	users     users.Repository
	ledger    ledgerRecorder
	notifier  notifier
	processor gateway.Processor
	cfg       config.SettlementConfig
	metrics   *metrics.SettlementMetrics
	logger    *logger.Logger
}

// NewService wires the settlement orchestrator.
func NewService(
	tx txRunner,
	payments PaymentsRepository,
	payouts PayoutsRepository,
	ordersRepo orders.Repository,
	lotsRepo inventory.Repository,
	hubsRepo hubs.Repository,
	usersRepo users.Repository,
	ledgerSvc ledgerRecorder,
	notifierSvc notifier,
	processor gateway.Processor,
	cfg config.SettlementConfig,
	settlementMetrics *metrics.SettlementMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if payouts == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if lotsRepo == nil {
		return nil, fmt.Errorf("lots repository required")
	}
	if hubsRepo == nil {
		return nil, fmt.Errorf("hubs repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if notifierSvc == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if processor == nil {
		return nil, fmt.Errorf("payment processor required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        tx,
		payments:  payments,
		payouts:   payouts,
		orders:    ordersRepo,
		lots:      lotsRepo,
		hubs:      hubsRepo,
		users:     usersRepo,
		ledger:    ledgerSvc,
		notifier:  notifierSvc,
		processor: processor,
		cfg:       cfg,
		metrics:   settlementMetrics,
		logger:    logg,
	}, nil
}

// SettleCheckout runs the buyer payment flow. The payment row is inserted
// PENDING before the gateway call and flipped to FAILED in its own update if
// the charge is declined, so a failed attempt leaves an audit row while the
// order stays PENDING for a retry with a fresh reference. All money movement
// happens in one transaction after the gateway confirms.
func (s *service) SettleCheckout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.Method))
	}
	if strings.TrimSpace(input.ProviderRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider reference is required")
	}

	ctx = s.logger.WithOrderID(ctx, input.OrderID.String())

	order, err := s.orders.FindDetail(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != input.BuyerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusPending {
		s.metrics.IncFailed(flowCheckout, "order_state")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}
	if len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no items")
	}

	if _, err := s.payments.FindByProviderRef(ctx, input.ProviderRef); err == nil {
		s.metrics.IncFailed(flowCheckout, "duplicate_reference")
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateReference, "provider reference already used")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		return nil, err
	}

	hub, err := s.hubs.FindByID(ctx, order.HubID)
	if err != nil {
		return nil, err
	}

	breakdown, err := ledger.SplitProceeds(order.TotalAmount, s.cfg.SystemFeeRateDecimal(), s.cfg.HubFeeRateDecimal())
	if err != nil {
		return nil, err
	}

	shares, err := s.farmerShares(ctx, order, breakdown.FarmerAmount)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:           uuid.New(),
		OrderID:      order.ID,
		PayerID:      input.BuyerID,
		Amount:       order.TotalAmount,
		SystemFee:    breakdown.SystemFee,
		HubFee:       breakdown.HubFee,
		FarmerAmount: breakdown.FarmerAmount,
		Method:       input.Method,
		Status:       enums.PaymentStatusPending,
		ProviderRef:  input.ProviderRef,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeDuplicateReference {
			s.metrics.IncFailed(flowCheckout, "duplicate_reference")
		}
		return nil, err
	}

	charge, err := s.processor.Charge(ctx, gateway.ChargeRequest{
		Reference: input.ProviderRef,
		Method:    input.Method,
		Amount:    order.TotalAmount,
		PayerID:   input.BuyerID.String(),
	})
	if err != nil {
		s.failPayment(ctx, payment.ID, flowCheckout, err)
		return nil, err
	}

	var payoutIDs []uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		paymentsRepo := s.payments.WithTx(tx)
		payoutsRepo := s.payouts.WithTx(tx)

		locked, err := ordersRepo.FindByIDForUpdate(ctx, order.ID)
		if err != nil {
			return err
		}
		if locked.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
		}

		processedAt := charge.ProcessedAt
		if err := paymentsRepo.UpdateStatus(ctx, payment.ID, enums.PaymentStatusSuccess, &processedAt, &processedAt); err != nil {
			return err
		}
		if err := ordersRepo.UpdateStatus(ctx, order.ID, enums.OrderStatusPaid, &processedAt); err != nil {
			return err
		}

		movements := []ledger.MovementInput{
			{OwnerID: input.BuyerID, PaymentID: payment.ID, Direction: enums.EntryDirectionDebit, Amount: order.TotalAmount, Memo: "order payment"},
			{OwnerID: hub.ManagerID, PaymentID: payment.ID, Direction: enums.EntryDirectionCredit, Amount: breakdown.HubFee, Memo: "hub commission"},
			{OwnerID: s.cfg.SystemAccountUUID(), PaymentID: payment.ID, Direction: enums.EntryDirectionCredit, Amount: breakdown.SystemFee, Memo: "platform fee"},
		}
		for _, movement := range movements {
			if _, err := s.ledger.Record(ctx, tx, movement); err != nil {
				return err
			}
		}

		for _, share := range shares {
			details, err := json.Marshal(share.Lines)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode payout details")
			}
			payout := &models.Payout{
				ID:        uuid.New(),
				PaymentID: payment.ID,
				FarmerID:  share.FarmerID,
				Amount:    share.Amount,
				Status:    enums.PayoutStatusPending,
				Details:   details,
			}
			if err := payoutsRepo.Create(ctx, payout); err != nil {
				return err
			}
			payoutIDs = append(payoutIDs, payout.ID)

			if err := s.notifier.Notify(ctx, tx, notifications.NotifyInput{
				UserID:  share.FarmerID,
				Type:    enums.NotificationTypePayoutPending,
				Title:   "Payout pending",
				Message: fmt.Sprintf("A payout of %s is pending for your produce.", share.Amount.StringFixed(2)),
				Data:    mustJSON(map[string]any{"payout_id": payout.ID, "payment_id": payment.ID, "amount": share.Amount}),
			}); err != nil {
				return err
			}
		}

		if err := s.notifier.Notify(ctx, tx, notifications.NotifyInput{
			UserID:  input.BuyerID,
			Type:    enums.NotificationTypePaymentSuccessful,
			Title:   "Payment successful",
			Message: fmt.Sprintf("Your payment of %s was received.", order.TotalAmount.StringFixed(2)),
			Data:    mustJSON(map[string]any{"order_id": order.ID, "payment_id": payment.ID}),
		}); err != nil {
			return err
		}
		return s.notifier.Notify(ctx, tx, notifications.NotifyInput{
			UserID:  hub.ManagerID,
			Type:    enums.NotificationTypeOrderPaid,
			Title:   "Order paid",
			Message: fmt.Sprintf("Order %s was paid in full.", order.ID),
			Data:    mustJSON(map[string]any{"order_id": order.ID, "payment_id": payment.ID, "hub_fee": breakdown.HubFee}),
		})
	})
	if err != nil {
		s.failPayment(ctx, payment.ID, flowCheckout, err)
		return nil, err
	}

	settled, err := s.payments.FindByID(ctx, payment.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.IncSettled(flowCheckout, settled.Amount)
	s.logger.Info(s.logger.WithUserID(ctx, input.BuyerID.String()), "checkout settled")

	return &CheckoutResult{Payment: settled, PayoutIDs: payoutIDs, Breakdown: breakdown}, nil
}

// RegisterDirectSale records a delivery sold at the hub counter. Money has
// already changed hands, so the lot, PAID order, SUCCESS payment, SENT payout,
// and farmer notification commit or roll back as one unit with no gateway
// involvement.
func (s *service) RegisterDirectSale(ctx context.Context, clerkID uuid.UUID, input DirectSaleInput) (*DirectSaleResult, error) {
	if clerkID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "clerk id is required")
	}
	if input.FarmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer id is required")
	}
	if strings.TrimSpace(input.ProduceName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "produce name is required")
	}
	if strings.TrimSpace(input.Unit) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit is required")
	}
	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.PricePerUnit.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price per unit must be positive")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.Method))
	}

	hub, err := s.hubs.FindByManagerID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	ctx = s.logger.WithHubID(ctx, hub.ID.String())

	if _, err := s.users.FindActiveByRole(ctx, input.FarmerID, enums.UserRoleFarmer); err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "farmer not found")
		}
		return nil, err
	}

	total := input.Quantity.Mul(input.PricePerUnit).Round(2)
	breakdown, err := ledger.SplitDirect(total, s.cfg.DirectHubFeeRateDecimal())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &DirectSaleResult{Breakdown: breakdown}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		lotsRepo := s.lots.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)
		paymentsRepo := s.payments.WithTx(tx)
		payoutsRepo := s.payouts.WithTx(tx)

		lot := &models.Lot{
			ID:           uuid.New(),
			Code:         generateLotCode(now),
			FarmerID:     input.FarmerID,
			HubID:        hub.ID,
			ProduceName:  input.ProduceName,
			Category:     input.Category,
			Quantity:     input.Quantity,
			Unit:         input.Unit,
			PricePerUnit: input.PricePerUnit,
			Status:       enums.LotStatusSold,
			ExpiryDate:   input.ExpiryDate,
			Notes:        input.Notes,
		}
		if err := lotsRepo.Create(ctx, lot); err != nil {
			return err
		}

		paidAt := now
		order := &models.Order{
			ID:          uuid.New(),
			BuyerID:     clerkID,
			HubID:       hub.ID,
			TotalAmount: total,
			Status:      enums.OrderStatusPaid,
			PaidAt:      &paidAt,
		}
		if err := ordersRepo.Create(ctx, order); err != nil {
			return err
		}
		item := models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			LotID:     lot.ID,
			Quantity:  input.Quantity,
			UnitPrice: input.PricePerUnit,
			Subtotal:  total,
		}
		if err := ordersRepo.CreateItems(ctx, []models.OrderItem{item}); err != nil {
			return err
		}

		payment := &models.Payment{
			ID:           uuid.New(),
			OrderID:      order.ID,
			PayerID:      clerkID,
			Amount:       total,
			HubFee:       breakdown.HubFee,
			FarmerAmount: breakdown.FarmerAmount,
			Method:       input.Method,
			Status:       enums.PaymentStatusSuccess,
			ProviderRef:  generateDirectSaleRef(),
			ProcessedAt:  &paidAt,
			PaidAt:       &paidAt,
		}
		if err := paymentsRepo.Create(ctx, payment); err != nil {
			return err
		}

		providerRef := payment.ProviderRef
		payout := &models.Payout{
			ID:          uuid.New(),
			PaymentID:   payment.ID,
			FarmerID:    input.FarmerID,
			Amount:      breakdown.FarmerAmount,
			Status:      enums.PayoutStatusSent,
			ProviderRef: &providerRef,
			PaidAt:      &paidAt,
			Details: mustJSON([]payoutLine{{
				LotID:       lot.ID,
				LotCode:     lot.Code,
				ProduceName: lot.ProduceName,
				Quantity:    input.Quantity,
				UnitPrice:   input.PricePerUnit,
				Subtotal:    total,
			}}),
		}
		if err := payoutsRepo.Create(ctx, payout); err != nil {
			return err
		}

		if err := s.notifier.Notify(ctx, tx, notifications.NotifyInput{
			UserID:  input.FarmerID,
			Type:    enums.NotificationTypePaymentReceived,
			Title:   "Payment received",
			Message: fmt.Sprintf("You were paid %s for %s at %s.", breakdown.FarmerAmount.StringFixed(2), lot.ProduceName, hub.Name),
			Data:    mustJSON(map[string]any{"lot_id": lot.ID, "payment_id": payment.ID, "payout_id": payout.ID}),
		}); err != nil {
			return err
		}

		result.Lot = lot
		result.Payment = payment
		result.Payout = payout
		return nil
	})
	if err != nil {
		s.metrics.IncFailed(flowDirect, failureReason(err))
		return nil, err
	}

	s.metrics.IncSettled(flowDirect, total)
	s.logger.Info(s.logger.WithUserID(ctx, clerkID.String()), "direct sale settled")
	return result, nil
}

// ProcessPayout flips a pending payout to SENT. The disbursement call happens
// before the transaction; the row lock inside it makes the transition
// monotonic, so a concurrent second attempt fails with a state conflict. A
// caller-supplied provider reference overrides the disbursement's.
func (s *service) ProcessPayout(ctx context.Context, clerkID, payoutID uuid.UUID, providerRef string) (*models.Payout, error) {
	if clerkID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "clerk id is required")
	}
	if payoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id is required")
	}

	hub, err := s.hubs.FindByManagerID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	payout, err := s.payouts.FindByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if err := s.verifyPayoutHub(ctx, payout, hub.ID); err != nil {
		return nil, err
	}
	if payout.Status != enums.PayoutStatusPending {
		s.metrics.IncFailed(flowPayout, "already_sent")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payout has already been sent")
	}

	disbursement, err := s.processor.Disburse(ctx, gateway.DisbursementRequest{
		RecipientID: payout.FarmerID.String(),
		Amount:      payout.Amount,
	})
	if err != nil {
		s.metrics.IncFailed(flowPayout, failureReason(err))
		return nil, err
	}
	reference := strings.TrimSpace(providerRef)
	if reference == "" {
		reference = disbursement.Reference
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		payoutsRepo := s.payouts.WithTx(tx)
		locked, err := payoutsRepo.FindByIDForUpdate(ctx, payoutID)
		if err != nil {
			return err
		}
		if locked.Status != enums.PayoutStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout has already been sent")
		}
		if err := payoutsRepo.MarkSent(ctx, payoutID, reference, disbursement.SentAt); err != nil {
			return err
		}
		return s.notifier.Notify(ctx, tx, notifications.NotifyInput{
			UserID:  locked.FarmerID,
			Type:    enums.NotificationTypePayoutSent,
			Title:   "Payout sent",
			Message: fmt.Sprintf("Your payout of %s has been sent.", locked.Amount.StringFixed(2)),
			Data:    mustJSON(map[string]any{"payout_id": payoutID, "provider_ref": reference}),
		})
	})
	if err != nil {
		s.metrics.IncFailed(flowPayout, failureReason(err))
		return nil, err
	}

	sent, err := s.payouts.FindByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	s.metrics.IncSettled(flowPayout, sent.Amount)
	s.logger.Info(s.logger.WithUserID(ctx, clerkID.String()), "payout processed")
	return sent, nil
}

func (s *service) ListPayoutsForFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) ([]models.Payout, string, error) {
	if farmerID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "farmer id is required")
	}
	return s.payouts.ListByFarmer(ctx, farmerID, params)
}

func (s *service) ListPendingPayoutsForClerk(ctx context.Context, clerkID uuid.UUID, params pagination.Params) ([]models.Payout, string, error) {
	if clerkID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "clerk id is required")
	}
	hub, err := s.hubs.FindByManagerID(ctx, clerkID)
	if err != nil {
		return nil, "", err
	}
	return s.payouts.ListPendingByHub(ctx, hub.ID, params)
}

// payoutLine is one lot's contribution inside a payout's details payload.
type payoutLine struct {
	LotID       uuid.UUID       `json:"lot_id"`
	LotCode     string          `json:"lot_code"`
	ProduceName string          `json:"produce_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type farmerShare struct {
	FarmerID uuid.UUID
	Amount   decimal.Decimal
	Lines    []payoutLine
}

// farmerShares groups the order's items by the owning farmer and divides the
// farmer pool proportionally to each farmer's itemized subtotal. Farmers are
// ordered by id so the remainder-absorbing last share is deterministic.
func (s *service) farmerShares(ctx context.Context, order *models.Order, farmerPool decimal.Decimal) ([]farmerShare, error) {
	lotIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		lotIDs = append(lotIDs, item.LotID)
	}
	lots, err := s.lots.FindByIDs(ctx, lotIDs)
	if err != nil {
		return nil, err
	}
	lotsByID := make(map[uuid.UUID]models.Lot, len(lots))
	for _, lot := range lots {
		lotsByID[lot.ID] = lot
	}

	byFarmer := make(map[uuid.UUID]*farmerShare)
	for _, item := range order.Items {
		lot, ok := lotsByID[item.LotID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("lot %s missing for order item", item.LotID))
		}
		share, ok := byFarmer[lot.FarmerID]
		if !ok {
			share = &farmerShare{FarmerID: lot.FarmerID}
			byFarmer[lot.FarmerID] = share
		}
		share.Lines = append(share.Lines, payoutLine{
			LotID:       lot.ID,
			LotCode:     lot.Code,
			ProduceName: lot.ProduceName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}

	shares := make([]farmerShare, 0, len(byFarmer))
	for _, share := range byFarmer {
		shares = append(shares, *share)
	}
	sort.Slice(shares, func(i, j int) bool {
		return shares[i].FarmerID.String() < shares[j].FarmerID.String()
	})

	weights := make([]decimal.Decimal, len(shares))
	for i, share := range shares {
		subtotal := decimal.Zero
		for _, line := range share.Lines {
			subtotal = subtotal.Add(line.Subtotal)
		}
		weights[i] = subtotal
	}
	amounts, err := ledger.AllocateAcross(farmerPool, weights)
	if err != nil {
		return nil, err
	}
	for i := range shares {
		shares[i].Amount = amounts[i]
	}
	return shares, nil
}

// verifyPayoutHub walks payout -> payment -> order to confirm the payout
// originated at the clerk's hub. Other hubs' payouts read as not found.
func (s *service) verifyPayoutHub(ctx context.Context, payout *models.Payout, hubID uuid.UUID) error {
	payment, err := s.payments.FindByID(ctx, payout.PaymentID)
	if err != nil {
		return err
	}
	order, err := s.orders.FindByID(ctx, payment.OrderID)
	if err != nil {
		return err
	}
	if order.HubID != hubID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
	}
	return nil
}

// failPayment flips the pending payment to FAILED in its own update so the
// row survives the rolled-back settlement.
func (s *service) failPayment(ctx context.Context, paymentID uuid.UUID, flow string, cause error) {
	now := time.Now().UTC()
	if err := s.payments.UpdateStatus(ctx, paymentID, enums.PaymentStatusFailed, &now, nil); err != nil {
		s.logger.Error(ctx, "mark payment failed", err)
	}
	s.metrics.IncFailed(flow, failureReason(cause))
	s.logger.Warn(ctx, fmt.Sprintf("settlement failed: %v", cause))
}

func failureReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return "internal"
}

func generateLotCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("LOT-%s-%s", now.Format("20060102150405"), suffix)
}

func generateDirectSaleRef() string {
	return "direct_" + uuid.NewString()
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
