package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrisoko/farmhub-backend/pkg/config"
	"github.com/agrisoko/farmhub-backend/pkg/enums"
	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
	"github.com/agrisoko/farmhub-backend/pkg/logger"
)

// ChargeRequest carries everything the provider needs to collect a payment.
type ChargeRequest struct {
	Reference string
	Method    enums.PaymentMethod
	Amount    decimal.Decimal
	PayerID   string
}

// ChargeResult is the provider's confirmation of a collected payment.
type ChargeResult struct {
	Reference   string
	ProcessedAt time.Time
}

// DisbursementRequest asks the provider to push funds to a recipient.
type DisbursementRequest struct {
	RecipientID string
	Amount      decimal.Decimal
}

// DisbursementResult confirms a disbursement and carries the provider's reference.
type DisbursementResult struct {
	Reference string
	SentAt    time.Time
}

// Processor is the payment-provider surface the settlement flows depend on.
type Processor interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Disburse(ctx context.Context, req DisbursementRequest) (*DisbursementResult, error)
}

// Simulator stands in for a real payment provider. It charges nothing,
// waits a configured latency, and declines a configured fraction of calls.
type Simulator struct {
	latency     time.Duration
	timeout     time.Duration
	failureRate float64
	logger      *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator builds a simulated processor from config.
func NewSimulator(cfg config.GatewayConfig, logg *logger.Logger) *Simulator {
	rate := cfg.FailureRate
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	return &Simulator{
		latency:     cfg.Latency,
		timeout:     cfg.Timeout,
		failureRate: rate,
		logger:      logg,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Charge simulates collecting a payment. A context deadline or the configured
// timeout elapsing means the outcome is unknown and must be treated as failure.
func (s *Simulator) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if strings.TrimSpace(req.Reference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge reference is required")
	}
	if !req.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment method %q", req.Method))
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	if s.roll() {
		if s.logger != nil {
			s.logger.Warn(ctx, "gateway declined charge "+req.Reference)
		}
		return nil, pkgerrors.New(pkgerrors.CodeGatewayFailure, "provider declined charge "+req.Reference)
	}

	return &ChargeResult{
		Reference:   req.Reference,
		ProcessedAt: time.Now().UTC(),
	}, nil
}

// Disburse simulates sending funds out. The provider mints the reference.
func (s *Simulator) Disburse(ctx context.Context, req DisbursementRequest) (*DisbursementResult, error) {
	if strings.TrimSpace(req.RecipientID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "disbursement recipient is required")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "disbursement amount must be positive")
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	if s.roll() {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayFailure, "provider rejected disbursement")
	}

	return &DisbursementResult{
		Reference: "po_" + uuid.NewString(),
		SentAt:    time.Now().UTC(),
	}, nil
}

func (s *Simulator) wait(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if s.latency <= 0 {
		if err := ctx.Err(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment provider unavailable")
		}
		return nil
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "payment provider timed out")
	case <-timer.C:
		return nil
	}
}

func (s *Simulator) roll() bool {
	if s.failureRate <= 0 {
		return false
	}
	if s.failureRate >= 1 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.failureRate
}
