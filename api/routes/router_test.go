package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrisoko/farmhub-backend/internal/hubs"
	"github.com/agrisoko/farmhub-backend/internal/inventory"
	"github.com/agrisoko/farmhub-backend/internal/notifications"
	"github.com/agrisoko/farmhub-backend/internal/orders"
	"github.com/agrisoko/farmhub-backend/internal/settlement"
	pkgauth "github.com/agrisoko/farmhub-backend/pkg/auth"
	"github.com/agrisoko/farmhub-backend/pkg/config"
	"github.com/agrisoko/farmhub-backend/pkg/db/models"
	"github.com/agrisoko/farmhub-backend/pkg/enums"
	"github.com/agrisoko/farmhub-backend/pkg/logger"
	"github.com/agrisoko/farmhub-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubOrdersService struct {
	listFn func(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
}

func (s stubOrdersService) Create(ctx context.Context, buyerID uuid.UUID, input orders.CreateOrderInput) (*models.Order, error) {
	return &models.Order{BuyerID: buyerID}, nil
}

func (s stubOrdersService) GetForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID, BuyerID: buyerID}, nil
}

func (s stubOrdersService) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if s.listFn != nil {
		return s.listFn(ctx, buyerID, params)
	}
	return nil, "", nil
}

type stubSettlementService struct{}

func (stubSettlementService) SettleCheckout(ctx context.Context, input settlement.CheckoutInput) (*settlement.CheckoutResult, error) {
	return &settlement.CheckoutResult{}, nil
}

func (stubSettlementService) RegisterDirectSale(ctx context.Context, clerkID uuid.UUID, input settlement.DirectSaleInput) (*settlement.DirectSaleResult, error) {
	return &settlement.DirectSaleResult{}, nil
}

func (stubSettlementService) ProcessPayout(ctx context.Context, clerkID, payoutID uuid.UUID, providerRef string) (*models.Payout, error) {
	return &models.Payout{ID: payoutID}, nil
}

func (stubSettlementService) ListPayoutsForFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) ([]models.Payout, string, error) {
	return nil, "", nil
}

func (stubSettlementService) ListPendingPayoutsForClerk(ctx context.Context, clerkID uuid.UUID, params pagination.Params) ([]models.Payout, string, error) {
	return nil, "", nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) Notify(ctx context.Context, tx *gorm.DB, input notifications.NotifyInput) error {
	return nil
}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubHubsRepo struct{}

func (s stubHubsRepo) WithTx(tx *gorm.DB) hubs.Repository {
	return s
}

func (stubHubsRepo) Create(ctx context.Context, hub *models.Hub) error {
	return nil
}

func (stubHubsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Hub, error) {
	return &models.Hub{ID: id}, nil
}

func (stubHubsRepo) FindByManagerID(ctx context.Context, managerID uuid.UUID) (*models.Hub, error) {
	return &models.Hub{ID: uuid.New(), ManagerID: managerID}, nil
}

type stubLotsRepo struct{}

func (s stubLotsRepo) WithTx(tx *gorm.DB) inventory.Repository {
	return s
}

func (stubLotsRepo) Create(ctx context.Context, lot *models.Lot) error {
	return nil
}

func (stubLotsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Lot, error) {
	return &models.Lot{ID: id}, nil
}

func (stubLotsRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Lot, error) {
	return nil, nil
}

func (stubLotsRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.LotStatus) error {
	return nil
}

func (stubLotsRepo) ListByFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) ([]models.Lot, string, error) {
	return nil, "", nil
}

func (stubLotsRepo) ListByHub(ctx context.Context, hubID uuid.UUID, status *enums.LotStatus, params pagination.Params) ([]models.Lot, string, error) {
	return nil, "", nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "farmhub-test",
			ExpirationMinutes: 15,
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:        cfg,
		Logger:        logg,
		DB:            stubPinger{},
		Redis:         nil,
		Orders:        stubOrdersService{},
		Settlement:    stubSettlementService{},
		Notifications: stubNotificationsService{},
		Hubs:          stubHubsRepo{},
		Lots:          stubLotsRepo{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for live got %d", resp.Code)
	}
	if env := resp.Header().Get("X-FarmHub-Env"); env != "test" {
		t.Fatalf("expected env header test got %q", env)
	}
}

func TestHealthReadyPingsDependencies(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for ready got %d", resp.Code)
	}
}

func TestAPIGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestBuyerGroupRequiresBuyerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	farmer := httptest.NewRequest(http.MethodGet, "/api/v1/buyer/orders", nil)
	farmer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleFarmer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, farmer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for farmer on buyer route got %d", resp.Code)
	}

	buyer := httptest.NewRequest(http.MethodGet, "/api/v1/buyer/orders", nil)
	buyer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleBuyer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, buyer)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for buyer got %d", resp.Code)
	}
}

func TestClerkGroupRequiresClerkRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	buyer := httptest.NewRequest(http.MethodGet, "/api/v1/clerk/payouts", nil)
	buyer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleBuyer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, buyer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for buyer on clerk route got %d", resp.Code)
	}

	clerk := httptest.NewRequest(http.MethodGet, "/api/v1/clerk/payouts", nil)
	clerk.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClerk))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, clerk)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for clerk got %d", resp.Code)
	}
}

func TestFarmerGroupRequiresFarmerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	clerk := httptest.NewRequest(http.MethodGet, "/api/v1/farmer/payouts", nil)
	clerk.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClerk))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, clerk)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for clerk on farmer route got %d", resp.Code)
	}

	farmer := httptest.NewRequest(http.MethodGet, "/api/v1/farmer/payouts", nil)
	farmer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleFarmer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, farmer)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for farmer got %d", resp.Code)
	}
}

func TestNotificationsAcceptAnyAuthenticatedRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	for _, role := range []enums.UserRole{enums.UserRoleFarmer, enums.UserRoleBuyer, enums.UserRoleClerk} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
		req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, role))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s notifications got %d", role, resp.Code)
		}
	}
}

func TestBuyerCreateOrderRejectsBadJSON(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/buyer/orders", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleBuyer))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body got %d", resp.Code)
	}
}

func TestBuyerPaymentRouteAcceptsGoodJSON(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	body := `{"method":"MOBILE_MONEY","providerRef":"mm_ref_001"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/buyer/orders/"+uuid.NewString()+"/payment", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleBuyer))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for payment got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestClerkProcessPayoutAllowsEmptyBody(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clerk/payouts/"+uuid.NewString()+"/process", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClerk))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for payout process got %d: %s", resp.Code, resp.Body.String())
	}
}
