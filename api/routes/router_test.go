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

	"github.com/inkwellbooks/inkwell-backend/internal/cart"
	checkoutsvc "github.com/inkwellbooks/inkwell-backend/internal/checkout"
	ordersvc "github.com/inkwellbooks/inkwell-backend/internal/orders"
	"github.com/inkwellbooks/inkwell-backend/internal/payments"
	pkgauth "github.com/inkwellbooks/inkwell-backend/pkg/auth"
	"github.com/inkwellbooks/inkwell-backend/pkg/config"
	"github.com/inkwellbooks/inkwell-backend/pkg/db/models"
	"github.com/inkwellbooks/inkwell-backend/pkg/enums"
	"github.com/inkwellbooks/inkwell-backend/pkg/logger"
	"github.com/inkwellbooks/inkwell-backend/pkg/pagination"
	"github.com/inkwellbooks/inkwell-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCartService struct{}

func (stubCartService) Add(context.Context, uuid.UUID, cart.AddInput) (*models.CartLine, error) {
	return &models.CartLine{ID: uuid.New()}, nil
}

func (stubCartService) SetQuantity(context.Context, uuid.UUID, uuid.UUID, int) (*models.CartLine, error) {
	return &models.CartLine{ID: uuid.New()}, nil
}

func (stubCartService) Remove(context.Context, uuid.UUID, []uuid.UUID) error {
	return nil
}

func (stubCartService) ToggleSave(context.Context, uuid.UUID, uuid.UUID, bool) (*models.CartLine, error) {
	return &models.CartLine{ID: uuid.New()}, nil
}

func (stubCartService) List(context.Context, uuid.UUID) (*cart.View, error) {
	return &cart.View{Active: []cart.LineView{}, Saved: []cart.LineView{}}, nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) Checkout(context.Context, uuid.UUID, checkoutsvc.Input) (*checkoutsvc.Result, error) {
	return &checkoutsvc.Result{Order: &models.Order{ID: uuid.New()}}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) Get(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: uuid.New()}, nil
}

func (stubOrdersService) List(context.Context, uuid.UUID, pagination.Params) (*ordersvc.OrderList, error) {
	return &ordersvc.OrderList{}, nil
}

type stubPaymentsService struct{}

func (stubPaymentsService) Create(context.Context, uuid.UUID, payments.CreateInput) (*models.Payment, error) {
	return &models.Payment{ID: uuid.New()}, nil
}

func (stubPaymentsService) Complete(context.Context, uuid.UUID, uuid.UUID, string) (*models.Payment, error) {
	return &models.Payment{ID: uuid.New()}, nil
}

func (stubPaymentsService) Refund(context.Context, uuid.UUID, payments.RefundInput) (*models.Payment, error) {
	return &models.Payment{ID: uuid.New()}, nil
}

func (stubPaymentsService) CreatePendingTx(context.Context, *gorm.DB, *models.Order, enums.PaymentMethod) (*models.Payment, error) {
	return &models.Payment{ID: uuid.New()}, nil
}

type stubPreOrderService struct{}

func (stubPreOrderService) Confirm(context.Context, uuid.UUID, uuid.UUID) (*models.PreOrder, error) {
	return &models.PreOrder{ID: uuid.New()}, nil
}

func (stubPreOrderService) Cancel(context.Context, uuid.UUID, uuid.UUID) (*models.PreOrder, error) {
	return &models.PreOrder{ID: uuid.New()}, nil
}

func (stubPreOrderService) MarkAvailable(context.Context, uuid.UUID, uuid.UUID) (*models.PreOrder, error) {
	return &models.PreOrder{ID: uuid.New()}, nil
}

func (stubPreOrderService) MarkShipped(context.Context, uuid.UUID, uuid.UUID) (*models.PreOrder, error) {
	return &models.PreOrder{ID: uuid.New()}, nil
}

func (stubPreOrderService) MarkDelivered(context.Context, uuid.UUID, uuid.UUID) (*models.PreOrder, error) {
	return &models.PreOrder{ID: uuid.New()}, nil
}

func (stubPreOrderService) FulfillToOrder(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: uuid.New()}, nil
}

func (stubPreOrderService) List(context.Context, uuid.UUID) ([]models.PreOrder, error) {
	return []models.PreOrder{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		Services{
			Cart:     stubCartService{},
			Checkout: stubCheckoutService{},
			Orders:   stubOrdersService{},
			Payments: stubPaymentsService{},
			PreOrder: stubPreOrderService{},
		},
	)
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		CustomerID: uuid.New(),
		Email:      "reader@example.com",
		JTI:        uuid.NewString(),
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
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for cart fetch got %d", resp.Code)
	}
}

func TestCheckoutRejectsBadJSON(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestOrderRoutesAreWired(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for order fetch got %d", resp.Code)
	}
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}
