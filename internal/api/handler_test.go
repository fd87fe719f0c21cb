package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v82"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"storefront/internal/api"
	"storefront/internal/config"
	"storefront/internal/design"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/notification"
	"storefront/internal/order"
	orderkafka "storefront/internal/order/kafka"
	"storefront/internal/store"
	"storefront/internal/user"
)

type stubGateway struct {
	createFn func(models.PaymentIntentRequest) (*models.PaymentIntentResponse, error)
	verifyFn func([]byte, string) (stripe.Event, error)
}

func (s *stubGateway) CreatePaymentIntent(req models.PaymentIntentRequest) (*models.PaymentIntentResponse, error) {
	return s.createFn(req)
}

func (s *stubGateway) VerifyWebhook(payload []byte, sig string) (stripe.Event, error) {
	return s.verifyFn(payload, sig)
}

type stubFulfillment struct{}

func (stubFulfillment) CreateOrder(context.Context, *models.ShippingAddress, []models.OrderItem) (string, error) {
	return "", nil
}

type testEnv struct {
	db      *store.DB
	gateway *stubGateway
	router  http.Handler
}

var apiDBCounter int

func setupAPI(t *testing.T) *testEnv {
	t.Helper()

	apiDBCounter++
	dsn := fmt.Sprintf("file:apitest%d?mode=memory&cache=shared", apiDBCounter)
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		t.Fatalf("Failed to open SQLite: %v", err)
	}
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.User)(nil),
		(*models.Product)(nil),
		(*models.Design)(nil),
		(*models.Order)(nil),
		(*models.OrderItem)(nil),
	} {
		if err := bunDB.ResetModel(ctx, model); err != nil {
			t.Fatalf("Failed to reset model: %v", err)
		}
	}

	log := logger.NewLogger()
	t.Cleanup(log.Close)

	db := store.New(bunDB)
	gateway := &stubGateway{
		createFn: func(models.PaymentIntentRequest) (*models.PaymentIntentResponse, error) {
			return &models.PaymentIntentResponse{ClientSecret: "secret", PaymentIntentID: "pi_test"}, nil
		},
		verifyFn: func([]byte, string) (stripe.Event, error) {
			return stripe.Event{}, nil
		},
	}

	// Mock-mode mailer: no SMTP credentials, sends are logged only.
	mailer := notification.NewMailer(config.EmailConfig{
		FromAddress: "orders@fresh-life-style.com",
		FromName:    "Fresh Life Style",
	}, log)

	orderSvc := order.NewService(db, gateway, stubFulfillment{}, mailer, orderkafka.Noop{}, nil, 29.99, log)
	orderSvc.SetDispatcher(func(task func()) { task() })

	userSvc := user.NewService(db, mailer, []string{"admin@example.com"}, log)
	userSvc.SetDispatcher(func(task func()) { task() })

	designSvc := design.NewService(db, "/product-images/", log)

	handler := api.NewHandler(orderSvc, userSvc, designSvc, db, log)

	return &testEnv{
		db:      db,
		gateway: gateway,
		router:  handler.Routes(userSvc),
	}
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return "Bearer " + token
}

func (e *testEnv) request(t *testing.T, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) syncUser(t *testing.T, id, email string) {
	t.Helper()
	rec := e.request(t, http.MethodPost, "/api/users", bearerToken(t, id), models.UserSyncRequest{
		ID:    id,
		Email: email,
		Name:  "Test User",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	env := setupAPI(t)

	rec := env.request(t, http.MethodGet, "/api/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setupAPI(t)

	rec := env.request(t, http.MethodGet, "/api/products", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserSyncReturnsStoredUser(t *testing.T) {
	env := setupAPI(t)

	rec := env.request(t, http.MethodPost, "/api/users", bearerToken(t, "user1"), models.UserSyncRequest{
		ID:    "user1",
		Email: "buyer@example.com",
		Name:  "Test Buyer",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var got models.User
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "user1", got.ID)
	assert.False(t, got.IsAdmin)
}

func TestUserSyncBootstrapAdmin(t *testing.T) {
	env := setupAPI(t)

	rec := env.request(t, http.MethodPost, "/api/users", bearerToken(t, "admin1"), models.UserSyncRequest{
		ID:    "admin1",
		Email: "admin@example.com",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var got models.User
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.IsAdmin)
}

func TestAdminRoutesForbiddenForRegularUser(t *testing.T) {
	env := setupAPI(t)
	env.syncUser(t, "user1", "buyer@example.com")

	rec := env.request(t, http.MethodGet, "/api/admin/orders", bearerToken(t, "user1"), nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoutesAllowedForAdmin(t *testing.T) {
	env := setupAPI(t)
	env.syncUser(t, "admin1", "admin@example.com")

	rec := env.request(t, http.MethodGet, "/api/admin/orders", bearerToken(t, "admin1"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/admin/users", bearerToken(t, "admin1"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAndListOrders(t *testing.T) {
	env := setupAPI(t)
	env.syncUser(t, "user1", "buyer@example.com")

	orderReq := models.OrderRequest{
		UserID:      "user1",
		TotalAmount: 59.98,
		Items: []models.CartLine{
			{ProductID: "classic-tee", Quantity: 2, Size: "M", Color: "black", Price: 29.99},
		},
		ShippingAddress: &models.ShippingAddress{
			Name: "Test Buyer", Line1: "1 Main St", City: "Springfield",
			PostalCode: "62701", Country: "US", Email: "buyer@example.com",
		},
	}

	rec := env.request(t, http.MethodPost, "/api/orders", bearerToken(t, "user1"), orderReq)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created models.OrderResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.OrderID)

	rec = env.request(t, http.MethodGet, "/api/orders/user1", bearerToken(t, "user1"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var orders []models.OrderWithItems
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)
	assert.Equal(t, created.OrderID, orders[0].ID)
	assert.Equal(t, models.OrderStatusPending, orders[0].Status)
	assert.Len(t, orders[0].Items, 1)
	assert.NotNil(t, orders[0].ShippingAddress)
}

func TestCreateOrderValidationError(t *testing.T) {
	env := setupAPI(t)

	rec := env.request(t, http.MethodPost, "/api/orders", bearerToken(t, "user1"), models.OrderRequest{
		UserID: "user1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePaymentIntentEndpoint(t *testing.T) {
	env := setupAPI(t)

	rec := env.request(t, http.MethodPost, "/api/create-payment-intent", bearerToken(t, "user1"), models.PaymentIntentRequest{Amount: 59.98})

	assert.Equal(t, http.StatusOK, rec.Code)
	var got models.PaymentIntentResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "pi_test", got.PaymentIntentID)
	assert.Equal(t, "secret", got.ClientSecret)
}

func TestStripeWebhookRejectedSignature(t *testing.T) {
	env := setupAPI(t)
	env.gateway.verifyFn = func([]byte, string) (stripe.Event, error) {
		return stripe.Event{}, &order.WebhookError{
			Category:    "validation",
			StatusCode:  http.StatusBadRequest,
			PublicError: "Invalid webhook signature",
		}
	}

	rec := env.request(t, http.MethodPost, "/api/webhooks/stripe", "", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStripeWebhookReconcilesOrder(t *testing.T) {
	env := setupAPI(t)
	env.syncUser(t, "user1", "buyer@example.com")

	orderReq := models.OrderRequest{
		UserID:                "user1",
		TotalAmount:           59.98,
		StripePaymentIntentID: "pi_hook",
		Items: []models.CartLine{
			{ProductID: "classic-tee", Quantity: 1, Size: "L", Color: "white", Price: 29.99},
		},
	}
	rec := env.request(t, http.MethodPost, "/api/orders", bearerToken(t, "user1"), orderReq)
	assert.Equal(t, http.StatusCreated, rec.Code)

	raw, _ := json.Marshal(map[string]string{"id": "pi_hook"})
	env.gateway.verifyFn = func([]byte, string) (stripe.Event, error) {
		return stripe.Event{
			Type: "payment_intent.payment_failed",
			Data: &stripe.EventData{Raw: raw},
		}, nil
	}

	rec = env.request(t, http.MethodPost, "/api/webhooks/stripe", "", map[string]string{})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/orders/user1", bearerToken(t, "user1"), nil)
	var orders []models.OrderWithItems
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)
	assert.Equal(t, models.OrderStatusPaymentFailed, orders[0].Status)
}

func TestPrintfulWebhookAcknowledgesUnknownOrder(t *testing.T) {
	env := setupAPI(t)

	event := models.FulfillmentEvent{Type: models.FulfillmentEventPackageShipped}
	event.Data.Order.ID = 123456
	event.Data.Shipment.TrackingNumber = "TRACK123"

	rec := env.request(t, http.MethodPost, "/api/webhooks/printful", "", event)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]bool
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body["received"])
}

func TestPrintfulWebhookIgnoresOtherEventTypes(t *testing.T) {
	env := setupAPI(t)

	rec := env.request(t, http.MethodPost, "/api/webhooks/printful", "", models.FulfillmentEvent{Type: "order_created"})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDesignLifecycle(t *testing.T) {
	env := setupAPI(t)
	env.syncUser(t, "admin1", "admin@example.com")

	rec := env.request(t, http.MethodPost, "/api/designs", bearerToken(t, "admin1"), models.DesignCreateRequest{
		Name:     "Custom Artwork",
		Author:   "buyer@example.com",
		ImageURL: "https://cdn.example.com/uploads/custom.png",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created models.Design
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = env.request(t, http.MethodGet, "/api/designs", bearerToken(t, "admin1"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodDelete, "/api/designs/"+created.ID, bearerToken(t, "admin1"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodDelete, "/api/designs/"+created.ID, bearerToken(t, "admin1"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSeedDesignForbidden(t *testing.T) {
	env := setupAPI(t)
	env.syncUser(t, "admin1", "admin@example.com")

	seed := models.Design{
		ID:        "seed1",
		Name:      "Neon Skyline",
		Author:    "Fresh Style Community",
		ImageURL:  "/product-images/neon_skyline.png",
		IsAI:      true,
		CreatedAt: time.Now(),
	}
	assert.NoError(t, env.db.CreateDesign(context.Background(), seed))

	rec := env.request(t, http.MethodDelete, "/api/designs/seed1", bearerToken(t, "admin1"), nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProductCreateAdminOnly(t *testing.T) {
	env := setupAPI(t)
	env.syncUser(t, "user1", "buyer@example.com")
	env.syncUser(t, "admin1", "admin@example.com")

	product := models.Product{
		Name:         "Classic Tee",
		Price:        29.99,
		BaseImageURL: "/product-images/base-tee.png",
		Category:     models.CategoryTShirt,
	}

	rec := env.request(t, http.MethodPost, "/api/products", bearerToken(t, "user1"), product)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(t, http.MethodPost, "/api/products", bearerToken(t, "admin1"), product)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/products", bearerToken(t, "user1"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var products []models.Product
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	assert.Len(t, products, 1)
}
