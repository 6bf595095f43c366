// Package integration exercises the HTTP API against a real PostgreSQL
// container with an in-memory payment provider.
package integration

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront/internal/database/dbtest"
	"storefront/internal/handler"
	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	testJWTSecret     = "integration-secret"
	testWebhookSecret = "whsec_integration"
)

// fakeProvider opens checkout sessions in memory. Webhook payloads are
// verified by a real Stripe provider so signatures are checked end to end.
type fakeProvider struct {
	verifier *payment.StripeProvider

	mu       sync.Mutex
	sessions map[string]*payment.SessionState
	created  int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		verifier: payment.NewStripeProvider(payment.StripeConfig{
			WebhookSecret: testWebhookSecret,
			Currency:      "usd",
			Timeout:       time.Second,
		}, zerolog.Nop()),
		sessions: make(map[string]*payment.SessionState),
	}
}

func (p *fakeProvider) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.created++
	id := fmt.Sprintf("cs_test_%d", p.created)
	p.sessions[id] = &payment.SessionState{
		ID:               id,
		CorrelationToken: req.CorrelationToken,
		PaymentIntentID:  "pi_" + id,
	}
	return &payment.Session{ID: id, URL: "https://checkout.test/" + id}, nil
}

func (p *fakeProvider) RetrieveSession(_ context.Context, sessionID string) (*payment.SessionState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such checkout session: %s", sessionID)
	}
	state := *s
	return &state, nil
}

func (p *fakeProvider) ParseEvent(payload []byte, signature string) (*payment.Event, error) {
	return p.verifier.ParseEvent(payload, signature)
}

// markPaid simulates the customer paying for a session.
func (p *fakeProvider) markPaid(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[sessionID].Paid = true
}

func (p *fakeProvider) sessionsCreated() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

// testAPI is a fully wired API backed by a test database.
type testAPI struct {
	db       *dbtest.TestDB
	provider *fakeProvider
	server   http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db := dbtest.New(t)
	logger := zerolog.Nop()
	provider := newFakeProvider()

	productRepo := repository.NewProductRepository(db.Pool, logger)
	orderRepo := repository.NewOrderRepository(db.Pool, logger)

	checkout := service.NewCheckoutService(orderRepo, provider, service.CheckoutConfig{
		SuccessURL: "https://shop.test/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://shop.test/cart",
	}, logger)
	reconciler := service.NewReconcilerService(orderRepo, provider, logger)

	server := router.New(router.Handlers{
		Product:  handler.NewProductHandler(service.NewProductService(productRepo, logger), logger),
		Cart:     handler.NewCartHandler(service.NewCartService(orderRepo, productRepo, logger), logger),
		Checkout: handler.NewCheckoutHandler(checkout, reconciler, logger),
		Webhook:  handler.NewWebhookHandler(reconciler, logger),
		Order:    handler.NewOrderHandler(service.NewOrderService(orderRepo, logger), logger),
	}, []byte(testJWTSecret), logger)

	return &testAPI{db: db, provider: provider, server: server}
}

// reset empties every table and seeds the standard products.
func (a *testAPI) reset(t *testing.T) {
	t.Helper()
	dbtest.Cleanup(t, a.db.Pool)
	dbtest.SeedProducts(t, a.db.Pool, testProducts())
}

// do sends a request, authenticated as userID unless it is empty.
func (a *testAPI) do(t *testing.T, method, path, userID string, body []byte, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.server.ServeHTTP(w, req)
	return w
}

func testProducts() []model.Product {
	return []model.Product{
		{ID: "A", Name: "Tour Driver", Price: decimal.RequireFromString("10.00"), Category: model.CategoryDriver},
		{ID: "B", Name: "Blade Putter", Price: decimal.RequireFromString("25.00"), Category: model.CategoryPutter},
		{ID: "C", Name: "Sand Wedge", Price: decimal.RequireFromString("7.50"), Category: model.CategoryWedge},
	}
}

// token issues a bearer token for userID.
func token(t *testing.T, userID string) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// signedEvent builds a webhook payload and its Stripe-Signature header.
func signedEvent(t *testing.T, eventType string, object string) ([]byte, string) {
	t.Helper()

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_%d","object":"event","api_version":"2023-10-16","type":%q,"data":{"object":%s}}`,
		time.Now().UnixNano(), eventType, object))

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

// paidSessionObject is a checkout.session payload for a paid session.
func paidSessionObject(sessionID, orderID string) string {
	return fmt.Sprintf(
		`{"id":%q,"object":"checkout.session","payment_status":"paid","client_reference_id":%q,"metadata":{"order_id":%q},"payment_intent":"pi_%s"}`,
		sessionID, orderID, orderID, sessionID)
}

// orderStatus reads an order's status straight from the database.
func orderStatus(t *testing.T, pool *pgxpool.Pool, orderID string) (status string, paidAt *time.Time) {
	t.Helper()

	err := pool.QueryRow(context.Background(),
		`SELECT status, paid_at FROM orders WHERE id = $1`, orderID).Scan(&status, &paidAt)
	if err != nil {
		t.Fatalf("failed to read order %s: %v", orderID, err)
	}
	return status, paidAt
}
