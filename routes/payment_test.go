package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kataras/iris/v12"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KachiAlex/innsight-sub005/models"
	"github.com/KachiAlex/innsight-sub005/payments"
	"github.com/KachiAlex/innsight-sub005/services"
	"github.com/KachiAlex/innsight-sub005/storage"
)

var routesTestDBCounter int64

func newWebhookTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	n := atomic.AddInt64(&routesTestDBCounter, 1)
	dsn := fmt.Sprintf("file:routes_test_%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.Migrate(db); err != nil {
		t.Fatal(err)
	}
	return db
}

type successGateway struct{}

func (successGateway) Name() string                                 { return models.GatewayPaystack }
func (successGateway) IsConfigured(creds payments.Credentials) bool { return true }

func (successGateway) Initialize(ctx context.Context, req payments.InitializeRequest, creds payments.Credentials) (*payments.InitializeResult, error) {
	return &payments.InitializeResult{AuthorizationURL: "https://pay.example", Reference: req.Reference}, nil
}

func (successGateway) Verify(ctx context.Context, reference string, creds payments.Credentials) (*payments.VerifyResult, error) {
	return &payments.VerifyResult{Status: payments.VerifySuccess, AmountMinor: 2000000, GatewayTransactionID: "tx-1"}, nil
}

// buildWebhookTestApp wires only the unauthenticated webhook route, the way
// gateways reach it in production.
func buildWebhookTestApp(t *testing.T) (*iris.Application, *gorm.DB) {
	t.Helper()
	db := newWebhookTestDB(t)

	ledger := services.NewLedgerService(db)
	settings := services.NewSettingsService(db, nil)
	registry := payments.NewRegistry(nil, map[string]payments.Credentials{
		models.GatewayPaystack: {SecretKey: "sk_test"},
	})
	registry.Register(successGateway{})
	reconciliation := services.NewReconciliationService(db, registry, settings, ledger)

	handler := NewPaymentHandler(db, reconciliation, ledger)
	app := iris.New()
	app.Post("/api/webhooks/payments/{gateway}", handler.Webhook)
	if err := app.Build(); err != nil {
		t.Fatal(err)
	}
	return app, db
}

func seedPendingPayment(t *testing.T, db *gorm.DB) *models.Payment {
	t.Helper()
	folio := &models.Folio{
		TenantID:     1,
		Status:       models.FolioStatusOpen,
		TotalCharges: decimal.NewFromInt(50000),
		Balance:      decimal.NewFromInt(50000),
	}
	if err := db.Create(folio).Error; err != nil {
		t.Fatal(err)
	}
	payment := &models.Payment{
		TenantID:  1,
		FolioID:   folio.ID,
		Amount:    decimal.NewFromInt(20000),
		Gateway:   models.GatewayPaystack,
		Reference: "PAY-webhook-ref",
		Status:    models.PaymentStatusPending,
	}
	if err := db.Create(payment).Error; err != nil {
		t.Fatal(err)
	}
	return payment
}

func TestWebhookSettlesPaymentAndAcks(t *testing.T) {
	app, db := buildWebhookTestApp(t)
	payment := seedPendingPayment(t, db)

	body := fmt.Sprintf(`{"event":"charge.success","data":{"reference":"%s","metadata":{"tenantId":1}}}`, payment.Reference)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payments/paystack", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d: %s", resp.Code, resp.Body.String())
	}

	var stored models.Payment
	if err := db.Where("reference = ?", payment.Reference).First(&stored).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.PaymentStatusCompleted {
		t.Fatalf("expected completed payment, got %s", stored.Status)
	}

	var folio models.Folio
	if err := db.First(&folio, stored.FolioID).Error; err != nil {
		t.Fatal(err)
	}
	if !folio.Balance.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("expected balance 30000, got %s", folio.Balance)
	}
}

func TestWebhookAcksEvenWhenProcessingFails(t *testing.T) {
	app, _ := buildWebhookTestApp(t)

	// Valid shape, unknown reference: processing fails internally but the
	// gateway still gets its 200, otherwise it retries forever.
	body := `{"event":"charge.success","data":{"reference":"PAY-nope","metadata":{"tenantId":1}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payments/paystack", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d", resp.Code)
	}
}

func TestWebhookRejectsUnknownGateway(t *testing.T) {
	app, _ := buildWebhookTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payments/cowries", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown gateway, got %d", resp.Code)
	}

	var envelope struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Success {
		t.Fatal("expected success=false envelope")
	}
}

func TestWebhookParsesFlutterwaveShape(t *testing.T) {
	app, db := buildWebhookTestApp(t)

	folio := &models.Folio{
		TenantID:     1,
		Status:       models.FolioStatusOpen,
		TotalCharges: decimal.NewFromInt(50000),
		Balance:      decimal.NewFromInt(50000),
	}
	if err := db.Create(folio).Error; err != nil {
		t.Fatal(err)
	}
	payment := &models.Payment{
		TenantID:  1,
		FolioID:   folio.ID,
		Amount:    decimal.NewFromInt(20000),
		Gateway:   models.GatewayPaystack, // settles through the fake gateway
		Reference: "PAY-flw-ref",
		Status:    models.PaymentStatusPending,
	}
	if err := db.Create(payment).Error; err != nil {
		t.Fatal(err)
	}

	// Flutterwave uses data.tx_ref and meta, with the tenant id echoed as a
	// string.
	body := `{"event":"charge.completed","data":{"tx_ref":"PAY-flw-ref","meta":{"tenantId":"1"}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payments/flutterwave", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d", resp.Code)
	}

	var stored models.Payment
	if err := db.Where("reference = ?", "PAY-flw-ref").First(&stored).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.PaymentStatusCompleted {
		t.Fatalf("expected completed payment, got %s", stored.Status)
	}
}
