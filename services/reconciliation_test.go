package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/KachiAlex/innsight-sub005/models"
	"github.com/KachiAlex/innsight-sub005/payments"
)

// fakeGateway scripts Verify results and counts calls. onVerify, when set,
// runs while the verify round trip is in flight.
type fakeGateway struct {
	name        string
	verifyCalls int
	result      *payments.VerifyResult
	err         error
	onVerify    func()
}

func (f *fakeGateway) Name() string { return f.name }

func (f *fakeGateway) IsConfigured(creds payments.Credentials) bool { return true }

func (f *fakeGateway) Initialize(ctx context.Context, req payments.InitializeRequest, creds payments.Credentials) (*payments.InitializeResult, error) {
	return &payments.InitializeResult{AuthorizationURL: "https://pay.example/" + req.Reference, Reference: req.Reference}, nil
}

func (f *fakeGateway) Verify(ctx context.Context, reference string, creds payments.Credentials) (*payments.VerifyResult, error) {
	f.verifyCalls++
	if f.onVerify != nil {
		f.onVerify()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newReconciliationFixture(t *testing.T, gateway *fakeGateway) (*gorm.DB, *ReconciliationService, *models.Folio, *models.Payment) {
	t.Helper()
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	settings := NewSettingsService(db, nil)

	registry := payments.NewRegistry(nil, map[string]payments.Credentials{
		models.GatewayPaystack: {SecretKey: "sk_test_default"},
	})
	registry.Register(gateway)

	reconciliation := NewReconciliationService(db, registry, settings, ledger)

	folio := &models.Folio{
		TenantID:     1,
		GuestName:    "Ada Obi",
		Status:       models.FolioStatusOpen,
		TotalCharges: money(50000),
		Balance:      money(50000),
	}
	require.NoError(t, db.Create(folio).Error)

	payment := &models.Payment{
		TenantID:  1,
		FolioID:   folio.ID,
		Amount:    money(20000),
		Method:    "online",
		Gateway:   gateway.name,
		Reference: "PAY-test-reference",
		Status:    models.PaymentStatusPending,
	}
	require.NoError(t, db.Create(payment).Error)

	return db, reconciliation, folio, payment
}

func TestVerifySuccessAppliesPaymentOnce(t *testing.T) {
	gateway := &fakeGateway{
		name: models.GatewayPaystack,
		result: &payments.VerifyResult{
			Status:               payments.VerifySuccess,
			AmountMinor:          2000000, // 20000.00 in kobo
			GatewayTransactionID: "tx-991",
		},
	}
	db, reconciliation, folio, payment := newReconciliationFixture(t, gateway)

	settled, err := reconciliation.VerifyPayment(context.Background(), 1, payment.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, settled.Status)
	assert.True(t, settled.Reconciled)
	assert.Equal(t, "tx-991", settled.GatewayTransactionID)

	var updated models.Folio
	require.NoError(t, db.First(&updated, folio.ID).Error)
	assert.True(t, updated.Balance.Equal(money(30000)))

	// A repeated verify (webhook redelivery or guest polling) must not
	// touch the folio again, nor even call the gateway.
	settled, err = reconciliation.VerifyPayment(context.Background(), 1, payment.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, settled.Status)
	assert.Equal(t, 1, gateway.verifyCalls)

	require.NoError(t, db.First(&updated, folio.ID).Error)
	assert.True(t, updated.Balance.Equal(money(30000)))
	assert.True(t, updated.Balance.Equal(updated.TotalCharges.Sub(updated.TotalPayments)))
}

func TestWebhookRedeliveryIsIdempotent(t *testing.T) {
	gateway := &fakeGateway{
		name: models.GatewayPaystack,
		result: &payments.VerifyResult{
			Status:      payments.VerifySuccess,
			AmountMinor: 2000000,
		},
	}
	db, reconciliation, folio, payment := newReconciliationFixture(t, gateway)

	event := WebhookEvent{Gateway: gateway.name, TenantID: 1, Reference: payment.Reference}
	for i := 0; i < 5; i++ {
		require.NoError(t, reconciliation.HandleWebhook(context.Background(), event))
	}

	var updated models.Folio
	require.NoError(t, db.First(&updated, folio.ID).Error)
	assert.True(t, updated.Balance.Equal(money(30000)))

	var completed int64
	require.NoError(t, db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusCompleted).Count(&completed).Error)
	assert.EqualValues(t, 1, completed)
}

func TestVerifySettledMidFlightAppliesPaymentOnce(t *testing.T) {
	gateway := &fakeGateway{
		name: models.GatewayPaystack,
		result: &payments.VerifyResult{
			Status:               payments.VerifySuccess,
			AmountMinor:          2000000,
			GatewayTransactionID: "tx-verify",
		},
	}
	db, reconciliation, folio, payment := newReconciliationFixture(t, gateway)
	ledger := NewLedgerService(db)

	// While this verify waits on the gateway, a webhook delivery settles the
	// same reference and commits first.
	gateway.onVerify = func() {
		_, err := ledger.ApplyPayment(1, folio.ID, money(20000))
		require.NoError(t, err)
		claim := db.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":                 models.PaymentStatusCompleted,
				"reconciled":             true,
				"gateway_transaction_id": "tx-webhook",
			})
		require.NoError(t, claim.Error)
		require.EqualValues(t, 1, claim.RowsAffected)
	}

	settled, err := reconciliation.VerifyPayment(context.Background(), 1, payment.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, settled.Status)
	assert.Equal(t, "tx-webhook", settled.GatewayTransactionID)

	var updated models.Folio
	require.NoError(t, db.First(&updated, folio.ID).Error)
	assert.True(t, updated.Balance.Equal(money(30000)))
	assert.True(t, updated.Balance.Equal(updated.TotalCharges.Sub(updated.TotalPayments)))
}

func TestSettleSkipsLedgerWhenRowNoLongerPending(t *testing.T) {
	gateway := &fakeGateway{name: models.GatewayPaystack}
	db, reconciliation, folio, payment := newReconciliationFixture(t, gateway)

	// The row moves on underneath a settle still holding a pending copy; the
	// conditional claim must match nothing and leave the folio untouched.
	require.NoError(t, db.Model(&models.Payment{}).Where("id = ?", payment.ID).
		Update("status", models.PaymentStatusFailed).Error)

	stale := *payment
	settled, err := reconciliation.settle(&stale, &payments.VerifyResult{
		Status:      payments.VerifySuccess,
		AmountMinor: 2000000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, settled.Status)

	var updated models.Folio
	require.NoError(t, db.First(&updated, folio.ID).Error)
	assert.True(t, updated.Balance.Equal(money(50000)))
}

func TestVerifyFailedMarksPaymentFailed(t *testing.T) {
	gateway := &fakeGateway{
		name:   models.GatewayPaystack,
		result: &payments.VerifyResult{Status: payments.VerifyFailed},
	}
	db, reconciliation, folio, payment := newReconciliationFixture(t, gateway)

	settled, err := reconciliation.VerifyPayment(context.Background(), 1, payment.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, settled.Status)

	var updated models.Folio
	require.NoError(t, db.First(&updated, folio.ID).Error)
	assert.True(t, updated.Balance.Equal(money(50000)))
}

func TestVerifyPendingLeavesPaymentPending(t *testing.T) {
	gateway := &fakeGateway{
		name:   models.GatewayPaystack,
		result: &payments.VerifyResult{Status: payments.VerifyPending},
	}
	_, reconciliation, _, payment := newReconciliationFixture(t, gateway)

	settled, err := reconciliation.VerifyPayment(context.Background(), 1, payment.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, settled.Status)
}

func TestVerifyTimeoutIsPendingNotFailed(t *testing.T) {
	gateway := &fakeGateway{name: models.GatewayPaystack, err: context.DeadlineExceeded}
	_, reconciliation, _, payment := newReconciliationFixture(t, gateway)

	settled, err := reconciliation.VerifyPayment(context.Background(), 1, payment.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, settled.Status)
}

func TestVerifyUnknownReferenceIsNotFound(t *testing.T) {
	gateway := &fakeGateway{name: models.GatewayPaystack}
	_, reconciliation, _, _ := newReconciliationFixture(t, gateway)

	_, err := reconciliation.VerifyPayment(context.Background(), 1, "PAY-no-such-reference")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))

	// Same reference under the wrong tenant is equally invisible.
	_, err = reconciliation.VerifyPayment(context.Background(), 2, "PAY-test-reference")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestRecordManualPaymentCompletesImmediately(t *testing.T) {
	gateway := &fakeGateway{name: models.GatewayPaystack}
	db, reconciliation, folio, _ := newReconciliationFixture(t, gateway)

	payment, err := reconciliation.RecordManualPayment(1, folio.ID, money(50000), "cash", 7)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, models.GatewayManual, payment.Gateway)
	assert.True(t, payment.Reconciled)

	var updated models.Folio
	require.NoError(t, db.First(&updated, folio.ID).Error)
	assert.True(t, updated.Balance.IsZero())
}

func TestInitializePaymentUsesGatewayAndStoresPending(t *testing.T) {
	gateway := &fakeGateway{name: models.GatewayPaystack}
	db, reconciliation, folio, _ := newReconciliationFixture(t, gateway)

	result, err := reconciliation.InitializePayment(context.Background(), 1, InitializePaymentInput{
		FolioID: folio.ID,
		Amount:  money(20000),
		Gateway: models.GatewayPaystack,
		Email:   "ada@example.com",
	})
	require.NoError(t, err)
	assert.Contains(t, result.AuthorizationURL, result.Reference)

	var stored models.Payment
	require.NoError(t, db.Where("reference = ?", result.Reference).First(&stored).Error)
	assert.Equal(t, models.PaymentStatusPending, stored.Status)
	assert.Equal(t, models.GatewayPaystack, stored.Gateway)
}

func TestInitializePaymentUnsupportedGateway(t *testing.T) {
	gateway := &fakeGateway{name: models.GatewayPaystack}
	_, reconciliation, folio, _ := newReconciliationFixture(t, gateway)

	_, err := reconciliation.InitializePayment(context.Background(), 1, InitializePaymentInput{
		FolioID: folio.ID,
		Amount:  money(20000),
		Gateway: "bitcoincash",
		Email:   "ada@example.com",
	})
	require.Error(t, err)
	assert.Equal(t, CodeUnsupportedGateway, CodeOf(err))
}
