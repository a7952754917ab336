package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/KachiAlex/innsight-sub005/models"
	"github.com/KachiAlex/innsight-sub005/payments"
)

// ReconciliationService matches gateway results to pending payment records.
// Explicit verify (guest polling) and webhooks (gateway push) converge on
// settle; the status transition into completed is the idempotency gate, so
// however many times a gateway reports success for one reference, the folio
// balance moves exactly once.
type ReconciliationService struct {
	db       *gorm.DB
	registry *payments.Registry
	settings *SettingsService
	ledger   *LedgerService
}

func NewReconciliationService(db *gorm.DB, registry *payments.Registry, settings *SettingsService, ledger *LedgerService) *ReconciliationService {
	return &ReconciliationService{db: db, registry: registry, settings: settings, ledger: ledger}
}

type InitializePaymentInput struct {
	FolioID     uint
	Amount      decimal.Decimal
	Gateway     string // empty means the tenant's default
	Email       string
	CallbackURL string
	RecordedBy  uint
}

type InitializePaymentResult struct {
	Payment          *models.Payment `json:"payment"`
	AuthorizationURL string          `json:"authorizationURL"`
	Reference        string          `json:"reference"`
}

// InitializePayment creates a pending payment record and asks the gateway
// for a checkout URL. The tenant id rides in the gateway metadata so the
// webhook can find its way back without authentication.
func (s *ReconciliationService) InitializePayment(ctx context.Context, tenantID uint, input InitializePaymentInput) (*InitializePaymentResult, error) {
	if !input.Amount.IsPositive() {
		return nil, Validationf("payment amount must be positive")
	}

	folio, err := s.ledger.GetFolio(tenantID, input.FolioID)
	if err != nil {
		return nil, err
	}
	if folio.Status != models.FolioStatusOpen {
		return nil, BusinessRule(CodeFolioClosed, "folio is %s and cannot accept payments", folio.Status)
	}

	settings, err := s.settings.GetPaymentSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	gatewayName := input.Gateway
	if gatewayName == "" {
		gatewayName = settings.DefaultGateway
	}

	gateway, creds, err := s.resolveGateway(gatewayName, settings)
	if err != nil {
		return nil, err
	}

	reference := "PAY-" + uuid.NewString()
	metadata := map[string]interface{}{
		"tenantId": tenantID,
		"folioId":  folio.ID,
	}
	metadataJSON, _ := json.Marshal(metadata)

	payment := &models.Payment{
		TenantID:   tenantID,
		FolioID:    folio.ID,
		Amount:     input.Amount,
		Method:     "online",
		Gateway:    gatewayName,
		Reference:  reference,
		Status:     models.PaymentStatusPending,
		Metadata:   datatypes.JSON(metadataJSON),
		RecordedBy: input.RecordedBy,
	}
	if err := s.db.Create(payment).Error; err != nil {
		return nil, Internal(err)
	}

	initResult, err := gateway.Initialize(ctx, payments.InitializeRequest{
		AmountMinor: input.Amount.Shift(2).IntPart(),
		Currency:    settings.Currency,
		Email:       input.Email,
		Reference:   reference,
		CallbackURL: input.CallbackURL,
		Metadata:    metadata,
	}, creds)
	if err != nil {
		// The pending record stays; a retry reuses a fresh reference.
		return nil, wrapGatewayError(gatewayName, err)
	}

	return &InitializePaymentResult{
		Payment:          payment,
		AuthorizationURL: initResult.AuthorizationURL,
		Reference:        reference,
	}, nil
}

// VerifyPayment is the guest-initiated entry point. It is safe to call any
// number of times, before or after the webhook has landed.
func (s *ReconciliationService) VerifyPayment(ctx context.Context, tenantID uint, reference string) (*models.Payment, error) {
	payment, err := s.findPayment(tenantID, reference)
	if err != nil {
		return nil, err
	}
	if payment.Status == models.PaymentStatusCompleted {
		return payment, nil
	}

	settings, err := s.settings.GetPaymentSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	gateway, creds, err := s.resolveGateway(payment.Gateway, settings)
	if err != nil {
		return nil, err
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	result, err := gateway.Verify(verifyCtx, reference, creds)
	if err != nil {
		if payments.IsTimeout(err) {
			// Could not confirm either way; the payment stays pending.
			log.Printf("reconciliation: verify timed out for %s, leaving pending", reference)
			return payment, nil
		}
		return nil, wrapGatewayError(payment.Gateway, err)
	}

	return s.settle(payment, result)
}

// WebhookEvent is the gateway-agnostic form of a webhook payload after the
// routes layer has parsed the per-gateway shape.
type WebhookEvent struct {
	Gateway   string
	TenantID  uint
	Reference string
}

// HandleWebhook processes a gateway push. Errors are logged and swallowed
// by the caller, which acknowledges the gateway regardless; surfacing a 500
// would only trigger redelivery storms.
func (s *ReconciliationService) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	if event.TenantID == 0 || event.Reference == "" {
		return Validationf("webhook payload missing tenant id or reference")
	}
	_, err := s.VerifyPayment(ctx, event.TenantID, event.Reference)
	return err
}

// RecordManualPayment posts a front-desk cash/POS payment. No gateway round
// trip: the payment is completed and applied to the folio in one commit.
func (s *ReconciliationService) RecordManualPayment(tenantID, folioID uint, amount decimal.Decimal, method string, recordedBy uint) (*models.Payment, error) {
	if method == "" {
		method = "cash"
	}

	var payment *models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		folio, err := s.ledger.ApplyPaymentTx(tx, tenantID, folioID, amount)
		if err != nil {
			return err
		}

		now := time.Now()
		payment = &models.Payment{
			TenantID:   tenantID,
			FolioID:    folio.ID,
			Amount:     amount,
			Method:     method,
			Gateway:    models.GatewayManual,
			Reference:  "PAY-" + uuid.NewString(),
			Status:     models.PaymentStatusCompleted,
			Reconciled: true,
			PaidAt:     &now,
			RecordedBy: recordedBy,
		}
		if err := tx.Create(payment).Error; err != nil {
			return Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// settle applies one gateway verification result. The idempotency guard is
// the conditional update into completed: two settles racing over the same
// reference both run the UPDATE, exactly one matches the pending row, and
// only the winner applies the ledger payment. The loser re-reads and returns
// the already-settled record.
func (s *ReconciliationService) settle(payment *models.Payment, result *payments.VerifyResult) (*models.Payment, error) {
	switch result.Status {
	case payments.VerifySuccess:
		err := s.db.Transaction(func(tx *gorm.DB) error {
			var current models.Payment
			if err := tx.Where("tenant_id = ? AND reference = ?", payment.TenantID, payment.Reference).
				First(&current).Error; err != nil {
				return Internal(err)
			}
			if current.Status == models.PaymentStatusCompleted {
				*payment = current
				return nil
			}

			amount := decimal.New(result.AmountMinor, -2)
			paidAt := result.PaidAt
			if paidAt.IsZero() {
				paidAt = time.Now()
			}

			claim := tx.Model(&models.Payment{}).
				Where("id = ? AND status = ?", current.ID, models.PaymentStatusPending).
				Updates(map[string]interface{}{
					"status":                 models.PaymentStatusCompleted,
					"reconciled":             true,
					"amount":                 amount,
					"gateway_transaction_id": result.GatewayTransactionID,
					"paid_at":                paidAt,
				})
			if claim.Error != nil {
				return Internal(claim.Error)
			}
			if claim.RowsAffected == 0 {
				// A concurrent settle won the row; the folio was already
				// credited there.
				if err := tx.First(&current, current.ID).Error; err != nil {
					return Internal(err)
				}
				*payment = current
				return nil
			}

			if _, err := s.ledger.ApplyPaymentTx(tx, current.TenantID, current.FolioID, amount); err != nil {
				return err
			}

			current.Status = models.PaymentStatusCompleted
			current.Reconciled = true
			current.Amount = amount
			current.GatewayTransactionID = result.GatewayTransactionID
			current.PaidAt = &paidAt
			*payment = current
			return nil
		})
		if err != nil {
			return nil, err
		}
		return payment, nil

	case payments.VerifyFailed:
		// Same conditional transition: a failed verdict never overwrites a
		// payment another settle already completed.
		claim := s.db.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, models.PaymentStatusPending).
			Update("status", models.PaymentStatusFailed)
		if claim.Error != nil {
			return nil, Internal(claim.Error)
		}
		if claim.RowsAffected == 1 {
			payment.Status = models.PaymentStatusFailed
		} else if err := s.db.First(payment, payment.ID).Error; err != nil {
			return nil, Internal(err)
		}
		return payment, nil

	default:
		return payment, nil
	}
}

func (s *ReconciliationService) findPayment(tenantID uint, reference string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.Where("tenant_id = ? AND reference = ?", tenantID, reference).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("payment")
	}
	if err != nil {
		return nil, Internal(err)
	}
	return &payment, nil
}

func (s *ReconciliationService) resolveGateway(name string, settings *models.TenantPaymentSettings) (payments.Gateway, payments.Credentials, error) {
	gateway, err := s.registry.Get(name)
	if err != nil {
		return nil, payments.Credentials{}, BusinessRule(CodeUnsupportedGateway, "unsupported payment gateway %q", name)
	}
	if name == models.GatewayManual {
		return gateway, payments.Credentials{}, nil
	}

	public, secret := settings.CredentialsFor(name)
	creds, err := s.registry.ResolveCredentials(name, public, secret)
	if err != nil {
		return nil, payments.Credentials{}, GatewayErrorf(CodeGatewayNotConfigured, err,
			"payment gateway %q is not configured for this property", name)
	}
	return gateway, creds, nil
}

func wrapGatewayError(name string, err error) error {
	if errors.Is(err, payments.ErrNotImplemented) {
		return GatewayErrorf(CodeGatewayNotImplemented, err, "payment gateway %q does not support online checkout", name)
	}
	if errors.Is(err, payments.ErrNotConfigured) {
		return GatewayErrorf(CodeGatewayNotConfigured, err, "payment gateway %q is not configured for this property", name)
	}
	return GatewayErrorf("", err, "payment gateway %q request failed", name)
}
