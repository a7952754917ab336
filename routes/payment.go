package routes

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"github.com/kataras/iris/v12"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KachiAlex/innsight-sub005/models"
	"github.com/KachiAlex/innsight-sub005/services"
	"github.com/KachiAlex/innsight-sub005/utils"
)

type PaymentHandler struct {
	db             *gorm.DB
	reconciliation *services.ReconciliationService
	ledger         *services.LedgerService
}

func NewPaymentHandler(db *gorm.DB, reconciliation *services.ReconciliationService, ledger *services.LedgerService) *PaymentHandler {
	return &PaymentHandler{db: db, reconciliation: reconciliation, ledger: ledger}
}

type InitializePaymentRequest struct {
	FolioID     uint    `json:"folioID" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Gateway     string  `json:"gateway" validate:"omitempty,oneof=paystack flutterwave stripe"`
	Email       string  `json:"email" validate:"required,email"`
	CallbackURL string  `json:"callbackURL" validate:"omitempty,url"`
}

func (h *PaymentHandler) Initialize(ctx iris.Context) {
	var request InitializePaymentRequest
	if err := ctx.ReadJSON(&request); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	result, err := h.reconciliation.InitializePayment(ctx.Request().Context(), utils.TenantID(ctx), services.InitializePaymentInput{
		FolioID:     request.FolioID,
		Amount:      decimal.NewFromFloat(request.Amount),
		Gateway:     request.Gateway,
		Email:       request.Email,
		CallbackURL: request.CallbackURL,
		RecordedBy:  utils.UserID(ctx),
	})
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.Audit(ctx, h.db, "payment.initialize", "payment", result.Payment.ID, nil, result.Payment)
	utils.Success(ctx, result)
}

// Verify is the guest-polling entry point; calling it after the webhook has
// already settled the payment is a no-op.
func (h *PaymentHandler) Verify(ctx iris.Context) {
	reference := ctx.Params().Get("reference")
	if reference == "" {
		utils.Fail(ctx, iris.StatusBadRequest, "payment reference is required")
		return
	}

	payment, err := h.reconciliation.VerifyPayment(ctx.Request().Context(), utils.TenantID(ctx), reference)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, payment)
}

type ManualPaymentRequest struct {
	FolioID uint    `json:"folioID" validate:"required"`
	Amount  float64 `json:"amount" validate:"required,gt=0"`
	Method  string  `json:"method" validate:"omitempty,oneof=cash pos transfer"`
}

func (h *PaymentHandler) RecordManual(ctx iris.Context) {
	var request ManualPaymentRequest
	if err := ctx.ReadJSON(&request); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	payment, err := h.reconciliation.RecordManualPayment(utils.TenantID(ctx), request.FolioID,
		decimal.NewFromFloat(request.Amount), request.Method, utils.UserID(ctx))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.Audit(ctx, h.db, "payment.manual", "payment", payment.ID, nil, payment)
	ctx.StatusCode(iris.StatusCreated)
	utils.Success(ctx, payment)
}

type PostChargeRequest struct {
	FolioID     uint    `json:"folioID" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Category    string  `json:"category" validate:"omitempty,oneof=room food beverage laundry minibar other"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Quantity    int     `json:"quantity" validate:"min=0"`
}

func (h *PaymentHandler) PostCharge(ctx iris.Context) {
	var request PostChargeRequest
	if err := ctx.ReadJSON(&request); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	folio, err := h.ledger.ApplyCharge(utils.TenantID(ctx), request.FolioID, services.ChargeInput{
		Description: request.Description,
		Category:    request.Category,
		Amount:      decimal.NewFromFloat(request.Amount),
		Quantity:    request.Quantity,
	})
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.Audit(ctx, h.db, "folio.charge", "folio", folio.ID, nil, folio)
	ctx.StatusCode(iris.StatusCreated)
	utils.Success(ctx, folio)
}

func (h *PaymentHandler) GetFolio(ctx iris.Context) {
	id, ok := paramUint(ctx, "id")
	if !ok {
		return
	}

	folio, err := h.ledger.GetFolio(utils.TenantID(ctx), id)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, folio)
}

// Webhook receives unauthenticated gateway pushes. Unknown gateway names are
// rejected with 400; for known gateways the response is always a 200
// acknowledgment, even when processing fails, because a non-2xx only makes
// the gateway redeliver. The tenant id is read from the metadata the
// gateway echoes back.
func (h *PaymentHandler) Webhook(ctx iris.Context) {
	gateway := ctx.Params().Get("gateway")

	body, err := ctx.GetBody()
	if err != nil {
		utils.Fail(ctx, iris.StatusBadRequest, "unreadable webhook payload")
		return
	}

	event, err := parseWebhookPayload(gateway, body)
	if err != nil {
		utils.Fail(ctx, iris.StatusBadRequest, err.Error())
		return
	}

	if processErr := h.reconciliation.HandleWebhook(ctx.Request().Context(), *event); processErr != nil {
		log.Printf("webhook: %s processing failed for reference %s: %v", gateway, event.Reference, processErr)
	}
	utils.Success(ctx, iris.Map{"received": true})
}

var (
	errInvalidWebhook        = errors.New("malformed webhook payload")
	errUnknownWebhookGateway = errors.New("unknown payment gateway")
)

// Gateways disagree on payload shape: Paystack nests the reference under
// data.reference with a metadata object, Flutterwave under data.tx_ref with
// a meta object.
type paystackWebhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string                 `json:"reference"`
		Metadata  map[string]interface{} `json:"metadata"`
	} `json:"data"`
}

type flutterwaveWebhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		TxRef string                 `json:"tx_ref"`
		Meta  map[string]interface{} `json:"meta"`
	} `json:"data"`
}

func parseWebhookPayload(gateway string, body []byte) (*services.WebhookEvent, error) {
	switch gateway {
	case models.GatewayPaystack:
		var payload paystackWebhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, errInvalidWebhook
		}
		return &services.WebhookEvent{
			Gateway:   gateway,
			TenantID:  tenantIDFromMetadata(payload.Data.Metadata),
			Reference: payload.Data.Reference,
		}, nil
	case models.GatewayFlutterwave:
		var payload flutterwaveWebhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, errInvalidWebhook
		}
		return &services.WebhookEvent{
			Gateway:   gateway,
			TenantID:  tenantIDFromMetadata(payload.Data.Meta),
			Reference: payload.Data.TxRef,
		}, nil
	default:
		return nil, errUnknownWebhookGateway
	}
}

// tenantIDFromMetadata tolerates the number/string coercion gateways apply
// to echoed metadata.
func tenantIDFromMetadata(metadata map[string]interface{}) uint {
	value, ok := metadata["tenantId"]
	if !ok {
		return 0
	}
	switch v := value.(type) {
	case float64:
		return uint(v)
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			return uint(id)
		}
	}
	return 0
}
