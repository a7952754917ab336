package routes

import (
	"github.com/kataras/iris/v12"
	"gorm.io/gorm"

	"github.com/KachiAlex/innsight-sub005/models"
	"github.com/KachiAlex/innsight-sub005/services"
	"github.com/KachiAlex/innsight-sub005/utils"
)

type SettingsHandler struct {
	db       *gorm.DB
	settings *services.SettingsService
}

func NewSettingsHandler(db *gorm.DB, settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{db: db, settings: settings}
}

func (h *SettingsHandler) GetPaymentSettings(ctx iris.Context) {
	settings, err := h.settings.GetPaymentSettings(ctx.Request().Context(), utils.TenantID(ctx))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, settings)
}

type UpdatePaymentSettingsRequest struct {
	DefaultGateway       string `json:"defaultGateway" validate:"required,oneof=manual paystack flutterwave stripe"`
	Currency             string `json:"currency" validate:"required,len=3"`
	PaystackPublicKey    string `json:"paystackPublicKey"`
	PaystackSecretKey    string `json:"paystackSecretKey"`
	FlutterwavePublicKey string `json:"flutterwavePublicKey"`
	FlutterwaveSecretKey string `json:"flutterwaveSecretKey"`
	StripePublicKey      string `json:"stripePublicKey"`
	StripeSecretKey      string `json:"stripeSecretKey"`
}

func (h *SettingsHandler) UpdatePaymentSettings(ctx iris.Context) {
	var request UpdatePaymentSettingsRequest
	if err := ctx.ReadJSON(&request); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	settings := &models.TenantPaymentSettings{
		TenantID:             utils.TenantID(ctx),
		DefaultGateway:       request.DefaultGateway,
		Currency:             request.Currency,
		PaystackPublicKey:    request.PaystackPublicKey,
		PaystackSecretKey:    request.PaystackSecretKey,
		FlutterwavePublicKey: request.FlutterwavePublicKey,
		FlutterwaveSecretKey: request.FlutterwaveSecretKey,
		StripePublicKey:      request.StripePublicKey,
		StripeSecretKey:      request.StripeSecretKey,
	}
	if err := h.settings.UpdatePaymentSettings(ctx.Request().Context(), settings); err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.Audit(ctx, h.db, "settings.payment.update", "tenant_payment_settings", settings.ID, nil, nil)
	utils.Success(ctx, settings)
}
