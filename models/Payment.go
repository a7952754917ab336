package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Supported payment gateways.
const (
	GatewayManual      = "manual"
	GatewayPaystack    = "paystack"
	GatewayFlutterwave = "flutterwave"
	GatewayStripe      = "stripe"
)

// Payment records one payment attempt against a folio. Reference is the
// idempotency key across initialize/verify/webhook: unique per tenant, and
// the folio balance is touched at most once, gated by the status transition
// into completed.
type Payment struct {
	gorm.Model
	TenantID             uint            `json:"tenantID" gorm:"not null;index;index:idx_tenant_payref,unique"`
	FolioID              uint            `json:"folioID" gorm:"index;not null"`
	Amount               decimal.Decimal `json:"amount" gorm:"type:decimal(12,2)"`
	Method               string          `json:"method" gorm:"size:24"`
	Gateway              string          `json:"gateway" gorm:"size:24"`
	GatewayTransactionID string          `json:"gatewayTransactionID" gorm:"size:64"`
	Reference            string          `json:"reference" gorm:"size:64;index:idx_tenant_payref,unique"`
	Status               string          `json:"status" gorm:"size:16;index;default:pending"`
	Reconciled           bool            `json:"reconciled" gorm:"default:false"`
	PaidAt               *time.Time      `json:"paidAt"`
	Metadata             datatypes.JSON  `json:"metadata"`
	RecordedBy           uint            `json:"recordedBy"`
}
