package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	FolioStatusOpen   = "open"
	FolioStatusClosed = "closed"
	FolioStatusVoided = "voided"
)

// Folio is a guest's running account for a stay. Created exactly once per
// reservation at check-in. Invariant: Balance == TotalCharges - TotalPayments,
// maintained in the same write as every charge/payment, never recomputed by
// summing children.
type Folio struct {
	gorm.Model
	TenantID       uint            `json:"tenantID" gorm:"index;not null"`
	ReservationID  *uint           `json:"reservationID" gorm:"uniqueIndex"`
	GroupBookingID *uint           `json:"groupBookingID" gorm:"index"`
	GuestName      string          `json:"guestName" gorm:"size:128"`
	Status         string          `json:"status" gorm:"size:16;default:open"`
	TotalCharges   decimal.Decimal `json:"totalCharges" gorm:"type:decimal(12,2)"`
	TotalPayments  decimal.Decimal `json:"totalPayments" gorm:"type:decimal(12,2)"`
	Balance        decimal.Decimal `json:"balance" gorm:"type:decimal(12,2)"`

	Charges  []FolioCharge `json:"charges,omitempty" gorm:"foreignKey:FolioID"`
	Payments []Payment     `json:"payments,omitempty" gorm:"foreignKey:FolioID"`
}

// FolioCharge is append-only; the initial room-rate charge is written in the
// same transaction as the folio itself.
type FolioCharge struct {
	gorm.Model
	FolioID     uint            `json:"folioID" gorm:"index;not null"`
	Description string          `json:"description" gorm:"size:255"`
	Category    string          `json:"category" gorm:"size:32"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2)"`
	Quantity    int             `json:"quantity" gorm:"default:1"`
	Total       decimal.Decimal `json:"total" gorm:"type:decimal(12,2)"`
}
