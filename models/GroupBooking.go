package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Group booking aggregate statuses, derived from member reservation statuses.
const (
	GroupStatusConfirmed           = "confirmed"
	GroupStatusCheckedIn           = "checked_in"
	GroupStatusPartiallyCheckedIn  = "partially_checked_in"
	GroupStatusCheckedOut          = "checked_out"
	GroupStatusPartiallyCheckedOut = "partially_checked_out"
	GroupStatusCancelled           = "cancelled"
)

// GroupBooking is one guest transaction spanning multiple rooms. Member
// reservations share the guest identity and date range and are written in
// the same transaction as the group record.
type GroupBooking struct {
	gorm.Model
	TenantID       uint            `json:"tenantID" gorm:"not null;index;index:idx_tenant_groupno,unique"`
	GroupNumber    string          `json:"groupNumber" gorm:"size:24;index:idx_tenant_groupno,unique"`
	GuestName      string          `json:"guestName" gorm:"size:128"`
	GuestEmail     string          `json:"guestEmail" gorm:"size:128"`
	GuestPhone     string          `json:"guestPhone" gorm:"size:32"`
	CheckIn        time.Time       `json:"checkIn"`
	CheckOut       time.Time       `json:"checkOut"`
	Status         string          `json:"status" gorm:"size:24;default:confirmed"`
	TotalAmount    decimal.Decimal `json:"totalAmount" gorm:"type:decimal(12,2)"`
	ReservationIDs datatypes.JSON  `json:"reservationIDs"`
	CreatedBy      uint            `json:"createdBy"`

	Reservations []Reservation `json:"reservations,omitempty" gorm:"foreignKey:GroupBookingID"`
}
