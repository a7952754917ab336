package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reservation state machine: confirmed -> checked_in -> checked_out,
// confirmed -> cancelled. A checked_in reservation cannot be cancelled,
// it must be checked out first.
const (
	ReservationStatusConfirmed  = "confirmed"
	ReservationStatusCheckedIn  = "checked_in"
	ReservationStatusCheckedOut = "checked_out"
	ReservationStatusCancelled  = "cancelled"
)

// Reservation holds one room for a whole-date range. CheckIn/CheckOut are
// dates, not times; the range is half-open so a checkout day does not block
// a same-day check-in.
type Reservation struct {
	gorm.Model
	TenantID          uint            `json:"tenantID" gorm:"not null;index;index:idx_tenant_resno,unique"`
	RoomID            uint            `json:"roomID" gorm:"index;not null"`
	GroupBookingID    *uint           `json:"groupBookingID" gorm:"index"`
	ReservationNumber string          `json:"reservationNumber" gorm:"size:24;index:idx_tenant_resno,unique"`
	GuestName         string          `json:"guestName" gorm:"size:128"`
	GuestEmail        string          `json:"guestEmail" gorm:"size:128"`
	GuestPhone        string          `json:"guestPhone" gorm:"size:32"`
	CheckIn           time.Time       `json:"checkIn"`
	CheckOut          time.Time       `json:"checkOut"`
	Adults            int             `json:"adults"`
	Children          int             `json:"children"`
	Rate              decimal.Decimal `json:"rate" gorm:"type:decimal(12,2)"`
	Status            string          `json:"status" gorm:"size:16;index;default:confirmed"`
	CreatedBy         uint            `json:"createdBy"`
	CheckedInBy       *uint           `json:"checkedInBy"`
	CheckedInAt       *time.Time      `json:"checkedInAt"`
	CheckedOutBy      *uint           `json:"checkedOutBy"`
	CheckedOutAt      *time.Time      `json:"checkedOutAt"`

	Room *Room `json:"room,omitempty" gorm:"foreignKey:RoomID"`
}

// HoldingStatuses are the statuses that hold a room for overlap purposes.
// Cancelled and checked_out reservations release the room.
var HoldingStatuses = []string{ReservationStatusConfirmed, ReservationStatusCheckedIn}
