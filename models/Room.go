package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Room statuses. Status is a projection of the latest reservation/housekeeping
// event for the room; booking conflicts are decided by reservation records,
// never by this field.
const (
	RoomStatusAvailable   = "available"
	RoomStatusOccupied    = "occupied"
	RoomStatusDirty       = "dirty"
	RoomStatusClean       = "clean"
	RoomStatusReserved    = "reserved"
	RoomStatusOutOfOrder  = "out_of_order"
	RoomStatusMaintenance = "maintenance"
)

type Room struct {
	gorm.Model
	TenantID     uint             `json:"tenantID" gorm:"not null;index:idx_tenant_room,unique"`
	RoomNumber   string           `json:"roomNumber" gorm:"size:16;index:idx_tenant_room,unique"`
	Type         string           `json:"type" gorm:"size:32;index"`
	Floor        int              `json:"floor"`
	MaxOccupancy int              `json:"maxOccupancy"`
	Status       string           `json:"status" gorm:"size:24;default:available"`
	Category     string           `json:"category" gorm:"size:32"`
	RatePlanID   *uint            `json:"ratePlanID"`
	CustomRate   *decimal.Decimal `json:"customRate" gorm:"type:decimal(12,2)"`

	RatePlan *RatePlan `json:"ratePlan,omitempty" gorm:"foreignKey:RatePlanID"`
}
