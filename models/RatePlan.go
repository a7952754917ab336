package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RatePlan struct {
	gorm.Model
	TenantID    uint            `json:"tenantID" gorm:"index;not null"`
	Name        string          `json:"name" gorm:"size:64"`
	Category    string          `json:"category" gorm:"size:32"`
	BaseRate    decimal.Decimal `json:"baseRate" gorm:"type:decimal(12,2)"`
	Description string          `json:"description" gorm:"size:255"`
	IsActive    bool            `json:"isActive" gorm:"default:true"`
}
