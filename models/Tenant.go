package models

import (
	"gorm.io/gorm"
)

// Tenant is a property (hotel). Tenant id is a hard partition boundary:
// every query in the booking and billing engines filters by it.
type Tenant struct {
	gorm.Model
	Name     string `json:"name" gorm:"size:128"`
	Slug     string `json:"slug" gorm:"size:64;uniqueIndex"`
	Email    string `json:"email" gorm:"size:128"`
	Phone    string `json:"phone" gorm:"size:32"`
	Address  string `json:"address" gorm:"size:255"`
	IsActive bool   `json:"isActive" gorm:"default:true"`
}
