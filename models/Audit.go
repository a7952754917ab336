package models

import (
	"time"
)

type AuditLog struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TenantID   uint      `json:"tenantID" gorm:"index;not null"`
	UserID     uint      `json:"userID" gorm:"index"`
	Action     string    `json:"action" gorm:"size:64;index"`
	EntityType string    `json:"entityType" gorm:"size:64;index"`
	EntityID   uint      `json:"entityID" gorm:"index"`
	BeforeJSON string    `json:"beforeJSON" gorm:"type:text"`
	AfterJSON  string    `json:"afterJSON" gorm:"type:text"`
	Metadata   string    `json:"metadata" gorm:"type:text"`
	IPAddress  string    `json:"ipAddress" gorm:"size:64"`
	CreatedAt  time.Time `json:"createdAt"`
}
