package utils

import (
	"encoding/json"
	"log"
	"net"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"

	"github.com/KachiAlex/innsight-sub005/models"
)

type AuditEvent struct {
	TenantID   uint
	UserID     uint
	Action     string
	EntityType string
	EntityID   uint
	Before     interface{}
	After      interface{}
	Metadata   interface{}
	IPAddress  string
}

// RecordAudit writes one audit row. Fire-and-forget: a failed audit write is
// logged and must never abort the operation being audited.
func RecordAudit(db *gorm.DB, event AuditEvent) {
	entry := models.AuditLog{
		TenantID:   event.TenantID,
		UserID:     event.UserID,
		Action:     event.Action,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		BeforeJSON: marshalOrEmpty(event.Before),
		AfterJSON:  marshalOrEmpty(event.After),
		Metadata:   marshalOrEmpty(event.Metadata),
		IPAddress:  event.IPAddress,
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("audit: write failed for %s %s/%d: %v", event.Action, event.EntityType, event.EntityID, err)
	}
}

// Audit records an audit event from a request context, picking up the
// caller's ids and address.
func Audit(ctx iris.Context, db *gorm.DB, action, entityType string, entityID uint, before, after interface{}) {
	event := AuditEvent{
		TenantID:   TenantID(ctx),
		UserID:     UserID(ctx),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     before,
		After:      after,
		IPAddress:  clientIP(ctx),
	}
	RecordAudit(db, event)
}

func marshalOrEmpty(value interface{}) string {
	if value == nil {
		return ""
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(encoded)
}

func clientIP(ctx iris.Context) string {
	if ip := ctx.GetHeader("X-Forwarded-For"); ip != "" {
		return ip
	}
	ip, _, _ := net.SplitHostPort(ctx.RemoteAddr())
	return ip
}
