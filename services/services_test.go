package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KachiAlex/innsight-sub005/models"
	"github.com/KachiAlex/innsight-sub005/storage"
)

var testDBCounter int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:services_test_%d?mode=memory&cache=shared", n)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))
	return db
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func money(value int64) decimal.Decimal {
	return decimal.NewFromInt(value)
}

func seedRoom(t *testing.T, db *gorm.DB, tenantID uint, number string, rate int64) *models.Room {
	t.Helper()
	customRate := money(rate)
	room := &models.Room{
		TenantID:     tenantID,
		RoomNumber:   number,
		Type:         "standard",
		Floor:        1,
		MaxOccupancy: 2,
		Status:       models.RoomStatusAvailable,
		CustomRate:   &customRate,
	}
	require.NoError(t, db.Create(room).Error)
	return room
}

func seedRoomWithPlan(t *testing.T, db *gorm.DB, tenantID uint, number string, planRate int64) *models.Room {
	t.Helper()
	plan := &models.RatePlan{TenantID: tenantID, Name: "Standard Plan", BaseRate: money(planRate), IsActive: true}
	require.NoError(t, db.Create(plan).Error)
	room := &models.Room{
		TenantID:     tenantID,
		RoomNumber:   number,
		Type:         "standard",
		Floor:        1,
		MaxOccupancy: 2,
		Status:       models.RoomStatusAvailable,
		RatePlanID:   &plan.ID,
	}
	require.NoError(t, db.Create(room).Error)
	return room
}

func seedBareRoom(t *testing.T, db *gorm.DB, tenantID uint, number string) *models.Room {
	t.Helper()
	room := &models.Room{
		TenantID:     tenantID,
		RoomNumber:   number,
		Type:         "standard",
		Floor:        1,
		MaxOccupancy: 2,
		Status:       models.RoomStatusAvailable,
	}
	require.NoError(t, db.Create(room).Error)
	return room
}

func newBookingFixture(t *testing.T) (*gorm.DB, *BookingService, *LedgerService) {
	t.Helper()
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	booking := NewBookingService(db, ledger, NewLogNotifier())
	return db, booking, ledger
}
