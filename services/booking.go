package services

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KachiAlex/innsight-sub005/models"
)

// BookingService drives the reservation/room/folio state machine. Every
// multi-entity mutation (reservation+room+folio+charge) runs as one
// transaction. Creation serializes per room through a keyed mutex and
// re-checks overlap inside the transaction, so two concurrent creates for
// the same room cannot both pass the availability read.
type BookingService struct {
	db       *gorm.DB
	ledger   *LedgerService
	notifier Notifier

	roomLocks sync.Map // "tenantID:roomID" -> *sync.Mutex
}

func NewBookingService(db *gorm.DB, ledger *LedgerService, notifier Notifier) *BookingService {
	if notifier == nil {
		notifier = NewLogNotifier()
	}
	return &BookingService{db: db, ledger: ledger, notifier: notifier}
}

func (s *BookingService) lockRoom(tenantID, roomID uint) func() {
	key := fmt.Sprintf("%d:%d", tenantID, roomID)
	value, _ := s.roomLocks.LoadOrStore(key, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// lockRooms acquires per-room locks in ascending room-id order so concurrent
// group bookings over intersecting room sets cannot deadlock.
func (s *BookingService) lockRooms(tenantID uint, roomIDs []uint) func() {
	sorted := append([]uint(nil), roomIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	unlocks := make([]func(), 0, len(sorted))
	for _, id := range sorted {
		unlocks = append(unlocks, s.lockRoom(tenantID, id))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

func newReservationNumber() string {
	return "RSV-" + strings.ToUpper(uuid.NewString()[:8])
}

func newGroupNumber() string {
	return "GRP-" + strings.ToUpper(uuid.NewString()[:8])
}

type CreateReservationInput struct {
	RoomID     uint
	GuestName  string
	GuestEmail string
	GuestPhone string
	CheckIn    time.Time
	CheckOut   time.Time
	Adults     int
	Children   int
	Rate       *decimal.Decimal // explicit override; otherwise resolved from the room
	CreatedBy  uint
}

// CreateReservation books a single room. The overlap re-check and the insert
// run in one transaction, under the room's creation lock.
func (s *BookingService) CreateReservation(tenantID uint, input CreateReservationInput) (*models.Reservation, error) {
	if err := validateDateRange(input.CheckIn, input.CheckOut); err != nil {
		return nil, err
	}
	if input.GuestName == "" {
		return nil, Validationf("guest name is required")
	}
	if input.Adults <= 0 {
		input.Adults = 1
	}

	unlock := s.lockRoom(tenantID, input.RoomID)
	defer unlock()

	var reservation *models.Reservation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		room, err := loadRoom(tx, tenantID, input.RoomID)
		if err != nil {
			return err
		}

		conflicts, err := roomConflicts(tx, tenantID, room.ID, input.CheckIn, input.CheckOut, 0)
		if err != nil {
			return Internal(err)
		}
		if len(conflicts) > 0 {
			return BusinessRule(CodeRoomUnavailable,
				"room %s is not available for the selected dates (conflicts with %s)",
				room.RoomNumber, conflicts[0].ReservationNumber)
		}

		rate, err := resolveRate(room, input.Rate)
		if err != nil {
			return err
		}

		reservation = &models.Reservation{
			TenantID:          tenantID,
			RoomID:            room.ID,
			ReservationNumber: newReservationNumber(),
			GuestName:         input.GuestName,
			GuestEmail:        input.GuestEmail,
			GuestPhone:        input.GuestPhone,
			CheckIn:           input.CheckIn,
			CheckOut:          input.CheckOut,
			Adults:            input.Adults,
			Children:          input.Children,
			Rate:              rate,
			Status:            models.ReservationStatusConfirmed,
			CreatedBy:         input.CreatedBy,
		}
		if err := tx.Create(reservation).Error; err != nil {
			return Internal(err)
		}

		// Projection only; overlap is decided by reservation rows.
		if room.Status == models.RoomStatusAvailable || room.Status == models.RoomStatusClean {
			if err := tx.Model(room).Update("status", models.RoomStatusReserved).Error; err != nil {
				return Internal(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if notifyErr := s.notifier.ReservationConfirmed(reservation); notifyErr != nil {
		log.Printf("booking: confirmation notification failed for %s: %v", reservation.ReservationNumber, notifyErr)
	}
	return reservation, nil
}

// CheckIn moves a confirmed reservation to checked_in. In one commit: the
// reservation status and audit stamps, the room to occupied, and the folio
// with its initial room-rate charge. Folio creation is idempotent, keyed by
// reservation id.
func (s *BookingService) CheckIn(tenantID, reservationID, staffID uint) (*models.Reservation, error) {
	var reservation *models.Reservation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		reservation, err = loadReservation(tx, tenantID, reservationID)
		if err != nil {
			return err
		}
		return s.checkInTx(tx, reservation, staffID)
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

func (s *BookingService) checkInTx(tx *gorm.DB, reservation *models.Reservation, staffID uint) error {
	if reservation.Status != models.ReservationStatusConfirmed {
		return BusinessRule(CodeInvalidStateTransition,
			"reservation %s is %s; only confirmed reservations can be checked in",
			reservation.ReservationNumber, reservation.Status)
	}

	room, err := loadRoom(tx, reservation.TenantID, reservation.RoomID)
	if err != nil {
		return err
	}

	now := time.Now()
	reservation.Status = models.ReservationStatusCheckedIn
	reservation.CheckedInBy = &staffID
	reservation.CheckedInAt = &now
	if err := tx.Model(reservation).Updates(map[string]interface{}{
		"status":        reservation.Status,
		"checked_in_by": staffID,
		"checked_in_at": now,
	}).Error; err != nil {
		return Internal(err)
	}

	if err := tx.Model(room).Update("status", models.RoomStatusOccupied).Error; err != nil {
		return Internal(err)
	}

	// Look up by reservation id first; a second check-in attempt must never
	// create a second folio.
	var existing models.Folio
	err = tx.Where("tenant_id = ? AND reservation_id = ?", reservation.TenantID, reservation.ID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Internal(err)
	}

	reservationID := reservation.ID
	folio := &models.Folio{
		TenantID:      reservation.TenantID,
		ReservationID: &reservationID,
		GuestName:     reservation.GuestName,
	}
	return s.ledger.OpenFolioTx(tx, folio, ChargeInput{
		Description: fmt.Sprintf("Room charge - %s", room.RoomNumber),
		Category:    "room",
		Amount:      reservation.Rate,
		Quantity:    1,
	})
}

// CheckOut moves a checked_in reservation to checked_out, marks the room
// dirty for housekeeping and closes the folio if it is still open. An
// outstanding balance survives as a closed-folio receivable.
func (s *BookingService) CheckOut(tenantID, reservationID, staffID uint) (*models.Reservation, error) {
	var reservation *models.Reservation
	var folio *models.Folio
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		reservation, err = loadReservation(tx, tenantID, reservationID)
		if err != nil {
			return err
		}
		folio, err = s.checkOutTx(tx, reservation, staffID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if folio != nil {
		if notifyErr := s.notifier.CheckoutReceipt(reservation, folio); notifyErr != nil {
			log.Printf("booking: receipt notification failed for %s: %v", reservation.ReservationNumber, notifyErr)
		}
	}
	return reservation, nil
}

func (s *BookingService) checkOutTx(tx *gorm.DB, reservation *models.Reservation, staffID uint) (*models.Folio, error) {
	if reservation.Status != models.ReservationStatusCheckedIn {
		return nil, BusinessRule(CodeInvalidStateTransition,
			"reservation %s is %s; only checked-in reservations can be checked out",
			reservation.ReservationNumber, reservation.Status)
	}

	now := time.Now()
	reservation.Status = models.ReservationStatusCheckedOut
	reservation.CheckedOutBy = &staffID
	reservation.CheckedOutAt = &now
	if err := tx.Model(reservation).Updates(map[string]interface{}{
		"status":         reservation.Status,
		"checked_out_by": staffID,
		"checked_out_at": now,
	}).Error; err != nil {
		return nil, Internal(err)
	}

	if err := tx.Model(&models.Room{}).
		Where("tenant_id = ? AND id = ?", reservation.TenantID, reservation.RoomID).
		Update("status", models.RoomStatusDirty).Error; err != nil {
		return nil, Internal(err)
	}

	var folio models.Folio
	err := tx.Where("tenant_id = ? AND reservation_id = ?", reservation.TenantID, reservation.ID).
		First(&folio).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, Internal(err)
	}
	if folio.Status == models.FolioStatusOpen {
		folio.Status = models.FolioStatusClosed
		if err := tx.Model(&folio).Update("status", models.FolioStatusClosed).Error; err != nil {
			return nil, Internal(err)
		}
	}
	return &folio, nil
}

// Cancel is legal only from confirmed. A checked-in guest must be checked
// out first.
func (s *BookingService) Cancel(tenantID, reservationID uint) (*models.Reservation, error) {
	var reservation *models.Reservation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		reservation, err = loadReservation(tx, tenantID, reservationID)
		if err != nil {
			return err
		}
		return cancelTx(tx, reservation)
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

func cancelTx(tx *gorm.DB, reservation *models.Reservation) error {
	switch reservation.Status {
	case models.ReservationStatusConfirmed:
	case models.ReservationStatusCheckedIn:
		return BusinessRule(CodeInvalidStateTransition,
			"reservation %s is checked in; check the guest out before cancelling",
			reservation.ReservationNumber)
	default:
		return BusinessRule(CodeInvalidStateTransition,
			"reservation %s is already %s", reservation.ReservationNumber, reservation.Status)
	}

	reservation.Status = models.ReservationStatusCancelled
	if err := tx.Model(reservation).Update("status", models.ReservationStatusCancelled).Error; err != nil {
		return Internal(err)
	}
	return nil
}

// GetReservation loads one reservation, tenant-scoped.
func (s *BookingService) GetReservation(tenantID, reservationID uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := s.db.Preload("Room").Where("tenant_id = ?", tenantID).First(&reservation, reservationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("reservation")
	}
	if err != nil {
		return nil, Internal(err)
	}
	return &reservation, nil
}

// ListReservations returns a page of the tenant's reservations, newest first.
func (s *BookingService) ListReservations(tenantID uint, status string, page, perPage int) ([]models.Reservation, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := s.db.Model(&models.Reservation{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, Internal(err)
	}

	var reservations []models.Reservation
	err := query.Preload("Room").Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&reservations).Error
	if err != nil {
		return nil, 0, Internal(err)
	}
	return reservations, total, nil
}

func resolveRate(room *models.Room, override *decimal.Decimal) (decimal.Decimal, error) {
	if override != nil && override.IsPositive() {
		return *override, nil
	}
	if rate, ok := effectiveRate(room); ok {
		return rate, nil
	}
	return decimal.Zero, BusinessRule(CodeNoRateFound,
		"no rate found for room %s; set a custom rate or assign a rate plan", room.RoomNumber)
}

func loadRoom(tx *gorm.DB, tenantID, roomID uint) (*models.Room, error) {
	var room models.Room
	err := tx.Preload("RatePlan").Where("tenant_id = ?", tenantID).First(&room, roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("room")
	}
	if err != nil {
		return nil, Internal(err)
	}
	return &room, nil
}

func loadReservation(tx *gorm.DB, tenantID, reservationID uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := tx.Where("tenant_id = ?", tenantID).First(&reservation, reservationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("reservation")
	}
	if err != nil {
		return nil, Internal(err)
	}
	return &reservation, nil
}
