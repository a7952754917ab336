package services

import (
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KachiAlex/innsight-sub005/models"
)

// AvailabilityService answers "which rooms are free for this range".
// Overlap is half-open: A.start < B.end && A.end > B.start, so a checkout
// day never blocks a same-day check-in. Only reservations in a holding
// status (confirmed, checked_in) count; room status never decides a booking.
type AvailabilityService struct {
	db *gorm.DB
}

func NewAvailabilityService(db *gorm.DB) *AvailabilityService {
	return &AvailabilityService{db: db}
}

type AvailabilityFilters struct {
	RoomType          string
	Category          string
	Floor             *int
	MinOccupancy      int
	RatePlanID        *uint
	MinRate           *decimal.Decimal
	MaxRate           *decimal.Decimal
	IncludeOutOfOrder bool
}

// ConflictSummary describes one reservation blocking a room, enough for the
// front desk to act on without another lookup.
type ConflictSummary struct {
	ReservationID     uint      `json:"reservationID"`
	ReservationNumber string    `json:"reservationNumber"`
	GuestName         string    `json:"guestName"`
	CheckIn           time.Time `json:"checkIn"`
	CheckOut          time.Time `json:"checkOut"`
	Status            string    `json:"status"`
}

type UnavailableRoom struct {
	Room      models.Room       `json:"room"`
	Conflicts []ConflictSummary `json:"conflicts"`
}

type AvailabilityResult struct {
	Available   []models.Room     `json:"available"`
	Unavailable []UnavailableRoom `json:"unavailable"`
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share at least
// one night.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func validateDateRange(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return Validationf("check-in and check-out dates are required")
	}
	if !checkOut.After(checkIn) {
		return Validationf("check-out date must be after check-in date")
	}
	return nil
}

// FindAvailable loads the tenant's candidate rooms and partitions them by
// reservation overlap against the requested range.
func (s *AvailabilityService) FindAvailable(tenantID uint, checkIn, checkOut time.Time, filters AvailabilityFilters) (*AvailabilityResult, error) {
	if err := validateDateRange(checkIn, checkOut); err != nil {
		return nil, err
	}
	if filters.MinRate != nil && filters.MaxRate != nil && filters.MinRate.GreaterThan(*filters.MaxRate) {
		return nil, Validationf("minimum rate cannot exceed maximum rate")
	}

	rooms, err := s.candidateRooms(tenantID, filters)
	if err != nil {
		return nil, Internal(err)
	}

	var reservations []models.Reservation
	err = s.db.
		Where("tenant_id = ? AND status IN ?", tenantID, models.HoldingStatuses).
		Find(&reservations).Error
	if err != nil {
		return nil, Internal(err)
	}

	conflictsByRoom := make(map[uint][]ConflictSummary)
	for _, res := range reservations {
		// Defensive: a reservation missing either date cannot be judged for
		// overlap; skip it rather than blocking the room on bad data.
		if res.CheckIn.IsZero() || res.CheckOut.IsZero() {
			log.Printf("availability: reservation %s has missing dates, skipping", res.ReservationNumber)
			continue
		}
		if !Overlaps(checkIn, checkOut, res.CheckIn, res.CheckOut) {
			continue
		}
		conflictsByRoom[res.RoomID] = append(conflictsByRoom[res.RoomID], ConflictSummary{
			ReservationID:     res.ID,
			ReservationNumber: res.ReservationNumber,
			GuestName:         res.GuestName,
			CheckIn:           res.CheckIn,
			CheckOut:          res.CheckOut,
			Status:            res.Status,
		})
	}

	result := &AvailabilityResult{Available: []models.Room{}, Unavailable: []UnavailableRoom{}}
	for _, room := range rooms {
		if conflicts, ok := conflictsByRoom[room.ID]; ok {
			result.Unavailable = append(result.Unavailable, UnavailableRoom{Room: room, Conflicts: conflicts})
		} else {
			result.Available = append(result.Available, room)
		}
	}
	return result, nil
}

func (s *AvailabilityService) candidateRooms(tenantID uint, filters AvailabilityFilters) ([]models.Room, error) {
	query := s.db.Preload("RatePlan").Where("tenant_id = ?", tenantID)
	if filters.RoomType != "" {
		query = query.Where("type = ?", filters.RoomType)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Floor != nil {
		query = query.Where("floor = ?", *filters.Floor)
	}
	if filters.MinOccupancy > 0 {
		query = query.Where("max_occupancy >= ?", filters.MinOccupancy)
	}
	if filters.RatePlanID != nil {
		query = query.Where("rate_plan_id = ?", *filters.RatePlanID)
	}
	if !filters.IncludeOutOfOrder {
		query = query.Where("status NOT IN ?", []string{models.RoomStatusOutOfOrder, models.RoomStatusMaintenance})
	}

	var rooms []models.Room
	if err := query.Order("room_number").Find(&rooms).Error; err != nil {
		return nil, err
	}

	if filters.MinRate == nil && filters.MaxRate == nil {
		return rooms, nil
	}

	// Rate filters apply to the effective rate (custom rate over plan base),
	// which lives partly on the rate plan, so filter after the load.
	filtered := rooms[:0]
	for _, room := range rooms {
		rate, ok := effectiveRate(&room)
		if !ok {
			continue
		}
		if filters.MinRate != nil && rate.LessThan(*filters.MinRate) {
			continue
		}
		if filters.MaxRate != nil && rate.GreaterThan(*filters.MaxRate) {
			continue
		}
		filtered = append(filtered, room)
	}
	return filtered, nil
}

// effectiveRate resolves a room's nightly rate: custom rate first, then the
// rate plan's base rate.
func effectiveRate(room *models.Room) (decimal.Decimal, bool) {
	if room.CustomRate != nil && room.CustomRate.IsPositive() {
		return *room.CustomRate, true
	}
	if room.RatePlan != nil && room.RatePlan.BaseRate.IsPositive() {
		return room.RatePlan.BaseRate, true
	}
	return decimal.Zero, false
}

// roomConflicts is the single-room form of the overlap check, run inside the
// booking transaction so the insert sees the same snapshot. excludeID skips
// the reservation being amended.
func roomConflicts(tx *gorm.DB, tenantID, roomID uint, checkIn, checkOut time.Time, excludeID uint) ([]models.Reservation, error) {
	query := tx.
		Where("tenant_id = ? AND room_id = ? AND status IN ?", tenantID, roomID, models.HoldingStatuses).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var conflicts []models.Reservation
	if err := query.Find(&conflicts).Error; err != nil {
		return nil, err
	}
	return conflicts, nil
}
