package services

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/KachiAlex/innsight-sub005/models"
)

// GroupBookingService books N rooms under one guest identity and date range.
// Creation is all-or-nothing: every room is overlap-checked and rated before
// any write, and the group plus all member reservations commit in one
// transaction. Check-in/out iterate members independently and collect
// per-member failures instead of aborting the batch.
type GroupBookingService struct {
	db       *gorm.DB
	booking  *BookingService
	notifier Notifier
}

func NewGroupBookingService(db *gorm.DB, booking *BookingService, notifier Notifier) *GroupBookingService {
	if notifier == nil {
		notifier = NewLogNotifier()
	}
	return &GroupBookingService{db: db, booking: booking, notifier: notifier}
}

type GroupRoomInput struct {
	RoomID uint
	Rate   *decimal.Decimal // per-room override, highest rate priority
}

type CreateGroupBookingInput struct {
	GuestName  string
	GuestEmail string
	GuestPhone string
	CheckIn    time.Time
	CheckOut   time.Time
	Adults     int
	Children   int
	Rooms      []GroupRoomInput
	CreatedBy  uint
}

// MemberFailure records one member reservation an iterate-style group
// operation could not process.
type MemberFailure struct {
	ReservationID uint   `json:"reservationID"`
	Reason        string `json:"reason"`
}

type GroupOperationResult struct {
	Group    *models.GroupBooking `json:"group"`
	Failures []MemberFailure      `json:"failures,omitempty"`
}

// CreateGroupBooking validates every requested room before the first write;
// one unavailable room aborts the whole group.
func (s *GroupBookingService) CreateGroupBooking(tenantID uint, input CreateGroupBookingInput) (*models.GroupBooking, error) {
	if err := validateDateRange(input.CheckIn, input.CheckOut); err != nil {
		return nil, err
	}
	if input.GuestName == "" {
		return nil, Validationf("guest name is required")
	}
	if len(input.Rooms) == 0 {
		return nil, Validationf("at least one room is required")
	}

	roomIDs := make([]uint, 0, len(input.Rooms))
	seen := make(map[uint]bool)
	for _, roomInput := range input.Rooms {
		if seen[roomInput.RoomID] {
			return nil, Validationf("room %d requested more than once", roomInput.RoomID)
		}
		seen[roomInput.RoomID] = true
		roomIDs = append(roomIDs, roomInput.RoomID)
	}

	unlock := s.booking.lockRooms(tenantID, roomIDs)
	defer unlock()

	var group *models.GroupBooking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Phase one: resolve and overlap-check every room before any write.
		type memberPlan struct {
			room *models.Room
			rate decimal.Decimal
		}
		plans := make([]memberPlan, 0, len(input.Rooms))
		for _, roomInput := range input.Rooms {
			room, err := loadRoom(tx, tenantID, roomInput.RoomID)
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
			rate, err := resolveRate(room, roomInput.Rate)
			if err != nil {
				return err
			}
			plans = append(plans, memberPlan{room: room, rate: rate})
		}

		group = &models.GroupBooking{
			TenantID:    tenantID,
			GroupNumber: newGroupNumber(),
			GuestName:   input.GuestName,
			GuestEmail:  input.GuestEmail,
			GuestPhone:  input.GuestPhone,
			CheckIn:     input.CheckIn,
			CheckOut:    input.CheckOut,
			Status:      models.GroupStatusConfirmed,
			CreatedBy:   input.CreatedBy,
		}
		if err := tx.Create(group).Error; err != nil {
			return Internal(err)
		}

		total := decimal.Zero
		reservationIDs := make([]uint, 0, len(plans))
		for _, plan := range plans {
			groupID := group.ID
			reservation := models.Reservation{
				TenantID:          tenantID,
				RoomID:            plan.room.ID,
				GroupBookingID:    &groupID,
				ReservationNumber: newReservationNumber(),
				GuestName:         input.GuestName,
				GuestEmail:        input.GuestEmail,
				GuestPhone:        input.GuestPhone,
				CheckIn:           input.CheckIn,
				CheckOut:          input.CheckOut,
				Adults:            input.Adults,
				Children:          input.Children,
				Rate:              plan.rate,
				Status:            models.ReservationStatusConfirmed,
				CreatedBy:         input.CreatedBy,
			}
			if err := tx.Create(&reservation).Error; err != nil {
				return Internal(err)
			}
			total = total.Add(plan.rate)
			reservationIDs = append(reservationIDs, reservation.ID)
		}

		idsJSON, err := json.Marshal(reservationIDs)
		if err != nil {
			return Internal(err)
		}
		group.TotalAmount = total
		group.ReservationIDs = datatypes.JSON(idsJSON)
		if err := tx.Model(group).Updates(map[string]interface{}{
			"total_amount":    total,
			"reservation_ids": group.ReservationIDs,
		}).Error; err != nil {
			return Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if notifyErr := s.notifier.GroupBookingConfirmed(group); notifyErr != nil {
		log.Printf("group booking: confirmation notification failed for %s: %v", group.GroupNumber, notifyErr)
	}
	return group, nil
}

// CheckIn checks in every confirmed member. Per-member failures (e.g. a
// room record gone missing) are collected; the rest of the batch proceeds.
func (s *GroupBookingService) CheckIn(tenantID, groupID, staffID uint) (*GroupOperationResult, error) {
	return s.iterateMembers(tenantID, groupID, func(tx *gorm.DB, member *models.Reservation) error {
		if member.Status != models.ReservationStatusConfirmed {
			return nil // already checked in or terminal; nothing to do
		}
		return s.booking.checkInTx(tx, member, staffID)
	})
}

// CheckOut checks out every checked-in member.
func (s *GroupBookingService) CheckOut(tenantID, groupID, staffID uint) (*GroupOperationResult, error) {
	return s.iterateMembers(tenantID, groupID, func(tx *gorm.DB, member *models.Reservation) error {
		if member.Status != models.ReservationStatusCheckedIn {
			return nil
		}
		_, err := s.booking.checkOutTx(tx, member, staffID)
		return err
	})
}

// Cancel rejects the whole request while any member is checked in; the
// guest must be checked out first. Otherwise all confirmed members are
// cancelled with the group.
func (s *GroupBookingService) Cancel(tenantID, groupID uint) (*models.GroupBooking, error) {
	var group *models.GroupBooking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		group, err = loadGroup(tx, tenantID, groupID)
		if err != nil {
			return err
		}

		members, err := loadGroupMembers(tx, tenantID, groupID)
		if err != nil {
			return err
		}
		for _, member := range members {
			if member.Status == models.ReservationStatusCheckedIn {
				return BusinessRule(CodeGroupMemberCheckedIn,
					"reservation %s is checked in; check out all guests before cancelling the group",
					member.ReservationNumber)
			}
		}

		for i := range members {
			if members[i].Status != models.ReservationStatusConfirmed {
				continue
			}
			if err := cancelTx(tx, &members[i]); err != nil {
				return err
			}
		}

		group.Status = models.GroupStatusCancelled
		if err := tx.Model(group).Update("status", models.GroupStatusCancelled).Error; err != nil {
			return Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// GetGroupBooking loads a group with its member reservations, tenant-scoped.
func (s *GroupBookingService) GetGroupBooking(tenantID, groupID uint) (*models.GroupBooking, error) {
	var group models.GroupBooking
	err := s.db.Preload("Reservations").Preload("Reservations.Room").
		Where("tenant_id = ?", tenantID).First(&group, groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("group booking")
	}
	if err != nil {
		return nil, Internal(err)
	}
	return &group, nil
}

func (s *GroupBookingService) iterateMembers(tenantID, groupID uint, op func(tx *gorm.DB, member *models.Reservation) error) (*GroupOperationResult, error) {
	result := &GroupOperationResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		group, err := loadGroup(tx, tenantID, groupID)
		if err != nil {
			return err
		}
		if group.Status == models.GroupStatusCancelled {
			return BusinessRule(CodeInvalidStateTransition, "group booking %s is cancelled", group.GroupNumber)
		}

		members, err := loadGroupMembers(tx, tenantID, groupID)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			return NotFoundError("group booking")
		}

		for i := range members {
			if opErr := op(tx, &members[i]); opErr != nil {
				log.Printf("group booking %s: member %s skipped: %v",
					group.GroupNumber, members[i].ReservationNumber, opErr)
				result.Failures = append(result.Failures, MemberFailure{
					ReservationID: members[i].ID,
					Reason:        opErr.Error(),
				})
			}
		}

		group.Status = deriveGroupStatus(members)
		if err := tx.Model(group).Update("status", group.Status).Error; err != nil {
			return Internal(err)
		}
		result.Group = group
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// deriveGroupStatus projects the aggregate status from member statuses.
func deriveGroupStatus(members []models.Reservation) string {
	var checkedIn, checkedOut, confirmed, cancelled int
	for _, member := range members {
		switch member.Status {
		case models.ReservationStatusCheckedIn:
			checkedIn++
		case models.ReservationStatusCheckedOut:
			checkedOut++
		case models.ReservationStatusConfirmed:
			confirmed++
		case models.ReservationStatusCancelled:
			cancelled++
		}
	}
	active := len(members) - cancelled

	switch {
	case active == 0:
		return models.GroupStatusCancelled
	case checkedOut == active:
		return models.GroupStatusCheckedOut
	case checkedOut > 0:
		return models.GroupStatusPartiallyCheckedOut
	case checkedIn == active:
		return models.GroupStatusCheckedIn
	case checkedIn > 0:
		return models.GroupStatusPartiallyCheckedIn
	default:
		return models.GroupStatusConfirmed
	}
}

func loadGroup(tx *gorm.DB, tenantID, groupID uint) (*models.GroupBooking, error) {
	var group models.GroupBooking
	err := tx.Where("tenant_id = ?", tenantID).First(&group, groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("group booking")
	}
	if err != nil {
		return nil, Internal(err)
	}
	return &group, nil
}

func loadGroupMembers(tx *gorm.DB, tenantID, groupID uint) ([]models.Reservation, error) {
	var members []models.Reservation
	err := tx.Where("tenant_id = ? AND group_booking_id = ?", tenantID, groupID).
		Order("id").Find(&members).Error
	if err != nil {
		return nil, Internal(err)
	}
	return members, nil
}
