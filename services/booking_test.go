package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KachiAlex/innsight-sub005/models"
)

func TestCreateReservationRejectsOverlap(t *testing.T) {
	db, booking, _ := newBookingFixture(t)
	room := seedRoom(t, db, 1, "101", 50000)

	_, err := booking.CreateReservation(1, CreateReservationInput{
		RoomID:    room.ID,
		GuestName: "Ada Obi",
		CheckIn:   date(2024, time.June, 10),
		CheckOut:  date(2024, time.June, 12),
	})
	require.NoError(t, err)

	// 11th..13th shares the night of the 11th.
	_, err = booking.CreateReservation(1, CreateReservationInput{
		RoomID:    room.ID,
		GuestName: "Bola Ade",
		CheckIn:   date(2024, time.June, 11),
		CheckOut:  date(2024, time.June, 13),
	})
	require.Error(t, err)
	assert.Equal(t, CodeRoomUnavailable, CodeOf(err))
	assert.Contains(t, err.Error(), "101")
}

func TestCreateReservationBoundaryTouchSucceeds(t *testing.T) {
	db, booking, _ := newBookingFixture(t)
	room := seedRoom(t, db, 1, "101", 50000)

	_, err := booking.CreateReservation(1, CreateReservationInput{
		RoomID:    room.ID,
		GuestName: "Ada Obi",
		CheckIn:   date(2024, time.June, 10),
		CheckOut:  date(2024, time.June, 12),
	})
	require.NoError(t, err)

	reservation, err := booking.CreateReservation(1, CreateReservationInput{
		RoomID:    room.ID,
		GuestName: "Bola Ade",
		CheckIn:   date(2024, time.June, 12),
		CheckOut:  date(2024, time.June, 14),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusConfirmed, reservation.Status)
}

func TestCreateReservationAllowedOverReleasedOnes(t *testing.T) {
	db, booking, _ := newBookingFixture(t)
	room := seedRoom(t, db, 1, "101", 50000)

	first, err := booking.CreateReservation(1, CreateReservationInput{
		RoomID:    room.ID,
		GuestName: "Ada Obi",
		CheckIn:   date(2024, time.June, 10),
		CheckOut:  date(2024, time.June, 12),
	})
	require.NoError(t, err)
	_, err = booking.Cancel(1, first.ID)
	require.NoError(t, err)

	_, err = booking.CreateReservation(1, CreateReservationInput{
		RoomID:    room.ID,
		GuestName: "Bola Ade",
		CheckIn:   date(2024, time.June, 10),
		CheckOut:  date(2024, time.June, 12),
	})
	require.NoError(t, err)
}

func TestCreateReservationCrossTenantRoomIsNotFound(t *testing.T) {
	db, booking, _ := newBookingFixture(t)
	room := seedRoom(t, db, 2, "101", 50000)

	_, err := booking.CreateReservation(1, CreateReservationInput{
		RoomID:    room.ID,
		GuestName: "Ada Obi",
		CheckIn:   date(2024, time.June, 10),
		CheckOut:  date(2024, time.June, 12),
	})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestCreateReservationRateResolution(t *testing.T) {
	db, booking, _ := newBookingFixture(t)

	planRoom := seedRoomWithPlan(t, db, 1, "201", 40000)
	reservation, err := booking.CreateReservation(1, CreateReservationInput{
		RoomID:    planRoom.ID,
		GuestName: "Ada Obi",
		CheckIn:   date(2024, time.June, 10),
		CheckOut:  date(2024, time.June, 12),
	})
	require.NoError(t, err)
	assert.True(t, reservation.Rate.Equal(money(40000)))

	bare := seedBareRoom(t, db, 1, "202")
	_, err = booking.CreateReservation(1, CreateReservationInput{
		RoomID:    bare.ID,
		GuestName: "Ada Obi",
		CheckIn:   date(2024, time.June, 10),
		CheckOut:  date(2024, time.June, 12),
	})
	require.Error(t, err)
	assert.Equal(t, CodeNoRateFound, CodeOf(err))
}

func TestCheckInCreatesExactlyOneFolio(t *testing.T) {
	db, booking, _ := newBookingFixture(t)
	room := seedRoom(t, db, 1, "101", 50000)

	reservation, err := booking.CreateReservation(1, CreateReservationInput{
		RoomID:    room.ID,
		GuestName: "Ada Obi",
		CheckIn:   date(2024, time.June, 10),
		CheckOut:  date(2024, time.June, 12),
	})
	require.NoError(t, err)

	checkedIn, err := booking.CheckIn(1, reservation.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCheckedIn, checkedIn.Status)
	require.NotNil(t, checkedIn.CheckedInBy)
	assert.Equal(t, uint(7), *checkedIn.CheckedInBy)

	var updatedRoom models.Room
	require.NoError(t, db.First(&updatedRoom, room.ID).Error)
	assert.Equal(t, models.RoomStatusOccupied, updatedRoom.Status)

	var folio models.Folio
	require.NoError(t, db.Where("reservation_id = ?", reservation.ID).First(&folio).Error)
	assert.Equal(t, models.FolioStatusOpen, folio.Status)
	assert.True(t, folio.TotalCharges.Equal(money(50000)))
	assert.True(t, folio.TotalPayments.Equal(money(0)))
	assert.True(t, folio.Balance.Equal(money(50000)))

	var charges []models.FolioCharge
	require.NoError(t, db.Where("folio_id = ?", folio.ID).Find(&charges).Error)
	require.Len(t, charges, 1)
	assert.Equal(t, "room", charges[0].Category)
	assert.True(t, charges[0].Total.Equal(money(50000)))
}

func TestCheckInStateMachine(t *testing.T) {
	db, booking, _ := newBookingFixture(t)
	room := seedRoom(t, db, 1, "101", 50000)

	reservation, err := booking.CreateReservation(1, CreateReservationInput{
		RoomID:    room.ID,
		GuestName: "Ada Obi",
		CheckIn:   date(2024, time.June, 10),
		CheckOut:  date(2024, time.June, 12),
	})
	require.NoError(t, err)

	// checked_out without check-in is illegal.
	_, err = booking.CheckOut(1, reservation.ID, 7)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidStateTransition, CodeOf(err))

	_, err = booking.CheckIn(1, reservation.ID, 7)
	require.NoError(t, err)

	// A second check-in is illegal and must not open a second folio.
	_, err = booking.CheckIn(1, reservation.ID, 7)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidStateTransition, CodeOf(err))

	var folios int64
	require.NoError(t, db.Model(&models.Folio{}).
		Where("reservation_id = ?", reservation.ID).Count(&folios).Error)
	assert.EqualValues(t, 1, folios)
}

func TestCancelCheckedInReservationIsRejected(t *testing.T) {
	db, booking, _ := newBookingFixture(t)
	room := seedRoom(t, db, 1, "101", 50000)

	reservation, err := booking.CreateReservation(1, CreateReservationInput{
		RoomID:    room.ID,
		GuestName: "Ada Obi",
		CheckIn:   date(2024, time.June, 10),
		CheckOut:  date(2024, time.June, 12),
	})
	require.NoError(t, err)
	_, err = booking.CheckIn(1, reservation.ID, 7)
	require.NoError(t, err)

	_, err = booking.Cancel(1, reservation.ID)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidStateTransition, CodeOf(err))
}

func TestCheckOutClosesFolioAndDirtiesRoom(t *testing.T) {
	db, booking, _ := newBookingFixture(t)
	room := seedRoom(t, db, 1, "101", 50000)

	reservation, err := booking.CreateReservation(1, CreateReservationInput{
		RoomID:    room.ID,
		GuestName: "Ada Obi",
		CheckIn:   date(2024, time.June, 10),
		CheckOut:  date(2024, time.June, 12),
	})
	require.NoError(t, err)
	_, err = booking.CheckIn(1, reservation.ID, 7)
	require.NoError(t, err)

	checkedOut, err := booking.CheckOut(1, reservation.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCheckedOut, checkedOut.Status)

	var updatedRoom models.Room
	require.NoError(t, db.First(&updatedRoom, room.ID).Error)
	assert.Equal(t, models.RoomStatusDirty, updatedRoom.Status)

	// The outstanding balance survives as a closed-folio receivable.
	var folio models.Folio
	require.NoError(t, db.Where("reservation_id = ?", reservation.ID).First(&folio).Error)
	assert.Equal(t, models.FolioStatusClosed, folio.Status)
	assert.True(t, folio.Balance.Equal(money(50000)))
}
