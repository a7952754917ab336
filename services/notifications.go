package services

import (
	"log"

	"github.com/KachiAlex/innsight-sub005/models"
)

// Notifier is the guest-messaging collaborator. Delivery failures are logged
// by callers and never abort the booking operation that triggered them.
type Notifier interface {
	ReservationConfirmed(reservation *models.Reservation) error
	GroupBookingConfirmed(group *models.GroupBooking) error
	CheckoutReceipt(reservation *models.Reservation, folio *models.Folio) error
}

// LogNotifier writes notifications to the process log. It stands in until a
// real email/SMS sender is wired.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) ReservationConfirmed(reservation *models.Reservation) error {
	log.Printf("notify: reservation %s confirmed for %s (room %d)",
		reservation.ReservationNumber, reservation.GuestName, reservation.RoomID)
	return nil
}

func (n *LogNotifier) GroupBookingConfirmed(group *models.GroupBooking) error {
	log.Printf("notify: group booking %s confirmed for %s", group.GroupNumber, group.GuestName)
	return nil
}

func (n *LogNotifier) CheckoutReceipt(reservation *models.Reservation, folio *models.Folio) error {
	log.Printf("notify: checkout receipt for %s, balance %s",
		reservation.ReservationNumber, folio.Balance.String())
	return nil
}
