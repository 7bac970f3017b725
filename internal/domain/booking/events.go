package booking

import (
	"time"

	"rentcore/internal/domain/listing"
	"rentcore/internal/domain/shared/interval"
	"rentcore/internal/domain/shared/money"
)

type BookingReserved struct {
	BookingID BookingID
	ListingID listing.ListingID
	RenterID  string
	Interval  interval.Interval
	Quantity  int
	Total     money.Money
	Deposit   money.Money
	Status    Status
	At        time.Time
}

func (e BookingReserved) EventName() string     { return "booking.reserved" }
func (e BookingReserved) AggregateID() string   { return string(e.BookingID) }
func (e BookingReserved) OccurredAt() time.Time { return e.At }

type BookingApproved struct {
	BookingID BookingID
	Actor     Actor
	At        time.Time
}

func (e BookingApproved) EventName() string     { return "booking.approved" }
func (e BookingApproved) AggregateID() string   { return string(e.BookingID) }
func (e BookingApproved) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID
	Refund    money.Money
	Penalty   money.Money
	Actor     Actor
	Reason    string
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingPickedUp struct {
	BookingID BookingID
	Actor     Actor
	At        time.Time
}

func (e BookingPickedUp) EventName() string     { return "booking.picked_up" }
func (e BookingPickedUp) AggregateID() string   { return string(e.BookingID) }
func (e BookingPickedUp) OccurredAt() time.Time { return e.At }

type BookingReturned struct {
	BookingID BookingID
	Actor     Actor
	At        time.Time
}

func (e BookingReturned) EventName() string     { return "booking.returned" }
func (e BookingReturned) AggregateID() string   { return string(e.BookingID) }
func (e BookingReturned) OccurredAt() time.Time { return e.At }

type BookingDisputed struct {
	BookingID BookingID
	Actor     Actor
	Reason    string
	At        time.Time
}

func (e BookingDisputed) EventName() string     { return "booking.disputed" }
func (e BookingDisputed) AggregateID() string   { return string(e.BookingID) }
func (e BookingDisputed) OccurredAt() time.Time { return e.At }

type DisputeResolved struct {
	BookingID BookingID
	Outcome   Status
	Actor     Actor
	Reason    string
	At        time.Time
}

func (e DisputeResolved) EventName() string     { return "booking.dispute_resolved" }
func (e DisputeResolved) AggregateID() string   { return string(e.BookingID) }
func (e DisputeResolved) OccurredAt() time.Time { return e.At }
