package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentcore/internal/domain/listing"
	"rentcore/internal/domain/pricing"
	"rentcore/internal/domain/shared/events"
	"rentcore/internal/domain/shared/interval"
	"rentcore/internal/domain/shared/money"
)

var (
	ErrBookingNotFound = errors.New("booking: not found")
	ErrRenterRequired  = errors.New("booking: renter id required")
	ErrInvalidQuantity = errors.New("booking: quantity must be positive")
	// ErrConcurrentUpdate means the booking changed between load and save;
	// the caller's copy is stale and its transition must be retried.
	ErrConcurrentUpdate = errors.New("booking: concurrent update")
)

type BookingID string

type Status string

const (
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusConfirmed       Status = "CONFIRMED"
	StatusPickedUp        Status = "PICKED_UP"
	StatusReturned        Status = "RETURNED"
	StatusCancelled       Status = "CANCELLED"
	StatusDisputed        Status = "DISPUTED"
	StatusRefunded        Status = "REFUNDED"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusReturned, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Event is a lifecycle trigger an actor may fire against a booking.
type Event string

const (
	EventApprove          Event = "approve"
	EventReject           Event = "reject"
	EventTimeout          Event = "timeout"
	EventCancel           Event = "cancel"
	EventPickup           Event = "pickup"
	EventReturn           Event = "return"
	EventDispute          Event = "dispute"
	EventResolveReturned  Event = "resolve_returned"
	EventResolveRefunded  Event = "resolve_refunded"
	EventResolveCancelled Event = "resolve_cancelled"
)

type Role string

const (
	RoleRenter Role = "renter"
	RoleHost   Role = "host"
	RoleAdmin  Role = "admin"
	RoleSystem Role = "system"
)

// Actor identifies who fires a transition.
type Actor struct {
	ID   string
	Role Role
}

// SideEffect tells the availability service what to do with the booking's
// inventory commitment after a transition. The state machine itself never
// touches the ledger.
type SideEffect int

const (
	EffectNone SideEffect = iota
	EffectRelease
	EffectFreeze
	// EffectResolve releases a commitment frozen by a dispute; plain
	// EffectRelease leaves frozen commitments alone.
	EffectResolve
)

// InvalidTransitionError is returned for any (status, event) pair outside
// the transition table.
type InvalidTransitionError struct {
	From  Status
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking: event %q not allowed from status %s", string(e.Event), string(e.From))
}

// ActorNotAllowedError is returned when the transition exists but the
// actor's role may not fire it.
type ActorNotAllowedError struct {
	Event Event
	Role  Role
}

func (e *ActorNotAllowedError) Error() string {
	return fmt.Sprintf("booking: role %q may not fire event %q", string(e.Role), string(e.Event))
}

type transitionRule struct {
	from   Status
	to     Status
	roles  []Role
	effect SideEffect
}

// transitions is the single source of truth for the booking lifecycle.
var transitions = map[Event][]transitionRule{
	EventApprove: {
		{from: StatusPendingApproval, to: StatusConfirmed, roles: []Role{RoleHost, RoleAdmin}, effect: EffectNone},
	},
	EventReject: {
		{from: StatusPendingApproval, to: StatusCancelled, roles: []Role{RoleHost, RoleAdmin}, effect: EffectRelease},
	},
	EventTimeout: {
		{from: StatusPendingApproval, to: StatusCancelled, roles: []Role{RoleSystem, RoleAdmin}, effect: EffectRelease},
	},
	EventCancel: {
		{from: StatusConfirmed, to: StatusCancelled, roles: []Role{RoleRenter, RoleHost, RoleAdmin}, effect: EffectRelease},
	},
	EventPickup: {
		{from: StatusConfirmed, to: StatusPickedUp, roles: []Role{RoleHost, RoleRenter}, effect: EffectNone},
	},
	EventReturn: {
		{from: StatusPickedUp, to: StatusReturned, roles: []Role{RoleHost, RoleRenter}, effect: EffectRelease},
	},
	EventDispute: {
		{from: StatusConfirmed, to: StatusDisputed, roles: []Role{RoleRenter, RoleHost}, effect: EffectFreeze},
		{from: StatusPickedUp, to: StatusDisputed, roles: []Role{RoleRenter, RoleHost}, effect: EffectFreeze},
	},
	EventResolveReturned: {
		{from: StatusDisputed, to: StatusReturned, roles: []Role{RoleAdmin}, effect: EffectResolve},
	},
	EventResolveRefunded: {
		{from: StatusDisputed, to: StatusRefunded, roles: []Role{RoleAdmin}, effect: EffectResolve},
	},
	EventResolveCancelled: {
		{from: StatusDisputed, to: StatusCancelled, roles: []Role{RoleAdmin}, effect: EffectResolve},
	},
}

// HistoryEntry is one line of a booking's audit trail.
type HistoryEntry struct {
	Status Status
	Actor  Actor
	At     time.Time
	Reason string
}

// Booking is a priced reservation of inventory over an interval. After
// creation only Status and History mutate, and only through Apply; the
// price breakdown stays frozen.
type Booking struct {
	ID        BookingID
	ListingID listing.ListingID
	HostID    listing.HostID
	RenterID  string
	Interval  interval.Interval
	Quantity  int
	Price     pricing.Breakdown
	Status    Status
	Terms     CancellationTerms
	History   []HistoryEntry
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

// Clone returns a deep copy that can be mutated without affecting the
// original. Pending domain events do not carry over.
func (b *Booking) Clone() *Booking {
	c := *b
	c.History = append([]HistoryEntry(nil), b.History...)
	c.EventRecorder = events.EventRecorder{}
	return &c
}

// Repository persists bookings. Bookings are never deleted; terminal
// statuses are the audit record. Save enforces optimistic concurrency:
// writing a booking whose Version no longer matches the stored one fails
// with ErrConcurrentUpdate.
type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	ListByRenter(ctx context.Context, renterID string) ([]*Booking, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*Booking, error)
}

type CreateParams struct {
	ID        BookingID
	Listing   *listing.Snapshot
	RenterID  string
	Interval  interval.Interval
	Quantity  int
	Price     pricing.Breakdown
	CreatedAt time.Time
}

// New creates a booking in its initial status: CONFIRMED for instant-booking
// listings, PENDING_APPROVAL otherwise.
func New(params CreateParams) (*Booking, error) {
	if params.RenterID == "" {
		return nil, ErrRenterRequired
	}
	if params.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if err := params.Interval.Validate(); err != nil {
		return nil, err
	}
	if params.Price.Total.IsNegative() {
		return nil, pricing.ErrNegativeResult
	}

	status := StatusPendingApproval
	if params.Listing.InstantBooking {
		status = StatusConfirmed
	}
	now := params.CreatedAt.UTC()
	actor := Actor{ID: params.RenterID, Role: RoleRenter}
	b := &Booking{
		ID:        params.ID,
		ListingID: params.Listing.ID,
		HostID:    params.Listing.Host,
		RenterID:  params.RenterID,
		Interval:  params.Interval,
		Quantity:  params.Quantity,
		Price:     params.Price,
		Status:    status,
		Terms:     TermsFor(params.Listing.Cancellation),
		History:   []HistoryEntry{{Status: status, Actor: actor, At: now, Reason: "reserved"}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(BookingReserved{
		BookingID: b.ID,
		ListingID: b.ListingID,
		RenterID:  b.RenterID,
		Interval:  b.Interval,
		Quantity:  b.Quantity,
		Total:     b.Price.Total,
		Deposit:   b.Price.Deposit,
		Status:    b.Status,
		At:        now,
	})
	return b, nil
}

// Apply fires a lifecycle event. It returns the ledger side effect the
// caller must execute. Invalid events never mutate the booking.
func (b *Booking) Apply(ev Event, actor Actor, reason string, now time.Time) (SideEffect, error) {
	rules, ok := transitions[ev]
	if !ok {
		return EffectNone, &InvalidTransitionError{From: b.Status, Event: ev}
	}
	var matched *transitionRule
	for i := range rules {
		if rules[i].from == b.Status {
			matched = &rules[i]
			break
		}
	}
	if matched == nil {
		return EffectNone, &InvalidTransitionError{From: b.Status, Event: ev}
	}
	if !roleAllowed(actor.Role, matched.roles) {
		return EffectNone, &ActorNotAllowedError{Event: ev, Role: actor.Role}
	}

	now = now.UTC()
	from := b.Status
	b.Status = matched.to
	b.UpdatedAt = now
	b.History = append(b.History, HistoryEntry{Status: matched.to, Actor: actor, At: now, Reason: reason})
	b.recordTransitionEvent(ev, from, actor, reason, now)
	return matched.effect, nil
}

func (b *Booking) recordTransitionEvent(ev Event, from Status, actor Actor, reason string, now time.Time) {
	switch ev {
	case EventApprove:
		b.Record(BookingApproved{BookingID: b.ID, Actor: actor, At: now})
	case EventReject, EventTimeout:
		b.Record(BookingCancelled{
			BookingID: b.ID,
			Refund:    b.Price.Total,
			Penalty:   money.Zero(b.Price.Total.Currency),
			Actor:     actor,
			Reason:    reason,
			At:        now,
		})
	case EventCancel:
		refund, penalty := b.Terms.Refund(b.Price.Total, now, b.Interval.Start)
		b.Record(BookingCancelled{BookingID: b.ID, Refund: refund, Penalty: penalty, Actor: actor, Reason: reason, At: now})
	case EventPickup:
		b.Record(BookingPickedUp{BookingID: b.ID, Actor: actor, At: now})
	case EventReturn:
		b.Record(BookingReturned{BookingID: b.ID, Actor: actor, At: now})
	case EventDispute:
		b.Record(BookingDisputed{BookingID: b.ID, Actor: actor, Reason: reason, At: now})
	case EventResolveReturned, EventResolveRefunded, EventResolveCancelled:
		b.Record(DisputeResolved{BookingID: b.ID, Outcome: b.Status, Actor: actor, Reason: reason, At: now})
	}
}

func roleAllowed(role Role, allowed []Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
