package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentcore/internal/domain/listing"
	"rentcore/internal/domain/shared/interval"
)

var (
	ErrInsufficientCapacity = errors.New("inventory: insufficient capacity")
	// ErrLedgerInconsistent signals a corrupted invariant (bug-class);
	// callers abort rather than retry.
	ErrLedgerInconsistent = errors.New("inventory: ledger inconsistent")
)

// CapacityError carries the free units observed at rejection time so the
// caller can explain why the reservation lost.
type CapacityError struct {
	ListingID listing.ListingID
	Requested int
	Free      int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("inventory: listing %s has %d free units, %d requested", string(e.ListingID), e.Free, e.Requested)
}

func (e *CapacityError) Unwrap() error { return ErrInsufficientCapacity }

// Commitment is one ledger entry: quantity of a listing's inventory held by
// one booking over one interval. The set of active commitments is the sole
// source of truth for occupied capacity.
type Commitment struct {
	ListingID listing.ListingID
	Interval  interval.Interval
	Quantity  int
	BookingID string
	Frozen    bool
	CreatedAt time.Time
}

// Ledger answers free-capacity queries and atomically reserves units.
//
// Commit must re-verify capacity and insert the commitment under the same
// per-listing lock or transaction; checking and inserting separately is the
// oversubscription race this engine exists to prevent.
type Ledger interface {
	// FreeCapacity returns the minimum number of unclaimed units across
	// the interval. Advisory when called outside Commit.
	FreeCapacity(ctx context.Context, id listing.ListingID, iv interval.Interval) (int, error)

	// Commit atomically reserves quantity units for bookingID, or returns
	// a *CapacityError with no side effects. Re-committing the same
	// bookingID is a no-op.
	Commit(ctx context.Context, id listing.ListingID, iv interval.Interval, quantity int, bookingID string) error

	// Release removes the commitment for a booking. Idempotent. Frozen
	// commitments are left in place; only Resolve removes those.
	Release(ctx context.Context, bookingID string) error

	// Freeze marks a commitment as disputed: it keeps occupying capacity
	// and survives Release until an admin resolution resolves it.
	Freeze(ctx context.Context, bookingID string) error

	// Resolve removes a commitment regardless of its frozen state. The
	// dispute-resolution path for frozen holds. Idempotent.
	Resolve(ctx context.Context, bookingID string) error
}
