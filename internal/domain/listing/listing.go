package listing

import (
	"context"
	"errors"

	"rentcore/internal/domain/shared/interval"
	"rentcore/internal/domain/shared/money"
)

var (
	ErrListingNotFound = errors.New("listing: not found")
	ErrQuantityFloor   = errors.New("listing: total quantity must be at least 1")
	ErrUnitsRange      = errors.New("listing: minimum booking units must be >= 1 and <= maximum")
	ErrRateNegative    = errors.New("listing: base price must be non-negative")
	ErrDepositValue    = errors.New("listing: deposit value must be non-negative")
)

type ListingID string
type HostID string

// DepositType selects how a deposit policy value is interpreted.
type DepositType string

const (
	DepositPercent DepositType = "PERCENT"
	DepositFlat    DepositType = "FLAT"
)

// DepositPolicy describes the refundable hold collected alongside a booking.
// Percent deposits carry the rate in basis points of the subtotal; flat
// deposits carry an absolute amount in minor units.
type DepositPolicy struct {
	Type        DepositType
	BasisPoints int64
	Flat        money.Money
}

// CancellationPolicy is the listing-level cancellation regime. The refund
// schedule for each regime lives with the booking aggregate.
type CancellationPolicy string

const (
	CancellationFlexible CancellationPolicy = "FLEXIBLE"
	CancellationModerate CancellationPolicy = "MODERATE"
	CancellationStrict   CancellationPolicy = "STRICT"
)

// DiscountKind selects one of the supported discount rule shapes.
type DiscountKind string

const (
	DiscountLongDuration DiscountKind = "LONG_DURATION"
	DiscountMultiUnit    DiscountKind = "MULTI_UNIT"
)

// DiscountConfig is a declarative discount rule attached to a listing.
// Rules apply cumulatively in declared order.
type DiscountConfig struct {
	Name        string
	Kind        DiscountKind
	Threshold   int   // minimum duration units or quantity, per Kind
	BasisPoints int64 // rate taken off the subtotal
}

// Snapshot is the read-only projection of a listing the engine works with.
// Content fields (title, photos, description) belong to the listing service
// and are not mirrored here.
type Snapshot struct {
	ID             ListingID
	Host           HostID
	TotalQuantity  int
	Unit           interval.Unit
	BasePrice      money.Money // per unit of Unit, minor units
	Deposit        DepositPolicy
	MinUnits       int
	MaxUnits       int
	Cancellation   CancellationPolicy
	InstantBooking bool
	Discounts      []DiscountConfig
}

// Validate checks the invariants the engine relies on. TotalQuantity is the
// hard capacity ceiling and only the external listing service may change it.
func (s *Snapshot) Validate() error {
	if s.TotalQuantity < 1 {
		return ErrQuantityFloor
	}
	if s.MinUnits < 1 || (s.MaxUnits > 0 && s.MaxUnits < s.MinUnits) {
		return ErrUnitsRange
	}
	if s.BasePrice.IsNegative() || s.BasePrice.Currency == "" {
		return ErrRateNegative
	}
	if _, err := s.Unit.Span(); err != nil {
		return err
	}
	switch s.Deposit.Type {
	case DepositPercent:
		if s.Deposit.BasisPoints < 0 {
			return ErrDepositValue
		}
	case DepositFlat:
		if s.Deposit.Flat.IsNegative() {
			return ErrDepositValue
		}
	}
	return nil
}

// Store fetches listing snapshots; the engine never mutates listings.
type Store interface {
	ByID(ctx context.Context, id ListingID) (*Snapshot, error)
}
