package pricing

import (
	"errors"
	"fmt"

	"rentcore/internal/domain/listing"
	"rentcore/internal/domain/shared/interval"
	"rentcore/internal/domain/shared/money"
)

var (
	ErrInvalidQuantity = errors.New("pricing: quantity must be at least 1")
	ErrNegativeResult  = errors.New("pricing: total must never be negative")
)

// DurationOutOfRangeError reports which listing duration rule the request
// violated, so callers can explain the failure rather than just report it.
type DurationOutOfRangeError struct {
	Units int
	Min   int
	Max   int
}

func (e *DurationOutOfRangeError) Error() string {
	if e.Max > 0 {
		return fmt.Sprintf("pricing: duration of %d units outside allowed range [%d, %d]", e.Units, e.Min, e.Max)
	}
	return fmt.Sprintf("pricing: duration of %d units below minimum of %d", e.Units, e.Min)
}

// Breakdown is the itemized cost of a reservation. It is immutable once
// computed: Reserve freezes a copy into the booking so the renter is charged
// exactly what was quoted. The deposit is a refundable hold tracked
// separately and is not part of Total.
type Breakdown struct {
	Units       int
	Quantity    int
	Rate        money.Money
	Subtotal    money.Money
	Discount    money.Money
	PlatformFee money.Money
	Deposit     money.Money
	Total       money.Money
}

// Calculator turns a listing snapshot, interval and quantity into a
// Breakdown. Quote is a pure function: no clock, no I/O, integer
// arithmetic only.
type Calculator struct {
	// FeeBasisPoints is the platform fee rate; owned by external
	// configuration, not by any listing.
	FeeBasisPoints int64
}

func NewCalculator(feeBasisPoints int64) *Calculator {
	if feeBasisPoints < 0 {
		feeBasisPoints = 0
	}
	return &Calculator{FeeBasisPoints: feeBasisPoints}
}

// Quote prices the reservation. Capacity is deliberately not checked here;
// that is the availability service's concern.
func (c *Calculator) Quote(ls *listing.Snapshot, iv interval.Interval, quantity int) (Breakdown, error) {
	if quantity < 1 {
		return Breakdown{}, ErrInvalidQuantity
	}
	if err := ls.Validate(); err != nil {
		return Breakdown{}, err
	}
	units, err := iv.DurationIn(ls.Unit)
	if err != nil {
		return Breakdown{}, err
	}
	if units < ls.MinUnits || (ls.MaxUnits > 0 && units > ls.MaxUnits) {
		return Breakdown{}, &DurationOutOfRangeError{Units: units, Min: ls.MinUnits, Max: ls.MaxUnits}
	}

	subtotal := ls.BasePrice.Multiply(int64(units) * int64(quantity))

	discount := money.Zero(subtotal.Currency)
	for _, rule := range RulesFrom(ls.Discounts) {
		amount := rule.Discount(subtotal, units, quantity)
		if amount.IsNegative() {
			return Breakdown{}, ErrNegativeResult
		}
		discount, err = discount.Add(amount)
		if err != nil {
			return Breakdown{}, err
		}
	}
	// Cumulative discounts never exceed the subtotal.
	if discount.Amount > subtotal.Amount {
		discount = subtotal
	}

	fee := subtotal.MulBasisPoints(c.FeeBasisPoints)
	deposit := depositFor(ls, subtotal)

	total, err := subtotal.Sub(discount)
	if err != nil {
		return Breakdown{}, err
	}
	total, err = total.Add(fee)
	if err != nil {
		return Breakdown{}, err
	}
	if total.IsNegative() {
		return Breakdown{}, ErrNegativeResult
	}

	return Breakdown{
		Units:       units,
		Quantity:    quantity,
		Rate:        ls.BasePrice,
		Subtotal:    subtotal,
		Discount:    discount,
		PlatformFee: fee,
		Deposit:     deposit,
		Total:       total,
	}, nil
}

func depositFor(ls *listing.Snapshot, subtotal money.Money) money.Money {
	switch ls.Deposit.Type {
	case listing.DepositPercent:
		return subtotal.MulBasisPoints(ls.Deposit.BasisPoints)
	case listing.DepositFlat:
		return ls.Deposit.Flat
	default:
		return money.Zero(subtotal.Currency)
	}
}
