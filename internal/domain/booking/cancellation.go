package booking

import (
	"time"

	"rentcore/internal/domain/listing"
	"rentcore/internal/domain/shared/money"
)

// CancellationTerms is the refund schedule frozen into a booking at
// reservation time, so a later listing policy change never affects an
// existing booking.
type CancellationTerms struct {
	Policy         listing.CancellationPolicy
	FreeWindow     time.Duration // cancelling earlier than this before the start is free
	PenaltyPercent int           // applied to the total inside the window
}

// TermsFor maps a listing cancellation regime onto a concrete schedule.
func TermsFor(policy listing.CancellationPolicy) CancellationTerms {
	switch policy {
	case listing.CancellationModerate:
		return CancellationTerms{Policy: policy, FreeWindow: 48 * time.Hour, PenaltyPercent: 50}
	case listing.CancellationStrict:
		return CancellationTerms{Policy: policy, FreeWindow: 7 * 24 * time.Hour, PenaltyPercent: 100}
	default:
		return CancellationTerms{Policy: listing.CancellationFlexible}
	}
}

// Refund splits the charged total into refund and penalty for a
// cancellation at cancelAt against a rental starting at start.
func (t CancellationTerms) Refund(total money.Money, cancelAt, start time.Time) (refund, penalty money.Money) {
	percent := 0
	if cancelAt.After(start.Add(-t.FreeWindow)) {
		percent = clampPercent(t.PenaltyPercent)
	}
	penalty = percentOf(total, percent)
	refund = money.Money{Amount: total.Amount - penalty.Amount, Currency: total.Currency}
	return refund, penalty
}

func percentOf(total money.Money, percent int) money.Money {
	if percent <= 0 {
		return money.Zero(total.Currency)
	}
	const percentBase = int64(100)
	return money.Money{Amount: total.Amount * int64(percent) / percentBase, Currency: total.Currency}
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
