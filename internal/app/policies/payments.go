package policies

import (
	"context"

	"rentcore/internal/domain/shared/money"
)

// PaymentsPort is what the booking flow needs from a payment provider:
// a hold for the frozen total plus deposit at reserve time, and capture
// or refund as the lifecycle settles.
type PaymentsPort interface {
	PlaceHold(ctx context.Context, bookingID string, total, deposit money.Money) (string, error)
	Capture(ctx context.Context, holdID string) error
	Refund(ctx context.Context, bookingID string, amount money.Money) error
}

// NoopPayments approves every hold. It is the default wiring when no
// provider is configured.
type NoopPayments struct{}

func (NoopPayments) PlaceHold(_ context.Context, bookingID string, _, _ money.Money) (string, error) {
	return "hold-" + bookingID, nil
}

func (NoopPayments) Capture(context.Context, string) error { return nil }

func (NoopPayments) Refund(context.Context, string, money.Money) error { return nil }

var _ PaymentsPort = NoopPayments{}
