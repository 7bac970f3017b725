package booking

import (
	"context"
	"errors"
	"time"

	"rentcore/internal/app/commands"
	"rentcore/internal/app/dto"
	"rentcore/internal/app/middleware"
	"rentcore/internal/app/outbox"
	"rentcore/internal/app/policies"
	"rentcore/internal/app/uow"
	domainbooking "rentcore/internal/domain/booking"
	domainlisting "rentcore/internal/domain/listing"
	domainpricing "rentcore/internal/domain/pricing"
	"rentcore/internal/domain/shared/interval"
	"rentcore/internal/infra/clock"
)

const reserveKey = "booking.reserve"

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

type ReserveCommand struct {
	CommandID       string
	ListingID       string
	RenterID        string
	Start           time.Time
	End             time.Time
	Quantity        int
	IdempotencyKeyV string
}

func (c ReserveCommand) Key() string { return reserveKey }

func (c ReserveCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c ReserveCommand) ResultPrototype() any { return &ReserveResult{} }

type ReserveResult struct {
	BookingID string             `json:"booking_id"`
	Status    string             `json:"status"`
	Price     dto.PriceBreakdown `json:"price"`
}

// ReserveHandler performs the check-and-reserve flow: price the request,
// commit capacity, persist the booking. The ledger commit and the booking
// save happen inside one unit of work so a crash between them cannot leave
// capacity held by a booking that does not exist.
type ReserveHandler struct {
	UoWFactory uow.Factory
	Calculator *domainpricing.Calculator
	Clock      clock.Clock
	Payments   policies.PaymentsPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *ReserveHandler) Handle(ctx context.Context, cmd ReserveCommand) (*ReserveResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	// Malformed intervals are rejected before the ledger is touched.
	iv, err := interval.New(cmd.Start, cmd.End)
	if err != nil {
		return nil, err
	}

	ls, err := unit.Listings().ByID(ctx, domainlisting.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}

	price, err := h.Calculator.Quote(ls, iv, cmd.Quantity)
	if err != nil {
		return nil, err
	}

	// The aggregate is built before any capacity is claimed; a rejected
	// reservation must leave the ledger exactly as it found it.
	b, err := domainbooking.New(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(cmd.CommandID),
		Listing:   ls,
		RenterID:  cmd.RenterID,
		Interval:  iv,
		Quantity:  cmd.Quantity,
		Price:     price,
		CreatedAt: h.Clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := unit.Ledger().Commit(ctx, ls.ID, iv, cmd.Quantity, cmd.CommandID); err != nil {
		return nil, err
	}

	if h.Payments != nil {
		// The hold failing must not leave capacity claimed: compensate the
		// ledger commit before surfacing the error.
		if _, err := h.Payments.PlaceHold(ctx, string(b.ID), b.Price.Total, b.Price.Deposit); err != nil {
			if relErr := unit.Ledger().Release(ctx, string(b.ID)); relErr != nil {
				return nil, errors.Join(err, relErr)
			}
			return nil, err
		}
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		if relErr := unit.Ledger().Release(ctx, string(b.ID)); relErr != nil {
			return nil, errors.Join(err, relErr)
		}
		return nil, err
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &ReserveResult{
		BookingID: string(b.ID),
		Status:    string(b.Status),
		Price:     dto.MapBreakdown(b.Price),
	}, nil
}

func (h *ReserveHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[ReserveCommand, *ReserveResult] = (*ReserveHandler)(nil)
var _ middleware.IdempotentCommand = ReserveCommand{}
