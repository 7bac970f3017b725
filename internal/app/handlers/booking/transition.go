package booking

import (
	"context"

	"rentcore/internal/app/commands"
	"rentcore/internal/app/dto"
	"rentcore/internal/app/outbox"
	"rentcore/internal/app/uow"
	domainbooking "rentcore/internal/domain/booking"
	"rentcore/internal/infra/clock"
)

const transitionKey = "booking.transition"

type TransitionCommand struct {
	BookingID string
	Event     domainbooking.Event
	ActorID   string
	ActorRole domainbooking.Role
	Reason    string
}

func (c TransitionCommand) Key() string { return transitionKey }

type TransitionResult struct {
	BookingID string          `json:"booking_id"`
	Status    string          `json:"status"`
	Booking   dto.BookingView `json:"booking"`
}

// TransitionHandler fires a lifecycle event against a booking and executes
// the resulting ledger side effect. The state machine decides; this handler
// only carries the decision out.
type TransitionHandler struct {
	UoWFactory uow.Factory
	Clock      clock.Clock
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *TransitionHandler) Handle(ctx context.Context, cmd TransitionCommand) (*TransitionResult, error) {
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

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}

	actor := domainbooking.Actor{ID: cmd.ActorID, Role: cmd.ActorRole}
	effect, err := b.Apply(cmd.Event, actor, cmd.Reason, h.Clock.Now())
	if err != nil {
		return nil, err
	}

	// Save first: the optimistic version check is what decides a race
	// between two transitions, and the loser must not touch the ledger.
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	switch effect {
	case domainbooking.EffectRelease:
		if err := unit.Ledger().Release(ctx, string(b.ID)); err != nil {
			return nil, err
		}
	case domainbooking.EffectFreeze:
		if err := unit.Ledger().Freeze(ctx, string(b.ID)); err != nil {
			return nil, err
		}
	case domainbooking.EffectResolve:
		if err := unit.Ledger().Resolve(ctx, string(b.ID)); err != nil {
			return nil, err
		}
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

	return &TransitionResult{
		BookingID: string(b.ID),
		Status:    string(b.Status),
		Booking:   dto.MapBookingView(b),
	}, nil
}

func (h *TransitionHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[TransitionCommand, *TransitionResult] = (*TransitionHandler)(nil)
