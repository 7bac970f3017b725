package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rentcore/internal/app/commands"
	bookinghandlers "rentcore/internal/app/handlers/booking"
	domainbooking "rentcore/internal/domain/booking"
	"rentcore/internal/infra/clock"
)

var ErrSweeperNotConfigured = errors.New("schedule: sweeper missing dependencies")

// Sweeper expires bookings stuck in PENDING_APPROVAL past the approval
// window. It fires the same timeout event a host decision would race
// against, so expiry goes through the state machine like everything else.
type Sweeper struct {
	Bookings domainbooking.Repository
	Bus      commands.Bus
	Clock    clock.Clock
	Timeout  time.Duration
	Interval time.Duration
	Logger   *slog.Logger
}

func (s *Sweeper) Run(ctx context.Context) error {
	if s.Bookings == nil || s.Bus == nil || s.Clock == nil {
		return ErrSweeperNotConfigured
	}
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				return err
			}
		}
	}
}

// SweepOnce expires every booking pending longer than the approval window.
// Individual failures are logged and skipped; a booking approved between
// the listing and the dispatch simply rejects the timeout event.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	if s.Bookings == nil || s.Bus == nil || s.Clock == nil {
		return ErrSweeperNotConfigured
	}
	cutoff := s.Clock.Now().Add(-s.Timeout)
	stale, err := s.Bookings.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, b := range stale {
		cmd := bookinghandlers.TransitionCommand{
			BookingID: string(b.ID),
			Event:     domainbooking.EventTimeout,
			ActorID:   "sweeper",
			ActorRole: domainbooking.RoleSystem,
			Reason:    "approval window elapsed",
		}
		if _, err := s.Bus.Dispatch(ctx, cmd); err != nil {
			var invalid *domainbooking.InvalidTransitionError
			if errors.As(err, &invalid) {
				continue
			}
			s.logger().ErrorContext(ctx, "approval timeout dispatch failed",
				slog.String("booking_id", string(b.ID)),
				slog.Any("error", err))
		}
	}
	return nil
}

func (s *Sweeper) interval() time.Duration {
	if s.Interval <= 0 {
		return time.Minute
	}
	return s.Interval
}

func (s *Sweeper) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
