package booking

import (
	"context"

	"rentcore/internal/app/dto"
	"rentcore/internal/app/queries"
	domainbooking "rentcore/internal/domain/booking"
)

const listByRenterKey = "booking.list_by_renter"

type ListByRenterQuery struct {
	RenterID string
}

func (q ListByRenterQuery) Key() string { return listByRenterKey }

// ListByRenterHandler returns a renter's bookings in creation order.
type ListByRenterHandler struct {
	Bookings domainbooking.Repository
}

func (h *ListByRenterHandler) Handle(ctx context.Context, q ListByRenterQuery) (dto.BookingCollection, error) {
	items, err := h.Bookings.ListByRenter(ctx, q.RenterID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return dto.MapBookingCollection(items), nil
}

var _ queries.Handler[ListByRenterQuery, dto.BookingCollection] = (*ListByRenterHandler)(nil)
