package availability

import (
	"context"
	"time"

	"rentcore/internal/app/dto"
	"rentcore/internal/app/queries"
	domaininventory "rentcore/internal/domain/inventory"
	domainlisting "rentcore/internal/domain/listing"
	"rentcore/internal/domain/shared/interval"
)

const checkKey = "availability.check"

type CheckQuery struct {
	ListingID string
	Start     time.Time
	End       time.Time
	Quantity  int
}

func (q CheckQuery) Key() string { return checkKey }

// CheckHandler answers whether a listing has capacity over a window. The
// answer is advisory: only reserve's atomic commit decides for real.
type CheckHandler struct {
	Listings domainlisting.Store
	Ledger   domaininventory.Ledger
}

func (h *CheckHandler) Handle(ctx context.Context, q CheckQuery) (dto.AvailabilityResult, error) {
	iv, err := interval.New(q.Start, q.End)
	if err != nil {
		return dto.AvailabilityResult{}, err
	}
	id := domainlisting.ListingID(q.ListingID)
	if _, err := h.Listings.ByID(ctx, id); err != nil {
		return dto.AvailabilityResult{}, err
	}
	free, err := h.Ledger.FreeCapacity(ctx, id, iv)
	if err != nil {
		return dto.AvailabilityResult{}, err
	}
	quantity := q.Quantity
	if quantity < 1 {
		quantity = 1
	}
	return dto.AvailabilityResult{
		ListingID: q.ListingID,
		Start:     iv.Start,
		End:       iv.End,
		Available: free >= quantity,
		FreeUnits: free,
	}, nil
}

var _ queries.Handler[CheckQuery, dto.AvailabilityResult] = (*CheckHandler)(nil)
