package pricing

import (
	"context"
	"time"

	"rentcore/internal/app/dto"
	"rentcore/internal/app/queries"
	domainlisting "rentcore/internal/domain/listing"
	domainpricing "rentcore/internal/domain/pricing"
	"rentcore/internal/domain/shared/interval"
)

const quoteKey = "pricing.quote"

type QuoteQuery struct {
	ListingID string
	Start     time.Time
	End       time.Time
	Quantity  int
}

func (q QuoteQuery) Key() string { return quoteKey }

// QuoteHandler prices a prospective reservation without touching capacity.
// Same inputs, same answer; the quote carries no reservation.
type QuoteHandler struct {
	Listings   domainlisting.Store
	Calculator *domainpricing.Calculator
}

func (h *QuoteHandler) Handle(ctx context.Context, q QuoteQuery) (dto.PriceBreakdown, error) {
	iv, err := interval.New(q.Start, q.End)
	if err != nil {
		return dto.PriceBreakdown{}, err
	}
	ls, err := h.Listings.ByID(ctx, domainlisting.ListingID(q.ListingID))
	if err != nil {
		return dto.PriceBreakdown{}, err
	}
	breakdown, err := h.Calculator.Quote(ls, iv, q.Quantity)
	if err != nil {
		return dto.PriceBreakdown{}, err
	}
	return dto.MapBreakdown(breakdown), nil
}

var _ queries.Handler[QuoteQuery, dto.PriceBreakdown] = (*QuoteHandler)(nil)
