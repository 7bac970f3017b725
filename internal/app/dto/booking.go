package dto

import (
	"time"

	domainbooking "rentcore/internal/domain/booking"
	"rentcore/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
	}
}

type HistoryEntryDTO struct {
	Status    string    `json:"status"`
	ActorID   string    `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	At        time.Time `json:"at"`
	Reason    string    `json:"reason,omitempty"`
}

type BookingView struct {
	ID        string            `json:"id"`
	ListingID string            `json:"listing_id"`
	HostID    string            `json:"host_id"`
	RenterID  string            `json:"renter_id"`
	Start     time.Time         `json:"start"`
	End       time.Time         `json:"end"`
	Quantity  int               `json:"quantity"`
	Status    string            `json:"status"`
	Price     PriceBreakdown    `json:"price"`
	History   []HistoryEntryDTO `json:"history"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type BookingCollection struct {
	Items []BookingView `json:"items"`
}

func MapBookingView(b *domainbooking.Booking) BookingView {
	history := make([]HistoryEntryDTO, 0, len(b.History))
	for _, entry := range b.History {
		history = append(history, HistoryEntryDTO{
			Status:    string(entry.Status),
			ActorID:   entry.Actor.ID,
			ActorRole: string(entry.Actor.Role),
			At:        entry.At,
			Reason:    entry.Reason,
		})
	}
	return BookingView{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		HostID:    string(b.HostID),
		RenterID:  b.RenterID,
		Start:     b.Interval.Start,
		End:       b.Interval.End,
		Quantity:  b.Quantity,
		Status:    string(b.Status),
		Price:     MapBreakdown(b.Price),
		History:   history,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func MapBookingCollection(items []*domainbooking.Booking) BookingCollection {
	out := BookingCollection{Items: make([]BookingView, 0, len(items))}
	for _, b := range items {
		out.Items = append(out.Items, MapBookingView(b))
	}
	return out
}
