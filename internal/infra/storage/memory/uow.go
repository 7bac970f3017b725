package memory

import (
	"context"
	"errors"

	"rentcore/internal/app/uow"
	domainbooking "rentcore/internal/domain/booking"
	domaininventory "rentcore/internal/domain/inventory"
	domainlisting "rentcore/internal/domain/listing"
)

// ErrFactoryMisconfigured indicates missing stores.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires in-memory stores into a unit-of-work boundary.
type Factory struct {
	ListingsStore domainlisting.Store
	BookingRepo   domainbooking.Repository
	LedgerStore   domaininventory.Ledger
}

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports; the ledger enforces
// its own atomicity per listing.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsStore == nil || f.BookingRepo == nil || f.LedgerStore == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		listings: f.ListingsStore,
		bookings: f.BookingRepo,
		ledger:   f.LedgerStore,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	listings domainlisting.Store
	bookings domainbooking.Repository
	ledger   domaininventory.Ledger
}

func (u *Unit) Listings() domainlisting.Store { return u.listings }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Ledger() domaininventory.Ledger { return u.ledger }

func (u *Unit) Commit(ctx context.Context) error { return nil }

func (u *Unit) Rollback(ctx context.Context) error { return nil }

var _ uow.Factory = Factory{}
