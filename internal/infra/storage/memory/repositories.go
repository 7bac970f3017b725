package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainbooking "rentcore/internal/domain/booking"
	domainlisting "rentcore/internal/domain/listing"
)

// ListingStore is an in-memory read model of listing snapshots. The engine
// only reads listings; Put exists for fixtures and tests.
type ListingStore struct {
	mu    sync.RWMutex
	items map[domainlisting.ListingID]*domainlisting.Snapshot
}

func NewListingStore() *ListingStore {
	return &ListingStore{items: make(map[domainlisting.ListingID]*domainlisting.Snapshot)}
}

// ByID returns a listing snapshot or listing.ErrListingNotFound.
func (s *ListingStore) ByID(ctx context.Context, id domainlisting.ListingID) (*domainlisting.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.items[id]
	if !ok {
		return nil, domainlisting.ErrListingNotFound
	}
	copied := *snapshot
	return &copied, nil
}

// Put stores a snapshot after validating it.
func (s *ListingStore) Put(ctx context.Context, snapshot *domainlisting.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[snapshot.ID] = snapshot
	return nil
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

// ByID returns a deep copy so concurrent callers never share aggregate
// state through the map.
func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b.Clone(), nil
}

// Save stores a copy after an optimistic version check; of two racing
// transitions loaded from the same version, only the first write wins.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.items[b.ID]; ok && current.Version != b.Version {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version++
	r.items[b.ID] = b.Clone()
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.RenterID == renterID {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ListPendingBefore returns PENDING_APPROVAL bookings created before the
// cutoff; the approval timeout sweeper feeds them back through the state
// machine.
func (r *BookingRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.Status == domainbooking.StatusPendingApproval && b.CreatedAt.Before(cutoff) {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

var (
	_ domainlisting.Store      = (*ListingStore)(nil)
	_ domainbooking.Repository = (*BookingRepository)(nil)
)
