package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"rentcore/internal/domain/inventory"
	"rentcore/internal/domain/listing"
	"rentcore/internal/domain/shared/interval"
)

// Ledger is the in-memory inventory ledger for single-node deployments.
// Commitments are sharded per listing; each shard carries its own mutex so
// the check-and-insert in Commit is atomic per listing while reservations
// against different listings proceed in parallel.
type Ledger struct {
	listings listing.Store

	mu     sync.RWMutex
	shards map[listing.ListingID]*ledgerShard
}

type ledgerShard struct {
	mu          sync.Mutex
	commitments map[string]*inventory.Commitment // keyed by booking id
}

func NewLedger(listings listing.Store) *Ledger {
	return &Ledger{
		listings: listings,
		shards:   make(map[listing.ListingID]*ledgerShard),
	}
}

// FreeCapacity returns the minimum free units across the interval. The
// snapshot may be stale by the time the caller acts on it; only Commit's
// internal re-check is authoritative.
func (l *Ledger) FreeCapacity(ctx context.Context, id listing.ListingID, iv interval.Interval) (int, error) {
	if err := iv.Validate(); err != nil {
		return 0, err
	}
	ls, err := l.listings.ByID(ctx, id)
	if err != nil {
		return 0, err
	}
	shard := l.shard(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	return shard.freeLocked(ls.TotalQuantity, iv)
}

// Commit atomically re-verifies capacity and inserts the commitment under
// the listing's shard lock. Committing an already-committed booking id is a
// no-op, which keeps retried reservations idempotent.
func (l *Ledger) Commit(ctx context.Context, id listing.ListingID, iv interval.Interval, quantity int, bookingID string) error {
	if err := iv.Validate(); err != nil {
		return err
	}
	ls, err := l.listings.ByID(ctx, id)
	if err != nil {
		return err
	}
	shard := l.shard(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if _, ok := shard.commitments[bookingID]; ok {
		return nil
	}
	free, err := shard.freeLocked(ls.TotalQuantity, iv)
	if err != nil {
		return err
	}
	if quantity > free {
		return &inventory.CapacityError{ListingID: id, Requested: quantity, Free: free}
	}
	shard.commitments[bookingID] = &inventory.Commitment{
		ListingID: id,
		Interval:  iv,
		Quantity:  quantity,
		BookingID: bookingID,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// Release drops the commitment for a booking. Safe to call repeatedly.
// Frozen commitments stay put until Resolve removes them.
func (l *Ledger) Release(ctx context.Context, bookingID string) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, shard := range l.shards {
		shard.mu.Lock()
		if c, ok := shard.commitments[bookingID]; ok && !c.Frozen {
			delete(shard.commitments, bookingID)
		}
		shard.mu.Unlock()
	}
	return nil
}

// Freeze marks a disputed booking's commitment so it keeps occupying
// capacity until resolution.
func (l *Ledger) Freeze(ctx context.Context, bookingID string) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, shard := range l.shards {
		shard.mu.Lock()
		if c, ok := shard.commitments[bookingID]; ok {
			c.Frozen = true
		}
		shard.mu.Unlock()
	}
	return nil
}

// Resolve drops a commitment whether frozen or not; dispute resolutions
// come through here.
func (l *Ledger) Resolve(ctx context.Context, bookingID string) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, shard := range l.shards {
		shard.mu.Lock()
		delete(shard.commitments, bookingID)
		shard.mu.Unlock()
	}
	return nil
}

func (l *Ledger) shard(id listing.ListingID) *ledgerShard {
	l.mu.RLock()
	shard, ok := l.shards[id]
	l.mu.RUnlock()
	if ok {
		return shard
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if shard, ok = l.shards[id]; ok {
		return shard
	}
	shard = &ledgerShard{commitments: make(map[string]*inventory.Commitment)}
	l.shards[id] = shard
	return shard
}

// freeLocked computes total minus the peak concurrent committed quantity
// inside the window, sweeping commitment boundaries. Half-open intervals
// mean a release at instant t frees capacity for an acquisition at t.
func (s *ledgerShard) freeLocked(total int, window interval.Interval) (int, error) {
	type boundary struct {
		at    time.Time
		delta int
	}
	var bounds []boundary
	for _, c := range s.commitments {
		clipped, ok := c.Interval.Clip(window)
		if !ok {
			continue
		}
		bounds = append(bounds,
			boundary{at: clipped.Start, delta: c.Quantity},
			boundary{at: clipped.End, delta: -c.Quantity},
		)
	}
	sort.Slice(bounds, func(i, j int) bool {
		if bounds[i].at.Equal(bounds[j].at) {
			return bounds[i].delta < bounds[j].delta
		}
		return bounds[i].at.Before(bounds[j].at)
	})

	running, peak := 0, 0
	for _, b := range bounds {
		running += b.delta
		if running > peak {
			peak = running
		}
	}
	if peak > total {
		return 0, inventory.ErrLedgerInconsistent
	}
	return total - peak, nil
}

var _ inventory.Ledger = (*Ledger)(nil)
