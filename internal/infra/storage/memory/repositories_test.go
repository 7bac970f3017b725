package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "rentcore/internal/domain/booking"
	domainlisting "rentcore/internal/domain/listing"
	"rentcore/internal/domain/shared/interval"
	"rentcore/internal/domain/shared/money"
)

func seededBooking(t *testing.T) (*BookingRepository, domainbooking.BookingID) {
	t.Helper()
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	iv, err := interval.New(start, start.AddDate(0, 0, 3))
	require.NoError(t, err)

	b, err := domainbooking.New(domainbooking.CreateParams{
		ID: "bk-1",
		Listing: &domainlisting.Snapshot{
			ID:             "lst-1",
			Host:           "host-1",
			TotalQuantity:  1,
			Unit:           interval.UnitDay,
			BasePrice:      money.Must(10000, "USD"),
			MinUnits:       1,
			MaxUnits:       30,
			Cancellation:   domainlisting.CancellationFlexible,
			InstantBooking: true,
		},
		RenterID:  "renter-1",
		Interval:  iv,
		Quantity:  1,
		CreatedAt: start.Add(-24 * time.Hour),
	})
	require.NoError(t, err)
	b.ClearEvents()

	repo := NewBookingRepository()
	require.NoError(t, repo.Save(context.Background(), b))
	return repo, b.ID
}

func TestBookingByIDReturnsIndependentCopy(t *testing.T) {
	repo, id := seededBooking(t)
	ctx := context.Background()

	got, err := repo.ByID(ctx, id)
	require.NoError(t, err)
	got.Status = domainbooking.StatusDisputed
	got.History = append(got.History, domainbooking.HistoryEntry{Status: domainbooking.StatusDisputed})

	fresh, err := repo.ByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, fresh.Status)
	assert.Len(t, fresh.History, 1)
}

func TestBookingSaveRejectsStaleVersion(t *testing.T) {
	repo, id := seededBooking(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 30, 12, 0, 0, 0, time.UTC)

	first, err := repo.ByID(ctx, id)
	require.NoError(t, err)
	second, err := repo.ByID(ctx, id)
	require.NoError(t, err)

	_, err = first.Apply(domainbooking.EventCancel, domainbooking.Actor{ID: "renter-1", Role: domainbooking.RoleRenter}, "", now)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	_, err = second.Apply(domainbooking.EventDispute, domainbooking.Actor{ID: "host-1", Role: domainbooking.RoleHost}, "damage", now)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, second), domainbooking.ErrConcurrentUpdate)

	stored, err := repo.ByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCancelled, stored.Status)
}

func TestConcurrentTransitionsAdmitSingleWinner(t *testing.T) {
	repo, id := seededBooking(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 30, 12, 0, 0, 0, time.UTC)

	const workers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := repo.ByID(ctx, id)
			if err != nil {
				return
			}
			if _, err := b.Apply(domainbooking.EventCancel, domainbooking.Actor{ID: "renter-1", Role: domainbooking.RoleRenter}, "", now); err != nil {
				return
			}
			if err := repo.Save(ctx, b); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1)

	stored, err := repo.ByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCancelled, stored.Status)
	assert.Len(t, stored.History, 2)
}
