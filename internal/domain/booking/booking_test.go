package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcore/internal/domain/listing"
	"rentcore/internal/domain/pricing"
	"rentcore/internal/domain/shared/interval"
	"rentcore/internal/domain/shared/money"
)

var (
	renter = Actor{ID: "renter-1", Role: RoleRenter}
	host   = Actor{ID: "host-1", Role: RoleHost}
	admin  = Actor{ID: "admin-1", Role: RoleAdmin}
	system = Actor{ID: "sweeper", Role: RoleSystem}
)

func testListing(instant bool) *listing.Snapshot {
	return &listing.Snapshot{
		ID:             "lst-1",
		Host:           "host-1",
		TotalQuantity:  2,
		Unit:           interval.UnitDay,
		BasePrice:      money.Must(10000, "USD"),
		MinUnits:       1,
		Cancellation:   listing.CancellationModerate,
		InstantBooking: instant,
	}
}

func testBooking(t *testing.T, instant bool) *Booking {
	t.Helper()
	start := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	iv, err := interval.New(start, start.AddDate(0, 0, 3))
	require.NoError(t, err)
	b, err := New(CreateParams{
		ID:       "bk-1",
		Listing:  testListing(instant),
		RenterID: "renter-1",
		Interval: iv,
		Quantity: 1,
		Price: pricing.Breakdown{
			Units:    3,
			Quantity: 1,
			Rate:     money.Must(10000, "USD"),
			Subtotal: money.Must(30000, "USD"),
			Total:    money.Must(30000, "USD"),
		},
		CreatedAt: start.AddDate(0, 0, -14),
	})
	require.NoError(t, err)
	return b
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusConfirmed, testBooking(t, true).Status)
	assert.Equal(t, StatusPendingApproval, testBooking(t, false).Status)
}

func TestTransitionTable(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		instant bool
		event   Event
		actor   Actor
		wantTo  Status
		effect  SideEffect
	}{
		{"host approves pending", false, EventApprove, host, StatusConfirmed, EffectNone},
		{"admin approves pending", false, EventApprove, admin, StatusConfirmed, EffectNone},
		{"host rejects pending", false, EventReject, host, StatusCancelled, EffectRelease},
		{"system times out pending", false, EventTimeout, system, StatusCancelled, EffectRelease},
		{"renter cancels confirmed", true, EventCancel, renter, StatusCancelled, EffectRelease},
		{"host cancels confirmed", true, EventCancel, host, StatusCancelled, EffectRelease},
		{"renter marks pickup", true, EventPickup, renter, StatusPickedUp, EffectNone},
		{"host marks pickup", true, EventPickup, host, StatusPickedUp, EffectNone},
		{"renter disputes confirmed", true, EventDispute, renter, StatusDisputed, EffectFreeze},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBooking(t, tt.instant)
			effect, err := b.Apply(tt.event, tt.actor, "", now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTo, b.Status)
			assert.Equal(t, tt.effect, effect)
			assert.Equal(t, tt.wantTo, b.History[len(b.History)-1].Status)
		})
	}
}

func TestReturnFlowReleasesOnReturn(t *testing.T) {
	now := time.Now().UTC()
	b := testBooking(t, true)

	_, err := b.Apply(EventPickup, host, "", now)
	require.NoError(t, err)
	effect, err := b.Apply(EventReturn, renter, "", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, EffectRelease, effect)
	assert.Equal(t, StatusReturned, b.Status)
	assert.True(t, b.Status.Terminal())
}

func TestDisputeResolutionOutcomes(t *testing.T) {
	now := time.Now().UTC()
	for _, tt := range []struct {
		event Event
		want  Status
	}{
		{EventResolveReturned, StatusReturned},
		{EventResolveRefunded, StatusRefunded},
		{EventResolveCancelled, StatusCancelled},
	} {
		b := testBooking(t, true)
		_, err := b.Apply(EventDispute, renter, "damaged on arrival", now)
		require.NoError(t, err)

		effect, err := b.Apply(tt.event, admin, "", now.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, EffectResolve, effect)
		assert.Equal(t, tt.want, b.Status)
	}
}

func TestInvalidTransitionsNeverMutate(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name    string
		instant bool
		event   Event
	}{
		{"pickup before approval", false, EventPickup},
		{"return before pickup", true, EventReturn},
		{"approve a confirmed booking", true, EventApprove},
		{"unknown event", true, Event("teleport")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBooking(t, tt.instant)
			before := b.Status
			historyLen := len(b.History)

			_, err := b.Apply(tt.event, admin, "", now)
			var invalid *InvalidTransitionError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, before, invalid.From)
			assert.Equal(t, before, b.Status)
			assert.Len(t, b.History, historyLen)
		})
	}
}

func TestActorRoleEnforced(t *testing.T) {
	now := time.Now().UTC()
	b := testBooking(t, false)

	_, err := b.Apply(EventApprove, renter, "", now)
	var notAllowed *ActorNotAllowedError
	require.ErrorAs(t, err, &notAllowed)
	assert.Equal(t, RoleRenter, notAllowed.Role)
	assert.Equal(t, StatusPendingApproval, b.Status)

	_, err = b.Apply(EventResolveReturned, host, "", now)
	// resolve only exists from DISPUTED, so this is an invalid transition,
	// not a role failure.
	var invalid *InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}

func TestTerminalStatesAreClosed(t *testing.T) {
	now := time.Now().UTC()
	b := testBooking(t, true)
	_, err := b.Apply(EventCancel, renter, "plans changed", now)
	require.NoError(t, err)

	allEvents := []Event{
		EventApprove, EventReject, EventTimeout, EventCancel, EventPickup,
		EventReturn, EventDispute, EventResolveReturned, EventResolveRefunded, EventResolveCancelled,
	}
	for _, ev := range allEvents {
		_, err := b.Apply(ev, admin, "", now)
		var invalid *InvalidTransitionError
		assert.ErrorAs(t, err, &invalid, "event %s from terminal state", ev)
	}
}

func TestEveryPathReachesTerminal(t *testing.T) {
	// From any non-terminal status there is a short valid path to a
	// terminal one; walk each and bound the step count.
	now := time.Now().UTC()
	paths := map[string][]struct {
		event Event
		actor Actor
	}{
		"pending rejected":   {{EventReject, host}},
		"pending to return":  {{EventApprove, host}, {EventPickup, renter}, {EventReturn, host}},
		"confirmed disputed": {{EventApprove, admin}, {EventDispute, renter}, {EventResolveRefunded, admin}},
	}
	for name, steps := range paths {
		t.Run(name, func(t *testing.T) {
			b := testBooking(t, false)
			require.LessOrEqual(t, len(steps), 3)
			for _, s := range steps {
				_, err := b.Apply(s.event, s.actor, "", now)
				require.NoError(t, err)
			}
			assert.True(t, b.Status.Terminal())
		})
	}
}

func TestCancellationRefunds(t *testing.T) {
	total := money.Must(30000, "USD")
	start := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		policy      listing.CancellationPolicy
		cancelAt    time.Time
		wantRefund  int64
		wantPenalty int64
	}{
		{"flexible always free", listing.CancellationFlexible, start.Add(-time.Hour), 30000, 0},
		{"moderate outside window", listing.CancellationModerate, start.Add(-72 * time.Hour), 30000, 0},
		{"moderate inside window", listing.CancellationModerate, start.Add(-24 * time.Hour), 15000, 15000},
		{"strict outside window", listing.CancellationStrict, start.Add(-8 * 24 * time.Hour), 30000, 0},
		{"strict inside window", listing.CancellationStrict, start.Add(-2 * 24 * time.Hour), 0, 30000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refund, penalty := TermsFor(tt.policy).Refund(total, tt.cancelAt, start)
			assert.Equal(t, tt.wantRefund, refund.Amount)
			assert.Equal(t, tt.wantPenalty, penalty.Amount)
		})
	}
}

func TestPriceStaysFrozen(t *testing.T) {
	b := testBooking(t, true)
	frozen := b.Price

	now := time.Now().UTC()
	_, err := b.Apply(EventPickup, host, "", now)
	require.NoError(t, err)
	_, err = b.Apply(EventReturn, host, "", now)
	require.NoError(t, err)

	assert.Equal(t, frozen, b.Price)
}

func TestNewRecordsReservedEvent(t *testing.T) {
	b := testBooking(t, false)
	evs := b.PendingEvents()
	require.Len(t, evs, 1)
	reserved, ok := evs[0].(BookingReserved)
	require.True(t, ok)
	assert.Equal(t, StatusPendingApproval, reserved.Status)
	assert.Equal(t, int64(30000), reserved.Total.Amount)
}
