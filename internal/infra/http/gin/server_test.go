package ginserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcore/internal/app/commands"
	availabilityapp "rentcore/internal/app/handlers/availability"
	bookingapp "rentcore/internal/app/handlers/booking"
	pricingapp "rentcore/internal/app/handlers/pricing"
	"rentcore/internal/app/middleware"
	"rentcore/internal/app/queries"
	domainlisting "rentcore/internal/domain/listing"
	domainpricing "rentcore/internal/domain/pricing"
	"rentcore/internal/domain/shared/interval"
	"rentcore/internal/domain/shared/money"
	"rentcore/internal/infra/clock"
	"rentcore/internal/infra/config"
	"rentcore/internal/infra/obs"
	"rentcore/internal/infra/storage/memory"
)

func testServer(t *testing.T) http.Handler {
	t.Helper()
	listings := memory.NewListingStore()
	require.NoError(t, listings.Put(context.Background(), &domainlisting.Snapshot{
		ID:             "lst-1",
		Host:           "host-1",
		TotalQuantity:  1,
		Unit:           interval.UnitDay,
		BasePrice:      money.Must(10000, "USD"),
		MinUnits:       1,
		Cancellation:   domainlisting.CancellationFlexible,
		InstantBooking: true,
	}))
	bookings := memory.NewBookingRepository()
	ledger := memory.NewLedger(listings)
	factory := memory.Factory{ListingsStore: listings, BookingRepo: bookings, LedgerStore: ledger}
	fixed := clock.NewFixed(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	calculator := domainpricing.NewCalculator(0)

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.ReserveCommand{}.Key(), &bookingapp.ReserveHandler{
		UoWFactory: factory,
		Calculator: calculator,
		Clock:      fixed,
	})
	commands.RegisterHandler(commandBus, bookingapp.TransitionCommand{}.Key(), &bookingapp.TransitionHandler{
		UoWFactory: factory,
		Clock:      fixed,
	})
	chained := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil, ErrorCode),
		middleware.Transaction(factory, nil),
	)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.CheckQuery{}.Key(), &availabilityapp.CheckHandler{
		Listings: listings,
		Ledger:   ledger,
	})
	queries.RegisterHandler(queryBus, pricingapp.QuoteQuery{}.Key(), &pricingapp.QuoteHandler{
		Listings:   listings,
		Calculator: calculator,
	})
	queries.RegisterHandler(queryBus, bookingapp.ListByRenterQuery{}.Key(), &bookingapp.ListByRenterHandler{
		Bookings: bookings,
	})

	cfg := config.Config{Env: "test", HTTPAddr: ":0"}
	server := NewServer(cfg, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Booking: BookingHandler{Commands: chained, Queries: queryBus},
		Listing: ListingHandler{Queries: queryBus},
	})
	return server.Handler
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func reserveBody(startDay, endDay int) string {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return fmt.Sprintf(`{"listing_id":"lst-1","start":%q,"end":%q,"quantity":1}`,
		base.AddDate(0, 0, startDay).Format(time.RFC3339),
		base.AddDate(0, 0, endDay).Format(time.RFC3339))
}

var renterHeaders = map[string]string{"X-User-ID": "renter-1", "X-User-Role": "renter"}

func TestReserveEndpointLifecycle(t *testing.T) {
	h := testServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", reserveBody(0, 3), renterHeaders)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		BookingID string `json:"booking_id"`
		Status    string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "CONFIRMED", created.Status)

	// The window is taken now.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/bookings", reserveBody(1, 2), renterHeaders)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Cancelling frees it again.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/bookings/"+created.BookingID+"/transitions",
		`{"event":"cancel","reason":"changed plans"}`, renterHeaders)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	query := fmt.Sprintf("/api/v1/listings/lst-1/availability?start=%s&end=%s",
		base.Format(time.RFC3339), base.AddDate(0, 0, 3).Format(time.RFC3339))
	rec = doJSON(t, h, http.MethodGet, query, "", renterHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	var availability struct {
		Available bool `json:"available"`
		FreeUnits int  `json:"free_units"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &availability))
	assert.True(t, availability.Available)
	assert.Equal(t, 1, availability.FreeUnits)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/me/bookings", "", renterHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.BookingID)
}

func TestReserveEndpointValidation(t *testing.T) {
	h := testServer(t)

	// end == start
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	body := fmt.Sprintf(`{"listing_id":"lst-1","start":%q,"end":%q,"quantity":1}`,
		base.Format(time.RFC3339), base.Format(time.RFC3339))
	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", body, renterHeaders)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/bookings", reserveBody(0, 3), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body = strings.Replace(reserveBody(0, 3), "lst-1", "lst-missing", 1)
	rec = doJSON(t, h, http.MethodPost, "/api/v1/bookings", body, renterHeaders)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransitionEndpointStateErrors(t *testing.T) {
	h := testServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", reserveBody(0, 3), renterHeaders)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		BookingID string `json:"booking_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// approve is meaningless on an already confirmed booking
	rec = doJSON(t, h, http.MethodPost, "/api/v1/bookings/"+created.BookingID+"/transitions",
		`{"event":"approve"}`, map[string]string{"X-User-ID": "host-1", "X-User-Role": "host"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// renters cannot resolve disputes
	doJSON(t, h, http.MethodPost, "/api/v1/bookings/"+created.BookingID+"/transitions",
		`{"event":"dispute","reason":"damage"}`, renterHeaders)
	rec = doJSON(t, h, http.MethodPost, "/api/v1/bookings/"+created.BookingID+"/transitions",
		`{"event":"resolve_refunded"}`, renterHeaders)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/bookings/bk-missing/transitions",
		`{"event":"cancel"}`, renterHeaders)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRetriedConflictKeepsStatusOnReplay(t *testing.T) {
	h := testServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", reserveBody(0, 3), renterHeaders)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	headers := map[string]string{"X-User-ID": "renter-2", "X-User-Role": "renter", "Idempotency-Key": "retry-1"}
	first := doJSON(t, h, http.MethodPost, "/api/v1/bookings", reserveBody(1, 2), headers)
	require.Equal(t, http.StatusConflict, first.Code, first.Body.String())

	// The replayed failure must keep the original response class.
	second := doJSON(t, h, http.MethodPost, "/api/v1/bookings", reserveBody(1, 2), headers)
	assert.Equal(t, http.StatusConflict, second.Code, second.Body.String())
}

func TestQuoteEndpointIsPure(t *testing.T) {
	h := testServer(t)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	query := fmt.Sprintf("/api/v1/listings/lst-1/quote?start=%s&end=%s&quantity=1",
		base.Format(time.RFC3339), base.AddDate(0, 0, 3).Format(time.RFC3339))

	first := doJSON(t, h, http.MethodGet, query, "", renterHeaders)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), `"amount":30000`)

	// Quoting holds nothing: the same reserve still succeeds afterwards.
	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", reserveBody(0, 3), renterHeaders)
	assert.Equal(t, http.StatusCreated, rec.Code)

	second := doJSON(t, h, http.MethodGet, query, "", renterHeaders)
	assert.Equal(t, first.Body.String(), second.Body.String())
}
