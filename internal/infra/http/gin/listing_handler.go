package ginserver

import (
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentcore/internal/app/dto"
	availabilityapp "rentcore/internal/app/handlers/availability"
	pricingapp "rentcore/internal/app/handlers/pricing"
	"rentcore/internal/app/queries"
)

type ListingHandler struct {
	Queries queries.Bus
}

func (h ListingHandler) Availability(c *gin.Context) {
	window, quantity, ok := parseWindow(c)
	if !ok {
		return
	}
	q := availabilityapp.CheckQuery{
		ListingID: c.Param("id"),
		Start:     window.start,
		End:       window.end,
		Quantity:  quantity,
	}
	result, err := queries.Ask[availabilityapp.CheckQuery, dto.AvailabilityResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Quote(c *gin.Context) {
	window, quantity, ok := parseWindow(c)
	if !ok {
		return
	}
	q := pricingapp.QuoteQuery{
		ListingID: c.Param("id"),
		Start:     window.start,
		End:       window.end,
		Quantity:  quantity,
	}
	result, err := queries.Ask[pricingapp.QuoteQuery, dto.PriceBreakdown](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type timeWindow struct {
	start time.Time
	end   time.Time
}

func parseWindow(c *gin.Context) (timeWindow, int, bool) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start, want RFC3339"})
		return timeWindow{}, 0, false
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end, want RFC3339"})
		return timeWindow{}, 0, false
	}
	quantity := 1
	if raw := c.Query("quantity"); raw != "" {
		quantity, err = strconv.Atoi(raw)
		if err != nil || quantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity"})
			return timeWindow{}, 0, false
		}
	}
	return timeWindow{start: start, end: end}, quantity, true
}

var _ ListingHTTP = ListingHandler{}
