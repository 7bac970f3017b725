package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rentcore/internal/app/commands"
	"rentcore/internal/app/dto"
	bookingapp "rentcore/internal/app/handlers/booking"
	"rentcore/internal/app/queries"
	domainbooking "rentcore/internal/domain/booking"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type reserveRequest struct {
	ListingID string    `json:"listing_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Quantity  int       `json:"quantity"`
}

func (h BookingHandler) Reserve(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.ReserveCommand{
		CommandID:       generateCommandID(),
		ListingID:       req.ListingID,
		RenterID:        caller.ID,
		Start:           req.Start,
		End:             req.End,
		Quantity:        req.Quantity,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.ReserveCommand, *bookingapp.ReserveResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type transitionRequest struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

func (h BookingHandler) Transition(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.TransitionCommand{
		BookingID: c.Param("id"),
		Event:     domainbooking.Event(req.Event),
		ActorID:   caller.ID,
		ActorRole: caller.Role,
		Reason:    req.Reason,
	}
	result, err := commands.Dispatch[bookingapp.TransitionCommand, *bookingapp.TransitionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	q := bookingapp.ListByRenterQuery{RenterID: caller.ID}
	result, err := queries.Ask[bookingapp.ListByRenterQuery, dto.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// caller is the identity forwarded by the gateway. This service trusts the
// upstream headers; authentication happens before traffic reaches it.
type caller struct {
	ID   string
	Role domainbooking.Role
}

func requireCaller(c *gin.Context) (caller, bool) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
		return caller{}, false
	}
	role := domainbooking.Role(c.GetHeader("X-User-Role"))
	switch role {
	case domainbooking.RoleRenter, domainbooking.RoleHost, domainbooking.RoleAdmin:
	case "":
		role = domainbooking.RoleRenter
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return caller{}, false
	}
	return caller{ID: id, Role: role}, true
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
