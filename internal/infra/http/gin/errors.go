package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentcore/internal/app/middleware"
	domainbooking "rentcore/internal/domain/booking"
	domaininventory "rentcore/internal/domain/inventory"
	domainlisting "rentcore/internal/domain/listing"
	domainpricing "rentcore/internal/domain/pricing"
	"rentcore/internal/domain/shared/interval"
)

// respondError maps domain failures onto HTTP statuses: validation to 400,
// missing aggregates to 404, capacity conflicts to 409, lifecycle misuse
// to 422, role denial to 403. Everything else is a 500.
func respondError(c *gin.Context, err error) {
	var replayed *middleware.ReplayedError
	if errors.As(err, &replayed) {
		c.JSON(statusForCode(replayed.Code), gin.H{"error": replayed.Message})
		return
	}
	c.JSON(statusForCode(ErrorCode(err)), gin.H{"error": err.Error()})
}

// ErrorCode buckets a domain failure into the category respondError maps to
// a status. The idempotency middleware stores it with failed commands so a
// retried reservation that lost a capacity race still answers 409, not 500.
func ErrorCode(err error) string {
	var (
		rangeErr      *domainpricing.DurationOutOfRangeError
		capacityErr   *domaininventory.CapacityError
		transitionErr *domainbooking.InvalidTransitionError
		actorErr      *domainbooking.ActorNotAllowedError
	)
	switch {
	case errors.Is(err, interval.ErrInvalidInterval),
		errors.Is(err, interval.ErrUnknownUnit),
		errors.Is(err, domainpricing.ErrInvalidQuantity),
		errors.Is(err, domainbooking.ErrInvalidQuantity),
		errors.Is(err, domainbooking.ErrRenterRequired),
		errors.As(err, &rangeErr):
		return middleware.CodeValidation
	case errors.Is(err, domainlisting.ErrListingNotFound),
		errors.Is(err, domainbooking.ErrBookingNotFound):
		return middleware.CodeNotFound
	case errors.Is(err, domaininventory.ErrInsufficientCapacity),
		errors.Is(err, domainbooking.ErrConcurrentUpdate),
		errors.As(err, &capacityErr):
		return middleware.CodeConflict
	case errors.As(err, &transitionErr):
		return middleware.CodeInvalidState
	case errors.As(err, &actorErr):
		return middleware.CodeForbidden
	default:
		return middleware.CodeInternal
	}
}

func statusForCode(code string) int {
	switch code {
	case middleware.CodeValidation:
		return http.StatusBadRequest
	case middleware.CodeNotFound:
		return http.StatusNotFound
	case middleware.CodeConflict:
		return http.StatusConflict
	case middleware.CodeInvalidState:
		return http.StatusUnprocessableEntity
	case middleware.CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
