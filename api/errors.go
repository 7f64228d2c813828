package api

import (
	"errors"
	"net/http"

	"github.com/avelora/farewatch/internal/domain"
	"github.com/avelora/farewatch/internal/service/booking"
	"github.com/gin-gonic/gin"
)

// respondError maps the domain error taxonomy onto HTTP statuses:
// validation failures become 400, missing aggregates 404, rejected
// transitions and busy bookings 409. Anything else is an
// infrastructure failure and surfaces as 500.
func respondError(c *gin.Context, err error) {
	var (
		validation   *domain.ValidationError
		transition   *domain.InvalidTransitionError
		notFound     *domain.NotFoundError
		unauthorized *domain.UnauthorizedError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{"error": transition.Error(), "from": string(transition.From), "to": string(transition.To)})
	case errors.As(err, &unauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": unauthorized.Error()})
	case errors.Is(err, booking.ErrBookingBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
