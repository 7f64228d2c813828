package api

import (
	"net/http"
	"time"

	"github.com/avelora/farewatch/internal/domain"
	"github.com/avelora/farewatch/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	UserID        string             `json:"user_id"`
	Origin        string             `json:"origin"`
	Destination   string             `json:"destination"`
	DepartureDate string             `json:"departure_date"`
	Passengers    []domain.Passenger `json:"passengers"`
	Base          float64            `json:"base"`
	Taxes         float64            `json:"taxes"`
	Fees          float64            `json:"fees"`
	AddOns        float64            `json:"add_ons"`
	Discounts     float64            `json:"discounts"`
	Currency      string             `json:"currency"`
}

type transitionRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}

type bookingResponse struct {
	ID               string                       `json:"id"`
	Reference        string                       `json:"reference"`
	DisplayReference string                       `json:"display_reference"`
	UserID           string                       `json:"user_id"`
	Origin           string                       `json:"origin"`
	Destination      string                       `json:"destination"`
	DepartureDate    string                       `json:"departure_date"`
	Status           string                       `json:"status"`
	Passengers       []domain.Passenger           `json:"passengers"`
	Pricing          domain.Pricing               `json:"pricing"`
	Modifications    []domain.BookingModification `json:"modifications"`
	Cancellation     *domain.Cancellation         `json:"cancellation,omitempty"`
	PaymentDueAt     string                       `json:"payment_due_at"`
	CanCancel        bool                         `json:"can_cancel"`
	CanCheckIn       bool                         `json:"can_check_in"`
	CanModify        bool                         `json:"can_modify"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:reference", h.get)
	router.PUT("/:reference/status", h.transition)
	router.DELETE("/:reference", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	departure, err := time.Parse("2006-01-02", req.DepartureDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "departure_date must be YYYY-MM-DD"})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		UserID:        req.UserID,
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: departure,
		Passengers:    req.Passengers,
		Base:          req.Base,
		Taxes:         req.Taxes,
		Fees:          req.Fees,
		AddOns:        req.AddOns,
		Discounts:     req.Discounts,
		Currency:      req.Currency,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) get(c *gin.Context) {
	found, err := h.service.GetBooking(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(found))
}

func (h *BookingHandler) transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, err := domain.ParseBookingStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := domain.Actor(req.Actor)
	if actor == "" {
		actor = domain.ActorCustomer
	}

	updated, err := h.service.Transition(c.Request.Context(), c.Param("reference"), target, actor, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	reason := c.Query("reason")
	updated, err := h.service.Transition(c.Request.Context(), c.Param("reference"), domain.StatusCancelled, domain.ActorCustomer, reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func toBookingResponse(b *domain.FlightBooking) bookingResponse {
	return bookingResponse{
		ID:               b.ID,
		Reference:        b.Reference,
		DisplayReference: domain.FormatReference(b.Reference),
		UserID:           b.UserID,
		Origin:           b.Origin,
		Destination:      b.Destination,
		DepartureDate:    b.DepartureDate.Format("2006-01-02"),
		Status:           string(b.Status),
		Passengers:       b.Passengers,
		Pricing:          b.Pricing,
		Modifications:    b.Modifications,
		Cancellation:     b.Cancellation,
		PaymentDueAt:     b.PaymentDueAt.Format(time.RFC3339),
		CanCancel:        domain.CanCancel(*b),
		CanCheckIn:       domain.CanCheckIn(*b),
		CanModify:        domain.CanModify(*b),
	}
}
