package api

import (
	"net/http"
	"time"

	"github.com/avelora/farewatch/internal/domain"
	"github.com/avelora/farewatch/internal/service/alerts"
	"github.com/gin-gonic/gin"
)

type AlertHandler struct {
	service alerts.AlertUseCase
}

type createAlertRequest struct {
	UserID        string  `json:"user_id"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	DepartureDate string  `json:"departure_date"`
	ReturnDate    string  `json:"return_date"`
	TripType      string  `json:"trip_type"`
	TargetPrice   float64 `json:"target_price"`
	Currency      string  `json:"currency"`
	AlertType     string  `json:"alert_type"`
	Adults        int     `json:"adults"`
	ExpiresAt     string  `json:"expires_at"`
}

type updateAlertRequest struct {
	TargetPrice *float64 `json:"target_price"`
	AlertType   *string  `json:"alert_type"`
	ExpiresAt   *string  `json:"expires_at"`
}

type alertResponse struct {
	ID            string              `json:"id"`
	UserID        string              `json:"user_id"`
	Origin        string              `json:"origin"`
	Destination   string              `json:"destination"`
	DepartureDate string              `json:"departure_date"`
	ReturnDate    string              `json:"return_date,omitempty"`
	TripType      string              `json:"trip_type"`
	TargetPrice   float64             `json:"target_price"`
	Currency      string              `json:"currency"`
	AlertType     string              `json:"alert_type"`
	Adults        int                 `json:"adults"`
	CurrentPrice  *float64            `json:"current_price"`
	LastChecked   *time.Time          `json:"last_checked"`
	PriceHistory  []domain.PricePoint `json:"price_history"`
	IsActive      bool                `json:"is_active"`
	ExpiresAt     *time.Time          `json:"expires_at"`
}

func NewAlertHandler(service alerts.AlertUseCase) *AlertHandler {
	return &AlertHandler{service: service}
}

func (h *AlertHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.PATCH("/:id", h.update)
	router.POST("/:id/toggle", h.toggle)
	router.DELETE("/:id", h.remove)
}

func (h *AlertHandler) create(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := domain.CreateAlertInput{
		Origin:      req.Origin,
		Destination: req.Destination,
		TripType:    domain.TripType(req.TripType),
		TargetPrice: req.TargetPrice,
		Currency:    req.Currency,
		AlertType:   domain.AlertType(req.AlertType),
		Adults:      req.Adults,
	}
	if req.DepartureDate != "" {
		departure, err := time.Parse("2006-01-02", req.DepartureDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "departure_date must be YYYY-MM-DD"})
			return
		}
		input.DepartureDate = departure
	}
	if req.ReturnDate != "" {
		ret, err := time.Parse("2006-01-02", req.ReturnDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "return_date must be YYYY-MM-DD"})
			return
		}
		input.ReturnDate = &ret
	}
	if req.ExpiresAt != "" {
		expires, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expires_at must be RFC3339"})
			return
		}
		input.ExpiresAt = &expires
	}

	created, err := h.service.CreateAlert(c.Request.Context(), req.UserID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toAlertResponse(created))
}

func (h *AlertHandler) list(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
		return
	}

	found, err := h.service.ListAlerts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]alertResponse, 0, len(found))
	for i := range found {
		out = append(out, toAlertResponse(&found[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *AlertHandler) get(c *gin.Context) {
	found, err := h.service.GetAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAlertResponse(found))
}

func (h *AlertHandler) update(c *gin.Context) {
	var req updateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := alerts.UpdateAlertInput{TargetPrice: req.TargetPrice}
	if req.AlertType != nil {
		alertType := domain.AlertType(*req.AlertType)
		input.AlertType = &alertType
	}
	if req.ExpiresAt != nil {
		expires, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expires_at must be RFC3339"})
			return
		}
		input.ExpiresAt = &expires
	}

	updated, err := h.service.UpdateAlert(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAlertResponse(updated))
}

func (h *AlertHandler) toggle(c *gin.Context) {
	updated, err := h.service.ToggleActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAlertResponse(updated))
}

func (h *AlertHandler) remove(c *gin.Context) {
	if err := h.service.DeleteAlert(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func toAlertResponse(a *domain.PriceAlert) alertResponse {
	resp := alertResponse{
		ID:            a.ID,
		UserID:        a.UserID,
		Origin:        a.Origin,
		Destination:   a.Destination,
		DepartureDate: a.DepartureDate.Format("2006-01-02"),
		TripType:      string(a.TripType),
		TargetPrice:   a.TargetPrice,
		Currency:      a.Currency,
		AlertType:     string(a.AlertType),
		Adults:        a.Adults,
		CurrentPrice:  a.CurrentPrice,
		LastChecked:   a.LastChecked,
		PriceHistory:  a.PriceHistory,
		IsActive:      a.IsActive,
		ExpiresAt:     a.ExpiresAt,
	}
	if a.ReturnDate != nil {
		resp.ReturnDate = a.ReturnDate.Format("2006-01-02")
	}
	return resp
}
