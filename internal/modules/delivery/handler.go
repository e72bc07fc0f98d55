package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tractorbooking/internal/domain"
	"tractorbooking/internal/middleware"
	"tractorbooking/internal/modules/booking"
	"tractorbooking/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterCustomerRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings/:id/tracking", h.Track)
}

func (h *Handler) RegisterOwnerRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings/:id/tracking", h.Track)
	rg.POST("/bookings/:id/delivery", h.Advance)
	rg.POST("/bookings/:id/position", h.ReportPosition)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings/:id/tracking", h.Track)
	rg.PUT("/bookings/:id/delivery", h.Override)
}

func (h *Handler) Advance(c *gin.Context) {
	id, ok := booking.ParseBookingID(c)
	if !ok {
		return
	}
	var req AdvanceRequest
	if !booking.BindJSON(c, &req) {
		return
	}

	b, err := h.service.Advance(c.Request.Context(), id, middleware.ActorFromContext(c), req.Status)
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Override(c *gin.Context) {
	id, ok := booking.ParseBookingID(c)
	if !ok {
		return
	}
	var req OverrideRequest
	if !booking.BindJSON(c, &req) {
		return
	}

	b, err := h.service.Override(c.Request.Context(), id, middleware.ActorFromContext(c), req.Status, req.Note)
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) ReportPosition(c *gin.Context) {
	id, ok := booking.ParseBookingID(c)
	if !ok {
		return
	}
	var req PositionRequest
	if !booking.BindJSON(c, &req) {
		return
	}

	loc := domain.Location{Lat: req.Lat, Lng: req.Lng}
	if err := h.service.ReportPosition(c.Request.Context(), id, middleware.ActorFromContext(c), loc); err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"location": loc})
}

func (h *Handler) Track(c *gin.Context) {
	id, ok := booking.ParseBookingID(c)
	if !ok {
		return
	}

	view, err := h.service.Track(c.Request.Context(), id, middleware.ActorFromContext(c))
	if err != nil {
		response.DomainError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	response.Success(c, http.StatusOK, view)
}
