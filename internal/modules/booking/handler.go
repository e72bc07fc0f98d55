package booking

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tractorbooking/internal/middleware"
	"tractorbooking/internal/pkg/response"
	"tractorbooking/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterInternalRoutes serves the reservation and payment collaborators.
func (h *Handler) RegisterInternalRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.CreateBooking)
	rg.POST("/bookings/:id/payment-confirmed", h.ConfirmPayment)
}

func (h *Handler) RegisterCustomerRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings", h.ListBookings)
	rg.GET("/bookings/:id", h.GetBooking)
	rg.GET("/bookings/:id/history", h.History)
	rg.POST("/bookings/:id/cancel", h.RequestCancellation)
	rg.POST("/bookings/:id/refund-request", h.RequestRefund)
}

func (h *Handler) RegisterOwnerRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings", h.ListBookings)
	rg.GET("/bookings/:id", h.GetBooking)
	rg.POST("/bookings/:id/approve", h.ApproveBooking)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings", h.ListBookings)
	rg.GET("/bookings/:id", h.GetBooking)
	rg.GET("/bookings/:id/history", h.History)
}

// ParseBookingID reads the :id path parameter, writing a 400 when it is malformed.
func ParseBookingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON binds the request body, writing a 400 with field details on failure.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if details := validator.Details(err); details != nil {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", details)
			return false
		}
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	return true
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if !BindJSON(c, &req) {
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) ConfirmPayment(c *gin.Context) {
	id, ok := ParseBookingID(c)
	if !ok {
		return
	}

	b, err := h.service.ConfirmPayment(c.Request.Context(), id)
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) ApproveBooking(c *gin.Context) {
	id, ok := ParseBookingID(c)
	if !ok {
		return
	}

	b, err := h.service.ApproveBooking(c.Request.Context(), id, middleware.ActorFromContext(c))
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) RequestCancellation(c *gin.Context) {
	id, ok := ParseBookingID(c)
	if !ok {
		return
	}
	var req ReasonRequest
	if c.Request.ContentLength != 0 && !BindJSON(c, &req) {
		return
	}

	res, err := h.service.RequestCancellation(c.Request.Context(), id, middleware.ActorFromContext(c), req.Reason)
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) RequestRefund(c *gin.Context) {
	id, ok := ParseBookingID(c)
	if !ok {
		return
	}
	var req ReasonRequest
	if c.Request.ContentLength != 0 && !BindJSON(c, &req) {
		return
	}

	b, err := h.service.RequestRefund(c.Request.Context(), id, middleware.ActorFromContext(c), req.Reason)
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := ParseBookingID(c)
	if !ok {
		return
	}

	b, err := h.service.GetBooking(c.Request.Context(), id, middleware.ActorFromContext(c))
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) ListBookings(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	items, err := h.service.ListBookings(c.Request.Context(), middleware.ActorFromContext(c), q)
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": items})
}

func (h *Handler) History(c *gin.Context) {
	id, ok := ParseBookingID(c)
	if !ok {
		return
	}

	evs, err := h.service.History(c.Request.Context(), id, middleware.ActorFromContext(c))
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"events": evs})
}
