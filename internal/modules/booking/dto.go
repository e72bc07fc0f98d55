package booking

import (
	"time"

	"tractorbooking/internal/domain"
)

type CreateBookingRequest struct {
	CustomerID       int64                `json:"customer_id" binding:"required,gt=0"`
	OwnerID          int64                `json:"owner_id" binding:"required,gt=0"`
	TractorID        int64                `json:"tractor_id" binding:"required,gt=0"`
	StartAt          time.Time            `json:"start_at" binding:"required"`
	EndAt            time.Time            `json:"end_at" binding:"required"`
	HourlyRate       domain.Money         `json:"hourly_rate" binding:"gte=0,lte=100000000"`
	PaymentMethod    domain.PaymentMethod `json:"payment_method" binding:"omitempty,oneof=ONLINE CASH_ON_DELIVERY"`
	DeliveryAddress  string               `json:"delivery_address" binding:"required,max=500"`
	DeliveryLocation domain.Location      `json:"delivery_location"`
	OriginalLocation domain.Location      `json:"original_location"`
}

type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type ListQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// CancellationResult tells the caller whether a refund workflow was started.
type CancellationResult struct {
	Booking         *domain.Booking `json:"booking"`
	RefundRequested bool            `json:"refund_requested"`
}
