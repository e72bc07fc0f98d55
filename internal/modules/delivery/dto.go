package delivery

import (
	"time"

	"github.com/google/uuid"

	"tractorbooking/internal/domain"
)

type AdvanceRequest struct {
	Status domain.DeliveryStatus `json:"status" binding:"required,oneof=ORDERED DELIVERING DELIVERED RETURNED"`
}

type OverrideRequest struct {
	Status domain.DeliveryStatus `json:"status" binding:"required,oneof=NONE ORDERED DELIVERING DELIVERED RETURNED"`
	Note   string                `json:"note" binding:"max=500"`
}

type PositionRequest struct {
	Lat float64 `json:"lat" binding:"gte=-90,lte=90"`
	Lng float64 `json:"lng" binding:"gte=-180,lte=180"`
}

// TrackingView is the read projection polled by tracking clients. Every field
// is derived from the booking and the live position; nothing here is stored.
type TrackingView struct {
	BookingID       uuid.UUID             `json:"booking_id"`
	BookingStatus   domain.BookingStatus  `json:"booking_status"`
	DeliveryStatus  domain.DeliveryStatus `json:"delivery_status,omitempty"`
	DeliveryAddress string                `json:"delivery_address"`
	Destination     domain.Location       `json:"destination"`
	Origin          domain.Location       `json:"origin"`

	CurrentLocation    *domain.Location `json:"current_location,omitempty"`
	PositionReportedAt *time.Time       `json:"position_reported_at,omitempty"`
	EtaMinutes         *int             `json:"eta_minutes,omitempty"`
	DistanceKm         *float64         `json:"distance_km,omitempty"`

	PollIntervalSeconds int `json:"poll_interval_seconds"`
}
