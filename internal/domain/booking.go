package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending         BookingStatus = "PENDING"
	BookingPaid            BookingStatus = "PAID"
	BookingDelivered       BookingStatus = "DELIVERED"
	BookingCompleted       BookingStatus = "COMPLETED"
	BookingCancelled       BookingStatus = "CANCELLED"
	BookingRefundRequested BookingStatus = "REFUND_REQUESTED"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
)

type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "ONLINE"
	// PaymentCashOnDelivery is the deferred-payment method.
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

func (m PaymentMethod) IsDeferred() bool {
	return m == PaymentCashOnDelivery
}

type DeliveryStatus string

const (
	DeliveryNone       DeliveryStatus = "NONE"
	DeliveryOrdered    DeliveryStatus = "ORDERED"
	DeliveryDelivering DeliveryStatus = "DELIVERING"
	DeliveryDelivered  DeliveryStatus = "DELIVERED"
	DeliveryReturned   DeliveryStatus = "RETURNED"
)

var deliveryOrder = map[DeliveryStatus]int{
	DeliveryNone:       0,
	DeliveryOrdered:    1,
	DeliveryDelivering: 2,
	DeliveryDelivered:  3,
	DeliveryReturned:   4,
}

func (s DeliveryStatus) IsValid() bool {
	_, ok := deliveryOrder[s]
	return ok
}

// Next reports the only status an owner may advance to from s.
func (s DeliveryStatus) Next() (DeliveryStatus, bool) {
	switch s {
	case DeliveryNone:
		return DeliveryOrdered, true
	case DeliveryOrdered:
		return DeliveryDelivering, true
	case DeliveryDelivering:
		return DeliveryDelivered, true
	case DeliveryDelivered:
		return DeliveryReturned, true
	default:
		return "", false
	}
}

// Booking is the single shared record all lifecycle components read and write.
type Booking struct {
	ID         uuid.UUID `json:"id"`
	CustomerID int64     `json:"customer_id"`
	OwnerID    int64     `json:"owner_id"`
	TractorID  int64     `json:"tractor_id"`

	Status         BookingStatus  `json:"booking_status"`
	PaymentStatus  PaymentStatus  `json:"payment_status"`
	PaymentMethod  PaymentMethod  `json:"payment_method"`
	OwnerApproved  bool           `json:"owner_approved"`
	DeliveryStatus DeliveryStatus `json:"delivery_status"`

	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	BookedMinutes int64     `json:"booked_minutes"`
	HourlyRate    Money     `json:"hourly_rate"`
	InitialPrice  Money     `json:"initial_price"`

	ActualUsageStartAt *time.Time `json:"actual_usage_start_at,omitempty"`
	ActualUsageStopAt  *time.Time `json:"actual_usage_stop_at,omitempty"`
	ActualUsageMinutes *int64     `json:"actual_usage_minutes,omitempty"`

	FinalPrice    *Money `json:"final_price,omitempty"`
	RefundAmount  Money  `json:"refund_amount"`
	OverageAmount Money  `json:"overage_amount"`

	CommissionAmount *Money     `json:"commission_amount,omitempty"`
	OwnerAmount      *Money     `json:"owner_amount,omitempty"`
	PaymentReleased  bool       `json:"payment_released"`
	ReleasedAt       *time.Time `json:"released_at,omitempty"`

	CancelledAt            *time.Time    `json:"cancelled_at,omitempty"`
	CancelledPaymentStatus PaymentStatus `json:"cancelled_payment_status,omitempty"`
	CancellationReason     string        `json:"cancellation_reason,omitempty"`
	RefundRequestedAt      *time.Time    `json:"refund_requested_at,omitempty"`
	RefundRequestedFrom    BookingStatus `json:"refund_requested_from,omitempty"`

	DeliveryAddress  string   `json:"delivery_address"`
	DeliveryLocation Location `json:"delivery_location"`
	OriginalLocation Location `json:"original_location"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) UsageRunning() bool {
	return b.ActualUsageStartAt != nil && b.ActualUsageStopAt == nil
}

// SettledAmount is the final price once usage stopped, the initial price before.
func (b *Booking) SettledAmount() Money {
	if b.FinalPrice != nil {
		return *b.FinalPrice
	}
	return b.InitialPrice
}

// DeliveryVisibleToCustomer applies the tracking visibility rule.
func (b *Booking) DeliveryVisibleToCustomer() bool {
	switch b.Status {
	case BookingPaid, BookingDelivered, BookingCompleted:
		return true
	}
	return b.PaymentMethod.IsDeferred() && b.OwnerApproved && b.Status != BookingCancelled
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (b *Booking) Clone() *Booking {
	c := *b
	c.ActualUsageStartAt = cloneTime(b.ActualUsageStartAt)
	c.ActualUsageStopAt = cloneTime(b.ActualUsageStopAt)
	c.ReleasedAt = cloneTime(b.ReleasedAt)
	c.CancelledAt = cloneTime(b.CancelledAt)
	c.RefundRequestedAt = cloneTime(b.RefundRequestedAt)
	if b.ActualUsageMinutes != nil {
		v := *b.ActualUsageMinutes
		c.ActualUsageMinutes = &v
	}
	c.FinalPrice = cloneMoney(b.FinalPrice)
	c.CommissionAmount = cloneMoney(b.CommissionAmount)
	c.OwnerAmount = cloneMoney(b.OwnerAmount)
	return &c
}

// Validate checks the record-level invariants. It runs before every commit.
func (b *Booking) Validate() error {
	if b.ActualUsageStopAt != nil {
		if b.ActualUsageStartAt == nil {
			return fmt.Errorf("%w: usage stop without start", ErrValidation)
		}
		if !b.ActualUsageStopAt.After(*b.ActualUsageStartAt) {
			return fmt.Errorf("%w: usage stop not after start", ErrValidation)
		}
	}
	if b.FinalPrice != nil && b.ActualUsageStopAt == nil {
		return fmt.Errorf("%w: final price without usage stop", ErrValidation)
	}
	if b.HourlyRate < 0 || b.InitialPrice < 0 {
		return fmt.Errorf("%w: negative rate or initial price", ErrValidation)
	}
	if b.FinalPrice != nil && *b.FinalPrice < 0 {
		return fmt.Errorf("%w: negative final price", ErrValidation)
	}
	if b.RefundAmount < 0 || b.OverageAmount < 0 {
		return fmt.Errorf("%w: negative refund or overage", ErrValidation)
	}
	if (b.CommissionAmount != nil && *b.CommissionAmount < 0) || (b.OwnerAmount != nil && *b.OwnerAmount < 0) {
		return fmt.Errorf("%w: negative commission split", ErrValidation)
	}
	if (b.CommissionAmount == nil) != (b.OwnerAmount == nil) {
		return fmt.Errorf("%w: partial commission split", ErrValidation)
	}
	if b.CommissionAmount != nil && *b.CommissionAmount+*b.OwnerAmount != b.SettledAmount() {
		return fmt.Errorf("%w: commission split does not balance", ErrValidation)
	}
	if b.PaymentReleased && b.Status != BookingCompleted {
		return fmt.Errorf("%w: payment released on %s booking", ErrValidation, b.Status)
	}
	if !b.DeliveryStatus.IsValid() {
		return fmt.Errorf("%w: unknown delivery status %q", ErrValidation, b.DeliveryStatus)
	}
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneMoney(m *Money) *Money {
	if m == nil {
		return nil
	}
	v := *m
	return &v
}
