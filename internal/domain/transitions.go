package domain

// TransitionEvent names a booking-level state change.
type TransitionEvent string

const (
	EventConfirmPayment TransitionEvent = "booking.payment_confirmed"
	EventApprove        TransitionEvent = "booking.approved"
	EventCancel         TransitionEvent = "booking.cancelled"
	EventRequestRefund  TransitionEvent = "booking.refund_requested"
	EventDeliver        TransitionEvent = "booking.delivered"
	EventSettle         TransitionEvent = "booking.settled"

	EventDeliveryAdvanced TransitionEvent = "delivery.advanced"
	EventDeliveryOverride TransitionEvent = "delivery.override"
	EventUsageStarted     TransitionEvent = "usage.started"
	EventUsageStopped     TransitionEvent = "usage.stopped"
	EventPayoutReleased   TransitionEvent = "payout.released"
)

type statusTransition struct {
	from []BookingStatus
	to   BookingStatus
}

var bookingTransitions = map[TransitionEvent]statusTransition{
	EventConfirmPayment: {from: []BookingStatus{BookingPending}, to: BookingPaid},
	EventCancel:         {from: []BookingStatus{BookingPending, BookingPaid}, to: BookingCancelled},
	EventDeliver:        {from: []BookingStatus{BookingPaid}, to: BookingDelivered},
	// PENDING settles only for approved deferred-payment bookings; usage
	// start refuses any other pending booking.
	EventSettle:        {from: []BookingStatus{BookingDelivered, BookingRefundRequested, BookingPending}, to: BookingCompleted},
	EventRequestRefund: {from: []BookingStatus{BookingPending, BookingPaid, BookingDelivered}, to: BookingRefundRequested},
}

// Transition returns the status that event leads to from s.
func (s BookingStatus) Transition(event TransitionEvent) (BookingStatus, bool) {
	t, ok := bookingTransitions[event]
	if !ok {
		return "", false
	}
	for _, from := range t.from {
		if from == s {
			return t.to, true
		}
	}
	return "", false
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingPending, BookingPaid, BookingDelivered, BookingCompleted, BookingCancelled, BookingRefundRequested:
		return true
	}
	return false
}
