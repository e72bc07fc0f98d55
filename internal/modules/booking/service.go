package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tractorbooking/internal/domain"
	"tractorbooking/internal/modules/billing"
	"tractorbooking/internal/pkg/events"
	"tractorbooking/internal/pkg/validator"
	"tractorbooking/internal/repository"
)

type Service struct {
	bookings  BookingStore
	mutator   *Mutator
	engine    *billing.Engine
	publisher events.Publisher
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewService(bookings BookingStore, mutator *Mutator, engine *billing.Engine, publisher events.Publisher, log logrus.FieldLogger) *Service {
	return &Service{
		bookings:  bookings,
		mutator:   mutator,
		engine:    engine,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	// Same tags as the HTTP binding, for callers that skip the handler.
	if details := validator.Validate(req); details != nil {
		return nil, fmt.Errorf("%w: invalid fields %v", domain.ErrValidation, details)
	}
	method := req.PaymentMethod
	if method == "" {
		method = domain.PaymentOnline
	}
	address := strings.TrimSpace(req.DeliveryAddress)
	if address == "" {
		return nil, fmt.Errorf("%w: delivery address is required", domain.ErrValidation)
	}
	if err := req.DeliveryLocation.Validate(); err != nil {
		return nil, err
	}
	if err := req.OriginalLocation.Validate(); err != nil {
		return nil, err
	}

	q, err := s.engine.Quote(req.StartAt, req.EndAt, req.HourlyRate)
	if err != nil {
		return nil, err
	}

	b := &domain.Booking{
		CustomerID:       req.CustomerID,
		OwnerID:          req.OwnerID,
		TractorID:        req.TractorID,
		Status:           domain.BookingPending,
		PaymentStatus:    domain.PaymentUnpaid,
		PaymentMethod:    method,
		DeliveryStatus:   domain.DeliveryNone,
		StartAt:          req.StartAt.UTC(),
		EndAt:            req.EndAt.UTC(),
		BookedMinutes:    q.BookedMinutes,
		HourlyRate:       req.HourlyRate,
		InitialPrice:     q.InitialPrice,
		DeliveryAddress:  address,
		DeliveryLocation: req.DeliveryLocation,
		OriginalLocation: req.OriginalLocation,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id":    b.ID,
		"customer_id":   b.CustomerID,
		"initial_price": b.InitialPrice.String(),
	}).Info("booking created")
	return b, nil
}

// ConfirmPayment records the payment collaborator's confirmation.
func (s *Service) ConfirmPayment(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return s.mutator.Mutate(ctx, id, func(b *domain.Booking) (*domain.Change, error) {
		if b.PaymentStatus == domain.PaymentPaid {
			return nil, fmt.Errorf("%w: payment already confirmed", domain.ErrInvalidTransition)
		}
		change := &domain.Change{Event: domain.EventConfirmPayment, Actor: domain.SystemActor()}

		// Cash handed over after the usage already settled the booking.
		if b.Status == domain.BookingCompleted && b.PaymentMethod.IsDeferred() {
			b.PaymentStatus = domain.PaymentPaid
			change.Note = "payment collected after settlement"
			return change, nil
		}

		if err := Apply(b, domain.EventConfirmPayment); err != nil {
			return nil, err
		}
		b.PaymentStatus = domain.PaymentPaid

		if b.DeliveryStatus == domain.DeliveryDelivered || b.DeliveryStatus == domain.DeliveryReturned {
			if err := Apply(b, domain.EventDeliver); err != nil {
				return nil, err
			}
			change.Note = "delivery already completed"
		}
		return change, nil
	})
}

func (s *Service) ApproveBooking(ctx context.Context, id uuid.UUID, actor domain.Actor) (*domain.Booking, error) {
	return s.mutator.Mutate(ctx, id, func(b *domain.Booking) (*domain.Change, error) {
		if err := Authorize(b, actor, domain.RoleOwner); err != nil {
			return nil, err
		}
		if b.Status != domain.BookingPending || b.OwnerApproved {
			return nil, InvalidTransition(domain.EventApprove, b.Status)
		}
		b.OwnerApproved = true
		return &domain.Change{Event: domain.EventApprove, Actor: actor}, nil
	})
}

// RequestCancellation cancels a PENDING or PAID booking. A refund workflow is
// requested only when the booking had been paid.
func (s *Service) RequestCancellation(ctx context.Context, id uuid.UUID, actor domain.Actor, reason string) (*CancellationResult, error) {
	now := s.now().UTC()
	b, err := s.mutator.Mutate(ctx, id, func(b *domain.Booking) (*domain.Change, error) {
		if err := Authorize(b, actor, domain.RoleCustomer); err != nil {
			return nil, err
		}
		if b.UsageRunning() {
			return nil, fmt.Errorf("%w: usage is running, stop it first", domain.ErrPreconditionFailed)
		}
		if err := Apply(b, domain.EventCancel); err != nil {
			return nil, err
		}
		b.CancelledAt = &now
		b.CancelledPaymentStatus = b.PaymentStatus
		b.CancellationReason = strings.TrimSpace(reason)
		return &domain.Change{Event: domain.EventCancel, Actor: actor, Note: b.CancellationReason}, nil
	})
	if err != nil {
		return nil, err
	}

	res := &CancellationResult{Booking: b, RefundRequested: b.CancelledPaymentStatus == domain.PaymentPaid}
	if res.RefundRequested {
		amount := b.SettledAmount()
		s.publish(ctx, events.Message{
			Topic:         events.TopicRefundRequested,
			BookingID:     b.ID,
			BookingStatus: b.Status,
			PaymentStatus: b.PaymentStatus,
			PriorStatus:   domain.BookingPaid,
			Amount:        &amount,
			Reason:        b.CancellationReason,
			OccurredAt:    now,
		})
	}
	return res, nil
}

// RequestRefund moves a non-terminal booking to REFUND_REQUESTED without cancelling it.
func (s *Service) RequestRefund(ctx context.Context, id uuid.UUID, actor domain.Actor, reason string) (*domain.Booking, error) {
	now := s.now().UTC()
	b, err := s.mutator.Mutate(ctx, id, func(b *domain.Booking) (*domain.Change, error) {
		if err := Authorize(b, actor, domain.RoleCustomer); err != nil {
			return nil, err
		}
		prior := b.Status
		if err := Apply(b, domain.EventRequestRefund); err != nil {
			return nil, err
		}
		b.RefundRequestedAt = &now
		b.RefundRequestedFrom = prior
		return &domain.Change{Event: domain.EventRequestRefund, Actor: actor, Note: strings.TrimSpace(reason)}, nil
	})
	if err != nil {
		return nil, err
	}

	amount := b.SettledAmount()
	s.publish(ctx, events.Message{
		Topic:         events.TopicRefundRequested,
		BookingID:     b.ID,
		BookingStatus: b.Status,
		PaymentStatus: b.PaymentStatus,
		PriorStatus:   b.RefundRequestedFrom,
		Amount:        &amount,
		Reason:        strings.TrimSpace(reason),
		OccurredAt:    now,
	})
	return b, nil
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID, actor domain.Actor) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(b, actor, domain.RoleCustomer, domain.RoleOwner); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBookings returns the actor's own bookings; admins see everything.
func (s *Service) ListBookings(ctx context.Context, actor domain.Actor, q ListQuery) ([]domain.Booking, error) {
	f := repository.ListFilter{Limit: q.Limit, Offset: q.Offset}
	if q.Status != "" {
		st := domain.BookingStatus(strings.ToUpper(q.Status))
		if !st.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, q.Status)
		}
		f.Status = st
	}

	switch actor.Role {
	case domain.RoleCustomer:
		f.CustomerID = actor.ID
	case domain.RoleOwner:
		f.OwnerID = actor.ID
	default:
		if !actor.IsAdmin() {
			return nil, domain.ErrForbidden
		}
	}
	return s.bookings.List(ctx, f)
}

// History returns the audit trail of a booking.
func (s *Service) History(ctx context.Context, id uuid.UUID, actor domain.Actor) ([]domain.BookingEvent, error) {
	if _, err := s.GetBooking(ctx, id, actor); err != nil {
		return nil, err
	}
	return s.bookings.ListEvents(ctx, id)
}

func (s *Service) publish(ctx context.Context, msg events.Message) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"topic":      msg.Topic,
			"booking_id": msg.BookingID,
		}).Warn("failed to publish booking event")
	}
}
