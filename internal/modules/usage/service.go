package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tractorbooking/internal/domain"
	"tractorbooking/internal/modules/billing"
	"tractorbooking/internal/modules/booking"
)

// Elapsed is the authoritative usage reading. Minutes is nil before a start.
type Elapsed struct {
	Running   bool       `json:"running"`
	Minutes   *int64     `json:"minutes"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	StoppedAt *time.Time `json:"stopped_at,omitempty"`
}

type Service struct {
	mutator *booking.Mutator
	engine  *billing.Engine
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewService(mutator *booking.Mutator, engine *billing.Engine, log logrus.FieldLogger) *Service {
	return &Service{mutator: mutator, engine: engine, log: log, now: time.Now}
}

// Start begins the usage timer on a delivered booking.
func (s *Service) Start(ctx context.Context, id uuid.UUID, actor domain.Actor) (*domain.Booking, error) {
	now := s.now().UTC()
	return s.mutator.Mutate(ctx, id, func(b *domain.Booking) (*domain.Change, error) {
		if err := booking.Authorize(b, actor, domain.RoleCustomer); err != nil {
			return nil, err
		}
		switch {
		case b.UsageRunning():
			return nil, fmt.Errorf("%w: usage already running", domain.ErrPreconditionFailed)
		case b.ActualUsageStopAt != nil:
			return nil, fmt.Errorf("%w: usage already recorded", domain.ErrPreconditionFailed)
		case b.Status.IsTerminal():
			return nil, fmt.Errorf("%w: booking is %s", domain.ErrPreconditionFailed, b.Status)
		case b.Status == domain.BookingPending && !(b.PaymentMethod.IsDeferred() && b.OwnerApproved):
			return nil, fmt.Errorf("%w: payment not confirmed", domain.ErrPreconditionFailed)
		case b.DeliveryStatus != domain.DeliveryDelivered:
			return nil, fmt.Errorf("%w: delivery is %s", domain.ErrPreconditionFailed, b.DeliveryStatus)
		}

		b.ActualUsageStartAt = &now
		return &domain.Change{Event: domain.EventUsageStarted, Actor: actor}, nil
	})
}

// Stop ends the timer, prices the usage and settles the booking in one commit.
func (s *Service) Stop(ctx context.Context, id uuid.UUID, actor domain.Actor) (*domain.Booking, error) {
	now := s.now().UTC()
	b, err := s.mutator.Mutate(ctx, id, func(b *domain.Booking) (*domain.Change, error) {
		if err := booking.Authorize(b, actor, domain.RoleCustomer); err != nil {
			return nil, err
		}
		if err := s.engine.Settle(b, now); err != nil {
			return nil, err
		}
		if err := booking.Apply(b, domain.EventSettle); err != nil {
			return nil, err
		}
		return &domain.Change{
			Event: domain.EventUsageStopped,
			Actor: actor,
			Note:  fmt.Sprintf("%d min, final %s, refund %s", *b.ActualUsageMinutes, b.FinalPrice, b.RefundAmount),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id":  b.ID,
		"minutes":     *b.ActualUsageMinutes,
		"final_price": b.FinalPrice.String(),
		"refund":      b.RefundAmount.String(),
		"overage":     b.OverageAmount.String(),
	}).Info("usage settled")
	return b, nil
}

func (s *Service) CurrentElapsed(ctx context.Context, id uuid.UUID, actor domain.Actor) (*Elapsed, error) {
	b, err := s.mutator.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := booking.Authorize(b, actor, domain.RoleCustomer, domain.RoleOwner); err != nil {
		return nil, err
	}

	out := &Elapsed{StartedAt: b.ActualUsageStartAt, StoppedAt: b.ActualUsageStopAt}
	switch {
	case b.UsageRunning():
		m := billing.FloorMinutes(s.now().Sub(*b.ActualUsageStartAt))
		out.Running = true
		out.Minutes = &m
	case b.ActualUsageMinutes != nil:
		m := *b.ActualUsageMinutes
		out.Minutes = &m
	}
	return out, nil
}
