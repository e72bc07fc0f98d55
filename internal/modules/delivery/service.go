package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tractorbooking/internal/domain"
	"tractorbooking/internal/modules/booking"
	"tractorbooking/internal/repository"
)

const DefaultPollInterval = 10 * time.Second

type Service struct {
	mutator      *booking.Mutator
	positions    PositionStore
	estimator    Estimator
	pollInterval time.Duration
	log          logrus.FieldLogger
	now          func() time.Time
}

func NewService(mutator *booking.Mutator, positions PositionStore, estimator Estimator, pollInterval time.Duration, log logrus.FieldLogger) *Service {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Service{
		mutator:      mutator,
		positions:    positions,
		estimator:    estimator,
		pollInterval: pollInterval,
		log:          log,
		now:          time.Now,
	}
}

// Advance moves the delivery one step along NONE, ORDERED, DELIVERING,
// DELIVERED, RETURNED. Reaching DELIVERED delivers a PAID booking.
func (s *Service) Advance(ctx context.Context, id uuid.UUID, actor domain.Actor, next domain.DeliveryStatus) (*domain.Booking, error) {
	b, err := s.mutator.Mutate(ctx, id, func(b *domain.Booking) (*domain.Change, error) {
		if err := booking.Authorize(b, actor, domain.RoleOwner); err != nil {
			return nil, err
		}
		if b.Status == domain.BookingCancelled {
			return nil, fmt.Errorf("%w: delivery on cancelled booking", domain.ErrInvalidTransition)
		}
		want, ok := b.DeliveryStatus.Next()
		if !ok || want != next {
			return nil, fmt.Errorf("%w: delivery %s to %s", domain.ErrInvalidTransition, b.DeliveryStatus, next)
		}

		switch next {
		case domain.DeliveryOrdered:
			if !b.DeliveryVisibleToCustomer() {
				return nil, fmt.Errorf("%w: booking is neither paid nor approved for deferred payment", domain.ErrPreconditionFailed)
			}
		case domain.DeliveryDelivered:
			if b.Status == domain.BookingPaid {
				if err := booking.Apply(b, domain.EventDeliver); err != nil {
					return nil, err
				}
			}
		case domain.DeliveryReturned:
			if b.UsageRunning() {
				return nil, fmt.Errorf("%w: usage is still running", domain.ErrPreconditionFailed)
			}
		}

		from := b.DeliveryStatus
		b.DeliveryStatus = next
		return &domain.Change{
			Event: domain.EventDeliveryAdvanced,
			Actor: actor,
			Note:  fmt.Sprintf("%s -> %s", from, next),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.dropPosition(ctx, b)
	return b, nil
}

// Override sets any delivery status on a non-cancelled booking, skipping the
// sequencing rule. Admin only.
func (s *Service) Override(ctx context.Context, id uuid.UUID, actor domain.Actor, status domain.DeliveryStatus, note string) (*domain.Booking, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: delivery override requires admin", domain.ErrForbidden)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown delivery status %q", domain.ErrValidation, status)
	}

	b, err := s.mutator.Mutate(ctx, id, func(b *domain.Booking) (*domain.Change, error) {
		if b.Status == domain.BookingCancelled {
			return nil, fmt.Errorf("%w: delivery on cancelled booking", domain.ErrInvalidTransition)
		}
		if status == domain.DeliveryDelivered && b.Status == domain.BookingPaid {
			if err := booking.Apply(b, domain.EventDeliver); err != nil {
				return nil, err
			}
		}

		from := b.DeliveryStatus
		b.DeliveryStatus = status
		msg := fmt.Sprintf("%s -> %s", from, status)
		if note = strings.TrimSpace(note); note != "" {
			msg += ": " + note
		}
		return &domain.Change{Event: domain.EventDeliveryOverride, Actor: actor, Note: msg}, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id":      b.ID,
		"delivery_status": b.DeliveryStatus,
		"admin_id":        actor.ID,
	}).Warn("delivery status overridden")
	s.dropPosition(ctx, b)
	return b, nil
}

// ReportPosition stores the owner's live position while the tractor is on its way.
func (s *Service) ReportPosition(ctx context.Context, id uuid.UUID, actor domain.Actor, loc domain.Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	b, err := s.mutator.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := booking.Authorize(b, actor, domain.RoleOwner); err != nil {
		return err
	}
	if b.DeliveryStatus != domain.DeliveryDelivering {
		return fmt.Errorf("%w: position reported while %s", domain.ErrPreconditionFailed, b.DeliveryStatus)
	}
	return s.positions.Save(ctx, id, repository.Position{Location: loc, ReportedAt: s.now().UTC()})
}

// Track builds the tracking projection for viewer. ETA and distance exist only
// while DELIVERING.
func (s *Service) Track(ctx context.Context, id uuid.UUID, viewer domain.Actor) (*TrackingView, error) {
	b, err := s.mutator.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := booking.Authorize(b, viewer, domain.RoleCustomer, domain.RoleOwner); err != nil {
		return nil, err
	}

	view := &TrackingView{
		BookingID:           b.ID,
		BookingStatus:       b.Status,
		DeliveryStatus:      b.DeliveryStatus,
		DeliveryAddress:     b.DeliveryAddress,
		Destination:         b.DeliveryLocation,
		Origin:              b.OriginalLocation,
		PollIntervalSeconds: int(s.pollInterval / time.Second),
	}
	if viewer.Role == domain.RoleCustomer && !b.DeliveryVisibleToCustomer() {
		view.DeliveryStatus = ""
		return view, nil
	}
	if b.DeliveryStatus != domain.DeliveryDelivering {
		return view, nil
	}

	from := b.OriginalLocation
	pos, err := s.positions.Get(ctx, id)
	if err != nil {
		s.log.WithError(err).WithField("booking_id", id).Warn("failed to read live position")
	}
	if pos != nil {
		from = pos.Location
		view.CurrentLocation = &pos.Location
		view.PositionReportedAt = &pos.ReportedAt
	}

	est, err := s.estimator.Estimate(ctx, from, b.DeliveryLocation)
	if err != nil {
		s.log.WithError(err).WithField("booking_id", id).Warn("eta estimate failed")
		return view, nil
	}
	view.EtaMinutes = &est.EtaMinutes
	view.DistanceKm = &est.DistanceKm
	return view, nil
}

func (s *Service) dropPosition(ctx context.Context, b *domain.Booking) {
	if b.DeliveryStatus == domain.DeliveryDelivering {
		return
	}
	if err := s.positions.Delete(ctx, b.ID); err != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).Warn("failed to drop live position")
	}
}
