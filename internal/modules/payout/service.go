// Package payout releases a settled booking's money to its owner exactly once.
package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tractorbooking/internal/domain"
	"tractorbooking/internal/modules/billing"
	"tractorbooking/internal/modules/booking"
	"tractorbooking/internal/pkg/events"
	"tractorbooking/internal/pkg/lock"
)

const releaseLockTTL = 30 * time.Second

type Result struct {
	BookingID        uuid.UUID    `json:"booking_id"`
	SettledAmount    domain.Money `json:"settled_amount"`
	CommissionAmount domain.Money `json:"commission_amount"`
	OwnerAmount      domain.Money `json:"owner_amount"`
	ReleasedAt       time.Time    `json:"released_at"`
}

type Service struct {
	mutator   *booking.Mutator
	locks     lock.Locker
	engine    *billing.Engine
	publisher events.Publisher
	platform  int64
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewService wires the release gate. locks is the cross-instance lock guarding
// disbursement; platformAccountID receives the commission postings.
func NewService(mutator *booking.Mutator, locks lock.Locker, engine *billing.Engine, publisher events.Publisher, platformAccountID int64, log logrus.FieldLogger) *Service {
	if locks == nil {
		locks = lock.NewKeyed()
	}
	return &Service{
		mutator:   mutator,
		locks:     locks,
		engine:    engine,
		publisher: publisher,
		platform:  platformAccountID,
		log:       log,
		now:       time.Now,
	}
}

func releaseKey(id uuid.UUID) string {
	return "release:" + id.String()
}

// Release splits the settled amount of a COMPLETED booking, marks it released
// and credits the owner and platform wallets in one commit.
func (s *Service) Release(ctx context.Context, id uuid.UUID, actor domain.Actor) (*Result, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: payout release requires admin", domain.ErrForbidden)
	}

	unlock, err := s.locks.Acquire(ctx, releaseKey(id), releaseLockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, fmt.Errorf("%w: release of %s already in progress", domain.ErrConflict, id)
	}
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now().UTC()
	b, err := s.mutator.Mutate(ctx, id, func(b *domain.Booking) (*domain.Change, error) {
		if b.PaymentReleased {
			return nil, fmt.Errorf("%w: booking %s", domain.ErrAlreadyReleased, b.ID)
		}
		if b.Status != domain.BookingCompleted {
			return nil, fmt.Errorf("%w: booking is %s", domain.ErrNotSettled, b.Status)
		}
		if b.PaymentStatus != domain.PaymentPaid {
			return nil, fmt.Errorf("%w: payment not collected", domain.ErrNotSettled)
		}

		settled := b.SettledAmount()
		commission, ownerAmount := s.engine.Split(settled)
		b.CommissionAmount = &commission
		b.OwnerAmount = &ownerAmount
		b.PaymentReleased = true
		b.ReleasedAt = &now

		return &domain.Change{
			Event: domain.EventPayoutReleased,
			Actor: actor,
			Note:  fmt.Sprintf("settled %s, commission %s, owner %s", settled, commission, ownerAmount),
			Postings: []domain.Posting{
				{AccountID: b.OwnerID, Type: domain.EntryPayout, Amount: ownerAmount},
				{AccountID: s.platform, Type: domain.EntryCommission, Amount: commission},
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		BookingID:        b.ID,
		SettledAmount:    b.SettledAmount(),
		CommissionAmount: *b.CommissionAmount,
		OwnerAmount:      *b.OwnerAmount,
		ReleasedAt:       now,
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"owner_id":   b.OwnerID,
		"commission": res.CommissionAmount.String(),
		"owner":      res.OwnerAmount.String(),
	}).Info("payout released")

	if s.publisher != nil {
		msg := events.Message{
			Topic:            events.TopicPayoutReleased,
			BookingID:        b.ID,
			BookingStatus:    b.Status,
			PaymentStatus:    b.PaymentStatus,
			Amount:           &res.SettledAmount,
			CommissionAmount: &res.CommissionAmount,
			OwnerAmount:      &res.OwnerAmount,
			OccurredAt:       now,
		}
		if err := s.publisher.Publish(ctx, msg); err != nil {
			s.log.WithError(err).WithField("booking_id", b.ID).Warn("failed to publish payout event")
		}
	}
	return res, nil
}
