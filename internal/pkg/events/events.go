package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tractorbooking/internal/domain"
)

const (
	TopicRefundRequested = "refund.requested"
	TopicPayoutReleased  = "payout.released"
)

// Message is the payload handed to external collaborators after a commit.
type Message struct {
	Topic         string               `json:"topic"`
	BookingID     uuid.UUID            `json:"booking_id"`
	BookingStatus domain.BookingStatus `json:"booking_status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	// PriorStatus is the booking status before a refund request.
	PriorStatus      domain.BookingStatus `json:"prior_status,omitempty"`
	Amount           *domain.Money        `json:"amount,omitempty"`
	CommissionAmount *domain.Money        `json:"commission_amount,omitempty"`
	OwnerAmount      *domain.Money        `json:"owner_amount,omitempty"`
	Reason           string               `json:"reason,omitempty"`
	OccurredAt       time.Time            `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// LogPublisher writes messages to the log; used when no broker is configured.
type LogPublisher struct {
	log logrus.FieldLogger
}

func NewLogPublisher(log logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, msg Message) error {
	p.log.WithFields(logrus.Fields{
		"topic":          msg.Topic,
		"booking_id":     msg.BookingID,
		"booking_status": msg.BookingStatus,
		"payment_status": msg.PaymentStatus,
	}).Info("booking event")
	return nil
}
