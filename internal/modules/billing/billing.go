// Package billing holds the money rules of a booking: the initial estimate,
// the final usage-based price, the refund and the platform commission split.
// All amounts are domain.Money (minor units) and every rounding is half-up.
package billing

import (
	"fmt"
	"math/big"
	"time"

	"tractorbooking/internal/domain"
)

const (
	DefaultMinBookingMinutes = 30
	// DefaultCommissionBPS is 15% in basis points.
	DefaultCommissionBPS = 1500

	// MaxHourlyRate is 1,000,000.00 per hour. Longer windows than int64 can
	// price at this rate fail with ErrValidation.
	MaxHourlyRate domain.Money = 100_000_000
)

type Policy struct {
	MinBookingMinutes int64
	CommissionBPS     int64
}

func DefaultPolicy() Policy {
	return Policy{
		MinBookingMinutes: DefaultMinBookingMinutes,
		CommissionBPS:     DefaultCommissionBPS,
	}
}

type Engine struct {
	policy Policy
}

func NewEngine(p Policy) *Engine {
	if p.MinBookingMinutes <= 0 {
		p.MinBookingMinutes = DefaultMinBookingMinutes
	}
	if p.CommissionBPS < 0 || p.CommissionBPS > 10000 {
		p.CommissionBPS = DefaultCommissionBPS
	}
	return &Engine{policy: p}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// Quote is the reservation-time estimate.
type Quote struct {
	BookedMinutes int64
	InitialPrice  domain.Money
}

func (e *Engine) Quote(start, end time.Time, hourlyRate domain.Money) (Quote, error) {
	if hourlyRate < 0 {
		return Quote{}, fmt.Errorf("%w: hourly rate must not be negative", domain.ErrValidation)
	}
	if hourlyRate > MaxHourlyRate {
		return Quote{}, fmt.Errorf("%w: hourly rate above %s", domain.ErrValidation, MaxHourlyRate)
	}
	minutes, err := e.BookedMinutes(start, end)
	if err != nil {
		return Quote{}, err
	}
	initial, err := e.InitialPrice(minutes, hourlyRate)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		BookedMinutes: minutes,
		InitialPrice:  initial,
	}, nil
}

// BookedMinutes is the reserved window in whole minutes, floored at the minimum.
func (e *Engine) BookedMinutes(start, end time.Time) (int64, error) {
	if !end.After(start) {
		return 0, fmt.Errorf("%w: end must be after start", domain.ErrValidation)
	}
	return e.billable(CeilMinutes(end.Sub(start))), nil
}

func (e *Engine) InitialPrice(bookedMinutes int64, hourlyRate domain.Money) (domain.Money, error) {
	return e.price(bookedMinutes, hourlyRate)
}

func (e *Engine) FinalPrice(actualUsageMinutes int64, hourlyRate domain.Money) (domain.Money, error) {
	return e.price(actualUsageMinutes, hourlyRate)
}

// Split returns the platform commission and the owner payout of settled.
// The owner amount is derived so both always add up to settled.
func (e *Engine) Split(settled domain.Money) (commission, owner domain.Money) {
	// commission <= settled because CommissionBPS <= 10000, so it always fits.
	c, _ := mulDivHalfUp(int64(settled), e.policy.CommissionBPS, 10000)
	commission = domain.Money(c)
	return commission, settled - commission
}

// Settle records the usage stop on b and computes every stop-time field.
// b is only written once all values are known.
func (e *Engine) Settle(b *domain.Booking, stopAt time.Time) error {
	if b.ActualUsageStartAt == nil || b.ActualUsageStopAt != nil {
		return fmt.Errorf("%w: usage is not running", domain.ErrPreconditionFailed)
	}
	start := *b.ActualUsageStartAt
	if !stopAt.After(start) {
		stopAt = start.Add(time.Second)
	}
	minutes := CeilMinutes(stopAt.Sub(start))
	final, err := e.FinalPrice(minutes, b.HourlyRate)
	if err != nil {
		return err
	}
	refund := Refund(b.InitialPrice, final)
	overage := Overage(b.InitialPrice, final)

	b.ActualUsageStopAt = &stopAt
	b.ActualUsageMinutes = &minutes
	b.FinalPrice = &final
	b.RefundAmount = refund
	b.OverageAmount = overage
	return nil
}

func Refund(initial, final domain.Money) domain.Money {
	if initial > final {
		return initial - final
	}
	return 0
}

// Overage is recorded for audit only; no collection path exists for it.
func Overage(initial, final domain.Money) domain.Money {
	if final > initial {
		return final - initial
	}
	return 0
}

func CeilMinutes(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	m := int64(d / time.Minute)
	if d%time.Minute != 0 {
		m++
	}
	return m
}

func FloorMinutes(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(d / time.Minute)
}

func (e *Engine) billable(minutes int64) int64 {
	if minutes < e.policy.MinBookingMinutes {
		return e.policy.MinBookingMinutes
	}
	return minutes
}

func (e *Engine) price(minutes int64, hourlyRate domain.Money) (domain.Money, error) {
	if hourlyRate < 0 {
		return 0, fmt.Errorf("%w: hourly rate must not be negative", domain.ErrValidation)
	}
	v, ok := mulDivHalfUp(e.billable(minutes), int64(hourlyRate), 60)
	if !ok {
		return 0, fmt.Errorf("%w: price of %d min at %s overflows", domain.ErrValidation, minutes, hourlyRate)
	}
	return domain.Money(v), nil
}

// mulDivHalfUp computes a*b/d rounded half-up, for non-negative a, b and d > 0.
// ok is false when the result does not fit in an int64.
func mulDivHalfUp(a, b, d int64) (int64, bool) {
	n := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	n.Mul(n, big.NewInt(2)).Add(n, big.NewInt(d))
	n.Quo(n, big.NewInt(2*d))
	if !n.IsInt64() {
		return 0, false
	}
	return n.Int64(), true
}
