package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tractorbooking/internal/domain"
)

func TestInitialPrice_FortyFiveMinutes(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	q, err := e.Quote(start, start.Add(45*time.Minute), 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(45), q.BookedMinutes)
	assert.Equal(t, domain.Money(7500), q.InitialPrice)
	assert.Equal(t, "75.00", q.InitialPrice.String())
}

func TestBookedMinutes_FloorAndCeil(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	m, err := e.BookedMinutes(start, start.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(30), m)

	m, err = e.BookedMinutes(start, start.Add(61*time.Minute+time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(62), m)
}

func TestQuote_RejectsReversedWindowAndNegativeRate(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	_, err := e.Quote(start, start, 10000)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = e.Quote(start, start.Add(-time.Hour), 10000)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = e.Quote(start, start.Add(time.Hour), -1)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestSettle_BelowMinimumProducesRefund(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	b := &domain.Booking{
		HourlyRate:         10000,
		InitialPrice:       7500,
		ActualUsageStartAt: &start,
	}

	require.NoError(t, e.Settle(b, start.Add(20*time.Minute)))

	assert.Equal(t, int64(20), *b.ActualUsageMinutes)
	assert.Equal(t, domain.Money(5000), *b.FinalPrice)
	assert.Equal(t, domain.Money(2500), b.RefundAmount)
	assert.Equal(t, domain.Money(0), b.OverageAmount)
	assert.NoError(t, b.Validate())
}

func TestSettle_OverageIsRecordedNotRefunded(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	b := &domain.Booking{
		HourlyRate:         10000,
		InitialPrice:       7500,
		ActualUsageStartAt: &start,
	}

	require.NoError(t, e.Settle(b, start.Add(90*time.Minute+10*time.Second)))

	assert.Equal(t, int64(91), *b.ActualUsageMinutes)
	assert.Equal(t, domain.Money(15167), *b.FinalPrice)
	assert.Equal(t, domain.Money(0), b.RefundAmount)
	assert.Equal(t, domain.Money(7667), b.OverageAmount)
}

func TestSettle_StopAtStartInstantKeepsStopAfterStart(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	b := &domain.Booking{HourlyRate: 6000, InitialPrice: 3000, ActualUsageStartAt: &start}

	require.NoError(t, e.Settle(b, start))

	assert.True(t, b.ActualUsageStopAt.After(start))
	assert.Equal(t, int64(1), *b.ActualUsageMinutes)
	assert.Equal(t, domain.Money(3000), *b.FinalPrice)
}

func TestSettle_RequiresRunningUsage(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	b := &domain.Booking{HourlyRate: 6000}

	err := e.Settle(b, time.Now())
	assert.True(t, errors.Is(err, domain.ErrPreconditionFailed))
	assert.Nil(t, b.FinalPrice)
}

func TestSplit_Thousand(t *testing.T) {
	e := NewEngine(DefaultPolicy())

	commission, owner := e.Split(100000)
	assert.Equal(t, domain.Money(15000), commission)
	assert.Equal(t, domain.Money(85000), owner)
}

func TestSplit_AlwaysBalances(t *testing.T) {
	e := NewEngine(DefaultPolicy())

	for settled := domain.Money(0); settled < 5000; settled += 7 {
		commission, owner := e.Split(settled)
		assert.Equal(t, settled, commission+owner, "settled=%s", settled)
		assert.GreaterOrEqual(t, int64(owner), int64(0))
	}
}

func TestSplit_HalfUp(t *testing.T) {
	e := NewEngine(DefaultPolicy())

	// 0.15 * 0.10 = 0.015 -> 0.02
	commission, owner := e.Split(10)
	assert.Equal(t, domain.Money(2), commission)
	assert.Equal(t, domain.Money(8), owner)

	// 0.15 * 0.03 = 0.0045 -> 0.00
	commission, _ = e.Split(3)
	assert.Equal(t, domain.Money(0), commission)
}

func TestRefundNeverNegative(t *testing.T) {
	assert.Equal(t, domain.Money(0), Refund(100, 250))
	assert.Equal(t, domain.Money(150), Refund(250, 100))
}

func TestSplit_LargeAmountDoesNotOverflow(t *testing.T) {
	e := NewEngine(DefaultPolicy())

	settled := domain.Money(4_000_000_000_000_000)
	commission, owner := e.Split(settled)
	assert.Equal(t, domain.Money(600_000_000_000_000), commission)
	assert.Equal(t, settled, commission+owner)
}

func TestQuote_RejectsRateAboveMaximum(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	_, err := e.Quote(start, start.Add(time.Hour), domain.Money(90_000_000_000_000_000))
	assert.True(t, errors.Is(err, domain.ErrValidation))

	q, err := e.Quote(start, start.Add(time.Hour), MaxHourlyRate)
	require.NoError(t, err)
	assert.Equal(t, MaxHourlyRate, q.InitialPrice)
}

func TestFinalPrice_OverflowIsAnError(t *testing.T) {
	e := NewEngine(DefaultPolicy())

	_, err := e.FinalPrice(10_000_000_000_000, MaxHourlyRate)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	final, err := e.FinalPrice(90, 10000)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(15000), final)
}
