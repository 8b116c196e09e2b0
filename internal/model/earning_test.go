package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEarningRecord(t *testing.T) {
	t.Run("FeeInvariant", func(t *testing.T) {
		record, err := NewEarningRecord("ERN001", 1, 100, "ORD001", 250.0, 10, 7)
		require.NoError(t, err)

		assert.Equal(t, 250.0, record.TotalAmount)
		assert.Equal(t, 25.0, record.PlatformFee)
		assert.Equal(t, 225.0, record.SellerAmount)
		// 佣金 + 净得 = 总额，四舍五入后误差不放大
		assert.InDelta(t, record.TotalAmount, record.PlatformFee+record.SellerAmount, 1e-9)
	})

	t.Run("FeeInvariantWithRounding", func(t *testing.T) {
		// 除不尽的比例下各字段仍保留两位小数
		record, err := NewEarningRecord("ERN002", 1, 100, "ORD001", 99.99, 15, 7)
		require.NoError(t, err)

		assert.Equal(t, 15.0, record.PlatformFeePercentage)
		assert.Equal(t, Round2(record.PlatformFee), record.PlatformFee)
		assert.Equal(t, Round2(record.SellerAmount), record.SellerAmount)
		assert.InDelta(t, record.TotalAmount, record.PlatformFee+record.SellerAmount, 0.011)
	})

	t.Run("EligibilityComputedOnce", func(t *testing.T) {
		before := time.Now()
		record, err := NewEarningRecord("ERN003", 1, 100, "ORD001", 100.0, 10, 7)
		require.NoError(t, err)
		after := time.Now()

		// 可提现时间 = 创建时间 + 清算期，只在构造时算一次
		assert.False(t, record.EligibleForPayoutAt.Before(before.AddDate(0, 0, 7)))
		assert.False(t, record.EligibleForPayoutAt.After(after.AddDate(0, 0, 7)))

		assert.False(t, record.IsEligible(time.Now()))
		assert.True(t, record.IsEligible(time.Now().AddDate(0, 0, 8)))
	})

	t.Run("ZeroHoldPeriodImmediatelyEligible", func(t *testing.T) {
		record, err := NewEarningRecord("ERN004", 1, 100, "ORD001", 100.0, 10, 0)
		require.NoError(t, err)
		assert.True(t, record.IsEligible(time.Now()))
	})

	t.Run("InitialStatusPending", func(t *testing.T) {
		record, err := NewEarningRecord("ERN005", 1, 100, "ORD001", 100.0, 10, 7)
		require.NoError(t, err)
		assert.Equal(t, PayoutStatusPending, record.PayoutStatus)
		assert.Empty(t, record.PayoutID)
	})

	t.Run("Validation", func(t *testing.T) {
		cases := []struct {
			name     string
			amount   float64
			feePct   float64
			holdDays int
		}{
			{"NegativeFee", 100, -1, 7},
			{"FeeOver100", 100, 101, 7},
			{"ZeroAmount", 0, 10, 7},
			{"NegativeAmount", -50, 10, 7},
			{"NegativeHoldDays", 100, 10, -1},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewEarningRecord("ERN", 1, 100, "ORD", tc.amount, tc.feePct, tc.holdDays)
				assert.Error(t, err)
			})
		}
	})
}

func TestPayoutStatusTransitions(t *testing.T) {
	t.Run("AllowedTransitions", func(t *testing.T) {
		assert.True(t, CanTransitionPayoutStatus(PayoutStatusPending, PayoutStatusProcessing))
		assert.True(t, CanTransitionPayoutStatus(PayoutStatusPending, PayoutStatusOnHold))
		assert.True(t, CanTransitionPayoutStatus(PayoutStatusProcessing, PayoutStatusPaid))
		assert.True(t, CanTransitionPayoutStatus(PayoutStatusProcessing, PayoutStatusFailed))
		assert.True(t, CanTransitionPayoutStatus(PayoutStatusOnHold, PayoutStatusPending))
	})

	t.Run("ForbiddenTransitions", func(t *testing.T) {
		// 不允许"反结算"
		assert.False(t, CanTransitionPayoutStatus(PayoutStatusPaid, PayoutStatusPending))
		assert.False(t, CanTransitionPayoutStatus(PayoutStatusPaid, PayoutStatusProcessing))
		assert.False(t, CanTransitionPayoutStatus(PayoutStatusFailed, PayoutStatusPaid))
		assert.False(t, CanTransitionPayoutStatus(PayoutStatusPending, PayoutStatusPaid))
		assert.False(t, CanTransitionPayoutStatus(PayoutStatusPending, PayoutStatusPending))
	})
}

func TestIsValidPayoutStatus(t *testing.T) {
	for _, status := range []string{
		PayoutStatusPending, PayoutStatusProcessing, PayoutStatusPaid,
		PayoutStatusFailed, PayoutStatusOnHold,
	} {
		assert.True(t, IsValidPayoutStatus(status), status)
	}
	assert.False(t, IsValidPayoutStatus("refunded"))
	assert.False(t, IsValidPayoutStatus(""))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.56, Round2(10.555))
	assert.Equal(t, 10.55, Round2(10.554))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, 100.0, Round2(100.0000001))
	assert.False(t, math.Signbit(Round2(0.001)))
}
