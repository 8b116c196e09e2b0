package service

import (
	"context"
	"errors"
	"testing"

	"marketplace/internal/config"
	"marketplace/internal/model"
	"marketplace/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingRecords(amounts ...float64) []*model.EarningRecord {
	records := make([]*model.EarningRecord, 0, len(amounts))
	for i, amount := range amounts {
		records = append(records, &model.EarningRecord{
			ID:           int64(i + 1),
			SellerAmount: amount,
			PayoutStatus: model.PayoutStatusPending,
		})
	}
	return records
}

func TestPlanAllocation(t *testing.T) {
	t.Run("FIFOPrefixCoversAmount", func(t *testing.T) {
		// 50 + 30 已覆盖 60，第三条 20 不划拨
		records := pendingRecords(50, 30, 20)

		plan, covered, err := planAllocation(records, 60)
		require.NoError(t, err)

		require.Len(t, plan, 2)
		assert.Equal(t, int64(1), plan[0].ID)
		assert.Equal(t, int64(2), plan[1].ID)
		assert.Equal(t, 80.0, covered)
	})

	t.Run("ExactCover", func(t *testing.T) {
		records := pendingRecords(50, 30, 20)

		plan, covered, err := planAllocation(records, 80)
		require.NoError(t, err)
		assert.Len(t, plan, 2)
		assert.Equal(t, 80.0, covered)
	})

	t.Run("SingleRecordEnough", func(t *testing.T) {
		records := pendingRecords(100, 50)

		plan, covered, err := planAllocation(records, 10)
		require.NoError(t, err)
		assert.Len(t, plan, 1)
		assert.Equal(t, 100.0, covered)
	})

	t.Run("AllRecordsNeeded", func(t *testing.T) {
		records := pendingRecords(50, 30, 20)

		plan, covered, err := planAllocation(records, 100)
		require.NoError(t, err)
		assert.Len(t, plan, 3)
		assert.Equal(t, 100.0, covered)
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		records := pendingRecords(50, 30, 20)

		plan, covered, err := planAllocation(records, 100.01)
		require.Error(t, err)

		// 余额不足时不产生任何分配
		assert.Nil(t, plan)
		assert.Equal(t, 0.0, covered)

		var insufficientErr *apperr.InsufficientBalanceError
		require.True(t, errors.As(err, &insufficientErr))
		assert.Equal(t, 100.01, insufficientErr.Requested)
		assert.Equal(t, 100.0, insufficientErr.Available)
		assert.True(t, errors.Is(err, apperr.ErrInsufficientBalance))

		// 错误信息带上可提现余额，前端可以直接展示
		assert.Contains(t, err.Error(), "100.00")
	})

	t.Run("NoRecords", func(t *testing.T) {
		plan, _, err := planAllocation(nil, 10)
		require.Error(t, err)
		assert.Nil(t, plan)
		assert.True(t, errors.Is(err, apperr.ErrInsufficientBalance))
	})

	t.Run("RoundingOnAvailable", func(t *testing.T) {
		// 0.1+0.2 的浮点误差不应导致 0.3 被拒绝
		records := pendingRecords(0.1, 0.2)

		plan, covered, err := planAllocation(records, 0.3)
		require.NoError(t, err)
		assert.Len(t, plan, 2)
		assert.Equal(t, 0.3, covered)
	})
}

func TestSettlementContent(t *testing.T) {
	t.Run("Succeeded", func(t *testing.T) {
		eventType, notificationType, title, message, priority :=
			settlementContent("PYO001", 150.5, true, "")

		assert.Equal(t, model.EventTypePayoutSettled, eventType)
		assert.Equal(t, model.NotificationTypePaymentCompleted, notificationType)
		assert.Equal(t, "提现已到账", title)
		assert.Contains(t, message, "150.50")
		assert.Contains(t, message, "PYO001")
		assert.Equal(t, model.NotificationPriorityHigh, priority)
	})

	t.Run("Failed", func(t *testing.T) {
		eventType, notificationType, title, message, priority :=
			settlementContent("PYO001", 150.5, false, "银行账户无效")

		assert.Equal(t, model.EventTypePayoutFailed, eventType)
		assert.Equal(t, model.NotificationTypePaymentFailed, notificationType)
		assert.Equal(t, "提现失败", title)
		assert.Contains(t, message, "银行账户无效")
		assert.Contains(t, message, "PYO001")
		assert.Equal(t, model.NotificationPriorityHigh, priority)
	})
}

func TestSettlePayoutRequiresFailureReason(t *testing.T) {
	svc := NewPayoutService(nil, nil, &config.Config{})

	// 打款失败回调没带原因：参数校验在任何存储访问之前拦下
	err := svc.SettlePayout(context.Background(), "PYO001", false, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
