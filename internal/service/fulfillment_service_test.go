package service

import (
	"testing"

	"marketplace/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestOrderNotificationContent(t *testing.T) {
	cases := []struct {
		status        string
		wantTitle     string
		wantInMessage string
	}{
		{model.TrackingStatusConfirmed, "订单已确认", "已被卖家确认"},
		{model.TrackingStatusProcessing, "订单备货中", "正在备货"},
		{model.TrackingStatusShipped, "订单已发货", "已发货"},
		{model.TrackingStatusOutForDelivery, "订单派送中", "正在派送"},
		{model.TrackingStatusDelivered, "订单已签收", "已签收"},
		{model.TrackingStatusCanceled, "订单已取消", "已取消"},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			title, message := orderNotificationContent("ORD20240101120000001", tc.status, "")
			assert.Equal(t, tc.wantTitle, title)
			assert.Contains(t, message, "ORD20240101120000001")
			assert.Contains(t, message, tc.wantInMessage)
		})
	}

	t.Run("CancelReasonAppended", func(t *testing.T) {
		_, message := orderNotificationContent("ORD001", model.TrackingStatusCanceled, "超时未支付")
		assert.Contains(t, message, "超时未支付")
	})

	t.Run("UnknownStatusFallback", func(t *testing.T) {
		title, message := orderNotificationContent("ORD001", "on_hold", "")
		assert.Equal(t, "订单状态更新", title)
		assert.Contains(t, message, "on_hold")
	})
}

func TestNormalizePage(t *testing.T) {
	cases := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{1, 20, 1, 20},
		{0, 0, 1, 20},
		{-5, 10, 1, 10},
		{3, 200, 3, 20},
		{2, 100, 2, 100},
	}
	for _, tc := range cases {
		page, limit := normalizePage(tc.page, tc.limit)
		assert.Equal(t, tc.wantPage, page)
		assert.Equal(t, tc.wantLimit, limit)
	}
}
