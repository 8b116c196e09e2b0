package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	t.Run("HappyPath", func(t *testing.T) {
		// pending -> confirmed -> processing -> shipped -> out_for_delivery -> delivered
		assert.True(t, CanTransitionTo(TrackingStatusPending, TrackingStatusConfirmed))
		assert.True(t, CanTransitionTo(TrackingStatusConfirmed, TrackingStatusProcessing))
		assert.True(t, CanTransitionTo(TrackingStatusProcessing, TrackingStatusShipped))
		assert.True(t, CanTransitionTo(TrackingStatusShipped, TrackingStatusOutForDelivery))
		assert.True(t, CanTransitionTo(TrackingStatusOutForDelivery, TrackingStatusDelivered))
	})

	t.Run("SkipOutForDelivery", func(t *testing.T) {
		// 部分承运商没有派送中状态，允许发货后直接签收
		assert.True(t, CanTransitionTo(TrackingStatusShipped, TrackingStatusDelivered))
	})

	t.Run("CancelFromAnyNonTerminal", func(t *testing.T) {
		for _, status := range []string{
			TrackingStatusPending, TrackingStatusConfirmed, TrackingStatusProcessing,
			TrackingStatusShipped, TrackingStatusOutForDelivery,
		} {
			assert.True(t, CanTransitionTo(status, TrackingStatusCanceled), status)
		}
	})

	t.Run("NoBackwardTransitions", func(t *testing.T) {
		assert.False(t, CanTransitionTo(TrackingStatusShipped, TrackingStatusProcessing))
		assert.False(t, CanTransitionTo(TrackingStatusConfirmed, TrackingStatusPending))
		assert.False(t, CanTransitionTo(TrackingStatusDelivered, TrackingStatusShipped))
	})

	t.Run("NoSkipForward", func(t *testing.T) {
		assert.False(t, CanTransitionTo(TrackingStatusPending, TrackingStatusShipped))
		assert.False(t, CanTransitionTo(TrackingStatusPending, TrackingStatusDelivered))
		assert.False(t, CanTransitionTo(TrackingStatusConfirmed, TrackingStatusShipped))
	})

	t.Run("TerminalStatesHaveNoExit", func(t *testing.T) {
		for _, target := range []string{
			TrackingStatusPending, TrackingStatusConfirmed, TrackingStatusProcessing,
			TrackingStatusShipped, TrackingStatusOutForDelivery, TrackingStatusCanceled,
		} {
			assert.False(t, CanTransitionTo(TrackingStatusDelivered, target), target)
			assert.False(t, CanTransitionTo(TrackingStatusCanceled, target), target)
		}
	})

	t.Run("SelfLoopRejected", func(t *testing.T) {
		assert.False(t, CanTransitionTo(TrackingStatusShipped, TrackingStatusShipped))
	})
}

func TestIsTerminalTrackingStatus(t *testing.T) {
	assert.True(t, IsTerminalTrackingStatus(TrackingStatusDelivered))
	assert.True(t, IsTerminalTrackingStatus(TrackingStatusCanceled))
	assert.False(t, IsTerminalTrackingStatus(TrackingStatusPending))
	assert.False(t, IsTerminalTrackingStatus(TrackingStatusShipped))
}

func TestOrderSellerHelpers(t *testing.T) {
	order := &Order{
		Items: []OrderItem{
			{SellerID: 1, Price: 20, Quantity: 2, Subtotal: 40},
			{SellerID: 2, Price: 15, Quantity: 1, Subtotal: 15},
			{SellerID: 1, Price: 5, Quantity: 1, Subtotal: 5},
		},
	}

	t.Run("HasSeller", func(t *testing.T) {
		assert.True(t, order.HasSeller(1))
		assert.True(t, order.HasSeller(2))
		assert.False(t, order.HasSeller(3))
	})

	t.Run("ItemsSubtotal", func(t *testing.T) {
		assert.Equal(t, 60.0, order.ItemsSubtotal())
	})

	t.Run("SellerItemsTotal", func(t *testing.T) {
		assert.Equal(t, 45.0, order.SellerItemsTotal(1))
		assert.Equal(t, 15.0, order.SellerItemsTotal(2))
		assert.Equal(t, 0.0, order.SellerItemsTotal(3))
	})

	t.Run("SellerIDsDedupPreservesOrder", func(t *testing.T) {
		assert.Equal(t, []int64{1, 2}, order.SellerIDs())
	})
}

func TestOrderNotification(t *testing.T) {
	t.Run("Type", func(t *testing.T) {
		assert.Equal(t, "order_shipped", OrderNotificationType(TrackingStatusShipped))
		assert.Equal(t, "order_delivered", OrderNotificationType(TrackingStatusDelivered))
	})

	t.Run("Priority", func(t *testing.T) {
		assert.Equal(t, NotificationPriorityHigh, OrderNotificationPriority(TrackingStatusShipped))
		assert.Equal(t, NotificationPriorityHigh, OrderNotificationPriority(TrackingStatusDelivered))
		assert.Equal(t, NotificationPriorityMedium, OrderNotificationPriority(TrackingStatusConfirmed))
		assert.Equal(t, NotificationPriorityMedium, OrderNotificationPriority(TrackingStatusProcessing))
	})
}
