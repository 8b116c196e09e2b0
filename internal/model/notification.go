package model

import (
	"time"
)

// 通知类型
// 订单类通知统一用 "order_" + 履约状态拼出（见 OrderNotificationType）
const (
	NotificationTypePaymentProcessing = "payment_processing" // 提现进入结算
	NotificationTypePaymentCompleted  = "payment_completed"  // 提现打款成功
	NotificationTypePaymentFailed     = "payment_failed"     // 提现打款失败
)

// OrderNotificationType 履约状态对应的通知类型，如 order_shipped
func OrderNotificationType(trackingStatus string) string {
	return "order_" + trackingStatus
}

// 通知优先级
const (
	NotificationPriorityLow    = "low"
	NotificationPriorityMedium = "medium"
	NotificationPriorityHigh   = "high"
)

// OrderNotificationPriority 发货和签收对买家最重要，优先级提到 high
func OrderNotificationPriority(trackingStatus string) string {
	if trackingStatus == TrackingStatusShipped || trackingStatus == TrackingStatusDelivered {
		return NotificationPriorityHigh
	}
	return NotificationPriorityMedium
}

// Notification 站内通知表
// 发送是 fire-and-forget，没有送达确认和重试语义；
// 过期清理由带 ExpiresAt 的定期任务负责（订单/结算类通知默认不过期）
type Notification struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64      `gorm:"index:idx_user_read;not null" json:"user_id"`
	Type      string     `gorm:"type:varchar(40);index;not null" json:"type"`
	Title     string     `gorm:"type:varchar(128);not null" json:"title"`
	Message   string     `gorm:"type:varchar(512);not null" json:"message"`
	Data      string     `gorm:"type:text" json:"data,omitempty"` // JSON 负载，携带订单号/金额等上下文
	Priority  string     `gorm:"type:varchar(10);not null;default:medium" json:"priority"`
	IsRead    bool       `gorm:"index:idx_user_read;not null;default:false" json:"is_read"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notification"
}
