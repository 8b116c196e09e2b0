package model

import (
	"time"
)

// 物流/履约状态
const (
	TrackingStatusPending        = "pending"          // 待确认
	TrackingStatusConfirmed      = "confirmed"        // 卖家已确认
	TrackingStatusProcessing     = "processing"       // 备货中
	TrackingStatusShipped        = "shipped"          // 已发货
	TrackingStatusOutForDelivery = "out_for_delivery" // 派送中
	TrackingStatusDelivered      = "delivered"        // 已签收（终态）
	TrackingStatusCanceled       = "canceled"         // 已取消（终态）
)

// ValidTrackingTransitions 履约状态机
// delivered 只能由 shipped / out_for_delivery 到达；
// canceled 可以从任意非终态到达；终态不允许再流转
var ValidTrackingTransitions = map[string][]string{
	TrackingStatusPending:        {TrackingStatusConfirmed, TrackingStatusCanceled},
	TrackingStatusConfirmed:      {TrackingStatusProcessing, TrackingStatusCanceled},
	TrackingStatusProcessing:     {TrackingStatusShipped, TrackingStatusCanceled},
	TrackingStatusShipped:        {TrackingStatusOutForDelivery, TrackingStatusDelivered, TrackingStatusCanceled},
	TrackingStatusOutForDelivery: {TrackingStatusDelivered, TrackingStatusCanceled},
}

// CanTransitionTo 校验履约状态流转是否合法
func CanTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidTrackingTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// IsTerminalTrackingStatus 是否终态
func IsTerminalTrackingStatus(status string) bool {
	return status == TrackingStatusDelivered || status == TrackingStatusCanceled
}

// IsValidTrackingStatus 校验履约状态枚举值
func IsValidTrackingStatus(status string) bool {
	switch status {
	case TrackingStatusPending, TrackingStatusConfirmed, TrackingStatusProcessing,
		TrackingStatusShipped, TrackingStatusOutForDelivery,
		TrackingStatusDelivered, TrackingStatusCanceled:
		return true
	default:
		return false
	}
}

// 支付状态
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// Order 订单表
type Order struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo           string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"` // 订单号（全局唯一）
	BuyerID           int64      `gorm:"index;not null" json:"buyer_id"`
	TotalPrice        float64    `gorm:"not null" json:"total_price"`     // 订单总额 = 商品小计之和 + 平台佣金
	PlatformFee       float64    `gorm:"not null" json:"platform_fee"`    // 平台佣金总额
	SellerEarnings    float64    `gorm:"not null" json:"seller_earnings"` // 卖家净得总额
	ShippingAddress   string     `gorm:"type:varchar(512);not null" json:"shipping_address"`
	PaymentStatus     string     `gorm:"type:varchar(20);not null;default:pending" json:"payment_status"`
	PaymentMethod     string     `gorm:"type:varchar(32)" json:"payment_method"`
	TrackingStatus    string     `gorm:"type:varchar(20);index;not null;default:pending" json:"tracking_status"`
	TrackingNumber    string     `gorm:"type:varchar(64)" json:"tracking_number,omitempty"` // 运单号，发货时写入
	Carrier           string     `gorm:"type:varchar(64)" json:"carrier,omitempty"`         // 承运商，发货时写入
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	CurrentLocation   string     `gorm:"type:varchar(128)" json:"current_location,omitempty"`
	RefundReason      string     `gorm:"type:varchar(256)" json:"refund_reason,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Items         []OrderItem          `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"status_history,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// HasSeller 判断订单中是否包含该卖家的商品（卖家操作订单的归属校验）
func (o *Order) HasSeller(sellerID int64) bool {
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			return true
		}
	}
	return false
}

// ItemsSubtotal 商品小计之和
func (o *Order) ItemsSubtotal() float64 {
	var sum float64
	for _, item := range o.Items {
		sum += item.Subtotal
	}
	return Round2(sum)
}

// SellerItemsTotal 某卖家在订单中的商品金额
func (o *Order) SellerItemsTotal(sellerID int64) float64 {
	var sum float64
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			sum += item.Subtotal
		}
	}
	return Round2(sum)
}

// SellerIDs 订单涉及的卖家ID去重列表（保持 items 中出现的顺序）
func (o *Order) SellerIDs() []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, item := range o.Items {
		if !seen[item.SellerID] {
			seen[item.SellerID] = true
			ids = append(ids, item.SellerID)
		}
	}
	return ids
}

// OrderItem 订单行项目
type OrderItem struct {
	ID        int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64   `gorm:"index;not null" json:"order_id"`
	ProductID int64   `gorm:"index;not null" json:"product_id"`
	SellerID  int64   `gorm:"index;not null" json:"seller_id"`
	Title     string  `gorm:"type:varchar(256);not null" json:"title"` // 商品标题快照
	Price     float64 `gorm:"not null" json:"price"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	Subtotal  float64 `gorm:"not null" json:"subtotal"` // = Price * Quantity
}

func (OrderItem) TableName() string {
	return "order_item"
}

// OrderStatusHistory 履约状态轨迹表
// 只追加，不修改，不删除
type OrderStatusHistory struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64     `gorm:"index;not null" json:"order_id"`
	Status    string    `gorm:"type:varchar(20);not null" json:"status"`
	Location  string    `gorm:"type:varchar(128)" json:"location,omitempty"`
	Note      string    `gorm:"type:varchar(256)" json:"note,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}
