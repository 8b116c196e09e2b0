package model

import (
	"math"
	"time"

	"marketplace/pkg/apperr"
)

// ============================================================================
// 收益记录（卖家分账台账）
// ============================================================================
//
// 每笔订单按卖家维度拆分出一条收益记录，是整个结算系统的核心数据。
//
// 【台账设计原则】
// 1. 金额字段创建后不再修改 —— 保证对账可追溯
// 2. 结算状态只允许单向推进 —— 不允许"反结算"
// 3. 可提现时间在创建时一次性确定，之后永不变更
//
// ============================================================================

// 结算状态
const (
	PayoutStatusPending    = "pending"    // 待结算（含清算期内）
	PayoutStatusProcessing = "processing" // 已分配到某次提现，结算中
	PayoutStatusPaid       = "paid"       // 已打款
	PayoutStatusFailed     = "failed"     // 打款失败
	PayoutStatusOnHold     = "on_hold"    // 冻结（风控/纠纷）
)

// ValidPayoutStatusTransitions 结算状态机
// 状态只能向前推进；on_hold 解冻后回到 pending 是唯一的例外
var ValidPayoutStatusTransitions = map[string][]string{
	PayoutStatusPending:    {PayoutStatusProcessing, PayoutStatusOnHold},
	PayoutStatusProcessing: {PayoutStatusPaid, PayoutStatusFailed},
	PayoutStatusOnHold:     {PayoutStatusPending},
}

// CanTransitionPayoutStatus 校验结算状态流转是否合法
func CanTransitionPayoutStatus(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidPayoutStatusTransitions[currentStatus]
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

// IsValidPayoutStatus 校验结算状态枚举值
func IsValidPayoutStatus(status string) bool {
	switch status {
	case PayoutStatusPending, PayoutStatusProcessing, PayoutStatusPaid,
		PayoutStatusFailed, PayoutStatusOnHold:
		return true
	default:
		return false
	}
}

// EarningRecord 收益记录表
// 一个卖家在一笔订单中的全部商品金额汇总为一条记录
type EarningRecord struct {
	ID                    int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	EarningNo             string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"earning_no"`                           // 收益单号（全局唯一）
	SellerID              int64      `gorm:"index:idx_seller_status;not null" json:"seller_id"`                                 // 卖家ID
	OrderID               int64      `gorm:"index;not null" json:"order_id"`                                                    // 关联订单ID（弱引用，仅用于查询）
	OrderNo               string     `gorm:"type:varchar(64);index;not null" json:"order_no"`                                   // 订单号冗余，便于对账
	TotalAmount           float64    `gorm:"not null" json:"total_amount"`                                                      // 该卖家在订单中的商品总额
	PlatformFeePercentage float64    `gorm:"not null" json:"platform_fee_percentage"`                                           // 平台佣金比例（0-100）
	PlatformFee           float64    `gorm:"not null" json:"platform_fee"`                                                      // 平台佣金 = TotalAmount * 比例 / 100
	SellerAmount          float64    `gorm:"not null" json:"seller_amount"`                                                     // 卖家净得 = TotalAmount - PlatformFee
	PayoutStatus          string     `gorm:"type:varchar(20);index:idx_seller_status;not null;default:pending" json:"payout_status"`
	PayoutID              string     `gorm:"type:varchar(64);index" json:"payout_id,omitempty"`        // 分配到的提现批次ID
	PayoutMethod          string     `gorm:"type:varchar(32)" json:"payout_method,omitempty"`          // 提现方式
	PayoutDate            *time.Time `json:"payout_date,omitempty"`                                    // 打款时间
	PayoutFailureReason   string     `gorm:"type:varchar(256)" json:"payout_failure_reason,omitempty"` // 打款失败原因
	EligibleForPayoutAt   time.Time  `gorm:"index;not null" json:"eligible_for_payout_at"`             // 可提现时间（创建时确定，不再变更）
	CreatedAt             time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (EarningRecord) TableName() string {
	return "earning_record"
}

// IsEligible 是否已过清算期、可参与提现分配
func (e *EarningRecord) IsEligible(now time.Time) bool {
	return e.PayoutStatus == PayoutStatusPending && !e.EligibleForPayoutAt.After(now)
}

// Round2 金额统一保留两位小数
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// NewEarningRecord 构造收益记录
//
// 佣金、净得、可提现时间都在这里一次性算出，入库后不再重算。
// earningNo 由调用方生成（pkg/idgen）。
func NewEarningRecord(earningNo string, sellerID int64, orderID int64, orderNo string,
	totalAmount, feePercentage float64, holdPeriodDays int) (*EarningRecord, error) {

	if feePercentage < 0 || feePercentage > 100 {
		return nil, apperr.NewValidation("平台佣金比例必须在 0-100 之间")
	}
	if totalAmount <= 0 {
		return nil, apperr.NewValidation("收益金额必须大于0")
	}
	if holdPeriodDays < 0 {
		return nil, apperr.NewValidation("清算期天数不能为负数")
	}

	now := time.Now()
	platformFee := Round2(totalAmount * feePercentage / 100)

	return &EarningRecord{
		EarningNo:             earningNo,
		SellerID:              sellerID,
		OrderID:               orderID,
		OrderNo:               orderNo,
		TotalAmount:           Round2(totalAmount),
		PlatformFeePercentage: feePercentage,
		PlatformFee:           platformFee,
		SellerAmount:          Round2(totalAmount - platformFee),
		PayoutStatus:          PayoutStatusPending,
		EligibleForPayoutAt:   now.AddDate(0, 0, holdPeriodDays),
		CreatedAt:             now,
	}, nil
}

// SellerEarningsSummary 卖家收益汇总
type SellerEarningsSummary struct {
	TotalEarnings      float64 `json:"total_earnings"`       // 历史净得总额
	TotalPlatformFees  float64 `json:"total_platform_fees"`  // 历史佣金总额
	TotalOrders        int64   `json:"total_orders"`         // 收益记录数
	AvailableForPayout float64 `json:"available_for_payout"` // 当前可提现金额
	PendingClearing    float64 `json:"pending_clearing"`     // 清算期内金额
	PaidOut            float64 `json:"paid_out"`             // 已打款金额
}
