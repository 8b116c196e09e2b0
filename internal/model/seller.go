package model

import (
	"time"
)

// Seller 卖家表（结算相关字段）
// 身份认证由上游网关完成，这里只保存结算需要的信息
type Seller struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                string    `gorm:"type:varchar(128);not null" json:"name"`
	Email               string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	BankAccountName     string    `gorm:"type:varchar(128)" json:"bank_account_name,omitempty"`
	BankAccountNumber   string    `gorm:"type:varchar(64)" json:"bank_account_number,omitempty"`
	BankName            string    `gorm:"type:varchar(128)" json:"bank_name,omitempty"`
	MinimumPayoutAmount float64   `gorm:"not null;default:0" json:"minimum_payout_amount"` // 最低提现金额，0 表示使用系统默认值
	HoldPeriodDays      int       `gorm:"not null;default:0" json:"hold_period_days"`      // 清算期天数，0 表示使用系统默认值
	AutoPayoutEnabled   bool      `gorm:"not null;default:false" json:"auto_payout_enabled"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Seller) TableName() string {
	return "seller"
}

// HasBankAccount 提现前置条件：必须绑定银行账户
func (s *Seller) HasBankAccount() bool {
	return s.BankAccountNumber != ""
}

// EffectiveHoldPeriodDays 卖家清算期，未单独配置时回落到系统默认值
func (s *Seller) EffectiveHoldPeriodDays(defaultDays int) int {
	if s.HoldPeriodDays > 0 {
		return s.HoldPeriodDays
	}
	return defaultDays
}

// EffectiveMinimumPayout 卖家最低提现金额，未单独配置时回落到系统默认值
func (s *Seller) EffectiveMinimumPayout(defaultMinimum float64) float64 {
	if s.MinimumPayoutAmount > 0 {
		return s.MinimumPayoutAmount
	}
	return defaultMinimum
}
