package repository

import (
	"context"
	"errors"

	"marketplace/internal/model"

	"gorm.io/gorm"
)

var ErrSellerNotFound = errors.New("卖家不存在")

type SellerRepository struct {
	db *gorm.DB
}

func NewSellerRepository(db *gorm.DB) *SellerRepository {
	return &SellerRepository{db: db}
}

func (r *SellerRepository) GetByID(ctx context.Context, sellerID int64) (*model.Seller, error) {
	var seller model.Seller
	err := r.db.WithContext(ctx).Where("id = ?", sellerID).First(&seller).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSellerNotFound
		}
		return nil, err
	}
	return &seller, nil
}

// ListAutoPayoutEnabled 开启自动提现的卖家（后台任务扫描用）
func (r *SellerRepository) ListAutoPayoutEnabled(ctx context.Context, limit int) ([]*model.Seller, error) {
	var sellers []*model.Seller
	err := r.db.WithContext(ctx).
		Where("auto_payout_enabled = ?", true).
		Limit(limit).
		Find(&sellers).Error
	return sellers, err
}

// UpdatePayoutSettings 更新结算设置
//
// Seller 带 UpdatedAt，gorm 每次更新都会触碰该列，
// 即使其余字段值没变 RowsAffected 也不为 0，可以直接判断存在性
func (r *SellerRepository) UpdatePayoutSettings(ctx context.Context, sellerID int64, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Seller{}).
		Where("id = ?", sellerID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSellerNotFound
	}
	return nil
}
