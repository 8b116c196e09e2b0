package repository

import (
	"context"
	"errors"

	"marketplace/internal/model"

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound = errors.New("订单不存在")
	// ErrTrackingStatusInvalid 流转不在状态机允许范围内，或条件更新被并发抢先
	ErrTrackingStatusInvalid = errors.New("订单状态不允许该操作")
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create 落库订单及其行项目、初始状态轨迹（gorm 关联一并写入）
func (r *OrderRepository) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(order).Error
}

// GetByOrderNo 按订单号查询，带行项目和状态轨迹
func (r *OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("order_no = ?", orderNo).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// UpdateTrackingStatus 履约状态条件更新
//
// 先过状态机校验，再用 WHERE tracking_status = 当前状态 做 CAS；
// 没有命中说明状态被并发改掉或流转不合法，由调用方回滚
func (r *OrderRepository) UpdateTrackingStatus(ctx context.Context, tx *gorm.DB, orderNo string,
	fromStatus, toStatus string, extra map[string]interface{}) error {

	if !model.CanTransitionTo(fromStatus, toStatus) {
		return ErrTrackingStatusInvalid
	}

	if tx == nil {
		tx = r.db
	}

	updates := map[string]interface{}{
		"tracking_status": toStatus,
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := tx.WithContext(ctx).
		Model(&model.Order{}).
		Where("order_no = ? AND tracking_status = ?", orderNo, fromStatus).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTrackingStatusInvalid
	}
	return nil
}

// AppendStatusHistory 追加状态轨迹，历史记录永不修改
func (r *OrderRepository) AppendStatusHistory(ctx context.Context, tx *gorm.DB, entry *model.OrderStatusHistory) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(entry).Error
}

// ListBySeller 卖家相关订单分页（订单中任意一行属于该卖家即命中）
func (r *OrderRepository) ListBySeller(ctx context.Context, sellerID int64, page, limit int) ([]*model.Order, int64, error) {
	sub := r.db.Model(&model.OrderItem{}).
		Select("DISTINCT order_id").
		Where("seller_id = ?", sellerID)

	query := r.db.WithContext(ctx).Model(&model.Order{}).Where("id IN (?)", sub)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*model.Order
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error

	return orders, total, err
}

// ListByBuyer 买家订单分页
func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID int64, page, limit int) ([]*model.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Order{}).Where("buyer_id = ?", buyerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*model.Order
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error

	return orders, total, err
}
