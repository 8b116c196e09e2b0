package repository

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/model"

	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("通知不存在")

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, tx *gorm.DB, notification *model.Notification) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(notification).Error
}

// ListByUser 用户通知分页，unreadOnly 时只返回未读
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool, page, limit int) ([]*model.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []*model.Notification
	err := query.
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead 标记已读，带 user_id 条件防止越权；重复标记按成功处理（幂等）
//
// MySQL 驱动默认返回"实际变更"而非"命中"的行数，且本表没有会被自动
// 更新的时间列：已读的行重复 SET is_read=1 时 RowsAffected 为 0，
// 不能直接当成不存在，需要再查一次区分
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, userID int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", notificationID, userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// DeleteExpired 批量删除已过期的通知，expires_at 为空的永久保留
func (r *NotificationRepository) DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Limit(limit).
		Delete(&model.Notification{})
	return result.RowsAffected, result.Error
}
