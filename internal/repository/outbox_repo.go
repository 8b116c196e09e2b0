package repository

import (
	"context"

	"marketplace/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Enqueue 在业务事务内写入待投递事件
func (r *OutboxRepository) Enqueue(ctx context.Context, tx *gorm.DB, msg *model.OutboxMessage) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(msg).Error
}

func (r *OutboxRepository) GetPendingMessages(ctx context.Context, limit int) ([]*model.OutboxMessage, error) {
	var messages []*model.OutboxMessage
	err := r.db.WithContext(ctx).
		Where("status = ?", model.OutboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Update("status", model.OutboxStatusSent).Error
}

// MarkSendFailure 投递失败：重试次数 +1，达到上限后整条标记为 FAILED
func (r *OutboxRepository) MarkSendFailure(ctx context.Context, id int64, maxRetryCount int) (failed bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msg model.OutboxMessage
		if err := tx.Where("id = ?", id).First(&msg).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"retry_count": gorm.Expr("retry_count + 1"),
		}
		if msg.RetryCount+1 >= maxRetryCount {
			updates["status"] = model.OutboxStatusFailed
			failed = true
		}

		return tx.Model(&model.OutboxMessage{}).Where("id = ?", id).Updates(updates).Error
	})
	return failed, err
}

// GetFailedMessages 超过重试上限的消息，供人工排查或重投
func (r *OutboxRepository) GetFailedMessages(ctx context.Context, limit int) ([]*model.OutboxMessage, error) {
	var messages []*model.OutboxMessage
	err := r.db.WithContext(ctx).
		Where("status = ?", model.OutboxStatusFailed).
		Order("created_at ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}
