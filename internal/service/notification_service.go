package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/pkg/apperr"

	"gorm.io/gorm"
)

// NotificationService 站内通知
// 发送是 fire-and-forget：没有送达确认，失败只记日志不重试
type NotificationService struct {
	db               *gorm.DB
	notificationRepo *repository.NotificationRepository
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		db:               db,
		notificationRepo: repository.NewNotificationRepository(db),
	}
}

// Create 写入一条通知，tx 不为空时挂到调用方事务里
// data 会序列化成 JSON 负载，携带订单号/金额等上下文
func (s *NotificationService) Create(ctx context.Context, tx *gorm.DB, userID int64,
	notificationType, title, message string, data map[string]interface{}, priority string) error {

	payload := ""
	if len(data) > 0 {
		bytes, err := json.Marshal(data)
		if err != nil {
			log.Printf("通知负载序列化失败: type=%s, err=%v", notificationType, err)
		} else {
			payload = string(bytes)
		}
	}

	if priority == "" {
		priority = model.NotificationPriorityMedium
	}

	notification := &model.Notification{
		UserID:   userID,
		Type:     notificationType,
		Title:    title,
		Message:  message,
		Data:     payload,
		Priority: priority,
	}

	return s.notificationRepo.Create(ctx, tx, notification)
}

// ListForUser 用户通知分页
func (s *NotificationService) ListForUser(ctx context.Context, userID int64, unreadOnly bool, page, limit int) ([]*model.Notification, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.notificationRepo.ListByUser(ctx, userID, unreadOnly, page, limit)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID int64) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID int64) error {
	err := s.notificationRepo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return apperr.NewNotFound("通知不存在")
		}
		return err
	}
	return nil
}

// CleanupExpired 清理过期通知，后台任务定期调用
func (s *NotificationService) CleanupExpired(ctx context.Context, batchSize int) (int64, error) {
	return s.notificationRepo.DeleteExpired(ctx, time.Now(), batchSize)
}

// normalizePage 分页参数兜底
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
