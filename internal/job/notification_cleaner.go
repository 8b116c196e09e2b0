package job

import (
	"context"
	"log"
	"time"

	"marketplace/internal/service"

	"gorm.io/gorm"
)

// NotificationCleaner 清理已过期的站内通知
type NotificationCleaner struct {
	notificationService *service.NotificationService
	stopCh              chan struct{}
	interval            time.Duration
	batchSize           int
}

func NewNotificationCleaner(db *gorm.DB) *NotificationCleaner {
	return &NotificationCleaner{
		notificationService: service.NewNotificationService(db),
		stopCh:              make(chan struct{}),
		interval:            time.Hour,
		batchSize:           500,
	}
}

func (j *NotificationCleaner) Start(ctx context.Context) {
	log.Println("[NotificationCleaner] 通知清理任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[NotificationCleaner] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[NotificationCleaner] 任务停止")
			return
		case <-ticker.C:
			j.cleanup(ctx)
		}
	}
}

func (j *NotificationCleaner) Stop() {
	close(j.stopCh)
}

func (j *NotificationCleaner) cleanup(ctx context.Context) {
	deleted, err := j.notificationService.CleanupExpired(ctx, j.batchSize)
	if err != nil {
		log.Printf("[NotificationCleaner] 清理过期通知失败: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[NotificationCleaner] 已清理 %d 条过期通知", deleted)
	}
}
