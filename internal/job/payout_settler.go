package job

import (
	"context"
	"log"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/repository"
	"marketplace/internal/service"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// PayoutSettler 提现结算补偿任务
// 正常情况下由渠道回调触发结算；这里兜底扫描长时间停留在 processing 的
// 提现批次，视为渠道已打款，按成功结算。渠道侧明确失败的批次走回调接口。
type PayoutSettler struct {
	db            *gorm.DB
	earningRepo   *repository.EarningRepository
	payoutService *service.PayoutService
	cfg           *config.Config
	stopCh        chan struct{}
	interval      time.Duration
	batchSize     int
}

func NewPayoutSettler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *PayoutSettler {
	return &PayoutSettler{
		db:            db,
		earningRepo:   repository.NewEarningRepository(db),
		payoutService: service.NewPayoutService(db, redisClient, cfg),
		cfg:           cfg,
		stopCh:        make(chan struct{}),
		interval:      30 * time.Second,
		batchSize:     50,
	}
}

func (j *PayoutSettler) Start(ctx context.Context) {
	log.Println("[PayoutSettler] 提现结算任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[PayoutSettler] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[PayoutSettler] 任务停止")
			return
		case <-ticker.C:
			j.settleDuePayouts(ctx)
		}
	}
}

func (j *PayoutSettler) Stop() {
	close(j.stopCh)
}

func (j *PayoutSettler) settleDuePayouts(ctx context.Context) {
	before := time.Now().Add(-time.Duration(j.cfg.Business.SettleAfterMinutes) * time.Minute)
	payoutIDs, err := j.earningRepo.ListProcessingPayoutIDs(ctx, before, j.batchSize)
	if err != nil {
		log.Printf("[PayoutSettler] 查询待结算批次失败: %v", err)
		return
	}

	if len(payoutIDs) == 0 {
		return
	}

	log.Printf("[PayoutSettler] 发现 %d 个待结算的提现批次", len(payoutIDs))

	for _, payoutID := range payoutIDs {
		if err := j.payoutService.SettlePayout(ctx, payoutID, true, ""); err != nil {
			log.Printf("[PayoutSettler] 结算失败: payoutID=%s, err=%v", payoutID, err)
			continue
		}
		log.Printf("[PayoutSettler] 提现批次已结算: payoutID=%s", payoutID)
	}
}
