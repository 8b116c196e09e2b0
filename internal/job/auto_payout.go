package job

import (
	"context"
	"errors"
	"log"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/repository"
	"marketplace/internal/service"
	"marketplace/pkg/apperr"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// AutoPayoutJob 自动提现任务
// 对开启自动提现的卖家，可提现余额达到起付金额时自动发起银行转账提现
type AutoPayoutJob struct {
	db            *gorm.DB
	sellerRepo    *repository.SellerRepository
	earningRepo   *repository.EarningRepository
	payoutService *service.PayoutService
	cfg           *config.Config
	stopCh        chan struct{}
	interval      time.Duration
	batchSize     int
}

func NewAutoPayoutJob(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *AutoPayoutJob {
	return &AutoPayoutJob{
		db:            db,
		sellerRepo:    repository.NewSellerRepository(db),
		earningRepo:   repository.NewEarningRepository(db),
		payoutService: service.NewPayoutService(db, redisClient, cfg),
		cfg:           cfg,
		stopCh:        make(chan struct{}),
		interval:      10 * time.Minute,
		batchSize:     100,
	}
}

func (j *AutoPayoutJob) Start(ctx context.Context) {
	log.Println("[AutoPayoutJob] 自动提现任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[AutoPayoutJob] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[AutoPayoutJob] 任务停止")
			return
		case <-ticker.C:
			j.runAutoPayouts(ctx)
		}
	}
}

func (j *AutoPayoutJob) Stop() {
	close(j.stopCh)
}

func (j *AutoPayoutJob) runAutoPayouts(ctx context.Context) {
	sellers, err := j.sellerRepo.ListAutoPayoutEnabled(ctx, j.batchSize)
	if err != nil {
		log.Printf("[AutoPayoutJob] 查询自动提现卖家失败: %v", err)
		return
	}

	now := time.Now()
	for _, seller := range sellers {
		available, err := j.earningRepo.SumAvailable(ctx, seller.ID, now)
		if err != nil {
			log.Printf("[AutoPayoutJob] 查询可提现余额失败: sellerID=%d, err=%v", seller.ID, err)
			continue
		}

		minimum := seller.EffectiveMinimumPayout(j.cfg.Business.MinimumPayoutAmount)
		if available < minimum {
			continue
		}

		result, err := j.payoutService.RequestPayout(ctx, seller.ID, available, "bank_transfer")
		if err != nil {
			// 与在线请求并发时余额可能已被划走，不算异常
			if errors.Is(err, apperr.ErrInsufficientBalance) {
				continue
			}
			log.Printf("[AutoPayoutJob] 自动提现失败: sellerID=%d, amount=%.2f, err=%v",
				seller.ID, available, err)
			continue
		}

		log.Printf("[AutoPayoutJob] 自动提现已受理: sellerID=%d, payoutID=%s, amount=%.2f",
			seller.ID, result.PayoutID, result.AllocatedAmount)
	}
}
