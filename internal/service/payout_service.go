package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/infrastructure/lock"
	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/pkg/apperr"
	"marketplace/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 支持的提现方式
var validPayoutMethods = map[string]bool{
	"bank_transfer": true,
	"paypal":        true,
	"stripe":        true,
}

type PayoutService struct {
	db                  *gorm.DB
	redisClient         *redis.Client
	cfg                 *config.Config
	earningRepo         *repository.EarningRepository
	sellerRepo          *repository.SellerRepository
	outboxRepo          *repository.OutboxRepository
	notificationService *NotificationService
}

func NewPayoutService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *PayoutService {
	return &PayoutService{
		db:                  db,
		redisClient:         redisClient,
		cfg:                 cfg,
		earningRepo:         repository.NewEarningRepository(db),
		sellerRepo:          repository.NewSellerRepository(db),
		outboxRepo:          repository.NewOutboxRepository(db),
		notificationService: NewNotificationService(db),
	}
}

// PayoutResult 提现受理结果
type PayoutResult struct {
	PayoutID        string  `json:"payout_id"`
	RequestedAmount float64 `json:"requested_amount"`
	AllocatedAmount float64 `json:"allocated_amount"`
	PayoutMethod    string  `json:"payout_method"`
	Status          string  `json:"status"`
}

// RequestPayout 卖家发起提现
//
// 【关键点】提现是结算系统最核心的写操作，需要保证：
// 1. 并发安全：同一卖家的提现请求通过分布式锁串行化
// 2. 原子性：FIFO 挑选 + 逐条置 processing 在一个数据库事务里，
//    任何一条 CAS 未命中整体回滚，不会留下部分分配的状态
// 3. 不超发：行级 FOR UPDATE + 条件更新双保险，
//    一条收益记录最多分配给一次提现
//
// 余额不足直接失败，不做部分分配；单条记录整条划拨，不拆金额，
// 因此实际划拨金额允许略超请求金额。
func (s *PayoutService) RequestPayout(ctx context.Context, sellerID int64, amount float64, payoutMethod string) (*PayoutResult, error) {
	if amount <= 0 {
		return nil, apperr.NewValidation("提现金额必须大于0")
	}
	if !validPayoutMethods[payoutMethod] {
		return nil, apperr.NewValidation(fmt.Sprintf("不支持的提现方式: %s", payoutMethod))
	}

	seller, err := s.sellerRepo.GetByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, repository.ErrSellerNotFound) {
			return nil, apperr.NewNotFound("卖家不存在")
		}
		return nil, err
	}
	if !seller.HasBankAccount() {
		return nil, apperr.NewPayoutIneligible("未绑定银行账户，无法发起提现")
	}

	minimumAmount := seller.EffectiveMinimumPayout(s.cfg.Business.MinimumPayoutAmount)
	if amount < minimumAmount {
		return nil, apperr.NewValidation(fmt.Sprintf("提现金额不能低于最低提现金额 %.2f", minimumAmount))
	}

	// 获取卖家维度的分布式锁
	payoutLock := lock.NewPayoutLock(s.redisClient, sellerID, uuid.NewString())
	if err := payoutLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer payoutLock.Unlock(ctx)

	payoutID := idgen.GeneratePayoutNo()
	var allocatedAmount float64
	var allocatedCount int

	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		records, err := s.earningRepo.GetEligiblePendingForUpdate(ctx, tx, sellerID, now)
		if err != nil {
			return apperr.NewPersistence("查询可提现收益失败", err)
		}

		plan, covered, err := planAllocation(records, amount)
		if err != nil {
			return err
		}

		for _, record := range plan {
			if err := s.earningRepo.MarkProcessing(ctx, tx, record.ID, payoutID, payoutMethod); err != nil {
				// CAS 未命中或写入失败，整体回滚
				return apperr.NewPersistence("分配收益记录失败", err)
			}
		}
		allocatedAmount = covered
		allocatedCount = len(plan)

		if err := s.notificationService.Create(ctx, tx, sellerID,
			model.NotificationTypePaymentProcessing,
			"提现申请已受理",
			fmt.Sprintf("您发起的 %.2f 元提现已进入结算，批次号 %s", amount, payoutID),
			map[string]interface{}{
				"payout_id":        payoutID,
				"requested_amount": amount,
				"allocated_amount": covered,
				"payout_method":    payoutMethod,
			},
			model.NotificationPriorityMedium,
		); err != nil {
			return apperr.NewPersistence("写入通知失败", err)
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"payout_id":        payoutID,
			"seller_id":        sellerID,
			"requested_amount": amount,
			"allocated_amount": covered,
			"record_count":     len(plan),
			"payout_method":    payoutMethod,
			"requested_at":     now.Format(time.RFC3339),
		})
		if err := s.outboxRepo.Enqueue(ctx, tx, &model.OutboxMessage{
			MessageKey: payoutID,
			EventType:  model.EventTypePayoutRequested,
			Topic:      s.cfg.Kafka.Topic.PayoutEvents,
			Payload:    string(payload),
			Status:     model.OutboxStatusPending,
		}); err != nil {
			return apperr.NewPersistence("写入事件失败", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Printf("提现受理成功: payoutID=%s, sellerID=%d, requested=%.2f, allocated=%.2f, records=%d",
		payoutID, sellerID, amount, allocatedAmount, allocatedCount)

	return &PayoutResult{
		PayoutID:        payoutID,
		RequestedAmount: amount,
		AllocatedAmount: allocatedAmount,
		PayoutMethod:    payoutMethod,
		Status:          model.PayoutStatusProcessing,
	}, nil
}

// planAllocation 纯函数：FIFO 贪心挑选收益记录，直到累计金额覆盖请求金额
//
// records 必须已按 created_at 升序排好（最早的先划拨）。
// 总可用金额不足时返回 InsufficientBalanceError，不产生任何分配。
func planAllocation(records []*model.EarningRecord, amount float64) ([]*model.EarningRecord, float64, error) {
	var available float64
	for _, record := range records {
		available += record.SellerAmount
	}
	available = model.Round2(available)

	if available < amount {
		return nil, 0, &apperr.InsufficientBalanceError{Requested: amount, Available: available}
	}

	var plan []*model.EarningRecord
	var covered float64
	for _, record := range records {
		plan = append(plan, record)
		covered += record.SellerAmount
		if covered >= amount {
			break
		}
	}

	return plan, model.Round2(covered), nil
}

// PayoutSettingsInput 结算设置更新，nil 字段保持原值
type PayoutSettingsInput struct {
	BankAccountName     *string
	BankAccountNumber   *string
	BankName            *string
	MinimumPayoutAmount *float64
	HoldPeriodDays      *int
	AutoPayoutEnabled   *bool
}

// UpdatePayoutSettings 更新卖家结算设置
func (s *PayoutService) UpdatePayoutSettings(ctx context.Context, sellerID int64, input *PayoutSettingsInput) (*model.Seller, error) {
	updates := map[string]interface{}{}

	if input.BankAccountName != nil {
		updates["bank_account_name"] = *input.BankAccountName
	}
	if input.BankAccountNumber != nil {
		updates["bank_account_number"] = *input.BankAccountNumber
	}
	if input.BankName != nil {
		updates["bank_name"] = *input.BankName
	}
	if input.MinimumPayoutAmount != nil {
		if *input.MinimumPayoutAmount < 0 {
			return nil, apperr.NewValidation("最低提现金额不能为负数")
		}
		updates["minimum_payout_amount"] = model.Round2(*input.MinimumPayoutAmount)
	}
	if input.HoldPeriodDays != nil {
		if *input.HoldPeriodDays < 0 {
			return nil, apperr.NewValidation("清算期天数不能为负数")
		}
		updates["hold_period_days"] = *input.HoldPeriodDays
	}
	if input.AutoPayoutEnabled != nil {
		updates["auto_payout_enabled"] = *input.AutoPayoutEnabled
	}

	if len(updates) == 0 {
		return nil, apperr.NewValidation("没有需要更新的字段")
	}

	if err := s.sellerRepo.UpdatePayoutSettings(ctx, sellerID, updates); err != nil {
		if errors.Is(err, repository.ErrSellerNotFound) {
			return nil, apperr.NewNotFound("卖家不存在")
		}
		return nil, apperr.NewPersistence("更新结算设置失败", err)
	}

	return s.sellerRepo.GetByID(ctx, sellerID)
}

// ListPayouts 提现批次分页列表
func (s *PayoutService) ListPayouts(ctx context.Context, sellerID int64, page, limit int) ([]*repository.PayoutGroup, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.earningRepo.ListPayoutGroups(ctx, sellerID, page, limit)
}

// settlementContent 结算结果对应的事件类型与卖家通知内容
func settlementContent(payoutID string, totalAmount float64, succeeded bool,
	failureReason string) (eventType, notificationType, title, message, priority string) {

	if succeeded {
		return model.EventTypePayoutSettled,
			model.NotificationTypePaymentCompleted,
			"提现已到账",
			fmt.Sprintf("您的提现 %.2f 元已打款，批次号 %s", totalAmount, payoutID),
			model.NotificationPriorityHigh
	}
	return model.EventTypePayoutFailed,
		model.NotificationTypePaymentFailed,
		"提现失败",
		fmt.Sprintf("您的提现 %.2f 元打款失败：%s，批次号 %s", totalAmount, failureReason, payoutID),
		model.NotificationPriorityHigh
}

// SettlePayout 结算一个提现批次（渠道回调或后台兜底任务调用）
//
// succeeded 时 processing -> paid 并记录打款时间；
// 失败时 processing -> failed 并记录原因。整批一起推进。
func (s *PayoutService) SettlePayout(ctx context.Context, payoutID string, succeeded bool, failureReason string) error {
	if !succeeded && failureReason == "" {
		return apperr.NewValidation("打款失败必须提供失败原因")
	}

	records, err := s.earningRepo.GetByPayoutID(ctx, payoutID)
	if err != nil {
		return apperr.NewPersistence("查询提现批次失败", err)
	}
	if len(records) == 0 {
		return apperr.NewNotFound(fmt.Sprintf("提现批次不存在: %s", payoutID))
	}

	sellerID := records[0].SellerID
	var totalAmount float64
	for _, record := range records {
		totalAmount += record.SellerAmount
	}
	totalAmount = model.Round2(totalAmount)

	return s.db.Transaction(func(tx *gorm.DB) error {
		var rows int64
		now := time.Now()

		eventType, notificationType, title, message, priority :=
			settlementContent(payoutID, totalAmount, succeeded, failureReason)

		if succeeded {
			rows, err = s.earningRepo.MarkGroupPaid(ctx, tx, payoutID, now)
		} else {
			rows, err = s.earningRepo.MarkGroupFailed(ctx, tx, payoutID, failureReason)
		}
		if err != nil {
			return apperr.NewPersistence("更新提现批次状态失败", err)
		}
		if rows == 0 {
			// 批次已被结算过，幂等返回
			return nil
		}

		if err := s.notificationService.Create(ctx, tx, sellerID, notificationType, title, message,
			map[string]interface{}{
				"payout_id":    payoutID,
				"total_amount": totalAmount,
			}, priority); err != nil {
			return apperr.NewPersistence("写入通知失败", err)
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"payout_id":    payoutID,
			"seller_id":    sellerID,
			"total_amount": totalAmount,
			"succeeded":    succeeded,
			"reason":       failureReason,
			"settled_at":   now.Format(time.RFC3339),
		})
		return s.outboxRepo.Enqueue(ctx, tx, &model.OutboxMessage{
			MessageKey: payoutID,
			EventType:  eventType,
			Topic:      s.cfg.Kafka.Topic.PayoutEvents,
			Payload:    string(payload),
			Status:     model.OutboxStatusPending,
		})
	})
}
