package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/pkg/apperr"
	"marketplace/pkg/idgen"

	"gorm.io/gorm"
)

// 交易流水视角
const (
	TransactionTypeEarning = "earning" // 收益入账视角（全部记录）
	TransactionTypePayout  = "payout"  // 提现视角（已分配到批次的记录）
)

type EarningService struct {
	db          *gorm.DB
	cfg         *config.Config
	earningRepo *repository.EarningRepository
	sellerRepo  *repository.SellerRepository
}

func NewEarningService(db *gorm.DB, cfg *config.Config) *EarningService {
	return &EarningService{
		db:          db,
		cfg:         cfg,
		earningRepo: repository.NewEarningRepository(db),
		sellerRepo:  repository.NewSellerRepository(db),
	}
}

// CreateEarningsForOrder 按卖家维度拆分订单金额，生成收益记录
//
// 每个卖家一条记录，金额为该卖家全部行项目小计之和；
// 清算期优先取卖家单独配置，否则用系统默认值。
// 必须跟订单落库在同一个事务里，订单存在则台账必然存在。
func (s *EarningService) CreateEarningsForOrder(ctx context.Context, tx *gorm.DB, order *model.Order) ([]*model.EarningRecord, error) {
	feePercentage := s.cfg.Business.PlatformFeePercentage

	var records []*model.EarningRecord
	for _, sellerID := range order.SellerIDs() {
		totalAmount := order.SellerItemsTotal(sellerID)

		holdDays := s.cfg.Business.HoldPeriodDays
		seller, err := s.sellerRepo.GetByID(ctx, sellerID)
		if err != nil {
			if !errors.Is(err, repository.ErrSellerNotFound) {
				return nil, apperr.NewPersistence("查询卖家失败", err)
			}
			// 卖家结算信息还没建档也不阻塞下单，按系统默认清算期入账
		} else {
			holdDays = seller.EffectiveHoldPeriodDays(holdDays)
		}

		record, err := model.NewEarningRecord(idgen.GenerateEarningNo(), sellerID,
			order.ID, order.OrderNo, totalAmount, feePercentage, holdDays)
		if err != nil {
			return nil, err
		}

		if err := s.earningRepo.Create(ctx, tx, record); err != nil {
			return nil, apperr.NewPersistence("写入收益记录失败", err)
		}
		records = append(records, record)
	}

	return records, nil
}

// GetSummary 卖家收益汇总，纯读操作
func (s *EarningService) GetSummary(ctx context.Context, sellerID int64) (*model.SellerEarningsSummary, error) {
	if _, err := s.sellerRepo.GetByID(ctx, sellerID); err != nil {
		if errors.Is(err, repository.ErrSellerNotFound) {
			return nil, apperr.NewNotFound("卖家不存在")
		}
		return nil, err
	}
	return s.earningRepo.GetSummary(ctx, sellerID, time.Now())
}

// ListEarnings 收益明细分页查询
func (s *EarningService) ListEarnings(ctx context.Context, query *repository.EarningsQuery) ([]*model.EarningRecord, int64, error) {
	if query.Status != "" && !model.IsValidPayoutStatus(query.Status) {
		return nil, 0, apperr.NewValidation(fmt.Sprintf("无效的结算状态: %s", query.Status))
	}
	if query.From != nil && query.To != nil && query.From.After(*query.To) {
		return nil, 0, apperr.NewValidation("开始时间不能晚于结束时间")
	}
	query.Page, query.Limit = normalizePage(query.Page, query.Limit)
	return s.earningRepo.List(ctx, query)
}

// ListTransactions 交易流水：收益入账视角或提现视角
func (s *EarningService) ListTransactions(ctx context.Context, sellerID int64, transactionType string, page, limit int) ([]*model.EarningRecord, int64, error) {
	page, limit = normalizePage(page, limit)

	switch transactionType {
	case "", TransactionTypeEarning:
		return s.earningRepo.List(ctx, &repository.EarningsQuery{
			SellerID: sellerID,
			Page:     page,
			Limit:    limit,
		})
	case TransactionTypePayout:
		return s.earningRepo.ListAllocated(ctx, sellerID, page, limit)
	default:
		return nil, 0, apperr.NewValidation(fmt.Sprintf("无效的流水类型: %s", transactionType))
	}
}
