package repository

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEarningNotFound = errors.New("收益记录不存在")
	// ErrPayoutStatusConflict 条件更新没有命中任何行：
	// 记录状态已被并发请求改掉，整个分配事务必须回滚重试
	ErrPayoutStatusConflict = errors.New("收益记录状态已变更，请重试")
)

// EarningsQuery 收益记录查询条件
type EarningsQuery struct {
	SellerID int64
	Status   string
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}

type EarningRepository struct {
	db *gorm.DB
}

func NewEarningRepository(db *gorm.DB) *EarningRepository {
	return &EarningRepository{db: db}
}

func (r *EarningRepository) Create(ctx context.Context, tx *gorm.DB, record *model.EarningRecord) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(record).Error
}

func (r *EarningRepository) GetByEarningNo(ctx context.Context, earningNo string) (*model.EarningRecord, error) {
	var record model.EarningRecord
	err := r.db.WithContext(ctx).Where("earning_no = ?", earningNo).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEarningNotFound
		}
		return nil, err
	}
	return &record, nil
}

// summaryRow 汇总查询的扫描结构
type summaryRow struct {
	TotalEarnings      float64
	TotalPlatformFees  float64
	TotalOrders        int64
	AvailableForPayout float64
	PendingClearing    float64
	PaidOut            float64
}

// GetSummary 卖家收益汇总，单条聚合 SQL，无副作用，可并发调用
//
// available_for_payout + pending_clearing 恰好等于全部 pending 记录的净得之和，
// 按可提现时间切分
func (r *EarningRepository) GetSummary(ctx context.Context, sellerID int64, now time.Time) (*model.SellerEarningsSummary, error) {
	var row summaryRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(SUM(seller_amount), 0)                                                                          AS total_earnings,
			COALESCE(SUM(platform_fee), 0)                                                                           AS total_platform_fees,
			COUNT(*)                                                                                                 AS total_orders,
			COALESCE(SUM(CASE WHEN payout_status = ? AND eligible_for_payout_at <= ? THEN seller_amount ELSE 0 END), 0) AS available_for_payout,
			COALESCE(SUM(CASE WHEN payout_status = ? AND eligible_for_payout_at > ?  THEN seller_amount ELSE 0 END), 0) AS pending_clearing,
			COALESCE(SUM(CASE WHEN payout_status = ? THEN seller_amount ELSE 0 END), 0)                                 AS paid_out
		FROM earning_record
		WHERE seller_id = ?`,
		model.PayoutStatusPending, now,
		model.PayoutStatusPending, now,
		model.PayoutStatusPaid,
		sellerID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &model.SellerEarningsSummary{
		TotalEarnings:      model.Round2(row.TotalEarnings),
		TotalPlatformFees:  model.Round2(row.TotalPlatformFees),
		TotalOrders:        row.TotalOrders,
		AvailableForPayout: model.Round2(row.AvailableForPayout),
		PendingClearing:    model.Round2(row.PendingClearing),
		PaidOut:            model.Round2(row.PaidOut),
	}, nil
}

// GetEligiblePendingForUpdate 取出可参与分配的记录，FIFO（created_at 最早优先）
// 必须在事务内调用，SELECT ... FOR UPDATE 锁住候选行，防止两次提现分到同一批记录
func (r *EarningRepository) GetEligiblePendingForUpdate(ctx context.Context, tx *gorm.DB, sellerID int64, now time.Time) ([]*model.EarningRecord, error) {
	var records []*model.EarningRecord
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("seller_id = ? AND payout_status = ? AND eligible_for_payout_at <= ?",
			sellerID, model.PayoutStatusPending, now).
		Order("created_at ASC, id ASC").
		Find(&records).Error
	return records, err
}

// MarkProcessing 把单条记录从 pending 置为 processing，并打上提现批次
//
// WHERE 带上 payout_status 做 CAS：并发请求改过状态时 RowsAffected 为 0，
// 调用方据此回滚，保证一条记录最多分配给一次提现
func (r *EarningRepository) MarkProcessing(ctx context.Context, tx *gorm.DB, recordID int64, payoutID, payoutMethod string) error {
	result := tx.WithContext(ctx).
		Model(&model.EarningRecord{}).
		Where("id = ? AND payout_status = ?", recordID, model.PayoutStatusPending).
		Updates(map[string]interface{}{
			"payout_status": model.PayoutStatusProcessing,
			"payout_id":     payoutID,
			"payout_method": payoutMethod,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPayoutStatusConflict
	}
	return nil
}

// GetByPayoutID 某个提现批次内的全部记录
func (r *EarningRepository) GetByPayoutID(ctx context.Context, payoutID string) ([]*model.EarningRecord, error) {
	var records []*model.EarningRecord
	err := r.db.WithContext(ctx).
		Where("payout_id = ?", payoutID).
		Order("created_at ASC, id ASC").
		Find(&records).Error
	return records, err
}

// MarkGroupPaid 整个提现批次结算成功，processing -> paid
func (r *EarningRepository) MarkGroupPaid(ctx context.Context, tx *gorm.DB, payoutID string, paidAt time.Time) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.EarningRecord{}).
		Where("payout_id = ? AND payout_status = ?", payoutID, model.PayoutStatusProcessing).
		Updates(map[string]interface{}{
			"payout_status": model.PayoutStatusPaid,
			"payout_date":   paidAt,
		})
	return result.RowsAffected, result.Error
}

// MarkGroupFailed 整个提现批次打款失败，processing -> failed
func (r *EarningRepository) MarkGroupFailed(ctx context.Context, tx *gorm.DB, payoutID, reason string) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.EarningRecord{}).
		Where("payout_id = ? AND payout_status = ?", payoutID, model.PayoutStatusProcessing).
		Updates(map[string]interface{}{
			"payout_status":         model.PayoutStatusFailed,
			"payout_failure_reason": reason,
		})
	return result.RowsAffected, result.Error
}

// List 按条件分页查询收益记录
func (r *EarningRepository) List(ctx context.Context, query *EarningsQuery) ([]*model.EarningRecord, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.EarningRecord{}).Where("seller_id = ?", query.SellerID)

	if query.Status != "" {
		db = db.Where("payout_status = ?", query.Status)
	}
	if query.From != nil {
		db = db.Where("created_at >= ?", *query.From)
	}
	if query.To != nil {
		db = db.Where("created_at <= ?", *query.To)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []*model.EarningRecord
	err := db.
		Order("created_at DESC, id DESC").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&records).Error

	return records, total, err
}

// ListAllocated 查询已分配到提现批次的记录（结算中/已打款/失败）
func (r *EarningRepository) ListAllocated(ctx context.Context, sellerID int64, page, limit int) ([]*model.EarningRecord, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.EarningRecord{}).
		Where("seller_id = ? AND payout_id <> ''", sellerID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []*model.EarningRecord
	err := db.
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&records).Error

	return records, total, err
}

// PayoutGroup 提现批次汇总（按 payout_id 聚合）
type PayoutGroup struct {
	PayoutID     string     `json:"payout_id"`
	PayoutMethod string     `json:"payout_method"`
	Status       string     `json:"status"`
	TotalAmount  float64    `json:"total_amount"`
	RecordCount  int64      `json:"record_count"`
	PayoutDate   *time.Time `json:"payout_date,omitempty"`
	RequestedAt  time.Time  `json:"requested_at"`
}

// ListPayoutGroups 卖家提现批次分页列表
// 同一批次内的记录状态由结算任务整体推进，聚合取 MAX 即可
func (r *EarningRepository) ListPayoutGroups(ctx context.Context, sellerID int64, page, limit int) ([]*PayoutGroup, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.EarningRecord{}).
		Where("seller_id = ? AND payout_id <> ''", sellerID).
		Distinct("payout_id").
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var groups []*PayoutGroup
	err = r.db.WithContext(ctx).Raw(`
		SELECT
			payout_id,
			MAX(payout_method)  AS payout_method,
			MAX(payout_status)  AS status,
			SUM(seller_amount)  AS total_amount,
			COUNT(*)            AS record_count,
			MAX(payout_date)    AS payout_date,
			MAX(updated_at)     AS requested_at
		FROM earning_record
		WHERE seller_id = ? AND payout_id <> ''
		GROUP BY payout_id
		ORDER BY requested_at DESC
		LIMIT ? OFFSET ?`,
		sellerID, limit, (page-1)*limit,
	).Scan(&groups).Error

	return groups, total, err
}

// ListProcessingPayoutIDs 结算任务扫描：超过给定时间仍在 processing 的批次
func (r *EarningRepository) ListProcessingPayoutIDs(ctx context.Context, before time.Time, limit int) ([]string, error) {
	var payoutIDs []string
	err := r.db.WithContext(ctx).
		Model(&model.EarningRecord{}).
		Where("payout_status = ? AND payout_id <> '' AND updated_at < ?", model.PayoutStatusProcessing, before).
		Distinct().
		Order("payout_id").
		Limit(limit).
		Pluck("payout_id", &payoutIDs).Error
	return payoutIDs, err
}

// SumAvailable 当前可提现金额（pending 且已过清算期）
func (r *EarningRepository) SumAvailable(ctx context.Context, sellerID int64, now time.Time) (float64, error) {
	var available float64
	err := r.db.WithContext(ctx).
		Model(&model.EarningRecord{}).
		Where("seller_id = ? AND payout_status = ? AND eligible_for_payout_at <= ?",
			sellerID, model.PayoutStatusPending, now).
		Select("COALESCE(SUM(seller_amount), 0)").
		Scan(&available).Error
	return model.Round2(available), err
}
