package service

import (
	"context"
	"fmt"
	"math"

	"marketplace/internal/config"
	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/pkg/apperr"
	"marketplace/pkg/idgen"

	"gorm.io/gorm"
)

// OrderService 订单接入
// 订单由交易侧创建（支付已完成），这里负责落库并派生各卖家的收益记录
type OrderService struct {
	db             *gorm.DB
	cfg            *config.Config
	orderRepo      *repository.OrderRepository
	earningService *EarningService
}

func NewOrderService(db *gorm.DB, cfg *config.Config) *OrderService {
	return &OrderService{
		db:             db,
		cfg:            cfg,
		orderRepo:      repository.NewOrderRepository(db),
		earningService: NewEarningService(db, cfg),
	}
}

// CreateOrderItemInput 下单行项目
type CreateOrderItemInput struct {
	ProductID int64   `json:"product_id" binding:"required"`
	SellerID  int64   `json:"seller_id" binding:"required"`
	Title     string  `json:"title" binding:"required"`
	Price     float64 `json:"price" binding:"required,gt=0"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
}

// CreateOrderInput 下单请求
// TotalPrice 由交易侧传入用于对账，strict_order_totals 开启时强校验
type CreateOrderInput struct {
	BuyerID         int64
	Items           []CreateOrderItemInput
	ShippingAddress string
	PaymentMethod   string
	TotalPrice      float64
}

// CreateOrder 订单落库 + 收益记录派生，同一事务
func (s *OrderService) CreateOrder(ctx context.Context, input *CreateOrderInput) (*model.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperr.NewValidation("订单至少包含一个商品")
	}
	if input.ShippingAddress == "" {
		return nil, apperr.NewValidation("收货地址不能为空")
	}

	var items []model.OrderItem
	var itemsSubtotal float64
	for i, item := range input.Items {
		if item.Price <= 0 || item.Quantity <= 0 {
			return nil, apperr.NewValidation(fmt.Sprintf("第 %d 个商品的价格和数量必须大于0", i+1))
		}
		subtotal := model.Round2(item.Price * float64(item.Quantity))
		items = append(items, model.OrderItem{
			ProductID: item.ProductID,
			SellerID:  item.SellerID,
			Title:     item.Title,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Subtotal:  subtotal,
		})
		itemsSubtotal += subtotal
	}
	itemsSubtotal = model.Round2(itemsSubtotal)

	platformFee := model.Round2(itemsSubtotal * s.cfg.Business.PlatformFeePercentage / 100)
	totalPrice := model.Round2(itemsSubtotal + platformFee)

	// 订单总额与小计+佣金强校验（可通过配置放宽以兼容历史数据）
	if s.cfg.Business.StrictOrderTotals && input.TotalPrice > 0 &&
		math.Abs(input.TotalPrice-totalPrice) > 0.01 {
		return nil, apperr.NewValidation(fmt.Sprintf(
			"订单总额不一致: 传入 %.2f，按商品小计与佣金计算应为 %.2f", input.TotalPrice, totalPrice))
	}

	order := &model.Order{
		OrderNo:         idgen.GenerateOrderNo(),
		BuyerID:         input.BuyerID,
		TotalPrice:      totalPrice,
		PlatformFee:     platformFee,
		SellerEarnings:  model.Round2(itemsSubtotal - platformFee),
		ShippingAddress: input.ShippingAddress,
		PaymentStatus:   model.PaymentStatusPaid,
		PaymentMethod:   input.PaymentMethod,
		TrackingStatus:  model.TrackingStatusPending,
		Items:           items,
		StatusHistory: []model.OrderStatusHistory{
			{Status: model.TrackingStatusPending, Note: "订单创建"},
		},
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return apperr.NewPersistence("创建订单失败", err)
		}
		if _, err := s.earningService.CreateEarningsForOrder(ctx, tx, order); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// ListSellerOrders 卖家相关订单分页
func (s *OrderService) ListSellerOrders(ctx context.Context, sellerID int64, page, limit int) ([]*model.Order, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.orderRepo.ListBySeller(ctx, sellerID, page, limit)
}

// ListBuyerOrders 买家订单分页
func (s *OrderService) ListBuyerOrders(ctx context.Context, buyerID int64, page, limit int) ([]*model.Order, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.orderRepo.ListByBuyer(ctx, buyerID, page, limit)
}
