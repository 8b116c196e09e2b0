package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/pkg/apperr"

	"gorm.io/gorm"
)

// FulfillmentService 订单履约状态机
//
// 状态流转、轨迹追加、买家通知、事件落 outbox 在同一个事务里完成；
// 流转合法性由 model.ValidTrackingTransitions 约束
type FulfillmentService struct {
	db                  *gorm.DB
	cfg                 *config.Config
	orderRepo           *repository.OrderRepository
	outboxRepo          *repository.OutboxRepository
	notificationService *NotificationService
}

func NewFulfillmentService(db *gorm.DB, cfg *config.Config) *FulfillmentService {
	return &FulfillmentService{
		db:                  db,
		cfg:                 cfg,
		orderRepo:           repository.NewOrderRepository(db),
		outboxRepo:          repository.NewOutboxRepository(db),
		notificationService: NewNotificationService(db),
	}
}

// GetOrder 订单详情
func (s *FulfillmentService) GetOrder(ctx context.Context, orderNo string) (*model.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperr.NewNotFound("订单不存在")
		}
		return nil, err
	}
	return order, nil
}

// getOrderForSeller 卖家操作前的归属校验
// 归属不符一律按订单不存在处理，避免订单号被探测
func (s *FulfillmentService) getOrderForSeller(ctx context.Context, sellerID int64, orderNo string) (*model.Order, error) {
	order, err := s.GetOrder(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if sellerID > 0 && !order.HasSeller(sellerID) {
		return nil, apperr.NewNotFound("订单不存在")
	}
	return order, nil
}

// UpdateStatus 卖家推进履约状态
func (s *FulfillmentService) UpdateStatus(ctx context.Context, sellerID int64, orderNo, newStatus, note, location string) (*model.Order, error) {
	if !model.IsValidTrackingStatus(newStatus) {
		return nil, apperr.NewValidation(fmt.Sprintf("无效的履约状态: %s", newStatus))
	}

	order, err := s.getOrderForSeller(ctx, sellerID, orderNo)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, order, newStatus, note, location, nil)
}

// Ship 发货：运单号和承运商必须随 shipped 流转一起原子写入
func (s *FulfillmentService) Ship(ctx context.Context, sellerID int64, orderNo,
	trackingNumber, carrier string, estimatedDelivery *time.Time) (*model.Order, error) {

	if trackingNumber == "" || carrier == "" {
		return nil, apperr.NewValidation("发货必须填写运单号和承运商")
	}

	order, err := s.getOrderForSeller(ctx, sellerID, orderNo)
	if err != nil {
		return nil, err
	}

	extra := map[string]interface{}{
		"tracking_number": trackingNumber,
		"carrier":         carrier,
	}
	if estimatedDelivery != nil {
		extra["estimated_delivery"] = *estimatedDelivery
	}

	return s.transition(ctx, order, model.TrackingStatusShipped, "卖家已发货", "", extra)
}

// Deliver 签收：状态机保证只有 shipped / out_for_delivery 能到 delivered
func (s *FulfillmentService) Deliver(ctx context.Context, sellerID int64, orderNo string) (*model.Order, error) {
	order, err := s.getOrderForSeller(ctx, sellerID, orderNo)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, model.TrackingStatusDelivered, "订单已签收", order.CurrentLocation, nil)
}

// Cancel 取消订单（平台侧操作），任意非终态可达
func (s *FulfillmentService) Cancel(ctx context.Context, orderNo, reason string) (*model.Order, error) {
	order, err := s.GetOrder(ctx, orderNo)
	if err != nil {
		return nil, err
	}

	extra := map[string]interface{}{}
	if reason != "" {
		extra["refund_reason"] = reason
	}

	return s.transition(ctx, order, model.TrackingStatusCanceled, reason, "", extra)
}

// transition 执行一次状态流转
//
// 同一事务内：条件更新订单状态 -> 追加轨迹 -> 恰好一条买家通知 -> outbox 事件。
// 重复执行相同的流转会被状态机拒绝（状态不会是自己的后继）。
func (s *FulfillmentService) transition(ctx context.Context, order *model.Order,
	newStatus, note, location string, extra map[string]interface{}) (*model.Order, error) {

	fromStatus := order.TrackingStatus

	if model.IsTerminalTrackingStatus(fromStatus) {
		return nil, apperr.NewValidation(fmt.Sprintf("订单已是终态 %s，不允许再流转", fromStatus))
	}
	if !model.CanTransitionTo(fromStatus, newStatus) {
		return nil, apperr.NewValidation(fmt.Sprintf("订单状态不允许从 %s 流转到 %s", fromStatus, newStatus))
	}

	if location != "" {
		if extra == nil {
			extra = map[string]interface{}{}
		}
		extra["current_location"] = location
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.UpdateTrackingStatus(ctx, tx, order.OrderNo, fromStatus, newStatus, extra); err != nil {
			if errors.Is(err, repository.ErrTrackingStatusInvalid) {
				// 并发请求抢先改了状态
				return apperr.NewValidation(fmt.Sprintf("订单状态已变更，不允许流转到 %s", newStatus))
			}
			return apperr.NewPersistence("更新订单状态失败", err)
		}

		if err := s.orderRepo.AppendStatusHistory(ctx, tx, &model.OrderStatusHistory{
			OrderID:  order.ID,
			Status:   newStatus,
			Location: location,
			Note:     note,
		}); err != nil {
			return apperr.NewPersistence("写入状态轨迹失败", err)
		}

		title, message := orderNotificationContent(order.OrderNo, newStatus, note)
		if err := s.notificationService.Create(ctx, tx, order.BuyerID,
			model.OrderNotificationType(newStatus), title, message,
			map[string]interface{}{
				"order_no": order.OrderNo,
				"status":   newStatus,
			},
			model.OrderNotificationPriority(newStatus),
		); err != nil {
			return apperr.NewPersistence("写入通知失败", err)
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"order_no":    order.OrderNo,
			"buyer_id":    order.BuyerID,
			"from_status": fromStatus,
			"to_status":   newStatus,
			"note":        note,
			"location":    location,
			"changed_at":  time.Now().Format(time.RFC3339),
		})
		return s.outboxRepo.Enqueue(ctx, tx, &model.OutboxMessage{
			MessageKey: order.OrderNo,
			EventType:  model.EventTypeOrderStatusChanged,
			Topic:      s.cfg.Kafka.Topic.OrderEvents,
			Payload:    string(payload),
			Status:     model.OutboxStatusPending,
		})
	})

	if err != nil {
		return nil, err
	}

	log.Printf("订单状态流转: orderNo=%s, %s -> %s", order.OrderNo, fromStatus, newStatus)

	return s.GetOrder(ctx, order.OrderNo)
}

// orderNotificationContent 各履约状态对应的买家通知文案
func orderNotificationContent(orderNo, status, note string) (title, message string) {
	switch status {
	case model.TrackingStatusConfirmed:
		title = "订单已确认"
		message = fmt.Sprintf("您的订单 %s 已被卖家确认", orderNo)
	case model.TrackingStatusProcessing:
		title = "订单备货中"
		message = fmt.Sprintf("您的订单 %s 正在备货", orderNo)
	case model.TrackingStatusShipped:
		title = "订单已发货"
		message = fmt.Sprintf("您的订单 %s 已发货，请注意查收物流信息", orderNo)
	case model.TrackingStatusOutForDelivery:
		title = "订单派送中"
		message = fmt.Sprintf("您的订单 %s 正在派送", orderNo)
	case model.TrackingStatusDelivered:
		title = "订单已签收"
		message = fmt.Sprintf("您的订单 %s 已签收", orderNo)
	case model.TrackingStatusCanceled:
		title = "订单已取消"
		message = fmt.Sprintf("您的订单 %s 已取消", orderNo)
		if note != "" {
			message = fmt.Sprintf("您的订单 %s 已取消：%s", orderNo, note)
		}
	default:
		title = "订单状态更新"
		message = fmt.Sprintf("您的订单 %s 状态更新为 %s", orderNo, status)
	}
	return title, message
}
