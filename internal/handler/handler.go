package handler

import (
	"strconv"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/repository"
	"marketplace/internal/service"
	"marketplace/pkg/apperr"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	earningService      *service.EarningService
	payoutService       *service.PayoutService
	orderService        *service.OrderService
	fulfillmentService  *service.FulfillmentService
	notificationService *service.NotificationService
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Handler {
	return &Handler{
		earningService:      service.NewEarningService(db, cfg),
		payoutService:       service.NewPayoutService(db, rdb, cfg),
		orderService:        service.NewOrderService(db, cfg),
		fulfillmentService:  service.NewFulfillmentService(db, cfg),
		notificationService: service.NewNotificationService(db),
	}
}

func parsePageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}

// parseDateParam 支持 RFC3339 和日期两种格式
// endOfDay 时把纯日期解释为当天末尾，保证 endDate 为闭区间
func parseDateParam(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

// ============================================================
// 卖家收益相关接口
// ============================================================

// GetEarningsSummary 卖家收益汇总
// GET /api/v1/sellers/me/earnings
func (h *Handler) GetEarningsSummary(c *gin.Context) {
	summary, err := h.earningService.GetSummary(c.Request.Context(), sellerID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, summary)
}

// ListEarningDetails 卖家收益明细（分页，可按状态和日期筛选）
// GET /api/v1/sellers/me/earnings/details?page&limit&status&startDate&endDate
func (h *Handler) ListEarningDetails(c *gin.Context) {
	page, limit := parsePageParams(c)

	from, err := parseDateParam(c.Query("startDate"), false)
	if err != nil {
		response.ParamError(c, "startDate 格式错误")
		return
	}
	to, err := parseDateParam(c.Query("endDate"), true)
	if err != nil {
		response.ParamError(c, "endDate 格式错误")
		return
	}

	query := &repository.EarningsQuery{
		SellerID: sellerID(c),
		Status:   c.Query("status"),
		From:     from,
		To:       to,
		Page:     page,
		Limit:    limit,
	}

	records, total, err := h.earningService.ListEarnings(c.Request.Context(), query)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Paged(c, records, query.Page, query.Limit, total)
}

// ListTransactions 卖家交易历史（收益入账 / 提现划拨）
// GET /api/v1/sellers/me/transactions?page&limit&type
func (h *Handler) ListTransactions(c *gin.Context) {
	page, limit := parsePageParams(c)
	transactionType := c.DefaultQuery("type", service.TransactionTypeEarning)

	records, total, err := h.earningService.ListTransactions(
		c.Request.Context(), sellerID(c), transactionType, page, limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Paged(c, records, page, limit, total)
}

// ============================================================
// 提现相关接口
// ============================================================

// ListPayouts 卖家提现批次列表
// GET /api/v1/sellers/me/payouts?page&limit
func (h *Handler) ListPayouts(c *gin.Context) {
	page, limit := parsePageParams(c)

	groups, total, err := h.payoutService.ListPayouts(c.Request.Context(), sellerID(c), page, limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Paged(c, groups, page, limit, total)
}

// RequestPayoutRequest 提现申请
type RequestPayoutRequest struct {
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	PayoutMethod string  `json:"payoutMethod" binding:"required"`
}

// RequestPayout 发起提现
// POST /api/v1/sellers/me/payouts/request
func (h *Handler) RequestPayout(c *gin.Context) {
	var req RequestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.payoutService.RequestPayout(
		c.Request.Context(), sellerID(c), req.Amount, req.PayoutMethod)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OKWithMessage(c, "提现申请已受理", result)
}

// SettlePayoutRequest 渠道打款结果回调
type SettlePayoutRequest struct {
	Succeeded     *bool  `json:"succeeded" binding:"required"`
	FailureReason string `json:"failureReason"`
}

// SettlePayoutCallback 渠道侧打款结果回调
// POST /api/v1/payouts/:payoutId/settle
//
// 成功时整批 processing -> paid；失败时整批 processing -> failed 并记录原因。
// 超时未回调的批次由后台兜底任务按成功结算。
func (h *Handler) SettlePayoutCallback(c *gin.Context) {
	var req SettlePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	err := h.payoutService.SettlePayout(c.Request.Context(), c.Param("payoutId"),
		*req.Succeeded, req.FailureReason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OKWithMessage(c, "结算结果已受理", nil)
}

// PayoutSettingsRequest 结算设置更新，缺省字段不变
type PayoutSettingsRequest struct {
	BankAccountName     *string  `json:"bankAccountName"`
	BankAccountNumber   *string  `json:"bankAccountNumber"`
	BankName            *string  `json:"bankName"`
	MinimumPayoutAmount *float64 `json:"minimumPayoutAmount"`
	HoldPeriodDays      *int     `json:"holdPeriodDays"`
	AutoPayoutEnabled   *bool    `json:"autoPayoutEnabled"`
}

// UpdatePayoutSettings 更新结算设置（银行账户、起付金额、自动提现）
// PUT /api/v1/sellers/me/payout-settings
func (h *Handler) UpdatePayoutSettings(c *gin.Context) {
	var req PayoutSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	seller, err := h.payoutService.UpdatePayoutSettings(c.Request.Context(), sellerID(c),
		&service.PayoutSettingsInput{
			BankAccountName:     req.BankAccountName,
			BankAccountNumber:   req.BankAccountNumber,
			BankName:            req.BankName,
			MinimumPayoutAmount: req.MinimumPayoutAmount,
			HoldPeriodDays:      req.HoldPeriodDays,
			AutoPayoutEnabled:   req.AutoPayoutEnabled,
		})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OKWithMessage(c, "结算设置已更新", seller)
}

// ============================================================
// 卖家订单履约接口
// ============================================================

// ListSellerOrders 卖家相关订单
// GET /api/v1/sellers/me/orders?page&limit
func (h *Handler) ListSellerOrders(c *gin.Context) {
	page, limit := parsePageParams(c)

	orders, total, err := h.orderService.ListSellerOrders(c.Request.Context(), sellerID(c), page, limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Paged(c, orders, page, limit, total)
}

// UpdateOrderStatusRequest 订单状态流转
type UpdateOrderStatusRequest struct {
	Status   string `json:"status" binding:"required"`
	Note     string `json:"note"`
	Location string `json:"location"`
}

// UpdateOrderStatus 卖家推进订单状态
// PUT /api/v1/sellers/me/orders/:orderNo/status
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.fulfillmentService.UpdateStatus(
		c.Request.Context(), sellerID(c), c.Param("orderNo"), req.Status, req.Note, req.Location)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, order)
}

// ShipOrderRequest 发货请求
type ShipOrderRequest struct {
	TrackingNumber    string     `json:"trackingNumber" binding:"required"`
	Carrier           string     `json:"carrier" binding:"required"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
}

// ShipOrder 卖家发货
// PUT /api/v1/sellers/me/orders/:orderNo/ship
func (h *Handler) ShipOrder(c *gin.Context) {
	var req ShipOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.fulfillmentService.Ship(c.Request.Context(), sellerID(c), c.Param("orderNo"),
		req.TrackingNumber, req.Carrier, req.EstimatedDelivery)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OKWithMessage(c, "订单已发货", order)
}

// DeliverOrder 确认签收
// PUT /api/v1/sellers/me/orders/:orderNo/deliver
func (h *Handler) DeliverOrder(c *gin.Context) {
	order, err := h.fulfillmentService.Deliver(c.Request.Context(), sellerID(c), c.Param("orderNo"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OKWithMessage(c, "订单已签收", order)
}

// ============================================================
// 订单接入接口
// ============================================================

// CreateOrderRequest 订单接入请求（交易侧支付完成后推送）
type CreateOrderRequest struct {
	Items           []service.CreateOrderItemInput `json:"items" binding:"required,dive"`
	ShippingAddress string                         `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                         `json:"paymentMethod"`
	TotalPrice      float64                        `json:"totalPrice"`
}

// CreateOrder 接入订单并派生收益记录
// POST /api/v1/orders
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	input := &service.CreateOrderInput{
		BuyerID:         buyerID(c),
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		TotalPrice:      req.TotalPrice,
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OKWithMessage(c, "订单创建成功", order)
}

// ListBuyerOrders 买家订单列表
// GET /api/v1/buyers/me/orders?page&limit
func (h *Handler) ListBuyerOrders(c *gin.Context) {
	page, limit := parsePageParams(c)

	orders, total, err := h.orderService.ListBuyerOrders(c.Request.Context(), buyerID(c), page, limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Paged(c, orders, page, limit, total)
}

// GetOrder 订单详情
// GET /api/v1/orders/:orderNo
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.fulfillmentService.GetOrder(c.Request.Context(), c.Param("orderNo"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, order)
}

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelOrder 平台侧取消订单
// POST /api/v1/orders/:orderNo/cancel
func (h *Handler) CancelOrder(c *gin.Context) {
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.fulfillmentService.Cancel(c.Request.Context(), c.Param("orderNo"), req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OKWithMessage(c, "订单已取消", order)
}

// ============================================================
// 站内通知接口
// ============================================================

// ListNotifications 用户通知列表
// GET /api/v1/users/me/notifications?page&limit&unread
func (h *Handler) ListNotifications(c *gin.Context) {
	page, limit := parsePageParams(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, total, err := h.notificationService.ListForUser(
		c.Request.Context(), userID(c), unreadOnly, page, limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Paged(c, notifications, page, limit, total)
}

// CountUnreadNotifications 未读通知数（客户端角标轮询）
// GET /api/v1/users/me/notifications/unread-count
func (h *Handler) CountUnreadNotifications(c *gin.Context) {
	count, err := h.notificationService.CountUnread(c.Request.Context(), userID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"unread": count})
}

// MarkNotificationRead 标记通知已读
// PUT /api/v1/users/me/notifications/:id/read
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	notificationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.FromError(c, apperr.NewValidation("通知ID格式错误"))
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), notificationID, userID(c)); err != nil {
		response.FromError(c, err)
		return
	}
	response.OKWithMessage(c, "通知已标记为已读", nil)
}
