package handler

import (
	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/flashorder/internal/application/order"
	"github.com/xiebiao/flashorder/internal/domain/order"
	"github.com/xiebiao/flashorder/internal/interface/http/dto"
	"github.com/xiebiao/flashorder/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/flashorder/pkg/errors"
	"github.com/xiebiao/flashorder/pkg/response"
)

// OrderHandler 订单HTTP处理器
type OrderHandler struct {
	issueToken  *apporder.IssueTokenUseCase
	createOrder *apporder.CreateOrderUseCase
	transition  *apporder.TransitionUseCase
	callback    *apporder.PaymentCallbackUseCase
	query       *apporder.QueryUseCase
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(
	issueToken *apporder.IssueTokenUseCase,
	createOrder *apporder.CreateOrderUseCase,
	transition *apporder.TransitionUseCase,
	callback *apporder.PaymentCallbackUseCase,
	query *apporder.QueryUseCase,
) *OrderHandler {
	return &OrderHandler{
		issueToken:  issueToken,
		createOrder: createOrder,
		transition:  transition,
		callback:    callback,
		query:       query,
	}
}

// IssueToken 获取幂等Token
// @Summary      获取幂等Token
// @Description  下单前获取，Token与用户绑定，成功下单后失效
// @Tags         订单模块
// @Produce      json
// @Param        X-User-ID header int true "用户ID"
// @Success      200 {object} response.Response{data=dto.IssueTokenResponse}
// @Failure      401 {object} response.Response "缺少用户身份"
// @Failure      503 {object} response.Response "存储不可用"
// @Router       /api/v1/idempotency/tokens [post]
func (h *OrderHandler) IssueToken(c *gin.Context) {
	result, err := h.issueToken.Execute(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.IssueTokenResponse{
		Token:            result.Token,
		ExpiresInMinutes: result.ExpiresInMinutes,
	})
}

// CreateOrder 创建订单
// @Summary      创建订单
// @Description  幂等校验 → 预留库存 → 写订单，任一步失败按相反顺序补偿
// @Description  相同Token的重复请求返回第一次创建的订单号
// @Tags         订单模块
// @Accept       json
// @Produce      json
// @Param        X-User-ID header int true "用户ID"
// @Param        request body dto.CreateOrderRequest true "下单信息"
// @Success      200 {object} response.Response{data=dto.CreateOrderResponse} "下单成功或命中重复请求"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      401 {object} response.Response "Token无效或已使用"
// @Failure      409 {object} response.Response "相同请求正在处理中"
// @Failure      422 {object} response.Response "库存不足"
// @Failure      429 {object} response.Response "请求过于频繁"
// @Failure      503 {object} response.Response "系统繁忙，可重试"
// @Router       /api/v1/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	result, err := h.createOrder.Execute(c.Request.Context(), apporder.CreateOrderRequest{
		UserID:          middleware.MustGetUserID(c),
		ProductID:       req.ProductID,
		Amount:          req.Amount,
		Token:           req.Token,
		TotalAmount:     req.TotalAmount,
		PaymentAmount:   req.PaymentAmount,
		PaymentType:     req.PaymentType,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.CreateOrderResponse{
		OrderNo:   result.OrderNo,
		Status:    result.Status,
		Duplicate: result.Duplicate,
	})
}

// GetOrder 订单详情
// @Summary      订单详情
// @Description  只能查看自己的订单
// @Tags         订单模块
// @Produce      json
// @Param        X-User-ID header int true "用户ID"
// @Param        orderNo path string true "订单号"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /api/v1/orders/{orderNo} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.query.GetOrder(c.Request.Context(), middleware.MustGetUserID(c), c.Param("orderNo"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderResponse(o))
}

// ListOrders 我的订单
// @Summary      我的订单列表
// @Description  按创建时间倒序分页
// @Tags         订单模块
// @Produce      json
// @Param        X-User-ID header int true "用户ID"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页条数" default(10)
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.OrderResponse}}
// @Router       /api/v1/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	orders, total, err := h.query.ListOrders(c.Request.Context(), middleware.MustGetUserID(c), req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	list := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		list = append(list, dto.NewOrderResponse(o))
	}
	page, size := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	response.SuccessWithPage(c, list, total, page, size)
}

// NextStatuses 可迁移状态
// @Summary      订单可迁移的状态
// @Tags         订单模块
// @Produce      json
// @Param        X-User-ID header int true "用户ID"
// @Param        orderNo path string true "订单号"
// @Success      200 {object} response.Response{data=dto.NextStatusesResponse}
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /api/v1/orders/{orderNo}/next-statuses [get]
func (h *OrderHandler) NextStatuses(c *gin.Context) {
	orderNo := c.Param("orderNo")
	next, err := h.query.GetNextPossibleStatuses(c.Request.Context(), orderNo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.NextStatusesResponse{OrderNo: orderNo, NextStatuses: dto.StatusNames(next)})
}

// Pay 支付
// @Summary      支付订单
// @Description  PENDING → PAID，预留库存转为已售
// @Tags         订单模块
// @Produce      json
// @Param        X-User-ID header int true "用户ID"
// @Param        orderNo path string true "订单号"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      409 {object} response.Response "并发修改"
// @Failure      422 {object} response.Response "状态不允许"
// @Router       /api/v1/orders/{orderNo}/pay [post]
func (h *OrderHandler) Pay(c *gin.Context) {
	h.respondTransition(c)(h.transition.Pay(c.Request.Context(), c.Param("orderNo")))
}

// Ship 发货
// @Summary      订单发货
// @Description  PAID → SHIPPED
// @Tags         订单模块
// @Accept       json
// @Produce      json
// @Param        X-User-ID header int true "用户ID"
// @Param        orderNo path string true "订单号"
// @Param        request body dto.ShipOrderRequest true "物流信息"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      422 {object} response.Response "状态不允许"
// @Router       /api/v1/orders/{orderNo}/ship [post]
func (h *OrderHandler) Ship(c *gin.Context) {
	var req dto.ShipOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}
	h.respondTransition(c)(h.transition.Ship(c.Request.Context(), c.Param("orderNo"), req.TrackingNumber))
}

// Complete 确认收货
// @Summary      完成订单
// @Description  SHIPPED → COMPLETED
// @Tags         订单模块
// @Produce      json
// @Param        X-User-ID header int true "用户ID"
// @Param        orderNo path string true "订单号"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      422 {object} response.Response "状态不允许"
// @Router       /api/v1/orders/{orderNo}/complete [post]
func (h *OrderHandler) Complete(c *gin.Context) {
	h.respondTransition(c)(h.transition.Complete(c.Request.Context(), c.Param("orderNo")))
}

// Cancel 取消
// @Summary      取消订单
// @Description  PENDING/PAID → CANCELLED，未支付释放预留，已支付退回库存
// @Tags         订单模块
// @Accept       json
// @Produce      json
// @Param        X-User-ID header int true "用户ID"
// @Param        orderNo path string true "订单号"
// @Param        request body dto.CancelOrderRequest false "取消原因"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      422 {object} response.Response "状态不允许"
// @Router       /api/v1/orders/{orderNo}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	var req dto.CancelOrderRequest
	// body可以为空
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
			return
		}
	}
	h.respondTransition(c)(h.transition.Cancel(c.Request.Context(), c.Param("orderNo"), req.Reason))
}

func (h *OrderHandler) respondTransition(c *gin.Context) func(*order.Order, error) {
	return func(o *order.Order, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, dto.NewOrderResponse(o))
	}
}

// PaymentCallback 支付回调
// @Summary      支付结果回调
// @Description  同一订单的回调串行处理；处理中的重复回调返回IGNORED，订单已不是PENDING时返回ANOMALY
// @Tags         支付
// @Accept       json
// @Produce      json
// @Param        request body dto.PaymentCallbackRequest true "回调内容"
// @Success      200 {object} response.Response{data=dto.PaymentCallbackResponse}
// @Failure      404 {object} response.Response "订单不存在"
// @Failure      503 {object} response.Response "存储不可用，渠道应重投"
// @Router       /api/v1/payments/callback [post]
func (h *OrderHandler) PaymentCallback(c *gin.Context) {
	var req dto.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	result, err := h.callback.Execute(c.Request.Context(), req.OrderNo, req.Result)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.PaymentCallbackResponse{
		OrderNo: result.OrderNo,
		Result:  result.Result,
		Message: result.Message,
		Status:  result.Status,
	})
}
