package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukan-market/dukanpay/internal/core/domain"
	"github.com/dukan-market/dukanpay/internal/core/port"
	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

type OrderHandler struct {
	Handler
	service port.Service
}

func NewOrderHandler(service port.Service, logger *zap.Logger) (*OrderHandler, error) {
	return &OrderHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type orderItemRequest struct {
	ProductID uint64  `json:"productId" binding:"required"`
	Quantity  uint32  `json:"quantity" binding:"required,min=1"`
	UnitPrice float64 `json:"unitPrice" binding:"required"`
	Color     string  `json:"color"`
	Size      string  `json:"size"`
}

type createOrderRequest struct {
	ShopID          uint64                 `json:"shopId" binding:"required"`
	Items           []orderItemRequest     `json:"items" binding:"required"`
	Discount        float64                `json:"discount"`
	ShippingFee     float64                `json:"shippingFee"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
}

type orderResponse struct {
	ID              uint64                 `json:"id"`
	Number          string                 `json:"number"`
	Status          string                 `json:"status"`
	PaymentStatus   string                 `json:"paymentStatus"`
	PaymentMethod   string                 `json:"paymentMethod,omitempty"`
	PaymentID       string                 `json:"paymentId,omitempty"`
	Total           decimal.Decimal        `json:"total"`
	Discount        decimal.Decimal        `json:"discount"`
	ShippingFee     decimal.Decimal        `json:"shippingFee"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	CreatedAt       time.Time              `json:"createdAt"`
	ShippedAt       *time.Time             `json:"shippedAt,omitempty"`
	DeliveredAt     *time.Time             `json:"deliveredAt,omitempty"`
}

func newOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		Number:          o.Number,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentState),
		PaymentMethod:   string(o.PaymentMethod),
		PaymentID:       o.PaymentID,
		Total:           o.Total,
		Discount:        o.Discount,
		ShippingFee:     o.ShippingFee,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
	}
}

func (oh *OrderHandler) CreateOrder(ctx *gin.Context) {
	userID := getAuthPayload(ctx).UserID

	req := createOrderRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	discount, err := decimal.NewFromFloat64(req.Discount)
	if err != nil {
		oh.handleValidationError(ctx, err)
		return
	}
	shippingFee, err := decimal.NewFromFloat64(req.ShippingFee)
	if err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	items := make([]*domain.OrderItem, 0, len(req.Items))
	for _, i := range req.Items {
		price, err := decimal.NewFromFloat64(i.UnitPrice)
		if err != nil {
			oh.handleValidationError(ctx, err)
			return
		}
		items = append(items, &domain.OrderItem{
			ProductID: i.ProductID,
			Quantity:  i.Quantity,
			UnitPrice: price,
			Color:     i.Color,
			Size:      i.Size,
		})
	}

	order := &domain.Order{
		UserID:          userID,
		ShopID:          req.ShopID,
		Discount:        discount,
		ShippingFee:     shippingFee,
		ShippingAddress: req.ShippingAddress,
	}

	newOrder, err := oh.service.CreateOrder(ctx, order, items)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccessWithStatus(ctx, newOrderResponse(newOrder), http.StatusCreated)
}

func (oh *OrderHandler) ListOrdersByUser(ctx *gin.Context) {
	userID := getAuthPayload(ctx).UserID

	list, err := oh.service.GetOrdersByUser(ctx, userID)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	result := make([]orderResponse, 0, len(list))
	for _, o := range list {
		result = append(result, newOrderResponse(o))
	}

	oh.handleSuccess(ctx, gin.H{"orders": result})
}

func (oh *OrderHandler) ListOrderItems(ctx *gin.Context) {
	userID := getAuthPayload(ctx).UserID

	orderID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	items, err := oh.service.GetOrderItems(ctx, userID, orderID)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccess(ctx, gin.H{"items": items})
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus is the seller fulfillment action: one forward step along
// the status chain, or an early cancel.
func (oh *OrderHandler) UpdateOrderStatus(ctx *gin.Context) {
	payload := getAuthPayload(ctx)
	if payload.ShopID == 0 {
		oh.handleError(ctx, domain.ErrForbidden)
		return
	}

	orderID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	req := transitionRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	order, err := oh.service.TransitionOrderStatus(ctx, payload.ShopID, orderID,
		domain.OrderStatus(req.Status))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccess(ctx, newOrderResponse(order))
}

func (oh *OrderHandler) ListShopOrders(ctx *gin.Context) {
	payload := getAuthPayload(ctx)
	if payload.ShopID == 0 {
		oh.handleError(ctx, domain.ErrForbidden)
		return
	}

	limit, _ := strconv.ParseUint(ctx.DefaultQuery("limit", "0"), 10, 64)
	offset, _ := strconv.ParseUint(ctx.DefaultQuery("offset", "0"), 10, 64)

	list, err := oh.service.GetOrdersByShop(ctx, payload.ShopID, limit, offset)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	result := make([]orderResponse, 0, len(list))
	for _, o := range list {
		result = append(result, newOrderResponse(o))
	}

	oh.handleSuccess(ctx, gin.H{"orders": result, "offset": offset})
}
