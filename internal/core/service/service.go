package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/dukan-market/dukanpay/internal/core/domain"
	"github.com/dukan-market/dukanpay/internal/core/port"
	"github.com/dukan-market/dukanpay/internal/core/utils"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

const sellerOrdersDefaultLimit = 50

type Service struct {
	repo          port.Repository
	tokenService  port.TokenService
	providers     map[domain.PaymentMethod]port.PaymentProvider
	events        port.EventPublisher
	publicBaseURL string
	paymentTTL    time.Duration
	logger        *zap.Logger
}

func NewService(repo port.Repository, tokenService port.TokenService,
	providers []port.PaymentProvider, events port.EventPublisher,
	publicBaseURL string, paymentTTL time.Duration, logger *zap.Logger) (*Service, error) {
	pm := make(map[domain.PaymentMethod]port.PaymentProvider, len(providers))
	for _, p := range providers {
		pm[p.Method()] = p
	}
	if paymentTTL <= 0 {
		paymentTTL = 15 * time.Minute
	}
	return &Service{
		repo:          repo,
		tokenService:  tokenService,
		providers:     pm,
		events:        events,
		publicBaseURL: publicBaseURL,
		paymentTTL:    paymentTTL,
		logger:        logger,
	}, nil
}

func (s *Service) RegisterUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	exUser, err := s.repo.GetUserByLogin(ctx, user.Login)
	if err != nil && !errors.Is(err, domain.ErrDataNotFound) {
		s.logger.Error("Get user", zap.Error(err))
		return nil, domain.ErrInternal
	}

	if exUser != nil {
		return nil, domain.ErrConflictingData
	}

	newUser, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		s.logger.Error("Create user", zap.Error(err))
		return nil, domain.ErrInternal
	}

	return newUser, nil
}

func (s *Service) LoginUser(ctx context.Context, login string, password string) (string, error) {
	user, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", domain.ErrInternal
	}

	err = utils.ComparePassword(password, user.Password)
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokenService.CreateToken(user)
	if err != nil {
		s.logger.Error("Create token", zap.Error(err))
		return "", domain.ErrTokenCreation
	}

	return token, nil
}

func (s *Service) CreateOrder(ctx context.Context, order *domain.Order, items []*domain.OrderItem) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, domain.ErrBadRequest
	}

	total := decimal.Zero
	for _, item := range items {
		qty, err := decimal.New(int64(item.Quantity), 0)
		if err != nil {
			return nil, domain.ErrBadRequest
		}
		line, err := item.UnitPrice.Mul(qty)
		if err != nil {
			return nil, domain.ErrBadRequest
		}
		total, err = total.Add(line)
		if err != nil {
			return nil, domain.ErrBadRequest
		}
	}
	total, err := total.Add(order.ShippingFee)
	if err != nil {
		return nil, domain.ErrBadRequest
	}
	total, err = total.Sub(order.Discount)
	if err != nil {
		return nil, domain.ErrBadRequest
	}
	order.Total = total

	now := time.Now()
	order.Number = newOrderNumber(now)
	order.Status = domain.OrderStatusPending
	order.PaymentState = domain.PaymentStateUnpaid
	order.CreatedAt = now
	order.UpdatedAt = now

	newOrder, err := s.repo.CreateOrder(ctx, order, items)
	if err != nil {
		s.logger.Error("Create order", zap.Error(err))
		return nil, err
	}

	s.publish(ctx, port.Event{
		Type:        port.EventOrderCreated,
		OrderID:     newOrder.ID,
		OrderNumber: newOrder.Number,
		ShopID:      newOrder.ShopID,
		Status:      string(newOrder.Status),
		At:          now,
	})

	return newOrder, nil
}

func (s *Service) GetOrdersByUser(ctx context.Context, userID uint64) ([]*domain.Order, error) {
	list, err := s.repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Get orders for user", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *Service) GetOrdersByShop(ctx context.Context, shopID uint64, limit, offset uint64) ([]*domain.Order, error) {
	if shopID == 0 {
		return nil, domain.ErrForbidden
	}
	if limit == 0 || limit > sellerOrdersDefaultLimit {
		limit = sellerOrdersDefaultLimit
	}
	list, err := s.repo.ListOrdersByShop(ctx, shopID, limit, offset)
	if err != nil {
		s.logger.Error("Get orders for shop", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *Service) GetOrderItems(ctx context.Context, userID uint64, orderID uint64) ([]*domain.OrderItem, error) {
	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrDataNotFound
	}
	return s.repo.ListOrderItems(ctx, orderID)
}

// TransitionOrderStatus advances a shop's order along the forward chain or
// cancels it while that is still allowed. The write is guarded by the order
// version, so a concurrent buyer-side payment write surfaces as a conflict
// instead of being silently overwritten.
func (s *Service) TransitionOrderStatus(ctx context.Context, shopID uint64,
	orderID uint64, next domain.OrderStatus) (*domain.Order, error) {
	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ShopID != shopID {
		return nil, domain.ErrDataNotFound
	}

	now := time.Now()
	switch {
	case next == domain.OrderStatusCancelled:
		if !domain.CancellableFrom[order.Status] {
			return nil, domain.ErrOrderNotCancellable
		}
		order.Status = domain.OrderStatusCancelled
	case domain.ForwardTransitions[order.Status] == next:
		order.Status = next
		switch next {
		case domain.OrderStatusPaid:
			order.PaymentState = domain.PaymentStatePaid
		case domain.OrderStatusShipped:
			order.ShippedAt = &now
		case domain.OrderStatusDelivered:
			order.DeliveredAt = &now
		}
	default:
		return nil, domain.ErrInvalidTransition
	}
	order.UpdatedAt = now

	updated, err := s.repo.UpdateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, port.Event{
		Type:        port.EventOrderStatus,
		OrderID:     updated.ID,
		OrderNumber: updated.Number,
		ShopID:      updated.ShopID,
		Status:      string(updated.Status),
		At:          now,
	})

	return updated, nil
}

func (s *Service) GetUserBalance(ctx context.Context, userID uint64) (*domain.Balance, error) {
	balance, err := s.repo.ReadBalanceByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("Get balance", zap.Error(err))
		return nil, err
	}
	return balance, nil
}

func (s *Service) publish(ctx context.Context, event port.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Publish event", zap.String("type", event.Type), zap.Error(err))
	}
}

func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("DK-%s-%06d", now.UTC().Format("060102"), rand.Intn(1000000))
}
