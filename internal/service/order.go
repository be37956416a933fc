package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greencart/backend/internal/actor"
	"github.com/greencart/backend/internal/logging"
	"github.com/greencart/backend/internal/models"
	"github.com/greencart/backend/internal/repo"
)

// EventPublisher pushes domain events to the broker. Publishing is best
// effort and never fails the originating operation.
type EventPublisher interface {
	PublishEvent(ctx context.Context, key string, event any) error
}

type OrderService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
}

// transitions is the status adjacency. CANCELLED is reachable only while the
// order has not shipped.
var transitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:   {models.OrderStatusDelivered},
	models.OrderStatusDelivered: {},
	models.OrderStatusCancelled: {},
}

func canTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func newOrderNumber() string {
	return "GC-" + strings.ToUpper(uuid.NewString()[:8])
}

// CreateFromCart converts the consumer's cart into an order in one
// all-or-nothing transaction: snapshot lines, freeze the total, decrement
// stock, clear the cart and write the initial history row. Any stock
// shortfall fails the whole operation with every offending line listed.
func (s *OrderService) CreateFromCart(ctx context.Context, act actor.Actor, shippingAddress, paymentMethod string) (*models.Order, error) {
	if !act.IsConsumer() {
		return nil, fmt.Errorf("%w: only consumers place orders", ErrPermissionDenied)
	}

	var order *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		cart, err := tx.GetOrCreateCart(ctx, act.UserID)
		if err != nil {
			return err
		}
		items, err := tx.CartItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		ids := make([]uint, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ProductID)
		}
		products, err := tx.ProductsByIDs(ctx, ids)
		if err != nil {
			return err
		}

		var issues []StockIssue
		for _, it := range items {
			p, ok := products[it.ProductID]
			if !ok || !p.IsActive {
				issues = append(issues, StockIssue{
					ProductID: it.ProductID,
					Name:      p.Name,
					Requested: it.Quantity,
					Inactive:  true,
				})
				continue
			}
			if it.Quantity > p.QuantityAvailable {
				issues = append(issues, StockIssue{
					ProductID: it.ProductID,
					Name:      p.Name,
					Requested: it.Quantity,
					Available: p.QuantityAvailable,
				})
			}
		}
		if len(issues) > 0 {
			return &StockUnavailableError{Issues: issues}
		}

		var total int64
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, it := range items {
			p := products[it.ProductID]
			lineTotal := int64(it.Quantity) * p.Price
			orderItems = append(orderItems, models.OrderItem{
				ProductID:  p.ID,
				ProducerID: p.ProducerID,
				Quantity:   it.Quantity,
				UnitPrice:  p.Price,
				TotalPrice: lineTotal,
			})
			total += lineTotal
		}

		order = &models.Order{
			OrderNumber:     newOrderNumber(),
			ConsumerID:      act.UserID,
			OrderDate:       time.Now().UTC(),
			Status:          models.OrderStatusPending,
			TotalAmount:     total,
			ShippingAddress: shippingAddress,
			PaymentMethod:   paymentMethod,
			Items:           orderItems,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		// Guarded decrement; a zero-row update means a concurrent checkout
		// won the stock and the whole transaction rolls back.
		for _, it := range items {
			ok, err := tx.DecrementStock(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				p := products[it.ProductID]
				return &StockUnavailableError{Issues: []StockIssue{{
					ProductID: it.ProductID,
					Name:      p.Name,
					Requested: it.Quantity,
					Available: p.QuantityAvailable,
				}}}
			}
		}

		if err := tx.ClearCart(ctx, cart.ID); err != nil {
			return err
		}

		return tx.AppendStatusHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    models.OrderStatusPending,
			ActorID:   act.UserID,
			ActorRole: act.Role(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, order.OrderNumber, map[string]any{
		"type":         "order_created",
		"order_number": order.OrderNumber,
		"consumer_id":  order.ConsumerID,
		"total_amount": order.TotalAmount,
	})
	return order, nil
}

// UpdateStatus advances an order along the forward path. Only a producer
// owning at least one item in the order may advance it; cancellation goes
// through Cancel.
func (s *OrderService) UpdateStatus(ctx context.Context, act actor.Actor, orderID uint, status string) (*models.Order, error) {
	if _, known := transitions[status]; !known {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: use the cancel operation", ErrValidation)
	}
	if !act.IsProducer() {
		return nil, fmt.Errorf("%w: only producers update order status", ErrPermissionDenied)
	}

	var order *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		order, err = tx.OrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}

		involved, err := tx.ProducerInvolved(ctx, orderID, act.ProducerID)
		if err != nil {
			return err
		}
		if !involved {
			return fmt.Errorf("%w: no items of yours in this order", ErrPermissionDenied)
		}

		if !canTransition(order.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
		}

		if err := tx.SaveOrderStatus(ctx, order.ID, status); err != nil {
			return err
		}
		order.Status = status
		return tx.AppendStatusHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    status,
			ActorID:   act.UserID,
			ActorRole: act.Role(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, order.OrderNumber, map[string]any{
		"type":         "order_status_changed",
		"order_number": order.OrderNumber,
		"status":       order.Status,
	})
	return order, nil
}

// Cancel is the consumer's exit from the lifecycle. It is allowed only
// before shipment and restores every decremented product's stock — the one
// compensating side effect in the model.
func (s *OrderService) Cancel(ctx context.Context, act actor.Actor, orderID uint) (*models.Order, error) {
	var order *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		order, err = tx.OrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}

		if !act.IsConsumer() || order.ConsumerID != act.UserID {
			return fmt.Errorf("%w: you can only cancel your own orders", ErrPermissionDenied)
		}
		if !canTransition(order.Status, models.OrderStatusCancelled) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, models.OrderStatusCancelled)
		}

		for _, item := range order.Items {
			if err := tx.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := tx.SaveOrderStatus(ctx, order.ID, models.OrderStatusCancelled); err != nil {
			return err
		}
		order.Status = models.OrderStatusCancelled
		return tx.AppendStatusHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    models.OrderStatusCancelled,
			ActorID:   act.UserID,
			ActorRole: act.Role(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, order.OrderNumber, map[string]any{
		"type":         "order_cancelled",
		"order_number": order.OrderNumber,
		"consumer_id":  order.ConsumerID,
	})
	return order, nil
}

// MyOrders lists the actor's orders: a producer sees orders containing their
// items, everyone else sees their own.
func (s *OrderService) MyOrders(ctx context.Context, act actor.Actor) ([]models.Order, error) {
	if act.IsProducer() {
		return s.Repo.ListOrdersByProducer(ctx, act.ProducerID, "")
	}
	return s.Repo.ListOrdersByConsumer(ctx, act.UserID)
}

func (s *OrderService) ProducerOrders(ctx context.Context, act actor.Actor, status string) ([]models.Order, error) {
	if !act.IsProducer() {
		return nil, fmt.Errorf("%w: only producers can access this", ErrPermissionDenied)
	}
	if status != "" {
		if _, known := transitions[status]; !known {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
	}
	return s.Repo.ListOrdersByProducer(ctx, act.ProducerID, status)
}

// Detail returns the order if the actor is staff, the owning consumer, or a
// producer with items in it.
func (s *OrderService) Detail(ctx context.Context, act actor.Actor, orderID uint) (*models.Order, error) {
	order, err := s.Repo.OrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}

	switch {
	case act.IsStaff():
	case act.IsConsumer() && order.ConsumerID == act.UserID:
	case act.IsProducer():
		involved, err := s.Repo.ProducerInvolved(ctx, orderID, act.ProducerID)
		if err != nil {
			return nil, err
		}
		if !involved {
			return nil, fmt.Errorf("%w", ErrPermissionDenied)
		}
	default:
		return nil, fmt.Errorf("%w", ErrPermissionDenied)
	}
	return order, nil
}

type OrderStats struct {
	TotalOrders     int64  `json:"total_orders"`
	PendingOrders   int64  `json:"pending_orders"`
	ConfirmedOrders int64  `json:"confirmed_orders"`
	ShippedOrders   int64  `json:"shipped_orders"`
	DeliveredOrders int64  `json:"delivered_orders"`
	CancelledOrders int64  `json:"cancelled_orders"`
	TotalSpent      *int64 `json:"total_spent,omitempty"`
	TotalRevenue    *int64 `json:"total_revenue,omitempty"`
}

// Statistics is a pure read: per-status counts plus delivered spend for
// consumers or delivered revenue for producers. Recomputed per request.
func (s *OrderService) Statistics(ctx context.Context, act actor.Actor) (*OrderStats, error) {
	var (
		counts map[string]int64
		sum    int64
		err    error
	)
	if act.IsProducer() {
		counts, sum, err = s.Repo.ProducerOrderStats(ctx, act.ProducerID)
	} else {
		counts, sum, err = s.Repo.ConsumerOrderStats(ctx, act.UserID)
	}
	if err != nil {
		return nil, err
	}

	stats := &OrderStats{
		PendingOrders:   counts[models.OrderStatusPending],
		ConfirmedOrders: counts[models.OrderStatusConfirmed],
		ShippedOrders:   counts[models.OrderStatusShipped],
		DeliveredOrders: counts[models.OrderStatusDelivered],
		CancelledOrders: counts[models.OrderStatusCancelled],
	}
	for _, n := range counts {
		stats.TotalOrders += n
	}
	if act.IsProducer() {
		stats.TotalRevenue = &sum
	} else {
		stats.TotalSpent = &sum
	}
	return stats, nil
}

func (s *OrderService) publish(ctx context.Context, key string, event map[string]any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, key, event); err != nil {
		// The transaction already committed; losing the event is acceptable.
		logging.FromContext(ctx).Warn("event publish failed", "key", key, "error", err)
	}
}
