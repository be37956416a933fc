package repo

import (
	"context"

	"github.com/greencart/backend/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) OrderByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory").
		First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) SaveOrderStatus(ctx context.Context, orderID uint, status string) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

func (r *GormRepo) AppendStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	return r.DB.WithContext(ctx).Create(entry).Error
}

func (r *GormRepo) ListOrdersByConsumer(ctx context.Context, consumerID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("consumer_id = ?", consumerID).
		Order("order_date DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListOrdersByProducer returns orders containing at least one of the
// producer's items, optionally narrowed to one status.
func (r *GormRepo) ListOrdersByProducer(ctx context.Context, producerID uint, status string) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).
		Preload("Items").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("order_items.producer_id = ?", producerID).
		Distinct("orders.*").
		Order("order_date DESC")
	if status != "" {
		q = q.Where("orders.status = ?", status)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ProducerInvolved reports whether the producer owns at least one item in
// the order.
func (r *GormRepo) ProducerInvolved(ctx context.Context, orderID, producerID uint) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Where("order_id = ? AND producer_id = ?", orderID, producerID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type statusCount struct {
	Status string
	Count  int64
}

// ConsumerOrderStats aggregates per-status counts and the delivered spend
// for one consumer.
func (r *GormRepo) ConsumerOrderStats(ctx context.Context, consumerID uint) (map[string]int64, int64, error) {
	var rows []statusCount
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, count(*) as count").
		Where("consumer_id = ?", consumerID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	var spent int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("consumer_id = ? AND status = ?", consumerID, models.OrderStatusDelivered).
		Scan(&spent).Error; err != nil {
		return nil, 0, err
	}

	return counts, spent, nil
}

// ProducerOrderStats aggregates per-status counts over orders containing the
// producer's items, and the revenue from delivered items.
func (r *GormRepo) ProducerOrderStats(ctx context.Context, producerID uint) (map[string]int64, int64, error) {
	var rows []statusCount
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("orders.status as status, count(DISTINCT orders.id) as count").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("order_items.producer_id = ?", producerID).
		Group("orders.status").
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	var revenue int64
	if err := r.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Select("COALESCE(SUM(order_items.total_price), 0)").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.producer_id = ? AND orders.status = ?", producerID, models.OrderStatusDelivered).
		Scan(&revenue).Error; err != nil {
		return nil, 0, err
	}

	return counts, revenue, nil
}
