package store

import (
	"context"
	"errors"
	"fmt"

	"food-marketplace-api/models"

	"gorm.io/gorm"
)

// OrderFilter narrows admin listings; zero fields match everything
type OrderFilter struct {
	Status       models.OrderStatus
	UserID       uint
	RestaurantID uint
}

type OrderStore interface {
	// Create persists the order, its items and the initial history row atomically
	Create(ctx context.Context, order *models.Order, note string) error
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Order, error)
	ListByRestaurant(ctx context.Context, restaurantID uint, status models.OrderStatus) ([]models.Order, error)
	ListAll(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, order *models.Order, to models.OrderStatus, changedBy uint, note string) error
}

type orderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) OrderStore {
	return &orderStore{db: db}
}

func (s *orderStore) Create(ctx context.Context, order *models.Order, note string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  order.Status,
			ChangedBy: order.UserID,
			Note:      note,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func historyOrder(db *gorm.DB) *gorm.DB { return db.Order("id asc") }

func (s *orderStore) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Restaurant").
		Preload("Items").
		Preload("StatusHistory", historyOrder).
		First(&order, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// ListByUser returns the customer's orders newest first
func (s *orderStore) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.WithContext(ctx).
		Preload("Restaurant").
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderStore) ListByRestaurant(ctx context.Context, restaurantID uint, status models.OrderStatus) ([]models.Order, error) {
	return s.ListAll(ctx, OrderFilter{RestaurantID: restaurantID, Status: status})
}

func (s *orderStore) ListAll(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	orders := []models.Order{}
	query := s.db.WithContext(ctx).
		Preload("Restaurant").
		Preload("Customer").
		Preload("Items")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.RestaurantID != 0 {
		query = query.Where("restaurant_id = ?", filter.RestaurantID)
	}
	if err := query.Order("created_at desc, id desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus writes the new status and its history row in one transaction.
// The write only applies while the stored status still equals order.Status;
// otherwise ErrStale is returned. order is updated in place on success.
func (s *orderStore) UpdateStatus(ctx context.Context, order *models.Order, to models.OrderStatus, changedBy uint, note string) error {
	from := order.Status
	history := models.OrderStatusHistory{
		OrderID:    order.ID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  changedBy,
		Note:       note,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, from).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrStale
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStale) {
			return err
		}
		return fmt.Errorf("failed to update order status: %w", err)
	}
	order.Status = to
	order.StatusHistory = append(order.StatusHistory, history)
	return nil
}
