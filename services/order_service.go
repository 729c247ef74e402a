package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"food-marketplace-api/apperr"
	"food-marketplace-api/cache"
	"food-marketplace-api/metrics"
	"food-marketplace-api/models"
	"food-marketplace-api/statemachine"
	"food-marketplace-api/store"

	"github.com/sirupsen/logrus"
)

const myOrdersTTL = 30 * time.Second

type OrderItemInput struct {
	DishID   uint    `json:"dishId"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// CreateOrderInput is the body of a create-order request. Amounts are taken
// as submitted by the client and stored without recomputation.
type CreateOrderInput struct {
	RestaurantID    uint             `json:"restaurantId"`
	Items           []OrderItemInput `json:"items"`
	TotalAmount     float64          `json:"totalAmount"`
	DeliveryFee     *float64         `json:"deliveryFee"`
	DeliveryAddress string           `json:"deliveryAddress"`
	PaymentMethod   string           `json:"paymentMethod"`
}

func (in CreateOrderInput) validate() error {
	if in.RestaurantID == 0 || len(in.Items) == 0 || in.TotalAmount <= 0 || strings.TrimSpace(in.PaymentMethod) == "" {
		return apperr.Validation("missing required fields")
	}
	if in.DeliveryFee != nil && *in.DeliveryFee < 0 {
		return apperr.Validation("deliveryFee must not be negative")
	}
	for i, item := range in.Items {
		if item.DishID == 0 || strings.TrimSpace(item.Name) == "" || item.Quantity < 1 || item.Price < 0 {
			return apperr.Validation("invalid order item").WithDetail("index", i)
		}
	}
	return nil
}

// OrderDashboard is the per-status overview shown to restaurant owners and admins
type OrderDashboard struct {
	Restaurant   string         `json:"restaurant,omitempty"`
	Summary      map[string]int `json:"orderSummary"`
	TotalRevenue float64        `json:"totalRevenue"`
	Count        int            `json:"count"`
	Orders       []models.Order `json:"orders"`
}

func newDashboard(orders []models.Order) *OrderDashboard {
	d := &OrderDashboard{Summary: map[string]int{}, Count: len(orders), Orders: orders}
	for _, o := range orders {
		d.Summary[string(o.Status)]++
		if o.Status == models.StatusDelivered {
			d.TotalRevenue += o.TotalAmount
		}
	}
	return d
}

type OrderService struct {
	orders      store.OrderStore
	restaurants store.RestaurantStore
	cache       cache.Store
}

func NewOrderService(orders store.OrderStore, restaurants store.RestaurantStore, c cache.Store) *OrderService {
	return &OrderService{orders: orders, restaurants: restaurants, cache: c}
}

// CreateOrder places an order for the customer in the preparing state
func (s *OrderService) CreateOrder(ctx context.Context, customerID uint, in CreateOrderInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	restaurant, err := s.restaurants.FindByID(ctx, in.RestaurantID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Validation("restaurant not found")
	} else if err != nil {
		return nil, apperr.Internal("failed to look up restaurant", err)
	}

	items := make([]models.OrderItem, len(in.Items))
	for i, item := range in.Items {
		items[i] = models.OrderItem{
			DishID:   item.DishID,
			Name:     strings.TrimSpace(item.Name),
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}
	order := &models.Order{
		UserID:          customerID,
		RestaurantID:    restaurant.ID,
		Items:           items,
		TotalAmount:     in.TotalAmount,
		Status:          statemachine.InitialStatus,
		DeliveryAddress: in.DeliveryAddress,
		PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
	}
	if in.DeliveryFee != nil {
		order.DeliveryFee = *in.DeliveryFee
	}

	if err := s.orders.Create(ctx, order, "Order placed by customer"); err != nil {
		return nil, apperr.Internal("failed to create order", err)
	}
	s.invalidate(ctx, customerID)
	metrics.OrderCreated()
	logrus.WithFields(logrus.Fields{
		"order_id":      order.ID,
		"user_id":       customerID,
		"restaurant_id": restaurant.ID,
		"total_amount":  order.TotalAmount,
	}).Info("Order created")

	created, err := s.orders.FindByID(ctx, order.ID)
	if err != nil {
		return order, nil
	}
	return created, nil
}

// GetOrder returns the order only to the customer who placed it
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.Forbidden("this order does not belong to you")
	}
	return order, nil
}

// ListOrders returns the customer's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, customerID uint) ([]models.Order, error) {
	key := cache.MyOrdersKey(customerID)
	var cached []models.Order
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Cache read failed")
	} else if found {
		return cached, nil
	}

	orders, err := s.orders.ListByUser(ctx, customerID)
	if err != nil {
		return nil, apperr.Internal("failed to list orders", err)
	}
	if err := s.cache.Set(ctx, key, orders, myOrdersTTL); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
	return orders, nil
}

// UpdateStatus advances an order on behalf of the owner of its restaurant.
// Cancellation goes through CancelOrder.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, newStatus models.OrderStatus, actorID uint) (*models.Order, error) {
	switch newStatus {
	case models.StatusPreparing, models.StatusOnTheWay, models.StatusDelivered:
	default:
		return nil, apperr.Validation("invalid status").
			WithDetail("allowed", []models.OrderStatus{models.StatusPreparing, models.StatusOnTheWay, models.StatusDelivered})
	}

	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.ownsRestaurant(ctx, order, actorID) {
		return nil, apperr.Forbidden("this order does not belong to your restaurant")
	}
	if err := s.transition(ctx, order, newStatus, statemachine.ActorRestaurant, actorID, ""); err != nil {
		return nil, err
	}
	return order, nil
}

// CancelOrder cancels on behalf of the customer or the restaurant owner,
// each limited to the states the lifecycle allows them.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint, userID uint) (*models.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var actor statemachine.Actor
	var note string
	switch {
	case order.UserID == userID:
		actor, note = statemachine.ActorCustomer, "Order cancelled by customer"
	case s.ownsRestaurant(ctx, order, userID):
		actor, note = statemachine.ActorRestaurant, "Order cancelled by restaurant"
	default:
		return nil, apperr.Forbidden("this order does not belong to you")
	}
	if err := s.transition(ctx, order, models.StatusCancelled, actor, userID, note); err != nil {
		return nil, err
	}
	return order, nil
}

// ForceStatus sets any status without consulting the lifecycle
func (s *OrderService) ForceStatus(ctx context.Context, orderID uint, status models.OrderStatus, adminID uint, reason string) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid status")
	}
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if err := s.orders.UpdateStatus(ctx, order, status, adminID, "[ADMIN OVERRIDE] "+reason); err != nil {
		return nil, s.updateFailed(ctx, order, status, err)
	}
	s.changed(ctx, order, from, adminID)
	return order, nil
}

// RestaurantOrders lists the orders of the restaurant owned by ownerID
func (s *OrderService) RestaurantOrders(ctx context.Context, ownerID uint, status models.OrderStatus) (*OrderDashboard, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("invalid status filter")
	}
	restaurant, err := s.restaurants.FindByOwner(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("no restaurant found for your account")
	} else if err != nil {
		return nil, apperr.Internal("failed to look up restaurant", err)
	}
	orders, err := s.orders.ListByRestaurant(ctx, restaurant.ID, status)
	if err != nil {
		return nil, apperr.Internal("failed to list orders", err)
	}
	d := newDashboard(orders)
	d.Restaurant = restaurant.Name
	return d, nil
}

func (s *OrderService) AdminOrders(ctx context.Context, filter store.OrderFilter) (*OrderDashboard, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Validation("invalid status filter")
	}
	orders, err := s.orders.ListAll(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("failed to list orders", err)
	}
	return newDashboard(orders), nil
}

func (s *OrderService) find(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("order not found")
	} else if err != nil {
		return nil, apperr.Internal("failed to look up order", err)
	}
	return order, nil
}

func (s *OrderService) ownsRestaurant(ctx context.Context, order *models.Order, userID uint) bool {
	if order.Restaurant != nil {
		return order.Restaurant.OwnerID == userID
	}
	restaurant, err := s.restaurants.FindByID(ctx, order.RestaurantID)
	return err == nil && restaurant.OwnerID == userID
}

func (s *OrderService) transition(ctx context.Context, order *models.Order, to models.OrderStatus, actor statemachine.Actor, actorID uint, note string) error {
	from := order.Status
	if err := statemachine.CanTransition(from, to, actor); err != nil {
		return apperr.InvalidTransition("invalid state transition", err).
			WithDetail("currentStatus", from).
			WithDetail("requested", to).
			WithDetail("validNextStates", statemachine.ValidTransitionsFrom(from))
	}
	if err := s.orders.UpdateStatus(ctx, order, to, actorID, note); err != nil {
		return s.updateFailed(ctx, order, to, err)
	}
	s.changed(ctx, order, from, actorID)
	return nil
}

// updateFailed maps a rejected status write. When another request moved the
// order first, the error reports the status it is in now.
func (s *OrderService) updateFailed(ctx context.Context, order *models.Order, to models.OrderStatus, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("order not found")
	case errors.Is(err, store.ErrStale):
		current, findErr := s.orders.FindByID(ctx, order.ID)
		if errors.Is(findErr, store.ErrNotFound) {
			return apperr.NotFound("order not found")
		} else if findErr != nil {
			return apperr.Internal("failed to look up order", findErr)
		}
		return apperr.InvalidTransition("invalid state transition", err).
			WithDetail("currentStatus", current.Status).
			WithDetail("requested", to).
			WithDetail("validNextStates", statemachine.ValidTransitionsFrom(current.Status))
	}
	return apperr.Internal("failed to update order status", err)
}

func (s *OrderService) changed(ctx context.Context, order *models.Order, from models.OrderStatus, actorID uint) {
	metrics.OrderTransition(string(from), string(order.Status))
	s.invalidate(ctx, order.UserID)
	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     from,
		"to":       order.Status,
		"actor_id": actorID,
	}).Info("Order status changed")
}

func (s *OrderService) invalidate(ctx context.Context, customerID uint) {
	if err := s.cache.Delete(ctx, cache.MyOrdersKey(customerID)); err != nil {
		logrus.WithError(err).WithField("user_id", customerID).Warn("Cache invalidation failed")
	}
}
