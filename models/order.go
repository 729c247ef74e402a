package models

import "time"

// OrderStatus represents the delivery-lifecycle stage of an order
type OrderStatus string

const (
	StatusPreparing OrderStatus = "preparing"
	StatusOnTheWay  OrderStatus = "on-the-way"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the four lifecycle states
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPreparing, StatusOnTheWay, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID              uint                 `json:"id" gorm:"primaryKey"`
	UserID          uint                 `json:"userId" gorm:"index;not null"`
	Customer        *User                `json:"customer,omitempty" gorm:"foreignKey:UserID"`
	RestaurantID    uint                 `json:"restaurantId" gorm:"index;not null"`
	Restaurant      *Restaurant          `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	Items           []OrderItem          `json:"items" gorm:"foreignKey:OrderID"`
	TotalAmount     float64              `json:"totalAmount" gorm:"not null"`
	DeliveryFee     float64              `json:"deliveryFee" gorm:"not null;default:0"`
	Status          OrderStatus          `json:"status" gorm:"index;not null;default:'preparing'"`
	DeliveryAddress string               `json:"deliveryAddress"`
	PaymentMethod   string               `json:"paymentMethod" gorm:"not null"`
	StatusHistory   []OrderStatusHistory `json:"statusHistory,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

type OrderItem struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	OrderID  uint    `json:"orderId" gorm:"index;not null"`
	DishID   uint    `json:"dishId" gorm:"not null"`
	Name     string  `json:"name" gorm:"not null"`  // snapshot name
	Quantity int     `json:"quantity" gorm:"not null"`
	Price    float64 `json:"price" gorm:"not null"` // snapshot unit price
}

// OrderStatusHistory is the audit trail of status changes
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"orderId" gorm:"index;not null"`
	FromStatus OrderStatus `json:"fromStatus"`
	ToStatus   OrderStatus `json:"toStatus" gorm:"not null"`
	ChangedBy  uint        `json:"changedBy"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"createdAt"`
}
