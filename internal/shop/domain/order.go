package domain

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

type Order struct {
	ID              string
	UserID          string
	Status          OrderStatus
	Total           float64
	DeliveryAddress string
	PaymentMethod   string
	CreatedAt       time.Time
	Items           []OrderItem
}

type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	Quantity    int
	Price       float64
}
