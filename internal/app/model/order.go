package model

import (
	"time"
)

type OrderStatus string

// Orders are created pending; no further transitions exist yet.
const (
	OrderStatusPending OrderStatus = "pending"
)

type Order struct {
	ID        string      `gorm:"primarykey;type:varchar(36)" json:"id"`
	Total     float64     `gorm:"not null" json:"total"`
	Status    OrderStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem snapshots the product name and unit price at order time.
type OrderItem struct {
	ID          uint    `gorm:"primarykey" json:"-"`
	OrderID     string  `gorm:"type:varchar(36);not null;index" json:"-"`
	ProductID   string  `gorm:"type:varchar(36);not null" json:"product_id"`
	ProductName string  `gorm:"not null" json:"product_name"`
	Quantity    int     `gorm:"not null" json:"quantity"`
	Price       float64 `gorm:"not null" json:"price"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
