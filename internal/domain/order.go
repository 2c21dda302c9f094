package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// progression is the forward path an order walks through. Cancelled sits
// outside of it and is reachable from every other state.
var progression = map[OrderStatus]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

func ParseStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

// CanTransition reports whether an order may move from one status to
// another: a single step forward, or into Cancelled from any non-cancelled
// state. A Delivered order can still be cancelled (returns).
func CanTransition(from, to OrderStatus) bool {
	if from == StatusCancelled {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	f, ok := progression[from]
	if !ok {
		return false
	}
	t, ok := progression[to]
	if !ok {
		return false
	}
	return t == f+1
}

type Order struct {
	ID              uint64           `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID          *uint64          `json:"userId" gorm:"index"`
	OrderDate       time.Time        `json:"orderDate" gorm:"not null;index"`
	Subtotal        decimal.Decimal  `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	DeliveryCharge  decimal.Decimal  `json:"deliveryCharge" gorm:"type:decimal(12,2);not null"`
	GrandTotal      decimal.Decimal  `json:"grandTotal" gorm:"type:decimal(12,2);not null"`
	Status          OrderStatus      `json:"status" gorm:"type:varchar(20);not null;default:'Pending';index"`
	CreatedAt       time.Time        `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt       time.Time        `json:"updatedAt" gorm:"autoUpdateTime"`
	UpdatedBy       *uint64          `json:"updatedBy" gorm:"index"`
	Items           []OrderItem      `json:"items" gorm:"foreignKey:OrderID"`
	DeliveryAddress *DeliveryAddress `json:"deliveryAddress" gorm:"foreignKey:OrderID"`
}

// ItemsTotal sums the captured total price of every line item.
func (o *Order) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.TotalPrice)
	}
	return sum
}

type OrderItem struct {
	ID         uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID    uint64          `json:"orderId" gorm:"not null;index"`
	ProductID  uint64          `json:"productId" gorm:"not null;index"`
	Quantity   int             `json:"quantity" gorm:"not null"`
	UnitPrice  decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2);not null"`
	TotalPrice decimal.Decimal `json:"totalPrice" gorm:"type:decimal(12,2);not null"`
}

type DeliveryAddress struct {
	ID          uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID     uint64 `json:"orderId" gorm:"not null;uniqueIndex"`
	Street      string `json:"street" gorm:"size:255;not null"`
	City        string `json:"city" gorm:"size:100;not null"`
	PostalCode  string `json:"postalCode" gorm:"size:20;not null"`
	Country     string `json:"country" gorm:"size:100;not null"`
	State       string `json:"state" gorm:"size:100"`
	PhoneNumber string `json:"phoneNumber" gorm:"size:40"`
}
