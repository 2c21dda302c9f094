package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

type OrderCreatedEvent struct {
	EventID    string          `json:"eventId"`
	OrderID    string          `json:"orderId"`
	UserID     string          `json:"userId,omitempty"`
	Guest      bool            `json:"guest"`
	ItemCount  int             `json:"itemCount"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type OrderStatusChangedEvent struct {
	EventID   string      `json:"eventId"`
	OrderID   string      `json:"orderId"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	UpdatedBy string      `json:"updatedBy,omitempty"`
	Restocked bool        `json:"restocked"`
	ChangedAt time.Time   `json:"changedAt"`
}
