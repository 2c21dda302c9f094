package services

import (
	"time"

	"github.com/charbel0004/Unishelf-sub000/internal/domain"

	"github.com/shopspring/decimal"
)

func CreateMockOrder(id uint64, userID *uint64, status domain.OrderStatus, items ...domain.OrderItem) *domain.Order {
	return &domain.Order{
		ID:        id,
		UserID:    userID,
		OrderDate: time.Now().UTC(),
		Status:    status,
		Items:     items,
		CreatedAt: time.Now().UTC(),
	}
}

func CreateMockProduct(id uint64, name string, price int64, qty *int, available bool) *domain.Product {
	return &domain.Product{
		ID:        id,
		Name:      name,
		Price:     decimal.NewFromInt(price),
		Quantity:  qty,
		Available: available,
	}
}

func CreateMockItem(orderID, productID uint64, qty int, unit int64) domain.OrderItem {
	return domain.OrderItem{
		OrderID:    orderID,
		ProductID:  productID,
		Quantity:   qty,
		UnitPrice:  decimal.NewFromInt(unit),
		TotalPrice: decimal.NewFromInt(unit * int64(qty)),
	}
}

func ValidAddress() *AddressInput {
	return &AddressInput{
		Street:     "12 Hamra Street",
		City:       "Beirut",
		PostalCode: "1103",
		Country:    "Lebanon",
	}
}

const (
	TestProductID    = uint64(1)
	TestOrderID      = uint64(1)
	TestUserID       = uint64(7)
	TestStaffID      = uint64(20)
	TestProductName  = "Test Product"
	TestProductPrice = int64(1000)
	TestProductQty   = 5
)
