package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string          `json:"name" gorm:"size:200;not null;index"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	// Quantity is nil for products whose stock is not tracked.
	Quantity  *int      `json:"quantity"`
	Available bool      `json:"available" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (p *Product) Tracked() bool { return p.Quantity != nil }

// Reserve takes qty units out of stock. Untracked products are left alone.
// Availability flips off once tracked stock hits zero.
func (p *Product) Reserve(qty int) error {
	if p.Quantity == nil {
		return nil
	}
	if *p.Quantity < qty {
		return &StockError{ProductID: p.ID, Requested: qty, OnHand: *p.Quantity}
	}
	left := *p.Quantity - qty
	p.Quantity = &left
	if left == 0 {
		p.Available = false
	}
	return nil
}

// Restore puts qty units back and makes the product sellable again when
// stock is positive. Untracked products stay untracked.
func (p *Product) Restore(qty int) {
	if p.Quantity == nil {
		return
	}
	cur := *p.Quantity + qty
	p.Quantity = &cur
	if cur > 0 {
		p.Available = true
	}
}
