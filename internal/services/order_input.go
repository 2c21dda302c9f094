package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/charbel0004/Unishelf-sub000/internal/domain"

	"github.com/shopspring/decimal"
)

type AddressInput struct {
	Street      string
	City        string
	PostalCode  string
	Country     string
	State       string
	PhoneNumber string
}

type ItemInput struct {
	ProductID  string
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// PlaceOrderInput is the checkout request after it has been decoded at the
// HTTP boundary. Monetary fields are optional; absent or negative amounts
// are recorded as zero.
type PlaceOrderInput struct {
	UserID         string
	OrderDate      string
	Subtotal       *decimal.Decimal
	DeliveryCharge *decimal.Decimal
	GrandTotal     *decimal.Decimal
	Status         string
	Address        *AddressInput
	Items          []ItemInput
}

func (in *PlaceOrderInput) Validate() error {
	v := domain.NewValidationError()

	if in.Address == nil {
		v.Add("deliveryAddress", "is required")
	} else {
		required := map[string]string{
			"deliveryAddress.street":     in.Address.Street,
			"deliveryAddress.city":       in.Address.City,
			"deliveryAddress.postalCode": in.Address.PostalCode,
			"deliveryAddress.country":    in.Address.Country,
		}
		for field, val := range required {
			if strings.TrimSpace(val) == "" {
				v.Add(field, "is required")
			}
		}
	}

	if len(in.Items) == 0 {
		v.Add("items", "at least one item is required")
	}
	for i, it := range in.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			v.Add(itemField(i, "productID"), "is required")
		}
		if it.UnitPrice.IsNegative() {
			v.Add(itemField(i, "unitPrice"), "must not be negative")
		}
	}

	if s := strings.TrimSpace(in.Status); s != "" {
		st, ok := domain.ParseStatus(s)
		switch {
		case !ok:
			v.Add("status", "unknown status "+s)
		case st == domain.StatusCancelled:
			v.Add("status", "a new order cannot be cancelled")
		}
	}
	return v.OrNil()
}

func itemField(i int, name string) string {
	return "items[" + strconv.Itoa(i) + "]." + name
}

func (in *PlaceOrderInput) status() domain.OrderStatus {
	if st, ok := domain.ParseStatus(strings.TrimSpace(in.Status)); ok {
		return st
	}
	return domain.StatusPending
}

var orderDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseOrderDate falls back to now for anything it cannot read.
func parseOrderDate(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return now
	}
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return now
}

// nonNegative clamps absent or negative amounts to zero.
func nonNegative(d *decimal.Decimal) decimal.Decimal {
	if d == nil || d.IsNegative() {
		return decimal.Zero
	}
	return *d
}

type UpdateStatusInput struct {
	OrderID   string
	Status    string
	UpdatedBy string
}
