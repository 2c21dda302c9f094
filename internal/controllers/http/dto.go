package http

import (
	"time"

	"github.com/charbel0004/Unishelf-sub000/internal/domain"
	"github.com/charbel0004/Unishelf-sub000/internal/security"
	"github.com/charbel0004/Unishelf-sub000/internal/services"

	"github.com/shopspring/decimal"
)

type AddressRequest struct {
	Street      string `json:"street"`
	City        string `json:"city"`
	PostalCode  string `json:"postalCode"`
	Country     string `json:"country"`
	State       string `json:"state"`
	PhoneNumber string `json:"phoneNumber"`
}

type OrderItemRequest struct {
	ProductID  string          `json:"productID"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// PlaceOrderRequest is the checkout body. Every identifier in it is opaque.
type PlaceOrderRequest struct {
	UserID          string             `json:"userID"`
	OrderDate       string             `json:"orderDate"`
	Subtotal        *decimal.Decimal   `json:"subtotal"`
	DeliveryCharge  *decimal.Decimal   `json:"deliveryCharge"`
	GrandTotal      *decimal.Decimal   `json:"grandTotal"`
	Status          string             `json:"status"`
	DeliveryAddress *AddressRequest    `json:"deliveryAddress"`
	Items           []OrderItemRequest `json:"items"`
}

func (r PlaceOrderRequest) toInput() services.PlaceOrderInput {
	in := services.PlaceOrderInput{
		UserID:         r.UserID,
		OrderDate:      r.OrderDate,
		Subtotal:       r.Subtotal,
		DeliveryCharge: r.DeliveryCharge,
		GrandTotal:     r.GrandTotal,
		Status:         r.Status,
		Items:          make([]services.ItemInput, 0, len(r.Items)),
	}
	if a := r.DeliveryAddress; a != nil {
		in.Address = &services.AddressInput{
			Street:      a.Street,
			City:        a.City,
			PostalCode:  a.PostalCode,
			Country:     a.Country,
			State:       a.State,
			PhoneNumber: a.PhoneNumber,
		}
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, services.ItemInput{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		})
	}
	return in
}

type CreateOrderResponse struct {
	OrderID string `json:"orderID"`
}

type UpdateStatusRequest struct {
	OrderID   string `json:"orderID" binding:"required"`
	Status    string `json:"status" binding:"required"`
	UpdatedBy string `json:"updatedBy"`
}

type AddressResponse struct {
	Street      string `json:"street"`
	City        string `json:"city"`
	PostalCode  string `json:"postalCode"`
	Country     string `json:"country"`
	State       string `json:"state,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type OrderItemResponse struct {
	ProductID  string          `json:"productID"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type OrderResponse struct {
	OrderID         string              `json:"orderID"`
	UserID          *string             `json:"userID"`
	OrderDate       time.Time           `json:"orderDate"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	DeliveryCharge  decimal.Decimal     `json:"deliveryCharge"`
	GrandTotal      decimal.Decimal     `json:"grandTotal"`
	Status          domain.OrderStatus  `json:"status"`
	UpdatedBy       *string             `json:"updatedBy"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	Items           []OrderItemResponse `json:"items"`
	DeliveryAddress *AddressResponse    `json:"deliveryAddress,omitempty"`
}

func encodeOptional(ids security.Obfuscator, id *uint64) *string {
	if id == nil {
		return nil
	}
	s := ids.Encode(*id)
	return &s
}

func toOrderResponse(ids security.Obfuscator, o *domain.Order) OrderResponse {
	resp := OrderResponse{
		OrderID:        ids.Encode(o.ID),
		UserID:         encodeOptional(ids, o.UserID),
		OrderDate:      o.OrderDate,
		Subtotal:       o.Subtotal,
		DeliveryCharge: o.DeliveryCharge,
		GrandTotal:     o.GrandTotal,
		Status:         o.Status,
		UpdatedBy:      encodeOptional(ids, o.UpdatedBy),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		Items:          make([]OrderItemResponse, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID:  ids.Encode(it.ProductID),
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		})
	}
	if a := o.DeliveryAddress; a != nil {
		resp.DeliveryAddress = &AddressResponse{
			Street:      a.Street,
			City:        a.City,
			PostalCode:  a.PostalCode,
			Country:     a.Country,
			State:       a.State,
			PhoneNumber: a.PhoneNumber,
		}
	}
	return resp
}

func toOrderResponses(ids security.Obfuscator, orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(ids, &orders[i]))
	}
	return out
}

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    *int            `json:"quantity"`
	Available   *bool           `json:"available"`
}

type AdjustStockRequest struct {
	Quantity  *int  `json:"quantity"`
	Available *bool `json:"available"`
}

type ProductResponse struct {
	ProductID   string          `json:"productID"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    *int            `json:"quantity"`
	Available   bool            `json:"available"`
}

func toProductResponse(ids security.Obfuscator, p *domain.Product) ProductResponse {
	return ProductResponse{
		ProductID:   ids.Encode(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
		Available:   p.Available,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	FullName string `json:"fullName"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SetRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type UserResponse struct {
	UserID   string      `json:"userID"`
	Email    string      `json:"email"`
	FullName string      `json:"fullName"`
	Role     domain.Role `json:"role"`
}

func toUserResponse(ids security.Obfuscator, u *domain.User) UserResponse {
	return UserResponse{
		UserID:   ids.Encode(u.ID),
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}
