package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charbel0004/Unishelf-sub000/internal/domain"
	"github.com/charbel0004/Unishelf-sub000/internal/infra"
	"github.com/charbel0004/Unishelf-sub000/internal/infra/cache"
	"github.com/charbel0004/Unishelf-sub000/internal/metrics"
	"github.com/charbel0004/Unishelf-sub000/internal/repository"
	"github.com/charbel0004/Unishelf-sub000/internal/security"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// stockPolicy selects how placement treats the availability flag.
type stockPolicy int

const (
	// strictStock rejects unavailable products before reserving anything.
	strictStock stockPolicy = iota
	// lenientStock ignores the availability flag and only fails when tracked
	// stock is short. Guest checkout has always behaved this way.
	lenientStock
)

const publishTimeout = 2 * time.Second

type OrderService struct {
	store     repository.Store
	ids       security.Obfuscator
	publisher infra.EventPublisher
	cache     cache.Cache
	log       zerolog.Logger
	now       func() time.Time

	enforceTransitions bool
}

func NewOrderService(store repository.Store, ids security.Obfuscator, pub infra.EventPublisher) *OrderService {
	if pub == nil {
		pub = infra.NopPublisher{}
	}
	return &OrderService{
		store:              store,
		ids:                ids,
		publisher:          pub,
		cache:              cache.Nop{},
		log:                zerolog.Nop(),
		now:                func() time.Time { return time.Now().UTC() },
		enforceTransitions: true,
	}
}

func (s *OrderService) SetCache(c cache.Cache) { s.cache = c }

func (s *OrderService) SetLogger(l zerolog.Logger) { s.log = l }

// SetEnforceTransitions toggles server-side validation of the status graph.
// Leaving Cancelled is refused either way.
func (s *OrderService) SetEnforceTransitions(v bool) { s.enforceTransitions = v }

// PlaceOrder runs checkout for a signed-in buyer. Unavailable products and
// short stock are both rejected.
func (s *OrderService) PlaceOrder(ctx context.Context, p *security.Principal, in PlaceOrderInput) (*domain.Order, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	buyer := p.UserID
	id, err := security.DecodeOptional(s.ids, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("userID: %w", err)
	}
	if id != nil {
		if *id != p.UserID && !p.IsStaff() {
			return nil, fmt.Errorf("%w: cannot order on behalf of another user", domain.ErrForbidden)
		}
		buyer = *id
	}
	return s.place(ctx, &buyer, in, strictStock)
}

// PlaceGuestOrder runs checkout without a buyer account. The availability
// flag is not consulted; tracked stock still has to cover the request.
// A userID that decodes is dropped, one that does not is refused.
func (s *OrderService) PlaceGuestOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	if _, err := security.DecodeOptional(s.ids, in.UserID); err != nil {
		return nil, fmt.Errorf("userID: %w", err)
	}
	return s.place(ctx, nil, in, lenientStock)
}

func (s *OrderService) place(ctx context.Context, buyer *uint64, in PlaceOrderInput, policy stockPolicy) (*domain.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	order := &domain.Order{
		UserID:         buyer,
		OrderDate:      parseOrderDate(in.OrderDate, now),
		Subtotal:       nonNegative(in.Subtotal),
		DeliveryCharge: nonNegative(in.DeliveryCharge),
		GrandTotal:     nonNegative(in.GrandTotal),
		Status:         in.status(),
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Orders().Create(ctx, order); err != nil {
			return fmt.Errorf("save order: %w", err)
		}

		addr := &domain.DeliveryAddress{
			OrderID:     order.ID,
			Street:      in.Address.Street,
			City:        in.Address.City,
			PostalCode:  in.Address.PostalCode,
			Country:     in.Address.Country,
			State:       in.Address.State,
			PhoneNumber: in.Address.PhoneNumber,
		}
		if err := tx.Orders().CreateAddress(ctx, addr); err != nil {
			return fmt.Errorf("save delivery address: %w", err)
		}
		order.DeliveryAddress = addr

		order.Items = make([]domain.OrderItem, 0, len(in.Items))
		for i, it := range in.Items {
			item, err := s.reserveItem(ctx, tx, order.ID, it, policy)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			order.Items = append(order.Items, *item)
		}
		return nil
	})
	if err != nil {
		metrics.OrdersRejected.WithLabelValues(rejectReason(err)).Inc()
		s.logger(ctx).Warn().Err(err).Bool("guest", buyer == nil).Msg("order placement rolled back")
		return nil, err
	}

	variant := "authenticated"
	if buyer == nil {
		variant = "guest"
	}
	metrics.OrdersPlaced.WithLabelValues(variant).Inc()
	s.logger(ctx).Info().Uint64("orderId", order.ID).Str("variant", variant).Int("items", len(order.Items)).Msg("order placed")

	s.afterPlace(ctx, order)
	return order, nil
}

// reserveItem resolves and locks the product, takes the stock and writes the
// order line.
func (s *OrderService) reserveItem(ctx context.Context, tx repository.Store, orderID uint64, in ItemInput, policy stockPolicy) (*domain.OrderItem, error) {
	productID, err := s.ids.Decode(in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("productID: %w", err)
	}

	prod, err := tx.Products().FindForUpdate(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if prod == nil {
		return nil, domain.ErrProductNotFound
	}

	qty := in.Quantity
	if qty <= 0 {
		qty = 1
	}

	if policy == strictStock && !prod.Available {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductUnavailable, prod.Name)
	}
	if err := prod.Reserve(qty); err != nil {
		return nil, err
	}
	if prod.Tracked() {
		if err := tx.Products().SaveStock(ctx, prod); err != nil {
			return nil, fmt.Errorf("update stock: %w", err)
		}
	}

	total := in.TotalPrice
	if !total.IsPositive() {
		total = in.UnitPrice.Mul(decimalFromInt(qty))
	}
	item := &domain.OrderItem{
		OrderID:    orderID,
		ProductID:  productID,
		Quantity:   qty,
		UnitPrice:  in.UnitPrice,
		TotalPrice: total,
	}
	if err := tx.Orders().CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("save order item: %w", err)
	}
	return item, nil
}

func (s *OrderService) afterPlace(ctx context.Context, order *domain.Order) {
	keys := []string{cache.ProductListKey}
	evt := domain.OrderCreatedEvent{
		EventID:    uuid.NewString(),
		OrderID:    s.ids.Encode(order.ID),
		Guest:      order.UserID == nil,
		ItemCount:  len(order.Items),
		GrandTotal: order.GrandTotal,
		CreatedAt:  order.CreatedAt,
	}
	if order.UserID != nil {
		evt.UserID = s.ids.Encode(*order.UserID)
		keys = append(keys, cache.UserOrdersKey(*order.UserID))
	}
	s.invalidate(ctx, keys...)
	s.publish(ctx, domain.EventOrderCreated, evt)
}

// UpdateStatus moves an order along its workflow. Moving into Cancelled puts
// every item's quantity back on its product, exactly once.
func (s *OrderService) UpdateStatus(ctx context.Context, p *security.Principal, in UpdateStatusInput) (*domain.Order, error) {
	if !p.IsStaff() {
		return nil, domain.ErrForbidden
	}

	orderID, err := s.ids.Decode(in.OrderID)
	if err != nil {
		return nil, fmt.Errorf("orderID: %w", err)
	}
	to, ok := domain.ParseStatus(in.Status)
	if !ok {
		v := domain.NewValidationError()
		v.Add("status", "unknown status "+in.Status)
		return nil, v
	}

	actor := p.UserID
	if in.UpdatedBy != "" {
		id, err := s.ids.Decode(in.UpdatedBy)
		if err != nil {
			return nil, fmt.Errorf("updatedBy: %w", err)
		}
		if id != p.UserID && !p.IsManager() {
			return nil, fmt.Errorf("%w: cannot act as another staff member", domain.ErrForbidden)
		}
		actor = id
	}

	var (
		order     *domain.Order
		from      domain.OrderStatus
		changed   bool
		restocked bool
	)
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		o, err := tx.Orders().FindByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if o == nil {
			return domain.ErrOrderNotFound
		}
		if !p.IsManager() && o.UpdatedBy != nil && *o.UpdatedBy != p.UserID {
			return fmt.Errorf("%w: order is handled by another employee", domain.ErrForbidden)
		}

		from = o.Status
		order = o
		if from == to {
			return nil
		}
		if from == domain.StatusCancelled || (s.enforceTransitions && !domain.CanTransition(from, to)) {
			return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, from, to)
		}

		now := s.now()
		ok, err := tx.Orders().ChangeStatus(ctx, orderID, from, to, &actor, now)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if !ok {
			return domain.ErrStaleOrder
		}
		changed = true
		o.Status = to
		o.UpdatedBy = &actor
		o.UpdatedAt = now

		if to == domain.StatusCancelled {
			if err := restock(ctx, tx, o); err != nil {
				return err
			}
			restocked = true
		}
		return nil
	})
	if err != nil {
		s.logger(ctx).Warn().Err(err).Uint64("orderId", orderID).Str("to", string(to)).Msg("status update rolled back")
		return nil, err
	}
	if !changed {
		return order, nil
	}

	if restocked {
		metrics.OrdersCancelled.Inc()
	}
	s.logger(ctx).Info().Uint64("orderId", orderID).Str("from", string(from)).Str("to", string(to)).Uint64("by", actor).Msg("order status changed")

	if order.UserID != nil {
		s.invalidate(ctx, cache.UserOrdersKey(*order.UserID))
	}
	if restocked {
		s.invalidate(ctx, cache.ProductListKey)
	}
	s.publish(ctx, domain.EventOrderStatusChanged, domain.OrderStatusChangedEvent{
		EventID:   uuid.NewString(),
		OrderID:   in.OrderID,
		From:      from,
		To:        to,
		UpdatedBy: s.ids.Encode(actor),
		Restocked: restocked,
		ChangedAt: order.UpdatedAt,
	})
	return order, nil
}

func restock(ctx context.Context, tx repository.Store, o *domain.Order) error {
	for _, it := range o.Items {
		prod, err := tx.Products().FindForUpdate(ctx, it.ProductID)
		if err != nil {
			return fmt.Errorf("load product %d: %w", it.ProductID, err)
		}
		if prod == nil {
			return fmt.Errorf("restock product %d: %w", it.ProductID, domain.ErrProductNotFound)
		}
		if !prod.Tracked() {
			continue
		}
		prod.Restore(it.Quantity)
		if err := tx.Products().SaveStock(ctx, prod); err != nil {
			return fmt.Errorf("restore stock for product %d: %w", it.ProductID, err)
		}
	}
	return nil
}

// ListOrders returns every order the staff member may see: all of them for a
// manager, untouched orders and their own for an employee.
func (s *OrderService) ListOrders(ctx context.Context, p *security.Principal) ([]domain.Order, error) {
	if !p.IsStaff() {
		return nil, domain.ErrForbidden
	}
	var f repository.OrderFilter
	if !p.IsManager() {
		id := p.UserID
		f.VisibleTo = &id
	}
	orders, err := s.store.Orders().List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, p *security.Principal, opaqueUserID string) ([]domain.Order, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	userID, err := s.ids.Decode(opaqueUserID)
	if err != nil {
		return nil, fmt.Errorf("userID: %w", err)
	}
	if !p.CanSeeUser(userID) {
		return nil, domain.ErrForbidden
	}

	key := cache.UserOrdersKey(userID)
	var cached []domain.Order
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger(ctx).Warn().Err(err).Str("key", key).Msg("cache read failed")
	} else if found {
		return cached, nil
	}

	orders, err := s.store.Orders().List(ctx, repository.OrderFilter{UserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	if err := s.cache.Set(ctx, key, orders); err != nil {
		s.logger(ctx).Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return orders, nil
}

// GetOrder is open to staff and to the buyer who placed the order.
func (s *OrderService) GetOrder(ctx context.Context, p *security.Principal, opaqueOrderID string) (*domain.Order, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	id, err := s.ids.Decode(opaqueOrderID)
	if err != nil {
		return nil, fmt.Errorf("orderID: %w", err)
	}
	o, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	if !p.IsStaff() && (o.UserID == nil || *o.UserID != p.UserID) {
		// do not reveal that the order exists
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderService) publish(ctx context.Context, key string, evt any) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pctx, key, evt); err != nil {
		s.logger(ctx).Error().Err(err).Str("event", key).Msg("failed to publish event")
	}
}

func (s *OrderService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger(ctx).Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}

func (s *OrderService) logger(ctx context.Context) *zerolog.Logger {
	return loggerFrom(ctx, &s.log)
}

func rejectReason(err error) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.Is(err, domain.ErrInvalidIdentifier):
		return "invalid_identifier"
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrProductUnavailable):
		return "product_unavailable"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "internal"
	}
}
