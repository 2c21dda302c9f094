package services

import (
	"context"
	"errors"
	"testing"

	"github.com/charbel0004/Unishelf-sub000/internal/domain"
	"github.com/charbel0004/Unishelf-sub000/internal/infra/cache"
	"github.com/charbel0004/Unishelf-sub000/internal/mocks"
	"github.com/charbel0004/Unishelf-sub000/internal/repository"
	"github.com/charbel0004/Unishelf-sub000/internal/security"
	"github.com/charbel0004/Unishelf-sub000/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMockedOrderService(t *testing.T) (*OrderService, *mocks.MockStore, *mocks.MockPublisher, security.Obfuscator) {
	t.Helper()
	store := mocks.NewMockStore()
	pub := new(mocks.MockPublisher)
	ids := testutil.NewObfuscator(t)
	return NewOrderService(store, ids, pub), store, pub, ids
}

func customer() *security.Principal {
	return &security.Principal{UserID: TestUserID, Role: domain.RoleCustomer}
}

func employee() *security.Principal {
	return &security.Principal{UserID: TestStaffID, Role: domain.RoleEmployee}
}

func manager() *security.Principal {
	return &security.Principal{UserID: TestStaffID + 1, Role: domain.RoleManager}
}

func TestOrderService_PlaceOrder(t *testing.T) {
	tests := []struct {
		name          string
		product       *domain.Product
		quantity      int
		principal     func() *security.Principal
		setupMocks    func(*mocks.MockStore, *mocks.MockPublisher)
		expectedError error
		expectedQty   *int
	}{
		{
			name:      "successful order reserves tracked stock",
			product:   CreateMockProduct(TestProductID, TestProductName, TestProductPrice, testutil.IntPtr(TestProductQty), true),
			quantity:  3,
			principal: customer,
			setupMocks: func(s *mocks.MockStore, pub *mocks.MockPublisher) {
				s.OrderRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Run(func(args mock.Arguments) {
					args.Get(1).(*domain.Order).ID = TestOrderID
				})
				s.OrderRepo.On("CreateAddress", mock.Anything, mock.AnythingOfType("*domain.DeliveryAddress")).Return(nil)
				s.ProductRepo.On("SaveStock", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)
				s.OrderRepo.On("CreateItem", mock.Anything, mock.AnythingOfType("*domain.OrderItem")).Return(nil)
				pub.On("Publish", mock.Anything, domain.EventOrderCreated, mock.AnythingOfType("domain.OrderCreatedEvent")).Return(nil)
			},
			expectedQty: testutil.IntPtr(2),
		},
		{
			name:      "untracked product is never written back",
			product:   CreateMockProduct(TestProductID, TestProductName, TestProductPrice, nil, true),
			quantity:  40,
			principal: customer,
			setupMocks: func(s *mocks.MockStore, pub *mocks.MockPublisher) {
				s.OrderRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
				s.OrderRepo.On("CreateAddress", mock.Anything, mock.AnythingOfType("*domain.DeliveryAddress")).Return(nil)
				s.OrderRepo.On("CreateItem", mock.Anything, mock.AnythingOfType("*domain.OrderItem")).Return(nil)
				pub.On("Publish", mock.Anything, domain.EventOrderCreated, mock.Anything).Return(nil)
			},
		},
		{
			name:      "insufficient stock",
			product:   CreateMockProduct(TestProductID, TestProductName, TestProductPrice, testutil.IntPtr(3), true),
			quantity:  5,
			principal: customer,
			setupMocks: func(s *mocks.MockStore, pub *mocks.MockPublisher) {
				s.OrderRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
				s.OrderRepo.On("CreateAddress", mock.Anything, mock.AnythingOfType("*domain.DeliveryAddress")).Return(nil)
			},
			expectedError: domain.ErrInsufficientStock,
			expectedQty:   testutil.IntPtr(3),
		},
		{
			name:      "unavailable product is rejected for a signed-in buyer",
			product:   CreateMockProduct(TestProductID, TestProductName, TestProductPrice, testutil.IntPtr(10), false),
			quantity:  1,
			principal: customer,
			setupMocks: func(s *mocks.MockStore, pub *mocks.MockPublisher) {
				s.OrderRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
				s.OrderRepo.On("CreateAddress", mock.Anything, mock.AnythingOfType("*domain.DeliveryAddress")).Return(nil)
			},
			expectedError: domain.ErrProductUnavailable,
			expectedQty:   testutil.IntPtr(10),
		},
		{
			name:      "product not found",
			quantity:  1,
			principal: customer,
			setupMocks: func(s *mocks.MockStore, pub *mocks.MockPublisher) {
				s.OrderRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
				s.OrderRepo.On("CreateAddress", mock.Anything, mock.AnythingOfType("*domain.DeliveryAddress")).Return(nil)
			},
			expectedError: domain.ErrProductNotFound,
		},
		{
			name:          "anonymous caller",
			quantity:      1,
			principal:     func() *security.Principal { return nil },
			setupMocks:    func(s *mocks.MockStore, pub *mocks.MockPublisher) {},
			expectedError: domain.ErrUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, pub, ids := newMockedOrderService(t)
			tt.setupMocks(store, pub)
			if tt.product != nil {
				store.ProductRepo.On("FindForUpdate", mock.Anything, TestProductID).Return(tt.product, nil)
			} else {
				store.ProductRepo.On("FindForUpdate", mock.Anything, TestProductID).Return(nil, nil).Maybe()
			}

			order, err := svc.PlaceOrder(context.Background(), tt.principal(), PlaceOrderInput{
				Address: ValidAddress(),
				Items: []ItemInput{{
					ProductID: ids.Encode(TestProductID),
					Quantity:  tt.quantity,
					UnitPrice: decimal.NewFromInt(TestProductPrice),
				}},
			})

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, order)
				pub.AssertNotCalled(t, "Publish", mock.Anything, domain.EventOrderCreated, mock.Anything)
			} else {
				require.NoError(t, err)
				require.NotNil(t, order)
				assert.Equal(t, domain.StatusPending, order.Status)
				require.Len(t, order.Items, 1)
				assert.Equal(t, tt.quantity, order.Items[0].Quantity)
				assert.True(t, order.Items[0].TotalPrice.Equal(decimal.NewFromInt(TestProductPrice*int64(tt.quantity))))
				assert.Equal(t, TestUserID, *order.UserID)
			}

			if tt.expectedQty != nil {
				require.NotNil(t, tt.product.Quantity)
				assert.Equal(t, *tt.expectedQty, *tt.product.Quantity)
			}
			if tt.product != nil && !tt.product.Tracked() {
				store.ProductRepo.AssertNotCalled(t, "SaveStock", mock.Anything, mock.Anything)
			}
			store.OrderRepo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestOrderService_PlaceOrder_OnBehalfOfAnotherUser(t *testing.T) {
	svc, store, _, ids := newMockedOrderService(t)

	_, err := svc.PlaceOrder(context.Background(), customer(), PlaceOrderInput{
		UserID:  ids.Encode(TestUserID + 1),
		Address: ValidAddress(),
		Items:   []ItemInput{{ProductID: ids.Encode(TestProductID), Quantity: 1}},
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Zero(t, store.TxCalls)
}

func TestOrderService_PlaceOrder_ValidationFailsBeforeTransaction(t *testing.T) {
	svc, store, _, ids := newMockedOrderService(t)
	addr := ValidAddress()
	addr.Street = ""

	_, err := svc.PlaceOrder(context.Background(), customer(), PlaceOrderInput{
		Address: addr,
		Items:   []ItemInput{{ProductID: ids.Encode(TestProductID), Quantity: 1}},
	})

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "deliveryAddress.street")
	assert.Zero(t, store.TxCalls)
}

func TestOrderService_PlaceOrder_PublishFailureDoesNotFailOrder(t *testing.T) {
	svc, store, pub, ids := newMockedOrderService(t)
	store.OrderRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.OrderRepo.On("CreateAddress", mock.Anything, mock.Anything).Return(nil)
	store.OrderRepo.On("CreateItem", mock.Anything, mock.Anything).Return(nil)
	store.ProductRepo.On("FindForUpdate", mock.Anything, TestProductID).
		Return(CreateMockProduct(TestProductID, TestProductName, TestProductPrice, nil, true), nil)
	pub.On("Publish", mock.Anything, domain.EventOrderCreated, mock.Anything).Return(errors.New("broker down"))

	order, err := svc.PlaceOrder(context.Background(), customer(), PlaceOrderInput{
		Address: ValidAddress(),
		Items:   []ItemInput{{ProductID: ids.Encode(TestProductID), Quantity: 1}},
	})

	require.NoError(t, err)
	assert.NotNil(t, order)
}

func TestOrderService_PlaceGuestOrder_IgnoresAvailability(t *testing.T) {
	svc, store, pub, ids := newMockedOrderService(t)
	prod := CreateMockProduct(TestProductID, TestProductName, TestProductPrice, testutil.IntPtr(4), false)
	store.OrderRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.OrderRepo.On("CreateAddress", mock.Anything, mock.Anything).Return(nil)
	store.OrderRepo.On("CreateItem", mock.Anything, mock.Anything).Return(nil)
	store.ProductRepo.On("FindForUpdate", mock.Anything, TestProductID).Return(prod, nil)
	store.ProductRepo.On("SaveStock", mock.Anything, prod).Return(nil)
	pub.On("Publish", mock.Anything, domain.EventOrderCreated, mock.MatchedBy(func(e domain.OrderCreatedEvent) bool {
		return e.Guest && e.UserID == ""
	})).Return(nil)

	order, err := svc.PlaceGuestOrder(context.Background(), PlaceOrderInput{
		UserID:  ids.Encode(TestUserID),
		Address: ValidAddress(),
		Items:   []ItemInput{{ProductID: ids.Encode(TestProductID), Quantity: 4}},
	})

	require.NoError(t, err)
	assert.Nil(t, order.UserID)
	assert.Equal(t, 0, *prod.Quantity)
	assert.False(t, prod.Available)
	pub.AssertExpectations(t)
}

func TestOrderService_PlaceGuestOrder_RejectsMalformedUserID(t *testing.T) {
	svc, store, _, ids := newMockedOrderService(t)

	_, err := svc.PlaceGuestOrder(context.Background(), PlaceOrderInput{
		UserID:  "not-a-token",
		Address: ValidAddress(),
		Items:   []ItemInput{{ProductID: ids.Encode(TestProductID), Quantity: 1}},
	})

	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
	assert.Equal(t, 0, store.TxCalls)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	tests := []struct {
		name          string
		current       domain.OrderStatus
		target        string
		principal     func() *security.Principal
		updatedBy     *uint64
		changeResult  bool
		expectChange  bool
		expectedError error
	}{
		{name: "pending to processing", current: domain.StatusPending, target: "Processing", principal: employee, changeResult: true, expectChange: true},
		{name: "same status is a no-op", current: domain.StatusShipped, target: "Shipped", principal: employee},
		{name: "skipping a step", current: domain.StatusPending, target: "Delivered", principal: manager, expectedError: domain.ErrInvalidTransition},
		{name: "leaving cancelled", current: domain.StatusCancelled, target: "Pending", principal: manager, expectedError: domain.ErrInvalidTransition},
		{name: "customer is forbidden", current: domain.StatusPending, target: "Processing", principal: customer, expectedError: domain.ErrForbidden},
		{name: "employee on another employee's order", current: domain.StatusProcessing, target: "Shipped", principal: employee, updatedBy: testutil.Uint64Ptr(99), expectedError: domain.ErrForbidden},
		{name: "manager on another employee's order", current: domain.StatusProcessing, target: "Shipped", principal: manager, updatedBy: testutil.Uint64Ptr(99), changeResult: true, expectChange: true},
		{name: "concurrent change", current: domain.StatusPending, target: "Processing", principal: employee, changeResult: false, expectChange: true, expectedError: domain.ErrStaleOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, pub, ids := newMockedOrderService(t)
			order := CreateMockOrder(TestOrderID, testutil.Uint64Ptr(TestUserID), tt.current)
			order.UpdatedBy = tt.updatedBy
			store.OrderRepo.On("FindByID", mock.Anything, TestOrderID).Return(order, nil).Maybe()
			if tt.expectChange {
				target, _ := domain.ParseStatus(tt.target)
				store.OrderRepo.On("ChangeStatus", mock.Anything, TestOrderID, tt.current, target, mock.Anything, mock.Anything).Return(tt.changeResult, nil)
			}
			if tt.expectChange && tt.changeResult {
				pub.On("Publish", mock.Anything, domain.EventOrderStatusChanged, mock.AnythingOfType("domain.OrderStatusChangedEvent")).Return(nil)
			}

			got, err := svc.UpdateStatus(context.Background(), tt.principal(), UpdateStatusInput{
				OrderID: ids.Encode(TestOrderID),
				Status:  tt.target,
			})

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.OrderStatus(tt.target), got.Status)
			}
			if !tt.expectChange {
				store.OrderRepo.AssertNotCalled(t, "ChangeStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
			store.OrderRepo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestOrderService_UpdateStatus_CancelRestocksTrackedItems(t *testing.T) {
	svc, store, pub, ids := newMockedOrderService(t)
	tracked := CreateMockProduct(1, "Notebook", 5, testutil.IntPtr(0), false)
	untracked := CreateMockProduct(2, "E-book", 9, nil, true)
	order := CreateMockOrder(TestOrderID, nil, domain.StatusProcessing,
		CreateMockItem(TestOrderID, 1, 2, 5),
		CreateMockItem(TestOrderID, 2, 1, 9),
	)

	store.OrderRepo.On("FindByID", mock.Anything, TestOrderID).Return(order, nil)
	store.OrderRepo.On("ChangeStatus", mock.Anything, TestOrderID, domain.StatusProcessing, domain.StatusCancelled, mock.Anything, mock.Anything).Return(true, nil)
	store.ProductRepo.On("FindForUpdate", mock.Anything, uint64(1)).Return(tracked, nil)
	store.ProductRepo.On("FindForUpdate", mock.Anything, uint64(2)).Return(untracked, nil)
	store.ProductRepo.On("SaveStock", mock.Anything, tracked).Return(nil).Once()
	pub.On("Publish", mock.Anything, domain.EventOrderStatusChanged, mock.MatchedBy(func(e domain.OrderStatusChangedEvent) bool {
		return e.Restocked && e.To == domain.StatusCancelled
	})).Return(nil)

	got, err := svc.UpdateStatus(context.Background(), employee(), UpdateStatusInput{
		OrderID: ids.Encode(TestOrderID),
		Status:  "Cancelled",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Equal(t, 2, *tracked.Quantity)
	assert.True(t, tracked.Available)
	assert.Nil(t, untracked.Quantity)
	store.ProductRepo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestOrderService_UpdateStatus_ActingAsAnotherStaffMember(t *testing.T) {
	svc, _, _, ids := newMockedOrderService(t)

	_, err := svc.UpdateStatus(context.Background(), employee(), UpdateStatusInput{
		OrderID:   ids.Encode(TestOrderID),
		Status:    "Processing",
		UpdatedBy: ids.Encode(TestStaffID + 5),
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestOrderService_UpdateStatus_UnknownStatus(t *testing.T) {
	svc, _, _, ids := newMockedOrderService(t)

	_, err := svc.UpdateStatus(context.Background(), manager(), UpdateStatusInput{
		OrderID: ids.Encode(TestOrderID),
		Status:  "Lost",
	})

	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestOrderService_UpdateStatus_TamperedOrderID(t *testing.T) {
	svc, store, _, _ := newMockedOrderService(t)

	_, err := svc.UpdateStatus(context.Background(), manager(), UpdateStatusInput{
		OrderID: "not-a-real-token",
		Status:  "Processing",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
	assert.Zero(t, store.TxCalls)
}

func TestOrderService_ListOrders(t *testing.T) {
	t.Run("employee only sees untouched or own orders", func(t *testing.T) {
		svc, store, _, _ := newMockedOrderService(t)
		store.OrderRepo.On("List", mock.Anything, mock.MatchedBy(func(f repository.OrderFilter) bool {
			return f.VisibleTo != nil && *f.VisibleTo == TestStaffID
		})).Return([]domain.Order{}, nil)

		_, err := svc.ListOrders(context.Background(), employee())
		require.NoError(t, err)
		store.OrderRepo.AssertExpectations(t)
	})

	t.Run("manager sees everything", func(t *testing.T) {
		svc, store, _, _ := newMockedOrderService(t)
		store.OrderRepo.On("List", mock.Anything, mock.MatchedBy(func(f repository.OrderFilter) bool {
			return f.VisibleTo == nil
		})).Return([]domain.Order{*CreateMockOrder(1, nil, domain.StatusPending)}, nil)

		orders, err := svc.ListOrders(context.Background(), manager())
		require.NoError(t, err)
		assert.Len(t, orders, 1)
	})

	t.Run("customer is forbidden", func(t *testing.T) {
		svc, _, _, _ := newMockedOrderService(t)
		_, err := svc.ListOrders(context.Background(), customer())
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestOrderService_ListUserOrders(t *testing.T) {
	t.Run("cache hit skips the store", func(t *testing.T) {
		svc, store, _, ids := newMockedOrderService(t)
		c := new(mocks.MockCache)
		svc.SetCache(c)
		c.On("Get", mock.Anything, cache.UserOrdersKey(TestUserID), mock.Anything).Return(true, nil)

		_, err := svc.ListUserOrders(context.Background(), customer(), ids.Encode(TestUserID))
		require.NoError(t, err)
		store.OrderRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("cache miss loads and stores", func(t *testing.T) {
		svc, store, _, ids := newMockedOrderService(t)
		c := new(mocks.MockCache)
		svc.SetCache(c)
		orders := []domain.Order{*CreateMockOrder(3, testutil.Uint64Ptr(TestUserID), domain.StatusPending)}
		c.On("Get", mock.Anything, cache.UserOrdersKey(TestUserID), mock.Anything).Return(false, nil)
		c.On("Set", mock.Anything, cache.UserOrdersKey(TestUserID), orders).Return(nil)
		store.OrderRepo.On("List", mock.Anything, mock.Anything).Return(orders, nil)

		got, err := svc.ListUserOrders(context.Background(), customer(), ids.Encode(TestUserID))
		require.NoError(t, err)
		assert.Equal(t, orders, got)
		c.AssertExpectations(t)
	})

	t.Run("other customer is forbidden", func(t *testing.T) {
		svc, _, _, ids := newMockedOrderService(t)
		_, err := svc.ListUserOrders(context.Background(), customer(), ids.Encode(TestUserID+1))
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestOrderService_GetOrder_HidesOtherBuyersOrders(t *testing.T) {
	svc, store, _, ids := newMockedOrderService(t)
	store.OrderRepo.On("FindByID", mock.Anything, TestOrderID).
		Return(CreateMockOrder(TestOrderID, testutil.Uint64Ptr(TestUserID+1), domain.StatusPending), nil)

	_, err := svc.GetOrder(context.Background(), customer(), ids.Encode(TestOrderID))
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	got, err := svc.GetOrder(context.Background(), employee(), ids.Encode(TestOrderID))
	require.NoError(t, err)
	assert.Equal(t, TestOrderID, got.ID)
}
