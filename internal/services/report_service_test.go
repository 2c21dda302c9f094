package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charbel0004/Unishelf-sub000/internal/domain"
	"github.com/charbel0004/Unishelf-sub000/internal/mocks"
	"github.com/charbel0004/Unishelf-sub000/internal/repository"
	"github.com/charbel0004/Unishelf-sub000/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func reportOrder(id uint64, userID *uint64, status domain.OrderStatus, day string, total int64, items ...domain.OrderItem) domain.Order {
	o := CreateMockOrder(id, userID, status, items...)
	o.OrderDate, _ = time.Parse("2006-01-02 15:04", day)
	o.GrandTotal = decimal.NewFromInt(total)
	return *o
}

func TestReportService_SalesReport(t *testing.T) {
	store := mocks.NewMockStore()
	svc := NewReportService(store)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	orders := []domain.Order{
		reportOrder(1, testutil.Uint64Ptr(TestUserID), domain.StatusDelivered, "2024-03-02 10:00", 20, CreateMockItem(1, 1, 2, 10)),
		reportOrder(2, nil, domain.StatusPending, "2024-03-02 18:30", 10, CreateMockItem(2, 1, 1, 10)),
		reportOrder(3, testutil.Uint64Ptr(TestUserID), domain.StatusShipped, "2024-03-05 09:15", 15, CreateMockItem(3, 2, 3, 5)),
	}
	store.OrderRepo.On("List", mock.Anything, mock.MatchedBy(func(f repository.OrderFilter) bool {
		return f.From.Equal(from) && f.To.Equal(to) &&
			len(f.ExcludeStatus) == 1 && f.ExcludeStatus[0] == domain.StatusCancelled
	})).Return(orders, nil)

	rep, err := svc.SalesReport(context.Background(), manager(), from, to)

	require.NoError(t, err)
	assert.Equal(t, 3, rep.OrderCount)
	assert.Equal(t, 1, rep.GuestOrders)
	assert.Equal(t, 6, rep.UnitsSold)
	assert.True(t, rep.Revenue.Equal(decimal.NewFromInt(45)))
	assert.True(t, rep.AverageOrder.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, 1, rep.ByStatus[domain.StatusPending])
	require.Len(t, rep.Daily, 2)
	assert.Equal(t, "2024-03-02", rep.Daily[0].Date)
	assert.Equal(t, 2, rep.Daily[0].Orders)
	assert.True(t, rep.Daily[0].Revenue.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "2024-03-05", rep.Daily[1].Date)
}

func TestReportService_SalesReport_Empty(t *testing.T) {
	store := mocks.NewMockStore()
	store.OrderRepo.On("List", mock.Anything, mock.Anything).Return([]domain.Order{}, nil)

	rep, err := NewReportService(store).SalesReport(context.Background(), manager(), time.Now().Add(-time.Hour), time.Now())

	require.NoError(t, err)
	assert.Zero(t, rep.OrderCount)
	assert.True(t, rep.AverageOrder.IsZero())
	assert.Empty(t, rep.Daily)
}

func TestReportService_SalesReport_Rejections(t *testing.T) {
	svc := NewReportService(mocks.NewMockStore())
	now := time.Now()

	_, err := svc.SalesReport(context.Background(), employee(), now.Add(-time.Hour), now)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.SalesReport(context.Background(), manager(), now, now)
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
}
