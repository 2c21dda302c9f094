package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charbel0004/Unishelf-sub000/internal/domain"
	"github.com/charbel0004/Unishelf-sub000/internal/repository"
	"github.com/charbel0004/Unishelf-sub000/internal/security"

	"github.com/shopspring/decimal"
)

type DailySales struct {
	Date    string          `json:"date"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type SalesReport struct {
	From         time.Time                  `json:"from"`
	To           time.Time                  `json:"to"`
	OrderCount   int                        `json:"orderCount"`
	GuestOrders  int                        `json:"guestOrders"`
	UnitsSold    int                        `json:"unitsSold"`
	Revenue      decimal.Decimal            `json:"revenue"`
	AverageOrder decimal.Decimal            `json:"averageOrder"`
	ByStatus     map[domain.OrderStatus]int `json:"byStatus"`
	Daily        []DailySales               `json:"daily"`
}

type ReportService struct {
	store repository.Store
}

func NewReportService(store repository.Store) *ReportService {
	return &ReportService{store: store}
}

// SalesReport aggregates the orders placed in [from, to). Cancelled orders
// are left out of every figure.
func (s *ReportService) SalesReport(ctx context.Context, p *security.Principal, from, to time.Time) (*SalesReport, error) {
	if !p.IsManager() {
		return nil, domain.ErrForbidden
	}
	if !from.Before(to) {
		v := domain.NewValidationError()
		v.Add("to", "must be after from")
		return nil, v
	}

	orders, err := s.store.Orders().List(ctx, repository.OrderFilter{
		From:          &from,
		To:            &to,
		ExcludeStatus: []domain.OrderStatus{domain.StatusCancelled},
	})
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	rep := &SalesReport{
		From:     from,
		To:       to,
		Revenue:  decimal.Zero,
		ByStatus: map[domain.OrderStatus]int{},
	}
	daily := map[string]*DailySales{}
	for _, o := range orders {
		rep.OrderCount++
		if o.UserID == nil {
			rep.GuestOrders++
		}
		rep.Revenue = rep.Revenue.Add(o.GrandTotal)
		rep.ByStatus[o.Status]++
		for _, it := range o.Items {
			rep.UnitsSold += it.Quantity
		}

		day := o.OrderDate.UTC().Format("2006-01-02")
		d, ok := daily[day]
		if !ok {
			d = &DailySales{Date: day, Revenue: decimal.Zero}
			daily[day] = d
		}
		d.Orders++
		d.Revenue = d.Revenue.Add(o.GrandTotal)
	}

	rep.AverageOrder = decimal.Zero
	if rep.OrderCount > 0 {
		rep.AverageOrder = rep.Revenue.Div(decimalFromInt(rep.OrderCount)).Round(2)
	}
	rep.Daily = make([]DailySales, 0, len(daily))
	for _, d := range daily {
		rep.Daily = append(rep.Daily, *d)
	}
	sort.Slice(rep.Daily, func(i, j int) bool { return rep.Daily[i].Date < rep.Daily[j].Date })
	return rep, nil
}
