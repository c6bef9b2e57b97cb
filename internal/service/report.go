package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/metrics"
	"github.com/Skotchmaster/storefront/pkg/util"
)

const useCaseSalesReport = "report.sales"

// SalesQuery is the raw admin query. Dates are RFC3339 or YYYY-MM-DD.
type SalesQuery struct {
	Page     int
	Limit    int
	SortBy   string
	Order    string
	From     string
	To       string
	UserName string
}

type SalesMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type SalesReport struct {
	Meta SalesMeta      `json:"meta"`
	Data []models.Order `json:"data"`
}

type ReportService struct {
	Orders  repo.OrderRepository
	Metrics *metrics.Metrics
}

func (s *ReportService) Sales(ctx context.Context, q SalesQuery) (_ *SalesReport, err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
		}
		s.Metrics.ObserveUseCase(useCaseSalesReport, outcome, start)
	}()

	f, err := q.SalesFilter()
	if err != nil {
		return nil, err
	}

	total, orders, err := s.Orders.SalesReport(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: sales report: %v", ErrInternal, err)
	}

	return &SalesReport{
		Meta: SalesMeta{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: util.TotalPages(total, q.Limit),
		},
		Data: orders,
	}, nil
}
