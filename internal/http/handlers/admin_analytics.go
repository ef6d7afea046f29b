package handlers

import (
	"net/http"
	"sort"
	"time"

	"tabletap-order-service/internal/order"
	"tabletap-order-service/pkg/response"
)

type itemSales struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type hourlySlot struct {
	Hour    int     `json:"hour"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type analyticsOverview struct {
	TodayEarnings     float64      `json:"todayEarnings"`
	MonthlyEarnings   float64      `json:"monthlyEarnings"`
	TotalOrders       int          `json:"totalOrders"`
	PendingOrders     int          `json:"pendingOrders"`
	InProgressOrders  int          `json:"inProgressOrders"`
	CompletedOrders   int          `json:"completedOrders"`
	CancelledOrders   int          `json:"cancelledOrders"`
	TodayOrders       int          `json:"todayOrders"`
	MonthlyOrders     int          `json:"monthlyOrders"`
	AverageOrderValue float64      `json:"averageOrderValue"`
	TopSellingItems   []itemSales  `json:"topSellingItems"`
	HourlyStats       []hourlySlot `json:"hourlyStats"`
}

// buildAnalytics aggregates the order history into the dashboard numbers.
// Earnings only count completed orders; pending and cancelled money never
// shows up in revenue. Hourly slots cover the 24 hours of today.
func buildAnalytics(orders []order.Order, now time.Time) analyticsOverview {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	out := analyticsOverview{
		TotalOrders:     len(orders),
		TopSellingItems: []itemSales{},
		HourlyStats:     make([]hourlySlot, 24),
	}
	for hour := range out.HourlyStats {
		out.HourlyStats[hour].Hour = hour
	}

	var completedRevenue float64
	sales := map[string]*itemSales{}

	for _, o := range orders {
		createdAt := o.CreatedAt.In(now.Location())
		today := !createdAt.Before(dayStart)
		thisMonth := !createdAt.Before(monthStart)
		if today {
			out.TodayOrders++
			out.HourlyStats[createdAt.Hour()].Orders++
		}
		if thisMonth {
			out.MonthlyOrders++
		}

		switch o.Status {
		case order.StatusPending:
			out.PendingOrders++
		case order.StatusInProgress:
			out.InProgressOrders++
		case order.StatusCancelled:
			out.CancelledOrders++
		case order.StatusCompleted:
			out.CompletedOrders++
			completedRevenue += o.TotalAmount
			if today {
				out.TodayEarnings += o.TotalAmount
				out.HourlyStats[createdAt.Hour()].Revenue += o.TotalAmount
			}
			if thisMonth {
				out.MonthlyEarnings += o.TotalAmount
			}
			for _, line := range o.Items {
				s := sales[line.Name]
				if s == nil {
					s = &itemSales{Name: line.Name}
					sales[line.Name] = s
				}
				s.Quantity += line.Quantity
				s.Revenue += line.Price * float64(line.Quantity)
			}
		}
	}

	if out.CompletedOrders > 0 {
		out.AverageOrderValue = completedRevenue / float64(out.CompletedOrders)
	}

	for _, s := range sales {
		out.TopSellingItems = append(out.TopSellingItems, *s)
	}
	sort.Slice(out.TopSellingItems, func(i, j int) bool {
		if out.TopSellingItems[i].Quantity != out.TopSellingItems[j].Quantity {
			return out.TopSellingItems[i].Quantity > out.TopSellingItems[j].Quantity
		}
		return out.TopSellingItems[i].Name < out.TopSellingItems[j].Name
	})
	if len(out.TopSellingItems) > 5 {
		out.TopSellingItems = out.TopSellingItems[:5]
	}

	return out
}

func (h *Handler) AdminAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `select `+orderColumns+` from orders order by created_at desc`)
	if err != nil {
		h.Logger.Error("analytics query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch analytics")
		return
	}

	orders, err := collectOrders(rows)
	if err != nil {
		h.Logger.Error("analytics scan failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch analytics")
		return
	}

	response.Success(w, buildAnalytics(orders, time.Now()))
}
