package handlers

import (
	"testing"
	"time"

	"tabletap-order-service/internal/order"
)

func TestBuildAnalyticsEarningsAndCounts(t *testing.T) {
	now := time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)
	today := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	earlierThisMonth := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, 7, 20, 12, 0, 0, 0, time.UTC)

	orders := []order.Order{
		{Status: order.StatusCompleted, TotalAmount: 500, CreatedAt: today},
		{Status: order.StatusCompleted, TotalAmount: 300, CreatedAt: earlierThisMonth},
		{Status: order.StatusCompleted, TotalAmount: 200, CreatedAt: lastMonth},
		{Status: order.StatusPending, TotalAmount: 150, CreatedAt: today},
		{Status: order.StatusCancelled, TotalAmount: 400, CreatedAt: today},
	}

	got := buildAnalytics(orders, now)

	if got.TodayEarnings != 500 {
		t.Fatalf("expected today earnings 500, got %v", got.TodayEarnings)
	}
	if got.MonthlyEarnings != 800 {
		t.Fatalf("expected monthly earnings 800, got %v", got.MonthlyEarnings)
	}
	if got.TotalOrders != 5 || got.TodayOrders != 3 || got.MonthlyOrders != 4 {
		t.Fatalf("unexpected order counts: total %d today %d monthly %d",
			got.TotalOrders, got.TodayOrders, got.MonthlyOrders)
	}
	if got.PendingOrders != 1 || got.CompletedOrders != 3 || got.CancelledOrders != 1 {
		t.Fatalf("unexpected status counts: pending %d completed %d cancelled %d",
			got.PendingOrders, got.CompletedOrders, got.CancelledOrders)
	}
	// 1000 over three completed orders; cancelled and pending money excluded.
	if diff := got.AverageOrderValue - 1000.0/3.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected average order value 1000/3, got %v", got.AverageOrderValue)
	}
}

func TestBuildAnalyticsTopSellingItems(t *testing.T) {
	now := time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)
	placed := now.Add(-2 * time.Hour)

	orders := []order.Order{
		{Status: order.StatusCompleted, CreatedAt: placed, Items: []order.Line{
			{ItemID: 1, Name: "Margherita", Price: 250, Quantity: 2},
			{ItemID: 2, Name: "Coke", Price: 50, Quantity: 1},
		}},
		{Status: order.StatusCompleted, CreatedAt: placed, Items: []order.Line{
			{ItemID: 2, Name: "Coke", Price: 50, Quantity: 4},
		}},
		// Cancelled orders never feed the leaderboard.
		{Status: order.StatusCancelled, CreatedAt: placed, Items: []order.Line{
			{ItemID: 3, Name: "Biryani", Price: 180, Quantity: 9},
		}},
	}

	got := buildAnalytics(orders, now)

	if len(got.TopSellingItems) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got.TopSellingItems))
	}
	if got.TopSellingItems[0].Name != "Coke" || got.TopSellingItems[0].Quantity != 5 {
		t.Fatalf("expected Coke x5 first, got %+v", got.TopSellingItems[0])
	}
	if got.TopSellingItems[0].Revenue != 250 {
		t.Fatalf("expected Coke revenue 250, got %v", got.TopSellingItems[0].Revenue)
	}
	if got.TopSellingItems[1].Name != "Margherita" || got.TopSellingItems[1].Revenue != 500 {
		t.Fatalf("expected Margherita revenue 500, got %+v", got.TopSellingItems[1])
	}
}

func TestBuildAnalyticsHourlySlots(t *testing.T) {
	now := time.Date(2026, 8, 29, 23, 0, 0, 0, time.UTC)

	orders := []order.Order{
		{Status: order.StatusCompleted, TotalAmount: 120, CreatedAt: time.Date(2026, 8, 29, 9, 15, 0, 0, time.UTC)},
		{Status: order.StatusPending, TotalAmount: 60, CreatedAt: time.Date(2026, 8, 29, 9, 45, 0, 0, time.UTC)},
		{Status: order.StatusCompleted, TotalAmount: 90, CreatedAt: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)},
	}

	got := buildAnalytics(orders, now)

	if len(got.HourlyStats) != 24 {
		t.Fatalf("expected 24 slots, got %d", len(got.HourlyStats))
	}
	nine := got.HourlyStats[9]
	if nine.Orders != 2 {
		t.Fatalf("expected 2 orders at 09:00, got %d", nine.Orders)
	}
	// Yesterday's order stays out; pending counts as an order but not revenue.
	if nine.Revenue != 120 {
		t.Fatalf("expected revenue 120 at 09:00, got %v", nine.Revenue)
	}
}
