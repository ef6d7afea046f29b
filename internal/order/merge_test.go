package order

import (
	"testing"
	"time"
)

func TestMergeUnionsItemsAndSumsTotals(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(10 * time.Minute)

	a := Order{
		ID:          101,
		TableNumber: 5,
		Items:       []Line{{ItemID: 1, Name: "Pizza", Price: 200, Quantity: 1}},
		TotalAmount: 200,
		UpdatedAt:   t1,
	}
	b := Order{
		ID:          102,
		TableNumber: 5,
		Items: []Line{
			{ItemID: 1, Name: "Pizza", Price: 200, Quantity: 1},
			{ItemID: 2, Name: "Coke", Price: 50, Quantity: 2},
		},
		TotalAmount: 300,
		UpdatedAt:   t2,
	}

	got := Merge([]Order{a, b})

	if got.TableNumber != 5 {
		t.Fatalf("expected table 5, got %d", got.TableNumber)
	}
	if got.TotalAmount != 500 {
		t.Fatalf("expected total 500, got %v", got.TotalAmount)
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 merged lines, got %d", len(got.Items))
	}
	if got.Items[0].ItemID != 1 || got.Items[0].Quantity != 2 {
		t.Fatalf("expected Pizza x2, got item %d x%d", got.Items[0].ItemID, got.Items[0].Quantity)
	}
	if got.Items[1].ItemID != 2 || got.Items[1].Quantity != 2 {
		t.Fatalf("expected Coke x2, got item %d x%d", got.Items[1].ItemID, got.Items[1].Quantity)
	}
	if !got.UpdatedAt.Equal(t2) {
		t.Fatalf("expected latest updated_at %v, got %v", t2, got.UpdatedAt)
	}
	if len(got.SourceIDs) != 2 || got.SourceIDs[0] != 101 || got.SourceIDs[1] != 102 {
		t.Fatalf("expected source ids [101 102], got %v", got.SourceIDs)
	}
}

func TestMergeTotalsAreSummedNotRecomputed(t *testing.T) {
	// The frozen totals include billing adjustments from checkout time, so the
	// merged total is the verbatim sum even when it disagrees with
	// price*quantity over the merged lines.
	a := Order{ID: 1, TableNumber: 3, Items: []Line{{ItemID: 1, Price: 100, Quantity: 1}}, TotalAmount: 110}
	b := Order{ID: 2, TableNumber: 3, Items: []Line{{ItemID: 1, Price: 100, Quantity: 1}}, TotalAmount: 105}

	got := Merge([]Order{a, b})
	if got.TotalAmount != 215 {
		t.Fatalf("expected verbatim sum 215, got %v", got.TotalAmount)
	}
	recomputed := 0.0
	for _, line := range got.Items {
		recomputed += line.Price * float64(line.Quantity)
	}
	if recomputed == got.TotalAmount {
		t.Fatalf("expected merged total to differ from recomputation in this fixture")
	}
}

func TestMergeKeepsFirstSeenPrice(t *testing.T) {
	a := Order{ID: 1, TableNumber: 8, Items: []Line{{ItemID: 7, Name: "Soup", Price: 90, Quantity: 1}}, TotalAmount: 90}
	b := Order{ID: 2, TableNumber: 8, Items: []Line{{ItemID: 7, Name: "Soup", Price: 95, Quantity: 1}}, TotalAmount: 95}

	got := Merge([]Order{a, b})
	if len(got.Items) != 1 {
		t.Fatalf("expected single merged line, got %d", len(got.Items))
	}
	if got.Items[0].Price != 90 {
		t.Fatalf("expected first-seen price 90, got %v", got.Items[0].Price)
	}
	if got.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", got.Items[0].Quantity)
	}
}

func TestMergeEmpty(t *testing.T) {
	got := Merge(nil)
	if got.TotalAmount != 0 || len(got.Items) != 0 || len(got.SourceIDs) != 0 {
		t.Fatalf("expected zero value for empty merge, got %+v", got)
	}
}
