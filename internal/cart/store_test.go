package cart

import (
	"testing"

	"tabletap-order-service/internal/order"
)

func TestAddMergesByItemID(t *testing.T) {
	store := NewStore()

	store.Add(3, order.Line{ItemID: 1, Name: "Margherita", Price: 250, Quantity: 1})
	got := store.Add(3, order.Line{ItemID: 1, Name: "Margherita", Price: 250, Quantity: 2})

	if len(got.Items) != 1 {
		t.Fatalf("expected single line, got %d", len(got.Items))
	}
	if got.Items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", got.Items[0].Quantity)
	}
}

func TestAddKeepsDistinctItems(t *testing.T) {
	store := NewStore()
	store.Add(4, order.Line{ItemID: 1, Name: "Pizza", Price: 200, Quantity: 1})
	got := store.Add(4, order.Line{ItemID: 2, Name: "Coke", Price: 50, Quantity: 2})

	if len(got.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got.Items))
	}
	if got.Total() != 300 {
		t.Fatalf("expected total 300, got %v", got.Total())
	}
	if got.Count() != 3 {
		t.Fatalf("expected count 3, got %d", got.Count())
	}
}

func TestSetQuantityRemovesAtZero(t *testing.T) {
	store := NewStore()
	store.Add(2, order.Line{ItemID: 9, Name: "Lassi", Price: 80, Quantity: 2})

	got := store.SetQuantity(2, 9, 5)
	if got.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", got.Items[0].Quantity)
	}

	got = store.SetQuantity(2, 9, 0)
	if len(got.Items) != 0 {
		t.Fatalf("expected empty cart after zero quantity, got %d lines", len(got.Items))
	}
}

func TestRemoveAndClear(t *testing.T) {
	store := NewStore()
	store.Add(6, order.Line{ItemID: 1, Name: "Pizza", Price: 200, Quantity: 1})
	store.Add(6, order.Line{ItemID: 2, Name: "Coke", Price: 50, Quantity: 1})

	got := store.Remove(6, 1)
	if len(got.Items) != 1 || got.Items[0].ItemID != 2 {
		t.Fatalf("expected only item 2 left, got %+v", got.Items)
	}

	store.Clear(6)
	if got := store.Get(6); len(got.Items) != 0 {
		t.Fatalf("expected empty cart after clear, got %d lines", len(got.Items))
	}
}

func TestSetNote(t *testing.T) {
	store := NewStore()
	store.Add(1, order.Line{ItemID: 3, Name: "Biryani", Price: 180, Quantity: 1})

	got := store.SetNote(1, 3, "extra raita")
	if got.Items[0].Note != "extra raita" {
		t.Fatalf("expected note set, got %q", got.Items[0].Note)
	}
}

func TestSwitchingTablesIsFullReplacement(t *testing.T) {
	store := NewStore()
	store.Add(3, order.Line{ItemID: 1, Name: "Pizza", Price: 200, Quantity: 2})

	got := store.Get(7)
	if got.TableNumber != 7 {
		t.Fatalf("expected cart for table 7, got %d", got.TableNumber)
	}
	if len(got.Items) != 0 {
		t.Fatalf("expected empty cart for table 7, got %d lines", len(got.Items))
	}

	// Table 3's cart is untouched and restored on re-selection.
	back := store.Get(3)
	if len(back.Items) != 1 || back.Items[0].Quantity != 2 {
		t.Fatalf("expected table 3 cart restored, got %+v", back.Items)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	store := NewStore()
	got := store.Add(5, order.Line{ItemID: 1, Name: "Pizza", Price: 200, Quantity: 1})

	got.Items[0].Quantity = 99
	if fresh := store.Get(5); fresh.Items[0].Quantity != 1 {
		t.Fatalf("expected store unaffected by snapshot mutation, got %d", fresh.Items[0].Quantity)
	}
}
