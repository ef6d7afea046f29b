package cart

import (
	"sync"

	"tabletap-order-service/internal/order"
)

// Cart accumulates selected lines for exactly one table before checkout.
type Cart struct {
	TableNumber int          `json:"tableNumber"`
	Items       []order.Line `json:"items"`
}

func (c *Cart) Total() float64 {
	var total float64
	for _, line := range c.Items {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

func (c *Cart) Count() int {
	var count int
	for _, line := range c.Items {
		count += line.Quantity
	}
	return count
}

// Store keeps one cart per table number. Carts are independent: mutating one
// table's cart never touches another's, and a table's cart survives until
// checkout or an explicit clear. A device that switches tables sees a full
// replacement of its cart view; the previous table's cart stays in the store
// and is restored when that table is selected again.
type Store struct {
	mu    sync.RWMutex
	carts map[int]*Cart
}

func NewStore() *Store {
	return &Store{carts: make(map[int]*Cart)}
}

// Get returns a snapshot of the cart for the given table, creating nothing.
func (s *Store) Get(tableNumber int) Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot(tableNumber, s.carts[tableNumber])
}

// Add merges by item id: adding an item already in the cart sums quantities
// instead of duplicating the line. The note of the incoming line wins when
// set.
func (s *Store) Add(tableNumber int, line order.Line) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.carts[tableNumber]
	if c == nil {
		c = &Cart{TableNumber: tableNumber}
		s.carts[tableNumber] = c
	}

	for i := range c.Items {
		if c.Items[i].ItemID == line.ItemID {
			c.Items[i].Quantity += line.Quantity
			if line.Note != "" {
				c.Items[i].Note = line.Note
			}
			return snapshot(tableNumber, c)
		}
	}

	c.Items = append(c.Items, line)
	return snapshot(tableNumber, c)
}

func (s *Store) Remove(tableNumber int, itemID int64) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.carts[tableNumber]
	if c == nil {
		return snapshot(tableNumber, nil)
	}

	kept := c.Items[:0]
	for _, line := range c.Items {
		if line.ItemID != itemID {
			kept = append(kept, line)
		}
	}
	c.Items = kept
	return snapshot(tableNumber, c)
}

// SetQuantity sets the quantity for an item; zero or negative removes it.
func (s *Store) SetQuantity(tableNumber int, itemID int64, quantity int) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.carts[tableNumber]
	if c == nil {
		return snapshot(tableNumber, nil)
	}

	kept := c.Items[:0]
	for _, line := range c.Items {
		if line.ItemID == itemID {
			if quantity <= 0 {
				continue
			}
			line.Quantity = quantity
		}
		kept = append(kept, line)
	}
	c.Items = kept
	return snapshot(tableNumber, c)
}

func (s *Store) SetNote(tableNumber int, itemID int64, note string) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.carts[tableNumber]
	if c == nil {
		return snapshot(tableNumber, nil)
	}

	for i := range c.Items {
		if c.Items[i].ItemID == itemID {
			c.Items[i].Note = note
			break
		}
	}
	return snapshot(tableNumber, c)
}

func (s *Store) Clear(tableNumber int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, tableNumber)
}

func snapshot(tableNumber int, c *Cart) Cart {
	out := Cart{TableNumber: tableNumber, Items: []order.Line{}}
	if c == nil {
		return out
	}
	out.Items = append(out.Items, c.Items...)
	return out
}
