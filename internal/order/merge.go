package order

import "time"

// Merged is the computed shape of a merge-on-complete: several in-progress
// orders for one table collapsed into a single completed order.
type Merged struct {
	TableNumber int
	Items       []Line
	TotalAmount float64
	UpdatedAt   time.Time
	SourceIDs   []int64
}

// Merge unions the line items of the given orders by item id, summing
// quantities. The price of the first occurrence is kept when sources carry
// different snapshot prices for the same item. Totals are summed verbatim
// from the frozen per-order totals; billing is not recomputed over the
// merged lines. UpdatedAt is the latest among the sources.
func Merge(sources []Order) Merged {
	merged := Merged{}
	if len(sources) == 0 {
		return merged
	}

	merged.TableNumber = sources[0].TableNumber
	merged.UpdatedAt = sources[0].UpdatedAt

	index := make(map[int64]int)
	for _, src := range sources {
		merged.SourceIDs = append(merged.SourceIDs, src.ID)
		merged.TotalAmount += src.TotalAmount
		if src.UpdatedAt.After(merged.UpdatedAt) {
			merged.UpdatedAt = src.UpdatedAt
		}
		for _, line := range src.Items {
			if at, ok := index[line.ItemID]; ok {
				merged.Items[at].Quantity += line.Quantity
				continue
			}
			index[line.ItemID] = len(merged.Items)
			merged.Items = append(merged.Items, line)
		}
	}

	return merged
}
