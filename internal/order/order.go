package order

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Line is one frozen cart line embedded in an order. Price is the snapshot
// taken when the item was added to the cart, not the live menu price.
type Line struct {
	ItemID   int64   `json:"itemId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Note     string  `json:"note,omitempty"`
}

type Order struct {
	ID              int64     `json:"id"`
	TableNumber     int       `json:"tableNumber"`
	Items           []Line    `json:"items"`
	TotalAmount     float64   `json:"totalAmount"`
	Status          Status    `json:"status"`
	Revision        int64     `json:"revision"`
	SpecialNotes    *string   `json:"specialNotes"`
	AdminMessage    *string   `json:"adminMessage"`
	CustomerMessage *string   `json:"customerMessage"`
	Rating          *int      `json:"rating"`
	Feedback        *string   `json:"feedback"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func ValidStatus(s Status) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsValidTransition reports whether an order may move from current to next.
// Completed and cancelled are terminal; self-transitions are rejected.
func IsValidTransition(current, next Status) bool {
	if current == next {
		return false
	}
	for _, s := range allowedTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}
