package order

import "testing"

func TestIsValidTransition(t *testing.T) {
	cases := []struct {
		name    string
		current Status
		next    Status
		allowed bool
	}{
		{"pending to in_progress", StatusPending, StatusInProgress, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending to completed skips in_progress", StatusPending, StatusCompleted, false},
		{"in_progress to completed", StatusInProgress, StatusCompleted, true},
		{"in_progress to cancelled", StatusInProgress, StatusCancelled, false},
		{"completed is terminal", StatusCompleted, StatusPending, false},
		{"completed to cancelled rejected", StatusCompleted, StatusCancelled, false},
		{"cancelled is terminal", StatusCancelled, StatusInProgress, false},
		{"self transition rejected", StatusPending, StatusPending, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidTransition(tc.current, tc.next); got != tc.allowed {
				t.Fatalf("expected %v, got %v", tc.allowed, got)
			}
		})
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled} {
		if !ValidStatus(s) {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	if ValidStatus("serving") {
		t.Fatalf("expected unknown status to be invalid")
	}
}
