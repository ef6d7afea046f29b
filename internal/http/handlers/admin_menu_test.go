package handlers

import "testing"

func TestMenuItemPayloadValidate(t *testing.T) {
	fixed := "fixed_amount"
	bogus := "half_off"

	tests := []struct {
		name    string
		payload menuItemPayload
		wantOK  bool
	}{
		{
			name:    "valid",
			payload: menuItemPayload{Name: "Margherita", Price: 250, Category: "Pizza"},
			wantOK:  true,
		},
		{
			name:    "trims whitespace",
			payload: menuItemPayload{Name: "  Margherita  ", Price: 250, Category: " Pizza "},
			wantOK:  true,
		},
		{
			name:    "missing name",
			payload: menuItemPayload{Price: 250, Category: "Pizza"},
			wantOK:  false,
		},
		{
			name:    "negative price",
			payload: menuItemPayload{Name: "Margherita", Price: -1, Category: "Pizza"},
			wantOK:  false,
		},
		{
			name:    "missing category",
			payload: menuItemPayload{Name: "Margherita", Price: 250},
			wantOK:  false,
		},
		{
			name:    "valid discount type",
			payload: menuItemPayload{Name: "Margherita", Price: 250, Category: "Pizza", DiscountType: &fixed},
			wantOK:  true,
		},
		{
			name:    "invalid discount type",
			payload: menuItemPayload{Name: "Margherita", Price: 250, Category: "Pizza", DiscountType: &bogus},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := tt.payload.validate()
			if ok != tt.wantOK {
				t.Fatalf("validate() ok = %v (%q), want %v", ok, msg, tt.wantOK)
			}
			if ok && tt.payload.Tags == nil {
				t.Fatal("validate() left Tags nil")
			}
		})
	}
}

func TestMenuItemPayloadValidateNormalizesFields(t *testing.T) {
	p := menuItemPayload{Name: "  Coke ", Price: 40, Category: " Drinks  "}
	if _, ok := p.validate(); !ok {
		t.Fatal("expected valid payload")
	}
	if p.Name != "Coke" || p.Category != "Drinks" {
		t.Fatalf("fields not trimmed: %q / %q", p.Name, p.Category)
	}
}
