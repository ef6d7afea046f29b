package auth

import (
	"testing"
	"time"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	token, err := SignAccessToken("42", RoleAdmin, "Asha", "test-secret", time.Minute)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	claims, err := VerifyAccessToken(token, "test-secret")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.UserID != "42" || claims.Role != RoleAdmin || claims.Name != "Asha" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := SignAccessToken("42", RoleStaff, "", "secret-a", time.Minute)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := VerifyAccessToken(token, "secret-b"); err == nil {
		t.Fatalf("expected verification failure with wrong secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	token, err := SignAccessToken("42", RoleStaff, "", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := VerifyAccessToken(token, "secret"); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestParseBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"standard", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"lowercase scheme", "bearer tok", "tok"},
		{"missing scheme", "abc.def.ghi", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseBearerToken(tc.header); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !CheckPassword(hashed, "s3cret") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hashed, "wrong") {
		t.Fatalf("expected mismatch for wrong password")
	}
}
