package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tabletap-order-service/internal/auth"
	"tabletap-order-service/pkg/response"
)

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	payload.Email = strings.TrimSpace(strings.ToLower(payload.Email))
	if payload.Email == "" || payload.Password == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Email and password are required")
		return
	}

	var (
		userID       int64
		passwordHash string
		role         string
		name         string
	)
	query := `select id, password_hash, role, name from users where lower(email) = $1 and is_active = true`
	if err := h.DB.QueryRow(ctx, query, payload.Email).Scan(&userID, &passwordHash, &role, &name); err != nil {
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	if !auth.CheckPassword(passwordHash, payload.Password) {
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	expiry := time.Duration(h.Config.JWTExpirySeconds) * time.Second
	token, err := auth.SignAccessToken(fmt.Sprint(userID), auth.UserRole(role), name, h.Config.JWTSecret, expiry)
	if err != nil {
		h.Logger.Error("token sign failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in")
		return
	}

	response.Success(w, map[string]any{
		"token":     token,
		"role":      role,
		"name":      name,
		"expiresIn": h.Config.JWTExpirySeconds,
	})
}
