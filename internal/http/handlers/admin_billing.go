package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"tabletap-order-service/internal/billing"
	"tabletap-order-service/pkg/response"
)

func writeBillingError(w http.ResponseWriter, err error) {
	var be *billing.Error
	if errors.As(err, &be) {
		response.Error(w, be.StatusCode, string(be.Code), be.Message)
		return
	}
	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Billing settings operation failed")
}

func (h *Handler) AdminBillingSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `
		select id, field_name, field_label, field_type, field_value,
		       applies_to, is_active, calculation_order, is_system_field
		from billing_settings
		order by calculation_order, field_name
	`)
	if err != nil {
		h.Logger.Error("billing settings query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch billing settings")
		return
	}
	defer rows.Close()

	rules := make([]billing.Rule, 0)
	for rows.Next() {
		var rule billing.Rule
		if err := rows.Scan(
			&rule.ID, &rule.FieldName, &rule.FieldLabel, &rule.FieldType,
			&rule.FieldValue, &rule.AppliesTo, &rule.IsActive,
			&rule.CalculationOrder, &rule.IsSystemField,
		); err != nil {
			h.Logger.Error("billing settings scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch billing settings")
			return
		}
		rules = append(rules, rule)
	}

	response.Success(w, rules)
}

func decodeBillingRule(r *http.Request) (billing.Rule, error) {
	var payload struct {
		FieldName        string  `json:"fieldName"`
		FieldLabel       string  `json:"fieldLabel"`
		FieldType        string  `json:"fieldType"`
		FieldValue       float64 `json:"fieldValue"`
		AppliesTo        string  `json:"appliesTo"`
		IsActive         *bool   `json:"isActive"`
		CalculationOrder int     `json:"calculationOrder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return billing.Rule{}, billing.ValidationError(billing.ErrRuleMissingDetails, "Invalid request body")
	}

	rule := billing.Rule{
		FieldName:        strings.TrimSpace(payload.FieldName),
		FieldLabel:       strings.TrimSpace(payload.FieldLabel),
		FieldType:        billing.FieldType(payload.FieldType),
		FieldValue:       payload.FieldValue,
		AppliesTo:        billing.AppliesTo(payload.AppliesTo),
		IsActive:         true,
		CalculationOrder: payload.CalculationOrder,
	}
	if payload.IsActive != nil {
		rule.IsActive = *payload.IsActive
	}
	if err := billing.ValidateRule(rule); err != nil {
		return billing.Rule{}, err
	}
	return rule, nil
}

func (h *Handler) AdminBillingSettingCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rule, err := decodeBillingRule(r)
	if err != nil {
		writeBillingError(w, err)
		return
	}

	query := `
		insert into billing_settings (field_name, field_label, field_type, field_value, applies_to, is_active, calculation_order, is_system_field, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, false, now())
		returning id
	`
	if err := h.DB.QueryRow(ctx, query,
		rule.FieldName, rule.FieldLabel, rule.FieldType, rule.FieldValue,
		rule.AppliesTo, rule.IsActive, rule.CalculationOrder,
	).Scan(&rule.ID); err != nil {
		writeBillingError(w, billing.ValidationError(billing.ErrRuleNameTaken, "A billing field with this name already exists"))
		return
	}

	response.Created(w, rule)
}

func (h *Handler) AdminBillingSettingUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settingID, err := readPathInt64(r, "settingId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Setting ID is required")
		return
	}

	rule, derr := decodeBillingRule(r)
	if derr != nil {
		writeBillingError(w, derr)
		return
	}

	// System fields keep their identity: label, value, order and activity are
	// editable, the name and type are not.
	var isSystem bool
	if err := h.DB.QueryRow(ctx, `select is_system_field from billing_settings where id = $1`, settingID).Scan(&isSystem); err != nil {
		writeBillingError(w, billing.NotFoundError("Billing setting not found"))
		return
	}

	var tagErr error
	if isSystem {
		_, tagErr = h.DB.Exec(ctx, `
			update billing_settings
			set field_label = $2, field_value = $3, applies_to = $4,
				is_active = $5, calculation_order = $6, updated_at = now()
			where id = $1
		`, settingID, rule.FieldLabel, rule.FieldValue, rule.AppliesTo, rule.IsActive, rule.CalculationOrder)
	} else {
		_, tagErr = h.DB.Exec(ctx, `
			update billing_settings
			set field_name = $2, field_label = $3, field_type = $4, field_value = $5,
				applies_to = $6, is_active = $7, calculation_order = $8, updated_at = now()
			where id = $1
		`, settingID, rule.FieldName, rule.FieldLabel, rule.FieldType, rule.FieldValue,
			rule.AppliesTo, rule.IsActive, rule.CalculationOrder)
	}
	if tagErr != nil {
		h.Logger.Error("billing setting update failed", zapError(tagErr))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update billing setting")
		return
	}

	rule.ID = settingID
	rule.IsSystemField = isSystem
	response.Success(w, rule)
}

func (h *Handler) AdminBillingSettingToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settingID, err := readPathInt64(r, "settingId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Setting ID is required")
		return
	}

	var isActive bool
	query := `update billing_settings set is_active = not is_active, updated_at = now() where id = $1 returning is_active`
	if err := h.DB.QueryRow(ctx, query, settingID).Scan(&isActive); err != nil {
		writeBillingError(w, billing.NotFoundError("Billing setting not found"))
		return
	}

	response.Success(w, map[string]any{"settingId": settingID, "isActive": isActive})
}

func (h *Handler) AdminBillingSettingDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settingID, err := readPathInt64(r, "settingId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Setting ID is required")
		return
	}

	var isSystem bool
	if err := h.DB.QueryRow(ctx, `select is_system_field from billing_settings where id = $1`, settingID).Scan(&isSystem); err != nil {
		writeBillingError(w, billing.NotFoundError("Billing setting not found"))
		return
	}
	if isSystem {
		writeBillingError(w, billing.ValidationError(billing.ErrRuleSystemField, "System billing fields can be deactivated but not deleted"))
		return
	}

	if _, err := h.DB.Exec(ctx, `delete from billing_settings where id = $1`, settingID); err != nil {
		h.Logger.Error("billing setting delete failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete billing setting")
		return
	}

	response.Success(w, map[string]any{"settingId": settingID})
}

// AdminBillingPreview runs the live rules against a sample subtotal so the
// admin can see the effect of an edit before any order pays for it.
func (h *Handler) AdminBillingPreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		Subtotal float64 `json:"subtotal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if payload.Subtotal < 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Subtotal must not be negative")
		return
	}

	rules, err := billing.ActiveRules(ctx, h.DB)
	if err != nil {
		h.Logger.Error("billing rules query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to preview billing")
		return
	}

	response.Success(w, billing.Calculate(payload.Subtotal, rules))
}
