package billing

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type rowQuery interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ActiveRules loads the active billing rules in application order. Every
// call site that renders a bill (checkout, receipt, PDF, preview) goes
// through this so stale cached rules cannot diverge between surfaces.
func ActiveRules(ctx context.Context, db rowQuery) ([]Rule, error) {
	query := `
		select id, field_name, field_label, field_type, field_value,
		       applies_to, is_active, calculation_order, is_system_field
		from billing_settings
		where is_active = true
		order by calculation_order, updated_at desc
	`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]Rule, 0)
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(
			&rule.ID,
			&rule.FieldName,
			&rule.FieldLabel,
			&rule.FieldType,
			&rule.FieldValue,
			&rule.AppliesTo,
			&rule.IsActive,
			&rule.CalculationOrder,
			&rule.IsSystemField,
		); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}
