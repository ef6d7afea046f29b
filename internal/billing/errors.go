package billing

import "net/http"

type ErrorCode string

const (
	ErrRuleNotFound       ErrorCode = "BILLING_RULE_NOT_FOUND"
	ErrRuleNameTaken      ErrorCode = "BILLING_RULE_NAME_TAKEN"
	ErrRuleInvalidType    ErrorCode = "BILLING_RULE_INVALID_TYPE"
	ErrRuleInvalidTarget  ErrorCode = "BILLING_RULE_INVALID_TARGET"
	ErrRuleSystemField    ErrorCode = "BILLING_RULE_SYSTEM_FIELD"
	ErrRuleMissingDetails ErrorCode = "BILLING_RULE_MISSING_DETAILS"
)

type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return e.Message
}

func ValidationError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, StatusCode: http.StatusBadRequest}
}

func NotFoundError(message string) *Error {
	return &Error{Code: ErrRuleNotFound, Message: message, StatusCode: http.StatusNotFound}
}

// ValidateRule checks the enum fields and required labels of a rule before it
// is written. field_name uniqueness is enforced by the database constraint.
func ValidateRule(rule Rule) *Error {
	if rule.FieldName == "" || rule.FieldLabel == "" {
		return ValidationError(ErrRuleMissingDetails, "Field name and label are required")
	}
	switch rule.FieldType {
	case FieldTypePercentage, FieldTypeFixedAmount, FieldTypeTax:
	default:
		return ValidationError(ErrRuleInvalidType, "Field type must be percentage, fixed_amount or tax")
	}
	switch rule.AppliesTo {
	case AppliesToSubtotal, AppliesToTotal:
	default:
		return ValidationError(ErrRuleInvalidTarget, "Applies-to must be subtotal or total")
	}
	return nil
}
