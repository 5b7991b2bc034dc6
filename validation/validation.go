// Package validation collects per-field input violations before any write is attempted.
package validation

import (
	"net/mail"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/mycoll/marketplace/internal/apperr"
	"github.com/shopspring/decimal"
)

// Violations maps a field name to a short machine-readable reason.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// ErrFailed is the sentinel every violation error matches.
var ErrFailed = apperr.Validation("validation_failed", "validation failed")

// Err returns nil when v is empty, otherwise a validation error carrying v.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return ErrFailed.WithDetails(v)
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MaxLen(field, value string, n int, v Violations) {
	if utf8.RuneCountInString(value) > n {
		v[field] = "too_long"
	}
}

func MinLen(field, value string, n int, v Violations) {
	if utf8.RuneCountInString(value) < n {
		v[field] = "too_short"
	}
}

func Email(field, value string, v Violations) {
	if _, err := mail.ParseAddress(value); err != nil {
		v[field] = "invalid_email"
	}
}

func PositiveInt(field string, val int, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func NonNegativeInt(field string, val int, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func PositiveDecimal(field string, val decimal.Decimal, v Violations) {
	if !val.IsPositive() {
		v[field] = "must_be_positive"
	}
}

func RangeDecimal(field string, val, minVal, maxVal decimal.Decimal, v Violations) {
	if val.LessThan(minVal) || val.GreaterThan(maxVal) {
		v[field] = "out_of_range"
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	if !slices.Contains(allowed, value) {
		v[field] = "invalid_value"
	}
}

func Equal(field, a, b string, v Violations) {
	if a != b {
		v[field] = "mismatch"
	}
}
