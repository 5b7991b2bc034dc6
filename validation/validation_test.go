package validation_test

import (
	"errors"
	"testing"

	"github.com/mycoll/marketplace/internal/apperr"
	"github.com/mycoll/marketplace/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViolations_Err(t *testing.T) {
	v := make(validation.Violations)
	require.NoError(t, v.Err())

	validation.Required("name", "  ", v)
	validation.PositiveInt("quantity", 0, v)
	err := v.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, validation.ErrFailed))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, validation.Violations{"name": "required", "quantity": "must_be_positive"}, e.Details)
}

func TestValidators(t *testing.T) {
	v := make(validation.Violations)
	validation.Email("email", "not-an-email", v)
	validation.MinLen("password", "12345", 6, v)
	validation.MaxLen("state", "abcdefghijklmnopqrstuvwxyz", 20, v)
	validation.NonNegativeInt("stock", -1, v)
	validation.PositiveDecimal("base_price", decimal.Zero, v)
	validation.RangeDecimal("margin", decimal.NewFromInt(11), decimal.Zero, decimal.NewFromInt(10), v)
	validation.OneOf("account_state", "Banido", []string{"Ativo", "Pendente", "Suspenso"}, v)
	validation.Equal("confirm_password", "a", "b", v)

	assert.Equal(t, validation.Violations{
		"email":            "invalid_email",
		"password":         "too_short",
		"state":            "too_long",
		"stock":            "must_not_be_negative",
		"base_price":       "must_be_positive",
		"margin":           "out_of_range",
		"account_state":    "invalid_value",
		"confirm_password": "mismatch",
	}, v)
}

func TestValidators_Accept(t *testing.T) {
	v := make(validation.Violations)
	validation.Email("email", "ana@example.com", v)
	validation.MinLen("password", "123456", 6, v)
	validation.NonNegativeInt("stock", 0, v)
	validation.PositiveDecimal("base_price", decimal.RequireFromString("0.01"), v)
	validation.OneOf("account_state", "Ativo", []string{"Ativo", "Pendente", "Suspenso"}, v)
	assert.True(t, v.Empty())
}
