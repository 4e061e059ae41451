package apiforms

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codeOf(t *testing.T, err error) string {
	t.Helper()
	batch, ok := AsValidationErrors(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	require.NotEmpty(t, batch)
	return batch[0].Code
}

func TestLengthValidator(t *testing.T) {
	tests := []struct {
		name  string
		v     LengthValidator
		value any
		code  string
	}{
		{"string ok", LengthValidator{Min: 1, Max: 3}, "abc", ""},
		{"string too short", MinLength(4), "abc", CodeMinLength},
		{"string too long", MaxLength(2), "abc", CodeMaxLength},
		{"runes not bytes", MaxLength(2), "éé", ""},
		{"slice too long", MaxLength(1), []any{1, 2}, CodeMaxLength},
		{"map too short", MinLength(2), map[string]any{"a": 1}, CodeMinLength},
		{"non sized value", MaxLength(1), 12345, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v.Validate(tt.value)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.code, codeOf(t, err))
		})
	}

	t.Run("params", func(t *testing.T) {
		var ve *ValidationError
		require.True(t, errors.As(MaxLength(2).Validate("abcd"), &ve))
		assert.Equal(t, map[string]any{"max": 2, "length": 4}, ve.Params)
		assert.Equal(t, "Ensure this value has at most 2 characters (it has 4).", ve.Text())
	})
}

func TestRangeValidator(t *testing.T) {
	tests := []struct {
		name  string
		v     RangeValidator
		value any
		code  string
	}{
		{"int in range", RangeValidator{}, int64(5), ""},
		{"below min", MinValue(10), int64(5), CodeMinValue},
		{"above max", MaxValue(1.5), 2.0, CodeMaxValue},
		{"decimal above max", MaxValue(1), decimal.RequireFromString("1.01"), CodeMaxValue},
		{"non numeric ignored", MinValue(1), "abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v.Validate(tt.value)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.code, codeOf(t, err))
		})
	}
}

func TestRegexValidator(t *testing.T) {
	v := Regex(`^[a-z]+$`)
	assert.NoError(t, v.Validate("abc"))
	assert.Equal(t, CodeInvalid, codeOf(t, v.Validate("ABC")))

	inverse := RegexValidator{Pattern: v.Pattern, Inverse: true, Code: "no_lowercase", Message: "No lowercase words."}
	assert.NoError(t, inverse.Validate("ABC"))
	assert.Equal(t, "no_lowercase", codeOf(t, inverse.Validate("abc")))

	assert.Panics(t, func() { Regex(`(`) })
}

func TestChoicesValidator(t *testing.T) {
	v := OneOf("rock", "jazz", 3)
	assert.NoError(t, v.Validate("rock"))
	assert.NoError(t, v.Validate(float64(3)))
	assert.Equal(t, CodeInvalidChoice, codeOf(t, v.Validate("pop")))
}

func TestTagValidator(t *testing.T) {
	t.Run("passes", func(t *testing.T) {
		assert.NoError(t, Tag("email").Validate("john@example.com"))
		assert.NoError(t, Tag("url").Validate("https://example.com"))
	})

	t.Run("code defaults to the failing tag", func(t *testing.T) {
		err := Tag("min=3").Validate("ab")
		batch, ok := AsValidationErrors(err)
		require.True(t, ok)
		require.Len(t, batch, 1)
		assert.Equal(t, "min", batch[0].Code)
		assert.Equal(t, map[string]any{"tag": "min", "param": "3"}, batch[0].Params)
	})

	t.Run("custom code and message", func(t *testing.T) {
		v := TagValidator{Tag: "uuid4", Code: CodeInvalid, Message: "Enter a UUIDv4."}
		batch, ok := AsValidationErrors(v.Validate("nope"))
		require.True(t, ok)
		assert.Equal(t, "Enter a UUIDv4.", batch[0].Text())
	})

	t.Run("unusable tag panics", func(t *testing.T) {
		assert.Panics(t, func() { _ = Tag("definitely_not_a_tag").Validate("x") })
	})
}

func TestValidatorFunc(t *testing.T) {
	v := ValidatorFunc(func(value any) error {
		if value == "forbidden" {
			return errors.New("nope")
		}
		return nil
	})
	f := NewCharField(CharFieldOpts{FieldOpts: FieldOpts{Validators: []Validator{v}}})

	_, errs := f.Clean("forbidden")
	require.Len(t, errs, 1)
	assert.Equal(t, CodeInvalid, errs[0].Code)
	assert.Equal(t, "nope", errs[0].Message)
}
