package apiforms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator checks an already converted, non-empty value. Returning a
// *ValidationError or ValidationErrors keeps the code; any other error is
// reported with code "invalid".
type Validator interface {
	Validate(value any) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(value any) error

func (fn ValidatorFunc) Validate(value any) error {
	return fn(value)
}

///////////////////////////////////////////////////////////////////////////////
// Length
///////////////////////////////////////////////////////////////////////////////

// LengthValidator bounds the length of strings (in runes), sequences and
// mappings. A zero bound is not checked.
type LengthValidator struct {
	Min int
	Max int
}

// MinLength returns a validator for a lower length bound.
func MinLength(n int) LengthValidator {
	return LengthValidator{Min: n}
}

// MaxLength returns a validator for an upper length bound.
func MaxLength(n int) LengthValidator {
	return LengthValidator{Max: n}
}

func (lv LengthValidator) Validate(value any) error {
	length, unit, ok := lengthOf(value)
	if !ok {
		return nil
	}

	if lv.Min > 0 && length < lv.Min {
		return NewValidationError(
			CodeMinLength,
			"Ensure this value has at least {min} "+unit+" (it has {length}).",
		).WithParams(map[string]any{"min": lv.Min, "length": length})
	}
	if lv.Max > 0 && length > lv.Max {
		return NewValidationError(
			CodeMaxLength,
			"Ensure this value has at most {max} "+unit+" (it has {length}).",
		).WithParams(map[string]any{"max": lv.Max, "length": length})
	}
	return nil
}

func lengthOf(value any) (int, string, bool) {
	if s, ok := value.(string); ok {
		return utf8.RuneCountInString(s), "characters", true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), "elements", true
	}
	return 0, "", false
}

///////////////////////////////////////////////////////////////////////////////
// Range
///////////////////////////////////////////////////////////////////////////////

// RangeValidator bounds numeric values. Nil bounds are not checked.
type RangeValidator struct {
	Min *float64
	Max *float64
}

// MinValue returns a validator for a lower numeric bound.
func MinValue(limit float64) RangeValidator {
	return RangeValidator{Min: &limit}
}

// MaxValue returns a validator for an upper numeric bound.
func MaxValue(limit float64) RangeValidator {
	return RangeValidator{Max: &limit}
}

func (rv RangeValidator) Validate(value any) error {
	var number float64
	switch v := value.(type) {
	case decimal.Decimal:
		number = v.InexactFloat64()
	default:
		n, ok := numberAsFloat(value)
		if !ok {
			return nil
		}
		number = n
	}

	if rv.Min != nil && number < *rv.Min {
		return NewValidationError(
			CodeMinValue,
			"Ensure this value is greater than or equal to {limit}.",
		).WithParams(map[string]any{"limit": *rv.Min})
	}
	if rv.Max != nil && number > *rv.Max {
		return NewValidationError(
			CodeMaxValue,
			"Ensure this value is less than or equal to {limit}.",
		).WithParams(map[string]any{"limit": *rv.Max})
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// Regex
///////////////////////////////////////////////////////////////////////////////

// RegexValidator requires string values to match (or, with Inverse, not
// match) Pattern.
type RegexValidator struct {
	Pattern *regexp.Regexp
	Inverse bool
	Code    string
	Message string
}

// Regex compiles pattern into a RegexValidator. It panics on an invalid
// pattern since patterns are declared with the form.
func Regex(pattern string) RegexValidator {
	return RegexValidator{Pattern: regexp.MustCompile(pattern)}
}

func (rv RegexValidator) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprint(value)
	}
	if rv.Pattern.MatchString(s) != rv.Inverse {
		return nil
	}

	code, msg := rv.Code, rv.Message
	if code == "" {
		code = CodeInvalid
	}
	if msg == "" {
		msg = defaultErrorMessages[CodeInvalid]
	}
	return NewValidationError(code, msg).WithParams(map[string]any{"value": s})
}

///////////////////////////////////////////////////////////////////////////////
// Choices
///////////////////////////////////////////////////////////////////////////////

// ChoicesValidator requires the value to be one of Choices.
type ChoicesValidator struct {
	Choices []any
}

// OneOf returns a ChoicesValidator.
func OneOf(choices ...any) ChoicesValidator {
	return ChoicesValidator{Choices: choices}
}

func (cv ChoicesValidator) Validate(value any) error {
	if _, ok := matchChoice(value, cv.Choices); ok {
		return nil
	}
	return NewValidationError(
		CodeInvalidChoice,
		defaultErrorMessages[CodeInvalidChoice],
	).WithParams(map[string]any{"value": value})
}

// matchChoice finds the choice equal to value. Numbers are compared by
// value so a decoded float64(1) matches a declared int 1.
func matchChoice(value any, choices []any) (any, bool) {
	for _, choice := range choices {
		if valuesEqual(value, choice) {
			return choice, true
		}
	}
	return nil, false
}

///////////////////////////////////////////////////////////////////////////////
// go-playground tags
///////////////////////////////////////////////////////////////////////////////

var (
	tagEngine     *validator.Validate
	tagEngineOnce sync.Once
)

// tagValidate returns the shared go-playground validator instance.
func tagValidate() *validator.Validate {
	tagEngineOnce.Do(func() {
		tagEngine = validator.New()
	})
	return tagEngine
}

// TagValidator runs a go-playground/validator tag expression (e.g. "email",
// "url", "uuid4", "oneof=a b") against the value.
type TagValidator struct {
	Tag     string
	Code    string // defaults to the failing tag name
	Message string // defaults to a generic message naming the tag
}

// Tag returns a TagValidator for the given tag expression.
func Tag(tag string) TagValidator {
	return TagValidator{Tag: tag}
}

func (tv TagValidator) Validate(value any) error {
	err := tagValidate().Var(value, tv.Tag)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// the tag expression itself is unusable
		declarationPanic("tag %q: %v", tv.Tag, err)
	}

	var errs ValidationErrors
	for _, fe := range fieldErrs {
		code, msg := tv.Code, tv.Message
		if code == "" {
			code = fe.Tag()
		}
		if msg == "" {
			msg = "Value failed the '{tag}' rule."
		}
		errs = append(errs, NewValidationError(code, msg).WithParams(map[string]any{
			"tag":   fe.Tag(),
			"param": fe.Param(),
		}))
	}
	return errs
}
