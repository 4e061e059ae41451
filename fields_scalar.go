package apiforms

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

///////////////////////////////////////////////////////////////////////////////
// CharField
///////////////////////////////////////////////////////////////////////////////

type CharFieldOpts struct {
	FieldOpts
	MinLength int
	MaxLength int
	NoStrip   bool // keep leading and trailing whitespace
}

// CharField cleans its input into a string.
type CharField struct {
	baseField
	noStrip bool
}

func NewCharField(opts CharFieldOpts) *CharField {
	return newCharField(KindChar, opts, nil)
}

func newCharField(kind string, opts CharFieldOpts, first Validator, messages ...map[string]string) *CharField {
	var validators []Validator
	if first != nil {
		validators = append(validators, first)
	}
	if opts.MinLength > 0 {
		validators = append(validators, MinLength(opts.MinLength))
	}
	if opts.MaxLength > 0 {
		validators = append(validators, MaxLength(opts.MaxLength))
	}

	var msgs map[string]string
	if len(messages) > 0 {
		msgs = messages[0]
	}

	f := &CharField{
		baseField: newBaseField(kind, opts.FieldOpts, msgs, validators...),
		noStrip:   opts.NoStrip,
	}
	f.empty = ""
	return f
}

func (f *CharField) Clean(raw any) (any, ValidationErrors) {
	return f.clean(raw, f.toString)
}

func (f *CharField) toString(raw any) (any, *ValidationError) {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case fmt.Stringer:
		s = v.String()
	case bool:
		s = strconv.FormatBool(v)
	default:
		if !isNumber(raw) {
			return nil, f.fail(CodeInvalid, nil)
		}
		s = fmt.Sprint(raw)
	}

	if !f.noStrip {
		s = strings.TrimSpace(s)
	}
	return s, nil
}

///////////////////////////////////////////////////////////////////////////////
// EmailField
///////////////////////////////////////////////////////////////////////////////

var emailMessages = map[string]string{
	CodeInvalid: "Enter a valid email address.",
}

// EmailField is a CharField that requires a valid email address.
type EmailField struct {
	*CharField
}

func NewEmailField(opts CharFieldOpts) *EmailField {
	email := TagValidator{Tag: "email", Code: CodeInvalid, Message: emailMessages[CodeInvalid]}
	return &EmailField{CharField: newCharField(KindEmail, opts, email, emailMessages)}
}

///////////////////////////////////////////////////////////////////////////////
// IntegerField
///////////////////////////////////////////////////////////////////////////////

type IntegerFieldOpts struct {
	FieldOpts
	MinValue *int64
	MaxValue *int64
}

// IntegerField cleans its input into an int64.
type IntegerField struct {
	baseField
}

func NewIntegerField(opts IntegerFieldOpts) *IntegerField {
	var validators []Validator
	if opts.MinValue != nil {
		validators = append(validators, MinValue(float64(*opts.MinValue)))
	}
	if opts.MaxValue != nil {
		validators = append(validators, MaxValue(float64(*opts.MaxValue)))
	}
	return &IntegerField{
		baseField: newBaseField(KindInteger, opts.FieldOpts, map[string]string{
			CodeInvalid: "Enter a whole number.",
		}, validators...),
	}
}

func (f *IntegerField) Clean(raw any) (any, ValidationErrors) {
	return f.clean(raw, f.toInt)
}

func (f *IntegerField) toInt(raw any) (any, *ValidationError) {
	switch v := raw.(type) {
	case bool:
		return nil, f.fail(CodeInvalid, nil)
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		fl, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, f.fail(CodeInvalid, nil)
		}
		if i, ok := floatAsInt(fl); ok {
			return i, nil
		}
		return nil, f.fail(CodeInvalid, nil)
	}

	if i, ok := numberAsInt(raw); ok {
		return i, nil
	}
	return nil, f.fail(CodeInvalid, nil)
}

///////////////////////////////////////////////////////////////////////////////
// FloatField
///////////////////////////////////////////////////////////////////////////////

type FloatFieldOpts struct {
	FieldOpts
	MinValue *float64
	MaxValue *float64
}

// FloatField cleans its input into a finite float64.
type FloatField struct {
	baseField
}

func NewFloatField(opts FloatFieldOpts) *FloatField {
	return &FloatField{
		baseField: newBaseField(KindFloat, opts.FieldOpts, map[string]string{
			CodeInvalid: "Enter a number.",
		}, RangeValidator{Min: opts.MinValue, Max: opts.MaxValue}),
	}
}

func (f *FloatField) Clean(raw any) (any, ValidationErrors) {
	return f.clean(raw, f.toFloat)
}

func (f *FloatField) toFloat(raw any) (any, *ValidationError) {
	var (
		value float64
		ok    bool
	)
	switch v := raw.(type) {
	case bool:
		return nil, f.fail(CodeInvalid, nil)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		value, ok = parsed, err == nil
	default:
		value, ok = numberAsFloat(raw)
	}

	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, f.fail(CodeInvalid, nil)
	}
	return value, nil
}

///////////////////////////////////////////////////////////////////////////////
// DecimalField
///////////////////////////////////////////////////////////////////////////////

type DecimalFieldOpts struct {
	FieldOpts
	MaxDigits     int
	DecimalPlaces int
	MinValue      *float64
	MaxValue      *float64
}

// DecimalField cleans its input into a decimal.Decimal.
type DecimalField struct {
	baseField
}

func NewDecimalField(opts DecimalFieldOpts) *DecimalField {
	var validators []Validator
	if opts.MinValue != nil || opts.MaxValue != nil {
		validators = append(validators, RangeValidator{Min: opts.MinValue, Max: opts.MaxValue})
	}
	if opts.MaxDigits > 0 || opts.DecimalPlaces > 0 {
		validators = append(validators, DecimalDigitsValidator{
			MaxDigits:     opts.MaxDigits,
			DecimalPlaces: opts.DecimalPlaces,
		})
	}
	return &DecimalField{
		baseField: newBaseField(KindDecimal, opts.FieldOpts, map[string]string{
			CodeInvalid: "Enter a number.",
		}, validators...),
	}
}

func (f *DecimalField) Clean(raw any) (any, ValidationErrors) {
	return f.clean(raw, f.toDecimal)
}

func (f *DecimalField) toDecimal(raw any) (any, *ValidationError) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case bool:
		return nil, f.fail(CodeInvalid, nil)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, f.fail(CodeInvalid, nil)
		}
		return d, nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return nil, f.fail(CodeInvalid, nil)
		}
		return d, nil
	case float32, float64:
		fl, _ := numberAsFloat(v)
		if math.IsNaN(fl) || math.IsInf(fl, 0) {
			return nil, f.fail(CodeInvalid, nil)
		}
		return decimal.NewFromFloat(fl), nil
	}

	if i, ok := numberAsInt(raw); ok {
		return decimal.NewFromInt(i), nil
	}
	if rv := reflect.ValueOf(raw); rv.Kind() >= reflect.Uint && rv.Kind() <= reflect.Uintptr {
		d, err := decimal.NewFromString(strconv.FormatUint(rv.Uint(), 10))
		if err == nil {
			return d, nil
		}
	}
	return nil, f.fail(CodeInvalid, nil)
}

// DecimalDigitsValidator bounds the number of digits of a decimal.Decimal.
// Zero bounds are not checked.
type DecimalDigitsValidator struct {
	MaxDigits     int
	DecimalPlaces int
}

func (dv DecimalDigitsValidator) Validate(value any) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return nil
	}

	digits, decimals := decimalDigits(d)
	whole := digits - decimals

	var errs ValidationErrors
	if dv.MaxDigits > 0 && digits > dv.MaxDigits {
		errs = append(errs, NewValidationError(
			CodeMaxDigits,
			"Ensure that there are no more than {max} digits in total.",
		).WithParams(map[string]any{"max": dv.MaxDigits, "value": d.String()}))
	}
	if dv.DecimalPlaces > 0 && decimals > dv.DecimalPlaces {
		errs = append(errs, NewValidationError(
			CodeMaxDecimalPlaces,
			"Ensure that there are no more than {max} decimal places.",
		).WithParams(map[string]any{"max": dv.DecimalPlaces, "value": d.String()}))
	}
	if dv.MaxDigits > 0 && dv.DecimalPlaces > 0 && whole > dv.MaxDigits-dv.DecimalPlaces {
		errs = append(errs, NewValidationError(
			CodeMaxWholeDigits,
			"Ensure that there are no more than {max} digits before the decimal point.",
		).WithParams(map[string]any{"max": dv.MaxDigits - dv.DecimalPlaces, "value": d.String()}))
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// decimalDigits returns the total and fractional digit counts of d.
func decimalDigits(d decimal.Decimal) (digits, decimals int) {
	coefficient := strings.TrimPrefix(d.Coefficient().String(), "-")
	exponent := int(d.Exponent())

	switch {
	case exponent >= 0:
		return len(coefficient) + exponent, 0
	case -exponent > len(coefficient):
		return -exponent, -exponent
	default:
		return len(coefficient), -exponent
	}
}

///////////////////////////////////////////////////////////////////////////////
// BooleanField
///////////////////////////////////////////////////////////////////////////////

// BooleanField cleans its input into a bool. Unrecognised input cleans to
// nil, which fails a required field.
type BooleanField struct {
	baseField
}

func NewBooleanField(opts FieldOpts) *BooleanField {
	return &BooleanField{baseField: newBaseField(KindBoolean, opts, nil)}
}

func (f *BooleanField) Clean(raw any) (any, ValidationErrors) {
	return f.clean(raw, func(raw any) (any, *ValidationError) {
		if b, ok := boolFromAny(raw); ok {
			return b, nil
		}
		return nil, nil
	})
}

func boolFromAny(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		return parseBool(v)
	}
	if i, ok := numberAsInt(raw); ok && (i == 0 || i == 1) {
		return i == 1, true
	}
	return false, false
}

func parseBool(s string) (bool, bool) {
	switch strings.TrimSpace(s) {
	case "true", "True", "1":
		return true, true
	case "false", "False", "0":
		return false, true
	}
	return false, false
}

///////////////////////////////////////////////////////////////////////////////
// UUIDField
///////////////////////////////////////////////////////////////////////////////

// UUIDField cleans its input into a uuid.UUID.
type UUIDField struct {
	baseField
}

func NewUUIDField(opts FieldOpts) *UUIDField {
	return &UUIDField{
		baseField: newBaseField(KindUUID, opts, map[string]string{
			CodeInvalid: "Enter a valid UUID.",
		}),
	}
}

func (f *UUIDField) Clean(raw any) (any, ValidationErrors) {
	return f.clean(raw, func(raw any) (any, *ValidationError) {
		switch v := raw.(type) {
		case uuid.UUID:
			return v, nil
		case string:
			id, err := uuid.Parse(strings.TrimSpace(v))
			if err != nil {
				return nil, f.fail(CodeInvalid, nil)
			}
			return id, nil
		case []byte:
			id, err := uuid.FromBytes(v)
			if err != nil {
				return nil, f.fail(CodeInvalid, nil)
			}
			return id, nil
		}
		return nil, f.fail(CodeInvalid, nil)
	})
}

///////////////////////////////////////////////////////////////////////////////
// EnumField
///////////////////////////////////////////////////////////////////////////////

type EnumFieldOpts struct {
	FieldOpts
	Name    string // rendered as {enum} in the invalid_choice message
	Choices []any
}

// EnumField accepts one of a fixed set of choices and cleans to the matching
// declared choice.
type EnumField struct {
	baseField
	name    string
	choices []any
}

func NewEnumField(opts EnumFieldOpts) *EnumField {
	if len(opts.Choices) == 0 {
		declarationPanic("EnumField %q declared without choices", opts.Name)
	}
	name := opts.Name
	if name == "" {
		name = KindEnum
	}

	choices := make([]any, len(opts.Choices))
	copy(choices, opts.Choices)

	return &EnumField{
		baseField: newBaseField(KindEnum, opts.FieldOpts, map[string]string{
			CodeInvalidChoice: `Invalid enum value "{value}" passed to {enum}`,
		}),
		name:    name,
		choices: choices,
	}
}

// Choices returns a copy of the declared choices.
func (f *EnumField) Choices() []any {
	out := make([]any, len(f.choices))
	copy(out, f.choices)
	return out
}

func (f *EnumField) Clean(raw any) (any, ValidationErrors) {
	return f.clean(raw, func(raw any) (any, *ValidationError) {
		if choice, ok := matchChoice(raw, f.choices); ok {
			return choice, nil
		}
		return nil, f.fail(CodeInvalidChoice, map[string]any{"value": raw, "enum": f.name})
	})
}

///////////////////////////////////////////////////////////////////////////////
// AnyField
///////////////////////////////////////////////////////////////////////////////

// AnyField accepts any value unchanged.
type AnyField struct {
	baseField
}

func NewAnyField(opts FieldOpts) *AnyField {
	return &AnyField{baseField: newBaseField(KindAny, opts, nil)}
}

func (f *AnyField) Clean(raw any) (any, ValidationErrors) {
	if isEmpty(raw) {
		if errs := f.validate(raw); len(errs) > 0 {
			return nil, errs
		}
		return raw, nil
	}
	return f.clean(raw, func(raw any) (any, *ValidationError) {
		return raw, nil
	})
}
