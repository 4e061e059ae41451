package apiforms

import "fmt"

///////////////////////////////////////////////////////////////////////////////
// Field Interface
///////////////////////////////////////////////////////////////////////////////

// Field is a single-value validation and normalization unit.
//
// Fields are immutable once constructed and are shared by every Form built
// from the same FormType, so Clean must be a pure function of raw.
type Field interface {
	// Clean converts raw into the field's domain value and validates it.
	// On failure the returned errors carry paths relative to this field;
	// the caller prepends its own addressing segment.
	Clean(raw any) (any, ValidationErrors)
	// IsRequired reports whether an empty or absent value is an error.
	IsRequired() bool
	// Default returns the value stored for an optional field that is
	// absent from the input, if one was declared.
	Default() (any, bool)
	// Kind returns the field type name used to resolve population strategies.
	Kind() string
}

// scopedField is implemented by composite fields. They build nested forms
// which must share the enclosing form's configuration.
type scopedField interface {
	cleanIn(cfg *Config, raw any) (any, ValidationErrors)
}

// cleanField dispatches to cleanIn when the field supports it so that the
// configuration reaches every nested form.
func cleanField(cfg *Config, field Field, raw any) (any, ValidationErrors) {
	if scoped, ok := field.(scopedField); ok {
		return scoped.cleanIn(cfg, raw)
	}
	return field.Clean(raw)
}

// FieldOpts holds the options shared by every field.
type FieldOpts struct {
	Required      bool
	Default       any
	ErrorMessages map[string]string // code -> message template
	Validators    []Validator
}

var defaultErrorMessages = map[string]string{
	CodeRequired:      "This field is required.",
	CodeInvalid:       "Enter a valid value.",
	CodeInvalidChoice: "Select a valid choice. {value} is not one of the available choices.",
}

///////////////////////////////////////////////////////////////////////////////
// baseField
///////////////////////////////////////////////////////////////////////////////

// baseField implements the parts of Field that do not depend on the value
// type. Concrete fields embed it and supply a conversion function.
type baseField struct {
	kind       string
	required   bool
	def        any
	messages   map[string]string
	overrides  map[string]string
	validators []Validator
	empty      any
}

func newBaseField(kind string, opts FieldOpts, messages map[string]string, validators ...Validator) baseField {
	merged := make(map[string]string, len(defaultErrorMessages)+len(messages)+len(opts.ErrorMessages))
	for code, msg := range defaultErrorMessages {
		merged[code] = msg
	}
	for code, msg := range messages {
		merged[code] = msg
	}
	for code, msg := range opts.ErrorMessages {
		merged[code] = msg
	}

	// field specific validators run after the declared ones
	all := make([]Validator, 0, len(opts.Validators)+len(validators))
	all = append(all, opts.Validators...)
	for _, v := range validators {
		if v != nil {
			all = append(all, v)
		}
	}

	return baseField{
		kind:       kind,
		required:   opts.Required,
		def:        opts.Default,
		messages:   merged,
		overrides:  opts.ErrorMessages,
		validators: all,
	}
}

func (b *baseField) IsRequired() bool {
	return b.required
}

func (b *baseField) Default() (any, bool) {
	return b.def, b.def != nil
}

func (b *baseField) Kind() string {
	return b.kind
}

// fail builds an error for code using the field's message table.
func (b *baseField) fail(code string, params map[string]any) *ValidationError {
	msg, ok := b.messages[code]
	if !ok {
		msg = b.messages[CodeInvalid]
	}
	return NewValidationError(code, msg).WithParams(params)
}

// clean runs convert on non-empty input, then validate.
func (b *baseField) clean(raw any, convert func(raw any) (any, *ValidationError)) (any, ValidationErrors) {
	value := b.empty
	if !isEmpty(raw) {
		converted, err := convert(raw)
		if err != nil {
			return nil, ValidationErrors{err}
		}
		value = converted
	}

	if errs := b.validate(value); len(errs) > 0 {
		return nil, errs
	}

	if isEmpty(value) {
		return b.empty, nil
	}
	return value, nil
}

// validate checks requiredness and then runs every validator. It never
// stops at the first failing validator.
func (b *baseField) validate(value any) ValidationErrors {
	if isEmpty(value) {
		if b.required {
			return ValidationErrors{b.fail(CodeRequired, nil)}
		}
		return nil
	}

	var errs ValidationErrors
	for _, validator := range b.validators {
		err := validator.Validate(value)
		if err == nil {
			continue
		}

		batch, ok := AsValidationErrors(err)
		if !ok {
			batch = ValidationErrors{NewValidationError(CodeInvalid, err.Error())}
		}
		for _, ve := range batch {
			if msg, overridden := b.overrides[ve.Code]; overridden {
				ve = &ValidationError{Code: ve.Code, Message: msg, Params: ve.Params, Path: ve.Path}
			}
			errs = append(errs, ve)
		}
	}
	return errs
}

// declarationPanic reports a programmer error in a field constructor.
func declarationPanic(format string, args ...any) {
	panic(fmt.Errorf("%w: %s", ErrInvalidDeclaration, fmt.Sprintf(format, args...)))
}
