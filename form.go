package apiforms

import (
	"fmt"
	"maps"
	"slices"

	"go.uber.org/zap"
)

// Form validates one input mapping against a FormType.
//
// A Form starts unvalidated. The first call to FullClean, Errors, IsValid
// or CleanedData validates it; later calls return the memoized outcome.
// A Form is not safe for concurrent use, the FormType it was built from is.
type Form struct {
	ft        *FormType
	cfg       *Config
	data      map[string]any
	dirty     []string
	errors    ValidationErrors
	cleaned   map[string]any
	validated bool
}

// NewForm binds data to ft. A nil cfg uses the shared default Config.
// data is not modified; renamed keys are applied to a copy.
func NewForm(ft *FormType, data map[string]any, cfg *Config) *Form {
	if ft == nil {
		panic(fmt.Errorf("%w: nil form type", ErrApiForm))
	}

	f := &Form{
		ft:   ft,
		cfg:  resolveConfig(cfg),
		data: make(map[string]any, len(data)),
	}
	for key, value := range data {
		if to, ok := ft.mapping[key]; ok {
			key = to
		}
		f.data[key] = value
	}
	for _, decl := range ft.fields {
		if _, ok := f.data[decl.name]; ok {
			f.dirty = append(f.dirty, decl.name)
		}
	}
	return f
}

// Type returns the form's declaration
func (f *Form) Type() *FormType {
	return f.ft
}

// Config returns the configuration the form validates with
func (f *Form) Config() *Config {
	return f.cfg
}

// Field returns the declared field called name
func (f *Form) Field(name string) (Field, bool) {
	return f.ft.Field(name)
}

// Data returns a copy of the input after key mapping.
func (f *Form) Data() map[string]any {
	return maps.Clone(f.data)
}

// Dirty returns the declared fields present in the input, in declaration
// order.
func (f *Form) Dirty() []string {
	return slices.Clone(f.dirty)
}

// IsDirty reports whether the input contains name.
func (f *Form) IsDirty(name string) bool {
	return slices.Contains(f.dirty, name)
}

// FullClean validates the form. It is a no-op after the first call.
func (f *Form) FullClean() {
	if f.validated {
		return
	}
	f.validated = true
	f.errors = ValidationErrors{}
	f.cleaned = make(map[string]any, len(f.ft.fields))

	for _, decl := range f.ft.fields {
		f.cleanDecl(decl)
	}

	if len(f.errors) == 0 && f.ft.formHook != nil {
		data, err := f.ft.formHook(f, f.cleaned)
		switch {
		case err != nil:
			f.AddError(Path{f.cfg.FormErrorKey}, err)
		case data != nil:
			f.cleaned = data
		}
	}

	if ce := f.cfg.Logger.Check(zap.DebugLevel, "form validated"); ce != nil {
		ce.Write(
			zap.String("form", f.ft.name),
			zap.Bool("valid", len(f.errors) == 0),
			zap.Int("errors", len(f.errors)),
		)
	}
}

func (f *Form) cleanDecl(decl fieldDecl) {
	raw, present := f.data[decl.name]
	if !present && !decl.field.IsRequired() {
		if def, ok := decl.field.Default(); ok {
			f.cleaned[decl.name] = def
		}
		return
	}

	value, errs := cleanField(f.cfg, decl.field, raw)
	if len(errs) > 0 {
		f.AddError(Path{decl.name}, errs)
		return
	}
	f.cleaned[decl.name] = value

	hook, ok := f.ft.fieldHooks[decl.name]
	if !ok {
		return
	}
	value, err := hook(f, value)
	if err != nil {
		f.AddError(Path{decl.name}, err)
		return
	}
	f.cleaned[decl.name] = value
}

// AddError records err under path. Every validation error carried by err
// (a *ValidationError, ValidationErrors or an error wrapping them) is
// rebased so its stored path is path followed by its own path. Any other
// error is recorded as a single "invalid" error at path.
//
// If path starts with a declared field name, that field is dropped from the
// cleaned data. The form is validated first, so an error added before
// IsValid is kept.
func (f *Form) AddError(path Path, err error) {
	if err == nil {
		return
	}
	f.FullClean()

	batch, ok := AsValidationErrors(err)
	if !ok {
		batch = ValidationErrors{
			NewValidationError(CodeInvalid, "Invalid value").WithParams(map[string]any{"error": err.Error()}),
		}
	}
	f.errors = append(f.errors, batch.Rebase(path...)...)

	if len(path) == 0 {
		return
	}
	if name, ok := path[0].(string); ok && f.cleaned != nil {
		if _, declared := f.ft.index[name]; declared {
			delete(f.cleaned, name)
		}
	}
}

// Errors validates the form if needed and returns every error found.
func (f *Form) Errors() ValidationErrors {
	f.FullClean()
	return f.errors
}

// IsValid validates the form if needed and reports whether it passed.
func (f *Form) IsValid() bool {
	return len(f.Errors()) == 0
}

// Err returns the validation errors as an error, or nil if the form is
// valid.
func (f *Form) Err() error {
	if f.IsValid() {
		return nil
	}
	return f.errors
}

// CleanedData validates the form if needed and returns the cleaned data.
// It is nil unless the form is valid.
func (f *Form) CleanedData() map[string]any {
	f.FullClean()
	if len(f.errors) > 0 {
		return nil
	}
	return f.cleaned
}

// Value returns the cleaned value of name. Inside hooks it sees the values
// cleaned so far.
func (f *Form) Value(name string) (any, bool) {
	if f.cleaned == nil {
		return nil, false
	}
	value, ok := f.cleaned[name]
	return value, ok
}

// Populate copies the cleaned data onto dest, a pointer to a struct or a
// map with string keys. The form must have been validated and be valid.
//
// Each field is applied with, in order of precedence: its fill hook, its
// FieldStrategy override, the form's KindStrategy override, or the Config
// strategy registry. Fields named in exclude and fields absent from the
// cleaned data are skipped.
func (f *Form) Populate(dest any, exclude ...string) error {
	if !f.validated || len(f.errors) > 0 {
		return ErrNoCleanData
	}
	if _, err := populateTarget(dest); err != nil {
		return err
	}

	for _, decl := range f.ft.fields {
		if slices.Contains(exclude, decl.name) {
			continue
		}
		value, ok := f.cleaned[decl.name]
		if !ok {
			continue
		}

		if hook, ok := f.ft.fillHooks[decl.name]; ok {
			filled, err := hook(f, dest, value)
			if err != nil {
				return fmt.Errorf("fill %s: %w", decl.name, err)
			}
			if err := (AssignStrategy{}).Apply(decl.field, dest, decl.name, filled); err != nil {
				return fmt.Errorf("populate %s: %w", decl.name, err)
			}
			continue
		}

		if err := f.strategyFor(decl).Apply(decl.field, dest, decl.name, value); err != nil {
			return fmt.Errorf("populate %s: %w", decl.name, err)
		}
	}
	return nil
}

func (f *Form) strategyFor(decl fieldDecl) Strategy {
	if strategy, ok := f.ft.fieldStrategies[decl.name]; ok {
		return strategy
	}
	if strategy, ok := f.ft.kindStrategies[decl.field.Kind()]; ok {
		return strategy
	}
	return f.cfg.Strategies.Resolve(decl.field.Kind())
}
