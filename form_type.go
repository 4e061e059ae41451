package apiforms

import (
	"fmt"
	"maps"

	"go.uber.org/multierr"
)

// FieldHook post-processes the cleaned value of one field. The returned
// value replaces the stored one. Returning a *ValidationError or
// ValidationErrors reports it under the field name.
type FieldHook func(f *Form, value any) (any, error)

// FormHook runs once every field is clean and may check invariants that
// span fields. Errors are reported under the form-level sentinel. A nil
// map keeps the cleaned data unchanged.
type FormHook func(f *Form, data map[string]any) (map[string]any, error)

// FillHook computes the value assigned to dest for one field during
// Populate. The returned value is assigned with AssignStrategy.
type FillHook func(f *Form, dest any, value any) (any, error)

type fieldDecl struct {
	name  string
	field Field
}

// FormType is the immutable declaration of a form: its ordered fields, its
// hooks and its population overrides. It is shared by every Form
// validated against it.
type FormType struct {
	name            string
	fields          []fieldDecl
	index           map[string]int
	fieldHooks      map[string]FieldHook
	fillHooks       map[string]FillHook
	fieldStrategies map[string]Strategy
	kindStrategies  map[string]Strategy
	mapping         map[string]string
	formHook        FormHook
}

// Name returns the declared form name
func (ft *FormType) Name() string {
	return ft.name
}

// Fields returns the declared field names in declaration order.
func (ft *FormType) Fields() []string {
	names := make([]string, len(ft.fields))
	for i, decl := range ft.fields {
		names[i] = decl.name
	}
	return names
}

// Field returns the field declared under name.
func (ft *FormType) Field(name string) (Field, bool) {
	i, ok := ft.index[name]
	if !ok {
		return nil, false
	}
	return ft.fields[i].field, true
}

///////////////////////////////////////////////////////////////////////////////
// Builder
///////////////////////////////////////////////////////////////////////////////

// FormTypeBuilder declares a FormType. Declaration mistakes are collected
// and reported together by Build.
type FormTypeBuilder struct {
	ft        *FormType
	inherited map[string]bool
	errs      error
}

// NewFormType starts the declaration of a form named name.
//
// Example:
//
//	SongForm := apiforms.NewFormType("SongForm").
//		Field("title", apiforms.NewCharField(apiforms.CharFieldOpts{FieldOpts: apiforms.FieldOpts{Required: true}})).
//		Field("duration", apiforms.NewDurationField(apiforms.FieldOpts{Required: true})).
//		MustBuild()
func NewFormType(name string) *FormTypeBuilder {
	return &FormTypeBuilder{
		ft: &FormType{
			name:            name,
			index:           make(map[string]int),
			fieldHooks:      make(map[string]FieldHook),
			fillHooks:       make(map[string]FillHook),
			fieldStrategies: make(map[string]Strategy),
			kindStrategies:  make(map[string]Strategy),
			mapping:         make(map[string]string),
		},
		inherited: make(map[string]bool),
	}
}

func (b *FormTypeBuilder) fail(format string, args ...any) *FormTypeBuilder {
	b.errs = multierr.Append(b.errs, fmt.Errorf("%w: %s: %s", ErrInvalidDeclaration, b.ft.name, fmt.Sprintf(format, args...)))
	return b
}

// Extend copies every declaration of parent into the form. Fields declared
// afterwards under an inherited name replace the inherited field in place.
func (b *FormTypeBuilder) Extend(parent *FormType) *FormTypeBuilder {
	if parent == nil {
		return b.fail("cannot extend a nil form type")
	}

	for _, decl := range parent.fields {
		if _, exists := b.ft.index[decl.name]; exists {
			b.fail("field %q inherited from %s is already declared", decl.name, parent.name)
			continue
		}
		b.ft.index[decl.name] = len(b.ft.fields)
		b.ft.fields = append(b.ft.fields, decl)
		b.inherited[decl.name] = true
	}
	maps.Copy(b.ft.fieldHooks, parent.fieldHooks)
	maps.Copy(b.ft.fillHooks, parent.fillHooks)
	maps.Copy(b.ft.fieldStrategies, parent.fieldStrategies)
	maps.Copy(b.ft.kindStrategies, parent.kindStrategies)
	maps.Copy(b.ft.mapping, parent.mapping)
	if parent.formHook != nil {
		b.ft.formHook = parent.formHook
	}
	return b
}

// Field declares a field. Names must be unique within the form.
func (b *FormTypeBuilder) Field(name string, field Field) *FormTypeBuilder {
	switch {
	case name == "":
		return b.fail("field name cannot be empty")
	case field == nil:
		return b.fail("field %q has no Field", name)
	}

	if i, exists := b.ft.index[name]; exists {
		if !b.inherited[name] {
			return b.fail("field %q declared twice", name)
		}
		b.ft.fields[i].field = field
		delete(b.inherited, name)
		return b
	}

	b.ft.index[name] = len(b.ft.fields)
	b.ft.fields = append(b.ft.fields, fieldDecl{name: name, field: field})
	return b
}

// CleanField attaches a post-clean hook to a declared field.
func (b *FormTypeBuilder) CleanField(name string, hook FieldHook) *FormTypeBuilder {
	if hook == nil {
		return b.fail("clean hook for %q is nil", name)
	}
	b.ft.fieldHooks[name] = hook
	return b
}

// Clean sets the form-wide clean hook.
func (b *FormTypeBuilder) Clean(hook FormHook) *FormTypeBuilder {
	b.ft.formHook = hook
	return b
}

// Fill attaches a population hook to a declared field.
func (b *FormTypeBuilder) Fill(name string, hook FillHook) *FormTypeBuilder {
	if hook == nil {
		return b.fail("fill hook for %q is nil", name)
	}
	b.ft.fillHooks[name] = hook
	return b
}

// FieldStrategy overrides the population strategy of one field.
func (b *FormTypeBuilder) FieldStrategy(name string, strategy Strategy) *FormTypeBuilder {
	if strategy == nil {
		return b.fail("strategy for %q is nil", name)
	}
	b.ft.fieldStrategies[name] = strategy
	return b
}

// KindStrategy overrides the population strategy of every field of a kind
// for this form only.
func (b *FormTypeBuilder) KindStrategy(kind string, strategy Strategy) *FormTypeBuilder {
	if strategy == nil {
		return b.fail("strategy for kind %q is nil", kind)
	}
	b.ft.kindStrategies[kind] = strategy
	return b
}

// Map renames the input key from to the field name to before validation.
func (b *FormTypeBuilder) Map(from, to string) *FormTypeBuilder {
	if from == "" || to == "" {
		return b.fail("mapping %q -> %q has an empty side", from, to)
	}
	b.ft.mapping[from] = to
	return b
}

// Build checks the declaration and returns the FormType. Every problem
// found is reported, combined with multierr.
func (b *FormTypeBuilder) Build() (*FormType, error) {
	errs := b.errs
	for name := range b.ft.fieldHooks {
		if _, ok := b.ft.index[name]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s: clean hook for undeclared field %q", ErrInvalidDeclaration, b.ft.name, name))
		}
	}
	for name := range b.ft.fillHooks {
		if _, ok := b.ft.index[name]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s: fill hook for undeclared field %q", ErrInvalidDeclaration, b.ft.name, name))
		}
	}
	for name := range b.ft.fieldStrategies {
		if _, ok := b.ft.index[name]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s: strategy for undeclared field %q", ErrInvalidDeclaration, b.ft.name, name))
		}
	}
	for from, to := range b.ft.mapping {
		if _, ok := b.ft.index[to]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s: mapping %q targets undeclared field %q", ErrInvalidDeclaration, b.ft.name, from, to))
		}
	}
	if errs != nil {
		return nil, errs
	}

	// detach from the builder so later builder calls cannot mutate it
	built := *b.ft
	built.fields = append([]fieldDecl(nil), b.ft.fields...)
	built.index = maps.Clone(b.ft.index)
	built.fieldHooks = maps.Clone(b.ft.fieldHooks)
	built.fillHooks = maps.Clone(b.ft.fillHooks)
	built.fieldStrategies = maps.Clone(b.ft.fieldStrategies)
	built.kindStrategies = maps.Clone(b.ft.kindStrategies)
	built.mapping = maps.Clone(b.ft.mapping)
	return &built, nil
}

// MustBuild is like Build but panics on a declaration error.
func (b *FormTypeBuilder) MustBuild() *FormType {
	ft, err := b.Build()
	if err != nil {
		panic(err)
	}
	return ft
}
