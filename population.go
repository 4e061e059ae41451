package apiforms

import (
	"fmt"
	"maps"
	"reflect"
	"strings"
)

// Strategy copies one cleaned value onto a population target.
type Strategy interface {
	Apply(field Field, dest any, name string, value any) error
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(field Field, dest any, name string, value any) error

func (fn StrategyFunc) Apply(field Field, dest any, name string, value any) error {
	return fn(field, dest, name, value)
}

// AssignStrategy sets the struct field (or map key) named name.
//
// Struct fields are matched by `form` tag first, then by Go name, then
// ignoring case and underscores. Names with no matching struct field are
// skipped. Values are converted to the target type where possible.
type AssignStrategy struct{}

func (AssignStrategy) Apply(_ Field, dest any, name string, value any) error {
	return assignTo(dest, name, value)
}

// IgnoreStrategy never populates anything.
type IgnoreStrategy struct{}

func (IgnoreStrategy) Apply(Field, any, string, any) error {
	return nil
}

// TrimSuffixStrategy assigns the value under name with Suffix removed, so
// a cleaned "artist_id" lands on the "artist" attribute.
type TrimSuffixStrategy struct {
	Suffix string // defaults to "_id"
}

func (s TrimSuffixStrategy) Apply(_ Field, dest any, name string, value any) error {
	suffix := s.Suffix
	if suffix == "" {
		suffix = "_id"
	}
	return assignTo(dest, strings.TrimSuffix(name, suffix), value)
}

// assignTo writes value into dest, a pointer to a struct or a map with
// string keys.
func assignTo(dest any, name string, value any) error {
	target, err := populateTarget(dest)
	if err != nil {
		return err
	}

	if target.Kind() == reflect.Map {
		if target.IsNil() {
			target.Set(reflect.MakeMap(target.Type()))
		}
		elem := reflect.New(target.Type().Elem()).Elem()
		if err := assignValue(elem, value); err != nil {
			return fmt.Errorf("key %s: %w", name, err)
		}
		target.SetMapIndex(reflect.ValueOf(name).Convert(target.Type().Key()), elem)
		return nil
	}

	info, ok := lookupStructFields(target.Type()).find(name)
	if !ok {
		return nil
	}
	if value == nil && info.tag.OmitNil {
		return nil
	}
	if err := assignValue(target.FieldByIndex(info.index), value); err != nil {
		return fmt.Errorf("field %s: %w", info.name, err)
	}
	return nil
}

// populateTarget dereferences dest down to a settable struct or string-keyed
// map.
func populateTarget(dest any) (reflect.Value, error) {
	rv := reflect.ValueOf(dest)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String && !rv.IsNil() {
		// maps are reference types, a plain map value is writable
		return rv, nil
	}
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return reflect.Value{}, ErrInvalidPopulateTarget
	}

	elem := rv.Elem()
	switch {
	case elem.Kind() == reflect.Struct:
		return elem, nil
	case elem.Kind() == reflect.Map && elem.Type().Key().Kind() == reflect.String:
		return elem, nil
	}
	return reflect.Value{}, ErrInvalidPopulateTarget
}

///////////////////////////////////////////////////////////////////////////////
// StrategyRegistry
///////////////////////////////////////////////////////////////////////////////

// StrategyRegistry resolves population strategies by field kind. It is meant
// to be configured once and then only read.
type StrategyRegistry struct {
	byKind   map[string]Strategy
	fallback Strategy
}

// NewStrategyRegistry returns a registry with the default table: nested
// forms are ignored and everything else is assigned.
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		byKind: map[string]Strategy{
			KindFormField:     IgnoreStrategy{},
			KindFormFieldList: IgnoreStrategy{},
		},
		fallback: AssignStrategy{},
	}
}

// Register sets the strategy for every field of kind.
func (sr *StrategyRegistry) Register(kind string, strategy Strategy) {
	sr.byKind[kind] = strategy
}

// SetDefault sets the strategy used for kinds without an entry.
func (sr *StrategyRegistry) SetDefault(strategy Strategy) {
	sr.fallback = strategy
}

// Resolve returns the strategy for a field kind.
func (sr *StrategyRegistry) Resolve(kind string) Strategy {
	if strategy, ok := sr.byKind[kind]; ok {
		return strategy
	}
	if sr.fallback == nil {
		return AssignStrategy{}
	}
	return sr.fallback
}

// Clone returns an independent copy of the registry.
func (sr *StrategyRegistry) Clone() *StrategyRegistry {
	return &StrategyRegistry{
		byKind:   maps.Clone(sr.byKind),
		fallback: sr.fallback,
	}
}

// ParseStrategy resolves a strategy name as used in configuration files:
// "assign", "ignore", "trim_suffix" or "trim_suffix:<suffix>".
func ParseStrategy(name string) (Strategy, error) {
	name = strings.TrimSpace(name)
	switch name {
	case "assign":
		return AssignStrategy{}, nil
	case "ignore":
		return IgnoreStrategy{}, nil
	case "trim_suffix":
		return TrimSuffixStrategy{}, nil
	}
	if suffix, ok := strings.CutPrefix(name, "trim_suffix:"); ok && suffix != "" {
		return TrimSuffixStrategy{Suffix: suffix}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}
