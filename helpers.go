package apiforms

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

///////////////////////////////////////////////////////////////////////////////
// Shape helpers
///////////////////////////////////////////////////////////////////////////////

// isEmpty reports whether v belongs to the empty set shared by every field:
// nil, the empty string, and empty sequences and mappings. false and 0 are
// values, not emptiness.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.IsNil() || rv.Len() == 0
	case reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// asSequence returns the elements of any slice or array other than strings
// and byte slices.
func asSequence(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

type mapEntry struct {
	Key   any
	Value any
}

// asMapping returns the entries of any map kind sorted by the string form of
// their keys, so that error order does not depend on map iteration.
func asMapping(v any) ([]mapEntry, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}

	entries := make([]mapEntry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, mapEntry{Key: iter.Key().Interface(), Value: iter.Value().Interface()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return fmt.Sprint(entries[i].Key) < fmt.Sprint(entries[j].Key)
	})
	return entries, true
}

// asStringMap converts any map kind into a map[string]any. Non-string keys
// are rendered with fmt.Sprint.
func asStringMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}

	entries, ok := asMapping(v)
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(entries))
	for _, entry := range entries {
		out[keyString(entry.Key)] = entry.Value
	}
	return out, true
}

func keyString(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return fmt.Sprint(key)
}

// normalizeDecoded rewrites map[any]any produced by some decoders into
// map[string]any, recursively.
func normalizeDecoded(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for key, value := range t {
			t[key] = normalizeDecoded(value)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for key, value := range t {
			out[keyString(key)] = normalizeDecoded(value)
		}
		return out
	case []any:
		for i, value := range t {
			t[i] = normalizeDecoded(value)
		}
		return t
	default:
		return v
	}
}

///////////////////////////////////////////////////////////////////////////////
// Number helpers
///////////////////////////////////////////////////////////////////////////////

// numberAsFloat converts any Go numeric kind or json.Number into a float64.
func numberAsFloat(v any) (float64, bool) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// numberAsInt converts integral numbers into an int64. Floats must have no
// fractional part.
func numberAsInt(v any) (int64, bool) {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatAsInt(f)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		return floatAsInt(rv.Float())
	}
	return 0, false
}

func floatAsInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
	if f < math.MinInt64 || f >= math.Exp2(63) {
		return 0, false
	}
	return int64(f), true
}

func isNumber(v any) bool {
	_, ok := numberAsFloat(v)
	return ok
}

// valuesEqual compares two scalars, treating numbers of different Go types
// as equal when their values are.
func valuesEqual(a, b any) bool {
	if isNumber(a) && isNumber(b) {
		fa, _ := numberAsFloat(a)
		fb, _ := numberAsFloat(b)
		return fa == fb
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || ta == nil || !ta.Comparable() {
		return a == nil && b == nil
	}
	return a == b
}

///////////////////////////////////////////////////////////////////////////////
// Assignment helpers
///////////////////////////////////////////////////////////////////////////////

// assignValue stores value into field, converting between compatible kinds.
//
// Currently supports:
//   - nil to zero value
//   - assignable and pointer targets
//   - numeric kinds to numeric kinds (with overflow checking)
//   - string to any kind setFieldValue supports
//   - []any to typed slices, element by element
//   - map[string]any to typed maps and to structs (recursive population)
func assignValue(field reflect.Value, value any) error {
	if value == nil {
		field.SetZero()
		return nil
	}

	rv := reflect.ValueOf(value)
	ft := field.Type()

	if rv.Type().AssignableTo(ft) {
		field.Set(rv)
		return nil
	}

	if ft.Kind() == reflect.Ptr {
		elem := reflect.New(ft.Elem())
		if err := assignValue(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	if s, ok := value.(string); ok && ft.Kind() != reflect.String {
		return setFieldValue(field, s)
	}

	if isNumericKind(ft.Kind()) && isNumericKind(rv.Kind()) {
		return setNumericValue(field, rv)
	}

	switch ft.Kind() {
	case reflect.Slice:
		if items, ok := asSequence(value); ok {
			out := reflect.MakeSlice(ft, len(items), len(items))
			for i, item := range items {
				if err := assignValue(out.Index(i), item); err != nil {
					return fmt.Errorf("index %d: %w", i, err)
				}
			}
			field.Set(out)
			return nil
		}
	case reflect.Map:
		if entries, ok := asMapping(value); ok && ft.Key().Kind() == reflect.String {
			out := reflect.MakeMapWithSize(ft, len(entries))
			for _, entry := range entries {
				elem := reflect.New(ft.Elem()).Elem()
				if err := assignValue(elem, entry.Value); err != nil {
					return fmt.Errorf("key %v: %w", entry.Key, err)
				}
				out.SetMapIndex(reflect.ValueOf(keyString(entry.Key)).Convert(ft.Key()), elem)
			}
			field.Set(out)
			return nil
		}
	case reflect.Struct:
		if data, ok := asStringMap(value); ok && !isSpecialStructType(ft) {
			return assignStruct(field, data)
		}
	}

	if rv.Type().ConvertibleTo(ft) && rv.Kind() == ft.Kind() {
		field.Set(rv.Convert(ft))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, ft)
}

// assignStruct populates the matching fields of a struct value from data.
// Keys without a matching field are ignored.
func assignStruct(target reflect.Value, data map[string]any) error {
	fields := lookupStructFields(target.Type())
	for key, value := range data {
		info, ok := fields.find(key)
		if !ok {
			continue
		}
		if value == nil && info.tag.OmitNil {
			continue
		}
		if err := assignValue(target.FieldByIndex(info.index), value); err != nil {
			return fmt.Errorf("field %s: %w", info.name, err)
		}
	}
	return nil
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// setNumericValue converts between numeric kinds with overflow checking.
func setNumericValue(field reflect.Value, rv reflect.Value) error {
	value := rv.Interface()
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := numberAsInt(value)
		if !ok || field.OverflowInt(i) {
			return fmt.Errorf("value %v overflows %s", value, field.Type())
		}
		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		i, ok := numberAsInt(value)
		if !ok || i < 0 || field.OverflowUint(uint64(i)) {
			return fmt.Errorf("value %v overflows %s", value, field.Type())
		}
		field.SetUint(uint64(i))
	case reflect.Float32, reflect.Float64:
		f, _ := numberAsFloat(value)
		if field.OverflowFloat(f) {
			return fmt.Errorf("value %v overflows %s", value, field.Type())
		}
		field.SetFloat(f)
	}
	return nil
}

// setFieldValue sets a field from its string representation.
//
// Currently supports:
//   - string to int/uint/float kinds (with overflow checking)
//   - string to bool
//   - string to uuid.UUID, decimal.Decimal, time.Time and time.Duration
//   - string to []byte (raw byte slice)
//   - TextUnmarshaler support for custom types
//   - Interface{} support for any type
func setFieldValue(field reflect.Value, value string) error {
	if value == "" {
		return handleEmptyValue(field)
	}

	// checked before TextUnmarshaler so time.Time accepts every layout
	// DateTimeField does
	switch field.Type() {
	case UUIDType:
		uuidValue, err := uuid.Parse(value)
		if err != nil {
			return fmt.Errorf("error converting value to UUID: %w", err)
		}
		field.Set(reflect.ValueOf(uuidValue))
		return nil
	case DecimalType:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("error converting value to decimal: %w", err)
		}
		field.Set(reflect.ValueOf(d))
		return nil
	case TimeType:
		t, err := parseTime(value, dateTimeFormats)
		if err != nil {
			return fmt.Errorf("error converting value to time.Time: %w", err)
		}
		field.Set(reflect.ValueOf(t))
		return nil
	case DurationType:
		d, err := parseDuration(value)
		if err != nil {
			return fmt.Errorf("error converting value to time.Duration: %w", err)
		}
		field.SetInt(int64(d))
		return nil
	}

	if field.CanAddr() {
		if unmarshaler, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return unmarshaler.UnmarshalText([]byte(value))
		}
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setIntValue(field, value)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return setUintValue(field, value)
	case reflect.Float32, reflect.Float64:
		return setFloatValue(field, value)
	case reflect.Bool:
		return setBoolValue(field, value)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.Uint8 {
			field.SetBytes([]byte(value))
			return nil
		}
	case reflect.Interface:
		if field.NumMethod() == 0 {
			field.Set(reflect.ValueOf(value))
			return nil
		}
	}
	return fmt.Errorf("unsupported field type: %s", field.Type())
}

// handleEmptyValue handles empty string values for different field types
func handleEmptyValue(field reflect.Value) error {
	switch field.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Ptr, reflect.Interface:
		field.SetZero()
		return nil
	default:
		return fmt.Errorf("cannot set empty value for field type: %s", field.Type())
	}
}

// setIntValue sets integer field values with overflow checking
func setIntValue(field reflect.Value, value string) error {
	intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fmt.Errorf("error converting value to int: %w", err)
	}
	if field.OverflowInt(intValue) {
		return fmt.Errorf("value %d overflows %s", intValue, field.Type())
	}
	field.SetInt(intValue)
	return nil
}

// setUintValue sets unsigned integer field values with overflow checking
func setUintValue(field reflect.Value, value string) error {
	uintValue, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fmt.Errorf("error converting value to uint: %w", err)
	}
	if field.OverflowUint(uintValue) {
		return fmt.Errorf("value %d overflows %s", uintValue, field.Type())
	}
	field.SetUint(uintValue)
	return nil
}

// setFloatValue sets float field values with overflow checking
func setFloatValue(field reflect.Value, value string) error {
	floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), field.Type().Bits())
	if err != nil {
		return fmt.Errorf("error converting value to float: %w", err)
	}
	if field.OverflowFloat(floatValue) {
		return fmt.Errorf("value %f overflows %s", floatValue, field.Type())
	}
	field.SetFloat(floatValue)
	return nil
}

// setBoolValue accepts the same spellings as BooleanField.
func setBoolValue(field reflect.Value, value string) error {
	b, ok := parseBool(value)
	if !ok {
		return fmt.Errorf("error converting value to bool: %q", value)
	}
	field.SetBool(b)
	return nil
}

// isSpecialStructType checks if a struct type should be treated as a
// primitive rather than populated key by key.
func isSpecialStructType(t reflect.Type) bool {
	switch t {
	case TimeType, UUIDType, DecimalType:
		return true
	}
	return false
}
