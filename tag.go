package apiforms

import (
	"reflect"
	"strings"
)

// FormTag corresponds to the `form` struct tag read by the assign
// population strategy.
//
// Example:
//
//	type Album struct {
//		Title    string `form:"title"`
//		ArtistID int    `form:"artist,omitnil"`
//		Internal string `form:"-"`
//	}
type FormTag struct {
	Name    string // cleaned-data key; empty means "match by field name"
	Skip    bool   // never populated
	OmitNil bool   // nil values leave the field untouched
}

// ParseFormTag reads the `form` tag of a struct field.
func ParseFormTag(field reflect.StructField) FormTag {
	tag, ok := field.Tag.Lookup(FormTagName)
	if !ok {
		return FormTag{}
	}
	tag = strings.TrimSpace(tag)
	if tag == FormTagSkip {
		return FormTag{Skip: true}
	}

	parts := strings.Split(tag, ",")
	out := FormTag{Name: strings.TrimSpace(parts[0])}
	for _, modifier := range parts[1:] {
		switch strings.TrimSpace(modifier) {
		case FormTagOmitNil:
			out.OmitNil = true
		}
	}
	return out
}
