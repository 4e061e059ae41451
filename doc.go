// Package apiforms provides declarative validation of decoded request
// bodies. A form type declares named fields; a Form binds one input mapping
// to a form type, validates every field, and reports either the cleaned
// data or the complete list of errors, each with an absolute path from the
// form root to the failing value.
//
// Fields come in two flavors:
//   - Scalar fields (CharField, EmailField, IntegerField, FloatField,
//     DecimalField, BooleanField, UUIDField, EnumField, AnyField, and the
//     temporal DateField, TimeField, DateTimeField and DurationField) convert
//     one raw value into a typed value and run their validators.
//   - Composite fields (FieldList, DictionaryField, FormField and
//     FormFieldList) validate collections and nested forms. They never stop
//     at the first failing element: every element is cleaned and every error
//     is reported under its index or key.
//
// Errors travel outwards by rebasing. A field reports errors with empty
// paths; each enclosing composite prepends an index or key, each form
// prepends a field name. Errors from a form-wide clean hook are reported
// under the sentinel segment "$body" (see Config.FormErrorKey).
//
// Example:
//
//	SongForm := apiforms.NewFormType("SongForm").
//		Field("title", apiforms.NewCharField(apiforms.CharFieldOpts{FieldOpts: apiforms.FieldOpts{Required: true}})).
//		Field("duration", apiforms.NewDurationField(apiforms.FieldOpts{Required: true})).
//		MustBuild()
//
//	AlbumForm := apiforms.NewFormType("AlbumForm").
//		Field("title", apiforms.NewCharField(apiforms.CharFieldOpts{MaxLength: 100})).
//		Field("songs", apiforms.NewFormFieldList(SongForm, apiforms.FormFieldListOpts{})).
//		MustBuild()
//
//	form, err := apiforms.FromRequest(AlbumForm, r, nil)
//	if err != nil {
//		// unsupported media type or malformed payload
//	}
//	if !form.IsValid() {
//		// form.Errors() -> [{required [songs 0 title]} ...]
//	}
//
// Request bodies are decoded by a DecoderRegistry keyed by Content-Type.
// JSON (gjson), MessagePack and YAML are registered by default.
//
// Once valid, a form can populate a struct or map with Populate. The value
// of each field is applied by a Strategy resolved per field kind, with
// per-form and per-field overrides and fill hooks.
//
// Form types and fields are immutable and safe to share between goroutines.
// A Form holds the state of one validation and is not.
package apiforms
