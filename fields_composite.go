package apiforms

import "fmt"

var compositeMessages = map[string]string{
	CodeNotList:      "This field needs to be a list of objects!",
	CodeNotDict:      "Invalid value passed to {field} (got {type}, expected dict)",
	CodeMinLength:    "Ensure this value has at least {min} elements (it has {length}).",
	CodeMaxLength:    "Ensure this value has at most {max} elements (it has {length}).",
	CodeDuplicateKey: "Key {key} is given more than once.",
}

// sequenceBounds checks the optional length bounds shared by FieldList and
// FormFieldList.
func (b *baseField) sequenceBounds(length, min, max int) *ValidationError {
	if min > 0 && length < min {
		return b.fail(CodeMinLength, map[string]any{"min": min, "length": length})
	}
	if max > 0 && length > max {
		return b.fail(CodeMaxLength, map[string]any{"max": max, "length": length})
	}
	return nil
}

// finish runs the declared validators over a successfully cleaned
// composite value.
func (b *baseField) finish(value any) (any, ValidationErrors) {
	if isEmpty(value) {
		return value, nil
	}
	if errs := b.validate(value); len(errs) > 0 {
		return nil, errs
	}
	return value, nil
}

// emptyComposite handles empty input the same way for every composite.
func (b *baseField) emptyComposite(empty any) (any, ValidationErrors) {
	if b.required {
		return nil, ValidationErrors{b.fail(CodeRequired, nil)}
	}
	return empty, nil
}

///////////////////////////////////////////////////////////////////////////////
// FieldList
///////////////////////////////////////////////////////////////////////////////

type FieldListOpts struct {
	FieldOpts
	MinLength int
	MaxLength int
}

// FieldList validates every element of a sequence with one inner field.
// Element errors are reported under their index.
type FieldList struct {
	baseField
	field     Field
	minLength int
	maxLength int
}

// NewFieldList panics if field is nil.
func NewFieldList(field Field, opts FieldListOpts) *FieldList {
	if field == nil {
		declarationPanic("Invalid Field type passed into FieldList!")
	}
	return &FieldList{
		baseField: newBaseField(KindFieldList, opts.FieldOpts, compositeMessages),
		field:     field,
		minLength: opts.MinLength,
		maxLength: opts.MaxLength,
	}
}

// Field returns the inner field.
func (f *FieldList) Field() Field {
	return f.field
}

func (f *FieldList) Clean(raw any) (any, ValidationErrors) {
	return f.cleanIn(defaultConfig(), raw)
}

func (f *FieldList) cleanIn(cfg *Config, raw any) (any, ValidationErrors) {
	if isEmpty(raw) {
		return f.emptyComposite([]any{})
	}

	items, ok := asSequence(raw)
	if !ok {
		return nil, ValidationErrors{f.fail(CodeNotList, nil)}
	}
	if err := f.sequenceBounds(len(items), f.minLength, f.maxLength); err != nil {
		return nil, ValidationErrors{err}
	}

	result := make([]any, len(items))
	var errs ValidationErrors
	for i, item := range items {
		value, itemErrs := cleanField(cfg, f.field, item)
		if len(itemErrs) > 0 {
			errs = append(errs, itemErrs.Rebase(i)...)
			continue
		}
		result[i] = value
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return f.finish(result)
}

///////////////////////////////////////////////////////////////////////////////
// DictionaryField
///////////////////////////////////////////////////////////////////////////////

type DictionaryFieldOpts struct {
	FieldOpts
	Key Field // optional; cleans every key
}

// DictionaryField validates every value (and optionally every key) of a
// mapping. Entry errors are reported under the original key.
type DictionaryField struct {
	baseField
	value Field
	key   Field
}

// NewDictionaryField panics if value is nil.
func NewDictionaryField(value Field, opts DictionaryFieldOpts) *DictionaryField {
	if value == nil {
		declarationPanic("Invalid Field type passed into DictionaryField!")
	}
	return &DictionaryField{
		baseField: newBaseField(KindDictionary, opts.FieldOpts, compositeMessages),
		value:     value,
		key:       opts.Key,
	}
}

func (f *DictionaryField) Clean(raw any) (any, ValidationErrors) {
	return f.cleanIn(defaultConfig(), raw)
}

func (f *DictionaryField) cleanIn(cfg *Config, raw any) (any, ValidationErrors) {
	entries, ok := asMapping(raw)
	if !ok {
		return nil, ValidationErrors{f.fail(CodeNotDict, map[string]any{
			"field": "DictionaryField",
			"type":  fmt.Sprintf("%T", raw),
		})}
	}
	if len(entries) == 0 {
		return f.emptyComposite(map[string]any{})
	}

	result := make(map[string]any, len(entries))
	seen := make(map[string]struct{}, len(entries))
	var errs ValidationErrors
	for _, entry := range entries {
		key := entry.Key
		failed := false

		if f.key != nil {
			cleanedKey, keyErrs := cleanField(cfg, f.key, entry.Key)
			if len(keyErrs) > 0 {
				errs = append(errs, keyErrs.Rebase(entry.Key)...)
				failed = true
			} else {
				key = cleanedKey
			}
		}
		if !failed {
			// two raw keys that clean to the same key
			if _, dup := seen[keyString(key)]; dup {
				errs = append(errs, f.fail(CodeDuplicateKey, map[string]any{"key": keyString(key)}).Rebase(entry.Key))
				failed = true
			}
			seen[keyString(key)] = struct{}{}
		}

		value, valueErrs := cleanField(cfg, f.value, entry.Value)
		if len(valueErrs) > 0 {
			errs = append(errs, valueErrs.Rebase(entry.Key)...)
			failed = true
		}

		if !failed {
			result[keyString(key)] = value
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return f.finish(result)
}

///////////////////////////////////////////////////////////////////////////////
// FormField
///////////////////////////////////////////////////////////////////////////////

// FormField validates a mapping as a nested form. Nested errors keep their
// paths; the enclosing scope prepends the field name.
type FormField struct {
	baseField
	form *FormType
}

// NewFormField panics if form is nil.
func NewFormField(form *FormType, opts FieldOpts) *FormField {
	if form == nil {
		declarationPanic("Invalid FormType passed into FormField!")
	}
	return &FormField{
		baseField: newBaseField(KindFormField, opts, compositeMessages),
		form:      form,
	}
}

// Form returns the nested form type.
func (f *FormField) Form() *FormType {
	return f.form
}

func (f *FormField) Clean(raw any) (any, ValidationErrors) {
	return f.cleanIn(defaultConfig(), raw)
}

func (f *FormField) cleanIn(cfg *Config, raw any) (any, ValidationErrors) {
	if isEmpty(raw) {
		return f.emptyComposite(map[string]any{})
	}

	cleaned, errs := cleanNestedForm(cfg, f.form, raw)
	if errs != nil {
		if len(errs) == 1 && errs[0].Code == CodeNotDict && len(errs[0].Path) == 0 {
			errs = ValidationErrors{f.fail(CodeNotDict, errs[0].Params)}
		}
		return nil, errs
	}
	return f.finish(cleaned)
}

// cleanNestedForm validates raw as an instance of ft. A non-mapping raw
// fails with a path-less not_dict error.
func cleanNestedForm(cfg *Config, ft *FormType, raw any) (map[string]any, ValidationErrors) {
	data, ok := asStringMap(raw)
	if !ok {
		return nil, ValidationErrors{NewValidationError(
			CodeNotDict, compositeMessages[CodeNotDict],
		).WithParams(map[string]any{"field": ft.Name(), "type": fmt.Sprintf("%T", raw)})}
	}

	form := NewForm(ft, data, cfg)
	if !form.IsValid() {
		return nil, form.Errors()
	}
	return form.CleanedData(), nil
}

///////////////////////////////////////////////////////////////////////////////
// FormFieldList
///////////////////////////////////////////////////////////////////////////////

type FormFieldListOpts struct {
	FieldOpts
	MinLength int
	MaxLength int
}

// FormFieldList validates every element of a sequence as a nested form.
// Element errors are reported under their index.
type FormFieldList struct {
	baseField
	form      *FormType
	minLength int
	maxLength int
}

// NewFormFieldList panics if form is nil.
func NewFormFieldList(form *FormType, opts FormFieldListOpts) *FormFieldList {
	if form == nil {
		declarationPanic("Invalid FormType passed into FormFieldList!")
	}
	return &FormFieldList{
		baseField: newBaseField(KindFormFieldList, opts.FieldOpts, compositeMessages),
		form:      form,
		minLength: opts.MinLength,
		maxLength: opts.MaxLength,
	}
}

// Form returns the nested form type.
func (f *FormFieldList) Form() *FormType {
	return f.form
}

func (f *FormFieldList) Clean(raw any) (any, ValidationErrors) {
	return f.cleanIn(defaultConfig(), raw)
}

func (f *FormFieldList) cleanIn(cfg *Config, raw any) (any, ValidationErrors) {
	if isEmpty(raw) {
		return f.emptyComposite([]any{})
	}

	items, ok := asSequence(raw)
	if !ok {
		return nil, ValidationErrors{f.fail(CodeNotList, nil)}
	}
	if err := f.sequenceBounds(len(items), f.minLength, f.maxLength); err != nil {
		return nil, ValidationErrors{err}
	}

	result := make([]any, 0, len(items))
	var errs ValidationErrors
	for i, item := range items {
		cleaned, itemErrs := cleanNestedForm(cfg, f.form, item)
		if itemErrs != nil {
			errs = append(errs, itemErrs.Rebase(i)...)
			continue
		}
		result = append(result, cleaned)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return f.finish(result)
}
