package apiforms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldList(t *testing.T) {
	ints := NewIntegerField(IntegerFieldOpts{})

	t.Run("cleans every element in order", func(t *testing.T) {
		value, errs := NewFieldList(ints, FieldListOpts{}).Clean([]any{"1", 2.0, 3})
		assert.Empty(t, errs)
		assert.Equal(t, []any{int64(1), int64(2), int64(3)}, value)
	})

	t.Run("typed slices are sequences", func(t *testing.T) {
		value, errs := NewFieldList(ints, FieldListOpts{}).Clean([]string{"4", "5"})
		assert.Empty(t, errs)
		assert.Equal(t, []any{int64(4), int64(5)}, value)
	})

	t.Run("does not stop at the first failing element", func(t *testing.T) {
		_, errs := NewFieldList(ints, FieldListOpts{}).Clean([]any{"1", "a", "b"})
		require.Len(t, errs, 2)
		assert.Equal(t, CodeInvalid, errs[0].Code)
		assert.Equal(t, Path{1}, errs[0].Path)
		assert.Equal(t, CodeInvalid, errs[1].Code)
		assert.Equal(t, Path{2}, errs[1].Path)
	})

	t.Run("not a list", func(t *testing.T) {
		for _, raw := range []any{"abc", 12, map[string]any{"a": 1}} {
			_, errs := NewFieldList(ints, FieldListOpts{}).Clean(raw)
			require.Len(t, errs, 1, "raw %v", raw)
			assert.Equal(t, CodeNotList, errs[0].Code)
			assert.Equal(t, "This field needs to be a list of objects!", errs[0].Text())
		}
	})

	t.Run("empty", func(t *testing.T) {
		value, errs := NewFieldList(ints, FieldListOpts{}).Clean([]any{})
		assert.Empty(t, errs)
		assert.Equal(t, []any{}, value)

		_, errs = NewFieldList(ints, FieldListOpts{FieldOpts: required()}).Clean(nil)
		assert.Equal(t, []string{CodeRequired}, errs.Codes())
	})

	t.Run("length bounds", func(t *testing.T) {
		_, errs := NewFieldList(ints, FieldListOpts{MinLength: 2}).Clean([]any{1})
		require.Len(t, errs, 1)
		assert.Equal(t, CodeMinLength, errs[0].Code)
		assert.Equal(t, map[string]any{"min": 2, "length": 1}, errs[0].Params)

		_, errs = NewFieldList(ints, FieldListOpts{MaxLength: 1}).Clean([]any{1, 2})
		require.Len(t, errs, 1)
		assert.Equal(t, CodeMaxLength, errs[0].Code)
		assert.Equal(t, map[string]any{"max": 1, "length": 2}, errs[0].Params)
	})

	t.Run("nested lists report nested indices", func(t *testing.T) {
		matrix := NewFieldList(NewFieldList(ints, FieldListOpts{}), FieldListOpts{})
		_, errs := matrix.Clean([]any{[]any{1, 2}, []any{3, "x"}})
		require.Len(t, errs, 1)
		assert.Equal(t, Path{1, 1}, errs[0].Path)
	})

	t.Run("nil inner field panics", func(t *testing.T) {
		assert.Panics(t, func() { NewFieldList(nil, FieldListOpts{}) })
	})
}

func TestDictionaryField(t *testing.T) {
	ints := NewIntegerField(IntegerFieldOpts{})

	t.Run("cleans every value", func(t *testing.T) {
		value, errs := NewDictionaryField(ints, DictionaryFieldOpts{}).Clean(map[string]any{"a": "1", "b": "2"})
		assert.Empty(t, errs)
		assert.Equal(t, map[string]any{"a": int64(1), "b": int64(2)}, value)
	})

	t.Run("value error is pathed under the key", func(t *testing.T) {
		_, errs := NewDictionaryField(ints, DictionaryFieldOpts{}).Clean(map[string]any{"a": "x"})
		require.Len(t, errs, 1)
		assert.Equal(t, Path{"a"}, errs[0].Path)
		assert.Equal(t, CodeInvalid, errs[0].Code)
	})

	t.Run("every entry is attempted in key order", func(t *testing.T) {
		_, errs := NewDictionaryField(ints, DictionaryFieldOpts{}).Clean(map[string]any{"c": "x", "a": "y", "b": "1"})
		require.Len(t, errs, 2)
		assert.Equal(t, Path{"a"}, errs[0].Path)
		assert.Equal(t, Path{"c"}, errs[1].Path)
	})

	t.Run("key field", func(t *testing.T) {
		f := NewDictionaryField(ints, DictionaryFieldOpts{
			Key: NewCharField(CharFieldOpts{MaxLength: 2}),
		})

		value, errs := f.Clean(map[string]any{" ab ": 1})
		assert.Empty(t, errs)
		assert.Equal(t, map[string]any{"ab": int64(1)}, value)

		_, errs = f.Clean(map[string]any{"abc": "x"})
		require.Len(t, errs, 2)
		assert.Equal(t, CodeMaxLength, errs[0].Code)
		assert.Equal(t, Path{"abc"}, errs[0].Path)
		assert.Equal(t, CodeInvalid, errs[1].Code)
		assert.Equal(t, Path{"abc"}, errs[1].Path)
	})

	t.Run("keys that clean to the same key", func(t *testing.T) {
		f := NewDictionaryField(ints, DictionaryFieldOpts{Key: NewCharField(CharFieldOpts{})})

		value, errs := f.Clean(map[string]any{"a": 1, " a": 2})
		assert.Nil(t, value)
		require.Len(t, errs, 1)
		assert.Equal(t, CodeDuplicateKey, errs[0].Code)
		assert.Equal(t, Path{"a"}, errs[0].Path)
		assert.Equal(t, "Key a is given more than once.", errs[0].Text())
	})

	t.Run("non string keys", func(t *testing.T) {
		value, errs := NewDictionaryField(ints, DictionaryFieldOpts{}).Clean(map[int]string{1: "10"})
		assert.Empty(t, errs)
		assert.Equal(t, map[string]any{"1": int64(10)}, value)

		_, errs = NewDictionaryField(ints, DictionaryFieldOpts{}).Clean(map[int]string{1: "x"})
		require.Len(t, errs, 1)
		assert.Equal(t, Path{1}, errs[0].Path)
	})

	t.Run("not a dict", func(t *testing.T) {
		_, errs := NewDictionaryField(ints, DictionaryFieldOpts{}).Clean("abc")
		require.Len(t, errs, 1)
		assert.Equal(t, CodeNotDict, errs[0].Code)
		assert.Equal(t, "Invalid value passed to DictionaryField (got string, expected dict)", errs[0].Text())

		_, errs = NewDictionaryField(ints, DictionaryFieldOpts{}).Clean([]any{1})
		assert.Equal(t, []string{CodeNotDict}, errs.Codes())
	})

	t.Run("empty", func(t *testing.T) {
		value, errs := NewDictionaryField(ints, DictionaryFieldOpts{}).Clean(map[string]any{})
		assert.Empty(t, errs)
		assert.Equal(t, map[string]any{}, value)

		_, errs = NewDictionaryField(ints, DictionaryFieldOpts{FieldOpts: required()}).Clean(map[string]any{})
		assert.Equal(t, []string{CodeRequired}, errs.Codes())
	})

	t.Run("nil value field panics", func(t *testing.T) {
		assert.Panics(t, func() { NewDictionaryField(nil, DictionaryFieldOpts{}) })
	})
}

func TestFormField(t *testing.T) {
	artist := NewFormType("ArtistForm").
		Field("name", NewCharField(CharFieldOpts{FieldOpts: required()})).
		Field("founded", NewIntegerField(IntegerFieldOpts{})).
		MustBuild()
	f := NewFormField(artist, FieldOpts{})

	t.Run("valid", func(t *testing.T) {
		value, errs := f.Clean(map[string]any{"name": "Queen", "founded": "1970"})
		assert.Empty(t, errs)
		assert.Equal(t, map[string]any{"name": "Queen", "founded": int64(1970)}, value)
	})

	t.Run("nested errors keep their paths", func(t *testing.T) {
		_, errs := f.Clean(map[string]any{"founded": "x"})
		require.Len(t, errs, 2)
		assert.Equal(t, Path{"name"}, errs[0].Path)
		assert.Equal(t, CodeRequired, errs[0].Code)
		assert.Equal(t, Path{"founded"}, errs[1].Path)
		assert.Equal(t, CodeInvalid, errs[1].Code)
	})

	t.Run("not a dict", func(t *testing.T) {
		_, errs := f.Clean([]any{"Queen"})
		require.Len(t, errs, 1)
		assert.Equal(t, CodeNotDict, errs[0].Code)
		assert.Empty(t, errs[0].Path)
		assert.Equal(t, "Invalid value passed to ArtistForm (got []interface {}, expected dict)", errs[0].Text())
	})

	t.Run("empty", func(t *testing.T) {
		value, errs := f.Clean(nil)
		assert.Empty(t, errs)
		assert.Equal(t, map[string]any{}, value)

		_, errs = NewFormField(artist, required()).Clean(map[string]any{})
		assert.Equal(t, []string{CodeRequired}, errs.Codes())
	})

	t.Run("nil form panics", func(t *testing.T) {
		assert.Panics(t, func() { NewFormField(nil, FieldOpts{}) })
	})
}

func TestFormFieldList(t *testing.T) {
	song := NewFormType("SongForm").
		Field("title", NewCharField(CharFieldOpts{FieldOpts: required()})).
		Field("duration", NewDurationField(required())).
		MustBuild()

	t.Run("valid elements keep input order", func(t *testing.T) {
		value, errs := NewFormFieldList(song, FormFieldListOpts{}).Clean([]any{
			map[string]any{"title": "A", "duration": "1:00"},
			map[string]any{"title": "B", "duration": "2:00"},
		})
		require.Empty(t, errs)
		songs := value.([]any)
		require.Len(t, songs, 2)
		assert.Equal(t, "A", songs[0].(map[string]any)["title"])
		assert.Equal(t, "B", songs[1].(map[string]any)["title"])
	})

	t.Run("element errors are pathed under the index", func(t *testing.T) {
		_, errs := NewFormFieldList(song, FormFieldListOpts{}).Clean([]any{
			map[string]any{"title": "A", "duration": "1:00"},
			map[string]any{"duration": "x"},
			"not a song",
		})
		require.Len(t, errs, 3)
		assert.Equal(t, Path{1, "title"}, errs[0].Path)
		assert.Equal(t, CodeRequired, errs[0].Code)
		assert.Equal(t, Path{1, "duration"}, errs[1].Path)
		assert.Equal(t, CodeInvalid, errs[1].Code)
		assert.Equal(t, Path{2}, errs[2].Path)
		assert.Equal(t, CodeNotDict, errs[2].Code)
	})

	t.Run("shape and length", func(t *testing.T) {
		_, errs := NewFormFieldList(song, FormFieldListOpts{}).Clean(map[string]any{"title": "A"})
		assert.Equal(t, []string{CodeNotList}, errs.Codes())

		_, errs = NewFormFieldList(song, FormFieldListOpts{MaxLength: 1}).Clean([]any{map[string]any{}, map[string]any{}})
		assert.Equal(t, []string{CodeMaxLength}, errs.Codes())
	})

	t.Run("empty", func(t *testing.T) {
		value, errs := NewFormFieldList(song, FormFieldListOpts{}).Clean([]any{})
		assert.Empty(t, errs)
		assert.Equal(t, []any{}, value)

		_, errs = NewFormFieldList(song, FormFieldListOpts{FieldOpts: required()}).Clean([]any{})
		assert.Equal(t, []string{CodeRequired}, errs.Codes())
	})
}
