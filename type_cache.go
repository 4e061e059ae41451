package apiforms

import (
	"reflect"
	"strings"
	"sync"
)

// TypeCache provides thread-safe, build-once caching keyed by any comparable
// value. The factory for a key runs at most once, even under concurrent
// access.
type TypeCache[K comparable, V any] struct {
	cache sync.Map // map[K]*cacheEntry[V]
}

type cacheEntry[V any] struct {
	once sync.Once
	data V
}

// NewTypeCache creates a new empty cache
func NewTypeCache[K comparable, V any]() *TypeCache[K, V] {
	return &TypeCache[K, V]{}
}

// GetOrCreate returns the value cached for key, calling factory to build it
// if no value exists yet.
func (tc *TypeCache[K, V]) GetOrCreate(key K, factory func() V) V {
	if v, ok := tc.cache.Load(key); ok {
		entry := v.(*cacheEntry[V])
		entry.once.Do(func() { entry.data = factory() })
		return entry.data
	}

	actual, _ := tc.cache.LoadOrStore(key, &cacheEntry[V]{})
	entry := actual.(*cacheEntry[V])
	entry.once.Do(func() { entry.data = factory() })
	return entry.data
}

///////////////////////////////////////////////////////////////////////////////
// Struct field lookup
///////////////////////////////////////////////////////////////////////////////

// structField describes one settable field of a population target.
type structField struct {
	name  string
	index []int
	tag   FormTag
}

type structFields struct {
	byKey  map[string]structField
	byFold map[string]structField
}

var structFieldCache = NewTypeCache[reflect.Type, *structFields]()

// lookupStructFields returns the settable fields of struct type t, cached
// per type. Embedded structs are flattened.
func lookupStructFields(t reflect.Type) *structFields {
	return structFieldCache.GetOrCreate(t, func() *structFields {
		fields := &structFields{
			byKey:  make(map[string]structField),
			byFold: make(map[string]structField),
		}
		collectStructFields(t, nil, fields)
		return fields
	})
}

func collectStructFields(t reflect.Type, parent []int, fields *structFields) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := make([]int, 0, len(parent)+1)
		index = append(index, parent...)
		index = append(index, i)

		tag := ParseFormTag(sf)
		if tag.Skip {
			continue
		}

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && tag.Name == "" {
			collectStructFields(sf.Type, index, fields)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		info := structField{name: sf.Name, index: index, tag: tag}
		key := sf.Name
		if tag.Name != "" {
			key = tag.Name
		}
		if _, exists := fields.byKey[key]; !exists {
			fields.byKey[key] = info
		}
		if tag.Name == "" {
			fold := foldKey(sf.Name)
			if _, exists := fields.byFold[fold]; !exists {
				fields.byFold[fold] = info
			}
		}
	}
}

// find resolves a cleaned-data key to a struct field. Tag names and Go
// names match exactly; untagged fields also match case and underscore
// insensitively, so "artist_id" finds ArtistID.
func (sf *structFields) find(key string) (structField, bool) {
	if info, ok := sf.byKey[key]; ok {
		return info, true
	}
	info, ok := sf.byFold[foldKey(key)]
	return info, ok
}

func foldKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}
