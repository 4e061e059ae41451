package apiforms

import (
	"fmt"
	"slices"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// Decoder Interface
///////////////////////////////////////////////////////////////////////////////

// Decoder turns a request body into the nested maps, slices and scalars a
// Form validates.
type Decoder interface {
	// Name returns a unique identifier for this decoder
	Name() string
	// MediaTypes returns the content types (without parameters) this decoder
	// handles.
	MediaTypes() []string
	// Decode parses body. Failures wrap ErrMalformedPayload.
	Decode(body []byte) (any, error)
}

///////////////////////////////////////////////////////////////////////////////
// DecoderRegistry
///////////////////////////////////////////////////////////////////////////////

// DecoderRegistry maps content types to decoders. It is meant to be
// configured once and then only read.
type DecoderRegistry struct {
	byName      map[string]Decoder
	byMediaType map[string]Decoder
}

var _defaultDecoders = []Decoder{
	NewJSONDecoder(),
	NewMsgpackDecoder(),
	NewYAMLDecoder(),
}

type DecoderRegistryOpts struct {
	Decoders        []Decoder
	ExcludeDefaults bool
	// MediaTypes, if set, restricts the registry to these content types.
	MediaTypes []string
}

func NewDecoderRegistry(opts DecoderRegistryOpts) (*DecoderRegistry, error) {
	reg := &DecoderRegistry{
		byName:      make(map[string]Decoder),
		byMediaType: make(map[string]Decoder),
	}

	if !opts.ExcludeDefaults {
		for _, decoder := range _defaultDecoders {
			if err := reg.Register(decoder); err != nil {
				return nil, err
			}
		}
	}

	for _, decoder := range opts.Decoders {
		if err := reg.Register(decoder); err != nil {
			return nil, err
		}
	}

	if len(opts.MediaTypes) > 0 {
		enabled := make(map[string]Decoder, len(opts.MediaTypes))
		for _, mediaType := range opts.MediaTypes {
			mediaType = normalizeMediaType(mediaType)
			decoder, ok := reg.byMediaType[mediaType]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mediaType)
			}
			enabled[mediaType] = decoder
		}
		reg.byMediaType = enabled
	}

	return reg, nil
}

// mustDecoderRegistry is NewDecoderRegistry for option sets that cannot
// fail, such as the defaults.
func mustDecoderRegistry(opts DecoderRegistryOpts) *DecoderRegistry {
	reg, err := NewDecoderRegistry(opts)
	if err != nil {
		panic(err)
	}
	return reg
}

// Register adds a decoder for every media type it declares. Registering a
// second decoder under an existing name fails; a later decoder for an
// already served media type replaces the earlier one for that type.
func (reg *DecoderRegistry) Register(decoder Decoder) error {
	name := decoder.Name()
	if _, exists := reg.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrDecoderAlreadyRegistered, name)
	}

	reg.byName[name] = decoder
	for _, mediaType := range decoder.MediaTypes() {
		reg.byMediaType[normalizeMediaType(mediaType)] = decoder
	}
	return nil
}

// Lookup returns the decoder serving contentType. Parameters such as
// charset are ignored.
func (reg *DecoderRegistry) Lookup(contentType string) (Decoder, error) {
	mediaType, _ := ParseContentType(contentType)
	decoder, ok := reg.byMediaType[mediaType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mediaType)
	}
	return decoder, nil
}

// Decode looks up the decoder for contentType and decodes body with it.
func (reg *DecoderRegistry) Decode(contentType string, body []byte) (any, error) {
	decoder, err := reg.Lookup(contentType)
	if err != nil {
		return nil, err
	}
	return decoder.Decode(body)
}

// MediaTypes returns the served media types, sorted.
func (reg *DecoderRegistry) MediaTypes() []string {
	types := make([]string, 0, len(reg.byMediaType))
	for mediaType := range reg.byMediaType {
		types = append(types, mediaType)
	}
	slices.Sort(types)
	return types
}

// ParseContentType splits a Content-Type header into its media type and
// parameters. Whitespace is removed and the media type is lower-cased.
// Parameters without a value are kept with an empty value.
//
// Example: "application/json; charset=utf-8" returns "application/json" and
// {"charset": "utf-8"}.
func ParseContentType(contentType string) (string, map[string]string) {
	compact := strings.Join(strings.Fields(contentType), "")
	parts := strings.Split(compact, ContentTypeDelimiter)

	params := make(map[string]string, len(parts)-1)
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, ContentTypeParamDelimiter)
		params[strings.ToLower(key)] = value
	}
	return strings.ToLower(parts[0]), params
}

func normalizeMediaType(mediaType string) string {
	mt, _ := ParseContentType(mediaType)
	return mt
}
