package apiforms

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLDecoder decodes YAML bodies.
type YAMLDecoder struct{}

func NewYAMLDecoder() *YAMLDecoder {
	return &YAMLDecoder{}
}

func (yd *YAMLDecoder) Name() string {
	return YAMLDecoderName
}

func (yd *YAMLDecoder) MediaTypes() []string {
	return []string{ContentTypeApplicationYAML, ContentTypeXYAML}
}

func (yd *YAMLDecoder) Decode(body []byte) (any, error) {
	var out any
	if err := yaml.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: error unmarshaling YAML data: %v", ErrMalformedPayload, err)
	}
	return normalizeDecoded(out), nil
}
