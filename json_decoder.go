package apiforms

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// JSONDecoder decodes JSON bodies with gjson.
type JSONDecoder struct{}

func NewJSONDecoder() *JSONDecoder {
	return &JSONDecoder{}
}

func (jd *JSONDecoder) Name() string {
	return JSONDecoderName
}

func (jd *JSONDecoder) MediaTypes() []string {
	return []string{ContentTypeApplicationJSON}
}

// Decode validates body and returns gjson's native representation:
// map[string]any, []any, float64, string, bool or nil.
func (jd *JSONDecoder) Decode(body []byte) (any, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedPayload)
	}
	return gjson.ParseBytes(body).Value(), nil
}
