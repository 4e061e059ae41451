package apiforms

import (
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// FromRequest decodes the body of r according to its Content-Type and
// binds it to ft. A request without a body yields a form over empty input.
//
// Errors wrap ErrUnsupportedMediaType or ErrMalformedPayload; they are
// returned before any Form exists.
func FromRequest(ft *FormType, r *http.Request, cfg *Config) (*Form, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return NewForm(ft, nil, cfg), nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return FromBytes(ft, r.Header.Get("Content-Type"), body, cfg)
}

// FromBytes decodes body with the decoder registered for contentType and
// binds the result to ft. The decoded root must be a mapping.
func FromBytes(ft *FormType, contentType string, body []byte, cfg *Config) (*Form, error) {
	cfg = resolveConfig(cfg)
	if len(body) == 0 {
		return NewForm(ft, nil, cfg), nil
	}

	decoded, err := cfg.Decoders.Decode(contentType, body)
	if err != nil {
		cfg.Logger.Debug("request body rejected",
			zap.String("form", ft.Name()),
			zap.String("content_type", contentType),
			zap.Error(err),
		)
		return nil, err
	}

	if decoded == nil {
		return NewForm(ft, nil, cfg), nil
	}
	data, ok := asStringMap(decoded)
	if !ok {
		err := fmt.Errorf("%w: expected an object at the root, got %T", ErrMalformedPayload, decoded)
		cfg.Logger.Debug("request body rejected",
			zap.String("form", ft.Name()),
			zap.String("content_type", contentType),
			zap.Error(err),
		)
		return nil, err
	}
	return NewForm(ft, data, cfg), nil
}
