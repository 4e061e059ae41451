package apiforms

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// Errors
///////////////////////////////////////////////////////////////////////////////

// ErrApiForm marks misuse of the API. These are precondition violations,
// never data validation failures, and are never collected into a form's
// error list.
var ErrApiForm = errors.New("api form exception")

var (
	ErrNoCleanData              = fmt.Errorf("%w: no clean data provided! Try to call IsValid() first", ErrApiForm)
	ErrInvalidDeclaration       = fmt.Errorf("%w: invalid form declaration", ErrApiForm)
	ErrInvalidPopulateTarget    = fmt.Errorf("%w: populate target must be a non-nil pointer to a struct or a map[string]any", ErrApiForm)
	ErrUnsupportedMediaType     = errors.New("unsupported media type")
	ErrMalformedPayload         = errors.New("malformed payload")
	ErrDecoderAlreadyRegistered = errors.New("a decoder with this name is already registered")
	ErrUnknownStrategy          = errors.New("unknown population strategy")
)

///////////////////////////////////////////////////////////////////////////////
// Path
///////////////////////////////////////////////////////////////////////////////

// Path addresses a value inside a request body. Segments are field names
// and dictionary keys (strings, or whatever comparable key the decoder
// produced) and sequence indices (int). The form-level sentinel is a plain
// string segment.
type Path []any

// Prepend returns a new Path with prefix in front of p. p is not modified.
func (p Path) Prepend(prefix ...any) Path {
	out := make(Path, 0, len(prefix)+len(p))
	out = append(out, prefix...)
	return append(out, p...)
}

// Equal reports whether both paths hold the same segments in the same order.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the path in a dotted form, e.g. bands[1].albums[0].title
func (p Path) String() string {
	var builder strings.Builder
	for i, segment := range p {
		switch s := segment.(type) {
		case int:
			builder.WriteByte('[')
			builder.WriteString(strconv.Itoa(s))
			builder.WriteByte(']')
		default:
			if i > 0 {
				builder.WriteByte('.')
			}
			builder.WriteString(fmt.Sprint(s))
		}
	}
	return builder.String()
}

///////////////////////////////////////////////////////////////////////////////
// ValidationError
///////////////////////////////////////////////////////////////////////////////

// ValidationError is a single data validation failure.
//
// Message may be a template with {name} placeholders that are filled
// from Params when the error is rendered. Path is empty when the error is
// created by a field; every enclosing scope prepends its own segment.
type ValidationError struct {
	Code    string
	Message string
	Params  map[string]any
	Path    Path
}

// ErrorRecord is the flat serialization shape of a ValidationError.
type ErrorRecord struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    []any  `json:"path"`
}

// NewValidationError creates a path-less error.
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// WithParams sets the template parameters and returns ve.
func (ve *ValidationError) WithParams(params map[string]any) *ValidationError {
	ve.Params = params
	return ve
}

// WithPath sets the path relative to the scope that reports the error.
func (ve *ValidationError) WithPath(segments ...any) *ValidationError {
	ve.Path = Path(segments)
	return ve
}

// Text renders Message with Params interpolated.
func (ve *ValidationError) Text() string {
	if len(ve.Params) == 0 || !strings.Contains(ve.Message, "{") {
		return ve.Message
	}
	pairs := make([]string, 0, len(ve.Params)*2)
	for key, value := range ve.Params {
		pairs = append(pairs, "{"+key+"}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(ve.Message)
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	if len(ve.Path) == 0 {
		return fmt.Sprintf("%s (%s)", ve.Text(), ve.Code)
	}
	return fmt.Sprintf("%s: %s (%s)", ve.Path, ve.Text(), ve.Code)
}

// Rebase returns a copy of ve whose path is prefix followed by the
// existing path.
func (ve *ValidationError) Rebase(prefix ...any) *ValidationError {
	rebased := *ve
	rebased.Path = ve.Path.Prepend(prefix...)
	return &rebased
}

// Record converts ve into its serialization shape.
func (ve *ValidationError) Record() ErrorRecord {
	path := make([]any, len(ve.Path))
	copy(path, ve.Path)
	return ErrorRecord{
		Code:    ve.Code,
		Message: ve.Text(),
		Path:    path,
	}
}

func (ve *ValidationError) MarshalJSON() ([]byte, error) {
	return json.Marshal(ve.Record())
}

///////////////////////////////////////////////////////////////////////////////
// ValidationErrors
///////////////////////////////////////////////////////////////////////////////

// ValidationErrors is an ordered batch of validation failures. It is what
// Field.Clean returns and what a Form ends up with after FullClean.
type ValidationErrors []*ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	switch len(ve) {
	case 0:
		return "no validation errors"
	case 1:
		return ve[0].Error()
	}

	var builder strings.Builder
	for i, err := range ve {
		if i > 0 {
			builder.WriteString("; ")
		}
		builder.WriteString(err.Error())
	}
	return builder.String()
}

// Rebase returns a copy of the batch with prefix prepended to every path.
func (ve ValidationErrors) Rebase(prefix ...any) ValidationErrors {
	if len(ve) == 0 {
		return nil
	}
	out := make(ValidationErrors, len(ve))
	for i, err := range ve {
		out[i] = err.Rebase(prefix...)
	}
	return out
}

// Records converts every error into its serialization shape.
func (ve ValidationErrors) Records() []ErrorRecord {
	records := make([]ErrorRecord, len(ve))
	for i, err := range ve {
		records[i] = err.Record()
	}
	return records
}

// At returns the errors whose path equals the given segments.
func (ve ValidationErrors) At(segments ...any) ValidationErrors {
	var out ValidationErrors
	for _, err := range ve {
		if err.Path.Equal(Path(segments)) {
			out = append(out, err)
		}
	}
	return out
}

// Codes returns the code of every error, in order.
func (ve ValidationErrors) Codes() []string {
	codes := make([]string, len(ve))
	for i, err := range ve {
		codes[i] = err.Code
	}
	return codes
}

// AsValidationErrors extracts a batch from err. A lone *ValidationError
// becomes a batch of one. The boolean is false if err carries no
// validation error at all.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	if err == nil {
		return nil, false
	}

	var batch ValidationErrors
	if errors.As(err, &batch) {
		return batch, true
	}

	var single *ValidationError
	if errors.As(err, &single) {
		return ValidationErrors{single}, true
	}

	return nil, false
}
