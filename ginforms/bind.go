// Package ginforms binds apiforms forms to gin request contexts.
package ginforms

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SimonDaKappa/go-apiforms"
)

// error codes for failures that happen before a form exists
const (
	CodeUnsupportedMediaType = "unsupported_media_type"
	CodeMalformedPayload     = "malformed_payload"
)

// Response is the JSON body written for rejected requests.
type Response struct {
	Errors []apiforms.ErrorRecord `json:"errors"`
}

// ErrorResponse builds the body for a batch of validation errors.
func ErrorResponse(errs apiforms.ValidationErrors) Response {
	return Response{Errors: errs.Records()}
}

// Bind decodes and validates the request body of c against ft.
//
// On success it returns the valid form and true. Otherwise it aborts c
// and returns false: 415 for an unsupported Content-Type, 400 for a body
// that cannot be decoded or does not validate.
func Bind(c *gin.Context, ft *apiforms.FormType, cfg *apiforms.Config) (*apiforms.Form, bool) {
	form, err := apiforms.FromRequest(ft, c.Request, cfg)
	if err != nil {
		abortWithBoundaryError(c, err, cfg)
		return nil, false
	}

	if !form.IsValid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse(form.Errors()))
		return nil, false
	}
	return form, true
}

// Handler returns a gin handler that binds ft and calls next with the
// valid form.
func Handler(ft *apiforms.FormType, cfg *apiforms.Config, next func(c *gin.Context, form *apiforms.Form)) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, ok := Bind(c, ft, cfg)
		if !ok {
			return
		}
		next(c, form)
	}
}

func abortWithBoundaryError(c *gin.Context, err error, cfg *apiforms.Config) {
	sentinel := apiforms.FormErrorKey
	if cfg != nil && cfg.FormErrorKey != "" {
		sentinel = cfg.FormErrorKey
	}

	status, code := http.StatusBadRequest, CodeMalformedPayload
	if errors.Is(err, apiforms.ErrUnsupportedMediaType) {
		status, code = http.StatusUnsupportedMediaType, CodeUnsupportedMediaType
	}

	c.AbortWithStatusJSON(status, Response{Errors: []apiforms.ErrorRecord{{
		Code:    code,
		Message: err.Error(),
		Path:    []any{sentinel},
	}}})
}
