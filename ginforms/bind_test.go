package ginforms

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SimonDaKappa/go-apiforms"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func songRouter(cfg *apiforms.Config) *gin.Engine {
	song := apiforms.NewFormType("SongForm").
		Field("title", apiforms.NewCharField(apiforms.CharFieldOpts{FieldOpts: apiforms.FieldOpts{Required: true}})).
		Field("duration", apiforms.NewDurationField(apiforms.FieldOpts{Required: true})).
		MustBuild()

	router := gin.New()
	router.POST("/songs", Handler(song, cfg, func(c *gin.Context, form *apiforms.Form) {
		c.JSON(http.StatusCreated, gin.H{
			"title":   form.CleanedData()["title"],
			"seconds": form.CleanedData()["duration"].(time.Duration).Seconds(),
		})
	}))
	return router
}

func post(router *gin.Engine, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/songs", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandler(t *testing.T) {
	router := songRouter(nil)

	t.Run("valid", func(t *testing.T) {
		w := post(router, "application/json", `{"title":"Roundabout","duration":"8:35"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"title":"Roundabout","seconds":515}`, w.Body.String())
	})

	t.Run("invalid form", func(t *testing.T) {
		w := post(router, "application/json", `{"duration":"soon"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeResponse(t, w)
		require.Len(t, resp.Errors, 2)
		assert.Equal(t, apiforms.CodeRequired, resp.Errors[0].Code)
		assert.Equal(t, []any{"title"}, resp.Errors[0].Path)
		assert.Equal(t, apiforms.CodeInvalid, resp.Errors[1].Code)
		assert.Equal(t, "Enter a valid duration.", resp.Errors[1].Message)
		assert.Equal(t, []any{"duration"}, resp.Errors[1].Path)
	})

	t.Run("unsupported media type", func(t *testing.T) {
		w := post(router, "text/csv", "title,duration")
		require.Equal(t, http.StatusUnsupportedMediaType, w.Code)

		resp := decodeResponse(t, w)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, CodeUnsupportedMediaType, resp.Errors[0].Code)
		assert.Equal(t, []any{apiforms.FormErrorKey}, resp.Errors[0].Path)
	})

	t.Run("malformed payload", func(t *testing.T) {
		w := post(router, "application/json", `[1, 2]`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeResponse(t, w)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, CodeMalformedPayload, resp.Errors[0].Code)
	})
}

func TestHandlerUsesConfiguredSentinel(t *testing.T) {
	cfg := apiforms.DefaultConfig()
	cfg.FormErrorKey = "__all__"
	router := songRouter(cfg)

	w := post(router, "application/json", `{"title":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, []any{"__all__"}, resp.Errors[0].Path)
}

func TestBindNestedPaths(t *testing.T) {
	song := apiforms.NewFormType("SongForm").
		Field("title", apiforms.NewCharField(apiforms.CharFieldOpts{FieldOpts: apiforms.FieldOpts{Required: true}})).
		MustBuild()
	album := apiforms.NewFormType("AlbumForm").
		Field("songs", apiforms.NewFormFieldList(song, apiforms.FormFieldListOpts{})).
		MustBuild()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/albums", strings.NewReader(`{"songs":[{"title":"a"},{}]}`))
	c.Request.Header.Set("Content-Type", "application/json")

	form, ok := Bind(c, album, nil)
	assert.False(t, ok)
	assert.Nil(t, form)
	assert.True(t, c.IsAborted())

	resp := decodeResponse(t, w)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, []any{"songs", float64(1), "title"}, resp.Errors[0].Path)
}
