package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery(), ErrorHandler())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/conflict", func(c *gin.Context) { _ = c.Error(entities.NewConflictError("product", 1, "in use")) })
	r.GET("/foreign", func(c *gin.Context) { _ = c.Error(errors.New("connection reset")) })
	return r
}

func serve(r *gin.Engine, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := newRouter()

	w := serve(r, "/ok", nil)
	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, w.Body.String())

	given := uuid.NewString()
	w = serve(r, "/ok", http.Header{RequestIDHeader: {given}})
	assert.Equal(t, given, w.Header().Get(RequestIDHeader))

	// header names are case-insensitive on the wire
	lower := uuid.NewString()
	w = serve(r, "/ok", http.Header{"x-request-id": {lower}})
	assert.Equal(t, lower, w.Header().Get(RequestIDHeader))

	w = serve(r, "/ok", http.Header{RequestIDHeader: {"not a uuid"}})
	assert.NotEqual(t, "not a uuid", w.Header().Get(RequestIDHeader))
}

func TestErrorHandlerAndRecovery(t *testing.T) {
	r := newRouter()

	w := serve(r, "/conflict", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"detail":"conflict (product 1): in use","kind":"conflict"}`, w.Body.String())

	w = serve(r, "/foreign", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")

	w = serve(r, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"internal server error"}`, w.Body.String())
}
