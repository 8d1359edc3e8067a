package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/stockmrp/pkg/engine"
	"github.com/vsinha/stockmrp/pkg/infrastructure/config"
)

type client struct {
	t      *testing.T
	router *gin.Engine
}

func newClient(t *testing.T) *client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	e, err := engine.New(*config.Default(), engine.WithoutAudit())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return &client{t: t, router: New(e)}
}

func (c *client) do(method, path, body string) (int, map[string]any) {
	c.t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func (c *client) list(path string) []map[string]any {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())

	var out []map[string]any
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestOrderFlowOverHTTP(t *testing.T) {
	c := newClient(t)

	status, body := c.do(http.MethodPost, "/components", `{"name":"A","spillage_coefficient":"0.10","in_stock":50}`)
	require.Equal(t, http.StatusCreated, status, body)
	assert.EqualValues(t, 1, body["id"])

	status, body = c.do(http.MethodPost, "/products", `{"name":"P","component_bom":[{"component_id":1,"quantity_required":10}]}`)
	require.Equal(t, http.StatusCreated, status, body)
	exploded := body["exploded_bom"].([]any)
	require.Len(t, exploded, 1)
	assert.Equal(t, "11", exploded[0].(map[string]any)["quantity_per_unit"])

	capacity := c.list("/products/capacity/calculate")
	require.Len(t, capacity, 1)
	assert.EqualValues(t, 4, capacity[0]["max_producible"])
	assert.Equal(t, "A", capacity[0]["limiting_component"])

	status, body = c.do(http.MethodPost, "/orders", `{"product_id":1,"quantity":5}`)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, false, body["allocated"])
	assert.Equal(t, "pending", body["order"].(map[string]any)["status"])
	shortage := body["shortages"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 55, shortage["needed"])
	assert.EqualValues(t, 5, shortage["shortage"])

	status, body = c.do(http.MethodPost, "/orders/1/allocate", "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "insufficient_stock", body["kind"])
	assert.Len(t, body["shortages"], 1)

	status, body = c.do(http.MethodGet, "/procurement/needs", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total_items"])

	status, body = c.do(http.MethodPatch, "/components/1/adjust-stock?adjustment=5", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 55, body["in_stock"])

	status, body = c.do(http.MethodGet, "/orders/1/requirements", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["can_allocate"])

	status, body = c.do(http.MethodPost, "/orders/1/allocate", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "in_progress", body["status"])

	status, body = c.do(http.MethodPost, "/orders/1/complete", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "completed", body["status"])
	assert.NotNil(t, body["completed_at"])

	status, body = c.do(http.MethodPost, "/orders/1/complete", "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "invalid_state", body["kind"])

	status, body = c.do(http.MethodGet, "/components/1", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["in_stock"])
	assert.EqualValues(t, 55, body["shipped"])

	status, body = c.do(http.MethodDelete, "/components/1", "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", body["kind"])

	status, body = c.do(http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 1, body["completed"])

	status, body = c.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 1, body["counts"].(map[string]any)["orders"])
}

func TestProductEndpoints(t *testing.T) {
	c := newClient(t)
	c.do(http.MethodPost, "/components", `{"name":"Bolt","in_stock":100}`)
	c.do(http.MethodPost, "/products", `{"name":"Frame","component_bom":[{"component_id":1,"quantity_required":4}]}`)
	status, body := c.do(http.MethodPost, "/products", `{"name":"Bike","component_bom":[{"component_id":1,"quantity_required":6}],"product_bom":[{"child_product_id":1,"quantity_required":1}]}`)
	require.Equal(t, http.StatusCreated, status, body)

	status, body = c.do(http.MethodPut, "/products/1/bom", `{"component_bom":[{"component_id":1,"quantity_required":1}],"product_bom":[{"child_product_id":2,"quantity_required":1}]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["detail"], "cycle")

	status, body = c.do(http.MethodPut, "/products/1/bom", `{"component_bom":[{"component_id":1,"quantity_required":5}]}`)
	require.Equal(t, http.StatusOK, status, body)

	status, body = c.do(http.MethodGet, "/products/2", "")
	require.Equal(t, http.StatusOK, status)
	exploded := body["exploded_bom"].([]any)
	assert.Equal(t, "11", exploded[0].(map[string]any)["quantity_per_unit"])

	status, body = c.do(http.MethodPut, "/products/2", `{"name":"Road Bike"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Road Bike", body["name"])

	status, _ = c.do(http.MethodDelete, "/products/1", "")
	assert.Equal(t, http.StatusConflict, status)
	status, _ = c.do(http.MethodDelete, "/products/2", "")
	assert.Equal(t, http.StatusNoContent, status)

	assert.Len(t, c.list("/products"), 1)
}

func TestRequestErrors(t *testing.T) {
	c := newClient(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed_json", http.MethodPost, "/components", `{"name":`, http.StatusBadRequest},
		{"binding_validation", http.MethodPost, "/components", `{"name":"","in_stock":-1}`, http.StatusUnprocessableEntity},
		{"spillage_out_of_range", http.MethodPost, "/components", `{"name":"X","spillage_coefficient":12}`, http.StatusUnprocessableEntity},
		{"spillage_too_precise", http.MethodPost, "/components", `{"name":"X","spillage_coefficient":"0.00001"}`, http.StatusBadRequest},
		{"bad_id", http.MethodGet, "/components/abc", "", http.StatusBadRequest},
		{"unknown_component", http.MethodGet, "/components/99", "", http.StatusNotFound},
		{"unknown_order", http.MethodPost, "/orders/99/allocate", "", http.StatusNotFound},
		{"order_quantity_zero", http.MethodPost, "/orders", `{"product_id":1,"quantity":0}`, http.StatusUnprocessableEntity},
		{"order_unknown_product", http.MethodPost, "/orders", `{"product_id":1,"quantity":1}`, http.StatusNotFound},
		{"empty_bom", http.MethodPost, "/products", `{"name":"Nothing"}`, http.StatusBadRequest},
		{"bad_adjustment", http.MethodPatch, "/components/1/adjust-stock?adjustment=lots", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := c.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status, body)
			assert.NotEmpty(t, body["detail"])
		})
	}
}
