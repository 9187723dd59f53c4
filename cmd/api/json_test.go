package main

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	require.NoError(t, writeJSON(rr, http.StatusOK, map[string]int{"count": 2}))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count":2}`, rr.Body.String())
}

func TestWriteJSON_EncodingFailureWritesNothing(t *testing.T) {
	rr := httptest.NewRecorder()
	err := writeJSON(rr, http.StatusOK, map[string]float64{"price": math.Inf(1)})
	require.Error(t, err)

	assert.Empty(t, rr.Body.String())
	assert.Empty(t, rr.Header().Get("Content-Type"))

	writeJSONError(rr, http.StatusInternalServerError, "the server encountered a problem")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"the server encountered a problem"}`, rr.Body.String())
}
