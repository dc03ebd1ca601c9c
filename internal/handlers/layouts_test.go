package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberfall/internal/storage"
	"emberfall/pkg/world"
)

func TestLayoutsHandler(t *testing.T) {
	store := storage.NewMockStorage()
	store.AddLayout("village.yaml", &world.Layout{Name: "village"})
	h := NewLayoutsHandler(store, testLogger())

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/layouts", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var layouts map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &layouts))
		assert.Equal(t, map[string]string{"village": "village.yaml"}, layouts)
	})

	t.Run("post is not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/layouts", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}
