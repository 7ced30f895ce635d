package region

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuysCode/giovannibot/backend/internal/model/region"
)

func setupRouter() *chi.Mux {
	handler := New(region.NewMemoryStore(region.Seed()), "Lazio", nil)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func TestListRegions(t *testing.T) {
	r := setupRouter()
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/regions", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var regions []region.Region
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &regions))
	assert.Len(t, regions, 20)
}

func TestGetRegionNormalizesName(t *testing.T) {
	r := setupRouter()
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/regions/SICILIA", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var view View
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	assert.Equal(t, "Sicilia", view.Topic)
	assert.True(t, view.Known)
	assert.Equal(t, "Palermo", view.Capital)
	assert.Equal(t, "Bem-vindo a Sicilia", view.Welcome)
	assert.Equal(t, "Pergunte algo sobre Sicilia...", view.Placeholder)
	assert.Equal(t, region.Suggestions(), view.Suggestions)
}

func TestGetUnknownRegionStillRenders(t *testing.T) {
	view := NewView(region.NewMemoryStore(region.Seed()), "atlantide", "Lazio")

	assert.Equal(t, "Atlantide", view.Topic)
	assert.False(t, view.Known)
	assert.Empty(t, view.Capital)
}

func TestViewFallsBackToDefault(t *testing.T) {
	view := NewView(region.NewMemoryStore(region.Seed()), "", "Lazio")

	assert.Equal(t, "Lazio", view.Topic)
	assert.Equal(t, "Roma", view.Capital)
}
