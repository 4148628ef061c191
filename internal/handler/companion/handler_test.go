package companion

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/zenora/backend/internal/model/companion"
)

func TestGetCompanion(t *testing.T) {
	r := chi.NewRouter()
	New(companion.Default()).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companion", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got companion.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, companion.Default(), got)
}
