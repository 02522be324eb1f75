package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otomedia/oto/domain"
	"github.com/otomedia/oto/search"
	"github.com/otomedia/oto/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "catalog.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	settings := domain.DefaultSettings()
	analyzer, err := search.NewAnalyzerFactory()
	require.NoError(t, err)
	manager := search.NewManager(t.TempDir(), analyzer)
	t.Cleanup(func() { manager.Close() })
	builder := search.NewQueryBuilder(analyzer, settings)
	service := search.NewService(settings, manager, builder, store)
	return New(service, store)
}

func TestGenresEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/genres", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestSearchEndpointWithoutIndex(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=silence", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"TotalHits":0`)
}

func TestUPnPEndpointRejectsBadCriteria(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/upnp?criteria="+
			"upnp:class%20%3D%20%22object.container.album.photoAlbum%22", nil)
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
