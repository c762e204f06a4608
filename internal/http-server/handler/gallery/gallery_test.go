package gallery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/repository/manifest/fs"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

func setup(t *testing.T) (*fs.ManifestRepository, http.Handler) {
	t.Helper()
	zlog.Init()

	repo := fs.NewManifestRepository(t.TempDir(), "/gallery", &zlog.Logger)
	h := NewGalleryHandler(repo, &zlog.Logger)

	r := chi.NewRouter()
	r.Get("/api/galleries/{slug}", h.GetGallery)
	r.Get("/api/covers", h.GetCovers)
	return repo, r
}

func get(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestGetGallery_Unavailable(t *testing.T) {
	_, handler := setup(t)

	rec := get(t, handler, "/api/galleries/weddings")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"slug":"weddings","available":false,"images":[]}`, rec.Body.String())
}

func TestGetGallery(t *testing.T) {
	repo, handler := setup(t)
	require.NoError(t, repo.SaveGallery("street", []domain.GalleryImageRecord{
		{ID: "a", Src: "/images/a?size=full", Title: "corner", Width: 1600, Height: 900},
	}))

	rec := get(t, handler, "/api/galleries/street")
	require.Equal(t, http.StatusOK, rec.Code)

	var body GalleryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Available)
	require.Len(t, body.Images, 1)
	assert.Equal(t, "corner", body.Images[0].Title)
}

func TestGetGallery_EmptyManifestIsAvailable(t *testing.T) {
	repo, handler := setup(t)
	require.NoError(t, repo.SaveGallery("events", nil))

	rec := get(t, handler, "/api/galleries/events")
	assert.JSONEq(t, `{"slug":"events","available":true,"images":[]}`, rec.Body.String())
}

func TestGetGallery_InvalidSlug(t *testing.T) {
	_, handler := setup(t)

	rec := get(t, handler, "/api/galleries/Bad.Slug")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCovers(t *testing.T) {
	repo, handler := setup(t)

	rec := get(t, handler, "/api/covers")
	assert.JSONEq(t, `{"available":false,"covers":[]}`, rec.Body.String())

	require.NoError(t, repo.SaveCovers([]domain.CoverThumbnailRecord{
		{CategorySlug: "portraits", DisplayOrder: 1, Format: domain.FormatWebP},
	}))

	rec = get(t, handler, "/api/covers")
	var body CoversResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Available)
	require.Len(t, body.Covers, 1)
	assert.Equal(t, "portraits", body.Covers[0].CategorySlug)
}
