package image

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/http-server/handler/respond"
	"portfolio-gallery/internal/repository/remote"
	"portfolio-gallery/internal/usecase/processor"
	"portfolio-gallery/internal/usecase/proxy"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type fakeProxy struct {
	result *proxy.Result
	err    error
	got    proxy.Request
	calls  int
}

func (f *fakeProxy) Handle(ctx context.Context, req proxy.Request) (*proxy.Result, error) {
	f.calls++
	f.got = req
	return f.result, f.err
}

func newRouter(p *fakeProxy) http.Handler {
	zlog.Init()
	h := NewImageHandler(p, &zlog.Logger)

	r := chi.NewRouter()
	r.Get("/images", h.GetImage)
	r.Get("/images/{fileId}", h.GetImage)
	return r
}

func serve(t *testing.T, handler http.Handler, target, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) respond.ErrorResponse {
	t.Helper()
	var body respond.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetImage_Success(t *testing.T) {
	p := &fakeProxy{result: &proxy.Result{Data: []byte("webp-bytes"), Format: domain.FormatWebP}}
	rec := serve(t, newRouter(p), "/images/abc123?size=medium", "image/webp,*/*")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=31536000, immutable", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "Accept", rec.Header().Get("Vary"))
	assert.Equal(t, "webp-bytes", rec.Body.String())

	assert.Equal(t, "abc123", p.got.FileID)
	assert.Equal(t, domain.SizeMedium, p.got.Size)
	assert.Equal(t, "image/webp,*/*", p.got.Accept)
}

func TestGetImage_QueryForm(t *testing.T) {
	p := &fakeProxy{result: &proxy.Result{Data: []byte("jpeg"), Format: domain.FormatJPEG}}
	rec := serve(t, newRouter(p), "/images?fileId=abc123&format=jpeg", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "abc123", p.got.FileID)
	assert.Equal(t, domain.FormatJPEG, p.got.Format)
}

func TestGetImage_MissingFileID(t *testing.T) {
	p := &fakeProxy{}
	rec := serve(t, newRouter(p), "/images?size=full", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Missing required parameter: fileId", body.Error)
	assert.Equal(t, "missing_parameter", body.Code)
	assert.Zero(t, p.calls)
}

func TestGetImage_InvalidParameters(t *testing.T) {
	for _, target := range []string{
		"/images/abc123?size=huge",
		"/images/abc123?format=gif",
	} {
		p := &fakeProxy{}
		rec := serve(t, newRouter(p), target, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, "invalid_parameter", decodeError(t, rec).Code, target)
		assert.Zero(t, p.calls, target)
	}
}

func TestGetImage_DownstreamErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"not found", fmt.Errorf("failed to download file nope: %w: File not found: nope", remote.ErrNotFound), "not_found"},
		{"forbidden", fmt.Errorf("%w: share it with the service account", remote.ErrForbidden), "forbidden"},
		{"auth", remote.ErrAuth, "auth"},
		{"configuration", remote.ErrConfiguration, "configuration"},
		{"upstream", remote.ErrUpstream, "upstream"},
		{"decode", fmt.Errorf("%w: unknown format", processor.ErrDecode), "decode"},
		{"transcode", fmt.Errorf("%w: avif unsupported", processor.ErrTranscode), "transcode"},
		{"timeout", context.DeadlineExceeded, "timeout"},
		{"other", errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, newRouter(&fakeProxy{err: tt.err}), "/images/nope", "")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.err.Error(), body.Details)
			assert.Empty(t, rec.Header().Get("Cache-Control"))
		})
	}
}

func TestGetImage_NotFoundCarriesUpstreamText(t *testing.T) {
	err := fmt.Errorf("failed to download file nope: %w: googleapi: Error 404: File not found: nope., notFound", remote.ErrNotFound)
	rec := serve(t, newRouter(&fakeProxy{err: err}), "/images/nope", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeError(t, rec).Details, "File not found: nope")
}
