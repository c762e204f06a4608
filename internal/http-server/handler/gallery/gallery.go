package gallery

import (
	"errors"
	"net/http"

	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/http-server/handler/respond"
	"portfolio-gallery/internal/repository/manifest"

	"github.com/go-chi/chi/v5"
	"github.com/wb-go/wbf/zlog"
)

type GalleryResponse struct {
	Slug      string                      `json:"slug"`
	Available bool                        `json:"available"`
	Images    []domain.GalleryImageRecord `json:"images"`
}

type CoversResponse struct {
	Available bool                          `json:"available"`
	Covers    []domain.CoverThumbnailRecord `json:"covers"`
}

// GalleryHandler serves the generated manifests. A manifest that was never
// generated is reported as unavailable rather than as an error.
type GalleryHandler struct {
	manifests manifestReader
	logger    *zlog.Zerolog
}

func NewGalleryHandler(manifests manifestReader, logger *zlog.Zerolog) *GalleryHandler {
	return &GalleryHandler{
		manifests: manifests,
		logger:    logger,
	}
}

func (h *GalleryHandler) GetGallery(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	records, err := h.manifests.LoadGallery(slug)
	switch {
	case errors.Is(err, manifest.ErrInvalidSlug):
		respond.Error(w, h.logger, http.StatusBadRequest, "invalid_parameter", "Invalid gallery slug", nil)
		return
	case errors.Is(err, manifest.ErrManifestUnavailable):
		respond.JSON(w, h.logger, http.StatusOK, GalleryResponse{Slug: slug, Images: []domain.GalleryImageRecord{}})
		return
	case err != nil:
		h.logger.Error().Err(err).Str("category", slug).Msg("Failed to load gallery manifest")
		respond.Error(w, h.logger, http.StatusInternalServerError, "internal", "Failed to load gallery", err)
		return
	}

	if records == nil {
		records = []domain.GalleryImageRecord{}
	}
	respond.JSON(w, h.logger, http.StatusOK, GalleryResponse{Slug: slug, Available: true, Images: records})
}

func (h *GalleryHandler) GetCovers(w http.ResponseWriter, r *http.Request) {
	covers, err := h.manifests.LoadCovers()
	switch {
	case errors.Is(err, manifest.ErrManifestUnavailable):
		respond.JSON(w, h.logger, http.StatusOK, CoversResponse{Covers: []domain.CoverThumbnailRecord{}})
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("Failed to load covers manifest")
		respond.Error(w, h.logger, http.StatusInternalServerError, "internal", "Failed to load covers", err)
		return
	}

	if covers == nil {
		covers = []domain.CoverThumbnailRecord{}
	}
	respond.JSON(w, h.logger, http.StatusOK, CoversResponse{Available: true, Covers: covers})
}
