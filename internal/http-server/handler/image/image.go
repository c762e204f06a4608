package image

import (
	"errors"
	"net/http"
	"strconv"

	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/http-server/handler/image/dto"
	"portfolio-gallery/internal/http-server/handler/respond"
	"portfolio-gallery/internal/usecase/proxy"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const cacheControl = "public, max-age=31536000, immutable"

type ImageHandler struct {
	proxy    imageProxy
	validate *validator.Validate
	logger   *zlog.Zerolog
}

func NewImageHandler(uc imageProxy, logger *zlog.Zerolog) *ImageHandler {
	return &ImageHandler{
		proxy:    uc,
		validate: validator.New(),
		logger:   logger,
	}
}

// GetImage serves GET /images/{fileId} and GET /images?fileId=.
func (h *ImageHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := dto.ImageRequest{
		FileID: chi.URLParam(r, "fileId"),
		Size:   query.Get("size"),
		Format: query.Get("format"),
	}
	if req.FileID == "" {
		req.FileID = query.Get("fileId")
	}

	if err := h.validate.Struct(req); err != nil {
		h.handleValidationError(w, err)
		return
	}

	result, err := h.proxy.Handle(r.Context(), proxy.Request{
		FileID: req.FileID,
		Size:   domain.ImageSize(req.Size),
		Format: domain.ImageFormat(req.Format),
		Accept: r.Header.Get("Accept"),
	})
	if err != nil {
		h.handleProxyError(w, err, req.FileID)
		return
	}

	w.Header().Set("Content-Type", result.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.Header().Set("Cache-Control", cacheControl)
	w.Header().Set("Vary", "Accept")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(result.Data); err != nil {
		h.logger.Warn().Err(err).Str("file_id", req.FileID).Msg("Failed to write image")
	}
}

func (h *ImageHandler) handleValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		respond.Error(w, h.logger, http.StatusBadRequest, dto.CodeInvalidParameter, "Invalid request", err)
		return
	}

	switch verrs[0].Field() {
	case "FileID":
		respond.Error(w, h.logger, http.StatusBadRequest, dto.CodeMissingParameter, "Missing required parameter: fileId", nil)
	case "Size":
		respond.Error(w, h.logger, http.StatusBadRequest, dto.CodeInvalidParameter,
			"Invalid parameter: size must be one of thumbnail, medium, full", nil)
	default:
		respond.Error(w, h.logger, http.StatusBadRequest, dto.CodeInvalidParameter,
			"Invalid parameter: format must be one of auto, webp, avif, jpeg", nil)
	}
}

func (h *ImageHandler) handleProxyError(w http.ResponseWriter, err error, fileID string) {
	switch {
	case errors.Is(err, proxy.ErrMissingFileID):
		respond.Error(w, h.logger, http.StatusBadRequest, dto.CodeMissingParameter, "Missing required parameter: fileId", nil)
	case errors.Is(err, proxy.ErrInvalidSize), errors.Is(err, proxy.ErrInvalidFormat):
		respond.Error(w, h.logger, http.StatusBadRequest, dto.CodeInvalidParameter, "Invalid parameter", err)
	default:
		code := errorCode(err)
		h.logger.Error().Err(err).Str("file_id", fileID).Str("code", code).Msg("Image request failed")
		respond.Error(w, h.logger, http.StatusInternalServerError, code, "Failed to process image", err)
	}
}
