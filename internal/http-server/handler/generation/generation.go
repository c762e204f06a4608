package generation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/http-server/handler/respond"
	"portfolio-gallery/internal/repository/run"
	generation_uc "portfolio-gallery/internal/usecase/generation"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const maxBodySize = 64 << 10

type GenerationHandler struct {
	usecase  generationUsecase
	validate *validator.Validate
	logger   *zlog.Zerolog
}

func NewGenerationHandler(usecase generationUsecase, logger *zlog.Zerolog) *GenerationHandler {
	return &GenerationHandler{
		usecase:  usecase,
		validate: validator.New(),
		logger:   logger,
	}
}

// EnqueueTask accepts an optional JSON body. An empty body regenerates
// every category and the covers.
func (h *GenerationHandler) EnqueueTask(w http.ResponseWriter, r *http.Request) {
	var req EnqueueRequest

	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(w, h.logger, http.StatusBadRequest, "invalid_body", "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, "invalid_body", "Invalid request body", err)
		return
	}

	covers := true
	if req.Covers != nil {
		covers = *req.Covers
	}

	task, err := h.usecase.Enqueue(r.Context(), req.Categories, covers)
	if err != nil {
		h.handleError(w, err, "Failed to enqueue task")
		return
	}

	categories := task.Categories
	if categories == nil {
		categories = []string{}
	}
	respond.JSON(w, h.logger, http.StatusAccepted, TaskResponse{
		ID:          task.ID,
		Categories:  categories,
		Covers:      task.Covers,
		RequestedAt: task.RequestedAt,
	})
}

func (h *GenerationHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.Error(w, h.logger, http.StatusBadRequest, "invalid_parameter", "Invalid parameter: limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	runs, err := h.usecase.ListRuns(r.Context(), limit)
	if err != nil {
		h.handleError(w, err, "Failed to list runs")
		return
	}

	response := RunsResponse{Runs: make([]RunResponse, 0, len(runs))}
	for _, gr := range runs {
		response.Runs = append(response.Runs, toRunResponse(gr))
	}
	respond.JSON(w, h.logger, http.StatusOK, response)
}

func (h *GenerationHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	req := RunRequest{ID: chi.URLParam(r, "id")}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, "invalid_parameter", "Invalid parameter: id must be a UUID", nil)
		return
	}

	gr, err := h.usecase.GetRun(r.Context(), req.ID)
	if err != nil {
		h.handleError(w, err, "Failed to get run")
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, toRunResponse(*gr))
}

func (h *GenerationHandler) handleError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, generation_uc.ErrUnknownCategory):
		respond.Error(w, h.logger, http.StatusBadRequest, "unknown_category", "Unknown category", err)
	case errors.Is(err, run.ErrRunNotFound):
		respond.Error(w, h.logger, http.StatusNotFound, "not_found", "Run not found", nil)
	case errors.Is(err, generation_uc.ErrQueueDisabled), errors.Is(err, generation_uc.ErrLedgerDisabled):
		respond.Error(w, h.logger, http.StatusServiceUnavailable, "unavailable", message, err)
	default:
		h.logger.Error().Err(err).Msg(message)
		respond.Error(w, h.logger, http.StatusInternalServerError, "internal", message, err)
	}
}

func toRunResponse(gr domain.GenerationRun) RunResponse {
	return RunResponse{
		ID:         gr.ID,
		TaskID:     gr.TaskID,
		Status:     string(gr.Status),
		Records:    gr.Records,
		Skipped:    gr.Skipped,
		Covers:     gr.Covers,
		StartedAt:  gr.StartedAt,
		FinishedAt: gr.FinishedAt,
	}
}
