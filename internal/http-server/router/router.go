package router

import (
	"net/http"
	"path"
	"strings"

	"portfolio-gallery/internal/http-server/handler/gallery"
	"portfolio-gallery/internal/http-server/handler/generation"
	"portfolio-gallery/internal/http-server/handler/image"
	"portfolio-gallery/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	ImageHandler      *image.ImageHandler
	GalleryHandler    *gallery.GalleryHandler
	GenerationHandler *generation.GenerationHandler

	// StaticDir holds generated assets, served under PublicPath.
	StaticDir  string
	PublicPath string
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.Route("/images", func(r chi.Router) {
		r.Get("/", h.ImageHandler.GetImage)
		r.Get("/{fileId}", h.ImageHandler.GetImage)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		if h.GalleryHandler != nil {
			r.Get("/galleries/{slug}", h.GalleryHandler.GetGallery)
			r.Get("/covers", h.GalleryHandler.GetCovers)
		}

		if h.GenerationHandler != nil {
			r.Route("/generation", func(r chi.Router) {
				r.Post("/tasks", h.GenerationHandler.EnqueueTask)
				r.Get("/runs", h.GenerationHandler.ListRuns)
				r.Get("/runs/{id}", h.GenerationHandler.GetRun)
			})
		}
	})

	if h.StaticDir != "" {
		prefix := path.Join("/", strings.Trim(h.PublicPath, "/"))
		if prefix != "/" {
			r.Handle(prefix+"/*", staticHandler(prefix, h.StaticDir))
		}
	}

	return r
}

func staticHandler(prefix, dir string) http.Handler {
	files := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
}
