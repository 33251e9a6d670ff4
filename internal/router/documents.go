package router

import (
	"fmt"
	"net/http"

	"github.com/edustack/school-content-api/internal/config"
	"github.com/edustack/school-content-api/internal/handlers"
	"github.com/edustack/school-content-api/internal/middleware"
	"github.com/edustack/school-content-api/internal/services"
	"github.com/edustack/school-content-api/internal/utils"

	"github.com/gorilla/mux"
)

func NewRouter(docService services.DocumentService, cfg *config.Config, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = errorHandler(http.StatusNotFound, "Not found")
	r.MethodNotAllowedHandler = errorHandler(http.StatusMethodNotAllowed, "Method not allowed")

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))
	if cfg.RateLimitEnabled {
		r.Use(middleware.NewRateLimiter(logger).Middleware())
	}

	// Document handler
	docHandler := handlers.NewDocumentHandler(docService, cfg.MaxFileSize, logger)

	// Routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", docHandler.Health).Methods(http.MethodGet)

	// Document endpoints
	api.HandleFunc("/documents/upload", docHandler.UploadDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/analyze", docHandler.AnalyzeFile).Methods(http.MethodPost)
	api.HandleFunc("/documents", docHandler.ListDocuments).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", docHandler.GetDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", docHandler.DeleteDocument).Methods(http.MethodDelete)
	api.HandleFunc("/documents/{id}/chunks", docHandler.GetDocumentChunks).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/approve", docHandler.ApproveDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/reject", docHandler.RejectDocument).Methods(http.MethodPost)

	// Search and operations
	api.HandleFunc("/search", docHandler.SearchDocuments).Methods(http.MethodPost)
	api.HandleFunc("/stats", docHandler.GetStats).Methods(http.MethodGet)
	api.HandleFunc("/backup", docHandler.CreateBackup).Methods(http.MethodPost)
	api.HandleFunc("/backups", docHandler.ListBackups).Methods(http.MethodGet)

	return r
}

func errorHandler(status int, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprintf(w, "{\"error\": %q}\n", message)
	})
}
