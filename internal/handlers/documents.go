package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/edustack/school-content-api/internal/models"
	"github.com/edustack/school-content-api/internal/services"
	"github.com/edustack/school-content-api/internal/utils"
	"github.com/gorilla/mux"
)

// formOverhead is headroom for multipart boundaries and form fields so a
// file exactly at the size limit still fits in the request body.
const formOverhead = 1 << 20

type DocumentHandler struct {
	service     services.DocumentService
	maxFileSize int64
	logger      *utils.Logger
}

func NewDocumentHandler(service services.DocumentService, maxFileSize int64, logger *utils.Logger) *DocumentHandler {
	return &DocumentHandler{
		service:     service,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// readUpload parses the multipart form shared by the upload and analyze
// endpoints. The returned error is ready for respondError.
func (h *DocumentHandler) readUpload(w http.ResponseWriter, r *http.Request) (*models.UploadRequest, error) {
	// Check Content-Length header first to reject oversized requests early
	if r.ContentLength > h.maxFileSize+formOverhead {
		return nil, utils.NewPayloadTooLargeError(h.sizeLimitMessage())
	}

	// Limit the request body size to prevent memory exhaustion
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+formOverhead)

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		// Check if error is due to size limit
		if strings.Contains(err.Error(), "request body too large") {
			return nil, utils.NewPayloadTooLargeError(h.sizeLimitMessage())
		}
		return nil, utils.NewBadRequestError("Invalid form data")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, utils.NewBadRequestError("No file provided")
	}
	defer file.Close()

	// Determine content type with fallback to file extension
	contentType := determineContentType(header.Filename, header.Header.Get("Content-Type"))

	h.logger.Info("File upload attempt",
		"filename", header.Filename,
		"reported_content_type", header.Header.Get("Content-Type"),
		"determined_content_type", contentType)

	// Read file data with size limit
	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		return nil, utils.NewInternalError("Failed to read file")
	}

	if int64(len(data)) > h.maxFileSize {
		return nil, utils.NewPayloadTooLargeError(h.sizeLimitMessage())
	}

	if len(data) == 0 {
		return nil, utils.NewBadRequestError("Uploaded file is empty")
	}

	return &models.UploadRequest{
		File:        data,
		Filename:    header.Filename,
		ContentType: contentType,
		Title:       r.FormValue("title"),
		Author:      r.FormValue("author"),
		Subject:     r.FormValue("subject"),
		GradeLevel:  r.FormValue("grade_level"),
		Description: r.FormValue("description"),
	}, nil
}

func (h *DocumentHandler) sizeLimitMessage() string {
	return fmt.Sprintf("File size exceeds %dMB limit", h.maxFileSize/(1<<20))
}

func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	req, err := h.readUpload(w, r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	resp, err := h.service.UploadDocument(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, resp)
}

// AnalyzeFile runs the processing pipeline on an uploaded file without
// persisting anything. The body carries the success flag, so the response
// is 200 even when processing fails.
func (h *DocumentHandler) AnalyzeFile(w http.ResponseWriter, r *http.Request) {
	req, err := h.readUpload(w, r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	result := h.service.AnalyzeFile(req)
	h.respondJSON(w, http.StatusOK, result)
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	if id == "" {
		h.respondError(w, utils.NewBadRequestError("Document ID is required"))
		return
	}

	doc, err := h.service.GetDocument(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	filter := models.DocumentFilter{
		Status:  r.URL.Query().Get("status"),
		Subject: r.URL.Query().Get("subject"),
	}

	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		h.respondError(w, utils.NewBadRequestError("limit must be an integer"))
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		h.respondError(w, utils.NewBadRequestError("offset must be an integer"))
		return
	}

	docs, err := h.service.ListDocuments(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

func (h *DocumentHandler) GetDocumentChunks(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.respondError(w, utils.NewBadRequestError("Document ID is required"))
		return
	}

	chunks, err := h.service.GetDocumentChunks(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"document_id": id,
		"chunks":      chunks,
		"count":       len(chunks),
	})
}

func (h *DocumentHandler) ApproveDocument(w http.ResponseWriter, r *http.Request) {
	h.reviewDocument(w, r, models.StatusApproved)
}

func (h *DocumentHandler) RejectDocument(w http.ResponseWriter, r *http.Request) {
	h.reviewDocument(w, r, models.StatusRejected)
}

func (h *DocumentHandler) reviewDocument(w http.ResponseWriter, r *http.Request, status string) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.respondError(w, utils.NewBadRequestError("Document ID is required"))
		return
	}

	// The reviewer body is optional.
	var review models.ReviewRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
			h.respondError(w, utils.NewBadRequestError("Invalid JSON body"))
			return
		}
	}

	doc, err := h.service.ReviewDocument(r.Context(), id, status, review.Reviewer)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.respondError(w, utils.NewBadRequestError("Document ID is required"))
		return
	}

	if err := h.service.DeleteDocument(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, utils.NewBadRequestError("Invalid JSON body"))
		return
	}

	resp, err := h.service.Search(r.Context(), &req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

func (h *DocumentHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.CreateBackup(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, info)
}

func (h *DocumentHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.service.ListBackups(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"backups": backups,
		"count":   len(backups),
	})
}

func (h *DocumentHandler) Health(w http.ResponseWriter, r *http.Request) {
	health := h.service.Health(r.Context())

	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	h.respondJSON(w, status, health)
}

func queryInt(r *http.Request, name string) (int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

// determineContentType determines the content type from filename extension
// with fallback to the provided content type header
func determineContentType(filename, headerContentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".txt":
		return "text/plain"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".html", ".htm":
		return "text/html"
	case ".md", ".markdown":
		return "text/markdown"
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	}

	// No extension match, trust the header and let validation decide.
	return headerContentType
}

func (h *DocumentHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *DocumentHandler) respondError(w http.ResponseWriter, err error) {
	var status int
	var message string

	switch e := err.(type) {
	case *utils.AppError:
		status = e.StatusCode
		message = e.Message
	default:
		status = http.StatusInternalServerError
		message = "Internal server error"
	}

	h.logger.Error("Request error", "status", status, "error", message)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
