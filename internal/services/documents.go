package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/edustack/school-content-api/internal/analyzer"
	"github.com/edustack/school-content-api/internal/config"
	"github.com/edustack/school-content-api/internal/embedder"
	"github.com/edustack/school-content-api/internal/models"
	"github.com/edustack/school-content-api/internal/processor"
	"github.com/edustack/school-content-api/internal/repository"
	"github.com/edustack/school-content-api/internal/storage"
	"github.com/edustack/school-content-api/internal/utils"
)

type DocumentService interface {
	UploadDocument(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error)
	AnalyzeFile(req *models.UploadRequest) *models.ProcessedFileResult
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, filter models.DocumentFilter) ([]*models.Document, error)
	GetDocumentChunks(ctx context.Context, id string) ([]*models.DocumentChunk, error)
	ReviewDocument(ctx context.Context, id, status, reviewer string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error)
	GetStats(ctx context.Context) (*models.StatsResponse, error)
	CreateBackup(ctx context.Context) (*models.BackupInfo, error)
	ListBackups(ctx context.Context) ([]*models.BackupInfo, error)
	Health(ctx context.Context) *models.HealthResponse
}

type documentService struct {
	repo      repository.Repository
	storage   storage.Storage
	embedder  embedder.Embedder
	processor *processor.Processor
	cfg       *config.Config
	logger    *utils.Logger
}

func NewService(repo repository.Repository, cfg *config.Config, logger *utils.Logger) DocumentService {
	s3Storage, err := storage.NewS3Storage(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize S3 storage", "error", err)
	}

	embed := embedder.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbeddingModel, cfg.EmbeddingDim, logger.With("component", "embedder"))

	return newDocumentService(repo, s3Storage, embed, cfg, logger)
}

func newDocumentService(repo repository.Repository, store storage.Storage, embed embedder.Embedder, cfg *config.Config, logger *utils.Logger) *documentService {
	return &documentService{
		repo:     repo,
		storage:  store,
		embedder: embed,
		processor: processor.New(processor.Config{
			MaxFileSize: cfg.MaxFileSize,
			ChunkSize:   cfg.ChunkSize,
			Logger:      logger,
		}),
		cfg:    cfg,
		logger: logger,
	}
}

func (s *documentService) UploadDocument(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error) {
	if err := validateFilename(req.Filename); err != nil {
		return nil, utils.NewBadRequestError(err.Error())
	}

	if err := s.processor.Validate(req.ContentType, int64(len(req.File))); err != nil {
		return nil, validationError(err)
	}

	result := s.processor.Process(req.Filename, req.ContentType, req.File)
	if !result.Success {
		s.logger.Warn("File processing failed", "filename", req.Filename, "error", result.Error)
		return nil, utils.NewUnprocessableError(result.Error)
	}

	docID := utils.GenerateID()
	s3Key := fmt.Sprintf("documents/%s/%s", docID, req.Filename)

	if err := s.storage.Upload(ctx, s3Key, req.File, req.ContentType); err != nil {
		s.logger.Error("Failed to upload file to storage", "error", err)
		return nil, utils.NewInternalError("Failed to store file")
	}

	now := time.Now().UTC()
	doc := &models.Document{
		ID:           docID,
		Filename:     req.Filename,
		ContentType:  req.ContentType,
		FileSize:     int64(len(req.File)),
		S3Key:        s3Key,
		Title:        pickField(req.Title, result.Metadata.Title),
		Author:       optional(sanitize(req.Author)),
		Subject:      pickField(req.Subject, result.Metadata.Subject),
		GradeLevel:   pickField(req.GradeLevel, result.Metadata.GradeLevel),
		Description:  optional(sanitize(req.Description)),
		Status:       models.StatusPending,
		Language:     result.Metadata.Language,
		Encoding:     result.Metadata.Encoding,
		WordCount:    result.WordCount,
		ReadingLevel: result.ReadingLevel,
		Topics:       result.Topics,
		Objectives:   result.Metadata.EducationalObjectives,
		ChunkCount:   len(result.Chunks),
		UploadedAt:   now,
		ProcessedAt:  result.Metadata.ProcessedAt,
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		s.logger.Error("Failed to save document", "error", err)
		if delErr := s.storage.Delete(ctx, s3Key); delErr != nil {
			s.logger.Error("Failed to clean up stored file", "error", delErr)
		}
		return nil, utils.NewInternalError("Failed to save document")
	}

	chunks := make([]*models.DocumentChunk, 0, len(result.Chunks))
	for i, text := range result.Chunks {
		vector, err := s.embedder.Embed(ctx, text)
		if err != nil {
			s.logger.Warn("Embedding failed, storing fallback vector", "doc_id", docID, "chunk", i, "error", err)
			vector = embedder.FallbackEmbedding(text, s.cfg.EmbeddingDim)
		}
		chunks = append(chunks, &models.DocumentChunk{
			ID:         utils.GenerateID(),
			DocumentID: docID,
			ChunkIndex: i,
			Text:       text,
			WordCount:  analyzer.WordCount(text),
			Embedding:  vector,
			CreatedAt:  now,
		})
	}

	if err := s.repo.CreateChunks(ctx, chunks); err != nil {
		s.logger.Error("Failed to save document chunks", "error", err)
		if delErr := s.repo.Delete(ctx, docID); delErr != nil {
			s.logger.Error("Failed to clean up document record", "error", delErr)
		}
		if delErr := s.storage.Delete(ctx, s3Key); delErr != nil {
			s.logger.Error("Failed to clean up stored file", "error", delErr)
		}
		return nil, utils.NewInternalError("Failed to save document chunks")
	}

	s.logEvent(ctx, "info", "upload", fmt.Sprintf("document %s ingested", docID), map[string]any{
		"filename": req.Filename,
		"size":     len(req.File),
		"chunks":   len(chunks),
	})

	s.logger.Info("Document uploaded successfully",
		"doc_id", docID,
		"filename", req.Filename,
		"size", len(req.File),
		"chunks", len(chunks),
	)

	return &models.UploadResponse{
		ID:           docID,
		Filename:     doc.Filename,
		ContentType:  doc.ContentType,
		FileSize:     doc.FileSize,
		Status:       doc.Status,
		WordCount:    doc.WordCount,
		ReadingLevel: doc.ReadingLevel,
		Topics:       doc.Topics,
		ChunkCount:   doc.ChunkCount,
		UploadedAt:   doc.UploadedAt,
		Message:      "Document uploaded and processed successfully",
	}, nil
}

// AnalyzeFile runs the processing pipeline without persisting anything.
// Failures are reported inside the result, never as an error.
func (s *documentService) AnalyzeFile(req *models.UploadRequest) *models.ProcessedFileResult {
	return s.processor.Process(req.Filename, req.ContentType, req.File)
}

func (s *documentService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get document", "doc_id", id, "error", err)
		return nil, utils.NewInternalError("Failed to retrieve document")
	}
	if doc == nil {
		return nil, utils.NewNotFoundError("Document not found")
	}
	return doc, nil
}

func (s *documentService) ListDocuments(ctx context.Context, filter models.DocumentFilter) ([]*models.Document, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, utils.NewBadRequestError(fmt.Sprintf("invalid status %q", filter.Status))
	}

	docs, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err)
		return nil, utils.NewInternalError("Failed to list documents")
	}
	return docs, nil
}

func (s *documentService) GetDocumentChunks(ctx context.Context, id string) ([]*models.DocumentChunk, error) {
	if _, err := s.GetDocument(ctx, id); err != nil {
		return nil, err
	}

	chunks, err := s.repo.GetChunksByDocumentID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get document chunks", "doc_id", id, "error", err)
		return nil, utils.NewInternalError("Failed to retrieve document chunks")
	}
	return chunks, nil
}

func (s *documentService) ReviewDocument(ctx context.Context, id, status, reviewer string) (*models.Document, error) {
	if status != models.StatusApproved && status != models.StatusRejected {
		return nil, utils.NewBadRequestError(fmt.Sprintf("invalid review status %q", status))
	}

	reviewer = sanitize(reviewer)
	if reviewer == "" {
		reviewer = "system"
	}

	err := s.repo.UpdateStatus(ctx, id, status, reviewer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.NewNotFoundError("Document not found")
	}
	if err != nil {
		s.logger.Error("Failed to update document status", "doc_id", id, "error", err)
		return nil, utils.NewInternalError("Failed to update document status")
	}

	s.logEvent(ctx, "info", "review", fmt.Sprintf("document %s %s", id, status), map[string]any{
		"reviewer": reviewer,
	})

	return s.GetDocument(ctx, id)
}

func (s *documentService) DeleteDocument(ctx context.Context, id string) error {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, doc.S3Key); err != nil {
		// The database record still goes; a dangling object beats a ghost row.
		s.logger.Warn("Failed to delete stored file", "doc_id", id, "s3_key", doc.S3Key, "error", err)
	}

	err = s.repo.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return utils.NewNotFoundError("Document not found")
	}
	if err != nil {
		s.logger.Error("Failed to delete document", "doc_id", id, "error", err)
		return utils.NewInternalError("Failed to delete document")
	}

	s.logEvent(ctx, "info", "delete", fmt.Sprintf("document %s deleted", id), nil)
	return nil
}

func (s *documentService) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, utils.NewBadRequestError("Search query is required")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("Query embedding failed, using fallback vector", "error", err)
		queryVector = embedder.FallbackEmbedding(query, s.cfg.EmbeddingDim)
	}

	matches, err := s.repo.AllChunkMatches(ctx, req.Subject)
	if err != nil {
		s.logger.Error("Failed to load chunks for search", "error", err)
		return nil, utils.NewInternalError("Search failed")
	}

	results := make([]models.SearchResult, 0, len(matches))
	for _, match := range matches {
		if len(match.Embedding) == 0 {
			continue
		}
		results = append(results, models.SearchResult{
			DocumentID: match.DocumentID,
			Filename:   match.Filename,
			Title:      match.Title,
			Subject:    match.Subject,
			ChunkIndex: match.ChunkIndex,
			Text:       match.Text,
			Score:      embedder.Cosine(queryVector, match.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	return &models.SearchResponse{Query: query, Results: results}, nil
}

func (s *documentService) GetStats(ctx context.Context) (*models.StatsResponse, error) {
	stats, err := s.repo.GetStats(ctx)
	if err != nil {
		s.logger.Error("Failed to gather stats", "error", err)
		return nil, utils.NewInternalError("Failed to gather stats")
	}

	if stats.LastUpload != nil {
		stats.LastUploadAgo = formatRelativeTime(*stats.LastUpload)
	}
	return stats, nil
}

func (s *documentService) CreateBackup(ctx context.Context) (*models.BackupInfo, error) {
	if err := os.MkdirAll(s.cfg.BackupDir, 0755); err != nil {
		s.logger.Error("Failed to create backup directory", "error", err)
		return nil, utils.NewInternalError("Failed to create backup")
	}

	name := fmt.Sprintf("backup_%s.db", time.Now().UTC().Format("20060102_150405"))
	destination := filepath.Join(s.cfg.BackupDir, name)

	size, err := copyFile(s.cfg.DBPath, destination)
	if err != nil {
		s.logger.Error("Failed to copy database", "error", err)
		return nil, utils.NewInternalError("Failed to create backup")
	}

	s.logEvent(ctx, "info", "backup", fmt.Sprintf("backup %s created", name), map[string]any{
		"size_bytes": size,
	})
	s.logger.Info("Backup created", "name", name, "size_bytes", size)

	return &models.BackupInfo{
		Name:      name,
		SizeBytes: size,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *documentService) ListBackups(ctx context.Context) ([]*models.BackupInfo, error) {
	entries, err := os.ReadDir(s.cfg.BackupDir)
	if errors.Is(err, os.ErrNotExist) {
		return []*models.BackupInfo{}, nil
	}
	if err != nil {
		s.logger.Error("Failed to read backup directory", "error", err)
		return nil, utils.NewInternalError("Failed to list backups")
	}

	backups := make([]*models.BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "backup_") || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, &models.BackupInfo{
			Name:      entry.Name(),
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime().UTC(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

func (s *documentService) Health(ctx context.Context) *models.HealthResponse {
	health := &models.HealthResponse{Status: "healthy", Database: "up", Storage: "up"}

	if err := s.repo.Ping(ctx); err != nil {
		health.Database = "down"
		health.Status = "degraded"
	}
	if err := s.storage.Health(ctx); err != nil {
		health.Storage = "down"
		health.Status = "degraded"
	}
	return health
}

func (s *documentService) logEvent(ctx context.Context, level, component, message string, details map[string]any) {
	payload := "{}"
	if details != nil {
		if encoded, err := json.Marshal(details); err == nil {
			payload = string(encoded)
		}
	}
	if err := s.repo.LogEvent(ctx, level, component, message, payload); err != nil {
		s.logger.Warn("Failed to record system event", "component", component, "error", err)
	}
}

// validationError maps pipeline validation failures to HTTP statuses.
func validationError(err error) *utils.AppError {
	switch {
	case errors.Is(err, processor.ErrFileTooLarge):
		return utils.NewPayloadTooLargeError(err.Error())
	case errors.Is(err, processor.ErrUnsupportedFormat):
		return utils.NewUnsupportedMediaError(err.Error())
	default:
		return utils.NewBadRequestError(err.Error())
	}
}

func validateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename is required")
	}
	if len(filename) > 255 {
		return fmt.Errorf("filename exceeds 255 characters")
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\\x00") {
		return fmt.Errorf("filename must not contain path separators")
	}
	return nil
}

func validStatus(status string) bool {
	switch status {
	case models.StatusPending, models.StatusApproved, models.StatusRejected:
		return true
	}
	return false
}

// sanitize escapes HTML in caller-supplied metadata before it is stored.
func sanitize(value string) string {
	return html.EscapeString(strings.TrimSpace(value))
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// pickField prefers the caller-supplied value over the enriched one.
func pickField(provided string, enriched *string) *string {
	if cleaned := sanitize(provided); cleaned != "" {
		return &cleaned
	}
	return enriched
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	size, err := io.Copy(out, in)
	if err != nil {
		return 0, fmt.Errorf("failed to copy database file: %w", err)
	}
	return size, nil
}

func formatRelativeTime(t time.Time) string {
	elapsed := time.Since(t)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(elapsed.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(elapsed.Hours()/24))
	}
}
