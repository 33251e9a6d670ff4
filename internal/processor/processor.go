// Package processor runs the document ingestion pipeline: declared-type
// validation, text extraction, chunking, lexical analysis, and metadata
// enrichment, aggregated into one result per uploaded file.
package processor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/edustack/school-content-api/internal/analyzer"
	"github.com/edustack/school-content-api/internal/chunker"
	"github.com/edustack/school-content-api/internal/extractor"
	"github.com/edustack/school-content-api/internal/models"
	"github.com/edustack/school-content-api/internal/utils"
)

// MaxFileSize is the default upload ceiling: 50 MiB.
const MaxFileSize int64 = 52428800

var (
	// ErrEmptyFile rejects zero-byte uploads regardless of declared type.
	ErrEmptyFile = errors.New("file is empty")

	// ErrFileTooLarge rejects uploads over the configured size ceiling.
	ErrFileTooLarge = errors.New("file exceeds maximum size")

	// ErrUnsupportedFormat rejects declared MIME types outside the allow-list.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Config controls pipeline limits. Zero values fall back to defaults, so the
// zero Config is usable.
type Config struct {
	MaxFileSize int64         // upload ceiling in bytes, default 50 MiB
	ChunkSize   int           // target chunk length in bytes, default 1000
	Logger      *utils.Logger // optional; the pipeline is silent when nil
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = MaxFileSize
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = chunker.DefaultChunkSize
	}
}

type Processor struct {
	cfg Config
}

func New(cfg Config) *Processor {
	cfg.defaults()
	return &Processor{cfg: cfg}
}

// Validate checks the declared size and MIME type against the pipeline
// limits. Content bytes are never inspected; a lying declaration surfaces
// later as an extraction failure.
func (p *Processor) Validate(mimeType string, size int64) error {
	if size == 0 {
		return ErrEmptyFile
	}
	if size > p.cfg.MaxFileSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, size, p.cfg.MaxFileSize)
	}
	if _, ok := extractor.DetectFormat(mimeType); !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, mimeType)
	}
	return nil
}

// Process runs the full pipeline over one file. Expected failures are
// reported inside the result with Success false and the content-derived
// fields zeroed; Process itself never returns an error. Calls are
// independent and safe to run concurrently.
func (p *Processor) Process(filename, mimeType string, data []byte) *models.ProcessedFileResult {
	size := int64(len(data))

	metadata := models.FileMetadata{
		Filename:    filename,
		FileSize:    size,
		MimeType:    mimeType,
		Extension:   strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")),
		ProcessedAt: time.Now().UTC(),
		Language:    "en",
		Encoding:    "utf-8",
	}

	if err := p.Validate(mimeType, size); err != nil {
		p.logWarn("file rejected", "filename", filename, "error", err)
		return failedResult(metadata, err)
	}

	format, _ := extractor.DetectFormat(mimeType)
	content, err := extractor.Extract(format, data)
	if err != nil {
		p.logWarn("extraction failed", "filename", filename, "format", string(format), "error", err)
		return failedResult(metadata, err)
	}

	enrichment := analyzer.Enrich(content)
	metadata.Title = enrichment.Title
	metadata.Subject = enrichment.Subject
	metadata.GradeLevel = enrichment.GradeLevel
	metadata.EducationalObjectives = enrichment.Objectives

	chunks := chunker.Split(content, p.cfg.ChunkSize)
	if chunks == nil {
		chunks = []string{}
	}

	topics := analyzer.Topics(content)
	if topics == nil {
		topics = []string{}
	}

	if p.cfg.Logger != nil {
		p.cfg.Logger.Debug("file processed",
			"filename", filename,
			"format", string(format),
			"content_length", len(content),
			"chunks", len(chunks),
		)
	}

	return &models.ProcessedFileResult{
		Success:      true,
		Content:      content,
		Metadata:     metadata,
		Chunks:       chunks,
		WordCount:    analyzer.WordCount(content),
		ReadingLevel: analyzer.ReadingLevel(content),
		Topics:       topics,
	}
}

func (p *Processor) logWarn(msg string, args ...any) {
	if p.cfg.Logger != nil {
		p.cfg.Logger.Warn(msg, args...)
	}
}

// failedResult keeps the metadata gathered before the failure and zeroes
// everything derived from content. The reading level floor still applies.
func failedResult(metadata models.FileMetadata, err error) *models.ProcessedFileResult {
	return &models.ProcessedFileResult{
		Success:      false,
		Metadata:     metadata,
		Chunks:       []string{},
		Topics:       []string{},
		ReadingLevel: 1.0,
		Error:        err.Error(),
	}
}
