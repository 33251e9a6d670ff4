package models

import (
	"time"
)

// Document review states.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Document struct {
	ID           string     `json:"id" db:"id"`
	Filename     string     `json:"filename" db:"filename"`
	ContentType  string     `json:"content_type" db:"content_type"`
	FileSize     int64      `json:"file_size" db:"file_size"`
	S3Key        string     `json:"s3_key" db:"s3_key"`
	Title        *string    `json:"title,omitempty" db:"title"`
	Author       *string    `json:"author,omitempty" db:"author"`
	Subject      *string    `json:"subject,omitempty" db:"subject"`
	GradeLevel   *string    `json:"grade_level,omitempty" db:"grade_level"`
	Description  *string    `json:"description,omitempty" db:"description"`
	Status       string     `json:"status" db:"status"`
	Language     string     `json:"language" db:"language"`
	Encoding     string     `json:"encoding" db:"encoding"`
	WordCount    int        `json:"word_count" db:"word_count"`
	ReadingLevel float64    `json:"reading_level" db:"reading_level"`
	Topics       []string   `json:"topics" db:"-"`
	Objectives   []string   `json:"objectives,omitempty" db:"-"`
	ChunkCount   int        `json:"chunk_count" db:"chunk_count"`
	UploadedAt   time.Time  `json:"uploaded_at" db:"uploaded_at"`
	ProcessedAt  time.Time  `json:"processed_at" db:"processed_at"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewedBy   *string    `json:"reviewed_by,omitempty" db:"reviewed_by"`
}

type DocumentChunk struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	Text       string    `json:"text" db:"text"`
	WordCount  int       `json:"word_count" db:"word_count"`
	Embedding  []float32 `json:"-" db:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ChunkMatch is a chunk joined with the document columns search results need.
type ChunkMatch struct {
	DocumentChunk
	Filename string  `db:"filename"`
	Title    *string `db:"title"`
	Subject  *string `db:"subject"`
}

// FileMetadata describes one processed upload. The enrichment fields are
// heuristic and stay nil when nothing in the content matched.
type FileMetadata struct {
	Filename              string    `json:"filename"`
	FileSize              int64     `json:"fileSize"`
	MimeType              string    `json:"mimeType"`
	Extension             string    `json:"extension"`
	ProcessedAt           time.Time `json:"processedAt"`
	Language              string    `json:"language"`
	Encoding              string    `json:"encoding"`
	Title                 *string   `json:"title,omitempty"`
	Author                *string   `json:"author,omitempty"`
	Subject               *string   `json:"subject,omitempty"`
	GradeLevel            *string   `json:"gradeLevel,omitempty"`
	EducationalObjectives []string  `json:"educationalObjectives,omitempty"`
}

// ProcessedFileResult is the aggregate outcome of running the ingestion
// pipeline over one file. Expected failures are reported in place: Success
// is false, Error carries the reason, and the content-derived fields are
// zeroed while Metadata keeps whatever was gathered before the failure.
type ProcessedFileResult struct {
	Success      bool         `json:"success"`
	Content      string       `json:"content"`
	Metadata     FileMetadata `json:"metadata"`
	Chunks       []string     `json:"chunks"`
	WordCount    int          `json:"wordCount"`
	ReadingLevel float64      `json:"readingLevel"`
	Topics       []string     `json:"topics"`
	Error        string       `json:"error,omitempty"`
}

type UploadRequest struct {
	File        []byte
	Filename    string
	ContentType string
	Title       string
	Author      string
	Subject     string
	GradeLevel  string
	Description string
}

type UploadResponse struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	ContentType  string    `json:"content_type"`
	FileSize     int64     `json:"file_size"`
	Status       string    `json:"status"`
	WordCount    int       `json:"word_count"`
	ReadingLevel float64   `json:"reading_level"`
	Topics       []string  `json:"topics"`
	ChunkCount   int       `json:"chunk_count"`
	UploadedAt   time.Time `json:"uploaded_at"`
	Message      string    `json:"message"`
}

type DocumentFilter struct {
	Status  string
	Subject string
	Limit   int
	Offset  int
}

type SearchRequest struct {
	Query   string `json:"query"`
	Subject string `json:"subject,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

type SearchResult struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Title      *string `json:"title,omitempty"`
	Subject    *string `json:"subject,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

type StatsResponse struct {
	TotalDocuments  int64            `json:"total_documents"`
	TotalChunks     int64            `json:"total_chunks"`
	TotalWords      int64            `json:"total_words"`
	AvgReadingLevel float64          `json:"avg_reading_level"`
	ByStatus        map[string]int64 `json:"by_status"`
	BySubject       map[string]int64 `json:"by_subject"`
	DatabaseSize    int64            `json:"database_size_bytes"`
	LastUpload      *time.Time       `json:"last_upload,omitempty"`
	LastUploadAgo   string           `json:"last_upload_ago,omitempty"`
}

type ReviewRequest struct {
	Reviewer string `json:"reviewer"`
}

type BackupInfo struct {
	Name      string    `json:"name"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Storage  string `json:"storage"`
}

type SystemEvent struct {
	ID        int64     `json:"id" db:"id"`
	Level     string    `json:"level" db:"level"`
	Component string    `json:"component" db:"component"`
	Message   string    `json:"message" db:"message"`
	Details   string    `json:"details,omitempty" db:"details"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
