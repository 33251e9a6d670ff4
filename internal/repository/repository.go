package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/edustack/school-content-api/internal/embedder"
	"github.com/edustack/school-content-api/internal/models"
)

type Repository interface {
	Ping(ctx context.Context) error
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context, filter models.DocumentFilter) ([]*models.Document, error)
	UpdateStatus(ctx context.Context, id, status, reviewer string) error
	Delete(ctx context.Context, id string) error
	CreateChunks(ctx context.Context, chunks []*models.DocumentChunk) error
	GetChunksByDocumentID(ctx context.Context, documentID string) ([]*models.DocumentChunk, error)
	AllChunkMatches(ctx context.Context, subject string) ([]*models.ChunkMatch, error)
	GetStats(ctx context.Context) (*models.StatsResponse, error)
	LogEvent(ctx context.Context, level, component, message, details string) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// documentRow carries the JSON-encoded list columns next to the document
// fields so sqlx can scan a full row.
type documentRow struct {
	models.Document
	TopicsJSON     string `db:"topics"`
	ObjectivesJSON string `db:"objectives"`
}

func (row *documentRow) toDocument() (*models.Document, error) {
	doc := row.Document
	if err := json.Unmarshal([]byte(row.TopicsJSON), &doc.Topics); err != nil {
		return nil, fmt.Errorf("failed to decode topics for document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal([]byte(row.ObjectivesJSON), &doc.Objectives); err != nil {
		return nil, fmt.Errorf("failed to decode objectives for document %s: %w", doc.ID, err)
	}
	return &doc, nil
}

func (r *repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *repository) Create(ctx context.Context, doc *models.Document) error {
	topics := doc.Topics
	if topics == nil {
		topics = []string{}
	}
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("failed to encode topics: %w", err)
	}

	objectives := doc.Objectives
	if objectives == nil {
		objectives = []string{}
	}
	objectivesJSON, err := json.Marshal(objectives)
	if err != nil {
		return fmt.Errorf("failed to encode objectives: %w", err)
	}

	query := `INSERT INTO documents (
		id, filename, content_type, file_size, s3_key,
		title, author, subject, grade_level, description,
		status, language, encoding, word_count, reading_level,
		topics, objectives, chunk_count, uploaded_at, processed_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		doc.ID, doc.Filename, doc.ContentType, doc.FileSize, doc.S3Key,
		doc.Title, doc.Author, doc.Subject, doc.GradeLevel, doc.Description,
		doc.Status, doc.Language, doc.Encoding, doc.WordCount, doc.ReadingLevel,
		string(topicsJSON), string(objectivesJSON), doc.ChunkCount, doc.UploadedAt, doc.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var row documentRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM documents WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return row.toDocument()
}

func (r *repository) List(ctx context.Context, filter models.DocumentFilter) ([]*models.Document, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	builder := sq.Select("*").
		From("documents").
		OrderBy("uploaded_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Subject != "" {
		builder = builder.Where(sq.Eq{"subject": filter.Subject})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	var rows []documentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]*models.Document, 0, len(rows))
	for i := range rows {
		doc, err := rows[i].toDocument()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id, status, reviewer string) error {
	query := `UPDATE documents SET status = ?, reviewed_at = ?, reviewed_by = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), reviewer, id)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete document chunks: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

func (r *repository) CreateChunks(ctx context.Context, chunks []*models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin chunk transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO document_chunks (
		id, document_id, chunk_index, text, word_count, embedding, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		_, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.DocumentID, chunk.ChunkIndex, chunk.Text,
			chunk.WordCount, embedder.EncodeVector(chunk.Embedding), chunk.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

type chunkRow struct {
	models.DocumentChunk
	EmbeddingBlob []byte `db:"embedding"`
}

func (r *repository) GetChunksByDocumentID(ctx context.Context, documentID string) ([]*models.DocumentChunk, error) {
	var rows []chunkRow
	query := `SELECT * FROM document_chunks WHERE document_id = ? ORDER BY chunk_index`
	if err := r.db.SelectContext(ctx, &rows, query, documentID); err != nil {
		return nil, fmt.Errorf("failed to get chunks: %w", err)
	}

	chunks := make([]*models.DocumentChunk, 0, len(rows))
	for i := range rows {
		chunk := rows[i].DocumentChunk
		chunk.Embedding = embedder.DecodeVector(rows[i].EmbeddingBlob)
		chunks = append(chunks, &chunk)
	}
	return chunks, nil
}

type chunkMatchRow struct {
	models.ChunkMatch
	EmbeddingBlob []byte `db:"embedding"`
}

func (r *repository) AllChunkMatches(ctx context.Context, subject string) ([]*models.ChunkMatch, error) {
	builder := sq.Select(
		"c.id", "c.document_id", "c.chunk_index", "c.text", "c.word_count",
		"c.embedding", "c.created_at", "d.filename", "d.title", "d.subject",
	).
		From("document_chunks c").
		Join("documents d ON d.id = c.document_id").
		OrderBy("c.document_id", "c.chunk_index")
	if subject != "" {
		builder = builder.Where(sq.Eq{"d.subject": subject})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build match query: %w", err)
	}

	var rows []chunkMatchRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load chunk matches: %w", err)
	}

	matches := make([]*models.ChunkMatch, 0, len(rows))
	for i := range rows {
		match := rows[i].ChunkMatch
		match.Embedding = embedder.DecodeVector(rows[i].EmbeddingBlob)
		matches = append(matches, &match)
	}
	return matches, nil
}

func (r *repository) GetStats(ctx context.Context) (*models.StatsResponse, error) {
	stats := &models.StatsResponse{
		ByStatus:  map[string]int64{},
		BySubject: map[string]int64{},
	}

	var totals struct {
		Documents int64   `db:"documents"`
		Words     int64   `db:"words"`
		AvgLevel  float64 `db:"avg_level"`
	}
	err := r.db.GetContext(ctx, &totals, `SELECT
		COUNT(*) AS documents,
		COALESCE(SUM(word_count), 0) AS words,
		COALESCE(AVG(reading_level), 0) AS avg_level
	FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate documents: %w", err)
	}
	stats.TotalDocuments = totals.Documents
	stats.TotalWords = totals.Words
	stats.AvgReadingLevel = math.Round(totals.AvgLevel*100) / 100

	if err := r.db.GetContext(ctx, &stats.TotalChunks, `SELECT COUNT(*) FROM document_chunks`); err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	if err := r.groupCounts(ctx, "status", stats.ByStatus); err != nil {
		return nil, err
	}
	if err := r.groupCounts(ctx, "subject", stats.BySubject); err != nil {
		return nil, err
	}

	if err := r.db.GetContext(ctx, &stats.DatabaseSize,
		`SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()`); err != nil {
		return nil, fmt.Errorf("failed to read database size: %w", err)
	}

	var lastUpload time.Time
	err = r.db.GetContext(ctx, &lastUpload, `SELECT uploaded_at FROM documents ORDER BY uploaded_at DESC LIMIT 1`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read last upload time: %w", err)
	}
	if err == nil {
		stats.LastUpload = &lastUpload
	}

	return stats, nil
}

func (r *repository) groupCounts(ctx context.Context, column string, into map[string]int64) error {
	query, args, err := sq.Select(
		fmt.Sprintf("COALESCE(%s, 'unspecified') AS label", column),
		"COUNT(*) AS n",
	).
		From("documents").
		GroupBy(column).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build %s counts query: %w", column, err)
	}

	var rows []struct {
		Label string `db:"label"`
		N     int64  `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("failed to count by %s: %w", column, err)
	}
	for _, row := range rows {
		into[row.Label] = row.N
	}
	return nil
}

func (r *repository) LogEvent(ctx context.Context, level, component, message, details string) error {
	if details == "" {
		details = "{}"
	}

	query := `INSERT INTO system_events (level, component, message, details, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, level, component, message, details, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to log event: %w", err)
	}
	return nil
}
