package processor

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/edustack/school-content-api/internal/extractor"
	"github.com/edustack/school-content-api/internal/models"
)

func TestProcessTextFile(t *testing.T) {
	content := "Lesson Plan: Fractions\n\nStudents will learn fractions. Objective: Add fractions with like denominators. Designed for 3rd grade classes."
	p := New(Config{})

	result := p.Process("lesson.txt", "text/plain", []byte(content))

	if !result.Success {
		t.Fatalf("Process failed: %s", result.Error)
	}
	if result.Content != content {
		t.Errorf("Content altered:\ngot  %q\nwant %q", result.Content, content)
	}
	if result.WordCount != 18 {
		t.Errorf("WordCount = %d, want 18", result.WordCount)
	}
	if result.ReadingLevel < 1.0 {
		t.Errorf("ReadingLevel = %v, below floor", result.ReadingLevel)
	}
	if len(result.Chunks) == 0 {
		t.Error("expected at least one chunk")
	}

	meta := result.Metadata
	if meta.Filename != "lesson.txt" {
		t.Errorf("Filename = %q, want lesson.txt", meta.Filename)
	}
	if meta.FileSize != int64(len(content)) {
		t.Errorf("FileSize = %d, want %d", meta.FileSize, len(content))
	}
	if meta.MimeType != "text/plain" {
		t.Errorf("MimeType = %q, want text/plain", meta.MimeType)
	}
	if meta.Extension != "txt" {
		t.Errorf("Extension = %q, want txt", meta.Extension)
	}
	if meta.Language != "en" || meta.Encoding != "utf-8" {
		t.Errorf("Language/Encoding = %q/%q, want en/utf-8", meta.Language, meta.Encoding)
	}
	if meta.Title == nil || *meta.Title != "Lesson Plan: Fractions" {
		t.Errorf("Title = %v, want Lesson Plan: Fractions", meta.Title)
	}
	if meta.Subject == nil || *meta.Subject != "Education" {
		t.Errorf("Subject = %v, want Education", meta.Subject)
	}
	if meta.GradeLevel == nil || *meta.GradeLevel != "3rd grade" {
		t.Errorf("GradeLevel = %v, want 3rd grade", meta.GradeLevel)
	}
	if len(meta.EducationalObjectives) != 1 {
		t.Errorf("EducationalObjectives = %v, want one entry", meta.EducationalObjectives)
	}
}

func TestProcessEmptyFile(t *testing.T) {
	p := New(Config{})

	result := p.Process("empty.txt", "text/plain", nil)

	if result.Success {
		t.Fatal("expected failure for empty file")
	}
	if !strings.Contains(result.Error, "empty") {
		t.Errorf("Error = %q, want mention of empty", result.Error)
	}
	assertFailureZeroed(t, result)

	// Metadata gathered before validation is still reported.
	if result.Metadata.Filename != "empty.txt" {
		t.Errorf("Metadata.Filename = %q, want empty.txt", result.Metadata.Filename)
	}
	if result.Metadata.MimeType != "text/plain" {
		t.Errorf("Metadata.MimeType = %q, want text/plain", result.Metadata.MimeType)
	}
}

func TestProcessFileTooLarge(t *testing.T) {
	p := New(Config{MaxFileSize: 100})

	result := p.Process("big.txt", "text/plain", []byte(strings.Repeat("x", 101)))
	if result.Success {
		t.Fatal("expected failure for oversized file")
	}
	if !strings.Contains(result.Error, "maximum size") {
		t.Errorf("Error = %q, want mention of maximum size", result.Error)
	}
	assertFailureZeroed(t, result)

	// Exactly at the limit is accepted.
	result = p.Process("fits.txt", "text/plain", []byte(strings.Repeat("x", 100)))
	if !result.Success {
		t.Errorf("file at the size limit rejected: %s", result.Error)
	}
}

func TestProcessUnsupportedType(t *testing.T) {
	p := New(Config{})

	result := p.Process("image.png", "image/png", []byte{0x89, 0x50, 0x4E, 0x47})
	if result.Success {
		t.Fatal("expected failure for unsupported MIME type")
	}
	if !strings.Contains(result.Error, "unsupported") {
		t.Errorf("Error = %q, want mention of unsupported", result.Error)
	}
	assertFailureZeroed(t, result)
}

func TestProcessMalformedJSON(t *testing.T) {
	p := New(Config{})

	result := p.Process("data.json", "application/json", []byte(`{"broken":`))
	if result.Success {
		t.Fatal("expected failure for malformed JSON")
	}
	if !strings.Contains(result.Error, "invalid format") {
		t.Errorf("Error = %q, want mention of invalid format", result.Error)
	}
	assertFailureZeroed(t, result)
}

func TestProcessPDFNotImplemented(t *testing.T) {
	p := New(Config{})

	result := p.Process("report.pdf", "application/pdf", []byte("%PDF-1.4"))
	if result.Success {
		t.Fatal("expected failure for PDF")
	}
	if !strings.Contains(result.Error, "not implemented") {
		t.Errorf("Error = %q, want mention of not implemented", result.Error)
	}
	assertFailureZeroed(t, result)
}

func TestProcessJSONContent(t *testing.T) {
	p := New(Config{})

	result := p.Process("unit.json", "application/json", []byte(`{"unit": "Fractions", "week": 4}`))
	if !result.Success {
		t.Fatalf("Process failed: %s", result.Error)
	}
	want := "unit: Fractions\nweek: 4"
	if result.Content != want {
		t.Errorf("Content = %q, want %q", result.Content, want)
	}
}

func TestProcessChunkSize(t *testing.T) {
	p := New(Config{ChunkSize: 15})

	result := p.Process("notes.txt", "text/plain", []byte("Cats are nice. Dogs are nice too. Birds fly."))
	if !result.Success {
		t.Fatalf("Process failed: %s", result.Error)
	}

	want := []string{"Cats are nice.", "Dogs are nice too.", "Birds fly."}
	if !reflect.DeepEqual(result.Chunks, want) {
		t.Errorf("Chunks = %v, want %v", result.Chunks, want)
	}
}

func TestProcessIdempotent(t *testing.T) {
	content := []byte("Photosynthesis converts light. Photosynthesis feeds plants. Plants grow with photosynthesis and plants thrive.")
	p := New(Config{ChunkSize: 40})

	first := p.Process("science.txt", "text/plain", content)
	second := p.Process("science.txt", "text/plain", content)

	// Timestamps differ between runs; everything else must not.
	now := time.Now().UTC()
	first.Metadata.ProcessedAt = now
	second.Metadata.ProcessedAt = now

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated runs disagree:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestValidateChecksSizeBeforeType(t *testing.T) {
	p := New(Config{})

	// An empty file with an unsupported type reports the empty file.
	err := p.Validate("image/png", 0)
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("Validate = %v, want ErrEmptyFile", err)
	}

	// An oversized file with an unsupported type reports the size.
	err = p.Validate("image/png", MaxFileSize+1)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Validate = %v, want ErrFileTooLarge", err)
	}

	err = p.Validate("image/png", 10)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Validate = %v, want ErrUnsupportedFormat", err)
	}

	if err := p.Validate("text/plain", 10); err != nil {
		t.Errorf("Validate = %v, want nil", err)
	}
}

func TestProcessDistinguishesMissingDecoder(t *testing.T) {
	p := New(Config{})

	_, extractErr := extractor.Extract(extractor.FormatPDF, []byte("%PDF-1.4"))
	if !errors.Is(extractErr, extractor.ErrNotImplemented) {
		t.Fatalf("extractor error = %v, want ErrNotImplemented", extractErr)
	}

	result := p.Process("report.pdf", "application/pdf", []byte("%PDF-1.4"))
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != extractErr.Error() {
		t.Errorf("result error %q does not match extractor error %q", result.Error, extractErr.Error())
	}
}

func assertFailureZeroed(t *testing.T, result *models.ProcessedFileResult) {
	t.Helper()

	if result.Content != "" {
		t.Errorf("failed result Content = %q, want empty", result.Content)
	}
	if result.Chunks == nil || len(result.Chunks) != 0 {
		t.Errorf("failed result Chunks = %v, want empty slice", result.Chunks)
	}
	if result.WordCount != 0 {
		t.Errorf("failed result WordCount = %d, want 0", result.WordCount)
	}
	if result.Topics == nil || len(result.Topics) != 0 {
		t.Errorf("failed result Topics = %v, want empty slice", result.Topics)
	}
	if result.ReadingLevel < 1.0 {
		t.Errorf("failed result ReadingLevel = %v, below floor", result.ReadingLevel)
	}
	if result.Error == "" {
		t.Error("failed result has no error message")
	}
}
