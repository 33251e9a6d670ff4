// Package extractor turns uploaded file bytes into plain text. Each
// supported format has its own decoder; the declared MIME type alone decides
// which decoder runs, content bytes are never sniffed.
package extractor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat reports content that does not parse as its declared format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrExtraction reports a decoder failure on structurally damaged content.
	ErrExtraction = errors.New("extraction failed")

	// ErrNotImplemented reports a format this service recognizes but cannot
	// decode because the decoding dependency is not bundled.
	ErrNotImplemented = errors.New("extraction not implemented")
)

// Format identifies the decoder used for a document.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatXLSX     Format = "xlsx"
	FormatPPTX     Format = "pptx"
)

// mimeFormats is the allow-list of declared MIME types. Anything absent here
// is rejected before extraction starts.
var mimeFormats = map[string]Format{
	"text/plain":       FormatText,
	"text/csv":         FormatCSV,
	"application/json": FormatJSON,
	"text/html":        FormatHTML,
	"text/markdown":    FormatMarkdown,
	"application/pdf":  FormatPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   FormatDOCX,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         FormatXLSX,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": FormatPPTX,
}

// DetectFormat maps a declared MIME type to its decoder variant. The second
// return value is false for types outside the allow-list.
func DetectFormat(mimeType string) (Format, bool) {
	format, ok := mimeFormats[mimeType]
	return format, ok
}

// Extract decodes data according to format.
//
// The binary office formats PDF, DOCX, and PPTX are recognized but not
// decoded; they fail with an error matching both ErrNotImplemented and
// ErrExtraction so callers can tell a missing decoder from a broken file.
func Extract(format Format, data []byte) (string, error) {
	switch format {
	case FormatText, FormatCSV, FormatHTML, FormatMarkdown:
		return ExtractText(data)
	case FormatJSON:
		return ExtractJSON(data)
	case FormatXLSX:
		return ExtractXLSX(data)
	case FormatPDF, FormatDOCX, FormatPPTX:
		return "", fmt.Errorf("%w: %w: %s decoding requires an external dependency that is not bundled with this service", ErrExtraction, ErrNotImplemented, format)
	default:
		return "", fmt.Errorf("%w: no decoder registered for format %q", ErrExtraction, format)
	}
}
