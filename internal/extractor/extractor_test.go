package extractor

import (
	"errors"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		mimeType string
		format   Format
		ok       bool
	}{
		{"text/plain", FormatText, true},
		{"text/csv", FormatCSV, true},
		{"application/json", FormatJSON, true},
		{"text/html", FormatHTML, true},
		{"text/markdown", FormatMarkdown, true},
		{"application/pdf", FormatPDF, true},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", FormatDOCX, true},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatXLSX, true},
		{"application/vnd.openxmlformats-officedocument.presentationml.presentation", FormatPPTX, true},
		{"image/png", "", false},
		{"application/octet-stream", "", false},
		{"", "", false},
		{"TEXT/PLAIN", "", false},
	}

	for _, tt := range tests {
		format, ok := DetectFormat(tt.mimeType)
		if ok != tt.ok {
			t.Errorf("DetectFormat(%q) ok = %v, want %v", tt.mimeType, ok, tt.ok)
			continue
		}
		if ok && format != tt.format {
			t.Errorf("DetectFormat(%q) = %q, want %q", tt.mimeType, format, tt.format)
		}
	}
}

func TestExtractTextVerbatim(t *testing.T) {
	input := "# Heading\n\nfirst,second\n  indented line\t\n\nlast"

	text, err := ExtractText([]byte(input))
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	if text != input {
		t.Errorf("ExtractText altered UTF-8 content:\ngot  %q\nwant %q", text, input)
	}
}

func TestExtractTextBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello world")...)

	text, err := ExtractText(data)
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	if text != "hello world" {
		t.Errorf("ExtractText = %q, want %q", text, "hello world")
	}
}

func TestExtractTextUTF16LE(t *testing.T) {
	// "hi" with a little-endian BOM.
	data := []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00}

	text, err := ExtractText(data)
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	if text != "hi" {
		t.Errorf("ExtractText = %q, want %q", text, "hi")
	}
}

func TestExtractTextWindows1252(t *testing.T) {
	// 0xE9 is é in Windows-1252 and invalid as standalone UTF-8.
	data := []byte{'c', 'a', 'f', 0xE9}

	text, err := ExtractText(data)
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	if text != "café" {
		t.Errorf("ExtractText = %q, want %q", text, "café")
	}
}

func TestExtractNotImplementedFormats(t *testing.T) {
	for _, format := range []Format{FormatPDF, FormatDOCX, FormatPPTX} {
		_, err := Extract(format, []byte("%PDF-1.4 or whatever"))
		if err == nil {
			t.Errorf("Extract(%q) expected error, got nil", format)
			continue
		}
		if !errors.Is(err, ErrNotImplemented) {
			t.Errorf("Extract(%q) error = %v, want ErrNotImplemented", format, err)
		}
		if !errors.Is(err, ErrExtraction) {
			t.Errorf("Extract(%q) error = %v, want ErrExtraction", format, err)
		}
	}
}

func TestExtractUnknownFormat(t *testing.T) {
	_, err := Extract(Format("tarball"), []byte("data"))
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("error = %v, want ErrExtraction", err)
	}
}

func TestExtractTextFamilyDispatch(t *testing.T) {
	input := "alpha,beta\ngamma,delta"

	for _, format := range []Format{FormatText, FormatCSV, FormatHTML, FormatMarkdown} {
		text, err := Extract(format, []byte(input))
		if err != nil {
			t.Fatalf("Extract(%q) returned error: %v", format, err)
		}
		if text != input {
			t.Errorf("Extract(%q) = %q, want verbatim input", format, text)
		}
	}
}
