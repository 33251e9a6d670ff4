package extractor

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func buildXLSX(t *testing.T, parts map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range parts {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

const testWorkbookXML = `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets>
    <sheet name="Roster" sheetId="1" r:id="rId1"/>
    <sheet name="Grades" sheetId="2" r:id="rId2"/>
  </sheets>
</workbook>`

const testWorkbookRelsXML = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet2.xml"/>
</Relationships>`

const testSharedStringsXML = `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="4" uniqueCount="4">
  <si><t>Name</t></si>
  <si><t>Age</t></si>
  <si><t>Alice</t></si>
  <si><r><t>Bo</t></r><r><t>b</t></r></si>
</sst>`

const testSheet1XML = `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheetData>
    <row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>
    <row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2"><v>30</v></c></row>
    <row r="3"><c r="A3"/><c r="B3"/></row>
    <row r="4"><c r="A4" t="s"><v>3</v></c><c r="B4"><v>25</v></c></row>
  </sheetData>
</worksheet>`

const testSheet2XML = `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheetData>
    <row r="1"><c r="A1" t="inlineStr"><is><t>Quiz 1</t></is></c><c r="B1"><v>85</v></c><c r="C1" t="b"><v>1</v></c></row>
  </sheetData>
</worksheet>`

func TestExtractXLSX(t *testing.T) {
	data := buildXLSX(t, map[string]string{
		"xl/workbook.xml":            testWorkbookXML,
		"xl/_rels/workbook.xml.rels": testWorkbookRelsXML,
		"xl/sharedStrings.xml":       testSharedStringsXML,
		"xl/worksheets/sheet1.xml":   testSheet1XML,
		"xl/worksheets/sheet2.xml":   testSheet2XML,
	})

	text, err := ExtractXLSX(data)
	if err != nil {
		t.Fatalf("ExtractXLSX returned error: %v", err)
	}

	want := strings.Join([]string{
		"=== Sheet: Roster ===",
		"Name\tAge",
		"Alice\t30",
		"Bob\t25",
		"=== Sheet: Grades ===",
		"Quiz 1\t85\tTRUE",
	}, "\n")

	if text != want {
		t.Errorf("ExtractXLSX:\ngot\n%s\nwant\n%s", text, want)
	}
}

func TestExtractXLSXWithoutRels(t *testing.T) {
	// No relationship part: sheet targets fall back to position order.
	data := buildXLSX(t, map[string]string{
		"xl/workbook.xml":          testWorkbookXML,
		"xl/sharedStrings.xml":     testSharedStringsXML,
		"xl/worksheets/sheet1.xml": testSheet1XML,
		"xl/worksheets/sheet2.xml": testSheet2XML,
	})

	text, err := ExtractXLSX(data)
	if err != nil {
		t.Fatalf("ExtractXLSX returned error: %v", err)
	}
	if !strings.Contains(text, "=== Sheet: Roster ===") || !strings.Contains(text, "Alice\t30") {
		t.Errorf("ExtractXLSX missing expected content:\n%s", text)
	}
}

func TestExtractXLSXNotAnArchive(t *testing.T) {
	_, err := ExtractXLSX([]byte("this is not a zip file"))
	if err == nil {
		t.Fatal("expected error for non-zip data")
	}
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("error = %v, want ErrExtraction", err)
	}
}

func TestExtractXLSXMissingWorkbook(t *testing.T) {
	data := buildXLSX(t, map[string]string{
		"xl/worksheets/sheet1.xml": testSheet1XML,
	})

	_, err := ExtractXLSX(data)
	if err == nil {
		t.Fatal("expected error for archive without workbook.xml")
	}
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("error = %v, want ErrExtraction", err)
	}
}
