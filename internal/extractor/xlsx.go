package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type xlsxWorkbook struct {
	Sheets []xlsxSheetRef `xml:"sheets>sheet"`
}

type xlsxSheetRef struct {
	Name string `xml:"name,attr"`
	RID  string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}

type xlsxRelationships struct {
	Relationships []xlsxRelationship `xml:"Relationship"`
}

type xlsxRelationship struct {
	ID     string `xml:"Id,attr"`
	Target string `xml:"Target,attr"`
}

type xlsxSharedStrings struct {
	Items []xlsxRichText `xml:"si"`
}

type xlsxRichText struct {
	Text string   `xml:"t"`
	Runs []string `xml:"r>t"`
}

func (rt xlsxRichText) value() string {
	if rt.Text != "" {
		return rt.Text
	}
	return strings.Join(rt.Runs, "")
}

type xlsxWorksheet struct {
	Rows []xlsxRow `xml:"sheetData>row"`
}

type xlsxRow struct {
	Cells []xlsxCell `xml:"c"`
}

type xlsxCell struct {
	Type   string        `xml:"t,attr"`
	Value  string        `xml:"v"`
	Inline *xlsxRichText `xml:"is"`
}

// ExtractXLSX renders a spreadsheet as text, one sheet after another in
// workbook order. Every sheet contributes a "=== Sheet: name ===" header
// followed by one line per row with the non-blank cell values joined by
// tabs; rows with no content are skipped.
func ExtractXLSX(data []byte) (string, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a valid spreadsheet archive: %v", ErrExtraction, err)
	}

	parts := make(map[string]*zip.File, len(zipReader.File))
	for _, file := range zipReader.File {
		parts[file.Name] = file
	}

	var workbook xlsxWorkbook
	if err := unmarshalPart(parts, "xl/workbook.xml", &workbook); err != nil {
		return "", err
	}
	if len(workbook.Sheets) == 0 {
		return "", fmt.Errorf("%w: workbook contains no sheets", ErrExtraction)
	}

	sheetTargets := map[string]string{}
	var rels xlsxRelationships
	if _, ok := parts["xl/_rels/workbook.xml.rels"]; ok {
		if err := unmarshalPart(parts, "xl/_rels/workbook.xml.rels", &rels); err != nil {
			return "", err
		}
		for _, rel := range rels.Relationships {
			sheetTargets[rel.ID] = normalizeTarget(rel.Target)
		}
	}

	var shared []string
	if _, ok := parts["xl/sharedStrings.xml"]; ok {
		var sst xlsxSharedStrings
		if err := unmarshalPart(parts, "xl/sharedStrings.xml", &sst); err != nil {
			return "", err
		}
		shared = make([]string, len(sst.Items))
		for i, item := range sst.Items {
			shared[i] = item.value()
		}
	}

	var lines []string
	for i, sheet := range workbook.Sheets {
		target := sheetTargets[sheet.RID]
		if target == "" {
			target = fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1)
		}

		var worksheet xlsxWorksheet
		if err := unmarshalPart(parts, target, &worksheet); err != nil {
			return "", err
		}

		lines = append(lines, fmt.Sprintf("=== Sheet: %s ===", sheet.Name))
		for _, row := range worksheet.Rows {
			var cells []string
			for _, cell := range row.Cells {
				if value := cellValue(cell, shared); value != "" {
					cells = append(cells, value)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, "\t"))
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}

func cellValue(cell xlsxCell, shared []string) string {
	switch cell.Type {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(cell.Value))
		if err != nil || idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx]
	case "inlineStr":
		if cell.Inline == nil {
			return ""
		}
		return cell.Inline.value()
	case "b":
		if strings.TrimSpace(cell.Value) == "1" {
			return "TRUE"
		}
		return "FALSE"
	default:
		return cell.Value
	}
}

func unmarshalPart(parts map[string]*zip.File, name string, v interface{}) error {
	part, ok := parts[name]
	if !ok {
		return fmt.Errorf("%w: %s not found in spreadsheet archive", ErrExtraction, name)
	}

	reader, err := part.Open()
	if err != nil {
		return fmt.Errorf("%w: failed to open %s: %v", ErrExtraction, name, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("%w: failed to read %s: %v", ErrExtraction, name, err)
	}

	if err := xml.Unmarshal(content, v); err != nil {
		return fmt.Errorf("%w: failed to parse %s: %v", ErrExtraction, name, err)
	}

	return nil
}

// normalizeTarget resolves a workbook relationship target to its archive
// path. Targets are usually relative to xl/ but may be archive-absolute.
func normalizeTarget(target string) string {
	target = strings.TrimPrefix(target, "/")
	if !strings.HasPrefix(target, "xl/") {
		target = "xl/" + target
	}
	return target
}
