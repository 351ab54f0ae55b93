package extraction

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SpreadsheetExtractor handles CSV, TSV and XLSX files. It records the
// header row, a small row sample, and shape counts rather than the full
// sheet.
type SpreadsheetExtractor struct {
	limits Limits
}

func NewSpreadsheetExtractor(limits Limits) *SpreadsheetExtractor {
	return &SpreadsheetExtractor{limits: limits}
}

func (e *SpreadsheetExtractor) Name() string { return "spreadsheet" }

func (e *SpreadsheetExtractor) Priority() int { return 50 }

func (e *SpreadsheetExtractor) CanExtract(fileName, mimeType string) bool {
	switch extOf(fileName) {
	case ".csv", ".tsv", ".xlsx":
		return true
	}
	switch mimeType {
	case "text/csv", "text/tab-separated-values",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return true
	}
	return false
}

func (e *SpreadsheetExtractor) Extract(ctx context.Context, data []byte, fileName string) (*Content, error) {
	var rows [][]string
	if ext := extOf(fileName); ext == ".xlsx" || bytes.HasPrefix(data, []byte("PK")) {
		rows = e.readXLSX(data, fileName)
	} else {
		rows = e.readDelimited(data, fileName)
	}
	return e.summarize(rows), nil
}

func (e *SpreadsheetExtractor) readDelimited(data []byte, fileName string) [][]string {
	comma := ','
	if extOf(fileName) == ".tsv" {
		comma = '\t'
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("CSV read stopped early", "file", fileName, "error", err)
			break
		}
		rows = append(rows, record)
	}
	return rows
}

func (e *SpreadsheetExtractor) readXLSX(data []byte, fileName string) [][]string {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		slog.Warn("XLSX open failed, degrading to empty content", "file", fileName, "error", err)
		return nil
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		slog.Warn("XLSX sheet read failed", "file", fileName, "sheet", sheets[0], "error", err)
		return nil
	}
	return rows
}

func (e *SpreadsheetExtractor) summarize(rows [][]string) *Content {
	content := &Content{Metadata: map[string]string{}}
	if len(rows) == 0 {
		return content
	}

	content.Headers = rows[0]
	content.RowCount = len(rows) - 1
	for _, row := range rows {
		if len(row) > content.ColumnCount {
			content.ColumnCount = len(row)
		}
	}

	sample := rows[1:]
	if e.limits.MaxSampleRows > 0 && len(sample) > e.limits.MaxSampleRows {
		sample = sample[:e.limits.MaxSampleRows]
	}
	content.FirstRows = sample

	var b strings.Builder
	b.WriteString(strings.Join(content.Headers, ", "))
	b.WriteString("\n")
	for _, row := range sample {
		b.WriteString(strings.Join(row, ", "))
		b.WriteString("\n")
	}
	content.Text = truncate(strings.TrimSpace(b.String()), e.limits.MaxTextChars)
	return content
}
