// Package importer implements the bulk catalog synchronization pipeline:
// feed parsing, per-row validation and normalization, and two-pass
// reconciliation against the catalog store.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"catalog-service/internal/models"
)

// ParseFeed parses a feed document into ordered FeedRows. A returned error is
// structural: no individual row can be blamed and the import must abort.
func ParseFeed(r io.Reader, format models.ImportFormat) ([]models.FeedRow, error) {
	switch format {
	case models.ImportFormatCSV:
		return ParseCSV(r)
	case models.ImportFormatXLSX:
		return ParseXLSX(r)
	default:
		return nil, fmt.Errorf("unsupported feed format %q", format)
	}
}

// ParseCSV parses a CSV feed into rows. Rows shorter or longer than the
// header are accepted: absent columns become absent keys rather than empty
// strings, so "field omitted" stays distinguishable from "field empty".
func ParseCSV(r io.Reader) ([]models.FeedRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow ragged rows

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read feed header: %w", err)
	}
	normalizeHeaders(headers)

	var rows []models.FeedRow
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}

		fields := make(map[string]string)
		for i, value := range record {
			if i < len(headers) {
				fields[headers[i]] = strings.TrimSpace(value)
			}
		}
		lineNum++
		rows = append(rows, models.FeedRow{Number: lineNum, Fields: fields})
	}

	return rows, nil
}

// ParseXLSX parses an Excel feed into rows. The sheet named "Products" is
// preferred when present, otherwise the first sheet is used.
func ParseXLSX(r io.Reader) ([]models.FeedRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, "Products") {
			sheetName = name
			break
		}
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}

	headers := excelRows[0]
	normalizeHeaders(headers)

	var rows []models.FeedRow
	for rowIdx, excelRow := range excelRows[1:] {
		fields := make(map[string]string)
		for i, value := range excelRow {
			if i < len(headers) {
				fields[headers[i]] = strings.TrimSpace(value)
			}
		}
		// 1-indexed, +1 for the header row
		rows = append(rows, models.FeedRow{Number: rowIdx + 2, Fields: fields})
	}

	return rows, nil
}

// normalizeHeaders lowercases and trims column names and strips the required
// marker the template generator appends.
func normalizeHeaders(headers []string) {
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}
}
