package import_pkg

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vacancy-codes/internal/catalog"
	"github.com/vacancy-codes/internal/vacancy"
)

// utf8BOM is prepended by spreadsheet tools when saving CSV
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadCatalogCSV reads (code, name) rows from a CSV file with a header line.
// codeCol and nameCol name the header columns, matched case-insensitively.
// Rows with an empty code are skipped; row order is preserved.
func LoadCatalogCSV(filename, codeCol, nameCol string) ([]catalog.Row, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	return ReadCatalogCSV(file, codeCol, nameCol)
}

// ReadCatalogCSV is LoadCatalogCSV over an open reader
func ReadCatalogCSV(r io.Reader, codeCol, nameCol string) ([]catalog.Row, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Create column mapping
	columnMap := make(map[string]int, len(header))
	for i, col := range header {
		columnMap[strings.ToLower(strings.TrimSpace(col))] = i
	}
	codeIdx, ok := columnMap[strings.ToLower(codeCol)]
	if !ok {
		return nil, fmt.Errorf("column %q not found in header %v", codeCol, header)
	}
	nameIdx, ok := columnMap[strings.ToLower(nameCol)]
	if !ok {
		return nil, fmt.Errorf("column %q not found in header %v", nameCol, header)
	}

	var rows []catalog.Row
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if codeIdx >= len(record) || nameIdx >= len(record) {
			return nil, fmt.Errorf("line %d: insufficient columns: got %d", line, len(record))
		}

		code := strings.TrimSpace(record[codeIdx])
		if code == "" {
			continue
		}
		rows = append(rows, catalog.Row{Code: code, Name: strings.TrimSpace(record[nameIdx])})
	}
	return rows, nil
}

// LoadVacanciesJSON reads a saved API response. The file holds either one
// page object or an array of page objects.
func LoadVacanciesJSON(filename string) ([]vacancy.Raw, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	data = bytes.TrimPrefix(bytes.TrimSpace(data), utf8BOM)

	var pages []vacancy.Page
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &pages); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
		}
	} else {
		var page vacancy.Page
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
		}
		pages = append(pages, page)
	}

	var raws []vacancy.Raw
	for _, p := range pages {
		raws = append(raws, p.Results.Vacancies...)
	}
	return raws, nil
}
