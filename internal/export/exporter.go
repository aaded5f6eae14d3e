// Package export writes the enriched vacancy dataset as CSV or XLSX
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vacancy-codes/internal/vacancy"
)

const sheetName = "Vacancies"

// Headers lists the exported columns in order
var Headers = []string{
	"id", "ogrn", "job_name", "id_okpdtr", "address", "id_mrigo",
	"region_code", "salary_min", "salary_max", "currency", "employment",
	"schedule", "vac_url", "creation_date", "download_time", "is_closed", "closed_at",
}

func record(v vacancy.Vacancy) []string {
	closedAt := ""
	if v.ClosedAt != nil {
		closedAt = v.ClosedAt.Format(time.RFC3339)
	}
	return []string{
		v.ID, v.OGRN, v.JobName, deref(v.OkpdtrID), v.Address, deref(v.MrigoID),
		v.RegionCode, v.SalaryMin.String(), v.SalaryMax.String(), v.Currency, v.Employment,
		v.Schedule, v.URL, v.CreatedAt, v.DownloadedAt.Format(time.RFC3339),
		strconv.FormatBool(v.IsClosed), closedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ExportVacanciesCSV writes a header row and one row per vacancy
func ExportVacanciesCSV(w io.Writer, vacancies []vacancy.Vacancy) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, v := range vacancies {
		if err := writer.Write(record(v)); err != nil {
			return fmt.Errorf("failed to write vacancy %s: %w", v.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func buildWorkbook(vacancies []vacancy.Vacancy) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, header := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, v := range vacancies {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		values := record(v)
		row := make([]interface{}, len(values))
		for i, val := range values {
			row[i] = val
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write vacancy %s: %w", v.ID, err)
		}
	}

	for i := range Headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}
	return f, nil
}

// WriteVacanciesXLSX streams a workbook to w
func WriteVacanciesXLSX(w io.Writer, vacancies []vacancy.Vacancy) error {
	f, err := buildWorkbook(vacancies)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write Excel data: %w", err)
	}
	return nil
}

// ExportVacanciesXLSX saves a workbook at path
func ExportVacanciesXLSX(path string, vacancies []vacancy.Vacancy) error {
	f, err := buildWorkbook(vacancies)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}
