package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vacancy-codes/internal/vacancy"
)

func sampleVacancies() []vacancy.Vacancy {
	downloaded := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	closed := downloaded.Add(48 * time.Hour)

	v1 := vacancy.Vacancy{ID: "v1", OGRN: "1025400000001", JobName: "Пекарь", Address: "г. Бердск, ул. Ленина, 5", DownloadedAt: downloaded}
	v1.Resolve("50701", "16472")
	v2 := vacancy.Vacancy{ID: "v2", OGRN: "1035400000002", JobName: "Космонавт", DownloadedAt: downloaded, IsClosed: true, ClosedAt: &closed}
	return []vacancy.Vacancy{v1, v2}
}

func TestExportVacanciesCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportVacanciesCSV(&buf, sampleVacancies()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Headers, rows[0])

	assert.Equal(t, "v1", rows[1][0])
	assert.Equal(t, "16472", rows[1][3])
	assert.Equal(t, "г. Бердск, ул. Ленина, 5", rows[1][4])
	assert.Equal(t, "50701", rows[1][5])
	assert.Equal(t, "false", rows[1][15])
	assert.Empty(t, rows[1][16])

	assert.Empty(t, rows[2][3])
	assert.Empty(t, rows[2][5])
	assert.Equal(t, "true", rows[2][15])
	assert.Equal(t, "2024-05-04T08:00:00Z", rows[2][16])
}

func TestExportVacanciesXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vacancies.xlsx")
	require.NoError(t, ExportVacanciesXLSX(path, sampleVacancies()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, "50701", rows[1][5])
}

func TestWriteVacanciesXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteVacanciesXLSX(&buf, sampleVacancies()[:1]))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
