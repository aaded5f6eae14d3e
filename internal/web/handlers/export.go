package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/vacancy-codes/internal/export"
	"github.com/vacancy-codes/internal/vacancy"
)

// VacancyLister reads stored vacancies
type VacancyLister interface {
	ListVacancies(ctx context.Context, includeClosed bool) ([]vacancy.Vacancy, error)
}

// ExportHandler handles data export endpoints
type ExportHandler struct {
	Store  VacancyLister
	Config *Config
	Logger *zap.Logger
}

// ExportData streams the enriched vacancies as CSV (default) or XLSX.
// Query parameters: format=csv|xlsx, closed=true to include closed vacancies.
func (h *ExportHandler) ExportData(w http.ResponseWriter, r *http.Request) {
	if !h.Config.Features.ExportEnabled {
		writeError(w, http.StatusForbidden, "Export feature disabled")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		writeError(w, http.StatusBadRequest, "Unsupported format: "+format)
		return
	}
	includeClosed, _ := strconv.ParseBool(r.URL.Query().Get("closed"))

	vacancies, err := h.Store.ListVacancies(r.Context(), includeClosed)
	if err != nil {
		h.Logger.Error("export query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	switch format {
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="vacancies.xlsx"`)
		err = export.WriteVacanciesXLSX(w, vacancies)
	default:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="vacancies.csv"`)
		err = export.ExportVacanciesCSV(w, vacancies)
	}
	if err != nil {
		// headers are already sent
		h.Logger.Error("export write failed", zap.String("format", format), zap.Error(err))
	}
}
