package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vacancy-codes/internal/audit"
)

// RunSource reads recorded pipeline runs
type RunSource interface {
	GetRun(ctx context.Context, id string) (*audit.Run, error)
	RecentRuns(ctx context.Context, limit int) ([]audit.Run, error)
}

// RunsHandler serves the pipeline run history
type RunsHandler struct {
	Runs   RunSource
	Logger *zap.Logger
}

// ListRuns returns the most recent runs, newest first
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	runs, err := h.Runs.RecentRuns(r.Context(), limit)
	if err != nil {
		h.Logger.Error("list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if runs == nil {
		runs = []audit.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun returns one run
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Runs.GetRun(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, audit.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.Logger.Error("get run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, run)
}
