package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vacancy-codes/internal/match"
	"github.com/vacancy-codes/internal/normalize"
)

// Config carries the feature toggles handlers need
type Config struct {
	Features struct {
		ExportEnabled bool `json:"export_enabled"`
	} `json:"features"`
}

// Pinger reports database reachability
type Pinger interface {
	PingContext(ctx context.Context) error
}

// APIHandler serves matching, catalog and health endpoints
type APIHandler struct {
	DB          Pinger
	Areas       *match.Matcher
	Occupations *match.Matcher
}

// MatchRequest asks for one string to be resolved
type MatchRequest struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// MatchResponse is the outcome of a match request
type MatchResponse struct {
	Kind       normalize.Kind `json:"kind"`
	Text       string         `json:"text"`
	Normalized string         `json:"normalized"`
	Code       string         `json:"code,omitempty"`
	Name       string         `json:"name,omitempty"`
	Score      float64        `json:"score"`
	Accepted   bool           `json:"accepted"`
	Metric     string         `json:"metric"`
	Threshold  float64        `json:"threshold"`
}

// CatalogEntry is one catalog row as served by the API
type CatalogEntry struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Normalized string `json:"normalized"`
}

// CatalogResponse lists a catalog in priority order
type CatalogResponse struct {
	Kind    normalize.Kind `json:"kind"`
	Count   int            `json:"count"`
	Skipped int            `json:"skipped"`
	Entries []CatalogEntry `json:"entries"`
}

func (h *APIHandler) matcherFor(kind string) (*match.Matcher, bool) {
	k, err := normalize.ParseKind(kind)
	if err != nil {
		return nil, false
	}
	if k == normalize.Address {
		return h.Areas, h.Areas != nil
	}
	return h.Occupations, h.Occupations != nil
}

// Match resolves the posted text against the catalog of its kind
func (h *APIHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON request")
		return
	}

	m, ok := h.matcherFor(req.Kind)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown kind: "+req.Kind)
		return
	}

	res := m.Match(req.Text)
	writeJSON(w, http.StatusOK, MatchResponse{
		Kind:       m.Kind(),
		Text:       req.Text,
		Normalized: res.Query,
		Code:       res.Code,
		Name:       res.Name,
		Score:      res.Score,
		Accepted:   res.Accepted,
		Metric:     m.Scorer().Name(),
		Threshold:  m.Options().Threshold,
	})
}

// GetCatalog lists the loaded catalog of one kind
func (h *APIHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	m, ok := h.matcherFor(mux.Vars(r)["kind"])
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown catalog")
		return
	}

	cat := m.Catalog()
	resp := CatalogResponse{Kind: cat.Kind(), Count: cat.Len(), Skipped: cat.Skipped()}
	for _, e := range cat.Entries() {
		resp.Entries = append(resp.Entries, CatalogEntry{Code: e.Code, Name: e.Name, Normalized: e.Normalized})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health reports whether the database answers
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "ok"}
	code := http.StatusOK
	if h.DB != nil {
		if err := h.DB.PingContext(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
