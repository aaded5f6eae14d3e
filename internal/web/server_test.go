package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vacancy-codes/internal/audit"
	"github.com/vacancy-codes/internal/catalog"
	"github.com/vacancy-codes/internal/config"
	"github.com/vacancy-codes/internal/db"
	"github.com/vacancy-codes/internal/etl"
	"github.com/vacancy-codes/internal/normalize"
	"github.com/vacancy-codes/internal/store"
	"github.com/vacancy-codes/internal/vacancy"
	"github.com/vacancy-codes/internal/web/handlers"
)

func newTestServer(t *testing.T, cfg *Config) http.Handler {
	t.Helper()
	ctx := context.Background()

	conn, err := db.NewConnection(ctx, config.Database{Driver: db.SQLite, DSN: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	st := store.New(conn, store.Options{})
	require.NoError(t, st.Migrate(ctx, false))
	require.NoError(t, st.ReplaceCatalog(ctx, normalize.Address, []catalog.Row{
		{Code: "50701", Name: "г. Бердск"},
		{Code: "50615", Name: "Коченевский район"},
	}))
	require.NoError(t, st.ReplaceCatalog(ctx, normalize.JobTitle, []catalog.Row{
		{Code: "16675", Name: "Повар"},
	}))

	mrigo := "50701"
	_, err = st.Reconcile(ctx, []vacancy.Company{{OGRN: "1"}},
		[]vacancy.Vacancy{{ID: "v1", OGRN: "1", JobName: "Повар", DownloadedAt: time.Now(), MrigoID: &mrigo}}, time.Now())
	require.NoError(t, err)

	tracker := audit.NewTracker(conn)
	_, err = tracker.RecordRun(ctx, false, audit.Run{ID: "run-1", StartedAt: time.Now(), FinishedAt: time.Now()})
	require.NoError(t, err)

	areas, occupations, err := etl.LoadMatchers(ctx, st, config.DefaultMatching())
	require.NoError(t, err)

	srv, err := NewServer(cfg, Deps{
		DB:          conn.DB,
		Areas:       areas,
		Occupations: occupations,
		Vacancies:   st,
		Runs:        tracker,
		Logger:      zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return srv.Handler()
}

func do(h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMatchEndpoint(t *testing.T) {
	h := newTestServer(t, DefaultConfig())

	rec := do(h, http.MethodPost, "/api/match",
		`{"kind":"address","text":"Новосибирская область, г. Бердск, ул. Ленина, 5"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.MatchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Accepted)
	assert.Equal(t, "50701", resp.Code)
	assert.Equal(t, "Бердск", resp.Normalized)
	assert.Equal(t, "jaro", resp.Metric)
	assert.Equal(t, 0.75, resp.Threshold)

	rec = do(h, http.MethodPost, "/api/match", `{"kind":"occupation","text":"Космонавт"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = handlers.MatchResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Accepted)
	assert.Empty(t, resp.Code)

	rec = do(h, http.MethodPost, "/api/match", `{"kind":"planet","text":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/api/match", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogEndpoint(t *testing.T) {
	h := newTestServer(t, DefaultConfig())

	rec := do(h, http.MethodGet, "/api/catalogs/areas", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.CatalogResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, normalize.Address, resp.Kind)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "50701", resp.Entries[0].Code)
	assert.Equal(t, "Бердск", resp.Entries[0].Normalized)

	rec = do(h, http.MethodGet, "/api/catalogs/planets", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t, DefaultConfig())

	rec := do(h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	do(h, http.MethodPost, "/api/match", `{"kind":"address","text":"г. Бердск"}`)
	rec = do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vacancy_codes_matches_total")
}

func TestRunsAndExport(t *testing.T) {
	h := newTestServer(t, DefaultConfig())

	rec := do(h, http.MethodGet, "/api/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []audit.Run
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/runs/run-1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/api/runs/nope", "").Code)

	rec = do(h, http.MethodGet, "/api/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 2)

	rec = do(h, http.MethodGet, "/api/export?format=xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/export?format=pdf", "").Code)
}

func TestAuthProtectsAPI(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = "secret"
	h := newTestServer(t, cfg)

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/api/runs", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/runs", "", "X-API-Key", "secret").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/health", "").Code)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("WEB_PORT", "9090")
	t.Setenv("WEB_API_KEY", "k")
	t.Setenv("WEB_EXPORT_ENABLED", "false")

	cfg := LoadConfig()
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Auth.Enabled)
	assert.False(t, cfg.Features.ExportEnabled)
}

func TestNewServerRequiresMatchers(t *testing.T) {
	_, err := NewServer(DefaultConfig(), Deps{})
	assert.Error(t, err)
}
