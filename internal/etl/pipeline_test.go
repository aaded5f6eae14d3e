package etl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vacancy-codes/internal/audit"
	"github.com/vacancy-codes/internal/catalog"
	"github.com/vacancy-codes/internal/config"
	"github.com/vacancy-codes/internal/db"
	"github.com/vacancy-codes/internal/match"
	"github.com/vacancy-codes/internal/normalize"
	"github.com/vacancy-codes/internal/store"
	"github.com/vacancy-codes/internal/vacancy"
)

type fixture struct {
	store   *store.Store
	tracker *audit.Tracker
}

func newFixture(t *testing.T, seed bool) fixture {
	t.Helper()
	ctx := context.Background()
	conn, err := db.NewConnection(ctx, config.Database{Driver: db.SQLite, DSN: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	st := store.New(conn, store.Options{})
	require.NoError(t, st.Migrate(ctx, false))

	if seed {
		require.NoError(t, st.ReplaceCatalog(ctx, normalize.Address, []catalog.Row{
			{Code: "50615", Name: "Коченевский район"},
			{Code: "50701", Name: "г. Бердск"},
			{Code: "50640", Name: "г. Искитим"},
		}))
		require.NoError(t, st.ReplaceCatalog(ctx, normalize.JobTitle, []catalog.Row{
			{Code: "16675", Name: "Повар"},
			{Code: "16472", Name: "Пекарь"},
			{Code: "18560", Name: "Слесарь-сантехник"},
		}))
	}
	return fixture{store: st, tracker: audit.NewTracker(conn)}
}

func raw(id, ogrn, address, job string) vacancy.Raw {
	body := fmt.Sprintf(`{"vacancy":{"id":%q,"company":{"ogrn":%q,"name":"ООО"},"job-name":%q,
		"addresses":{"address":[{"location":%q}]}}}`, id, ogrn, job, address)
	var r vacancy.Raw
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		panic(err)
	}
	return r
}

func testRaws() []vacancy.Raw {
	return []vacancy.Raw{
		raw("v1", "1025400000001", "Новосибирская область, г. Бердск, ул. Ленина, 5", "Пекарь"),
		raw("v2", "1025400000001", "Новосибирская область, Коченевский район, р.п. Коченево", "Повар"),
		raw("v3", "1035400000002", "Москва, Тверская улица", "Космонавт"),
		raw("v4", "", "Новосибирская область, г. Искитим", "Повар"),
	}
}

func TestPipelineRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	p := NewPipeline(f.store, f.tracker, config.DefaultMatching(), zaptest.NewLogger(t))

	summary, err := p.Run(ctx, false, "test", testRaws())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Fetched)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Companies)
	assert.Equal(t, 3, summary.Vacancies)
	assert.Equal(t, 3, summary.Outcome.Vacancies.Inserted)
	assert.Equal(t, 2, summary.Outcome.Companies.Inserted)
	assert.NotEmpty(t, summary.RunID)

	stored, err := f.store.ListVacancies(ctx, true)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	byID := map[string]vacancy.Vacancy{}
	for _, v := range stored {
		byID[v.ID] = v
	}
	require.NotNil(t, byID["v1"].MrigoID)
	assert.Equal(t, "50701", *byID["v1"].MrigoID)
	require.NotNil(t, byID["v1"].OkpdtrID)
	assert.Equal(t, "16472", *byID["v1"].OkpdtrID)
	require.NotNil(t, byID["v2"].MrigoID)
	assert.Equal(t, "50615", *byID["v2"].MrigoID)
	assert.Nil(t, byID["v3"].OkpdtrID)

	run, err := f.tracker.GetRun(ctx, summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, 3, run.VacanciesInserted)
	assert.Equal(t, summary.Areas.Accepted, run.AreasAccepted)

	// rerun with one vacancy gone
	summary, err = p.Run(ctx, false, "test", testRaws()[:2])
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Outcome.Vacancies.Inserted)
	assert.Equal(t, 1, summary.Outcome.Vacancies.Closed)
	assert.Equal(t, 1, summary.Outcome.Companies.Closed)
}

func TestPipelineEmptyCatalogAborts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	p := NewPipeline(f.store, nil, config.DefaultMatching(), zaptest.NewLogger(t))

	_, err := p.Run(ctx, false, "test", testRaws())
	require.Error(t, err)
	assert.True(t, errors.Is(err, match.ErrEmptyCatalog))

	stored, err := f.store.Persisted(ctx, store.Vacancies)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestPipelineCancelledWritesNothing(t *testing.T) {
	f := newFixture(t, true)
	p := NewPipeline(f.store, f.tracker, config.DefaultMatching(), zaptest.NewLogger(t))

	raws := make([]vacancy.Raw, 0, 500)
	for i := 0; i < 500; i++ {
		raws = append(raws, raw(fmt.Sprintf("v%d", i), "1025400000001", "г. Бердск", "Повар"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx, false, "test", raws)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	stored, err := f.store.Persisted(context.Background(), store.Vacancies)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestPipelineDuplicateVacancyRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	p := NewPipeline(f.store, nil, config.DefaultMatching(), zaptest.NewLogger(t))

	raws := testRaws()
	raws = append(raws, raws[0])
	_, err := p.Run(ctx, false, "test", raws)
	require.Error(t, err)
}
