package etl

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vacancy-codes/internal/audit"
	"github.com/vacancy-codes/internal/catalog"
	"github.com/vacancy-codes/internal/config"
	"github.com/vacancy-codes/internal/debug"
	"github.com/vacancy-codes/internal/match"
	"github.com/vacancy-codes/internal/matcher"
	"github.com/vacancy-codes/internal/normalize"
	"github.com/vacancy-codes/internal/store"
	"github.com/vacancy-codes/internal/vacancy"
)

// CatalogSource supplies catalog rows in priority order
type CatalogSource interface {
	LoadCatalog(ctx context.Context, kind normalize.Kind) ([]catalog.Row, error)
}

// Reconciler applies a resolved batch to persistent storage
type Reconciler interface {
	CatalogSource
	Reconcile(ctx context.Context, companies []vacancy.Company, vacancies []vacancy.Vacancy, now time.Time) (*store.Outcome, error)
}

// RunRecorder persists run summaries
type RunRecorder interface {
	RecordRun(ctx context.Context, localDebug bool, run audit.Run) (string, error)
}

// Pipeline splits raw vacancies, resolves area and occupation codes, and
// reconciles the result into the store
type Pipeline struct {
	store    Reconciler
	recorder RunRecorder
	cfg      *config.Matching
	splitter *vacancy.Splitter
	logger   *zap.Logger
	now      func() time.Time
}

// NewPipeline creates a new ETL pipeline. recorder may be nil.
func NewPipeline(st Reconciler, recorder RunRecorder, cfg *config.Matching, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:    st,
		recorder: recorder,
		cfg:      cfg,
		splitter: vacancy.NewSplitter(),
		logger:   logger.Named("etl"),
		now:      time.Now,
	}
}

// Summary reports what one run did
type Summary struct {
	RunID       string
	Source      string
	Fetched     int
	Skipped     int
	Companies   int
	Vacancies   int
	Areas       *match.BatchStats
	Occupations *match.BatchStats
	Outcome     *store.Outcome
	Duration    time.Duration
}

// BuildMatcher prepares the matcher of one kind from catalog rows and the
// matching configuration
func BuildMatcher(kind normalize.Kind, rows []catalog.Row, cfg *config.Matching) (*match.Matcher, error) {
	kc := cfg.Areas
	if kind == normalize.JobTitle {
		kc = cfg.Occupations
	}

	scorer, err := cfg.Scorer()
	if err != nil {
		return nil, err
	}
	n := normalize.New(kind, kc.NoiseMarkers, kc.Prefix)
	cat, err := catalog.New(kind, rows, n)
	if err != nil {
		return nil, fmt.Errorf("%s catalog: %w", kind, err)
	}
	return match.NewMatcher(n, cat, scorer, match.Options{
		Threshold:        kc.Threshold,
		ExactContainment: kc.ExactContainment,
	})
}

// LoadMatchers loads both catalogs and builds their matchers
func LoadMatchers(ctx context.Context, src CatalogSource, cfg *config.Matching) (areas, occupations *match.Matcher, err error) {
	areaRows, err := src.LoadCatalog(ctx, normalize.Address)
	if err != nil {
		return nil, nil, err
	}
	if areas, err = BuildMatcher(normalize.Address, areaRows, cfg); err != nil {
		return nil, nil, err
	}

	occupationRows, err := src.LoadCatalog(ctx, normalize.JobTitle)
	if err != nil {
		return nil, nil, err
	}
	if occupations, err = BuildMatcher(normalize.JobTitle, occupationRows, cfg); err != nil {
		return nil, nil, err
	}
	return areas, occupations, nil
}

// Run processes one download. Matching runs to completion before anything is
// written; a matching failure or cancellation leaves the store untouched.
func (p *Pipeline) Run(ctx context.Context, localDebug bool, source string, raws []vacancy.Raw) (*Summary, error) {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	started := p.now()
	batch := p.splitter.Split(raws, started)
	debug.DebugOutput(localDebug, "Split %d raw records into %d companies and %d vacancies (%d skipped)",
		len(raws), len(batch.Companies), len(batch.Vacancies), batch.Skipped)

	areaMatcher, occupationMatcher, err := LoadMatchers(ctx, p.store, p.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare matchers: %w", err)
	}

	addresses := make([]string, len(batch.Vacancies))
	titles := make([]string, len(batch.Vacancies))
	for i, v := range batch.Vacancies {
		addresses[i] = v.Address
		titles[i] = v.JobName
	}

	var (
		areaResults, occupationResults []match.Result
		areaStats, occupationStats     *match.BatchStats
	)
	resolved := debug.DebugTiming(localDebug, fmt.Sprintf("resolving %d vacancies", len(batch.Vacancies)))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		areaResults, areaStats, err = matcher.NewBatchProcessor(areaMatcher, p.cfg.Workers).Resolve(gctx, localDebug, addresses)
		return err
	})
	g.Go(func() error {
		var err error
		occupationResults, occupationStats, err = matcher.NewBatchProcessor(occupationMatcher, p.cfg.Workers).Resolve(gctx, localDebug, titles)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("matching aborted: %w", err)
	}
	resolved()

	for i := range batch.Vacancies {
		batch.Vacancies[i].Resolve(areaResults[i].Code, occupationResults[i].Code)
	}

	outcome, err := p.store.Reconcile(ctx, batch.Companies, batch.Vacancies, started)
	if err != nil {
		return nil, fmt.Errorf("reconciliation failed: %w", err)
	}

	summary := &Summary{
		Source:      source,
		Fetched:     len(raws),
		Skipped:     batch.Skipped,
		Companies:   len(batch.Companies),
		Vacancies:   len(batch.Vacancies),
		Areas:       areaStats,
		Occupations: occupationStats,
		Outcome:     outcome,
		Duration:    p.now().Sub(started),
	}

	if p.recorder != nil {
		id, err := p.recorder.RecordRun(ctx, localDebug, audit.Run{
			StartedAt:           started,
			FinishedAt:          started.Add(summary.Duration),
			Source:              source,
			Metric:              areaMatcher.Scorer().Name(),
			Fetched:             summary.Fetched,
			Skipped:             summary.Skipped,
			AreasAccepted:       areaStats.Accepted,
			OccupationsAccepted: occupationStats.Accepted,
			CompaniesInserted:   outcome.Companies.Inserted,
			CompaniesClosed:     outcome.Companies.Closed,
			VacanciesInserted:   outcome.Vacancies.Inserted,
			VacanciesClosed:     outcome.Vacancies.Closed,
		})
		if err != nil {
			// data is already committed
			p.logger.Warn("failed to record run", zap.Error(err))
		}
		summary.RunID = id
	}

	p.logger.Info("run complete",
		zap.String("run_id", summary.RunID),
		zap.String("source", source),
		zap.Int("fetched", summary.Fetched),
		zap.Int("vacancies", summary.Vacancies),
		zap.Float64("area_match_rate", areaStats.MatchRate()),
		zap.Float64("occupation_match_rate", occupationStats.MatchRate()),
		zap.Int("vacancies_inserted", outcome.Vacancies.Inserted),
		zap.Int("vacancies_closed", outcome.Vacancies.Closed),
		zap.Duration("took", summary.Duration))

	return summary, nil
}
