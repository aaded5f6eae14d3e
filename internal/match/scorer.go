package match

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vacancy-codes/internal/catalog"
	"github.com/vacancy-codes/internal/normalize"
	"github.com/vacancy-codes/internal/similarity"
)

var matchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vacancy_codes",
	Name:      "matches_total",
	Help:      "Resolved queries by entity kind and outcome.",
}, []string{"kind", "outcome"})

// SelectBest scores query against every catalog entry in order and returns
// the first entry holding the maximum score. The result is accepted only
// when that score is strictly greater than opts.Threshold.
func SelectBest(query string, cat *catalog.Catalog, scorer similarity.Scorer, opts Options) (Result, error) {
	if cat.Len() == 0 {
		return Result{}, ErrEmptyCatalog
	}

	res := Result{Query: query}
	if query == "" {
		return res, nil
	}

	best, bestScore := -1, -1.0
	saturated := scorer.Max()
	for i := 0; i < cat.Len(); i++ {
		entry := cat.Entry(i)

		var score float64
		if opts.ExactContainment && normalize.ContainsPhrase(query, entry.Normalized) {
			score = saturated
		} else {
			score = scorer.Score(query, entry.Normalized)
		}

		if score > bestScore {
			best, bestScore = i, score
			if score >= saturated {
				// nothing later can beat it under strict comparison
				break
			}
		}
	}

	res.Score = bestScore
	if bestScore > opts.Threshold {
		entry := cat.Entry(best)
		res.Code = entry.Code
		res.Name = entry.Name
		res.Accepted = true
	}
	return res, nil
}

// Matcher resolves raw text of one entity kind against one catalog
type Matcher struct {
	normalizer *normalize.Normalizer
	catalog    *catalog.Catalog
	scorer     similarity.Scorer
	opts       Options
}

// NewMatcher validates the catalog and threshold once so that Match cannot fail
func NewMatcher(n *normalize.Normalizer, cat *catalog.Catalog, scorer similarity.Scorer, opts Options) (*Matcher, error) {
	if cat.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", n.Kind(), ErrEmptyCatalog)
	}
	if opts.Threshold < 0 || opts.Threshold > scorer.Max() {
		return nil, fmt.Errorf("%w: %v not in [0, %v] for %s", ErrThresholdRange, opts.Threshold, scorer.Max(), scorer.Name())
	}
	return &Matcher{normalizer: n, catalog: cat, scorer: scorer, opts: opts}, nil
}

// Kind returns the entity kind handled by the matcher
func (m *Matcher) Kind() normalize.Kind {
	return m.normalizer.Kind()
}

// Catalog returns the catalog the matcher scores against
func (m *Matcher) Catalog() *catalog.Catalog {
	return m.catalog
}

// Options returns the gate settings
func (m *Matcher) Options() Options {
	return m.opts
}

// Scorer returns the metric in use
func (m *Matcher) Scorer() similarity.Scorer {
	return m.scorer
}

// Match normalizes raw and selects the best catalog entry
func (m *Matcher) Match(raw string) Result {
	// catalog emptiness was checked in NewMatcher
	res, _ := SelectBest(m.normalizer.Normalize(raw), m.catalog, m.scorer, m.opts)

	outcome := "unmatched"
	if res.Accepted {
		outcome = "accepted"
	}
	matchesTotal.WithLabelValues(string(m.Kind()), outcome).Inc()
	return res
}
