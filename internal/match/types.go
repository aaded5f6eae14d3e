package match

import (
	"errors"
	"time"

	"github.com/vacancy-codes/internal/normalize"
)

// ErrEmptyCatalog signals a missing or unusable catalog. It is a
// configuration error and is kept apart from "nothing matched".
var ErrEmptyCatalog = errors.New("catalog has no usable entries")

// ErrThresholdRange is returned when a threshold lies outside the scorer's scale
var ErrThresholdRange = errors.New("threshold outside metric range")

// Result is the outcome of resolving one query against a catalog
type Result struct {
	QueryIndex int     // position of the query in its batch
	Query      string  // normalized query text
	Code       string  // matched catalog code, empty unless Accepted
	Name       string  // matched catalog name, empty unless Accepted
	Score      float64 // best raw score, reported even when rejected
	Accepted   bool
}

// Options gate a match
type Options struct {
	// Threshold must be strictly exceeded, in the scorer's units
	Threshold float64
	// ExactContainment saturates the score of a catalog entry whose normalized
	// name occurs as whole tokens inside the query
	ExactContainment bool
}

// BatchStats summarizes one batch resolution
type BatchStats struct {
	Kind           normalize.Kind
	Total          int
	Accepted       int
	Unmatched      int
	AverageScore   float64 // mean score of accepted results
	ProcessingTime time.Duration
}

// MatchRate returns the accepted share of the batch in percent
func (s *BatchStats) MatchRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Accepted) / float64(s.Total) * 100
}
