// Package similarity provides the string metrics used to score a normalized
// query against normalized catalog names.
package similarity

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Metric names accepted in configuration
const (
	MetricJaro        = "jaro"
	MetricLevenshtein = "levenshtein"
	MetricTokenSet    = "token_set"
)

// ErrUnknownMetric is returned by ByName for an unsupported metric name
var ErrUnknownMetric = errors.New("unknown similarity metric")

// Scorer scores a query against a candidate. Callers always pass the query
// first; metrics are not required to be symmetric. Scores lie in [0, Max()].
type Scorer interface {
	Score(query, candidate string) float64
	Max() float64
	Name() string
}

// ByName returns the scorer registered under name
func ByName(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case MetricJaro, "edit_distance", "editdistancederived":
		return NewJaro(), nil
	case MetricLevenshtein:
		return Levenshtein{}, nil
	case MetricTokenSet, "token_set_ratio", "tokensetoverlap":
		return TokenSet{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// Jaro is the alignment-based Jaro similarity in [0, 1]
type Jaro struct {
	metric *metrics.Jaro
}

// NewJaro creates a case-sensitive Jaro scorer
func NewJaro() Jaro {
	m := metrics.NewJaro()
	m.CaseSensitive = true
	return Jaro{metric: m}
}

func (j Jaro) Score(query, candidate string) float64 {
	if query == "" || candidate == "" {
		return 0
	}
	return strutil.Similarity(query, candidate, j.metric)
}

func (Jaro) Max() float64 { return 1 }
func (Jaro) Name() string { return MetricJaro }

// Levenshtein is 1 - distance/longer length, computed over runes
type Levenshtein struct{}

func (Levenshtein) Score(query, candidate string) float64 {
	return editRatio(query, candidate)
}

func (Levenshtein) Max() float64 { return 1 }
func (Levenshtein) Name() string { return MetricLevenshtein }

// TokenSet compares the sorted token intersection and remainders of both
// case-folded strings and reports the best InDel ratio as an integer
// percentage in [0, 100], the scale of fuzzywuzzy's token_set_ratio.
// Containment of one token set in the other scores 100.
type TokenSet struct{}

// indel counts a substitution as a deletion plus an insertion
var indel = &metrics.Levenshtein{
	CaseSensitive: true,
	InsertCost:    1,
	DeleteCost:    1,
	ReplaceCost:   2,
}

func (TokenSet) Score(query, candidate string) float64 {
	// a Caser holds state, so each call gets its own
	fold := cases.Lower(language.Und)
	a, b := tokenSet(fold.String(query)), tokenSet(fold.String(candidate))
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for tok := range a {
		if b[tok] {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range b {
		if !a[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	t0 := strings.Join(common, " ")
	t1 := strings.TrimSpace(t0 + " " + strings.Join(onlyA, " "))
	t2 := strings.TrimSpace(t0 + " " + strings.Join(onlyB, " "))

	best := percent(t0, t1)
	if r := percent(t0, t2); r > best {
		best = r
	}
	if r := percent(t1, t2); r > best {
		best = r
	}
	return best
}

func (TokenSet) Max() float64 { return 100 }
func (TokenSet) Name() string { return MetricTokenSet }

// percent is 100 * (la + lb - d) / (la + lb) with d the InDel distance,
// rounded half to even
func percent(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	total := float64(la + lb)
	return math.RoundToEven(100 * (total - float64(indel.Distance(a, b))) / total)
}

func editRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	longer := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longer {
		longer = n
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longer)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}
