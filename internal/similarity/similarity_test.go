package similarity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJaro(t *testing.T) {
	j := NewJaro()
	assert.Equal(t, 1.0, j.Score("Kochenevsky", "Kochenevsky"))
	assert.InDelta(t, 0.944, j.Score("MARTHA", "MARHTA"), 0.001)
	assert.Equal(t, 0.0, j.Score("", "Kochenevsky"))
	assert.Equal(t, 0.0, j.Score("Kochenevsky", ""))
	assert.Equal(t, 0.0, j.Score("", ""))
	assert.Equal(t, 1.0, j.Max())
}

func TestJaroIsSymmetric(t *testing.T) {
	j := NewJaro()
	pairs := [][2]string{
		{"Коченевский", "Колыванский"},
		{"Бердск", "Бердский"},
		{"Искитим", "Искитимский район"},
	}
	for _, p := range pairs {
		assert.InDelta(t, j.Score(p[0], p[1]), j.Score(p[1], p[0]), 1e-12)
	}
}

func TestLevenshtein(t *testing.T) {
	l := Levenshtein{}
	assert.InDelta(t, 1-3.0/7.0, l.Score("kitten", "sitting"), 1e-9)
	assert.Equal(t, 1.0, l.Score("Обь", "Обь"))
	// rune based, not byte based
	assert.InDelta(t, 1-1.0/6.0, l.Score("Бердск", "Бердсk"), 1e-9)
	assert.Equal(t, 0.0, l.Score("", "Обь"))
}

func TestTokenSet(t *testing.T) {
	ts := TokenSet{}
	assert.Equal(t, 100.0, ts.Score("senior accountant category", "accountant"))
	assert.Equal(t, 100.0, ts.Score("accountant", "senior accountant category"))
	assert.Equal(t, 100.0, ts.Score("fuzzy was a bear", "fuzzy fuzzy was a bear"))
	assert.Equal(t, 0.0, ts.Score("", "accountant"))
	assert.Equal(t, 0.0, ts.Score("accountant", ""))

	partial := ts.Score("водитель погрузчика", "водитель автомобиля")
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, 100.0)
	assert.Equal(t, partial, float64(int(partial)), "token set scores are whole percentages")
}

func TestTokenSetReferenceScores(t *testing.T) {
	tests := []struct {
		query, candidate string
		want             float64
	}{
		{"ab", "abc", 80},
		{"повар", "повара", 91},
		{"Бердск", "бердск", 100},
		{"kitten", "sitting", 62},
		{"главный бухгалтер", "бухгалтер", 100},
		{"водитель погрузчика", "водитель автомобиля", 59},
	}
	ts := TokenSet{}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ts.Score(tt.query, tt.candidate), "%q vs %q", tt.query, tt.candidate)
	}
}

func TestTokenSetAcceptsInflectedOccupation(t *testing.T) {
	// one extra letter stays above an 85 occupation threshold
	assert.Greater(t, TokenSet{}.Score("повар", "повара"), 85.0)
}

func TestScoresStayInRange(t *testing.T) {
	inputs := []string{"", "а", "бухгалтер", "главный бухгалтер", "Kochenevsky", "инженер программист 1 категории"}
	for _, s := range []Scorer{NewJaro(), Levenshtein{}, TokenSet{}} {
		for _, a := range inputs {
			for _, b := range inputs {
				score := s.Score(a, b)
				assert.GreaterOrEqual(t, score, 0.0, "%s(%q,%q)", s.Name(), a, b)
				assert.LessOrEqual(t, score, s.Max(), "%s(%q,%q)", s.Name(), a, b)
			}
		}
	}
}

func TestByName(t *testing.T) {
	tests := []struct {
		name string
		want string
		max  float64
	}{
		{"jaro", MetricJaro, 1},
		{"Levenshtein", MetricLevenshtein, 1},
		{"token_set", MetricTokenSet, 100},
		{"tokenSetOverlap", MetricTokenSet, 100},
		{"editDistanceDerived", MetricJaro, 1},
	}
	for _, tt := range tests {
		s, err := ByName(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, s.Name())
		assert.Equal(t, tt.max, s.Max())
	}

	_, err := ByName("cosine")
	assert.True(t, errors.Is(err, ErrUnknownMetric))
}
