package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/vacancy-codes/internal/similarity"
)

// ErrInvalidThreshold is returned when a threshold lies outside the metric scale
var ErrInvalidThreshold = errors.New("invalid similarity threshold")

// Region prefix stripped from Novosibirsk oblast vacancy addresses
const DefaultRegionPrefix = "Новосибирская область, "

// KindMatching configures matching for one entity kind
type KindMatching struct {
	Threshold        float64  `mapstructure:"threshold"`
	NoiseMarkers     []string `mapstructure:"noise_markers"`
	Prefix           string   `mapstructure:"prefix"`
	ExactContainment bool     `mapstructure:"exact_containment"`
}

// Matching is the full matching configuration of one run
type Matching struct {
	Metric      string       `mapstructure:"metric"`
	Areas       KindMatching `mapstructure:"areas"`
	Occupations KindMatching `mapstructure:"occupations"`
	Workers     int          `mapstructure:"workers"`
}

func setMatchingDefaults(v *viper.Viper) {
	v.SetDefault("metric", similarity.MetricJaro)
	v.SetDefault("workers", 0)

	v.SetDefault("areas.threshold", 0.75)
	v.SetDefault("areas.prefix", DefaultRegionPrefix)
	v.SetDefault("areas.exact_containment", true)
	// markers match any letter case; addresses themselves keep theirs
	v.SetDefault("areas.noise_markers", []string{
		"район", "р-н", "ул.", "улица", "пр-т", "проспект", "пер.", "переулок",
		"мкр.", "микрорайон", "шоссе", "пл.", "площадь",
	})

	v.SetDefault("occupations.threshold", 0.85)
	v.SetDefault("occupations.prefix", "")
	v.SetDefault("occupations.exact_containment", false)
	v.SetDefault("occupations.noise_markers", []string{"/", ";", "вахтовым методом", "вахта"})
}

// LoadMatching reads matching settings from defaults, an optional YAML file
// and MATCHER_* environment variables, in increasing priority.
// MATCHER_AREAS_THRESHOLD overrides areas.threshold and so on.
func LoadMatching(path string) (*Matching, error) {
	v := viper.New()
	setMatchingDefaults(v)

	v.SetEnvPrefix("MATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read matching config %s: %w", path, err)
		}
	}

	var m Matching
	if err := v.Unmarshal(&m); err != nil {
		return nil, fmt.Errorf("failed to decode matching config: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// DefaultMatching returns the built-in settings without file or environment overrides
func DefaultMatching() *Matching {
	v := viper.New()
	setMatchingDefaults(v)
	var m Matching
	if err := v.Unmarshal(&m); err != nil {
		panic(fmt.Sprintf("config: bad matching defaults: %v", err))
	}
	return &m
}

// Scorer returns the configured similarity metric
func (m *Matching) Scorer() (similarity.Scorer, error) {
	return similarity.ByName(m.Metric)
}

// Validate checks the metric name and that both thresholds are on its scale
func (m *Matching) Validate() error {
	scorer, err := m.Scorer()
	if err != nil {
		return err
	}
	check := func(kind string, t float64) error {
		if t < 0 || t > scorer.Max() {
			return fmt.Errorf("%w: %s threshold %v outside [0, %v] of metric %s",
				ErrInvalidThreshold, kind, t, scorer.Max(), scorer.Name())
		}
		return nil
	}
	if err := check("areas", m.Areas.Threshold); err != nil {
		return err
	}
	return check("occupations", m.Occupations.Threshold)
}
