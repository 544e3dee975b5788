package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// MissingPolicy controls what a normalizer returns when its input classifies
// as missing. Most factors propagate; thermal optimization defaults to zero
// instead, and the policy parameter keeps that asymmetry visible rather than
// buried in the normalizer.
type MissingPolicy int

const (
	// PropagateMissing yields a missing sub-score for missing input.
	PropagateMissing MissingPolicy = iota
	// ZeroWhenMissing yields a present zero for missing input.
	ZeroWhenMissing
)

// ThermalWeights are the fixed weights of the thermal suitability formula.
type ThermalWeights struct {
	COD             float64 `yaml:"cod" mapstructure:"cod"`
	Market          float64 `yaml:"market" mapstructure:"market"`
	Transactability float64 `yaml:"transactability" mapstructure:"transactability"`
	ThermalOpt      float64 `yaml:"thermal_opt" mapstructure:"thermal_opt"`
	Environmental   float64 `yaml:"environmental" mapstructure:"environmental"`
}

// RedevWeights are the fixed weights of the redevelopment formula.
type RedevWeights struct {
	Market          float64 `yaml:"market" mapstructure:"market"`
	Infrastructure  float64 `yaml:"infrastructure" mapstructure:"infrastructure"`
	Interconnection float64 `yaml:"interconnection" mapstructure:"interconnection"`
}

// MarketTiers maps ISO/market identifiers to score tiers. Matching is
// case-insensitive on the trimmed identifier; an identifier in no tier
// scores the present default of 1.
type MarketTiers struct {
	Premium []string `yaml:"premium" mapstructure:"premium"` // -> 3
	Good    []string `yaml:"good" mapstructure:"good"`       // -> 2
	Neutral []string `yaml:"neutral" mapstructure:"neutral"` // -> 1
	Poor    []string `yaml:"poor" mapstructure:"poor"`       // -> 0
}

// FormulaConfig holds every constant of the scoring formulas. It is passed
// by value into the engine and never mutated, so alternate formula versions
// can coexist for validation against spreadsheet output.
type FormulaConfig struct {
	Thermal ThermalWeights `yaml:"thermal" mapstructure:"thermal"`
	Redev   RedevWeights   `yaml:"redev" mapstructure:"redev"`
	Markets MarketTiers    `yaml:"markets" mapstructure:"markets"`

	// ThermalOptFloor is applied to the thermal-opt sub-score at combination
	// time, independently of the normalizer's own zero default.
	ThermalOptFloor     float64       `yaml:"thermal_opt_floor" mapstructure:"thermal_opt_floor"`
	ThermalOptOnMissing MissingPolicy `yaml:"-" mapstructure:"-"`

	// RepowerMultiplier scales the redevelopment score when the co-locate
	// flag equals RepowerFlag (trimmed, case-insensitive).
	RepowerMultiplier float64 `yaml:"repower_multiplier" mapstructure:"repower_multiplier"`
	RepowerFlag       string  `yaml:"repower_flag" mapstructure:"repower_flag"`

	// Rating thresholds on the overall score.
	StrongThreshold   float64 `yaml:"strong_threshold" mapstructure:"strong_threshold"`
	ModerateThreshold float64 `yaml:"moderate_threshold" mapstructure:"moderate_threshold"`
}

// DefaultFormulaConfig returns the production formula constants. Each
// formula's weights sum to 1.
func DefaultFormulaConfig() FormulaConfig {
	return FormulaConfig{
		Thermal: ThermalWeights{
			COD:             0.20,
			Market:          0.30,
			Transactability: 0.30,
			ThermalOpt:      0.05,
			Environmental:   0.15,
		},
		Redev: RedevWeights{
			Market:          0.40,
			Infrastructure:  0.30,
			Interconnection: 0.30,
		},
		Markets: MarketTiers{
			Premium: []string{"PJM", "ERCOT"},
			Good:    []string{"MISO", "NYISO"},
			Neutral: []string{"CAISO", "ISO-NE", "ISONE"},
			Poor:    []string{"SPP", "SERC"},
		},
		ThermalOptFloor:     1,
		ThermalOptOnMissing: ZeroWhenMissing,
		RepowerMultiplier:   0.75,
		RepowerFlag:         "repower",
		StrongThreshold:     4.5,
		ModerateThreshold:   3.0,
	}
}

// ValidateFormulaConfig checks that a FormulaConfig is internally consistent.
func ValidateFormulaConfig(c FormulaConfig) error {
	var errs []string

	weights := map[string]float64{
		"thermal.cod":             c.Thermal.COD,
		"thermal.market":          c.Thermal.Market,
		"thermal.transactability": c.Thermal.Transactability,
		"thermal.thermal_opt":     c.Thermal.ThermalOpt,
		"thermal.environmental":   c.Thermal.Environmental,
		"redev.market":            c.Redev.Market,
		"redev.infrastructure":    c.Redev.Infrastructure,
		"redev.interconnection":   c.Redev.Interconnection,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	thermalSum := c.Thermal.COD + c.Thermal.Market + c.Thermal.Transactability +
		c.Thermal.ThermalOpt + c.Thermal.Environmental
	if math.Abs(thermalSum-1) > 0.001 {
		errs = append(errs, fmt.Sprintf("thermal weights should sum to 1, got %.3f", thermalSum))
	}

	redevSum := c.Redev.Market + c.Redev.Infrastructure + c.Redev.Interconnection
	if math.Abs(redevSum-1) > 0.001 {
		errs = append(errs, fmt.Sprintf("redev weights should sum to 1, got %.3f", redevSum))
	}

	if c.RepowerMultiplier <= 0 || c.RepowerMultiplier > 1 {
		errs = append(errs, "repower_multiplier must be in (0, 1]")
	}
	if c.RepowerFlag == "" {
		errs = append(errs, "repower_flag must not be empty")
	}
	if c.ThermalOptFloor < 0 {
		errs = append(errs, "thermal_opt_floor must be >= 0")
	}
	if c.ModerateThreshold >= c.StrongThreshold {
		errs = append(errs, "moderate_threshold must be < strong_threshold")
	}

	if len(errs) > 0 {
		return eris.Errorf("score: formula config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
