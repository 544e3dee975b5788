// Package score implements the suitability scoring core: missingness
// classification of raw spreadsheet-derived inputs, per-factor normalization
// into bounded sub-scores, and the fixed weighted composite formulas for
// thermal, redevelopment, and overall scores.
package score

import (
	"math"
	"strconv"
	"strings"
)

// ClassState identifies what a raw field value turned out to be.
type ClassState int

const (
	// StateMissing marks a value that cannot be evaluated: absent, empty,
	// a spreadsheet sentinel, or a type no normalizer understands.
	StateMissing ClassState = iota
	// StateNumeric marks a value that resolved to a finite number.
	// Zero is numeric, never missing.
	StateNumeric
	// StateText marks a non-empty, non-sentinel string that does not parse
	// as a number. Text normalizers consume it; numeric normalizers treat
	// it as missing.
	StateText
)

// Classification is the result of classifying one raw field value.
type Classification struct {
	State ClassState
	Num   float64 // set when State == StateNumeric
	Text  string  // set when State == StateText (trimmed)
}

// sentinelTokens are the spreadsheet-export markers for an unavailable cell.
// Matched case-insensitively against the trimmed value.
var sentinelTokens = map[string]bool{
	"#n/a":    true,
	"n/a":     true,
	"#value!": true,
}

// Classify decides whether a raw field value is usable and, if so, in what
// form. It never fails: malformed input classifies as missing.
func Classify(v any) Classification {
	switch x := v.(type) {
	case nil:
		return Classification{State: StateMissing}
	case float64:
		return classifyFloat(x)
	case float32:
		return classifyFloat(float64(x))
	case int:
		return Classification{State: StateNumeric, Num: float64(x)}
	case int32:
		return Classification{State: StateNumeric, Num: float64(x)}
	case int64:
		return Classification{State: StateNumeric, Num: float64(x)}
	case uint:
		return Classification{State: StateNumeric, Num: float64(x)}
	case string:
		return classifyString(x)
	default:
		return Classification{State: StateMissing}
	}
}

func classifyFloat(f float64) Classification {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Classification{State: StateMissing}
	}
	return Classification{State: StateNumeric, Num: f}
}

func classifyString(s string) Classification {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || sentinelTokens[strings.ToLower(trimmed)] {
		return Classification{State: StateMissing}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Classification{State: StateNumeric, Num: f}
	}
	return Classification{State: StateText, Text: trimmed}
}

// SubScore is a normalized factor score or the distinguished missing value.
// The zero SubScore is a present zero; use NA() for missing.
type SubScore struct {
	Value   float64 `json:"value"`
	Missing bool    `json:"missing,omitempty"`
}

// Present returns a SubScore carrying the given value.
func Present(v float64) SubScore {
	return SubScore{Value: v}
}

// NA returns the missing SubScore.
func NA() SubScore {
	return SubScore{Missing: true}
}

// Ptr returns the score as a nullable float: nil when missing. This is the
// persistence representation; display layers decide how to render nil.
func (s SubScore) Ptr() *float64 {
	if s.Missing {
		return nil
	}
	v := s.Value
	return &v
}

// FromPtr converts a nullable float back into a SubScore.
func FromPtr(p *float64) SubScore {
	if p == nil {
		return NA()
	}
	return Present(*p)
}
