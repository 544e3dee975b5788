package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCOD(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  SubScore
	}{
		{"pre-2000", 1998, Present(3)},
		{"boundary 1999", 1999, Present(3)},
		{"boundary 2000", 2000, Present(2)},
		{"boundary 2005", 2005, Present(2)},
		{"boundary 2006", 2006, Present(1)},
		{"recent", 2019, Present(1)},
		{"string year", "1995", Present(3)},
		{"missing", nil, NA()},
		{"sentinel", "#N/A", NA()},
		{"text is missing for numeric factor", "unknown", NA()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCOD(tt.input))
		})
	}
}

func TestNormalizeCapacityFactor(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  SubScore
	}{
		{"below 10 pct", 0.05, Present(3)},
		{"boundary 0.10", 0.10, Present(2)},
		{"boundary 0.25", 0.25, Present(2)},
		{"above 0.25", 0.26, Present(1)},
		{"zero is present", 0.0, Present(3)},
		{"missing", "", NA()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCapacityFactor(tt.input))
		})
	}
}

func TestNormalizeMarket(t *testing.T) {
	tiers := DefaultFormulaConfig().Markets

	tests := []struct {
		name  string
		input any
		want  SubScore
	}{
		{"premium", "PJM", Present(3)},
		{"premium lowercase", "ercot", Present(3)},
		{"good", "MISO", Present(2)},
		{"neutral", "ISO-NE", Present(1)},
		{"poor scores present zero", "SPP", Present(0)},
		{"unknown market defaults to 1", "AESO", Present(1)},
		{"numeric passthrough", 2.4, Present(2)},
		{"numeric clamped", 7, Present(3)},
		{"missing", nil, NA()},
		{"sentinel", "N/A", NA()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMarket(tt.input, tiers))
		})
	}
}

func TestNormalizeTransactability(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  SubScore
	}{
		{"bilateral developed", "Bilateral discussions with developed counterparty", Present(3)},
		{"bilateral alone", "bilateral negotiation", Present(2)},
		{"process few bidders", "structured process, less than 10 bidders", Present(2)},
		// "competitive process, less than 10 bidders" contains both "process"
		// and "less than 10": the higher middle rule wins over the
		// competitive rule.
		{"competitive process few bidders", "competitive process, less than 10 bidders", Present(2)},
		{"competitive many bidders", "competitive auction, more than 10 bidders", Present(1)},
		{"unmatched text defaults to 2", "call the owner", Present(2)},
		{"numeric rating", 3, Present(3)},
		{"numeric rounds", 1.6, Present(2)},
		{"numeric clamps low", -2, Present(0)},
		{"numeric clamps high", 9, Present(3)},
		{"missing", nil, NA()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTransactability(tt.input))
		})
	}
}

func TestNormalizeThermalOpt(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		onMissing MissingPolicy
		want      SubScore
	}{
		{"missing defaults to zero", nil, ZeroWhenMissing, Present(0)},
		{"sentinel defaults to zero", "#VALUE!", ZeroWhenMissing, Present(0)},
		{"missing propagates when asked", nil, PropagateMissing, NA()},
		{"readily apparent", "Readily apparent opportunity", ZeroWhenMissing, Present(2)},
		{"no identifiable", "No identifiable optimization", ZeroWhenMissing, Present(1)},
		{"other text scores zero", "maybe later", ZeroWhenMissing, Present(0)},
		{"whole number in range", 2, ZeroWhenMissing, Present(2)},
		{"zero numeric", 0, ZeroWhenMissing, Present(0)},
		{"fractional scores zero", 1.5, ZeroWhenMissing, Present(0)},
		{"out of range scores zero", 5, ZeroWhenMissing, Present(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeThermalOpt(tt.input, tt.onMissing))
		})
	}
}

func TestNormalizeIntRating(t *testing.T) {
	assert.Equal(t, Present(2), NormalizeIntRating(2))
	assert.Equal(t, Present(2), NormalizeIntRating(1.7))
	assert.Equal(t, Present(0), NormalizeIntRating(-1))
	assert.Equal(t, Present(3), NormalizeIntRating(12))
	assert.Equal(t, Present(0), NormalizeIntRating(0))
	assert.Equal(t, NA(), NormalizeIntRating(nil))
	assert.Equal(t, NA(), NormalizeIntRating("strong"))
	assert.Equal(t, NA(), NormalizeIntRating("NaN"))
}

func TestNormalizeContinuousRating(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  SubScore
	}{
		{"high", 2.5, Present(3)},
		{"just below high", 2.49, Present(2)},
		{"mid", 1.5, Present(2)},
		{"low", 0.5, Present(1)},
		{"just below low", 0.49, Present(0)},
		{"zero is present zero", 0.0, Present(0)},
		{"missing", nil, NA()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeContinuousRating(tt.input))
		})
	}
}
