package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		want     ClassState
		wantNum  float64
		wantText string
	}{
		{"nil", nil, StateMissing, 0, ""},
		{"empty string", "", StateMissing, 0, ""},
		{"whitespace only", "   ", StateMissing, 0, ""},
		{"hash na sentinel", "#N/A", StateMissing, 0, ""},
		{"na sentinel", "N/A", StateMissing, 0, ""},
		{"value sentinel", "#VALUE!", StateMissing, 0, ""},
		{"lowercase sentinel", "n/a", StateMissing, 0, ""},
		{"mixed case sentinel", "#ValUe!", StateMissing, 0, ""},
		{"padded sentinel", "  #N/A  ", StateMissing, 0, ""},
		{"zero float", 0.0, StateNumeric, 0, ""},
		{"zero int", 0, StateNumeric, 0, ""},
		{"negative float", -1.5, StateNumeric, -1.5, ""},
		{"int64", int64(2001), StateNumeric, 2001, ""},
		{"float32", float32(2.5), StateNumeric, 2.5, ""},
		{"numeric string", "1998", StateNumeric, 1998, ""},
		{"decimal string", "0.22", StateNumeric, 0.22, ""},
		{"padded numeric string", " 3 ", StateNumeric, 3, ""},
		{"plain text", "bilateral", StateText, 0, "bilateral"},
		{"padded text trimmed", "  Repower  ", StateText, 0, "Repower"},
		{"nan", math.NaN(), StateMissing, 0, ""},
		{"inf", math.Inf(1), StateMissing, 0, ""},
		// Non-finite strings parse but never become present numerics.
		{"nan string", "NaN", StateText, 0, "NaN"},
		{"inf string", "Inf", StateText, 0, "Inf"},
		{"unsupported type", []string{"x"}, StateMissing, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.input)
			assert.Equal(t, tt.want, got.State)
			if tt.want == StateNumeric {
				assert.InDelta(t, tt.wantNum, got.Num, 0.0001)
			}
			if tt.want == StateText {
				assert.Equal(t, tt.wantText, got.Text)
			}
		})
	}
}

func TestSubScorePtrRoundTrip(t *testing.T) {
	p := Present(2.5).Ptr()
	assert.NotNil(t, p)
	assert.InDelta(t, 2.5, *p, 0.0001)
	assert.Equal(t, Present(2.5), FromPtr(p))

	assert.Nil(t, NA().Ptr())
	assert.True(t, FromPtr(nil).Missing)
}

func TestSubScoreZeroIsPresent(t *testing.T) {
	var s SubScore
	assert.False(t, s.Missing)
	assert.NotNil(t, s.Ptr())
}
