package score

import (
	"math"
	"strings"
)

// Sub-score normalizers. Each maps one raw field value into a bounded
// integer score or missing, applying the classifier first. All are pure.

// NormalizeCOD buckets a commission year: older plants score higher.
func NormalizeCOD(raw any) SubScore {
	c := Classify(raw)
	if c.State != StateNumeric {
		return NA()
	}
	year := c.Num
	switch {
	case year < 2000:
		return Present(3)
	case year <= 2005:
		return Present(2)
	default:
		return Present(1)
	}
}

// NormalizeCapacityFactor buckets a capacity factor expressed as a
// fraction in [0, 1]: lower utilization scores higher.
func NormalizeCapacityFactor(raw any) SubScore {
	c := Classify(raw)
	if c.State != StateNumeric {
		return NA()
	}
	switch {
	case c.Num < 0.10:
		return Present(3)
	case c.Num <= 0.25:
		return Present(2)
	default:
		return Present(1)
	}
}

// NormalizeMarket scores an ISO/market identifier against the configured
// tier lists. A present identifier matching no tier scores 1: being in a
// known market at all beats having no market data.
func NormalizeMarket(raw any, tiers MarketTiers) SubScore {
	c := Classify(raw)
	if c.State == StateMissing {
		return NA()
	}
	if c.State == StateNumeric {
		// Spreadsheet rows occasionally carry an already-scored number.
		return Present(clamp(math.Round(c.Num), 0, 3))
	}
	id := c.Text
	for _, tier := range []struct {
		members []string
		score   float64
	}{
		{tiers.Premium, 3},
		{tiers.Good, 2},
		{tiers.Neutral, 1},
		{tiers.Poor, 0},
	} {
		for _, m := range tier.members {
			if strings.EqualFold(id, m) {
				return Present(tier.score)
			}
		}
	}
	return Present(1)
}

// NormalizeTransactability scores a free-text transaction-process
// description via keyword rules, or rounds and clamps a numeric rating.
//
// The middle rule is (bilateral) OR (process AND "less than 10"): the
// bilateral branch stands alone; only the process branch requires the
// bidder-count phrase.
func NormalizeTransactability(raw any) SubScore {
	c := Classify(raw)
	switch c.State {
	case StateMissing:
		return NA()
	case StateNumeric:
		return Present(clamp(math.Round(c.Num), 0, 3))
	}

	text := strings.ToLower(c.Text)
	bilateral := strings.Contains(text, "bilateral")
	switch {
	case bilateral && strings.Contains(text, "developed"):
		return Present(3)
	case bilateral || (strings.Contains(text, "process") && strings.Contains(text, "less than 10")):
		return Present(2)
	case strings.Contains(text, "competitive") && strings.Contains(text, "more than 10"):
		return Present(1)
	default:
		return Present(2)
	}
}

// NormalizeThermalOpt scores the thermal-optimization factor from free text
// or a small explicit integer. Unlike the other factors this one never
// propagates missing under the default policy: absent or unreadable input
// scores 0.
func NormalizeThermalOpt(raw any, onMissing MissingPolicy) SubScore {
	c := Classify(raw)
	switch c.State {
	case StateMissing:
		if onMissing == PropagateMissing {
			return NA()
		}
		return Present(0)
	case StateNumeric:
		n := math.Round(c.Num)
		if n == c.Num && n >= 0 && n <= 2 {
			return Present(n)
		}
		return Present(0)
	}

	text := strings.ToLower(c.Text)
	switch {
	case strings.Contains(text, "readily apparent"):
		return Present(2)
	case strings.Contains(text, "no identifiable"):
		return Present(1)
	default:
		return Present(0)
	}
}

// NormalizeIntRating clamps an integer 0-3 expert rating
// (environmental, redevelopment market).
func NormalizeIntRating(raw any) SubScore {
	c := Classify(raw)
	if c.State != StateNumeric {
		return NA()
	}
	return Present(clamp(math.Round(c.Num), 0, 3))
}

// NormalizeContinuousRating buckets a continuous 0-3 rating
// (infrastructure, interconnection) at half-point boundaries.
func NormalizeContinuousRating(raw any) SubScore {
	c := Classify(raw)
	if c.State != StateNumeric {
		return NA()
	}
	switch {
	case c.Num >= 2.5:
		return Present(3)
	case c.Num >= 1.5:
		return Present(2)
	case c.Num >= 0.5:
		return Present(1)
	default:
		return Present(0)
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
