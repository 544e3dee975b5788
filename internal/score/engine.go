package score

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Rating is the qualitative bucket derived from the overall score.
type Rating string

const (
	RatingStrong   Rating = "strong"
	RatingModerate Rating = "moderate"
	RatingWeak     Rating = "weak"
	// RatingUnrated marks a project whose overall score cannot be computed.
	// A missing score is never folded into the numeric buckets.
	RatingUnrated Rating = "unrated"
)

// Result holds the composite scores and rating for one project, together
// with the normalized per-factor sub-scores feeding them.
type Result struct {
	Thermal       SubScore            `json:"thermal"`
	Redevelopment SubScore            `json:"redevelopment"`
	Overall       SubScore            `json:"overall"`
	Rating        Rating              `json:"rating"`
	Components    map[string]SubScore `json:"components"`
}

// ThermalScore combines the five thermal sub-scores via the configured
// weights. Missing propagates: any missing input makes the result missing.
// The thermal-opt input is floored before weighting, independently of the
// zero default its normalizer already applies.
func ThermalScore(cod, market, transactability, thermalOpt, environmental SubScore, cfg FormulaConfig) SubScore {
	if cod.Missing || market.Missing || transactability.Missing || thermalOpt.Missing || environmental.Missing {
		return NA()
	}
	opt := math.Max(thermalOpt.Value, cfg.ThermalOptFloor)
	w := cfg.Thermal
	return Present(w.COD*cod.Value +
		w.Market*market.Value +
		w.Transactability*transactability.Value +
		w.ThermalOpt*opt +
		w.Environmental*environmental.Value)
}

// RedevelopmentScore combines the three redevelopment sub-scores. Missing
// propagates first; then a present zero in any factor short-circuits the
// whole score to a present zero before weighting. The repower co-locate
// flag applies the configured multiplier.
func RedevelopmentScore(market, infra, ix SubScore, coLocate string, cfg FormulaConfig) SubScore {
	if market.Missing || infra.Missing || ix.Missing {
		return NA()
	}
	if market.Value == 0 || infra.Value == 0 || ix.Value == 0 {
		return Present(0)
	}
	mult := 1.0
	if strings.EqualFold(strings.TrimSpace(coLocate), cfg.RepowerFlag) {
		mult = cfg.RepowerMultiplier
	}
	w := cfg.Redev
	return Present((w.Market*market.Value + w.Infrastructure*infra.Value + w.Interconnection*ix.Value) * mult)
}

// OverallScore is the sum of the thermal and redevelopment scores when both
// are present, missing otherwise.
func OverallScore(thermal, redev SubScore) SubScore {
	if thermal.Missing || redev.Missing {
		return NA()
	}
	return Present(thermal.Value + redev.Value)
}

// RatingFor buckets an overall score. Missing is unrated, explicitly.
func RatingFor(overall SubScore, cfg FormulaConfig) Rating {
	if overall.Missing {
		return RatingUnrated
	}
	switch {
	case overall.Value >= cfg.StrongThreshold:
		return RatingStrong
	case overall.Value >= cfg.ModerateThreshold:
		return RatingModerate
	default:
		return RatingWeak
	}
}

// Engine evaluates the full scoring pipeline for canonical raw field maps.
// It is stateless after construction and safe for concurrent use.
type Engine struct {
	cfg     FormulaConfig
	aliases *AliasRegistry
}

// NewEngine validates the formula config and builds an engine using the
// given alias registry (DefaultAliases when nil).
func NewEngine(cfg FormulaConfig, aliases *AliasRegistry) (*Engine, error) {
	if err := ValidateFormulaConfig(cfg); err != nil {
		return nil, eris.Wrap(err, "score: new engine")
	}
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Engine{cfg: cfg, aliases: aliases}, nil
}

// Config returns the engine's formula constants.
func (e *Engine) Config() FormulaConfig {
	return e.cfg
}

// ResolveFields maps raw field keys or legacy labels onto canonical keys
// without normalizing values.
func (e *Engine) ResolveFields(raw map[string]any) map[string]any {
	return e.aliases.Resolve(raw)
}

// Compute normalizes the raw fields (accepting canonical keys or legacy
// spreadsheet labels) and evaluates all composite scores. It never fails:
// unresolvable inputs flow through as missing.
func (e *Engine) Compute(raw map[string]any) Result {
	fields := e.aliases.Resolve(raw)

	components := map[string]SubScore{
		KeyCODYear:         NormalizeCOD(fields[KeyCODYear]),
		KeyCapacityFactor:  NormalizeCapacityFactor(fields[KeyCapacityFactor]),
		KeyMarket:          NormalizeMarket(fields[KeyMarket], e.cfg.Markets),
		KeyTransactability: NormalizeTransactability(fields[KeyTransactability]),
		KeyThermalOpt:      NormalizeThermalOpt(fields[KeyThermalOpt], e.cfg.ThermalOptOnMissing),
		KeyEnvironmental:   NormalizeIntRating(fields[KeyEnvironmental]),
		KeyRedevMarket:     NormalizeIntRating(fields[KeyRedevMarket]),
		KeyInfrastructure:  NormalizeContinuousRating(fields[KeyInfrastructure]),
		KeyInterconnection: NormalizeContinuousRating(fields[KeyInterconnection]),
	}

	coLocate := ""
	if c := Classify(fields[KeyCoLocate]); c.State == StateText {
		coLocate = c.Text
	}

	thermal := ThermalScore(
		components[KeyCODYear],
		components[KeyMarket],
		components[KeyTransactability],
		components[KeyThermalOpt],
		components[KeyEnvironmental],
		e.cfg,
	)
	redev := RedevelopmentScore(
		components[KeyRedevMarket],
		components[KeyInfrastructure],
		components[KeyInterconnection],
		coLocate,
		e.cfg,
	)
	overall := OverallScore(thermal, redev)

	return Result{
		Thermal:       thermal,
		Redevelopment: redev,
		Overall:       overall,
		Rating:        RatingFor(overall, e.cfg),
		Components:    components,
	}
}
