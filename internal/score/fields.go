package score

import "strings"

// Canonical raw field keys. Spreadsheet exports and older clients address
// the same fields by display labels; the alias registry resolves either
// form before any normalizer runs.
const (
	KeyCODYear         = "cod_year"
	KeyCapacityFactor  = "capacity_factor"
	KeyMarket          = "market"
	KeyTransactability = "transactability"
	KeyThermalOpt      = "thermal_optimization"
	KeyEnvironmental   = "environmental"
	KeyRedevMarket     = "redevelopment_market"
	KeyInfrastructure  = "infrastructure"
	KeyInterconnection = "interconnection"
	KeyCoLocate        = "co_locate"
)

// FieldAlias maps one canonical key to the legacy labels accepted for it,
// in fallback order.
type FieldAlias struct {
	Key    string
	Labels []string
}

// AliasRegistry resolves canonical keys and legacy labels to canonical
// keys. Lookups are case-insensitive on trimmed labels.
type AliasRegistry struct {
	aliases []FieldAlias
	byLabel map[string]string
}

// NewAliasRegistry builds a registry with indexed label lookups.
func NewAliasRegistry(aliases []FieldAlias) *AliasRegistry {
	r := &AliasRegistry{
		aliases: aliases,
		byLabel: make(map[string]string),
	}
	for _, a := range aliases {
		r.byLabel[normalizeLabel(a.Key)] = a.Key
		for _, l := range a.Labels {
			label := normalizeLabel(l)
			if _, exists := r.byLabel[label]; !exists {
				r.byLabel[label] = a.Key
			}
		}
	}
	return r
}

// DefaultAliases returns the registry covering the known spreadsheet
// export headers.
func DefaultAliases() *AliasRegistry {
	return NewAliasRegistry([]FieldAlias{
		{KeyCODYear, []string{"COD", "COD Year", "Commercial Operation Date"}},
		{KeyCapacityFactor, []string{"Capacity Factor", "Capacity Factor (5-Yr Avg)", "CF"}},
		{KeyMarket, []string{"Market", "Markets", "ISO", "ISO/RTO"}},
		{KeyTransactability, []string{"Transactability", "Transaction Process"}},
		{KeyThermalOpt, []string{"Thermal Optimization", "Thermal Optimization Potential"}},
		{KeyEnvironmental, []string{"Environmental", "Environmental Score"}},
		{KeyRedevMarket, []string{"Redevelopment Market", "Redev Market"}},
		{KeyInfrastructure, []string{"Infrastructure", "Infrastructure Score"}},
		{KeyInterconnection, []string{"Interconnection", "Interconnection Score", "IX"}},
		{KeyCoLocate, []string{"Co-Locate", "Co-Locate/Repower", "Co-Location"}},
	})
}

// Canonical returns the canonical key for a key or legacy label.
func (r *AliasRegistry) Canonical(label string) (string, bool) {
	key, ok := r.byLabel[normalizeLabel(label)]
	return key, ok
}

// Resolve maps a raw field mapping onto canonical keys. For each canonical
// key the canonical form wins outright; otherwise the declared labels are
// tried in order. Keys resolving to nothing are absent from the result
// (and classify as missing downstream).
func (r *AliasRegistry) Resolve(raw map[string]any) map[string]any {
	// Index the input once by normalized label.
	byLabel := make(map[string]any, len(raw))
	for k, v := range raw {
		label := normalizeLabel(k)
		if _, exists := byLabel[label]; !exists {
			byLabel[label] = v
		}
	}

	out := make(map[string]any, len(r.aliases))
	for _, a := range r.aliases {
		if v, ok := byLabel[normalizeLabel(a.Key)]; ok {
			out[a.Key] = v
			continue
		}
		for _, l := range a.Labels {
			if v, ok := byLabel[normalizeLabel(l)]; ok {
				out[a.Key] = v
				break
			}
		}
	}
	return out
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
