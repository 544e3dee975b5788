package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliasRegistryCanonical(t *testing.T) {
	r := DefaultAliases()

	tests := []struct {
		label string
		want  string
		ok    bool
	}{
		{"cod_year", KeyCODYear, true},
		{"COD", KeyCODYear, true},
		{"commercial operation date", KeyCODYear, true},
		{"ISO/RTO", KeyMarket, true},
		{"  Transaction Process  ", KeyTransactability, true},
		{"ix", KeyInterconnection, true},
		{"Co-Locate/Repower", KeyCoLocate, true},
		{"owner", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := r.Canonical(tt.label)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestAliasRegistryResolve(t *testing.T) {
	r := DefaultAliases()

	t.Run("canonical key wins over label", func(t *testing.T) {
		out := r.Resolve(map[string]any{
			KeyCODYear: 2001,
			"COD":      1995,
		})
		assert.Equal(t, 2001, out[KeyCODYear])
	})

	t.Run("labels tried in declared order", func(t *testing.T) {
		out := r.Resolve(map[string]any{
			"Commercial Operation Date": 1995,
			"COD":                       2001,
		})
		assert.Equal(t, 2001, out[KeyCODYear])
	})

	t.Run("unresolvable keys are absent", func(t *testing.T) {
		out := r.Resolve(map[string]any{"Owner": "Acme"})
		_, ok := out[KeyCODYear]
		assert.False(t, ok)
		assert.Empty(t, out)
	})

	t.Run("lookup is case-insensitive and trimmed", func(t *testing.T) {
		out := r.Resolve(map[string]any{" iso/rto ": "ERCOT"})
		assert.Equal(t, "ERCOT", out[KeyMarket])
	})
}
