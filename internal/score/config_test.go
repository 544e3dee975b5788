package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFormulaConfigIsValid(t *testing.T) {
	require.NoError(t, ValidateFormulaConfig(DefaultFormulaConfig()))
}

func TestValidateFormulaConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*FormulaConfig)
		wantErr string
	}{
		{
			"negative weight",
			func(c *FormulaConfig) { c.Thermal.COD = -0.1 },
			"must be >= 0",
		},
		{
			"thermal weights off by too much",
			func(c *FormulaConfig) { c.Thermal.Market = 0.5 },
			"thermal weights should sum to 1",
		},
		{
			"redev weights off",
			func(c *FormulaConfig) { c.Redev.Market = 0.1 },
			"redev weights should sum to 1",
		},
		{
			"zero multiplier",
			func(c *FormulaConfig) { c.RepowerMultiplier = 0 },
			"repower_multiplier",
		},
		{
			"multiplier above one",
			func(c *FormulaConfig) { c.RepowerMultiplier = 1.5 },
			"repower_multiplier",
		},
		{
			"empty repower flag",
			func(c *FormulaConfig) { c.RepowerFlag = "" },
			"repower_flag",
		},
		{
			"negative floor",
			func(c *FormulaConfig) { c.ThermalOptFloor = -1 },
			"thermal_opt_floor",
		},
		{
			"inverted thresholds",
			func(c *FormulaConfig) { c.ModerateThreshold = 5 },
			"moderate_threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultFormulaConfig()
			tt.mutate(&cfg)
			err := ValidateFormulaConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateFormulaConfigToleratesRounding(t *testing.T) {
	cfg := DefaultFormulaConfig()
	cfg.Thermal.COD = 0.2004
	cfg.Thermal.Market = 0.2996
	assert.NoError(t, ValidateFormulaConfig(cfg))
}
