package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalLine = `
product_lines:
  - name: test_line
    model: ghee_churning
    physics:
      constants:
        reference_temp_k: 298.15
    parameters:
      - name: temp_c
        min: 10
        max: 18
        nominal: 14
    market:
      - {name: cream_price, distribution: normal, mean: 45, stddev: 4}
    cost:
      model: formulation
      conversion_cost: 10
      selling_price: 100
      ingredients:
        - {market: cream_price, ratio: 1.5}
    spec_limits:
      - {name: yield_window, outcome: yield, lower: 0.4, upper: 0.5}
    sweep: {parameter: temp_c, start: 10, stop: 18, step: 1}
`

func TestParseRegistryYAML(t *testing.T) {
	reg, err := ParseRegistryYAML([]byte(minimalLine))
	require.NoError(t, err)

	pl, err := reg.Line("test_line")
	require.NoError(t, err)
	assert.Equal(t, "ghee_churning", pl.Model)
	assert.Equal(t, TargetMeanObjective, pl.RankingTarget())
	assert.InDelta(t, 0.45, pl.SpecLimits[0].Nominal, 1e-12, "nominal defaults to the window midpoint")
	assert.Equal(t, map[string]float64{"temp_c": 14}, pl.NominalSetpoints())

	_, ok := pl.MarketInput("cream_price")
	assert.True(t, ok)
	_, ok = pl.Parameter("missing")
	assert.False(t, ok)
}

func TestParseRegistryYAMLSellingMarket(t *testing.T) {
	yamlText := strings.Replace(minimalLine, "selling_price: 100", "selling_market: cream_price", 1)
	reg, err := ParseRegistryYAML([]byte(yamlText))
	require.NoError(t, err)

	pl, err := reg.Line("test_line")
	require.NoError(t, err)
	assert.Equal(t, "cream_price", pl.Cost.SellingMarket)
	assert.Zero(t, pl.Cost.SellingPrice)
}

func TestRegistryUnknownLine(t *testing.T) {
	reg, err := ParseRegistryYAML([]byte(minimalLine))
	require.NoError(t, err)

	_, err = reg.Line("nope")
	assert.ErrorIs(t, err, ErrUnknownProductLine)
}

func TestParseRegistryYAMLRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantMsg string
	}{
		{"zero conversion cost", "conversion_cost: 10", "conversion_cost: 0", "conversion_cost"},
		{"negative absolute temperature", "reference_temp_k: 298.15", "reference_temp_k: -5", "absolute temperature"},
		{"nominal outside range", "nominal: 14", "nominal: 30", "outside"},
		{"missing selling price", "selling_price: 100", "selling_price: 0", "selling_price"},
		{"unknown selling market", "selling_price: 100", "selling_market: quote_price", "quote_price"},
		{"unknown ingredient market", "{market: cream_price, ratio: 1.5}", "{market: milk_price, ratio: 1.5}", "milk_price"},
		{"inverted spec window", "lower: 0.4, upper: 0.5", "lower: 0.6, upper: 0.5", "below upper"},
		{"sweep outside range", "start: 10, stop: 18", "start: 5, stop: 18", "outside parameter range"},
		{"unknown distribution", "distribution: normal", "distribution: gamma", "oneof"},
		{"missing model", "model: ghee_churning", "model: \"\"", "required"},
		{"bad log level", "product_lines:", "log_level: loud\nproduct_lines:", "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yamlText := strings.Replace(minimalLine, tt.from, tt.to, 1)
			require.NotEqual(t, minimalLine, yamlText, "replacement did not apply")

			_, err := ParseRegistryYAML([]byte(yamlText))
			require.Error(t, err)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %T", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseRegistryYAMLDuplicateLine(t *testing.T) {
	body := strings.TrimPrefix(minimalLine, "\nproduct_lines:\n")
	_, err := ParseRegistryYAML([]byte("product_lines:\n" + body + body))

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "duplicate")
}

func TestParseRegistryYAMLMalformed(t *testing.T) {
	_, err := ParseRegistryYAML([]byte("product_lines: ["))
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestSpecLimitContains(t *testing.T) {
	lo, hi := 0.4, 0.5
	two := SpecLimit{Lower: &lo, Upper: &hi}
	upperOnly := SpecLimit{Upper: &hi}

	assert.True(t, two.Contains(0.4))
	assert.True(t, two.Contains(0.5))
	assert.False(t, two.Contains(0.39))
	assert.False(t, two.Contains(0.51))
	assert.True(t, upperOnly.Contains(-100))
	assert.False(t, upperOnly.Contains(0.6))
}

func TestDistributionString(t *testing.T) {
	assert.Equal(t, "normal(mean=4.6, stddev=0.15)", Distribution{Kind: DistNormal, Mean: 4.6, StdDev: 0.15}.String())
	assert.Equal(t, "bernoulli(p=0.1)", Distribution{Kind: DistBernoulli, P: 0.1}.String())
}
