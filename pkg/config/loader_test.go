package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)

	assert.Equal(t, "info", reg.LogLevel)
	assert.Equal(t, []string{
		"atta_chakki", "creamed_honey", "ghee_bilona", "mustard_mead",
		"mustard_oil", "sundarban_honey", "toor_dal", "tray_dryer_build",
	}, reg.Names())

	for _, name := range reg.Names() {
		pl, err := reg.Line(name)
		require.NoError(t, err)
		assert.NotEmpty(t, pl.SpecLimits, name)
		require.NotNil(t, pl.Sweep, name)
		p, ok := pl.Parameter(pl.Sweep.Parameter)
		require.True(t, ok, name)
		assert.GreaterOrEqual(t, pl.Sweep.Start, p.Min, name)
		assert.LessOrEqual(t, pl.Sweep.Stop, p.Max, name)
	}

	ghee, err := reg.Line("ghee_bilona")
	require.NoError(t, err)
	assert.Equal(t, 13.0, ghee.Physics.Constants["optimal_churn_temp_c"])
	assert.Equal(t, TargetMeanYield, ghee.RankingTarget())
}

func TestLoadRegistry(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalLine), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"test_line"}, reg.Names())
}

func TestLoadRegistryMissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read registry file")
}

func TestLoadRegistryMalformed(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("product_lines: []\n"), 0o644))

	_, err := LoadRegistry(path)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
