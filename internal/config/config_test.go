package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AllFields(t *testing.T) {
	dir := t.TempDir()
	content := `passes: generate-meta-cap,generate-suite-cap{phases=init,run}
target: yaml
output_dir: out
output_module_files: true
suites:
  - suite_S.xml
schemes:
  - A.meta
  - B.meta
hosts:
  - host.meta
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "generate-meta-cap,generate-suite-cap{phases=init,run}", cfg.Passes)
	assert.Equal(t, "yaml", cfg.Target)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.True(t, cfg.OutputModuleFiles)
	assert.Equal(t, []string{"suite_S.xml"}, cfg.Suites)
	assert.Equal(t, []string{"A.meta", "B.meta"}, cfg.Schemes)
	assert.Equal(t, []string{"host.meta"}, cfg.Hosts)
}

func TestLoad_MinimalYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("target: yaml\n"), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, DefaultPasses, cfg.Passes)
	assert.Equal(t, "yaml", cfg.Target)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.False(t, cfg.OutputModuleFiles)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, ErrConfigNotFound), "expected ErrConfigNotFound, got: %v", err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{{invalid"), 0644))

	cfg, err := Load(dir)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvTarget, "yaml")
	t.Setenv(EnvOutputDir, "caps")
	t.Setenv(EnvOutputModuleFiles, "true")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, DefaultPasses, cfg.Passes)
	assert.Equal(t, "yaml", cfg.Target)
	assert.Equal(t, "caps", cfg.OutputDir)
	assert.True(t, cfg.OutputModuleFiles)

	t.Setenv(EnvOutputModuleFiles, "sometimes")
	assert.Error(t, cfg.ApplyEnv())
}

func TestResolve(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Resolve(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("env file overrides project file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("target: yaml\noutput_dir: a\n"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvOutputDir+"=b\n"), 0644))
		// godotenv sets the variable for the whole process.
		t.Setenv(EnvOutputDir, "")
		os.Unsetenv(EnvOutputDir)

		cfg, err := Resolve(dir)
		require.NoError(t, err)
		assert.Equal(t, "yaml", cfg.Target)
		assert.Equal(t, "b", cfg.OutputDir)
	})

	t.Run("environment wins over env file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvTarget+"=yaml\n"), 0644))
		t.Setenv(EnvTarget, "ftn")

		cfg, err := Resolve(dir)
		require.NoError(t, err)
		assert.Equal(t, "ftn", cfg.Target)
	})
}
