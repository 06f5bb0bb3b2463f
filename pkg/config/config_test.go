package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/ace-go/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, 3, cfg.Adaptation.ReflectionWindow)
	assert.Equal(t, 1, cfg.Adaptation.MaxRefinementRounds)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
provider: dummy
model: test-model
playbook_path: /tmp/playbook.json
adaptation:
  epochs: 4
  reflection_window: 5
  max_retries: 2
  max_refinement_rounds: 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dummy", cfg.Provider)
	assert.Equal(t, "test-model", cfg.Model)
	assert.Equal(t, 4, cfg.Adaptation.Epochs)
	assert.Equal(t, 5, cfg.Adaptation.ReflectionWindow)
	assert.Equal(t, 2, cfg.Adaptation.MaxRetries)
}

func TestLoadKeepsDefaultsForUnsetKnobs(t *testing.T) {
	path := writeConfig(t, `
provider: dummy
model: test-model
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Adaptation.Epochs)
	assert.Equal(t, 3, cfg.Adaptation.ReflectionWindow)
	assert.Equal(t, 3, cfg.Adaptation.MaxRetries)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
provider: carrier-pigeon
model: test-model
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ValidationFailed))
}

func TestLoadRejectsInvalidKnobs(t *testing.T) {
	path := writeConfig(t, `
provider: dummy
model: test-model
adaptation:
  epochs: 0
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ValidationFailed))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ResourceNotFound))
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "provider: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ParseFailed))
}

func TestAPIKeyResolution(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.APIKey())

	cfg.APIKeyEnv = "ACE_TEST_API_KEY"
	t.Setenv("ACE_TEST_API_KEY", "secret")
	assert.Equal(t, "secret", cfg.APIKey())
}
