package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}

const sampleYAML = `
experience:
  enabled: true
  fast_intent_enabled: true
  fast_intent_allowed_tools: ["write_code", "search"]
search:
  enabled: true
  project_search_enabled: true
sandbox:
  allow_io: false
  execution_timeout_ms: 3000
`

func TestParseBindsDeclaredKeys(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.True(t, cfg.Experience.Enabled)
	assert.True(t, cfg.Experience.FastIntentEnabled)
	assert.Equal(t, []string{"write_code", "search"}, cfg.Experience.FastIntentAllowedTools)
	assert.True(t, cfg.Search.ProjectSearchEnabled)
	assert.Equal(t, 3000, cfg.Sandbox.ExecutionTimeoutMS)
}

func TestParseAppliesDocumentedDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`experience: {}`))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Experience.MaxItemsPerQuery)
	assert.Equal(t, 2000, cfg.Experience.MaxContentLength)
	assert.Equal(t, 1000, cfg.Experience.InMemory.MaxTotalExperiences)
	assert.Equal(t, -1, cfg.Experience.InMemory.TTLSeconds)
	assert.Equal(t, 5, cfg.Search.DefaultTopK)
	assert.Equal(t, 5000, cfg.Sandbox.ExecutionTimeoutMS)
}

func TestParseExplicitValueOverridesDefault(t *testing.T) {
	cfg, err := Parse([]byte(`experience:
  max_items_per_query: 10
`))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Experience.MaxItemsPerQuery)
}

func TestParseEnvOverlayOverridesYAML(t *testing.T) {
	t.Setenv("AGENTCORE_EXPERIENCE_ENABLED", "false")
	t.Setenv("AGENTCORE_SEARCH_DEFAULT_TOP_K", "20")

	cfg, err := Parse([]byte(`experience:
  enabled: true
`))
	require.NoError(t, err)
	assert.False(t, cfg.Experience.Enabled)
	assert.Equal(t, 20, cfg.Search.DefaultTopK)
}

func TestParseEnvOverlayIgnoresUnsetOrBlankVars(t *testing.T) {
	t.Setenv("AGENTCORE_SANDBOX_ALLOW_IO", "")
	cfg, err := Parse([]byte(`sandbox:
  allow_io: true
`))
	require.NoError(t, err)
	assert.True(t, cfg.Sandbox.AllowIO)
}

func TestValidateRejectsNegativeTTLBelowSentinel(t *testing.T) {
	_, err := Parse([]byte(`experience:
  in_memory:
    ttl_seconds: -2
`))
	assert.Error(t, err)
}

func TestValidateRejectsNegativeMaxItemsPerQuery(t *testing.T) {
	_, err := Parse([]byte(`experience:
  max_items_per_query: -1
`))
	assert.Error(t, err)
}

func TestLoadReadsFromDisk(t *testing.T) {
	path := t.TempDir() + "/config.yaml"
	require.NoError(t, writeFile(path, sampleYAML))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Experience.Enabled)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}
