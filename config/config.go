// Package config binds the runtime's configuration from YAML with an
// environment-variable overlay across a fully enumerated set of keys.
// Modeled on the staged load pipeline other example repos use for
// config loading (parse -> overlay -> defaults -> validate), adapted
// to this module's smaller, fully-enumerated key set rather than a
// generic reflection-based decoder.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agentcore/runtime/apperr"
)

// ExperienceConfig binds the experience.* keys.
type ExperienceConfig struct {
	Enabled bool `yaml:"enabled"`
	CodeExperienceEnabled bool `yaml:"code_experience_enabled"`
	ReactExperienceEnabled bool `yaml:"react_experience_enabled"`
	FastIntentEnabled bool `yaml:"fast_intent_enabled"`
	FastIntentReactEnabled bool `yaml:"fast_intent_react_enabled"`
	FastIntentCodeEnabled bool `yaml:"fast_intent_code_enabled"`
	FastIntentAllowedTools []string `yaml:"fast_intent_allowed_tools"`
	MaxItemsPerQuery int `yaml:"max_items_per_query"`
	MaxContentLength int `yaml:"max_content_length"`
	InMemory InMemoryExperienceConfig `yaml:"in_memory"`
}

// InMemoryExperienceConfig binds experience.in_memory.*.
type InMemoryExperienceConfig struct {
	MaxTotalExperiences int `yaml:"max_total_experiences"`
	TTLSeconds int `yaml:"ttl_seconds"`
}

// SearchConfig binds the search.* keys.
type SearchConfig struct {
	Enabled bool `yaml:"enabled"`
	ProjectSearchEnabled bool `yaml:"project_search_enabled"`
	KnowledgeSearchEnabled bool `yaml:"knowledge_search_enabled"`
	WebSearchEnabled bool `yaml:"web_search_enabled"`
	DefaultTopK int `yaml:"default_top_k"`
	SearchTimeoutMS int `yaml:"search_timeout_ms"`
}

// SandboxConfig binds the sandbox execution-limit keys.
type SandboxConfig struct {
	AllowIO bool `yaml:"allow_io"`
	AllowNativeAccess bool `yaml:"allow_native_access"`
	ExecutionTimeoutMS int `yaml:"execution_timeout_ms"`
}

// Config is the root configuration record.
type Config struct {
	Experience ExperienceConfig `yaml:"experience"`
	Search SearchConfig `yaml:"search"`
	Sandbox SandboxConfig `yaml:"sandbox"`
}

// SetDefaults fills in the documented defaults for any
// zero-valued field that YAML left unset. It intentionally cannot tell
// an explicit zero from an absent key for numeric fields — matching
// own defaults-after-decode convention, where a config
// author who wants literal zero must still set a nonzero placeholder
// or accept the default.
func (c *Config) SetDefaults() {
	if c.Experience.MaxItemsPerQuery == 0 {
		c.Experience.MaxItemsPerQuery = 5
	}
	if c.Experience.MaxContentLength == 0 {
		c.Experience.MaxContentLength = 2000
	}
	if c.Experience.InMemory.MaxTotalExperiences == 0 {
		c.Experience.InMemory.MaxTotalExperiences = 1000
	}
	if c.Experience.InMemory.TTLSeconds == 0 {
		c.Experience.InMemory.TTLSeconds = -1
	}
	if c.Search.DefaultTopK == 0 {
		c.Search.DefaultTopK = 5
	}
	if c.Sandbox.ExecutionTimeoutMS == 0 {
		c.Sandbox.ExecutionTimeoutMS = 5000
	}
}

// Validate checks cross-field invariants that YAML decoding alone
// cannot enforce.
func (c *Config) Validate() error {
	if c.Experience.MaxItemsPerQuery < 0 {
		return apperr.New(apperr.InvalidInput, "config: experience.max_items_per_query must be >= 0")
	}
	if c.Experience.MaxContentLength < 0 {
		return apperr.New(apperr.InvalidInput, "config: experience.max_content_length must be >= 0")
	}
	if c.Experience.InMemory.TTLSeconds < -1 {
		return apperr.New(apperr.InvalidInput, "config: experience.in_memory.ttl_seconds must be >= -1")
	}
	if c.Search.DefaultTopK < 0 {
		return apperr.New(apperr.InvalidInput, "config: search.default_top_k must be >= 0")
	}
	if c.Sandbox.ExecutionTimeoutMS < 0 {
		return apperr.New(apperr.InvalidInput, "config: sandbox.execution_timeout_ms must be >= 0")
	}
	return nil
}

// Load reads path, parses it as YAML into a Config, applies the
// environment overlay, fills defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, fmt.Sprintf("config: failed to read %q", path), err)
	}
	return Parse(data)
}

// Parse is Load without a filesystem dependency, for tests and
// embedded configuration.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "config: failed to parse YAML", err)
	}
	applyEnvOverlay(cfg)
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envOverlayPrefix namespaces every environment override this package
// recognizes.
const envOverlayPrefix = "AGENTCORE_"

// applyEnvOverlay lets deployment environments override a curated set
// of keys without editing the YAML file (generalized from a generic
// ${VAR}-expansion idiom into a fixed table of recognized override
// names, since this module's key set is fully enumerated rather than
// open-ended).
func applyEnvOverlay(c *Config) {
	overlayBool(&c.Experience.Enabled, "EXPERIENCE_ENABLED")
	overlayBool(&c.Experience.FastIntentEnabled, "EXPERIENCE_FAST_INTENT_ENABLED")
	overlayInt(&c.Experience.MaxItemsPerQuery, "EXPERIENCE_MAX_ITEMS_PER_QUERY")
	overlayInt(&c.Experience.MaxContentLength, "EXPERIENCE_MAX_CONTENT_LENGTH")
	overlayInt(&c.Experience.InMemory.MaxTotalExperiences, "EXPERIENCE_IN_MEMORY_MAX_TOTAL_EXPERIENCES")
	overlayInt(&c.Experience.InMemory.TTLSeconds, "EXPERIENCE_IN_MEMORY_TTL_SECONDS")
	overlayBool(&c.Search.Enabled, "SEARCH_ENABLED")
	overlayInt(&c.Search.DefaultTopK, "SEARCH_DEFAULT_TOP_K")
	overlayInt(&c.Search.SearchTimeoutMS, "SEARCH_SEARCH_TIMEOUT_MS")
	overlayBool(&c.Sandbox.AllowIO, "SANDBOX_ALLOW_IO")
	overlayBool(&c.Sandbox.AllowNativeAccess, "SANDBOX_ALLOW_NATIVE_ACCESS")
	overlayInt(&c.Sandbox.ExecutionTimeoutMS, "SANDBOX_EXECUTION_TIMEOUT_MS")
}

func overlayBool(dst *bool, suffix string) {
	v, ok := lookupEnv(suffix)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err == nil {
		*dst = b
	}
}

func overlayInt(dst *int, suffix string) {
	v, ok := lookupEnv(suffix)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err == nil {
		*dst = n
	}
}

func lookupEnv(suffix string) (string, bool) {
	v, ok := os.LookupEnv(envOverlayPrefix + suffix)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}
