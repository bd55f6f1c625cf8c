// Package config handles loading and managing xosymptom configuration.
//
// Configuration is read from a TOML file following the XDG Base Directory
// specification, merged over built-in defaults, and finally overridden by
// environment variables. A `.env` file in the working directory is loaded
// into the environment first, so a provider key can live there during local
// development.
//
// Example TOML configuration:
//
//	default_provider = "gemini"
//	request_timeout_seconds = 60
//	log_level = "info"
//
//	[generation]
//	temperature = 0.2
//	max_output_tokens = 1000
//
//	[[candidates]]
//	provider = "gemini"
//	model = "gemini-2.0-flash-exp"
//
//	[[candidates]]
//	provider = "gemini"
//	model = "gemini-1.5-flash"
//
//	[llms.gemini]
//	api_key = "your-gemini-api-key"
//
// Example programmatic usage:
//
//	cfg := config.NewConfig("gemini", 30, map[string]config.LLMConfig{
//		"gemini": {APIKey: "key"},
//	})
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	appName         = "xosymptom"
	configFileName  = "config.toml"
	DefaultDirPerm  = 0750 // rwxr-x---
	DefaultFilePerm = 0600 // rw------- (contains provider secrets)

	// DefaultTemperature keeps model output close to the requested JSON shape.
	DefaultTemperature     = 0.2
	DefaultMaxOutputTokens = 1000
	DefaultTimeoutSeconds  = 60
	DefaultServerAddr      = ":3000"
)

// Environment variables consulted after the config file is loaded.
const (
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvGroqAPIKey   = "GROQ_API_KEY"
	EnvOllamaURL    = "OLLAMA_BASE_URL"
	EnvLogLevel     = "XOSYMPTOM_LOG_LEVEL"
)

// SupportedProviders lists the provider names a candidate may reference.
var SupportedProviders = []string{"gemini", "groq", "ollama"}

// DefaultCandidateModels is the Gemini preference order used when no
// candidates are configured: fastest and cheapest first.
var DefaultCandidateModels = []string{"gemini-2.0-flash-exp", "gemini-1.5-flash", "gemini-1.5-pro"}

// Config holds the application's configuration.
type Config struct {
	// DefaultProvider is used for candidates that do not name a provider.
	DefaultProvider string `toml:"default_provider"`

	// RequestTimeoutSeconds bounds each candidate model call.
	// If <= 0, a default timeout of 60 seconds is used.
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `toml:"log_format"`

	// Generation holds the sampling parameters sent with every candidate call.
	Generation GenerationConfig `toml:"generation"`

	// Candidates is the ordered list of models tried for each analysis.
	// The first candidate that answers wins.
	Candidates []Candidate `toml:"candidates"`

	// LLMs contains provider-specific configurations keyed by provider name.
	LLMs map[string]LLMConfig `toml:"llms"`

	// Server configures the HTTP API.
	Server ServerConfig `toml:"server"`
}

// GenerationConfig holds model sampling parameters.
type GenerationConfig struct {
	Temperature     float64 `toml:"temperature"`
	MaxOutputTokens int     `toml:"max_output_tokens"`
}

// Candidate names one provider/model pair in the preference order.
type Candidate struct {
	Provider string `toml:"provider,omitempty"`
	Model    string `toml:"model"`
}

// String returns "provider/model".
func (c Candidate) String() string {
	return c.Provider + "/" + c.Model
}

// LLMConfig holds configuration specific to an LLM provider.
//
// Different providers require different fields:
//   - Gemini/Groq: Require APIKey
//   - Ollama: Requires BaseURL
type LLMConfig struct {
	// BaseURL is the base URL for the LLM API (used by Ollama).
	// Example: "http://localhost:11434"
	BaseURL string `toml:"base_url,omitempty"`

	// APIKey is the authentication key for cloud-based providers (Gemini, Groq).
	APIKey string `toml:"api_key,omitempty"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default configuration values.
func defaultConfig() Config {
	candidates := make([]Candidate, 0, len(DefaultCandidateModels))
	for _, model := range DefaultCandidateModels {
		candidates = append(candidates, Candidate{Provider: "gemini", Model: model})
	}

	return Config{
		DefaultProvider:       "gemini",
		RequestTimeoutSeconds: DefaultTimeoutSeconds,
		LogLevel:              "info",
		LogFormat:             "text",
		Generation: GenerationConfig{
			Temperature:     DefaultTemperature,
			MaxOutputTokens: DefaultMaxOutputTokens,
		},
		Candidates: candidates,
		LLMs: map[string]LLMConfig{
			"gemini": {},
			"groq":   {},
			"ollama": {BaseURL: "http://localhost:11434"},
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
	}
}

// Default returns the built-in configuration with no file or environment applied.
func Default() Config {
	return defaultConfig()
}

// GetConfigFilePath determines the configuration file path based on XDG specs:
//   - If XDG_CONFIG_HOME is set, uses $XDG_CONFIG_HOME/xosymptom/config.toml
//   - Otherwise, uses $HOME/.config/xosymptom/config.toml
//
// The returned path may not exist.
func GetConfigFilePath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine user home directory: %w", err)
		}
		configHome = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configHome, appName, configFileName), nil
}

// Load reads the `.env` file (if any), the XDG configuration file (if any),
// merges both over the defaults and validates the result. A missing
// configuration file is not an error: the defaults plus environment are used.
func Load(debugMode bool) (Config, error) {
	loadDotEnv(".env", debugMode)

	cfgPath, err := GetConfigFilePath()
	if err != nil {
		return Config{}, fmt.Errorf("failed to determine config path: %w", err)
	}

	cfg := defaultConfig()

	_, err = os.Stat(cfgPath)
	switch {
	case err == nil:
		if debugMode {
			fmt.Fprintf(os.Stderr, "Loading configuration from %s\n", cfgPath)
		}
		if err := decodeFile(cfgPath, &cfg); err != nil {
			return Config{}, err
		}
	case errors.Is(err, os.ErrNotExist):
		if debugMode {
			fmt.Fprintf(os.Stderr, "Configuration file not found at %s, using defaults\n", cfgPath)
		}
	default:
		return Config{}, fmt.Errorf("failed to access config file %s: %w", cfgPath, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific file path, merges it with
// the defaults and applies environment overrides, including those from a
// `.env` file in the working directory. Unlike Load, the file must exist.
func LoadFromFile(filePath string) (Config, error) {
	loadDotEnv(".env", false)

	cfg := defaultConfig()

	_, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("configuration file not found at %s", filePath)
		}
		return Config{}, fmt.Errorf("failed to access config file %s: %w", filePath, err)
	}

	if err := decodeFile(filePath, &cfg); err != nil {
		return Config{}, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	// Candidates from the file replace the defaults as a whole; decoding into
	// the default slice would leak default providers into partial entries.
	defaults := cfg.Candidates
	cfg.Candidates = nil

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML config file %s: %w", path, err)
	}
	if cfg.Candidates == nil {
		cfg.Candidates = defaults
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: Unknown configuration keys found in %s: %v\n", path, undecoded)
	}
	return nil
}

// loadDotEnv populates the process environment from a dotenv file without
// overriding variables that are already set.
func loadDotEnv(path string, debugMode bool) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load %s: %v\n", path, err)
		return
	}
	if debugMode {
		fmt.Fprintf(os.Stderr, "Loaded environment from %s\n", path)
	}
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() {
	if c.LLMs == nil {
		c.LLMs = make(map[string]LLMConfig)
	}

	geminiKey := os.Getenv(EnvGoogleAPIKey)
	if geminiKey == "" {
		geminiKey = os.Getenv(EnvGeminiAPIKey)
	}
	if geminiKey != "" {
		llm := c.LLMs["gemini"]
		llm.APIKey = geminiKey
		c.LLMs["gemini"] = llm
	}

	if groqKey := os.Getenv(EnvGroqAPIKey); groqKey != "" {
		llm := c.LLMs["groq"]
		llm.APIKey = groqKey
		c.LLMs["groq"] = llm
	}

	if ollamaURL := os.Getenv(EnvOllamaURL); ollamaURL != "" {
		llm := c.LLMs["ollama"]
		llm.BaseURL = ollamaURL
		c.LLMs["ollama"] = llm
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
}

// Validate checks structural consistency. It does not require credentials:
// a missing key is a runtime condition reported by the analyzer.
func (c *Config) Validate() error {
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("invalid timeout: must not be negative, got %d", c.RequestTimeoutSeconds)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("invalid temperature %.2f: must be between 0 and 2", c.Generation.Temperature)
	}
	if c.Generation.MaxOutputTokens <= 0 {
		return fmt.Errorf("invalid max_output_tokens %d: must be positive", c.Generation.MaxOutputTokens)
	}
	if len(c.Candidates) == 0 {
		return errors.New("at least one candidate model must be configured")
	}

	for i, cand := range c.ResolvedCandidates() {
		if cand.Provider == "" {
			return fmt.Errorf("candidate %d (%s) has no provider and no default_provider is set", i+1, cand.Model)
		}
		if !isSupported(cand.Provider) {
			return fmt.Errorf("candidate %d uses unsupported provider: %s", i+1, cand.Provider)
		}
		if _, exists := c.LLMs[cand.Provider]; !exists {
			return fmt.Errorf("candidate %d uses provider '%s' which has no configuration section in [llms]", i+1, cand.Provider)
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log_format '%s': must be text or json", c.LogFormat)
	}

	return nil
}

func isSupported(provider string) bool {
	for _, p := range SupportedProviders {
		if p == provider {
			return true
		}
	}
	return false
}

// ResolvedCandidates returns the candidate list with DefaultProvider filled in
// where a candidate leaves its provider empty.
func (c *Config) ResolvedCandidates() []Candidate {
	resolved := make([]Candidate, 0, len(c.Candidates))
	for _, cand := range c.Candidates {
		if cand.Provider == "" {
			cand.Provider = c.DefaultProvider
		}
		resolved = append(resolved, cand)
	}
	return resolved
}

// HasCredentials reports whether the named provider carries what it needs to
// be called: an API key for cloud providers, a base URL for Ollama.
func (c *Config) HasCredentials(provider string) bool {
	llm, exists := c.LLMs[provider]
	if !exists {
		return false
	}
	switch provider {
	case "ollama":
		return llm.BaseURL != ""
	default:
		return llm.APIKey != ""
	}
}

// RequestTimeout returns the per-candidate timeout, defaulting to 60 seconds.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// GetLLMConfig retrieves the specific configuration for a given provider.
func (c *Config) GetLLMConfig(provider string) (LLMConfig, bool) {
	llmCfg, exists := c.LLMs[provider]
	return llmCfg, exists
}

// NewConfig creates a configuration programmatically, without file I/O.
// Generation parameters and candidates start from the defaults; the default
// candidate list is rewritten to use defaultProvider.
//
//	cfg := NewConfig("gemini", 30, map[string]LLMConfig{
//		"gemini": {APIKey: "your-key"},
//	})
func NewConfig(defaultProvider string, timeoutSeconds int, providers map[string]LLMConfig) Config {
	cfg := defaultConfig()
	cfg.DefaultProvider = defaultProvider
	cfg.RequestTimeoutSeconds = timeoutSeconds
	cfg.LLMs = providers
	if defaultProvider != "gemini" {
		cfg.Candidates = []Candidate{{Provider: defaultProvider}}
	}
	return cfg
}

// WriteTemplate writes a commented configuration template to path. It refuses
// to overwrite an existing file unless force is set.
func WriteTemplate(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", filepath.Dir(path), err)
	}

	if err := os.WriteFile(path, []byte(Template()), DefaultFilePerm); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// Template returns a TOML configuration template with comments.
func Template() string {
	return `# xosymptom configuration

# Provider used by candidates that do not name one
default_provider = "gemini"

# Timeout in seconds for each candidate model call
request_timeout_seconds = 60

# debug, info, warn or error; text or json
log_level = "info"
log_format = "text"

[generation]
temperature = 0.2
max_output_tokens = 1000

# Candidates are tried in order; the first one that answers wins.
[[candidates]]
provider = "gemini"
model = "gemini-2.0-flash-exp"

[[candidates]]
provider = "gemini"
model = "gemini-1.5-flash"

[[candidates]]
provider = "gemini"
model = "gemini-1.5-pro"

# Google Gemini (GOOGLE_API_KEY overrides this value)
[llms.gemini]
api_key = ""

# Groq (GROQ_API_KEY overrides this value)
[llms.groq]
api_key = ""

# Ollama, self-hosted (OLLAMA_BASE_URL overrides this value)
[llms.ollama]
base_url = "http://localhost:11434"

[server]
addr = ":3000"
`
}
