package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/normanking/alquad/internal/match"
	"github.com/normanking/alquad/internal/scanner"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration for alquad.
// It is loaded from ~/.alquad/config.yaml and can be overridden by environment variables.
type Config struct {
	LLM        LLMConfig        `mapstructure:"llm" yaml:"llm"`
	Agent      AgentConfig      `mapstructure:"agent" yaml:"agent"`
	FileSystem FileSystemConfig `mapstructure:"filesystem" yaml:"filesystem"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Scoring    ScoringConfig    `mapstructure:"scoring" yaml:"scoring"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	History    HistoryConfig    `mapstructure:"history" yaml:"history"`
}

// LLMConfig selects and configures the decision oracle backend.
type LLMConfig struct {
	// Provider is the backend to use: "ollama", "gemini" or "openai"
	Provider string `mapstructure:"provider" yaml:"provider"`

	Ollama OllamaConfig `mapstructure:"ollama" yaml:"ollama"`
	Gemini GeminiConfig `mapstructure:"gemini" yaml:"gemini"`
	OpenAI OpenAIConfig `mapstructure:"openai" yaml:"openai"`

	// RetryAttempts is the number of tries per oracle call
	RetryAttempts int `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	// RetryDelay is the fixed pause between tries
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	// RequestsPerMinute paces oracle calls (0 = unlimited)
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	// Temperature and TopP are passed to every backend
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	TopP        float64 `mapstructure:"top_p" yaml:"top_p"`
}

// OllamaConfig configures a local Ollama server.
type OllamaConfig struct {
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	Model    string        `mapstructure:"model" yaml:"model"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// GeminiConfig configures the Google Gemini API.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	// Models are tried in order
	Models  []string      `mapstructure:"models" yaml:"models"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// OpenAIConfig configures an OpenAI-compatible chat completions server.
type OpenAIConfig struct {
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey   string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model    string        `mapstructure:"model" yaml:"model"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// AgentConfig controls navigation.
type AgentConfig struct {
	// MaxDepth bounds nested directory descents per partition
	MaxDepth int `mapstructure:"max_depth" yaml:"max_depth"`
	// MaxItemsPerFolder caps each listing category
	MaxItemsPerFolder int `mapstructure:"max_items_per_folder" yaml:"max_items_per_folder"`
	// DeferPartition moves DeferredPartition to the end of the search order
	DeferPartition bool `mapstructure:"defer_partition" yaml:"defer_partition"`
	// DeferredPartition is the low-priority partition root (usually the system drive)
	DeferredPartition string `mapstructure:"deferred_partition" yaml:"deferred_partition"`
	// Partitions overrides detection when non-empty
	Partitions []PartitionConfig `mapstructure:"partitions" yaml:"partitions,omitempty"`
	// UseCache enables the directory listing cache
	UseCache bool `mapstructure:"use_cache" yaml:"use_cache"`
}

// PartitionConfig declares a search root by hand.
type PartitionConfig struct {
	Root string `mapstructure:"root" yaml:"root"`
	// Letter lets a non-Windows root answer to "open d:" style requests
	Letter string `mapstructure:"letter" yaml:"letter,omitempty"`
}

// FileSystemConfig controls how directory entries are classified.
type FileSystemConfig struct {
	SetupKeywords        []string `mapstructure:"setup_keywords" yaml:"setup_keywords"`
	ExecutableExtensions []string `mapstructure:"executable_extensions" yaml:"executable_extensions"`
	OtherExtensions      []string `mapstructure:"other_extensions" yaml:"other_extensions"`
	SkipNames            []string `mapstructure:"skip_names" yaml:"skip_names"`
}

// Rules converts the file system settings for the scanner.
func (c FileSystemConfig) Rules(maxItems int) scanner.Rules {
	return scanner.Rules{
		SetupKeywords:        c.SetupKeywords,
		ExecutableExtensions: c.ExecutableExtensions,
		OtherExtensions:      c.OtherExtensions,
		SkipNames:            c.SkipNames,
		MaxItems:             maxItems,
	}
}

// CacheConfig sizes the directory listing cache.
type CacheConfig struct {
	MaxEntries int           `mapstructure:"max_entries" yaml:"max_entries"`
	TTL        time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// ScoringConfig holds the heuristic scorer weights.
type ScoringConfig struct {
	DirectLong         int `mapstructure:"direct_long" yaml:"direct_long"`
	DirectShort        int `mapstructure:"direct_short" yaml:"direct_short"`
	Synonym            int `mapstructure:"synonym" yaml:"synonym"`
	PhraseBonus        int `mapstructure:"phrase_bonus" yaml:"phrase_bonus"`
	WordBoundary       int `mapstructure:"word_boundary" yaml:"word_boundary"`
	Simplicity         int `mapstructure:"simplicity" yaml:"simplicity"`
	MissingPenalty     int `mapstructure:"missing_penalty" yaml:"missing_penalty"`
	ExtraWordPenalty   int `mapstructure:"extra_word_penalty" yaml:"extra_word_penalty"`
	QuickMatchMinScore int `mapstructure:"quick_match_min_score" yaml:"quick_match_min_score"`
}

// Weights converts the scoring settings for the scorer.
func (c ScoringConfig) Weights() match.Weights {
	return match.Weights{
		DirectLong:         c.DirectLong,
		DirectShort:        c.DirectShort,
		Synonym:            c.Synonym,
		PhraseBonus:        c.PhraseBonus,
		WordBoundary:       c.WordBoundary,
		Simplicity:         c.Simplicity,
		MissingPenalty:     c.MissingPenalty,
		ExtraWordPenalty:   c.ExtraWordPenalty,
		QuickMatchMinScore: c.QuickMatchMinScore,
	}
}

// LoggingConfig contains configuration for application logging.
type LoggingConfig struct {
	// Level is the console log level ("trace", "debug", "info", "warn", "error")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir holds one log file per session
	Dir string `mapstructure:"dir" yaml:"dir"`
	// Keep is how many session log files to retain
	Keep int `mapstructure:"keep" yaml:"keep"`
}

// HistoryConfig controls the resolution history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	DBPath  string `mapstructure:"db_path" yaml:"db_path"`
}

// ConfigurationError reports a setting that prevents startup.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Default returns a Config with sensible default values.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".alquad")
	rules := scanner.DefaultRules()
	weights := match.DefaultWeights()

	return &Config{
		LLM: LLMConfig{
			Provider: "ollama",
			Ollama: OllamaConfig{
				Endpoint: "http://localhost:11434",
				Model:    "deepseek-r1:7b-qwen-distill-q4_k_m",
				Timeout:  120 * time.Second,
			},
			Gemini: GeminiConfig{
				Models:  []string{"gemini-2.5-flash", "gemini-2.0-flash"},
				Timeout: 60 * time.Second,
			},
			OpenAI: OpenAIConfig{
				Endpoint: "https://api.openai.com/v1",
				Model:    "gpt-4o-mini",
				Timeout:  60 * time.Second,
			},
			RetryAttempts:     3,
			RetryDelay:        time.Second,
			RequestsPerMinute: 0,
			Temperature:       0.3,
			TopP:              0.9,
		},
		Agent: AgentConfig{
			MaxDepth:          10,
			MaxItemsPerFolder: scanner.DefaultMaxItems,
			DeferPartition:    true,
			DeferredPartition: `C:\`,
			UseCache:          true,
		},
		FileSystem: FileSystemConfig{
			SetupKeywords:        rules.SetupKeywords,
			ExecutableExtensions: rules.ExecutableExtensions,
			OtherExtensions:      rules.OtherExtensions,
			SkipNames:            rules.SkipNames,
		},
		Cache: CacheConfig{
			MaxEntries: scanner.DefaultCacheEntries,
			TTL:        scanner.DefaultCacheTTL,
		},
		Scoring: ScoringConfig{
			DirectLong:         weights.DirectLong,
			DirectShort:        weights.DirectShort,
			Synonym:            weights.Synonym,
			PhraseBonus:        weights.PhraseBonus,
			WordBoundary:       weights.WordBoundary,
			Simplicity:         weights.Simplicity,
			MissingPenalty:     weights.MissingPenalty,
			ExtraWordPenalty:   weights.ExtraWordPenalty,
			QuickMatchMinScore: weights.QuickMatchMinScore,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   filepath.Join(dataDir, "logs"),
			Keep:  5,
		},
		History: HistoryConfig{
			Enabled: true,
			DBPath:  filepath.Join(dataDir, "history.db"),
		},
	}
}

// Load reads configuration from the default location (~/.alquad/config.yaml)
// and merges with environment variables. If no config file exists, it creates
// one with default values.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".alquad", "config.yaml")
	return LoadFromPath(configPath)
}

// legacyEnv maps config keys to the plain environment variable names that
// are honored alongside the ALQUAD_ prefixed ones.
var legacyEnv = map[string][]string{
	"llm.provider":        {"LLM_PROVIDER"},
	"llm.ollama.endpoint": {"OLLAMA_BASE_URL", "OLLAMA_HOST"},
	"llm.ollama.model":    {"OLLAMA_MODEL"},
	"llm.gemini.api_key":  {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"llm.openai.api_key":  {"OPENAI_API_KEY"},
	"llm.openai.endpoint": {"OPENAI_BASE_URL"},
}

// LoadFromPath reads configuration from a specific file path and merges with
// environment variables. If the file doesn't exist, it creates one with default values.
func LoadFromPath(path string) (*Config, error) {
	path = expandPath(path)

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeConfigFile(path, Default()); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Example: ALQUAD_LLM_PROVIDER=gemini
	v.SetEnvPrefix("ALQUAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		envKey := "ALQUAD_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, envKey}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Logging.Dir = expandPath(cfg.Logging.Dir)
	cfg.History.DBPath = expandPath(cfg.History.DBPath)

	return cfg, nil
}

// SaveToPath writes the configuration to a specific file path.
func (c *Config) SaveToPath(path string) error {
	path = expandPath(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return writeConfigFile(path, c)
}

// GetDataDir returns the alquad data directory path (~/.alquad).
func GetDataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".alquad")
}

// GetConfigPath returns the full path to the default config file.
func GetConfigPath() string {
	return filepath.Join(GetDataDir(), "config.yaml")
}

// Validate checks the configuration for errors that prevent startup.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "ollama":
		if c.LLM.Ollama.Model == "" {
			return &ConfigurationError{Field: "llm.ollama.model", Reason: "model is required"}
		}
		if c.LLM.Ollama.Endpoint == "" {
			return &ConfigurationError{Field: "llm.ollama.endpoint", Reason: "endpoint is required"}
		}
	case "gemini":
		if c.LLM.Gemini.APIKey == "" {
			return &ConfigurationError{Field: "llm.gemini.api_key", Reason: "GEMINI_API_KEY is not set"}
		}
		if len(c.LLM.Gemini.Models) == 0 {
			return &ConfigurationError{Field: "llm.gemini.models", Reason: "at least one model is required"}
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return &ConfigurationError{Field: "llm.openai.api_key", Reason: "OPENAI_API_KEY is not set"}
		}
		if c.LLM.OpenAI.Model == "" {
			return &ConfigurationError{Field: "llm.openai.model", Reason: "model is required"}
		}
	case "":
		return &ConfigurationError{Field: "llm.provider", Reason: "provider cannot be empty"}
	default:
		return &ConfigurationError{Field: "llm.provider", Reason: fmt.Sprintf("unknown provider '%s', must be one of: ollama, gemini, openai", c.LLM.Provider)}
	}

	if c.LLM.RetryAttempts < 1 {
		return &ConfigurationError{Field: "llm.retry_attempts", Reason: "must be at least 1"}
	}
	if c.Agent.MaxDepth < 1 {
		return &ConfigurationError{Field: "agent.max_depth", Reason: "must be at least 1"}
	}
	if c.Agent.MaxItemsPerFolder < 1 {
		return &ConfigurationError{Field: "agent.max_items_per_folder", Reason: "must be at least 1"}
	}
	for i, p := range c.Agent.Partitions {
		if p.Root == "" {
			return &ConfigurationError{Field: fmt.Sprintf("agent.partitions[%d].root", i), Reason: "root cannot be empty"}
		}
		if len(p.Letter) > 1 {
			return &ConfigurationError{Field: fmt.Sprintf("agent.partitions[%d].letter", i), Reason: "must be a single letter"}
		}
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return &ConfigurationError{Field: "logging.level", Reason: fmt.Sprintf("invalid log level '%s', must be one of: trace, debug, info, warn, error", c.Logging.Level)}
	}

	return nil
}

// writeConfigFile writes a Config struct to a YAML file.
func writeConfigFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// expandPath expands ~ to the user's home directory in a path string.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
