// Package config provides configuration management for alquad.
//
// Settings come from one YAML file read through Viper, with environment
// variables layered on top. Load writes a default file the first time it
// runs, so a fresh install starts with every key spelled out.
//
// # File
//
// ~/.alquad/config.yaml (or the path given to LoadFromPath). Keys mirror the
// mapstructure tags on Config.
//
// # Environment Variables
//
// All configuration values can be overridden using environment variables
// with the ALQUAD_ prefix. Nested fields are separated by underscores.
//
// Examples:
//   - ALQUAD_LLM_PROVIDER=gemini
//   - ALQUAD_AGENT_MAX_DEPTH=6
//   - ALQUAD_LOGGING_LEVEL=debug
//
// A few plain names are honored as well: LLM_PROVIDER, OLLAMA_BASE_URL,
// OLLAMA_MODEL, GEMINI_API_KEY, OPENAI_API_KEY and OPENAI_BASE_URL.
//
// # Configuration Sections
//
//   - LLM: decision oracle backend, retries and pacing
//   - Agent: search depth, listing size, partition order
//   - FileSystem: setup keywords, extensions and skipped names
//   - Cache: directory listing cache size and lifetime
//   - Scoring: heuristic scorer weights
//   - Logging: console level and session log files
//   - History: resolution history database
//
// # Validation
//
// Validate returns a *ConfigurationError for settings that make startup
// impossible, such as a missing API key for the selected provider.
package config
