// Package config provides configuration loading, validation, and management for talentscout.
//
// A single global Config is kept in memory, protected by a mutex, and persisted to
// <projectDir>/.talentscout/config.json. GetConfig returns the config BY VALUE so callers
// cannot mutate shared state; all changes go through the Update* functions, which validate
// before they persist.
//
// Usage:
//
//	err := config.LoadConfig(projectDir)
//	cfg, err := config.GetConfig()
//	err = config.UpdateModels(&config.ModelsConfig{Interview: config.ModelGPT4o})
//
// Algorithm constants (the per-question turn caps, the drawing prompt prefix) are not
// configuration and live with the code that uses them.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"talentscout/pkg/logx"
)

// Global config instance with mutex protection.
// projectDir is set once during LoadConfig.
//
//nolint:gochecknoglobals // Intentional singleton pattern for config management
var (
	config     *Config
	projectDir string
	logger     *logx.Logger
	mu         sync.RWMutex
)

func getLogger() *logx.Logger {
	if logger == nil {
		logger = logx.NewLogger("config")
	}
	return logger
}

// LogInfo logs an info message using the config logger.
// Exposed so main can log with the same component name.
func LogInfo(format string, args ...interface{}) {
	getLogger().Info(format, args...)
}

// ModelInfo contains static information about a known LLM model.
type ModelInfo struct {
	Provider         string  // API provider (openai, anthropic, google, ollama)
	InputCPM         float64 // Cost per million input tokens (USD)
	OutputCPM        float64 // Cost per million output tokens (USD)
	MaxContextTokens int     // Maximum context window size in tokens
	MaxOutputTokens  int     // Maximum output tokens per request
	Vision           bool    // Accepts image input
}

// KnownModels registry contains pricing and provider information for common models.
// Unknown models are inferred via ProviderPatterns.
//
//nolint:gochecknoglobals // Intentional global for static model registry
var KnownModels = map[string]ModelInfo{
	// OpenAI
	ModelGPT4oMini: {
		Provider:         ProviderOpenAI,
		InputCPM:         0.15,
		OutputCPM:        0.60,
		MaxContextTokens: 128000,
		MaxOutputTokens:  16384,
		Vision:           true,
	},
	ModelGPT4o: {
		Provider:         ProviderOpenAI,
		InputCPM:         2.5,
		OutputCPM:        10.0,
		MaxContextTokens: 128000,
		MaxOutputTokens:  4096,
		Vision:           true,
	},

	// Anthropic
	ModelClaudeSonnet4: {
		Provider:         ProviderAnthropic,
		InputCPM:         3.0,
		OutputCPM:        15.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
		Vision:           true,
	},
	ModelClaudeHaiku45: {
		Provider:         ProviderAnthropic,
		InputCPM:         1.0,
		OutputCPM:        5.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
		Vision:           true,
	},

	// Google Gemini
	ModelGemini25Flash: {
		Provider:         ProviderGoogle,
		InputCPM:         0.30,
		OutputCPM:        2.50,
		MaxContextTokens: 1048576,
		MaxOutputTokens:  65536,
		Vision:           true,
	},
}

// ProviderPattern represents a pattern for inferring provider from model name.
type ProviderPattern struct {
	Prefix   string
	Provider string
}

// ProviderPatterns defines rules for inferring providers from unknown model names.
//
//nolint:gochecknoglobals // Intentional global for inference rules
var ProviderPatterns = []ProviderPattern{
	{"claude", ProviderAnthropic},
	{"gpt", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"o4", ProviderOpenAI},
	{"gemini", ProviderGoogle},
	{"llama", ProviderOllama},
	{"llava", ProviderOllama},
	{"qwen", ProviderOllama},
	{"mistral", ProviderOllama},
	{"ollama:", ProviderOllama}, // Explicit prefix like "ollama:llava"
}

// GetModelProvider returns the API provider for a given model.
// First checks KnownModels, then tries pattern matching.
func GetModelProvider(modelName string) (string, error) {
	if info, exists := KnownModels[modelName]; exists {
		return info.Provider, nil
	}

	for i := range ProviderPatterns {
		if strings.HasPrefix(modelName, ProviderPatterns[i].Prefix) {
			return ProviderPatterns[i].Provider, nil
		}
	}

	return "", fmt.Errorf("unknown model '%s': no known provider mapping or pattern match - cannot determine API provider", modelName)
}

// GetModelInfo returns the ModelInfo for a given model name.
// Returns false with conservative defaults and an inferred provider when the model is unknown.
func GetModelInfo(modelName string) (ModelInfo, bool) {
	if info, exists := KnownModels[modelName]; exists {
		return info, true
	}

	provider, _ := GetModelProvider(modelName)
	return ModelInfo{
		Provider:         provider,
		MaxContextTokens: 32000,
		MaxOutputTokens:  4096,
	}, false
}

const (
	// Model name constants.
	ModelGPT4oMini          = "gpt-4o-mini"
	ModelGPT4o              = "gpt-4o"
	ModelClaudeSonnet4      = "claude-sonnet-4-5"
	ModelClaudeHaiku45      = "claude-haiku-4-5"
	ModelClaudeSonnetLatest = ModelClaudeSonnet4
	ModelGemini25Flash      = "gemini-2.5-flash"
	DefaultModel            = ModelGPT4oMini

	// Interview defaults.
	DefaultGeneralQuestions = 3
	DefaultResumeMinChars   = 100
	DefaultResumeMaxChars   = 10000
	DefaultAnswerMaxChars   = 1000

	// LLM call defaults.
	DefaultLLMTimeout  = 60 * time.Second
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.3

	// WebUI defaults.
	DefaultWebUIHost = "localhost"
	DefaultWebUIPort = 8080

	// Metrics defaults.
	DefaultPrometheusURL = "http://localhost:9090"

	// Project config constants.
	ProjectConfigFilename = "config.json"
	ProjectConfigDir      = ".talentscout"
	DatabaseFilename      = "talentscout.db"
	PromptsFilename       = "prompts.yaml"
	SchemaVersion         = "1.0"

	// Provider constants.
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"

	// API key environment variable names.
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvGoogleAPIKey    = "GOOGLE_GENAI_API_KEY"
	EnvOllamaHost      = "OLLAMA_HOST"
)

// ModelsConfig selects the model used for each kind of call.
type ModelsConfig struct {
	Interview string `json:"interview"` // Intake, question generation, judgment
	Vision    string `json:"vision"`    // Drawing analysis
	Report    string `json:"report"`    // Per-conversation and overall summaries
}

// InterviewConfig holds the interview shape and input limits.
type InterviewConfig struct {
	GeneralQuestions int `json:"general_questions"` // Question set size is this plus debugging and drawing
	ResumeMinChars   int `json:"resume_min_chars"`
	ResumeMaxChars   int `json:"resume_max_chars"`
	AnswerMaxChars   int `json:"answer_max_chars"`
}

// QuestionCount returns the total number of questions in a set.
func (c *InterviewConfig) QuestionCount() int {
	return c.GeneralQuestions + 2
}

// LLMConfig holds per-call settings applied by the client factory.
type LLMConfig struct {
	TimeoutSec  int      `json:"timeout_sec"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature *float32 `json:"temperature"` // nil means DefaultTemperature; 0 is a valid setting
}

// Timeout returns the per-call timeout as a duration.
func (c *LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// WebUIConfig configures the HTTP interface.
type WebUIConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

// MetricsConfig configures Prometheus recording and querying.
type MetricsConfig struct {
	Enabled       bool   `json:"enabled"`
	PrometheusURL string `json:"prometheus_url"`
}

// ArchiveConfig controls whether finished reports are stored in sqlite.
type ArchiveConfig struct {
	Enabled bool `json:"enabled"`
}

// Config is the complete persisted configuration.
type Config struct {
	SchemaVersion string           `json:"schema_version"`
	Models        *ModelsConfig    `json:"models"`
	Interview     *InterviewConfig `json:"interview"`
	LLM           *LLMConfig       `json:"llm"`
	WebUI         *WebUIConfig     `json:"webui"`
	Metrics       *MetricsConfig   `json:"metrics"`
	Archive       *ArchiveConfig   `json:"archive"`
}

// GetProjectDir returns the project directory set by LoadConfig.
func GetProjectDir() string {
	mu.RLock()
	defer mu.RUnlock()
	return projectDir
}

// GetProjectConfigDir returns <projectDir>/.talentscout.
func GetProjectConfigDir() (string, error) {
	dir := GetProjectDir()
	if dir == "" {
		return "", fmt.Errorf("project directory not set - call LoadConfig first")
	}
	return filepath.Join(dir, ProjectConfigDir), nil
}

// GetConfig returns the current global config BY VALUE (copy, not reference).
// Must call LoadConfig first to initialize the global config.
func GetConfig() (Config, error) {
	mu.RLock()
	defer mu.RUnlock()
	if config == nil {
		return Config{}, fmt.Errorf("config not initialized - call LoadConfig first")
	}
	return *config, nil
}

// SetConfigForTesting sets the global config for testing purposes.
// Pass nil to reset.
func SetConfigForTesting(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg != nil {
		applyDefaults(cfg)
	}
	config = cfg
	if cfg == nil {
		projectDir = ""
	}
}

// LoadConfig loads <projectDir>/.talentscout/config.json into the global singleton.
//
// Behavior:
// - Missing file: creates a new config with defaults and saves it
// - Existing file: loads and validates, applying defaults for missing fields
// - Unparseable file: returns an error to avoid overwriting user changes.
func LoadConfig(inputProjectDir string) error {
	mu.Lock()
	defer mu.Unlock()

	projectDir = inputProjectDir
	configPath := filepath.Join(projectDir, ProjectConfigDir, ProjectConfigFilename)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		getLogger().Info("📝 Config file not found, creating new config at %s", configPath)
		config = createDefaultConfig()
		if err := validateConfig(config); err != nil {
			return fmt.Errorf("default config validation failed: %w", err)
		}
		if err := saveConfigLocked(); err != nil {
			return fmt.Errorf("failed to save initial config: %w", err)
		}
		getLogger().Info("✅ New config file created and validated")
		return nil
	}

	getLogger().Info("📝 Loading config from %s", configPath)
	loadedConfig, err := loadConfigFromFile(configPath)
	if err != nil {
		return fmt.Errorf("fatal: config file exists but cannot be parsed (to avoid overwriting your changes): %w", err)
	}

	applyDefaults(loadedConfig)
	if err := validateConfig(loadedConfig); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config = loadedConfig

	if err := saveConfigLocked(); err != nil {
		return fmt.Errorf("failed to save config with applied defaults: %w", err)
	}

	getLogger().Info("✅ Config loaded and validated successfully")
	return nil
}

// UpdateModels replaces the model selection and persists to disk.
func UpdateModels(models *ModelsConfig) error {
	mu.Lock()
	defer mu.Unlock()
	if config == nil {
		return fmt.Errorf("config not initialized - call LoadConfig first")
	}

	old := config.Models
	config.Models = models
	applyDefaults(config)
	if err := validateConfig(config); err != nil {
		config.Models = old
		return fmt.Errorf("models config validation failed: %w", err)
	}
	return saveConfigLocked()
}

// UpdateInterview replaces the interview settings and persists to disk.
func UpdateInterview(interview *InterviewConfig) error {
	mu.Lock()
	defer mu.Unlock()
	if config == nil {
		return fmt.Errorf("config not initialized - call LoadConfig first")
	}

	old := config.Interview
	config.Interview = interview
	applyDefaults(config)
	if err := validateConfig(config); err != nil {
		config.Interview = old
		return fmt.Errorf("interview config validation failed: %w", err)
	}
	return saveConfigLocked()
}

func loadConfigFromFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON %s: %w", configPath, err)
	}
	return &cfg, nil
}

// SaveConfig saves config to <projectDir>/.talentscout/config.json.
func SaveConfig(cfg *Config, dir string) error {
	configPath := filepath.Join(dir, ProjectConfigDir, ProjectConfigFilename)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// saveConfigLocked persists the global config. Caller must hold mu.
func saveConfigLocked() error {
	if projectDir == "" {
		return nil
	}
	return SaveConfig(config, projectDir)
}

// NewDefaultConfig returns a config with every default applied, without touching the global.
func NewDefaultConfig() *Config {
	return createDefaultConfig()
}

func createDefaultConfig() *Config {
	cfg := &Config{SchemaVersion: SchemaVersion}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SchemaVersion
	}
	if cfg.Models == nil {
		cfg.Models = &ModelsConfig{}
	}
	if cfg.Interview == nil {
		cfg.Interview = &InterviewConfig{}
	}
	if cfg.LLM == nil {
		cfg.LLM = &LLMConfig{}
	}
	if cfg.WebUI == nil {
		cfg.WebUI = &WebUIConfig{Enabled: true}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Archive == nil {
		cfg.Archive = &ArchiveConfig{Enabled: true}
	}

	if cfg.Models.Interview == "" {
		cfg.Models.Interview = DefaultModel
	}
	if cfg.Models.Vision == "" {
		cfg.Models.Vision = cfg.Models.Interview
	}
	if cfg.Models.Report == "" {
		cfg.Models.Report = cfg.Models.Interview
	}

	if cfg.Interview.GeneralQuestions == 0 {
		cfg.Interview.GeneralQuestions = DefaultGeneralQuestions
	}
	if cfg.Interview.ResumeMinChars == 0 {
		cfg.Interview.ResumeMinChars = DefaultResumeMinChars
	}
	if cfg.Interview.ResumeMaxChars == 0 {
		cfg.Interview.ResumeMaxChars = DefaultResumeMaxChars
	}
	if cfg.Interview.AnswerMaxChars == 0 {
		cfg.Interview.AnswerMaxChars = DefaultAnswerMaxChars
	}

	if cfg.LLM.TimeoutSec == 0 {
		cfg.LLM.TimeoutSec = int(DefaultLLMTimeout / time.Second)
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = DefaultMaxTokens
	}
	if cfg.LLM.Temperature == nil {
		temperature := float32(DefaultTemperature)
		cfg.LLM.Temperature = &temperature
	}

	if cfg.WebUI.Host == "" {
		cfg.WebUI.Host = DefaultWebUIHost
	}
	if cfg.WebUI.Port == 0 {
		cfg.WebUI.Port = DefaultWebUIPort
	}

	if cfg.Metrics.PrometheusURL == "" {
		cfg.Metrics.PrometheusURL = DefaultPrometheusURL
	}
}

func validateConfig(cfg *Config) error {
	getLogger().Debug("📋 Validating config structure")

	for role, model := range map[string]string{
		"interview": cfg.Models.Interview,
		"vision":    cfg.Models.Vision,
		"report":    cfg.Models.Report,
	} {
		if _, err := GetModelProvider(model); err != nil {
			return fmt.Errorf("models.%s: %w", role, err)
		}
	}
	if info, known := GetModelInfo(cfg.Models.Vision); known && !info.Vision {
		return fmt.Errorf("models.vision: model %s does not accept images", cfg.Models.Vision)
	}

	if cfg.Interview.GeneralQuestions < 1 {
		return fmt.Errorf("interview.general_questions must be at least 1 (got %d)", cfg.Interview.GeneralQuestions)
	}
	if cfg.Interview.ResumeMinChars >= cfg.Interview.ResumeMaxChars {
		return fmt.Errorf("interview.resume_min_chars (%d) must be below resume_max_chars (%d)",
			cfg.Interview.ResumeMinChars, cfg.Interview.ResumeMaxChars)
	}
	if cfg.Interview.AnswerMaxChars < 1 {
		return fmt.Errorf("interview.answer_max_chars must be positive (got %d)", cfg.Interview.AnswerMaxChars)
	}

	if cfg.LLM.TimeoutSec < 1 {
		return fmt.Errorf("llm.timeout_sec must be positive (got %d)", cfg.LLM.TimeoutSec)
	}
	if t := cfg.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("llm.temperature must be between 0 and 2 (got %.2f)", *t)
	}

	if cfg.WebUI.Enabled && (cfg.WebUI.Port <= 0 || cfg.WebUI.Port > 65535) {
		return fmt.Errorf("webui port must be between 1 and 65535 (got %d)", cfg.WebUI.Port)
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.PrometheusURL, "http") {
		return fmt.Errorf("metrics.prometheus_url must be an http(s) URL (got %q)", cfg.Metrics.PrometheusURL)
	}
	return nil
}

// CalculateCost calculates the cost in USD for a given model and token usage.
// Returns 0 for unknown models.
func CalculateCost(modelName string, promptTokens, completionTokens int) float64 {
	info, exists := KnownModels[modelName]
	if !exists {
		return 0.0
	}
	inputCost := (float64(promptTokens) / 1_000_000.0) * info.InputCPM
	outputCost := (float64(completionTokens) / 1_000_000.0) * info.OutputCPM
	return inputCost + outputCost
}

// GetAPIKey returns the API key for a given provider.
// Checks the secrets file first, then environment variables.
// For Ollama, returns the host URL instead of an API key.
func GetAPIKey(provider string) (string, error) {
	var envVar string
	switch provider {
	case ProviderAnthropic:
		envVar = EnvAnthropicAPIKey
	case ProviderOpenAI:
		envVar = EnvOpenAIAPIKey
	case ProviderGoogle:
		envVar = EnvGoogleAPIKey
	case ProviderOllama:
		host := os.Getenv(EnvOllamaHost)
		if host == "" {
			host = "http://localhost:11434"
		}
		return host, nil
	default:
		return "", fmt.Errorf("unknown provider: %s", provider)
	}

	key, err := GetSecret(envVar)
	if err == nil && key != "" {
		return key, nil
	}

	return "", fmt.Errorf("API key not found: %s not found in secrets file or environment variables", envVar)
}

// APIKeyEnvVar returns the secret name holding the key for provider, or "" for keyless providers.
func APIKeyEnvVar(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return EnvAnthropicAPIKey
	case ProviderOpenAI:
		return EnvOpenAIAPIKey
	case ProviderGoogle:
		return EnvGoogleAPIKey
	default:
		return ""
	}
}
