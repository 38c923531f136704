package agent

import (
	"context"
	"fmt"

	"talentscout/pkg/agent/internal/llmimpl/anthropic"
	"talentscout/pkg/agent/internal/llmimpl/google"
	"talentscout/pkg/agent/internal/llmimpl/ollama"
	"talentscout/pkg/agent/internal/llmimpl/openaiofficial"
	"talentscout/pkg/agent/llm"
	"talentscout/pkg/agent/llmerrors"
	"talentscout/pkg/agent/middleware/logging"
	"talentscout/pkg/agent/middleware/metrics"
	"talentscout/pkg/agent/middleware/timeout"
	"talentscout/pkg/agent/middleware/validation"
	"talentscout/pkg/config"
	"talentscout/pkg/logx"
)

// Role selects which configured model a client serves.
type Role string

const (
	RoleInterview Role = "interview" // intake, questions, judgment
	RoleVision    Role = "vision"    // drawing analysis
	RoleReport    Role = "report"    // conversation and overall summaries
)

// LLMClientFactory creates LLM clients with properly configured middleware chains.
type LLMClientFactory struct {
	config          config.Config
	metricsRecorder metrics.Recorder
	logger          *logx.Logger
}

// NewLLMClientFactory creates a new LLM client factory with the given configuration.
// A nil recorder disables metrics.
func NewLLMClientFactory(cfg config.Config, recorder metrics.Recorder) (*LLMClientFactory, error) {
	if cfg.Models == nil || cfg.LLM == nil {
		return nil, fmt.Errorf("config is missing models or llm sections")
	}
	if recorder == nil {
		recorder = metrics.Nop()
	}
	return &LLMClientFactory{
		config:          cfg,
		metricsRecorder: recorder,
		logger:          logx.NewLogger("llm-factory"),
	}, nil
}

// ModelFor returns the configured model name for role.
func (f *LLMClientFactory) ModelFor(role Role) (string, error) {
	switch role {
	case RoleInterview:
		return f.config.Models.Interview, nil
	case RoleVision:
		return f.config.Models.Vision, nil
	case RoleReport:
		return f.config.Models.Report, nil
	default:
		return "", fmt.Errorf("unsupported client role: %s", role)
	}
}

// CreateClient creates an LLM client for role with the full middleware chain.
// The API key is resolved from the secrets file or environment for the model's provider.
func (f *LLMClientFactory) CreateClient(role Role) (llm.LLMClient, error) {
	modelName, err := f.ModelFor(role)
	if err != nil {
		return nil, err
	}
	return f.CreateClientForModel(modelName)
}

// CreateClientForModel creates a client for an explicit model name.
func (f *LLMClientFactory) CreateClientForModel(modelName string) (llm.LLMClient, error) {
	provider, err := config.GetModelProvider(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to determine provider for model %s: %w", modelName, err)
	}

	apiKey, err := config.GetAPIKey(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get API key for provider %s: %w", provider, err)
	}

	var rawClient llm.LLMClient
	switch provider {
	case config.ProviderOpenAI:
		rawClient = openaiofficial.NewOfficialClientWithModel(apiKey, modelName)
	case config.ProviderAnthropic:
		rawClient = anthropic.NewClaudeClientWithModel(apiKey, modelName)
	case config.ProviderGoogle:
		rawClient = google.NewGeminiClientWithModel(apiKey, modelName)
	case config.ProviderOllama:
		rawClient = ollama.NewOllamaClientWithModel(apiKey, modelName)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	return f.wrap(rawClient, provider), nil
}

// wrap builds the middleware chain in order:
// Metrics -> Logging -> Timeout -> RequestParams -> EmptyResponse -> RawClient.
func (f *LLMClientFactory) wrap(rawClient llm.LLMClient, provider string) llm.LLMClient {
	return llm.Chain(rawClient,
		metrics.Middleware(f.metricsRecorder, provider, nil, nil),
		logging.Middleware(f.logger),
		timeout.Middleware(f.config.LLM.Timeout()),
		requestParams(f.config.LLM),
		validation.NewEmptyResponseValidator().Middleware(),
	)
}

// CheckKey verifies the credentials of the provider behind role.
func (f *LLMClientFactory) CheckKey(ctx context.Context, role Role) error {
	modelName, err := f.ModelFor(role)
	if err != nil {
		return err
	}
	provider, err := config.GetModelProvider(modelName)
	if err != nil {
		return fmt.Errorf("failed to determine provider for model %s: %w", modelName, err)
	}
	apiKey, err := config.GetAPIKey(provider)
	if err != nil {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeAuth, err, fmt.Sprintf("no API key for %s: %v", modelName, err))
	}

	client, err := f.CreateClientForModel(modelName)
	if err != nil {
		return err
	}
	return llm.CheckKey(ctx, client, apiKey) //nolint:wrapcheck // already classified
}

// requestParams applies the configured temperature and caps max tokens.
func requestParams(cfg *config.LLMConfig) llm.Middleware {
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				if cfg.Temperature != nil {
					req.Temperature = *cfg.Temperature
				}
				if cfg.MaxTokens > 0 && req.MaxTokens > cfg.MaxTokens {
					req.MaxTokens = cfg.MaxTokens
				}
				return next.Complete(ctx, req)
			},
			next.GetModelName,
		)
	}
}
