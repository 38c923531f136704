// Package logging provides logging middleware for LLM clients.
package logging

import (
	"context"
	"time"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/agent/llmerrors"
	"talentscout/pkg/logx"
	"talentscout/pkg/utils"
)

const (
	// maxLoggedTokens bounds how much of a prompt is dumped on schema failures.
	maxLoggedTokens = 2000
	// maxFailedPromptChars bounds the prompt excerpt attached to transport failures.
	maxFailedPromptChars = 400
)

// Middleware returns a middleware function that logs each call at debug level and
// dumps the prompt when the response was unusable, then passes the error through unchanged.
func Middleware(logger *logx.Logger) llm.Middleware {
	if logger == nil {
		logger = logx.NewLogger("llm-middleware")
	}
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				stage := llm.StageFrom(ctx)
				logger.Debug("➡️ %s call to %s (%d messages, schema=%t)",
					stage, next.GetModelName(), len(req.Messages), req.ResponseSchema != nil)

				start := time.Now()
				resp, err := next.Complete(ctx, req)
				elapsed := time.Since(start)

				switch {
				case err == nil:
					logger.Debug("⬅️ %s call finished in %dms (%d chars)", stage, elapsed.Milliseconds(), len(resp.Content))
				case llmerrors.Is(err, llmerrors.ErrorTypeEmptyResponse), llmerrors.Is(err, llmerrors.ErrorTypeSchemaViolation):
					logger.Error("🚨 %s call returned an unusable response: %v", stage, err)
					logPrompt(logger, req)
				default:
					logger.Warn("❌ %s call failed after %dms: %v", stage, elapsed.Milliseconds(), err)
					if n := len(req.Messages); n > 0 {
						logger.Warn("Last message: %s", llmerrors.SanitizePrompt(req.Messages[n-1].Content, maxFailedPromptChars))
					}
				}

				//nolint:wrapcheck // Middleware intentionally passes through errors unchanged
				return resp, err
			},
			next.GetModelName,
		)
	}
}

//nolint:gocritic // logging helper takes the request by value like the middleware
func logPrompt(logger *logx.Logger, req llm.CompletionRequest) {
	logger.Error("📝 Prompt sent to LLM:")
	for i := range req.Messages {
		msg := &req.Messages[i]
		content := utils.TruncateToTokenLimit(msg.Content, maxLoggedTokens)
		logger.Error("Message [%d] Role: %s, Images: %d, Content: %s", i, msg.Role, len(msg.Images), content)
	}
	logger.Error("🔍 Temperature: %v, Max Tokens: %d", req.Temperature, req.MaxTokens)
}
