// Package validation provides response validation middleware for LLM clients.
package validation

import (
	"context"
	"strings"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/agent/llmerrors"
	"talentscout/pkg/logx"
)

// EmptyResponseValidator turns blank completions into ErrorTypeEmptyResponse so callers
// see a classified failure instead of decoding an empty string.
type EmptyResponseValidator struct {
	logger *logx.Logger
}

// NewEmptyResponseValidator creates a validator that logs through the llm-validation component.
func NewEmptyResponseValidator() *EmptyResponseValidator {
	return &EmptyResponseValidator{logger: logx.NewLogger("llm-validation")}
}

// Middleware returns a middleware function that rejects empty responses.
// There is no automatic retry; the failed step is handed back to the operator.
func (v *EmptyResponseValidator) Middleware() llm.Middleware {
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				resp, err := next.Complete(ctx, req)
				if err != nil {
					return resp, err //nolint:wrapcheck // Middleware intentionally passes through errors unchanged
				}
				if !isEmptyResponse(resp) {
					return resp, nil
				}

				v.logger.Warn("⚠️ EMPTY RESPONSE DETECTED: model=%s stage=%s stop_reason=%s",
					next.GetModelName(), llm.StageFrom(ctx), resp.StopReason)
				return llm.CompletionResponse{}, llmerrors.NewError(
					llmerrors.ErrorTypeEmptyResponse,
					"model returned no content",
				)
			},
			next.GetModelName,
		)
	}
}

func isEmptyResponse(resp llm.CompletionResponse) bool {
	return strings.TrimSpace(resp.Content) == ""
}
