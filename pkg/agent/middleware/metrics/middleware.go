package metrics

import (
	"context"
	"errors"
	"time"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/agent/llmerrors"
	"talentscout/pkg/config"
	"talentscout/pkg/logx"
	"talentscout/pkg/utils"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// UsageExtractor returns the token usage of a completed request.
type UsageExtractor func(req llm.CompletionRequest, resp llm.CompletionResponse) (promptTokens, completionTokens int)

// DefaultUsageExtractor prefers provider-reported usage and falls back to TikToken counting.
//
//nolint:gocritic // request passed by value to match UsageExtractor
func DefaultUsageExtractor(req llm.CompletionRequest, resp llm.CompletionResponse) (promptTokens, completionTokens int) {
	if resp.PromptTokens > 0 || resp.CompletionTokens > 0 {
		return resp.PromptTokens, resp.CompletionTokens
	}

	parts := make([]string, 0, len(req.Messages))
	for i := range req.Messages {
		parts = append(parts, req.Messages[i].Content)
	}
	return utils.CountPromptTokens(parts...), utils.CountTokens(resp.Content)
}

// Middleware returns a middleware function that records metrics for LLM operations.
// Stage and session labels are read from the request context.
func Middleware(recorder Recorder, provider string, usageExtractor UsageExtractor, logger *logx.Logger) llm.Middleware {
	if usageExtractor == nil {
		usageExtractor = DefaultUsageExtractor
	}

	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				start := time.Now()
				resp, err := next.Complete(ctx, req)
				duration := time.Since(start)

				labels := Labels{
					Model:     next.GetModelName(),
					Provider:  provider,
					Stage:     llm.StageFrom(ctx),
					SessionID: llm.SessionIDFrom(ctx),
				}

				var promptTokens, completionTokens int
				var cost float64
				if err == nil {
					promptTokens, completionTokens = usageExtractor(req, resp)
					cost = config.CalculateCost(labels.Model, promptTokens, completionTokens)
				}

				recorder.ObserveRequest(labels, promptTokens, completionTokens, cost, err == nil, getErrorType(err), duration)

				if logger != nil {
					status := statusSuccess
					if err != nil {
						status = statusError
					}
					logger.Info("🎯 LLM Request: model=%s stage=%s session=%s tokens=%d+%d=%d status=%s duration=%dms",
						labels.Model, labels.Stage, labels.SessionID, promptTokens, completionTokens,
						promptTokens+completionTokens, status, duration.Milliseconds())
				}

				return resp, err //nolint:wrapcheck // Middleware should pass through errors unchanged
			},
			next.GetModelName,
		)
	}
}

// getErrorType classifies errors for metrics labeling.
func getErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	var llmErr *llmerrors.Error
	if errors.As(err, &llmErr) {
		return llmErr.Type.String()
	}
	return "unknown"
}
