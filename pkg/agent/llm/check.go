package llm

import (
	"context"

	"talentscout/pkg/agent/llmerrors"
)

// CheckKey verifies a client's credentials with a minimal completion before an interview starts.
// An empty apiKey fails without calling the provider.
func CheckKey(ctx context.Context, client LLMClient, apiKey string) error {
	if apiKey == "" {
		return llmerrors.NewError(llmerrors.ErrorTypeAuth, "API key is empty")
	}
	req := NewCompletionRequest([]CompletionMessage{
		NewSystemMessage("Test"),
		NewUserMessage("Test"),
	})
	req.MaxTokens = 16
	if _, err := client.Complete(WithStage(ctx, StageKeyCheck), req); err != nil {
		return err //nolint:wrapcheck // classified by the provider client
	}
	return nil
}
