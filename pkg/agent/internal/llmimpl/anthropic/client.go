// Package anthropic provides Anthropic Claude client implementation for LLM interface.
package anthropic

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/agent/llmerrors"
	"talentscout/pkg/config"
)

// ClaudeClient wraps the Anthropic API client to implement llm.LLMClient interface.
type ClaudeClient struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewClaudeClient creates a new Claude client with the default model.
func NewClaudeClient(apiKey string) llm.LLMClient {
	return NewClaudeClientWithModel(apiKey, config.ModelClaudeSonnetLatest)
}

// NewClaudeClientWithModel creates a raw Claude client; middleware is applied by the factory.
func NewClaudeClientWithModel(apiKey, model string, opts ...option.RequestOption) llm.LLMClient {
	base := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	client := anthropic.NewClient(append(base, opts...)...)
	return &ClaudeClient{
		client: client,
		model:  anthropic.Model(model),
	}
}

// splitSystem extracts system messages to the top-level system parameter and merges
// consecutive user messages, since the Messages API requires strict alternation.
func splitSystem(messages []llm.CompletionMessage) (systemPrompt string, merged []llm.CompletionMessage, err error) {
	var systemParts []string
	for i := range messages {
		msg := messages[i]
		if msg.Role == llm.RoleSystem {
			systemParts = append(systemParts, msg.Content)
			continue
		}
		if n := len(merged); n > 0 && merged[n-1].Role == msg.Role && msg.Role != llm.RoleAssistant {
			merged[n-1].Content += "\n\n" + msg.Content
			merged[n-1].Images = append(merged[n-1].Images, msg.Images...)
			continue
		}
		merged = append(merged, msg)
	}

	if len(merged) == 0 {
		return "", nil, fmt.Errorf("must have at least one non-system message")
	}
	if merged[0].Role != llm.RoleUser || merged[len(merged)-1].Role != llm.RoleUser {
		return "", nil, fmt.Errorf("conversation must start and end with a user message")
	}
	return strings.Join(systemParts, "\n\n"), merged, nil
}

// Complete implements the llm.LLMClient interface.
//
//nolint:gocritic // CompletionRequest passed by value to match interface
func (c *ClaudeClient) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	systemPrompt, merged, err := splitSystem(in.Messages)
	if err != nil {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeBadPrompt, fmt.Sprintf("message alternation error: %v", err))
	}
	if in.ResponseSchema != nil {
		systemPrompt = strings.TrimSpace(systemPrompt + "\n\n" + llm.SchemaInstruction(in.ResponseSchema))
	}

	messages := make([]anthropic.MessageParam, 0, len(merged))
	for i := range merged {
		msg := &merged[i]
		blocks := make([]anthropic.ContentBlockParamUnion, 0, 1+len(msg.Images))
		for _, img := range msg.Images {
			blocks = append(blocks, anthropic.NewImageBlockBase64(img.MIMEType, base64.StdEncoding.EncodeToString(img.Data)))
		}
		blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
		messages = append(messages, anthropic.MessageParam{
			Role:    anthropic.MessageParamRole(msg.Role),
			Content: blocks,
		})
	}

	params := anthropic.MessageNewParams{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   int64(in.MaxTokens),
		Temperature: anthropic.Float(float64(in.Temperature)),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{
			Text: systemPrompt,
			Type: "text",
		}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, classifyError(err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "received empty or nil response from Claude API")
	}

	var responseText string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			responseText += block.AsText().Text
		}
	}

	return llm.CompletionResponse{
		Content:          responseText,
		StopReason:       string(resp.StopReason),
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}

func (c *ClaudeClient) GetModelName() string {
	return string(c.model)
}

func classifyError(err error) *llmerrors.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransport, err, "request timeout")
	}
	if errors.Is(err, context.Canceled) {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransport, err, "request canceled")
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		e := llmerrors.NewErrorWithCause(llmerrors.ClassifyStatus(apiErr.StatusCode), err,
			fmt.Sprintf("Claude API error (status %d)", apiErr.StatusCode))
		e.StatusCode = apiErr.StatusCode
		return e
	}

	lower := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "connection", "network", "eof", "reset"} {
		if strings.Contains(lower, marker) {
			return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransport, err, "network or connection error")
		}
	}
	return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeUnknown, err, "unclassified error")
}
