// Package llm provides interfaces and types for Large Language Model client implementations.
package llm

import (
	"context"
	"encoding/base64"
	"fmt"
)

// CompletionRole represents the role of a message in a conversation.
type CompletionRole string

const (
	// RoleSystem indicates a system message that provides instructions or context.
	RoleSystem CompletionRole = "system"
	// RoleUser indicates a message from the human user.
	RoleUser CompletionRole = "user"
	// RoleAssistant indicates a message from the AI assistant.
	RoleAssistant CompletionRole = "assistant"
)

const (
	// DefaultMaxTokens bounds every interview call; answers and reactions are short.
	DefaultMaxTokens = 2048

	// TemperatureDefault is used for question generation, judgment and reports.
	TemperatureDefault = 0.3
)

// Image is an inline image attached to a user message.
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURL renders the image as a base64 data URL.
func (i Image) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIMEType, base64.StdEncoding.EncodeToString(i.Data))
}

// CompletionMessage represents a message in a completion request.
type CompletionMessage struct {
	Content string
	Images  []Image
	Role    CompletionRole
}

// Schema describes the JSON object a structured call must return.
// Definition is a JSON Schema object with every property required.
type Schema struct {
	Name       string
	Definition map[string]any
}

// CompletionRequest represents a request to generate a completion.
//
//nolint:govet // fieldalignment: value semantics preferred over pointer indirection
type CompletionRequest struct {
	Messages       []CompletionMessage
	ResponseSchema *Schema // nil for free text
	MaxTokens      int
	Temperature    float32
}

// CompletionResponse represents a response from a completion request.
type CompletionResponse struct {
	Content          string
	StopReason       string
	PromptTokens     int // 0 when the provider does not report usage
	CompletionTokens int
}

// LLMClient defines the interface for language model interactions.
type LLMClient interface { //nolint:revive // Keep name for backward compatibility
	// Complete generates a completion synchronously.
	Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error)

	// GetModelName returns the model name for this LLM client.
	GetModelName() string
}

// NewCompletionRequest creates a new completion request with default values.
func NewCompletionRequest(messages []CompletionMessage) CompletionRequest {
	return CompletionRequest{
		Messages:    messages,
		MaxTokens:   DefaultMaxTokens,
		Temperature: TemperatureDefault,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) CompletionMessage {
	return CompletionMessage{
		Role:    RoleSystem,
		Content: content,
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) CompletionMessage {
	return CompletionMessage{
		Role:    RoleUser,
		Content: content,
	}
}

// NewImageMessage creates a user message carrying text and one image.
func NewImageMessage(content string, image Image) CompletionMessage {
	return CompletionMessage{
		Role:    RoleUser,
		Content: content,
		Images:  []Image{image},
	}
}
