// Package effect provides the executable side effects of the interview workflow.
// The interview state machine stays pure: it returns effects, and the session executes
// them against a Runtime and feeds the results back as events.
package effect

import (
	"context"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/prompts"
)

// Effect represents an executable unit that performs a model call using a Runtime.
type Effect interface {
	// Execute performs the effect using the provided runtime capabilities.
	Execute(ctx context.Context, runtime Runtime) (any, error)

	// Type returns a string identifier for this effect type (useful for logging/debugging).
	Type() string
}

// Runtime provides the capability surface that effects can use.
type Runtime interface {
	Models
	Logging
	SessionInfo
}

// Models provides the black-box model calls every workflow stage uses.
type Models interface {
	// Render renders a prompt template without calling a model.
	Render(name prompts.Name, data *prompts.Data) (prompts.Prompt, error)

	// Structured renders the named prompt, sends it to the model serving stage and
	// decodes the JSON reply into out.
	Structured(ctx context.Context, stage string, name prompts.Name, data *prompts.Data, schema llm.Schema, out llm.Result) error

	// DescribeImage sends the named prompt with an image attached and returns the model's text.
	DescribeImage(ctx context.Context, name prompts.Name, data *prompts.Data, image llm.Image) (string, error)
}

// Logging provides structured logging capabilities.
type Logging interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
	DebugState(from, to, event string)
}

// SessionInfo identifies the interview session the runtime serves.
type SessionInfo interface {
	// SessionID returns "" outside an interview session.
	SessionID() string
}
