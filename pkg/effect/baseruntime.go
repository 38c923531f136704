package effect

import (
	"context"
	"fmt"
	"strings"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/agent/llmerrors"
	"talentscout/pkg/logx"
	"talentscout/pkg/prompts"
)

// Clients holds the model client for each role. Vision and Report fall back to Interview.
type Clients struct {
	Interview llm.LLMClient
	Vision    llm.LLMClient
	Report    llm.LLMClient
}

// BaseRuntime provides the standard implementation of Runtime.
type BaseRuntime struct {
	clients   Clients
	prompts   *prompts.Renderer
	logger    *logx.Logger
	sessionID string
}

// NewBaseRuntime creates a new BaseRuntime with the specified dependencies.
func NewBaseRuntime(clients Clients, renderer *prompts.Renderer, logger *logx.Logger, sessionID string) *BaseRuntime {
	if clients.Vision == nil {
		clients.Vision = clients.Interview
	}
	if clients.Report == nil {
		clients.Report = clients.Interview
	}
	return &BaseRuntime{
		clients:   clients,
		prompts:   renderer,
		logger:    logger,
		sessionID: sessionID,
	}
}

// Render implements the Models interface.
func (r *BaseRuntime) Render(name prompts.Name, data *prompts.Data) (prompts.Prompt, error) {
	return r.prompts.Render(name, data) //nolint:wrapcheck // renderer errors name the prompt
}

// Structured implements the Models interface.
func (r *BaseRuntime) Structured(ctx context.Context, stage string, name prompts.Name, data *prompts.Data,
	schema llm.Schema, out llm.Result) error {
	p, err := r.prompts.Render(name, data)
	if err != nil {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeBadPrompt, err, fmt.Sprintf("failed to render %s", name))
	}

	client := r.clients.Interview
	if stage == llm.StageReport {
		client = r.clients.Report
	}

	r.logger.Debug("🔄 %s: %s → %s", stage, name, client.GetModelName())
	if err := llm.CompleteStructured(r.label(ctx, stage), client, p.System, p.User, schema, out); err != nil {
		r.logger.Error("❌ %s call %s failed: %v", stage, name, err)
		return err //nolint:wrapcheck // classified by llmerrors
	}
	return nil
}

// DescribeImage implements the Models interface.
func (r *BaseRuntime) DescribeImage(ctx context.Context, name prompts.Name, data *prompts.Data, image llm.Image) (string, error) {
	p, err := r.prompts.Render(name, data)
	if err != nil {
		return "", llmerrors.NewErrorWithCause(llmerrors.ErrorTypeBadPrompt, err, fmt.Sprintf("failed to render %s", name))
	}

	messages := make([]llm.CompletionMessage, 0, 2)
	if p.System != "" {
		messages = append(messages, llm.NewSystemMessage(p.System))
	}
	messages = append(messages, llm.NewImageMessage(p.User, image))

	r.logger.Debug("🖼️ vision: %s (%d bytes %s) → %s", name, len(image.Data), image.MIMEType, r.clients.Vision.GetModelName())
	resp, err := r.clients.Vision.Complete(r.label(ctx, llm.StageVision), llm.NewCompletionRequest(messages))
	if err != nil {
		r.logger.Error("❌ vision call %s failed: %v", name, err)
		return "", err //nolint:wrapcheck // classified by the provider client
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "image analysis returned no text")
	}
	return text, nil
}

func (r *BaseRuntime) label(ctx context.Context, stage string) context.Context {
	ctx = llm.WithStage(ctx, stage)
	if r.sessionID != "" {
		ctx = llm.WithSessionID(ctx, r.sessionID)
	}
	return ctx
}

// Info implements the Logging interface.
func (r *BaseRuntime) Info(msg string, args ...any) {
	r.logger.Info(msg, args...)
}

// Error implements the Logging interface.
func (r *BaseRuntime) Error(msg string, args ...any) {
	r.logger.Error(msg, args...)
}

// Debug implements the Logging interface.
func (r *BaseRuntime) Debug(msg string, args ...any) {
	r.logger.Debug(msg, args...)
}

// DebugState implements the Logging interface.
func (r *BaseRuntime) DebugState(from, to, event string) {
	r.logger.DebugState(from, to, event)
}

// SessionID implements the SessionInfo interface.
func (r *BaseRuntime) SessionID() string {
	return r.sessionID
}

// WithSession returns a copy of the runtime labelled with sessionID and logging through logger.
func (r *BaseRuntime) WithSession(sessionID string, logger *logx.Logger) *BaseRuntime {
	cp := *r
	cp.sessionID = sessionID
	if logger != nil {
		cp.logger = logger
	}
	return &cp
}

// Verify that BaseRuntime implements Runtime interface.
var _ Runtime = (*BaseRuntime)(nil)
