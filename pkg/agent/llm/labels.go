package llm

import "context"

type labelKey int

const (
	stageKey labelKey = iota
	sessionKey
)

// Stage names used to label LLM calls in logs and metrics.
const (
	StageIntake    = "intake"
	StageQuestions = "questions"
	StageJudgment  = "judgment"
	StageVision    = "vision"
	StageReport    = "report"
	StageKeyCheck  = "key_check"
)

// WithStage labels calls made under ctx with the workflow stage.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// StageFrom returns the stage label, or "unknown".
func StageFrom(ctx context.Context) string {
	if s, ok := ctx.Value(stageKey).(string); ok && s != "" {
		return s
	}
	return "unknown"
}

// WithSessionID labels calls made under ctx with the interview session.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionID)
}

// SessionIDFrom returns the session label, or "" outside a session.
func SessionIDFrom(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey).(string)
	return s
}
