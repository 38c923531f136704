package effect

import (
	"context"
	"errors"
	"strings"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/prompts"
)

//nolint:gochecknoglobals // fixed response schema
var judgmentSchema = llm.ObjectSchema("judgment", map[string]any{
	"next_question": llm.BooleanProperty,
	"response":      llm.StringProperty,
})

// JudgeAnswerEffect asks the model to react to a candidate answer and decide whether
// the question is done.
type JudgeAnswerEffect struct {
	Question string
	Answer   string // literal candidate text
	Analysis string // drawing analysis; non-empty only on the drawing question
	// TurnCount is the conversation length including the candidate turn being judged.
	TurnCount int
	// Capped selects the brief-reaction prompt used on the last allowed candidate turn.
	Capped bool
}

// Judgment is the model's reaction. Continue is the model's own decision; turn caps are
// applied by the state machine.
type Judgment struct {
	Reaction string
	Continue bool
}

type judgmentResult struct {
	NextQuestion *bool   `json:"next_question"`
	Response     *string `json:"response"`
}

func (r *judgmentResult) Validate() error {
	if r.NextQuestion == nil {
		return errors.New("next_question is missing")
	}
	if r.Response == nil || strings.TrimSpace(*r.Response) == "" {
		return errors.New("response is missing")
	}
	return nil
}

// Execute renders the judgment input and calls the model.
func (e *JudgeAnswerEffect) Execute(ctx context.Context, runtime Runtime) (any, error) {
	input := e.Answer
	if e.Analysis != "" {
		p, err := runtime.Render(prompts.DrawingAnswer, &prompts.Data{Analysis: e.Analysis, Answer: e.Answer})
		if err != nil {
			return nil, err //nolint:wrapcheck // renderer errors name the prompt
		}
		input = p.User
	}

	name := prompts.Judgment
	if e.Capped {
		name = prompts.JudgmentCapped
	}

	var out judgmentResult
	data := &prompts.Data{Question: e.Question, Answer: input}
	if err := runtime.Structured(ctx, llm.StageJudgment, name, data, judgmentSchema, &out); err != nil {
		return nil, err //nolint:wrapcheck // classified by llmerrors
	}

	runtime.Debug("⚖️ Judgment at turn %d: next_question=%t", e.TurnCount, *out.NextQuestion)
	return &Judgment{Continue: *out.NextQuestion, Reaction: strings.TrimSpace(*out.Response)}, nil
}

// Type returns the effect type identifier.
func (e *JudgeAnswerEffect) Type() string {
	return "judge_answer"
}
