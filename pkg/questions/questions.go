// Package questions generates the ordered question set for an interview.
package questions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/effect"
	"talentscout/pkg/intake"
	"talentscout/pkg/logx"
	"talentscout/pkg/prompts"
	"talentscout/pkg/workflow"
)

// Kind is the role a question plays in the set.
type Kind string

const (
	KindGeneral   Kind = "general"
	KindDebugging Kind = "debugging"
	KindDrawing   Kind = "drawing"
)

// Question is one interview question.
type Question struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Set is the fixed-shape question list: general questions, then one debugging
// question, then the drawing question last.
type Set []Question

// Validate checks the shape of the set.
func (s Set) Validate() error {
	if len(s) < 2 {
		return fmt.Errorf("question set has %d questions, need at least 2", len(s))
	}
	for i, q := range s {
		want := KindGeneral
		switch i {
		case len(s) - 1:
			want = KindDrawing
		case len(s) - 2:
			want = KindDebugging
		}
		if q.Kind != want {
			return fmt.Errorf("question %d is %s, expected %s", i, q.Kind, want)
		}
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("question %d is empty", i)
		}
	}
	return nil
}

// IsDrawing reports whether index i is the drawing question.
func (s Set) IsDrawing(i int) bool {
	return i >= 0 && i < len(s) && s[i].Kind == KindDrawing
}

// Texts returns the question texts in order.
func (s Set) Texts() []string {
	out := make([]string, len(s))
	for i, q := range s {
		out[i] = q.Text
	}
	return out
}

//nolint:gochecknoglobals // fixed response schema
var questionsSchema = llm.ObjectSchema("questions", map[string]any{
	"questions": llm.StringArray,
})

type questionsResult struct {
	Questions []string `json:"questions"`
}

func (r *questionsResult) Validate() error {
	if len(r.Questions) == 0 {
		return errors.New("no questions returned")
	}
	for i, q := range r.Questions {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("question %d is empty", i)
		}
	}
	return nil
}

// Generator produces question sets from a candidate overview.
type Generator struct {
	models  effect.Models
	logger  *logx.Logger
	general int
}

// NewGenerator creates a Generator that asks for general general questions.
func NewGenerator(models effect.Models, general int) *Generator {
	return &Generator{
		models:  models,
		general: general,
		logger:  logx.NewLogger("questions"),
	}
}

// Generate makes the general, debugging and drawing sub-calls in that order.
// Any failure aborts generation and no partial set is returned.
func (g *Generator) Generate(ctx context.Context, overview intake.Overview) (Set, error) {
	if strings.TrimSpace(string(overview)) == "" {
		return nil, workflow.Errorf(workflow.StageQuestions, workflow.KindValidation, "candidate overview is empty")
	}

	general, err := g.ask(ctx, prompts.GeneralQuestions, overview)
	if err != nil {
		return nil, err
	}
	debugging, err := g.ask(ctx, prompts.DebuggingQuestion, overview)
	if err != nil {
		return nil, err
	}
	drawing, err := g.ask(ctx, prompts.DrawingQuestion, overview)
	if err != nil {
		return nil, err
	}

	set := make(Set, 0, len(general)+2)
	for _, text := range general {
		set = append(set, Question{Kind: KindGeneral, Text: text})
	}
	set = append(set,
		Question{Kind: KindDebugging, Text: debugging[0]},
		Question{Kind: KindDrawing, Text: drawing[0]},
	)

	if len(general) != g.general {
		g.logger.Warn("⚠️ Asked for %d general questions, model returned %d", g.general, len(general))
	}
	g.logger.Info("❓ Generated %d questions", len(set))
	return set, nil
}

func (g *Generator) ask(ctx context.Context, name prompts.Name, overview intake.Overview) ([]string, error) {
	var out questionsResult
	data := &prompts.Data{Overview: string(overview), Count: g.general}
	if err := g.models.Structured(ctx, llm.StageQuestions, name, data, questionsSchema, &out); err != nil {
		return nil, workflow.FromLLM(workflow.StageQuestions, err, fmt.Sprintf("%s failed", name))
	}
	return out.Questions, nil
}
