package effect

import (
	"context"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/prompts"
)

// AnalyzeDrawingEffect describes the candidate's drawing for the drawing question.
type AnalyzeDrawingEffect struct {
	Question string
	Image    llm.Image
}

// DrawingAnalysis is the model's description of the drawing.
type DrawingAnalysis struct {
	Text string
}

// Execute sends the drawing to the vision model.
func (e *AnalyzeDrawingEffect) Execute(ctx context.Context, runtime Runtime) (any, error) {
	text, err := runtime.DescribeImage(ctx, prompts.DrawingAnalysis, &prompts.Data{Question: e.Question}, e.Image)
	if err != nil {
		return nil, err //nolint:wrapcheck // classified by llmerrors
	}
	runtime.Info("🖼️ Drawing analysed (%d chars)", len(text))
	return &DrawingAnalysis{Text: text}, nil
}

// Type returns the effect type identifier.
func (e *AnalyzeDrawingEffect) Type() string {
	return "analyze_drawing"
}
