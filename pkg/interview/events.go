package interview

import (
	"talentscout/pkg/agent/llm"
	"talentscout/pkg/questions"
)

// Event is an input to the state machine.
type Event interface {
	EventName() string
}

// Start begins the interview with a generated question set.
type Start struct {
	Questions questions.Set
}

// SubmitAnswer is a candidate turn.
type SubmitAnswer struct {
	Text string
}

// SetDrawing replaces the drawing for the drawing question. Empty Data clears it.
type SetDrawing struct {
	Image llm.Image
}

// ConfirmAdvance is the operator moving on to the next question.
type ConfirmAdvance struct{}

// DrawingAnalyzed carries the vision model's description of the drawing.
type DrawingAnalyzed struct {
	Analysis string
}

// AnswerJudged carries the judgment model's reaction to the pending answer.
type AnswerJudged struct {
	Reaction string
	Continue bool
}

func (Start) EventName() string           { return "start" }
func (SubmitAnswer) EventName() string    { return "submit_answer" }
func (SetDrawing) EventName() string      { return "set_drawing" }
func (ConfirmAdvance) EventName() string  { return "confirm_advance" }
func (DrawingAnalyzed) EventName() string { return "drawing_analyzed" }
func (AnswerJudged) EventName() string    { return "answer_judged" }
