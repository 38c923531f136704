package interview

import (
	"fmt"
	"slices"
	"strings"

	"talentscout/pkg/effect"
	"talentscout/pkg/workflow"
)

// Apply computes the next state for ev. It never mutates s. When the returned effects
// are non-empty, the caller executes them and applies the resulting events.
func Apply(s State, ev Event) (State, []effect.Effect, error) {
	from := s.Phase()
	next, effects, err := apply(s.Clone(), ev)
	if err != nil {
		return s, nil, err
	}
	if to := next.Phase(); !ValidTransitions.IsValidTransition(from, to) {
		return s, nil, illegal("%s cannot move the interview from %s to %s", ev.EventName(), from, to)
	}
	return next, effects, nil
}

func apply(s State, ev Event) (State, []effect.Effect, error) {
	switch e := ev.(type) {
	case Start:
		return start(s, e)
	case SubmitAnswer:
		return submitAnswer(s, e)
	case SetDrawing:
		return setDrawing(s, e)
	case DrawingAnalyzed:
		return drawingAnalyzed(s, e)
	case AnswerJudged:
		return answerJudged(s, e)
	case ConfirmAdvance:
		return confirmAdvance(s)
	default:
		return s, nil, illegal("unknown event %T", ev)
	}
}

func start(s State, e Start) (State, []effect.Effect, error) {
	if s.Phase() != PhaseNotStarted {
		return s, nil, illegal("the interview has already started")
	}
	if err := e.Questions.Validate(); err != nil {
		return s, nil, workflow.Wrap(workflow.StageInterview, workflow.KindValidation, err, "invalid question set")
	}
	s.Questions = slices.Clone(e.Questions)
	s.Index = 0
	s.Completed = []Conversation{}
	s.PendingAdvance = false
	s.Drawing = nil
	s.Current = Conversation{{Speaker: SpeakerInterviewer, Text: s.Questions[0].Text}}
	return s, nil, nil
}

func submitAnswer(s State, e SubmitAnswer) (State, []effect.Effect, error) {
	if p := s.Phase(); p != PhaseAwaitingAnswer {
		return s, nil, illegal("answers are not accepted while %s", p)
	}
	if strings.TrimSpace(e.Text) == "" {
		return s, nil, workflow.Errorf(workflow.StageInterview, workflow.KindValidation, "answer is empty")
	}

	if s.OnDrawingQuestion() && s.Drawing != nil {
		s.step = &answerStep{answer: e.Text, phase: PhaseAnalyzing}
		return s, []effect.Effect{&effect.AnalyzeDrawingEffect{Question: s.CurrentQuestion(), Image: *s.Drawing}}, nil
	}

	s.step = &answerStep{answer: e.Text, phase: PhaseJudging}
	return s, []effect.Effect{judge(&s)}, nil
}

func setDrawing(s State, e SetDrawing) (State, []effect.Effect, error) {
	if p := s.Phase(); p != PhaseAwaitingAnswer {
		return s, nil, illegal("the drawing cannot change while %s", p)
	}
	if !s.OnDrawingQuestion() {
		return s, nil, illegal("question %d is not the drawing question", s.Index+1)
	}
	if len(e.Image.Data) == 0 {
		s.Drawing = nil
		return s, nil, nil
	}
	img := e.Image
	img.Data = slices.Clone(e.Image.Data)
	s.Drawing = &img
	return s, nil, nil
}

func drawingAnalyzed(s State, e DrawingAnalyzed) (State, []effect.Effect, error) {
	if p := s.Phase(); p != PhaseAnalyzing {
		return s, nil, illegal("no drawing analysis is pending (%s)", p)
	}
	analysis := strings.TrimSpace(e.Analysis)
	if analysis == "" {
		return s, nil, workflow.Errorf(workflow.StageInterview, workflow.KindSchema, "drawing analysis is empty")
	}
	s.step.analysis = analysis
	s.step.phase = PhaseJudging
	return s, []effect.Effect{judge(&s)}, nil
}

func answerJudged(s State, e AnswerJudged) (State, []effect.Effect, error) {
	if p := s.Phase(); p != PhaseJudging {
		return s, nil, illegal("no judgment is pending (%s)", p)
	}
	reaction := strings.TrimSpace(e.Reaction)
	if reaction == "" {
		return s, nil, workflow.Errorf(workflow.StageInterview, workflow.KindSchema, "judgment reaction is empty")
	}

	turnCount := len(s.Current) + 1
	advance := e.Continue || turnCount == CappedTurn

	s.Current = append(s.Current,
		Turn{Speaker: SpeakerCandidate, Text: s.step.answer},
		Turn{Speaker: SpeakerInterviewer, Text: reaction},
	)
	s.step = nil
	s.PendingAdvance = advance
	if len(s.Current) >= MaxTurns {
		s.PendingAdvance = true
	}
	return s, nil, nil
}

func confirmAdvance(s State) (State, []effect.Effect, error) {
	if p := s.Phase(); p != PhaseReadyToAdvance {
		return s, nil, illegal("cannot advance while %s", p)
	}
	s.Completed = append(s.Completed, s.Current)
	s.Current = nil
	s.Drawing = nil
	s.Index++
	s.PendingAdvance = false
	if s.Index < len(s.Questions) {
		s.Current = Conversation{{Speaker: SpeakerInterviewer, Text: s.Questions[s.Index].Text}}
	}
	return s, nil, nil
}

// judge builds the judgment call for the pending answer.
func judge(s *State) effect.Effect {
	turnCount := len(s.Current) + 1
	return &effect.JudgeAnswerEffect{
		Question:  s.CurrentQuestion(),
		Answer:    s.step.answer,
		Analysis:  s.step.analysis,
		TurnCount: turnCount,
		Capped:    turnCount == CappedTurn,
	}
}

func illegal(format string, args ...any) error {
	return workflow.Errorf(workflow.StageInterview, workflow.KindIllegal, "%s", fmt.Sprintf(format, args...))
}
