// Package interview implements the interview session state machine.
//
// Apply is a pure transition function: it takes a State and an Event and returns the
// next State plus the effects (model calls) needed to continue. Drive executes those
// effects and feeds their results back as events, returning the original State
// untouched if any step fails.
package interview

import (
	"fmt"
	"slices"
	"strings"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/questions"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerInterviewer Speaker = "interviewer"
	SpeakerCandidate   Speaker = "candidate"
)

// Turn is one chat message.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Conversation is the ordered turns for one question. Its first turn is always the
// interviewer asking the question.
type Conversation []Turn

// Transcript renders the conversation as "speaker: text" lines.
func (c Conversation) Transcript() string {
	var b strings.Builder
	for _, t := range c {
		fmt.Fprintf(&b, "%s: %s\n", t.Speaker, t.Text)
	}
	return b.String()
}

// CandidateTurns counts the candidate's answers.
func (c Conversation) CandidateTurns() int {
	n := 0
	for _, t := range c {
		if t.Speaker == SpeakerCandidate {
			n++
		}
	}
	return n
}

const (
	// NotStarted is the question index before the interview starts.
	NotStarted = -1
	// MaxTurns bounds a conversation: the question plus two answer/reaction pairs.
	MaxTurns = 5
	// CappedTurn is the turn count of the second candidate answer. Judgment at this turn
	// always advances.
	CappedTurn = 4
)

// State is the interview session state.
type State struct {
	Questions questions.Set
	// Index is NotStarted before the interview and len(Questions) once finished.
	Index     int
	Current   Conversation
	Completed []Conversation
	// PendingAdvance is set when the current question is done and waits for the
	// operator to confirm the advance.
	PendingAdvance bool
	// Drawing is the candidate's sketch for the drawing question.
	Drawing *llm.Image

	step *answerStep
}

// answerStep is a candidate answer whose model calls are still running.
type answerStep struct {
	answer   string
	analysis string
	phase    Phase
}

// NewState returns a state that has not started.
func NewState() State {
	return State{Index: NotStarted}
}

// Phase is the coarse position of the state machine.
type Phase string

const (
	PhaseNotStarted     Phase = "NOT_STARTED"
	PhaseAwaitingAnswer Phase = "AWAITING_ANSWER"
	PhaseAnalyzing      Phase = "ANALYZING_DRAWING"
	PhaseJudging        Phase = "JUDGING"
	PhaseReadyToAdvance Phase = "READY_TO_ADVANCE"
	PhaseFinished       Phase = "FINISHED"
)

// TransitionTable lists the phases reachable from each phase.
type TransitionTable map[Phase][]Phase

// ValidTransitions is the interview transition table.
//
//nolint:gochecknoglobals // static transition table
var ValidTransitions = TransitionTable{
	PhaseNotStarted:     {PhaseAwaitingAnswer},
	PhaseAwaitingAnswer: {PhaseAwaitingAnswer, PhaseAnalyzing, PhaseJudging},
	PhaseAnalyzing:      {PhaseJudging},
	PhaseJudging:        {PhaseAwaitingAnswer, PhaseReadyToAdvance},
	PhaseReadyToAdvance: {PhaseAwaitingAnswer, PhaseFinished},
	PhaseFinished:       {},
}

// IsValidTransition reports whether the table allows from → to.
func (t TransitionTable) IsValidTransition(from, to Phase) bool {
	return slices.Contains(t[from], to)
}

// Phase derives the phase from the state fields.
func (s *State) Phase() Phase {
	switch {
	case s.Index == NotStarted:
		return PhaseNotStarted
	case s.Index >= len(s.Questions):
		return PhaseFinished
	case s.step != nil:
		return s.step.phase
	case s.PendingAdvance:
		return PhaseReadyToAdvance
	default:
		return PhaseAwaitingAnswer
	}
}

// Started reports whether the interview has begun.
func (s *State) Started() bool {
	return s.Index != NotStarted
}

// Finished reports whether every question has been completed.
func (s *State) Finished() bool {
	return s.Started() && s.Index >= len(s.Questions)
}

// CurrentQuestion returns the question being asked, or "" outside InProgress.
func (s *State) CurrentQuestion() string {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return ""
	}
	return s.Questions[s.Index].Text
}

// OnDrawingQuestion reports whether the current question is the drawing question.
func (s *State) OnDrawingQuestion() bool {
	return s.Questions.IsDrawing(s.Index)
}

// Clone returns a deep copy. Apply never mutates its input.
func (s *State) Clone() State {
	cp := *s
	cp.Current = slices.Clone(s.Current)
	if s.Completed != nil {
		cp.Completed = make([]Conversation, len(s.Completed))
		for i, c := range s.Completed {
			cp.Completed[i] = slices.Clone(c)
		}
	}
	if s.step != nil {
		step := *s.step
		cp.step = &step
	}
	return cp
}
