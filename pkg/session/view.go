package session

import (
	"time"

	"talentscout/pkg/intake"
	"talentscout/pkg/interview"
	"talentscout/pkg/questions"
	"talentscout/pkg/report"
	"talentscout/pkg/workflow"
)

// View is a read-only snapshot of a session for display.
type View struct {
	CreatedAt       time.Time                `json:"created_at"`
	Profile         *intake.Profile          `json:"profile,omitempty"`
	Report          *report.Report           `json:"report,omitempty"`
	ID              string                   `json:"id"`
	Status          Status                   `json:"status"`
	Stage           workflow.Stage           `json:"stage"`
	Phase           interview.Phase          `json:"phase"`
	Overview        string                   `json:"overview,omitempty"`
	CurrentQuestion string                   `json:"current_question,omitempty"`
	QuestionKind    questions.Kind           `json:"question_kind,omitempty"`
	Conversation    interview.Conversation   `json:"conversation"`
	Completed       []interview.Conversation `json:"completed"`
	QuestionIndex   int                      `json:"question_index"`
	QuestionCount   int                      `json:"question_count"`
	PendingAdvance  bool                     `json:"pending_advance"`
	HasDrawing      bool                     `json:"has_drawing"`
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.Clone()
	v := View{
		ID:              s.id,
		CreatedAt:       s.createdAt,
		Status:          s.status,
		Stage:           s.stageLocked(),
		Phase:           st.Phase(),
		Overview:        string(s.overview),
		Profile:         s.profile,
		Report:          s.report,
		CurrentQuestion: st.CurrentQuestion(),
		Conversation:    st.Current,
		Completed:       st.Completed,
		QuestionIndex:   st.Index,
		QuestionCount:   len(st.Questions),
		PendingAdvance:  st.PendingAdvance,
		HasDrawing:      st.Drawing != nil,
	}
	if st.Index >= 0 && st.Index < len(st.Questions) {
		v.QuestionKind = st.Questions[st.Index].Kind
	}
	if v.Conversation == nil {
		v.Conversation = interview.Conversation{}
	}
	if v.Completed == nil {
		v.Completed = []interview.Conversation{}
	}
	return v
}

// State returns a copy of the interview state.
func (s *Session) State() interview.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}
