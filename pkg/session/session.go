// Package session owns one candidate's walk through the interview workflow:
// profile intake, question generation, the interview itself and the report.
package session

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/effect"
	"talentscout/pkg/intake"
	"talentscout/pkg/interview"
	"talentscout/pkg/logx"
	"talentscout/pkg/persistence"
	"talentscout/pkg/questions"
	"talentscout/pkg/report"
	"talentscout/pkg/workflow"
)

// Status reports whether the session is free to accept input.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusWaiting Status = "waiting"
)

// Archiver stores finished reports.
type Archiver interface {
	Save(ctx context.Context, e *persistence.Entry) error
}

// Options configures new sessions.
type Options struct {
	// Archive is optional; nil disables archiving.
	Archive          Archiver
	Model            string
	Resume           intake.Limits
	GeneralQuestions int
	AnswerMaxChars   int
}

// Session is the handle for one candidate. It processes one action at a time; an action
// arriving while a model call is in flight fails with KindBusy.
type Session struct {
	createdAt  time.Time
	archive    Archiver
	runtime    effect.Runtime
	logger     *logx.Logger
	analyzer   *intake.Analyzer
	generator  *questions.Generator
	aggregator *report.Aggregator
	profile    *intake.Profile
	report     *report.Report
	id         string
	model      string
	overview   intake.Overview
	status     Status
	state      interview.State
	answerMax  int
	mu         sync.Mutex
}

func newSession(id string, rt *effect.BaseRuntime, opts *Options) *Session {
	logger := logx.NewLogger("session-" + shortID(id))
	scoped := rt.WithSession(id, logger)
	return &Session{
		id:         id,
		createdAt:  time.Now().UTC(),
		archive:    opts.Archive,
		model:      opts.Model,
		answerMax:  opts.AnswerMaxChars,
		runtime:    scoped,
		logger:     logger,
		analyzer:   intake.NewAnalyzer(scoped, opts.Resume),
		generator:  questions.NewGenerator(scoped, opts.GeneralQuestions),
		aggregator: report.NewAggregator(scoped),
		status:     StatusIdle,
		state:      interview.NewState(),
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// begin marks the session busy. The returned func marks it idle again.
func (s *Session) begin(action string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusWaiting {
		return nil, workflow.Errorf(s.stageLocked(), workflow.KindBusy, "still waiting for the previous step; %s rejected", action)
	}
	s.status = StatusWaiting
	s.logger.Debug("⏳ %s", action)
	return func() {
		s.mu.Lock()
		s.status = StatusIdle
		s.mu.Unlock()
	}, nil
}

func (s *Session) stageLocked() workflow.Stage {
	switch {
	case s.overview == "":
		return workflow.StageIntake
	case !s.state.Started():
		return workflow.StageQuestions
	case !s.state.Finished():
		return workflow.StageInterview
	default:
		return workflow.StageReport
	}
}

// AnalyzeResume extracts a draft profile from resume text. The draft is not submitted.
func (s *Session) AnalyzeResume(ctx context.Context, text string) (*intake.Profile, error) {
	return s.analyzeResume(ctx, "analyze resume", func() (string, error) { return text, nil })
}

// analyzeResume gates on status and stage before reading the resume text.
func (s *Session) analyzeResume(ctx context.Context, action string, text func() (string, error)) (*intake.Profile, error) {
	done, err := s.begin(action)
	if err != nil {
		return nil, err
	}
	defer done()

	if err := s.requireStage(workflow.StageIntake, workflow.StageQuestions); err != nil {
		return nil, err
	}
	resume, err := text()
	if err != nil {
		return nil, err //nolint:wrapcheck // workflow errors
	}
	return s.analyzer.AnalyzeResume(ctx, resume) //nolint:wrapcheck // workflow errors
}

// AnalyzeResumePDF extracts the text of an uploaded PDF and analyzes it.
func (s *Session) AnalyzeResumePDF(ctx context.Context, data []byte) (*intake.Profile, error) {
	return s.analyzeResume(ctx, "analyze resume PDF", func() (string, error) {
		return intake.ExtractTextFromBytes(data)
	})
}

// SubmitProfile validates the profile and creates the candidate overview.
// A profile may be resubmitted until the interview starts.
func (s *Session) SubmitProfile(ctx context.Context, p intake.Profile) (intake.Overview, error) {
	done, err := s.begin("submit profile")
	if err != nil {
		return "", err
	}
	defer done()

	if err := s.requireStage(workflow.StageIntake, workflow.StageQuestions); err != nil {
		return "", err
	}
	overview, err := s.analyzer.Summarize(ctx, p)
	if err != nil {
		return "", err //nolint:wrapcheck // workflow errors
	}

	normalized := p.Normalized()
	s.mu.Lock()
	s.profile = &normalized
	s.overview = overview
	s.mu.Unlock()
	return overview, nil
}

// StartInterview generates the question set and starts the interview. On failure the
// session stays not started with no questions.
func (s *Session) StartInterview(ctx context.Context) error {
	done, err := s.begin("start interview")
	if err != nil {
		return err
	}
	defer done()

	if err := s.requireStage(workflow.StageQuestions); err != nil {
		return err
	}
	s.mu.Lock()
	overview, state := s.overview, s.state
	s.mu.Unlock()

	set, err := s.generator.Generate(ctx, overview)
	if err != nil {
		return err //nolint:wrapcheck // workflow errors
	}
	next, err := interview.Drive(ctx, s.runtime, state, interview.Start{Questions: set})
	if err != nil {
		return err //nolint:wrapcheck // workflow errors
	}
	s.commit(next)
	s.logger.Info("🎬 Interview started with %d questions", len(set))
	return nil
}

// SubmitAnswer sends a candidate answer through the state machine.
func (s *Session) SubmitAnswer(ctx context.Context, text string) error {
	return s.drive(ctx, "submit answer", interview.SubmitAnswer{Text: text}, func() error {
		if s.answerMax > 0 && utf8.RuneCountInString(text) > s.answerMax {
			return workflow.Errorf(workflow.StageInterview, workflow.KindValidation,
				"answer is longer than %d characters", s.answerMax)
		}
		return nil
	})
}

// SetDrawing stores the candidate's drawing for the drawing question.
func (s *Session) SetDrawing(ctx context.Context, img llm.Image) error {
	return s.drive(ctx, "set drawing", interview.SetDrawing{Image: img}, func() error {
		if len(img.Data) > 0 && !strings.HasPrefix(img.MIMEType, "image/") {
			return workflow.Errorf(workflow.StageInterview, workflow.KindValidation, "drawing must be an image, got %q", img.MIMEType)
		}
		return nil
	})
}

// ConfirmAdvance moves on to the next question once the current one is done.
func (s *Session) ConfirmAdvance(ctx context.Context) error {
	return s.drive(ctx, "confirm advance", interview.ConfirmAdvance{}, nil)
}

// drive runs ev once the session is idle and interviewing. check, if set, validates the
// input after those gates.
func (s *Session) drive(ctx context.Context, action string, ev interview.Event, check func() error) error {
	done, err := s.begin(action)
	if err != nil {
		return err
	}
	defer done()

	if err := s.requireStage(workflow.StageInterview); err != nil {
		return err
	}
	if check != nil {
		if err := check(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	next, err := interview.Drive(ctx, s.runtime, state, ev)
	if err != nil {
		s.logger.Warn("⚠️ %s failed: %v", action, err)
		return err //nolint:wrapcheck // workflow errors
	}
	s.commit(next)
	return nil
}

func (s *Session) commit(next interview.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = next
}

// RequestReport aggregates the finished interview into a report and archives it.
// Each call produces a new report.
func (s *Session) RequestReport(ctx context.Context) (*report.Report, error) {
	done, err := s.begin("request report")
	if err != nil {
		return nil, err
	}
	defer done()

	if err := s.requireStage(workflow.StageReport); err != nil {
		return nil, err
	}
	s.mu.Lock()
	completed := s.state.Clone().Completed
	s.mu.Unlock()

	r, err := s.aggregator.Aggregate(ctx, s.id, completed)
	if err != nil {
		return nil, err //nolint:wrapcheck // workflow errors
	}

	s.mu.Lock()
	s.report = r
	entry := &persistence.Entry{Report: r, Overview: string(s.overview), Model: s.model}
	if s.profile != nil {
		entry.CandidateName = s.profile.FullName
	}
	s.mu.Unlock()

	if s.archive != nil {
		if err := s.archive.Save(ctx, entry); err != nil {
			s.logger.Error("❌ Failed to archive report %s: %v", r.ID, err)
		}
	}
	return r, nil
}

func (s *Session) requireStage(allowed ...workflow.Stage) error {
	s.mu.Lock()
	stage := s.stageLocked()
	s.mu.Unlock()
	for _, a := range allowed {
		if stage == a {
			return nil
		}
	}
	return workflow.Errorf(stage, workflow.KindIllegal, "not allowed during the %s stage", stage)
}
