package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/agent/llmerrors"
	"talentscout/pkg/effect"
	"talentscout/pkg/intake"
	"talentscout/pkg/interview"
	"talentscout/pkg/logx"
	"talentscout/pkg/persistence"
	"talentscout/pkg/prompts"
	"talentscout/pkg/workflow"
)

type fakeArchive struct {
	err     error
	entries []*persistence.Entry
	mu      sync.Mutex
}

func (a *fakeArchive) Save(_ context.Context, e *persistence.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return a.err
}

// reportClient answers every summary request; calls arrive in parallel.
type reportClient struct{}

func (reportClient) Complete(_ context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	if req.ResponseSchema != nil && req.ResponseSchema.Name == "overall_summary" {
		return llm.CompletionResponse{Content: `{"summary":"Good.","communication_skills":6,"technical_skills":7,"key_takeaways":["Calm"]}`}, nil
	}
	return llm.CompletionResponse{Content: `{"summary":"Answered."}`}, nil
}

func (reportClient) GetModelName() string { return "report" }

// blockingClient holds every call until release is closed.
type blockingClient struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (c *blockingClient) Complete(ctx context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
	c.once.Do(func() { close(c.entered) })
	select {
	case <-c.release:
		return llm.CompletionResponse{Content: `{"overview":"Backend developer."}`}, nil
	case <-ctx.Done():
		return llm.CompletionResponse{}, ctx.Err()
	}
}

func (c *blockingClient) GetModelName() string { return "blocking" }

func testProfile() intake.Profile {
	return intake.Profile{
		FullName:          "Ada Lovelace",
		EmailAddress:      "ada@example.com",
		PhoneNumber:       "+44 20 0000 0000",
		YearsOfExperience: "5",
		DesiredPosition:   "Backend Engineer",
		CurrentLocation:   "London",
		TechStack:         "Python, Postgres",
		OtherDetails:      "Enjoys mentoring",
	}
}

func newManager(t *testing.T, chat llm.LLMClient, archive Archiver) *Manager {
	t.Helper()
	renderer, err := prompts.NewRenderer()
	require.NoError(t, err)
	rt := effect.NewBaseRuntime(effect.Clients{Interview: chat, Report: reportClient{}}, renderer, logx.NewLogger("session-test"), "")
	return NewManager(rt, &Options{
		Archive:          archive,
		Model:            "mock-model",
		Resume:           intake.Limits{MinChars: 100, MaxChars: 10000},
		GeneralQuestions: 3,
		AnswerMaxChars:   200,
	})
}

func questionReplies() []llm.MockStep {
	return []llm.MockStep{
		llm.Reply(`{"questions":["General one?","General two?","General three?"]}`),
		llm.Reply(`{"questions":["Find the bug."]}`),
		llm.Reply(`{"questions":["Draw a queue."]}`),
	}
}

func advance() llm.MockStep {
	return llm.Reply(`{"next_question":true,"response":"Thanks."}`)
}

func TestFullWorkflow(t *testing.T) {
	steps := []llm.MockStep{llm.Reply(`{"overview":"Backend developer with five years of Python."}`)}
	steps = append(steps, questionReplies()...)
	for i := 0; i < 5; i++ {
		steps = append(steps, advance())
	}
	chat := llm.NewMockClient(steps...)
	archive := &fakeArchive{}
	s := newManager(t, chat, archive).Create()
	ctx := context.Background()

	assert.Equal(t, workflow.StageIntake, s.Snapshot().Stage)

	overview, err := s.SubmitProfile(ctx, testProfile())
	require.NoError(t, err)
	assert.Equal(t, intake.Overview("Backend developer with five years of Python."), overview)
	assert.Equal(t, workflow.StageQuestions, s.Snapshot().Stage)

	require.NoError(t, s.StartInterview(ctx))
	view := s.Snapshot()
	assert.Equal(t, workflow.StageInterview, view.Stage)
	assert.Equal(t, 5, view.QuestionCount)
	assert.Equal(t, "General one?", view.CurrentQuestion)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.SubmitAnswer(ctx, "my answer"))
		assert.True(t, s.Snapshot().PendingAdvance)
		require.NoError(t, s.ConfirmAdvance(ctx))
	}

	view = s.Snapshot()
	assert.Equal(t, workflow.StageReport, view.Stage)
	assert.Equal(t, interview.PhaseFinished, view.Phase)
	assert.Len(t, view.Completed, 5)

	r, err := s.RequestReport(ctx)
	require.NoError(t, err)
	assert.Len(t, r.Conversations, 5)
	assert.Equal(t, s.ID(), r.SessionID)
	assert.Equal(t, r, s.Snapshot().Report)

	require.Len(t, archive.entries, 1)
	assert.Equal(t, "Ada Lovelace", archive.entries[0].CandidateName)
	assert.Equal(t, "mock-model", archive.entries[0].Model)
	assert.Equal(t, 9, chat.Calls())
}

func TestStartInterviewFailureLeavesSessionNotStarted(t *testing.T) {
	chat := llm.NewMockClient(
		llm.Reply(`{"overview":"Backend developer."}`),
		llm.Reply(`{"questions":["General one?"]}`),
		llm.Fail(llmerrors.NewError(llmerrors.ErrorTypeTransport, "connection reset")),
	)
	s := newManager(t, chat, nil).Create()
	ctx := context.Background()

	_, err := s.SubmitProfile(ctx, testProfile())
	require.NoError(t, err)

	err = s.StartInterview(ctx)
	require.Error(t, err)
	assert.True(t, workflow.Is(err, workflow.KindTransport))

	st := s.State()
	assert.Equal(t, interview.NotStarted, st.Index)
	assert.Empty(t, st.Questions)
	assert.Equal(t, workflow.StageQuestions, s.Snapshot().Stage)
	assert.Equal(t, StatusIdle, s.Snapshot().Status)
}

func TestActionsOutOfOrder(t *testing.T) {
	s := newManager(t, llm.NewMockClient(), nil).Create()
	ctx := context.Background()

	err := s.StartInterview(ctx)
	assert.True(t, workflow.Is(err, workflow.KindIllegal), "start before profile: %v", err)

	_, err = s.RequestReport(ctx)
	assert.True(t, workflow.Is(err, workflow.KindIllegal), "report before interview: %v", err)

	err = s.SubmitAnswer(ctx, "hello")
	assert.True(t, workflow.Is(err, workflow.KindIllegal), "answer before start: %v", err)
}

func TestProfileLockedAfterStart(t *testing.T) {
	steps := []llm.MockStep{llm.Reply(`{"overview":"Backend developer."}`)}
	chat := llm.NewMockClient(append(steps, questionReplies()...)...)
	s := newManager(t, chat, nil).Create()
	ctx := context.Background()

	_, err := s.SubmitProfile(ctx, testProfile())
	require.NoError(t, err)
	require.NoError(t, s.StartInterview(ctx))

	_, err = s.SubmitProfile(ctx, testProfile())
	assert.True(t, workflow.Is(err, workflow.KindIllegal))
	_, err = s.AnalyzeResume(ctx, strings.Repeat("resume ", 50))
	assert.True(t, workflow.Is(err, workflow.KindIllegal))
}

func TestSubmitProfileRejectsMissingFields(t *testing.T) {
	chat := llm.NewMockClient()
	s := newManager(t, chat, nil).Create()

	p := testProfile()
	p.TechStack = "  "
	_, err := s.SubmitProfile(context.Background(), p)
	require.Error(t, err)
	assert.True(t, workflow.Is(err, workflow.KindValidation))
	assert.Contains(t, err.Error(), "tech_stack")
	assert.Zero(t, chat.Calls())
	assert.Empty(t, s.Snapshot().Overview)
}

func TestAnswerAndDrawingValidation(t *testing.T) {
	steps := []llm.MockStep{llm.Reply(`{"overview":"Backend developer."}`)}
	chat := llm.NewMockClient(append(steps, questionReplies()...)...)
	s := newManager(t, chat, nil).Create()
	ctx := context.Background()

	_, err := s.SubmitProfile(ctx, testProfile())
	require.NoError(t, err)
	require.NoError(t, s.StartInterview(ctx))
	calls := chat.Calls()

	err = s.SubmitAnswer(ctx, strings.Repeat("x", 201))
	assert.True(t, workflow.Is(err, workflow.KindValidation))

	err = s.SetDrawing(ctx, llm.Image{MIMEType: "text/plain", Data: []byte("hi")})
	assert.True(t, workflow.Is(err, workflow.KindValidation))

	err = s.SetDrawing(ctx, llm.Image{MIMEType: "image/png", Data: []byte("png")})
	assert.True(t, workflow.Is(err, workflow.KindIllegal), "drawing on a general question: %v", err)

	assert.Equal(t, calls, chat.Calls())
	assert.Len(t, s.State().Current, 1)
}

func TestStageGateRunsBeforeInputChecks(t *testing.T) {
	steps := []llm.MockStep{llm.Reply(`{"overview":"Backend developer."}`)}
	chat := llm.NewMockClient(append(steps, questionReplies()...)...)
	s := newManager(t, chat, nil).Create()
	ctx := context.Background()

	var wfErr *workflow.Error
	err := s.SubmitAnswer(ctx, strings.Repeat("x", 201))
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, workflow.KindIllegal, wfErr.Kind)
	assert.Equal(t, workflow.StageIntake, wfErr.Stage)

	err = s.SetDrawing(ctx, llm.Image{MIMEType: "text/plain", Data: []byte("hi")})
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, workflow.KindIllegal, wfErr.Kind)

	_, err = s.SubmitProfile(ctx, testProfile())
	require.NoError(t, err)
	err = s.SubmitAnswer(ctx, strings.Repeat("x", 201))
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, workflow.KindIllegal, wfErr.Kind)
	assert.Equal(t, workflow.StageQuestions, wfErr.Stage)

	require.NoError(t, s.StartInterview(ctx))
	_, err = s.AnalyzeResumePDF(ctx, []byte("not a pdf"))
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, workflow.KindIllegal, wfErr.Kind, "upload after start is rejected before parsing")
	assert.Equal(t, workflow.StageInterview, wfErr.Stage)
}

func TestBusySessionRejectsSecondAction(t *testing.T) {
	client := &blockingClient{entered: make(chan struct{}), release: make(chan struct{})}
	s := newManager(t, client, nil).Create()

	errc := make(chan error, 1)
	go func() {
		_, err := s.SubmitProfile(context.Background(), testProfile())
		errc <- err
	}()

	select {
	case <-client.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("model call never started")
	}
	assert.Equal(t, StatusWaiting, s.Snapshot().Status)

	err := s.StartInterview(context.Background())
	require.Error(t, err)
	assert.True(t, workflow.Is(err, workflow.KindBusy))

	_, err = s.AnalyzeResumePDF(context.Background(), []byte("not a pdf"))
	assert.True(t, workflow.Is(err, workflow.KindBusy), "upload must not be parsed while busy: %v", err)

	close(client.release)
	require.NoError(t, <-errc)
	assert.Equal(t, StatusIdle, s.Snapshot().Status)
	assert.Equal(t, "Backend developer.", s.Snapshot().Overview)
}

func TestArchiveFailureStillReturnsReport(t *testing.T) {
	steps := []llm.MockStep{llm.Reply(`{"overview":"Backend developer."}`)}
	steps = append(steps, questionReplies()...)
	for i := 0; i < 5; i++ {
		steps = append(steps, advance())
	}
	archive := &fakeArchive{err: errors.New("disk full")}
	s := newManager(t, llm.NewMockClient(steps...), archive).Create()
	ctx := context.Background()

	_, err := s.SubmitProfile(ctx, testProfile())
	require.NoError(t, err)
	require.NoError(t, s.StartInterview(ctx))
	for i := 0; i < 5; i++ {
		require.NoError(t, s.SubmitAnswer(ctx, "answer"))
		require.NoError(t, s.ConfirmAdvance(ctx))
	}

	r, err := s.RequestReport(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Len(t, archive.entries, 1)
}

func TestManager(t *testing.T) {
	m := newManager(t, llm.NewMockClient(), nil)
	a := m.Create()
	b := m.Create()
	assert.NotEqual(t, a.ID(), b.ID())

	got, err := m.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, m.List(), 2)
	assert.True(t, m.Delete(a.ID()))
	assert.False(t, m.Delete(a.ID()))

	views := m.List()
	require.Len(t, views, 1)
	assert.Equal(t, b.ID(), views[0].ID)
	assert.Equal(t, interview.PhaseNotStarted, views[0].Phase)
}
