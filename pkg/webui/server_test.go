package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/effect"
	"talentscout/pkg/intake"
	"talentscout/pkg/logx"
	"talentscout/pkg/metrics"
	"talentscout/pkg/persistence"
	"talentscout/pkg/prompts"
	"talentscout/pkg/report"
	"talentscout/pkg/session"
)

// reportClient answers the report stage, whose calls run in parallel.
type reportClient struct{}

func (reportClient) Complete(_ context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	if req.ResponseSchema != nil && req.ResponseSchema.Name == "overall_summary" {
		return llm.CompletionResponse{Content: `{"summary":"Good.","communication_skills":6,"technical_skills":7,"key_takeaways":["Calm"]}`}, nil
	}
	return llm.CompletionResponse{Content: `{"summary":"Answered."}`}, nil
}

func (reportClient) GetModelName() string { return "report" }

type fakeUsage struct{}

func (fakeUsage) GetSessionUsage(_ context.Context, id string) (*metrics.Usage, error) {
	return &metrics.Usage{SessionID: id, PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, nil
}

func (fakeUsage) GetSessionUsageByStage(_ context.Context, id string) ([]*metrics.Usage, error) {
	return []*metrics.Usage{{SessionID: id, Stage: "intake", TotalTokens: 15}}, nil
}

type testEnv struct {
	mux   *http.ServeMux
	chat  *llm.MockClient
	store *persistence.ReportStore
}

func newTestEnv(t *testing.T, steps ...llm.MockStep) *testEnv {
	t.Helper()
	renderer, err := prompts.NewRenderer()
	require.NoError(t, err)

	db, err := persistence.InitializeDatabase(filepath.Join(t.TempDir(), "webui.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := persistence.NewReportStore(db)

	chat := llm.NewMockClient(steps...)
	rt := effect.NewBaseRuntime(effect.Clients{Interview: chat, Report: reportClient{}}, renderer, logx.NewLogger("webui-test"), "")
	manager := session.NewManager(rt, &session.Options{
		Archive:          store,
		Model:            "mock-model",
		Resume:           intake.Limits{MinChars: 100, MaxChars: 10000},
		GeneralQuestions: 3,
		AnswerMaxChars:   200,
	})

	server := NewServer(manager, t.TempDir())
	server.SetReportArchive(store)
	server.SetUsageQuerier(fakeUsage{})

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "talentscout_test_total", Help: "test"}))
	server.SetGatherer(reg)

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	return &testEnv{mux: mux, chat: chat, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

func (e *testEnv) create(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/sessions", "", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var view session.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view.ID
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

const profileJSON = `{"full_name":"Ada Lovelace","email_address":"ada@example.com","phone_number":"123",` +
	`"years_of_experience":"5","desired_position":"Backend Engineer","current_location":"London",` +
	`"tech_stack":"Python","other_details":"None"}`

func interviewSteps() []llm.MockStep {
	steps := []llm.MockStep{
		llm.Reply(`{"overview":"Backend developer."}`),
		llm.Reply(`{"questions":["General one?","General two?","General three?"]}`),
		llm.Reply(`{"questions":["Find the bug."]}`),
		llm.Reply(`{"questions":["Draw a queue."]}`),
	}
	for i := 0; i < 5; i++ {
		steps = append(steps, llm.Reply(`{"next_question":true,"response":"Thanks."}`))
	}
	return steps
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestInterviewOverHTTP(t *testing.T) {
	env := newTestEnv(t, interviewSteps()...)
	id := env.create(t)
	base := "/api/sessions/" + id

	w := env.do(t, http.MethodPost, base+"/profile", "application/json", profileJSON)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"overview":"Backend developer."}`, w.Body.String())

	w = env.do(t, http.MethodPost, base+"/start", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view session.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "General one?", view.CurrentQuestion)
	assert.Equal(t, 5, view.QuestionCount)

	for i := 0; i < 5; i++ {
		w = env.do(t, http.MethodPost, base+"/answer", "application/json", `{"text":"my answer"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		w = env.do(t, http.MethodPost, base+"/advance", "", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, base+"/report", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rep report.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Len(t, rep.Conversations, 5)
	assert.Equal(t, 7, rep.Overall.TechnicalScore)

	w = env.do(t, http.MethodGet, "/api/reports", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var summaries []persistence.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, rep.ID, summaries[0].ID)
	assert.Equal(t, "Ada Lovelace", summaries[0].CandidateName)

	w = env.do(t, http.MethodGet, "/api/reports/"+rep.ID, "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/api/reports/"+rep.ID, "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodGet, "/api/reports/"+rep.ID, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWorkflowErrorsMapToStatus(t *testing.T) {
	env := newTestEnv(t, interviewSteps()...)
	id := env.create(t)
	base := "/api/sessions/" + id

	w := env.do(t, http.MethodPost, base+"/start", "", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "illegal", decodeError(t, w).Kind)

	w = env.do(t, http.MethodPost, base+"/profile", "application/json", `{"full_name":"Ada"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "validation", resp.Kind)
	assert.Equal(t, "intake", resp.Stage)
	assert.Contains(t, resp.Error, "tech_stack")

	w = env.do(t, http.MethodPost, base+"/resume", "application/pdf", "not a pdf")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodPost, base+"/profile", "application/json", `{"full_name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Zero(t, env.chat.Calls())
}

func TestDrawingEndpoints(t *testing.T) {
	env := newTestEnv(t, interviewSteps()...)
	id := env.create(t)
	base := "/api/sessions/" + id

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, base+"/profile", "application/json", profileJSON).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, base+"/start", "", "").Code)

	w := env.do(t, http.MethodPut, base+"/drawing", "text/plain", "hello")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, base+"/drawing", "image/png", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, base+"/drawing", "image/png", "\x89PNG")
	assert.Equal(t, http.StatusConflict, w.Code, "drawing is only accepted on the drawing question")

	w = env.do(t, http.MethodDelete, base+"/drawing", "", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/sessions/nope"},
		{http.MethodPost, "/api/sessions/nope/start"},
		{http.MethodPost, "/api/sessions/nope/answer"},
		{http.MethodDelete, "/api/sessions/nope"},
	} {
		w := env.do(t, tc.method, tc.path, "application/json", `{"text":"x"}`)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestSessionListAndDelete(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(t)
	env.create(t)

	w := env.do(t, http.MethodGet, "/api/sessions", "", "")
	var views []session.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	assert.Len(t, views, 2)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/sessions/"+id, "", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/sessions/"+id, "", "").Code)
}

func TestUsage(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(t)

	w := env.do(t, http.MethodGet, "/api/sessions/"+id+"/usage", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var u metrics.Usage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
	assert.Equal(t, int64(15), u.TotalTokens)

	w = env.do(t, http.MethodGet, "/api/sessions/"+id+"/usage?by=stage", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var byStage []metrics.Usage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &byStage))
	require.Len(t, byStage, 1)
	assert.Equal(t, "intake", byStage[0].Stage)
}

func TestDisabledFeatures(t *testing.T) {
	server := NewServer(nil, t.TempDir())
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/x/usage", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "talentscout_test_total")
}

func TestReportListLimit(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/reports?limit=zero", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/reports?limit=5", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestLogs(t *testing.T) {
	env := newTestEnv(t)
	logx.NewLogger("webui-logs-test").Info("hello from the test")

	w := env.do(t, http.MethodGet, "/api/logs?component=webui-logs-test", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hello from the test")

	w = env.do(t, http.MethodGet, "/api/logs?since=yesterday", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

