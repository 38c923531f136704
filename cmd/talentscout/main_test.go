package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentscout/pkg/agent/llm"
	llmmetrics "talentscout/pkg/agent/middleware/metrics"
	"talentscout/pkg/effect"
	"talentscout/pkg/intake"
	"talentscout/pkg/logx"
	"talentscout/pkg/prompts"
	"talentscout/pkg/session"
)

type reportClient struct{}

func (reportClient) Complete(_ context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	if req.ResponseSchema != nil && req.ResponseSchema.Name == "overall_summary" {
		return llm.CompletionResponse{Content: `{"summary":"Strong candidate.","communication_skills":8,"technical_skills":9,"key_takeaways":["Clear"]}`}, nil
	}
	return llm.CompletionResponse{Content: `{"summary":"Answered well."}`}, nil
}

func (reportClient) GetModelName() string { return "report" }

func testApp(t *testing.T, chat llm.LLMClient) *app {
	t.Helper()
	renderer, err := prompts.NewRenderer()
	require.NoError(t, err)
	rt := effect.NewBaseRuntime(effect.Clients{Interview: chat, Report: reportClient{}}, renderer, logx.NewLogger("cli-test"), "")
	return &app{
		internal: llmmetrics.NewInternalRecorder(),
		sessions: session.NewManager(rt, &session.Options{
			Resume:           intake.Limits{MinChars: 100, MaxChars: 10000},
			GeneralQuestions: 3,
			AnswerMaxChars:   1000,
		}),
	}
}

func TestRunInteractive(t *testing.T) {
	steps := []llm.MockStep{
		llm.Reply(`{"overview":"Backend developer."}`),
		llm.Reply(`{"questions":["General one?","General two?","General three?"]}`),
		llm.Reply(`{"questions":["Find the bug."]}`),
		llm.Reply(`{"questions":["Draw a queue."]}`),
	}
	for i := 0; i < 5; i++ {
		steps = append(steps, llm.Reply(`{"next_question":true,"response":"Thanks for that."}`))
	}
	chat := llm.NewMockClient(steps...)

	input := strings.Join([]string{
		"", // no resume
		"Ada Lovelace", "ada@example.com", "123", "5", "Backend Engineer", "London", "Python", "None",
		"answer one", "",
		"answer two", "",
		"answer three", "",
		"answer four", "",
		"answer five", "",
	}, "\n") + "\n"

	var out bytes.Buffer
	require.NoError(t, runInteractive(context.Background(), testApp(t, chat), strings.NewReader(input), &out))

	text := out.String()
	assert.Contains(t, text, "Backend developer.")
	assert.Contains(t, text, "Question 1/5")
	assert.Contains(t, text, "Question 5/5")
	assert.Contains(t, text, "General one?")
	assert.Contains(t, text, "/draw")
	assert.Contains(t, text, "Communication: 8/10")
	assert.Contains(t, text, "Strong candidate.")
	assert.Equal(t, 9, chat.Calls())
}

func TestRunInteractiveQuit(t *testing.T) {
	chat := llm.NewMockClient()
	var out bytes.Buffer
	err := runInteractive(context.Background(), testApp(t, chat), strings.NewReader("\nAda\n/quit\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Stopped.")
	assert.Zero(t, chat.Calls())
}

func TestRunInteractiveRetriesProfile(t *testing.T) {
	chat := llm.NewMockClient()
	// The first pass leaves tech stack blank; the second pass fills it and then quits at the
	// question stage via EOF.
	input := strings.Join([]string{
		"",
		"Ada", "ada@example.com", "123", "5", "Engineer", "London", "", "None",
		"", "", "", "", "", "", "Go", "",
	}, "\n") + "\n"

	var out bytes.Buffer
	err := runInteractive(context.Background(), testApp(t, chat), strings.NewReader(input), &out)
	require.Error(t, err, "the mock has no overview reply")
	assert.Contains(t, out.String(), "tech_stack")
	assert.Contains(t, out.String(), "Tech stack: ")
	assert.Contains(t, out.String(), "Full name [Ada]: ")
}

func TestRecorderUsage(t *testing.T) {
	rec := llmmetrics.NewInternalRecorder()
	rec.ObserveRequest(llmmetrics.Labels{Model: "m", Stage: "intake", SessionID: "s-1"}, 100, 20, 0.01, true, "", 0)
	rec.ObserveRequest(llmmetrics.Labels{Model: "m", Stage: "report", SessionID: "s-1"}, 0, 0, 0, false, "transport", 0)

	u, err := recorderUsage{recorder: rec}.GetSessionUsage(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, int64(120), u.TotalTokens)
	assert.Equal(t, int64(2), u.Requests)
	assert.Equal(t, int64(1), u.FailedRequests)

	_, err = recorderUsage{recorder: rec}.GetSessionUsageByStage(context.Background(), "s-1")
	assert.Error(t, err)
}
