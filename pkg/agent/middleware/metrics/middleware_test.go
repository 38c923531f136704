package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/agent/llmerrors"
)

func judgmentContext() context.Context {
	ctx := llm.WithStage(context.Background(), llm.StageJudgment)
	return llm.WithSessionID(ctx, "session-1")
}

func TestMiddlewareRecordsPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := NewPrometheusRecorder(reg)

	base := llm.NewMockClient(
		llm.Reply(`{"next_question":true,"response":"Thanks."}`),
		llm.Fail(llmerrors.NewError(llmerrors.ErrorTypeTransport, "connection reset")),
	)
	client := llm.Chain(base, Middleware(recorder, "openai", nil, nil))

	req := llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("Question: What is a goroutine?")})
	_, err := client.Complete(judgmentContext(), req)
	require.NoError(t, err)
	_, err = client.Complete(judgmentContext(), req)
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	assert.InDelta(t, 1.0, counterValue(families, "llm_requests_total", map[string]string{"status": statusSuccess, "stage": llm.StageJudgment}), 0.001)
	assert.InDelta(t, 1.0, counterValue(families, "llm_requests_total", map[string]string{"status": statusError, "error_type": "transport"}), 0.001)

	// Mock responses carry no usage, so tokens come from the tokenizer.
	assert.Greater(t, counterValue(families, "llm_tokens_total", map[string]string{"type": "completion", "session_id": "session-1"}), 0.0)
}

// counterValue sums the counters in the named family whose labels include want.
func counterValue(families []*dto.MetricFamily, name string, want map[string]string) float64 {
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := make(map[string]string)
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			matched := true
			for k, v := range want {
				if labels[k] != v {
					matched = false
					break
				}
			}
			if matched {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestInternalRecorderAggregatesPerSession(t *testing.T) {
	recorder := NewInternalRecorder()
	usage := func(llm.CompletionRequest, llm.CompletionResponse) (int, int) { return 100, 20 }

	base := llm.NewMockClient(llm.Reply("a"), llm.Reply("b"), llm.Fail(errors.New("boom")))
	client := llm.Chain(base, Middleware(recorder, "openai", usage, nil))

	req := llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("hi")})
	for i := 0; i < 3; i++ {
		_, _ = client.Complete(judgmentContext(), req)
	}
	// Calls outside a session are not aggregated.
	_, _ = client.Complete(context.Background(), req)

	got := recorder.GetSessionMetrics("session-1")
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.RequestCount)
	assert.Equal(t, int64(1), got.FailedCount)
	assert.Equal(t, int64(200), got.PromptTokens)
	assert.Equal(t, int64(40), got.CompletionTokens)
	assert.Equal(t, int64(240), got.TotalTokens)

	assert.Nil(t, recorder.GetSessionMetrics("other"))
	recorder.Reset()
	assert.Nil(t, recorder.GetSessionMetrics("session-1"))
}

func TestDefaultUsageExtractorPrefersProviderUsage(t *testing.T) {
	req := llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("hello there")})

	p, c := DefaultUsageExtractor(req, llm.CompletionResponse{Content: "ok", PromptTokens: 7, CompletionTokens: 3})
	assert.Equal(t, 7, p)
	assert.Equal(t, 3, c)

	p, c = DefaultUsageExtractor(req, llm.CompletionResponse{Content: "ok"})
	assert.Positive(t, p)
	assert.Positive(t, c)
}

func TestMultiRecorder(t *testing.T) {
	a, b := NewInternalRecorder(), NewInternalRecorder()
	Multi(a, b, Nop()).ObserveRequest(Labels{SessionID: "s"}, 1, 1, 0, true, "", 0)
	assert.NotNil(t, a.GetSessionMetrics("s"))
	assert.NotNil(t, b.GetSessionMetrics("s"))
}
