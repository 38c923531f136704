// Package metrics queries Prometheus for the LLM usage recorded by the model middleware.
package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// Usage is the token and cost total for one session, optionally narrowed to one stage.
type Usage struct {
	SessionID        string  `json:"session_id"`
	Stage            string  `json:"stage,omitempty"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	TotalTokens      int64   `json:"total_tokens"`
	TotalCost        float64 `json:"total_cost_usd"`
	Requests         int64   `json:"requests"`
	FailedRequests   int64   `json:"failed_requests"`
}

// QueryService provides methods to query metrics from Prometheus.
type QueryService struct {
	queryAPI v1.API
}

// NewQueryService creates a new metrics query service.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{queryAPI: v1.NewAPI(client)}, nil
}

// GetSessionUsage sums the usage of every model call made for a session.
func (q *QueryService) GetSessionUsage(ctx context.Context, sessionID string) (*Usage, error) {
	return q.usage(ctx, sessionID, "")
}

// GetSessionUsageByStage breaks a session's usage down by workflow stage, sorted by stage name.
func (q *QueryService) GetSessionUsageByStage(ctx context.Context, sessionID string) ([]*Usage, error) {
	stagesQuery := fmt.Sprintf(`group by (stage) (llm_requests_total{session_id=%q})`, sessionID)
	result, err := q.query(ctx, stagesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages: %w", err)
	}

	var stages []string
	if vector, ok := result.(model.Vector); ok {
		for _, sample := range vector {
			if stage, ok := sample.Metric["stage"]; ok {
				stages = append(stages, string(stage))
			}
		}
	}
	sort.Strings(stages)

	out := make([]*Usage, 0, len(stages))
	for _, stage := range stages {
		u, err := q.usage(ctx, sessionID, stage)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (q *QueryService) usage(ctx context.Context, sessionID, stage string) (*Usage, error) {
	selector := fmt.Sprintf(`session_id=%q`, sessionID)
	if stage != "" {
		selector += fmt.Sprintf(`, stage=%q`, stage)
	}

	u := &Usage{SessionID: sessionID, Stage: stage}
	queries := []struct {
		what string
		expr string
	}{
		{what: "prompt tokens", expr: fmt.Sprintf(`sum(llm_tokens_total{%s, type="prompt"})`, selector)},
		{what: "completion tokens", expr: fmt.Sprintf(`sum(llm_tokens_total{%s, type="completion"})`, selector)},
		{what: "cost", expr: fmt.Sprintf(`sum(llm_costs_total{%s})`, selector)},
		{what: "requests", expr: fmt.Sprintf(`sum(llm_requests_total{%s})`, selector)},
		{what: "failed requests", expr: fmt.Sprintf(`sum(llm_requests_total{%s, status="error"})`, selector)},
	}

	values := make([]float64, len(queries))
	for i, qq := range queries {
		result, err := q.query(ctx, qq.expr)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", qq.what, err)
		}
		values[i] = scalar(result)
	}

	u.PromptTokens = int64(values[0])
	u.CompletionTokens = int64(values[1])
	u.TotalTokens = u.PromptTokens + u.CompletionTokens
	u.TotalCost = values[2]
	u.Requests = int64(values[3])
	u.FailedRequests = int64(values[4])
	return u, nil
}

func (q *QueryService) query(ctx context.Context, expr string) (model.Value, error) {
	result, _, err := q.queryAPI.Query(ctx, expr, time.Now())
	if err != nil {
		return nil, err //nolint:wrapcheck // callers add the query context
	}
	return result, nil
}

// scalar returns the first sample of a vector result, or 0 when the series is absent.
func scalar(v model.Value) float64 {
	if vector, ok := v.(model.Vector); ok && len(vector) > 0 {
		return float64(vector[0].Value)
	}
	return 0
}
