package main

import (
	"context"
	"fmt"

	llmmetrics "talentscout/pkg/agent/middleware/metrics"
	"talentscout/pkg/metrics"
)

// recorderUsage serves session usage from the in-process recorder when no Prometheus
// server is configured. It has no per-stage breakdown.
type recorderUsage struct {
	recorder *llmmetrics.InternalRecorder
}

func (u recorderUsage) GetSessionUsage(_ context.Context, sessionID string) (*metrics.Usage, error) {
	usage := &metrics.Usage{SessionID: sessionID}
	if m := u.recorder.GetSessionMetrics(sessionID); m != nil {
		usage.PromptTokens = m.PromptTokens
		usage.CompletionTokens = m.CompletionTokens
		usage.TotalTokens = m.TotalTokens
		usage.TotalCost = m.TotalCost
		usage.Requests = m.RequestCount
		usage.FailedRequests = m.FailedCount
	}
	return usage, nil
}

func (u recorderUsage) GetSessionUsageByStage(_ context.Context, _ string) ([]*metrics.Usage, error) {
	return nil, fmt.Errorf("per-stage usage needs a Prometheus server (metrics.prometheus_url)")
}
