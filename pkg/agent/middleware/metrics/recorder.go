// Package metrics provides metrics recording for LLM client operations.
package metrics

import (
	"time"
)

// Labels identify who made an LLM request.
type Labels struct {
	Model     string
	Provider  string
	Stage     string // intake, questions, judgment, vision, report, key_check
	SessionID string // empty outside an interview session
}

// Recorder defines the interface for recording LLM operation metrics.
type Recorder interface {
	// ObserveRequest records metrics for a completed LLM request.
	ObserveRequest(
		labels Labels,
		promptTokens, completionTokens int,
		cost float64,
		success bool,
		errorType string,
		duration time.Duration,
	)
}

// NoopRecorder implements Recorder with no-op behavior for when metrics are disabled.
type NoopRecorder struct{}

// Nop returns a no-op metrics recorder that discards all metrics.
func Nop() Recorder {
	return &NoopRecorder{}
}

// ObserveRequest does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveRequest(_ Labels, _, _ int, _ float64, _ bool, _ string, _ time.Duration) {
}

type multiRecorder []Recorder

// Multi fans every observation out to all recorders.
func Multi(recorders ...Recorder) Recorder {
	return multiRecorder(recorders)
}

func (m multiRecorder) ObserveRequest(
	labels Labels,
	promptTokens, completionTokens int,
	cost float64,
	success bool,
	errorType string,
	duration time.Duration,
) {
	for _, r := range m {
		r.ObserveRequest(labels, promptTokens, completionTokens, cost, success, errorType, duration)
	}
}
