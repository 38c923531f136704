// Package report aggregates finished interview conversations into a scored report.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/effect"
	"talentscout/pkg/interview"
	"talentscout/pkg/logx"
	"talentscout/pkg/prompts"
	"talentscout/pkg/workflow"
)

// MaxScore is the top of the communication and technical rating scale.
const MaxScore = 10

// ConversationSummary is the per-question part of a report.
type ConversationSummary struct {
	Question   string `json:"question"`
	Summary    string `json:"summary"`
	Transcript string `json:"transcript"`
}

// Overall is the aggregated assessment.
type Overall struct {
	Summary            string   `json:"summary"`
	KeyTakeaways       []string `json:"key_takeaways"`
	CommunicationScore int      `json:"communication_skills"`
	TechnicalScore     int      `json:"technical_skills"`
}

// Report is the final interview report.
type Report struct {
	CreatedAt     time.Time             `json:"created_at"`
	ID            string                `json:"id"`
	SessionID     string                `json:"session_id"`
	Overall       Overall               `json:"overall"`
	Conversations []ConversationSummary `json:"conversations"`
}

//nolint:gochecknoglobals // fixed response schemas
var (
	summarySchema = llm.ObjectSchema("conversation_summary", map[string]any{
		"summary": llm.StringProperty,
	})
	overallSchema = llm.ObjectSchema("overall_summary", map[string]any{
		"summary":              llm.StringProperty,
		"communication_skills": llm.IntegerProperty,
		"technical_skills":     llm.IntegerProperty,
		"key_takeaways":        llm.StringArray,
	})
)

type summaryResult struct {
	Summary *string `json:"summary"`
}

func (r *summaryResult) Validate() error {
	if r.Summary == nil || strings.TrimSpace(*r.Summary) == "" {
		return errors.New("summary is empty")
	}
	return nil
}

type overallResult struct {
	Summary             *string  `json:"summary"`
	CommunicationSkills *int     `json:"communication_skills"`
	TechnicalSkills     *int     `json:"technical_skills"`
	KeyTakeaways        []string `json:"key_takeaways"`
}

func (r *overallResult) Validate() error {
	switch {
	case r.Summary == nil || strings.TrimSpace(*r.Summary) == "":
		return errors.New("summary is empty")
	case r.CommunicationSkills == nil:
		return errors.New("communication_skills is missing")
	case r.TechnicalSkills == nil:
		return errors.New("technical_skills is missing")
	case r.KeyTakeaways == nil:
		return errors.New("key_takeaways is missing")
	}
	if err := checkScore("communication_skills", *r.CommunicationSkills); err != nil {
		return err
	}
	return checkScore("technical_skills", *r.TechnicalSkills)
}

func checkScore(name string, v int) error {
	if v < 0 || v > MaxScore {
		return fmt.Errorf("%s %d is outside 0..%d", name, v, MaxScore)
	}
	return nil
}

// Aggregator builds reports.
type Aggregator struct {
	models effect.Models
	logger *logx.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(models effect.Models) *Aggregator {
	return &Aggregator{models: models, logger: logx.NewLogger("report")}
}

// Aggregate summarizes each conversation in parallel, then asks for the overall
// assessment over the summaries in question order. Re-running on the same input
// produces a new report with the same shape.
func (a *Aggregator) Aggregate(ctx context.Context, sessionID string, conversations []interview.Conversation) (*Report, error) {
	if len(conversations) == 0 {
		return nil, workflow.Errorf(workflow.StageReport, workflow.KindIllegal, "no completed conversations to report on")
	}

	parts := make([]ConversationSummary, len(conversations))
	for i, conv := range conversations {
		if len(conv) == 0 || conv[0].Speaker != interview.SpeakerInterviewer {
			return nil, workflow.Errorf(workflow.StageReport, workflow.KindValidation, "conversation %d does not start with a question", i+1)
		}
		parts[i] = ConversationSummary{Question: conv[0].Text, Transcript: conv.Transcript()}
	}

	// Each goroutine writes only its own slot, so parts stays in question order.
	g, gctx := errgroup.WithContext(ctx)
	for i := range parts {
		g.Go(func() error {
			var out summaryResult
			data := &prompts.Data{Conversation: parts[i].Transcript}
			if err := a.models.Structured(gctx, llm.StageReport, prompts.ConversationSummary, data, summarySchema, &out); err != nil {
				return workflow.FromLLM(workflow.StageReport, err, fmt.Sprintf("summary of conversation %d failed", i+1))
			}
			parts[i].Summary = strings.TrimSpace(*out.Summary)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // already a workflow error
	}

	labelled := make([]string, len(parts))
	for i, p := range parts {
		labelled[i] = fmt.Sprintf("Conversation %d: %s", i+1, p.Summary)
	}

	var out overallResult
	data := &prompts.Data{Summaries: strings.Join(labelled, "\n\n")}
	if err := a.models.Structured(ctx, llm.StageReport, prompts.OverallSummary, data, overallSchema, &out); err != nil {
		return nil, workflow.FromLLM(workflow.StageReport, err, "overall summary failed")
	}

	r := &Report{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
		Overall: Overall{
			Summary:            strings.TrimSpace(*out.Summary),
			CommunicationScore: *out.CommunicationSkills,
			TechnicalScore:     *out.TechnicalSkills,
			KeyTakeaways:       out.KeyTakeaways,
		},
		Conversations: parts,
	}
	a.logger.Info("📊 Report %s: communication %d/%d, technical %d/%d over %d conversations",
		r.ID, r.Overall.CommunicationScore, MaxScore, r.Overall.TechnicalScore, MaxScore, len(parts))
	return r, nil
}

// Validate checks the report's structure.
func (r *Report) Validate() error {
	if len(r.Conversations) == 0 {
		return errors.New("report has no conversations")
	}
	for i, c := range r.Conversations {
		if strings.TrimSpace(c.Summary) == "" {
			return fmt.Errorf("conversation %d has no summary", i+1)
		}
	}
	if strings.TrimSpace(r.Overall.Summary) == "" {
		return errors.New("overall summary is empty")
	}
	if r.Overall.KeyTakeaways == nil {
		return errors.New("key takeaways are missing")
	}
	if err := checkScore("communication score", r.Overall.CommunicationScore); err != nil {
		return err
	}
	return checkScore("technical score", r.Overall.TechnicalScore)
}
