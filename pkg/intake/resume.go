package intake

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/effect"
	"talentscout/pkg/logx"
	"talentscout/pkg/prompts"
	"talentscout/pkg/workflow"
)

// Limits bounds the resume text accepted for analysis, in characters.
type Limits struct {
	MinChars int
	MaxChars int
}

// ValidateResumeText rejects text too short to be a resume or too long to process.
func ValidateResumeText(text string, limits Limits) error {
	n := utf8.RuneCountInString(text)
	switch {
	case n < limits.MinChars:
		return workflow.Errorf(workflow.StageIntake, workflow.KindValidation,
			"not a resume: the document contains only %d characters", n)
	case n > limits.MaxChars:
		return workflow.Errorf(workflow.StageIntake, workflow.KindValidation,
			"too long to process: the document contains %d characters (limit %d)", n, limits.MaxChars)
	}
	return nil
}

//nolint:gochecknoglobals // fixed response schemas
var (
	resumeSchema = llm.ObjectSchema("resume_analysis", map[string]any{
		"is_resume":           llm.BooleanProperty,
		"full_name":           llm.StringProperty,
		"email_address":       llm.StringProperty,
		"phone_number":        llm.StringProperty,
		"years_of_experience": llm.StringProperty,
		"desired_position":    llm.StringProperty,
		"current_location":    llm.StringProperty,
		"tech_stack":          llm.StringProperty,
		"other_details":       llm.StringProperty,
	})
	overviewSchema = llm.ObjectSchema("overview", map[string]any{
		"overview": llm.StringProperty,
	})
)

type resumeAnalysis struct {
	IsResume *bool `json:"is_resume"`
	Profile
}

func (r *resumeAnalysis) Validate() error {
	if r.IsResume == nil {
		return errors.New("is_resume is missing")
	}
	return nil
}

type overviewResult struct {
	Overview *string `json:"overview"`
}

func (r *overviewResult) Validate() error {
	if r.Overview == nil || strings.TrimSpace(*r.Overview) == "" {
		return errors.New("overview is empty")
	}
	return nil
}

// Analyzer runs the intake model calls.
type Analyzer struct {
	models effect.Models
	logger *logx.Logger
	limits Limits
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(models effect.Models, limits Limits) *Analyzer {
	return &Analyzer{
		models: models,
		limits: limits,
		logger: logx.NewLogger("intake"),
	}
}

// AnalyzeResume extracts a draft profile from resume text. Missing fields come back as
// "None" so the operator can correct them before submitting.
func (a *Analyzer) AnalyzeResume(ctx context.Context, text string) (*Profile, error) {
	if err := ValidateResumeText(text, a.limits); err != nil {
		return nil, err
	}

	var out resumeAnalysis
	if err := a.models.Structured(ctx, llm.StageIntake, prompts.ResumeAnalysis, &prompts.Data{Resume: text}, resumeSchema, &out); err != nil {
		return nil, workflow.FromLLM(workflow.StageIntake, err, "resume analysis failed")
	}
	if !*out.IsResume {
		return nil, workflow.Errorf(workflow.StageIntake, workflow.KindValidation, "not a resume")
	}

	profile := out.Profile.Normalized()
	a.logger.Info("📄 Resume analysed for %q", profile.FullName)
	return &profile, nil
}

// Summarize validates the profile and produces the candidate overview.
func (a *Analyzer) Summarize(ctx context.Context, profile Profile) (Overview, error) {
	if err := profile.Validate(); err != nil {
		return "", err
	}

	var out overviewResult
	data := &prompts.Data{Fields: profile.Normalized().String()}
	if err := a.models.Structured(ctx, llm.StageIntake, prompts.CandidateOverview, data, overviewSchema, &out); err != nil {
		return "", workflow.FromLLM(workflow.StageIntake, err, "overview generation failed")
	}

	overview := Overview(strings.TrimSpace(*out.Overview))
	a.logger.Info("✅ Overview created (%d chars)", len(overview))
	return overview, nil
}
