// Package prompts provides the prompt templates sent to the language model for each workflow stage.
package prompts

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"text/template"

	"gopkg.in/yaml.v3"

	"talentscout/pkg/config"
	"talentscout/pkg/logx"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Name identifies a prompt template.
type Name string

const (
	ResumeAnalysis      Name = "resume_analysis"
	CandidateOverview   Name = "candidate_overview"
	GeneralQuestions    Name = "general_questions"
	DebuggingQuestion   Name = "debugging_question"
	DrawingQuestion     Name = "drawing_question"
	Judgment            Name = "judgment"
	JudgmentCapped      Name = "judgment_capped"
	DrawingAnalysis     Name = "drawing_analysis"
	DrawingAnswer       Name = "drawing_answer"
	ConversationSummary Name = "conversation_summary"
	OverallSummary      Name = "overall_summary"
)

// allNames lists every prompt the workflow renders; each must be present after loading.
//
//nolint:gochecknoglobals // fixed list of embedded prompts
var allNames = []Name{
	ResumeAnalysis, CandidateOverview,
	GeneralQuestions, DebuggingQuestion, DrawingQuestion,
	Judgment, JudgmentCapped, DrawingAnalysis, DrawingAnswer,
	ConversationSummary, OverallSummary,
}

// Data holds the values a prompt may reference.
type Data struct {
	Resume       string
	Fields       string
	Overview     string
	Count        int
	Question     string
	Answer       string
	Analysis     string
	Conversation string
	Summaries    string
}

// Prompt is a rendered system/user pair. System is empty for single-message prompts.
type Prompt struct {
	System string
	User   string
}

type entry struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type compiled struct {
	system *template.Template
	user   *template.Template
}

// Renderer renders prompt templates.
type Renderer struct {
	templates map[Name]compiled
}

// NewRenderer loads the embedded prompts.
func NewRenderer() (*Renderer, error) {
	return NewRendererWithOverrides("")
}

// NewRendererWithOverrides loads the embedded prompts and then applies the entries of
// <projectDir>/.talentscout/prompts.yaml, if that file exists.
func NewRendererWithOverrides(projectDir string) (*Renderer, error) {
	entries := make(map[Name]entry)
	if err := yaml.Unmarshal(defaultPrompts, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse embedded prompts: %w", err)
	}

	if projectDir != "" {
		path := filepath.Join(projectDir, config.ProjectConfigDir, config.PromptsFilename)
		overrides, err := loadOverrides(path)
		if err != nil {
			return nil, err
		}
		for name, e := range overrides {
			base := entries[name]
			if e.System != "" {
				base.System = e.System
			}
			if e.User != "" {
				base.User = e.User
			}
			entries[name] = base
		}
		if len(overrides) > 0 {
			logx.NewLogger("prompts").Info("📝 Applied %d prompt overrides from %s", len(overrides), path)
		}
	}

	r := &Renderer{templates: make(map[Name]compiled, len(entries))}
	for _, name := range allNames {
		e, ok := entries[name]
		if !ok || e.User == "" {
			return nil, fmt.Errorf("prompt %s is missing a user template", name)
		}
		c, err := compile(name, e)
		if err != nil {
			return nil, err
		}
		r.templates[name] = c
	}

	// Catch references to unknown fields at load time instead of mid-interview.
	for _, name := range allNames {
		if _, err := r.Render(name, &Data{}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func loadOverrides(path string) (map[Name]entry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt overrides %s: %w", path, err)
	}

	overrides := make(map[Name]entry)
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse prompt overrides %s: %w", path, err)
	}
	for name := range overrides {
		if !slices.Contains(allNames, name) {
			return nil, fmt.Errorf("prompt overrides %s: unknown prompt %q", path, name)
		}
	}
	return overrides, nil
}

func compile(name Name, e entry) (compiled, error) {
	var c compiled
	var err error
	if e.System != "" {
		c.system, err = template.New(string(name) + ".system").Parse(e.System)
		if err != nil {
			return c, fmt.Errorf("failed to parse prompt %s system: %w", name, err)
		}
	}
	c.user, err = template.New(string(name) + ".user").Parse(e.User)
	if err != nil {
		return c, fmt.Errorf("failed to parse prompt %s user: %w", name, err)
	}
	return c, nil
}

// Render renders the named prompt with data.
func (r *Renderer) Render(name Name, data *Data) (Prompt, error) {
	c, ok := r.templates[name]
	if !ok {
		return Prompt{}, fmt.Errorf("prompt %s not found", name)
	}

	var p Prompt
	var err error
	if c.system != nil {
		if p.System, err = execute(c.system, data); err != nil {
			return Prompt{}, fmt.Errorf("failed to render prompt %s: %w", name, err)
		}
	}
	if p.User, err = execute(c.user, data); err != nil {
		return Prompt{}, fmt.Errorf("failed to render prompt %s: %w", name, err)
	}
	return p, nil
}

func execute(t *template.Template, data *Data) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err //nolint:wrapcheck // wrapped by Render
	}
	return buf.String(), nil
}
