package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/intake"
	"talentscout/pkg/interview"
	"talentscout/pkg/questions"
	"talentscout/pkg/report"
	"talentscout/pkg/session"
	"talentscout/pkg/workflow"
)

// errQuit ends the interactive session early.
var errQuit = errors.New("quit")

// console reads operator input line by line.
type console struct {
	in  *bufio.Scanner
	out io.Writer
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// ask prints prompt and returns the trimmed reply. EOF and /quit return errQuit.
func (c *console) ask(prompt string) (string, error) {
	c.printf("%s", prompt)
	if !c.in.Scan() {
		return "", errQuit
	}
	line := strings.TrimSpace(c.in.Text())
	if line == "/quit" {
		return "", errQuit
	}
	return line, nil
}

// runInteractive walks one candidate through the whole workflow in the terminal.
func runInteractive(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	c := &console{in: bufio.NewScanner(in), out: out}
	c.in.Buffer(make([]byte, 0, 64*1024), 1<<20)
	sess := a.sessions.Create()
	c.printf("🎙️  Session %s. Type /quit at any prompt to stop.\n\n", sess.ID())

	err := interviewLoop(ctx, c, sess)
	if errors.Is(err, errQuit) {
		c.printf("👋 Stopped.\n")
		err = nil
	}
	if m := a.internal.GetSessionMetrics(sess.ID()); m != nil {
		c.printf("📊 %d model calls, %d tokens, $%.4f\n", m.RequestCount, m.TotalTokens, m.TotalCost)
	}
	return err
}

func interviewLoop(ctx context.Context, c *console, sess *session.Session) error {
	draft, err := draftProfile(ctx, c, sess)
	if err != nil {
		return err
	}
	if err := submitProfile(ctx, c, sess, draft); err != nil {
		return err
	}
	if err := startInterview(ctx, c, sess); err != nil {
		return err
	}
	if err := answerQuestions(ctx, c, sess); err != nil {
		return err
	}
	return produceReport(ctx, c, sess)
}

// draftProfile optionally pre-fills the profile from a resume file.
func draftProfile(ctx context.Context, c *console, sess *session.Session) (intake.Profile, error) {
	for {
		path, err := c.ask("📄 Resume file (PDF or text, Enter to skip): ")
		if err != nil || path == "" {
			return intake.Profile{}, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			c.printf("❌ %v\n", err)
			continue
		}

		var p *intake.Profile
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			p, err = sess.AnalyzeResumePDF(ctx, data)
		} else {
			p, err = sess.AnalyzeResume(ctx, string(data))
		}
		if err != nil {
			c.printf("❌ %v\n", err)
			continue
		}
		c.printf("✅ Resume analysed. Press Enter to keep a suggested value.\n")
		return *p, nil
	}
}

func profileFields(p *intake.Profile) []struct {
	label string
	value *string
} {
	return []struct {
		label string
		value *string
	}{
		{"Full name", &p.FullName},
		{"Email address", &p.EmailAddress},
		{"Phone number", &p.PhoneNumber},
		{"Years of experience", &p.YearsOfExperience},
		{"Desired position", &p.DesiredPosition},
		{"Current location", &p.CurrentLocation},
		{"Tech stack", &p.TechStack},
		{"Other details", &p.OtherDetails},
	}
}

func submitProfile(ctx context.Context, c *console, sess *session.Session, draft intake.Profile) error {
	p := draft
	for {
		for _, f := range profileFields(&p) {
			prompt := f.label + ": "
			if *f.value != "" {
				prompt = fmt.Sprintf("%s [%s]: ", f.label, *f.value)
			}
			answer, err := c.ask(prompt)
			if err != nil {
				return err
			}
			if answer != "" {
				*f.value = answer
			}
		}

		overview, err := sess.SubmitProfile(ctx, p)
		if err == nil {
			c.printf("\n🧾 %s\n\n", overview)
			return nil
		}
		c.printf("❌ %v\n", err)
		if !workflow.Is(err, workflow.KindValidation) && !retry(c) {
			return err
		}
	}
}

func startInterview(ctx context.Context, c *console, sess *session.Session) error {
	for {
		c.printf("⏳ Preparing questions...\n")
		err := sess.StartInterview(ctx)
		if err == nil {
			return nil
		}
		c.printf("❌ %v\n", err)
		if !retry(c) {
			return err
		}
	}
}

func retry(c *console) bool {
	answer, err := c.ask("Retry? [Y/n]: ")
	return err == nil && !strings.EqualFold(answer, "n")
}

func answerQuestions(ctx context.Context, c *console, sess *session.Session) error {
	shown := 0
	for {
		view := sess.Snapshot()
		if view.Phase == interview.PhaseFinished {
			return nil
		}
		if shown == 0 || view.QuestionIndex != shown-1 {
			c.printf("\n❓ Question %d/%d\n", view.QuestionIndex+1, view.QuestionCount)
			shown = view.QuestionIndex + 1
		}
		printInterviewerTurn(c, view)

		if view.PendingAdvance {
			if _, err := c.ask("Press Enter for the next question: "); err != nil {
				return err
			}
			if err := sess.ConfirmAdvance(ctx); err != nil {
				c.printf("❌ %v\n", err)
			}
			continue
		}

		hint := "> "
		if view.QuestionKind == questions.KindDrawing {
			hint = "(/draw <image file> to attach your sketch) > "
		}
		line, err := c.ask(hint)
		if err != nil {
			return err
		}
		if path, ok := strings.CutPrefix(line, "/draw "); ok {
			attachDrawing(ctx, c, sess, strings.TrimSpace(path))
			continue
		}
		if err := sess.SubmitAnswer(ctx, line); err != nil {
			c.printf("❌ %v\n", err)
		}
	}
}

func printInterviewerTurn(c *console, view session.View) {
	if n := len(view.Conversation); n > 0 && view.Conversation[n-1].Speaker == interview.SpeakerInterviewer {
		c.printf("🧑‍💼 %s\n", view.Conversation[n-1].Text)
	}
}

func attachDrawing(ctx context.Context, c *console, sess *session.Session, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		c.printf("❌ %v\n", err)
		return
	}
	img := llm.Image{MIMEType: http.DetectContentType(data), Data: data}
	if err := sess.SetDrawing(ctx, img); err != nil {
		c.printf("❌ %v\n", err)
		return
	}
	c.printf("🖼️  Drawing attached (%s). Now explain it.\n", img.MIMEType)
}

func produceReport(ctx context.Context, c *console, sess *session.Session) error {
	for {
		c.printf("\n⏳ Writing the report...\n")
		r, err := sess.RequestReport(ctx)
		if err == nil {
			printReport(c, r)
			return nil
		}
		c.printf("❌ %v\n", err)
		if !retry(c) {
			return err
		}
	}
}

func printReport(c *console, r *report.Report) {
	c.printf("\n📋 Report %s\n\n", r.ID)
	for i, conv := range r.Conversations {
		c.printf("%d. %s\n   %s\n", i+1, conv.Question, conv.Summary)
	}
	c.printf("\n%s\n\n", r.Overall.Summary)
	c.printf("Communication: %d/%d\n", r.Overall.CommunicationScore, report.MaxScore)
	c.printf("Technical:     %d/%d\n", r.Overall.TechnicalScore, report.MaxScore)
	for _, t := range r.Overall.KeyTakeaways {
		c.printf("  • %s\n", t)
	}
}
