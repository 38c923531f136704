// Command talentscout runs the mock-interview workflow, either as an HTTP JSON API for an
// operator UI or as an interactive terminal session.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"talentscout/pkg/agent"
	llmmetrics "talentscout/pkg/agent/middleware/metrics"
	"talentscout/pkg/config"
	"talentscout/pkg/effect"
	"talentscout/pkg/intake"
	"talentscout/pkg/logx"
	"talentscout/pkg/metrics"
	"talentscout/pkg/persistence"
	"talentscout/pkg/prompts"
	"talentscout/pkg/session"
	"talentscout/pkg/version"
	"talentscout/pkg/webui"
)

func main() {
	var (
		projectDir  = flag.String("projectdir", ".", "Project directory")
		interactive = flag.Bool("interactive", false, "Run one interview in the terminal instead of serving the web UI")
		secrets     = flag.Bool("secrets", false, "Encrypt and store API keys in the project, then exit")
		tee         = flag.Bool("tee", false, "Output logs to both console and file (default: file only)")
		debug       = flag.Bool("debug", false, "Enable debug logging (also DEBUG=1)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("talentscout %s\n", version.Version)
		fmt.Printf("  commit: %s\n", version.Commit)
		fmt.Printf("  built:  %s\n", version.Date)
		os.Exit(0)
	}

	if *debug {
		logx.SetDebug(true)
	}

	logsDir := filepath.Join(*projectDir, config.ProjectConfigDir, "logs")
	if err := logx.InitializeLogFile(logsDir, 4, *tee); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize log file: %v\n", err)
		os.Exit(1)
	}

	exitCode := run(*projectDir, *interactive, *secrets)

	if closeErr := logx.CloseLogFile(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", closeErr)
	}
	os.Exit(exitCode)
}

// run contains the main application logic and returns an exit code.
// This allows defers in main() to execute before os.Exit is called.
func run(projectDir string, interactive, storeSecrets bool) int {
	if storeSecrets {
		if err := handleCredentialStorage(projectDir); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to store credentials: %v\n", err)
			return 1
		}
		return 0
	}

	if err := config.LoadConfig(projectDir); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if err := handleSecretsDecryption(projectDir); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to handle secrets: %v\n", err)
		return 1
	}
	logx.Infof("🚀 talentscout %s starting in %s", version.Version, projectDir)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := buildApp(ctx, projectDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		return 1
	}
	defer app.close()

	if interactive {
		if err := runInteractive(ctx, app, os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Interview failed: %v\n", err)
			return 1
		}
		return 0
	}

	if err := app.serve(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Web UI failed: %v\n", err)
		return 1
	}
	return 0
}

// app is the wired set of services shared by both run modes.
type app struct {
	cfg      config.Config
	sessions *session.Manager
	internal *llmmetrics.InternalRecorder
	registry *prometheus.Registry
	archive  *persistence.ReportStore
	usage    webui.UsageQuerier
	dir      string
}

func buildApp(ctx context.Context, projectDir string) (*app, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err //nolint:wrapcheck // config errors are descriptive
	}

	a := &app{cfg: cfg, dir: projectDir, internal: llmmetrics.NewInternalRecorder()}
	recorder := llmmetrics.Recorder(a.internal)
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		recorder = llmmetrics.Multi(llmmetrics.NewPrometheusRecorder(a.registry), a.internal)
	}

	factory, err := agent.NewLLMClientFactory(cfg, recorder)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client factory: %w", err)
	}
	clients, err := createClients(ctx, factory)
	if err != nil {
		return nil, err
	}

	renderer, err := prompts.NewRendererWithOverrides(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	rt := effect.NewBaseRuntime(clients, renderer, logx.NewLogger("runtime"), "")

	opts := &session.Options{
		Resume:           intake.Limits{MinChars: cfg.Interview.ResumeMinChars, MaxChars: cfg.Interview.ResumeMaxChars},
		GeneralQuestions: cfg.Interview.GeneralQuestions,
		AnswerMaxChars:   cfg.Interview.AnswerMaxChars,
	}
	if opts.Model, err = factory.ModelFor(agent.RoleInterview); err != nil {
		return nil, err //nolint:wrapcheck // factory errors name the role
	}

	if cfg.Archive.Enabled {
		dbPath := filepath.Join(projectDir, config.ProjectConfigDir, config.DatabaseFilename)
		if err := persistence.Initialize(dbPath); err != nil {
			return nil, logx.Wrap(err, "failed to open report archive")
		}
		a.archive = persistence.Store()
		opts.Archive = a.archive
	} else {
		logx.Warnf("📦 Report archive disabled; finished reports are kept only in their session")
	}

	a.usage = recorderUsage{recorder: a.internal}
	if cfg.Metrics.Enabled && cfg.Metrics.PrometheusURL != "" {
		qs, err := metrics.NewQueryService(cfg.Metrics.PrometheusURL)
		if err != nil {
			return nil, err //nolint:wrapcheck // already wrapped
		}
		a.usage = qs
	}

	a.sessions = session.NewManager(rt, opts)
	return a, nil
}

// createClients builds one client per role after checking each distinct model's key.
func createClients(ctx context.Context, factory *agent.LLMClientFactory) (effect.Clients, error) {
	var clients effect.Clients
	checked := make(map[string]bool)
	for _, role := range []agent.Role{agent.RoleInterview, agent.RoleVision, agent.RoleReport} {
		model, err := factory.ModelFor(role)
		if err != nil {
			return clients, err //nolint:wrapcheck // factory errors name the role
		}
		if !checked[model] {
			config.LogInfo("🔑 Checking API key for %s (%s)", model, role)
			if err := factory.CheckKey(ctx, role); err != nil {
				return clients, fmt.Errorf("API key check failed for %s: %w", model, err)
			}
			checked[model] = true
		}

		client, err := factory.CreateClient(role)
		if err != nil {
			return clients, fmt.Errorf("failed to create %s client: %w", role, err)
		}
		switch role {
		case agent.RoleInterview:
			clients.Interview = client
		case agent.RoleVision:
			clients.Vision = client
		case agent.RoleReport:
			clients.Report = client
		}
	}
	return clients, nil
}

func (a *app) serve(ctx context.Context) error {
	server := webui.NewServer(a.sessions, a.dir)
	if a.archive != nil {
		server.SetReportArchive(a.archive)
	}
	server.SetUsageQuerier(a.usage)
	if a.registry != nil {
		server.SetGatherer(a.registry)
	}

	if err := server.StartServer(ctx, a.cfg.WebUI.Host, a.cfg.WebUI.Port); err != nil {
		return err //nolint:wrapcheck // server errors are descriptive
	}
	fmt.Printf("🌐 Serving on http://%s:%d (Ctrl-C to stop)\n", a.cfg.WebUI.Host, a.cfg.WebUI.Port)
	<-ctx.Done()
	return nil
}

func (a *app) close() {
	if a.archive != nil {
		if err := persistence.Close(); err != nil {
			config.LogInfo("⚠️  Failed to close report archive: %v", err)
		}
	}
}
