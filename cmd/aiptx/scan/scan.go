package scan

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aiptx/aiptx-go/internal/config"
	"github.com/aiptx/aiptx-go/internal/dao"
	"github.com/aiptx/aiptx-go/internal/database"
	"github.com/aiptx/aiptx-go/internal/history"
	"github.com/aiptx/aiptx-go/internal/notification"
	"github.com/aiptx/aiptx-go/internal/report"
	"github.com/aiptx/aiptx-go/pkg/aiptx"
	"github.com/aiptx/aiptx-go/pkg/logger"
	"github.com/aiptx/aiptx-go/pkg/session"
)

// Options holds the scan command configuration.
type Options struct {
	Target     string
	Mode       string
	AI         bool
	Exploit    bool
	Phases     []string
	Profile    string
	Poll       bool
	SarifPath  string
	ConfigPath string
	Verbose    bool
}

// App drives one scan from submission to terminal state.
type App struct {
	opts          *Options
	cfg           *config.Config
	logger        *logger.Logger
	client        *aiptx.Client
	recorder      *history.Recorder
	discordClient *notification.NotificationClient
}

// NewApp loads configuration and initializes the optional integrations.
func NewApp(opts *Options) (*App, error) {
	logLevel := logrus.InfoLevel
	if opts.Verbose {
		logLevel = logrus.DebugLevel
	}
	appLogger := logger.NewLogger(logLevel)

	cfg, err := config.NewLoader(opts.ConfigPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	app := &App{
		opts:   opts,
		cfg:    cfg,
		logger: appLogger,
		client: aiptx.NewClient(cfg.ServerURL, cfg.APIKey, aiptx.WithTimeout(cfg.Timeout)),
	}

	if cfg.History.Enabled {
		db, err := database.Open(cfg.History)
		if err != nil {
			appLogger.WithError(err).Warn("Failed to open scan history database")
		} else {
			app.recorder = history.NewRecorder(dao.NewHistoryDAO(db))
			appLogger.Info("Scan history enabled")
		}
	}

	if cfg.Discord.Enabled() {
		discordClient, err := notification.NewNotificationClient(cfg.Discord.Token, cfg.Discord.ChannelID)
		if err != nil {
			appLogger.WithError(err).Warn("Failed to initialize Discord client")
		} else {
			app.discordClient = discordClient
			appLogger.Info("Discord notifications enabled")
		}
	}

	return app, nil
}

// Close cleans up application resources.
func (a *App) Close() error {
	if a.discordClient != nil {
		return a.discordClient.Close()
	}
	return nil
}

// buildRequest assembles the scan request from the profile, then the flags.
func (a *App) buildRequest() (*aiptx.ScanRequest, error) {
	req := &aiptx.ScanRequest{}

	if a.opts.Profile != "" {
		profile, err := LoadProfile(a.opts.Profile)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		profile.Apply(req)
		a.logger.WithFields(logger.Fields{"profile": a.opts.Profile}).Info("Loaded scan profile")
	}

	if a.opts.Target != "" {
		req.Target = a.opts.Target
	}
	if a.opts.Mode != "" {
		req.Mode = aiptx.ScanMode(a.opts.Mode)
	}
	if a.opts.AI {
		req.AI = true
	}
	if a.opts.Exploit {
		req.Exploit = true
	}
	if len(a.opts.Phases) > 0 {
		req.Phases = a.opts.Phases
	}

	// "ai" is CLI shorthand for an AI-assisted standard scan.
	if req.Mode == aiptx.ModeAI {
		req.Mode = aiptx.ModeStandard
		req.AI = true
	}
	if req.Mode == "" {
		req.Mode = aiptx.ModeStandard
	}

	if req.Target == "" {
		return nil, fmt.Errorf("no target given (use --target or a profile)")
	}
	return req, nil
}

// Run submits the scan and follows it to a terminal state.
func (a *App) Run(ctx context.Context) error {
	req, err := a.buildRequest()
	if err != nil {
		return err
	}

	sessionOpts := []session.Option{
		session.WithLogger(a.logger),
		session.WithPollInterval(a.cfg.PollInterval),
		session.WithMaxReconnects(a.cfg.MaxReconnects),
	}
	if a.opts.Poll {
		sessionOpts = append(sessionOpts, session.WithStrategy(session.StrategyPoll))
	}

	sess := session.New(a.client, sessionOpts...)

	job, err := sess.Start(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to start scan: %w", err)
	}

	if a.recorder != nil {
		if err := a.recorder.RecordSubmitted(req, job); err != nil {
			a.logger.WithError(err).Warn("Failed to record scan submission")
		}
	}

	// Cancel the session on shutdown signals; the event channel closes and
	// the loop below drains out.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			a.logger.WithFields(logger.Fields{"signal": sig.String()}).Info("Received shutdown signal")
			sess.Cancel()
		case <-sess.Done():
		}
	}()

	for ev := range sess.Events() {
		a.reportEvent(req.Target, ev)
	}
	<-sess.Done()

	final := sess.Job()
	if a.recorder != nil {
		if err := a.recorder.RecordOutcome(final); err != nil {
			a.logger.WithError(err).Warn("Failed to record scan outcome")
		}
	}
	if a.discordClient != nil && sess.State().Terminal() {
		if err := a.discordClient.SendScanComplete(req.Target, final); err != nil {
			a.logger.WithError(err).Warn("Failed to send completion notification")
		}
	}

	if a.opts.SarifPath != "" {
		findings := sess.FindingsBySeverity()
		if err := report.SaveSarif(a.opts.SarifPath, req.Target, findings); err != nil {
			return fmt.Errorf("failed to write SARIF report: %w", err)
		}
		a.logger.WithFields(logger.Fields{
			"path":     a.opts.SarifPath,
			"findings": len(findings),
		}).Info("SARIF report written")
	}

	a.printSummary(sess)

	if sess.State() == session.StateErrored {
		return fmt.Errorf("scan failed: %s", final.Error)
	}
	if sess.Cancelled() {
		return fmt.Errorf("scan cancelled")
	}
	return nil
}

// reportEvent logs one session event and forwards notable findings.
func (a *App) reportEvent(target string, ev session.Event) {
	switch ev.Kind {
	case session.KindProgress:
		a.logger.WithFields(logger.Fields{
			"phase":   ev.Phase,
			"percent": ev.Percent,
		}).Info("Scan progress")

	case session.KindFinding:
		f := ev.Finding
		a.logger.WithFields(logger.Fields{
			"severity": f.Severity,
			"type":     f.Type,
			"value":    f.Value,
			"tool":     f.Tool,
		}).Info("Finding")

		if a.discordClient != nil && f.Severity.Rank() <= aiptx.SeverityHigh.Rank() {
			if err := a.discordClient.SendFindingAlert(target, f); err != nil {
				a.logger.WithError(err).Warn("Failed to send finding alert")
			}
		}

	case session.KindComplete:
		a.logger.WithFields(logger.Fields{"job_id": ev.JobID}).Info("Scan completed")

	case session.KindError:
		a.logger.WithError(ev.Err).Error("Scan ended with error")

	case session.KindWarning:
		a.logger.WithError(ev.Err).Warn("Dropped malformed stream event")
	}
}

func (a *App) printSummary(sess *session.Session) {
	job := sess.Job()
	findings := sess.FindingsBySeverity()

	fmt.Printf("\nScan %s: %s\n", job.ID, sess.State())
	if dup := sess.Aggregator().Duplicates(); dup > 0 {
		fmt.Printf("Findings: %d (%d duplicates dropped)\n", len(findings), dup)
	} else {
		fmt.Printf("Findings: %d\n", len(findings))
	}
	for _, f := range findings {
		marker := ""
		if f.FalsePositive {
			marker = " [false positive]"
		}
		fmt.Printf("  [%s] %s: %s%s\n", f.Severity, f.Type, f.Value, marker)
	}
}

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	opts := &Options{}

	scanCmd := &cobra.Command{
		Use:   "scan [target]",
		Short: "Run a scan against a target and follow it live",
		Long:  `Submit a scan to the AIPTX server and stream progress, findings and the final result`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if len(args) == 1 {
				opts.Target = args[0]
			}

			app, err := NewApp(opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil {
					app.logger.WithError(closeErr).Error("Error closing application")
				}
			}()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			return app.Run(ctx)
		},
	}

	scanCmd.Flags().StringVarP(&opts.Target, "target", "t", "", "Target host or domain to scan")
	scanCmd.Flags().StringVarP(&opts.Mode, "mode", "m", "", "Scan mode: quick, standard, full or ai")
	scanCmd.Flags().BoolVar(&opts.AI, "ai", false, "Enable AI-assisted analysis")
	scanCmd.Flags().BoolVar(&opts.Exploit, "exploit", false, "Allow exploitation attempts")
	scanCmd.Flags().StringSliceVar(&opts.Phases, "phases", nil, "Explicit phases to run, overriding the mode")
	scanCmd.Flags().StringVar(&opts.Profile, "profile", "", "YAML scan profile to load")
	scanCmd.Flags().BoolVar(&opts.Poll, "poll", false, "Poll for status instead of streaming")
	scanCmd.Flags().StringVar(&opts.SarifPath, "sarif", "", "Write findings to a SARIF file")
	scanCmd.Flags().StringVar(&opts.ConfigPath, "config", "", "Configuration file path")
	scanCmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable verbose logging")

	return scanCmd
}
