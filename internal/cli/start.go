package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hollis/cradle/internal/config"
	"github.com/hollis/cradle/internal/logger"
	"github.com/hollis/cradle/internal/metrics"
	"github.com/hollis/cradle/internal/server"
	"github.com/hollis/cradle/pkg/agent"
	"github.com/hollis/cradle/pkg/convlog"
	"github.com/hollis/cradle/pkg/huckleberry"
	"github.com/hollis/cradle/pkg/session"
	"github.com/hollis/cradle/pkg/tools"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Cradle service",
	Long: `Start the Cradle service in the foreground.
The service authenticates with Huckleberry, opens realtime streams for
every child, and serves the conversation API over HTTP.`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLogger, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()
	log := appLogger.GetZerolog()

	log.Info().Str("version", version).Msg("Starting cradle")

	location, err := time.LoadLocation(cfg.Huckleberry.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	m := metrics.New()

	client, err := huckleberry.NewClient(huckleberry.ClientConfig{
		BaseURL:  cfg.Huckleberry.BaseURL,
		Email:    cfg.Huckleberry.Email,
		Password: cfg.Huckleberry.Password,
		Timezone: cfg.Huckleberry.Timezone,
		Timeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("failed to create huckleberry client: %w", err)
	}

	manager := huckleberry.NewManager(client, location, log)
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStartup()
	if err := manager.Startup(startupCtx); err != nil {
		return fmt.Errorf("huckleberry startup failed: %w", err)
	}
	defer manager.Teardown()

	convLog, err := convlog.New(convlog.Config{
		Path:          cfg.ConvLog.Path,
		RetentionDays: cfg.ConvLog.RetentionDays,
		Logger:        log,
	})
	if err != nil {
		return fmt.Errorf("failed to open conversation log: %w", err)
	}
	convLog.Prune()
	if err := convLog.StartPruneSchedule(); err != nil {
		return fmt.Errorf("failed to start log pruning: %w", err)
	}
	defer convLog.Stop()

	sessions := session.NewStore(cfg.Session.TTL(), m)
	sweeper := session.NewSweeper(sessions, cfg.Session.SweepInterval())
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("failed to start session sweeper: %w", err)
	}
	defer sweeper.Stop()

	dispatcher, err := tools.NewDispatcher(manager, location, log, m)
	if err != nil {
		return fmt.Errorf("failed to create tool dispatcher: %w", err)
	}

	provider := agent.NewAnthropicProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	runner, err := agent.NewRunner(agent.Config{
		Provider:      provider,
		Dispatcher:    dispatcher,
		Source:        manager,
		Timezone:      cfg.Huckleberry.Timezone,
		MaxIterations: cfg.Anthropic.MaxIterations,
		Logger:        log,
		Metrics:       m,
	})
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	classifier := server.NewDoneClassifier(cfg.Anthropic.APIKey, cfg.Anthropic.ClassifierModel, log)

	srv, err := server.NewServer(server.Config{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		Runner:             runner,
		Sessions:           sessions,
		Status:             manager,
		Classifier:         classifier,
		ConvLog:            convLog,
		Metrics:            m,
		Logger:             log,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
	return nil
}
