package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/peekd/peekd/internal/viewer"
	"github.com/peekd/peekd/pkg/api"
	"github.com/peekd/peekd/pkg/capture"
	"github.com/peekd/peekd/pkg/config"
	"github.com/peekd/peekd/pkg/logging"
	"github.com/peekd/peekd/pkg/requestlog"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	port         int
	maxRecords   int
	maxBodyBytes int64
	configFile   string
	ignore       []string
	logLevel     string
	logFormat    string
	logFile      string
	noViewer     bool
}

var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the request inspector (foreground)",
	Long: `Start the inspector server. Every request to a path the inspector does
not claim is captured into the in-memory log and fanned out to live viewers.

Precedence for settings: flags override PEEKD_* environment variables, which
override peekd.yaml, which overrides built-in defaults.`,
	Example: `  # Start with defaults (port 8000, last 100 requests)
  peekd serve

  # Custom port and history size
  peekd serve --port 9000 --max-records 500

  # Skip noise from browsers and health checkers
  peekd serve --ignore /favicon.ico --ignore '/probes/**'

  # Load settings from a file
  peekd serve --config peekd.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, &serveFlagVals)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	registerServeFlags(serveCmd, &serveFlagVals)
}

func registerServeFlags(cmd *cobra.Command, f *serveFlags) {
	cmd.Flags().IntVarP(&f.port, "port", "p", config.DefaultPort, "HTTP server port")
	cmd.Flags().IntVar(&f.maxRecords, "max-records", config.DefaultMaxRecords, "Maximum captured requests to keep (oldest evicted first)")
	cmd.Flags().Int64Var(&f.maxBodyBytes, "max-body-bytes", config.DefaultMaxBodyBytes, "Maximum body bytes stored per request")
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to peekd.yaml configuration file")
	cmd.Flags().StringSliceVar(&f.ignore, "ignore", nil, "Path globs to acknowledge but not record (repeatable)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "Also write logs to this file")
	cmd.Flags().BoolVar(&f.noViewer, "no-viewer", false, "Disable the browser dashboard at /")
}

// resolveConfig layers flags over environment and file settings.
func resolveConfig(cmd *cobra.Command, f *serveFlags) (*config.Config, error) {
	path := f.configFile
	if path == "" {
		path = config.FileFromEnv()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("port") {
		cfg.Port = f.port
	}
	if cmd.Flags().Changed("max-records") {
		cfg.MaxRecords = f.maxRecords
	}
	if cmd.Flags().Changed("max-body-bytes") {
		cfg.MaxBodyBytes = f.maxBodyBytes
	}
	if cmd.Flags().Changed("ignore") {
		cfg.Ignore = f.ignore
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if cmd.Flags().Changed("log-file") {
		cfg.LogFile = f.logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildLogger creates the operational logger, teeing to a file when
// configured. The returned closer is non-nil when a file is open.
func buildLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	logCfg := logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
		Output: os.Stderr,
	}

	if cfg.LogFile == "" {
		return logging.New(logCfg), nil, nil
	}

	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	fileCfg := logCfg
	fileCfg.Output = file
	fileCfg.Format = logging.FormatJSON

	handler := logging.NewMultiHandler(logging.NewHandler(logCfg), logging.NewHandler(fileCfg))
	return slog.New(handler), file, nil
}

func runServe(cmd *cobra.Command, f *serveFlags) error {
	cfg, err := resolveConfig(cmd, f)
	if err != nil {
		return err
	}

	log, logCloser, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	store := requestlog.NewMemoryStore(cfg.MaxRecords)

	captureHandler := capture.NewHandler(store,
		capture.WithLogger(log),
		capture.WithIgnoreGlobs(cfg.Ignore),
		capture.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)

	var viewerHandler = viewer.Handler()
	if f.noViewer {
		viewerHandler = nil
	}

	server := api.NewServer(cfg.Port, store, captureHandler, viewerHandler)
	server.SetLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return err
	}

	fmt.Printf("peekd listening on http://localhost:%d\n", cfg.Port)
	fmt.Printf("  dashboard  http://localhost:%d/\n", cfg.Port)
	fmt.Printf("  live feed  http://localhost:%d/events\n", cfg.Port)
	fmt.Printf("  history    http://localhost:%d/api/requests\n", cfg.Port)

	<-ctx.Done()
	stop()

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
