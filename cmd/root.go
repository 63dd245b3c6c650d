package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhinvv1/WebDriverAgent/internal/config"
	"github.com/abhinvv1/WebDriverAgent/internal/logging"
	"github.com/abhinvv1/WebDriverAgent/internal/output"
	"github.com/abhinvv1/WebDriverAgent/internal/telemetry"

	// Registers the file-backed platform provider.
	_ "github.com/abhinvv1/WebDriverAgent/internal/platform/fixture"
)

// version is set at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

// session holds what the root command prepared for the running subcommand.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	shutdown func(context.Context) error
}

var app = session{
	cfg:    config.Default(),
	logger: slog.Default(),
}

var rootCmd = &cobra.Command{
	Use:   "gridtree",
	Short: "Rebuild UI element trees by grid sampling",
	Long: `gridtree reconstructs an application's full accessibility hierarchy when the
platform only exposes shallow snapshots. It probes a grid of points, takes a
bounded snapshot at each hit and merges the partial views by element identity.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("fixture", "", "Fixture tree to sample (YAML, or WDA page source ending in .xml)")
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json, xml")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text, json (default from config)")
	rootCmd.PersistentFlags().Bool("trace", false, "Export OpenTelemetry spans to stderr")
	rootCmd.PersistentPreRunE = setup
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.shutdown == nil {
			return nil
		}
		return app.shutdown(context.Background())
	}
}

// setup loads configuration and installs logging, tracing and the output
// format before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	flags := rootCmd.PersistentFlags()

	format, _ := flags.GetString("format")
	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	output.OutputFormat = f
	output.PrettyOutput, _ = flags.GetBool("pretty")

	cfg := config.Default()
	if path, _ := flags.GetString("config"); path != "" {
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}
	logger, err := logging.SetDefault(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	trace, _ := flags.GetBool("trace")
	shutdown, err := telemetry.Init(cmd.Context(), telemetry.Config{
		Enabled: trace,
		Writer:  os.Stderr,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	app = session{cfg: cfg, logger: logger, shutdown: shutdown}
	return nil
}
