// Package commands implements the CLI commands for snapkeep.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/snapkeep/internal/cli"
	"github.com/thoreinstein/snapkeep/internal/config"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/logging"
)

var (
	// verbosity holds the count of -v flags.
	verbosity int

	// quiet holds the value of the -q/--quiet flag.
	quiet bool

	// logFormat holds the value of the --log-format flag.
	logFormat string

	// logFile holds the path to the diagnostic log.
	logFile string

	// configFile is an explicit config path; empty searches the defaults.
	configFile string
)

// logCloser closes the --log-file sink once the command finishes.
var logCloser io.Closer

// geteuid is swapped in tests.
var geteuid = os.Geteuid

// appConfig is the validated configuration for the running command.
var appConfig *config.Config

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv, -vvv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write a diagnostic log to file in JSON format")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ./config.yaml or $XDG_CONFIG_HOME/snapkeep/config.yaml)")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("snapkeep version {{.Version}}\n")

	// Errors are printed by main with the home directory redacted
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

var rootCmd = &cobra.Command{
	Use:   "snapkeep",
	Short: "Snapshot and restore editor chat history",
	Long: `snapkeep protects AI assistant chat history stored by your editor.

It copies matching history files into timestamped snapshots under the backup
base, restores them when an extension update wipes them, and can write-protect
the extension directory so updates cannot replace it.

Snapshots are stored in ~/.local/share/snapkeep/backups by default.`,
	Example: `  # Take a snapshot now
  snapkeep create-snapshot

  # See what is available
  snapkeep list-snapshots

  # Restore the newest snapshot
  snapkeep restore-snapshot latest

  # Pick a snapshot interactively
  snapkeep restore-snapshot -i

  # Stop the extension from being updated
  snapkeep lock

  See Also: snapkeep config show, snapkeep history`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Refused before anything touches the filesystem, the log file included
		if err := cli.CheckPrivileges(geteuid); err != nil {
			return mapError(err)
		}
		if err := setupLogging(cmd); err != nil {
			return err
		}
		// Neither needs a readable config; init exists to repair one
		if cmd == versionCmd || cmd == configInitCmd {
			return nil
		}
		return loadConfig()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(errors.New("--quiet and --verbose are mutually exclusive"), "Use one of -q or -v")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		level = logging.LevelFromVerbosity(verbosity)
	}

	var primary slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	switch logging.Format(logFormat) {
	case logging.FormatJSON:
		primary = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	default:
		primary = logging.NewHandler(cmd.ErrOrStderr(), opts)
	}

	handler := primary
	if logFile != "" {
		// The diagnostic log keeps full detail regardless of -v
		sink, closer, err := logging.OpenFileSink(logFile, min(level, slog.LevelDebug))
		if err != nil {
			return errors.NewUserError(errors.Wrap(err, "opening log file"), "Check the --log-file path")
		}
		logCloser = closer
		handler = logging.NewMultiHandler(primary, sink)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// loadConfig reads and validates the configuration into appConfig.
func loadConfig() error {
	config.Init()
	cfg, err := config.Load(configFile)
	if err != nil {
		return errors.NewConfigError(err)
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return errors.NewConfigError(errors.Mark(errors.Join(errs...), errors.ErrInvalidConfig))
	}
	appConfig = cfg
	return nil
}

// ExecuteContext runs the root command. The diagnostic log receives the
// full error; main prints only the redacted summary.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		slog.Debug("command failed", "error", err.Error())
		err = mapError(err)
	}
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
	return err
}
