package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"DisasterTriage/internal/config"
	"DisasterTriage/internal/logging"
)

const envPrefix = "DISASTER_TRIAGE"

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// NewRootCommand builds the command tree. Every call returns a fresh tree
// with its own flag set, so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "disastertriage",
		Short: "Triage disaster reports into structured, geolocated records",
		Long: `disastertriage turns short free-text disaster reports into triage records:
sentiment, urgency, category, extracted entities and a resolved location.

It can triage JSON Lines files directly, train the category classifier,
collect from configured sites into a database, run collection on a schedule
and serve the HTTP API.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "path to the YAML config file")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: console or json")
	flags.String("db-driver", "", "database driver: sqlite or postgres")
	flags.String("db-dsn", "", "database connection string")
	flags.Int("workers", 0, "concurrent triage workers")
	_ = v.BindPFlags(flags)

	rootCmd.AddCommand(
		newVersionCommand(),
		newTriageCommand(v),
		newTrainCommand(v),
		newSimulateCommand(v),
		newCollectCommand(v),
		newWatchCommand(v),
		newServeCommand(v),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "disastertriage %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
		},
	}
}

// loadConfig layers flags and DISASTER_TRIAGE_* variables over the file and
// environment config. Only flags that were set explicitly win.
func loadConfig(v *viper.Viper) (config.Config, error) {
	cfg, err := config.Load(v.GetString("config"))
	if err != nil {
		return config.Config{}, err
	}
	if v.IsSet("log-level") {
		cfg.Logging.Level = v.GetString("log-level")
	}
	if v.IsSet("log-format") {
		cfg.Logging.Format = v.GetString("log-format")
	}
	if v.IsSet("db-driver") {
		cfg.Database.Driver = v.GetString("db-driver")
	}
	if v.IsSet("db-dsn") {
		cfg.Database.DSN = v.GetString("db-dsn")
	}
	if v.IsSet("workers") {
		cfg.Triage.Workers = v.GetInt("workers")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger writes to stderr so stdout stays clean for command output.
func newLogger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	return logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
