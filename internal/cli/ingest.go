package cli

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"DisasterTriage/internal/app"
)

func newCollectCommand(v *viper.Viper) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one collection and ingestion pass",
		Long: `Collect from every configured site, triage messages not yet stored,
save them, then alert and publish according to the notifications and nats
config sections.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			application, err := app.New(ctx, cfg, newLogger(cmd, cfg), app.Options{Storage: true, Delivery: true})
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, application.Close()) }()

			report, err := application.Run(ctx)
			if err != nil {
				return fmt.Errorf("collect: %w", err)
			}
			if asJSON {
				return writeJSON(cmd, stdStream, report)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderIngest(report))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the ingest report as JSON")
	return cmd
}

func newWatchCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run ingestion on the configured cron schedule",
		Long: `Run one ingestion pass immediately, then again on every tick of
scheduler.cronExpression until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			application, err := app.New(ctx, cfg, newLogger(cmd, cfg), app.Options{Storage: true, Delivery: true})
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, application.Close()) }()
			return application.Watch(ctx)
		},
	}
}

func newServeCommand(v *viper.Viper) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve triage, ingestion, record queries, summaries, health and
Prometheus metrics over HTTP until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			if cfg.Logging.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			application, err := app.New(ctx, cfg, newLogger(cmd, cfg), app.Options{Storage: true, Delivery: true})
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, application.Close()) }()
			return application.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: http.addr from config)")
	return cmd
}
