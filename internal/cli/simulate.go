package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"DisasterTriage/internal/infrastructure/sources"
)

func newSimulateCommand(v *viper.Viper) *cobra.Command {
	var (
		count  int
		seed   uint64
		output string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate synthetic disaster reports as JSON Lines",
		Long: `Generate synthetic disaster reports from the built-in templates, newest
first, one JSON object per line. The output feeds "triage" directly.

A zero seed draws from the clock; otherwise output is reproducible.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 0 {
				return fmt.Errorf("count must be non-negative, got %d", count)
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = cfg.Triage.Seed
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()
			msgs, err := sources.NewSimulatedCollector(seed).Generate(ctx, count)
			if err != nil {
				return err
			}
			return withOutput(cmd, output, func(w io.Writer) error {
				enc := json.NewEncoder(w)
				for _, msg := range msgs {
					if err := enc.Encode(msg); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 50, "number of messages")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (default: triage.seed from config)")
	cmd.Flags().StringVarP(&output, "output", "o", stdStream, "output file, - for stdout")
	return cmd
}
