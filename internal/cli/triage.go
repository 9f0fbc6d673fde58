package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"DisasterTriage/internal/app"
	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/infrastructure/sources"
	"DisasterTriage/internal/triage"
)

const stdStream = "-"

func newTriageCommand(v *viper.Viper) *cobra.Command {
	var (
		input    string
		existing string
		output   string
		summary  bool
	)

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Triage a JSON Lines file of raw messages",
		Long: `Read raw messages as JSON Lines, triage every message whose id is not
already known, and write the merged records as a JSON array.

Records from --existing are carried over unchanged and never re-triaged.
A report of additions, duplicates and failures goes to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			msgs, err := readMessages(cmd, input)
			if err != nil {
				return err
			}
			known, err := readRecords(existing)
			if err != nil {
				return err
			}

			pipeline, err := app.BuildPipeline(cfg, logger, nil)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()
			merged, report := pipeline.Merge(ctx, known, msgs)
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("triage interrupted: %w", err)
			}

			if err := writeJSON(cmd, output, merged); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), renderMerge(report))
			if summary {
				fmt.Fprintln(cmd.ErrOrStderr(), renderSummary(triage.Summarize(merged)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", stdStream, "JSON Lines input, - for stdin")
	cmd.Flags().StringVarP(&existing, "existing", "e", "", "JSON array of previously triaged records")
	cmd.Flags().StringVarP(&output, "output", "o", stdStream, "output file, - for stdout")
	cmd.Flags().BoolVar(&summary, "summary", false, "print an aggregate summary to stderr")
	return cmd
}

func readMessages(cmd *cobra.Command, path string) ([]domain.RawMessage, error) {
	if path == stdStream {
		return sources.ReadJSONL(cmd.InOrStdin())
	}
	return sources.ReadJSONLFile(path)
}

func readRecords(path string) ([]domain.TriageRecord, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read existing records: %w", err)
	}
	var records []domain.TriageRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode existing records %s: %w", path, err)
	}
	return records, nil
}

func writeJSON(cmd *cobra.Command, path string, value any) error {
	return withOutput(cmd, path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	})
}

// withOutput hands fn stdout for "-" and a truncated file otherwise.
func withOutput(cmd *cobra.Command, path string, fn func(io.Writer) error) error {
	if path == stdStream || path == "" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
