package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"DisasterTriage/internal/classifier"
)

func newTrainCommand(v *viper.Viper) *cobra.Command {
	var (
		corpusPath string
		algorithm  string
		output     string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the category classifier and save the model",
		Long: `Fit the category classifier on a labelled corpus (or the built-in
bootstrap corpus when none is given), print held-out and cross-validation
metrics, and save the model artifact.

Defaults for corpus, algorithm and model path come from the triage config section.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			if algorithm == "" {
				algorithm = cfg.Triage.Algorithm
			}
			if corpusPath == "" {
				corpusPath = cfg.Triage.CorpusPath
			}
			if output == "" {
				output = cfg.Triage.ModelPath
			}

			alg, err := classifier.ParseAlgorithm(algorithm)
			if err != nil {
				return err
			}
			cls, err := classifier.New(classifier.Options{Algorithm: alg, Seed: cfg.Triage.Seed, Logger: logger})
			if err != nil {
				return err
			}

			var corpus *classifier.Corpus
			if corpusPath != "" {
				if corpus, err = classifier.LoadCorpus(corpusPath); err != nil {
					return err
				}
			}
			m, err := cls.Fit(corpus, "")
			if err != nil {
				return fmt.Errorf("fit classifier: %w", err)
			}

			if output != "" {
				if err := cls.Save(output); err != nil {
					return err
				}
				logger.Info("model saved", "path", output)
			}

			if asJSON {
				return writeJSON(cmd, stdStream, m)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderMetrics(m))
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "", "labelled corpus YAML (default: bootstrap corpus)")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "naive-bayes, logistic or random-forest")
	cmd.Flags().StringVarP(&output, "output", "o", "", "model artifact path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print metrics as JSON")
	return cmd
}
