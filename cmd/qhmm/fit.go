package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coregenomics/qhmm/hmm"
	"github.com/coregenomics/qhmm/seq"
)

func newFitCmd() *cobra.Command {
	var (
		configPath string
		dataPaths  []string
		maxIter    int
		tolerance  float64
	)

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Estimate model parameters with Baum–Welch",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			m, err := buildModel(cfg)
			if err != nil {
				return err
			}

			var seqs []*seq.Sequence
			for _, path := range dataPaths {
				s, err := readSequence(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				seqs = append(seqs, s)
			}

			trainer, err := hmm.NewTrainer(m.engine, seqs,
				hmm.WithEmissionGroups(m.emissionGroups...),
				hmm.WithTransitionGroups(m.transitionGroups...),
				hmm.WithTolerance(tolerance),
				hmm.WithTrainerLogger(logger),
			)
			if err != nil {
				return err
			}

			trace, err := trainer.Fit(maxIter)
			if err != nil {
				return err
			}
			if len(trace) > 0 {
				logger.Info().
					Int("iterations", len(trace)).
					Float64("loglik", trace[len(trace)-1]).
					Msg("fit finished")
			}

			return m.writeParams()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML model file (required)")
	cmd.Flags().StringArrayVarP(&dataPaths, "data", "d", nil, "observation file, one value per line (repeatable, required)")
	cmd.Flags().IntVar(&maxIter, "iters", 100, "maximum EM iterations")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 1e-9, "convergence tolerance on the log-likelihood")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}
