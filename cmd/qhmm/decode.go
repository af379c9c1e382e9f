package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newDecodeCmd() *cobra.Command {
	var (
		configPath string
		dataPath   string
	)

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Reconstruct the most probable state path with Viterbi",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			m, err := buildModel(cfg)
			if err != nil {
				return err
			}

			s, err := readSequence(dataPath)
			if err != nil {
				return fmt.Errorf("%s: %w", dataPath, err)
			}

			path := make([]int, s.Len())
			score, err := m.engine.Viterbi(s.Iter(), path)
			if err != nil {
				return err
			}
			logger.Info().Float64("log_score", score).Msg("decoded")

			_, err = os.Stdout.WriteString(formatPath(path))

			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML model file (required)")
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "observation file, one value per line (required)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}
