// Command qhmm fits, decodes and simulates hidden Markov models
// described by a YAML model file.
//
// Subcommands:
//
//	fit      — Baum–Welch estimation over a data file
//	decode   — Viterbi state reconstruction over a data file
//	generate — simulate a state path and observations from the model
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var logger zerolog.Logger

func main() {
	root := &cobra.Command{
		Use:           "qhmm",
		Short:         "Hidden Markov model estimation and decoding",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentPreRun = func(*cobra.Command, []string) {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).With().Timestamp().Logger()
	}

	root.AddCommand(newFitCmd(), newDecodeCmd(), newGenerateCmd())

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("qhmm failed")
		os.Exit(1)
	}
}
