package main

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/coregenomics/qhmm/dist"
)

func newGenerateCmd() *cobra.Command {
	var (
		configPath string
		statePath  string
		length     int
		seed       uint64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Simulate a state path and observations from the model",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			m, err := buildModel(cfg)
			if err != nil {
				return err
			}

			rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b9))

			states, values, err := m.simulate(length, rng)
			if err != nil {
				return err
			}

			if statePath != "" {
				if err := os.WriteFile(statePath, []byte(formatPath(states)), 0o644); err != nil {
					return err
				}
			}

			var b strings.Builder
			for _, v := range values {
				fmt.Fprintf(&b, "%g\n", v)
			}
			_, err = os.Stdout.WriteString(b.String())

			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML model file (required)")
	cmd.Flags().StringVar(&statePath, "states", "", "optional file to receive the simulated state path")
	cmd.Flags().IntVarP(&length, "length", "n", 1000, "number of positions to simulate")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// simulate draws a state path from the initial and transition
// probabilities, then one observation per position from the state's
// emission family.
func (m *model) simulate(length int, rng *rand.Rand) ([]int, []float64, error) {
	if length <= 0 {
		return nil, nil, fmt.Errorf("%w: length must be positive", errBadConfig)
	}

	states := make([]int, length)
	values := make([]float64, length)

	states[0] = sampleIndex(m.cfg.Init, rng)
	for t := 1; t < length; t++ {
		row := make([]float64, m.cfg.States)
		for j := range row {
			row[j] = math.Exp(m.transitions[states[t-1]].LogProb(j))
		}
		states[t] = sampleIndex(row, rng)
	}

	for t, state := range states {
		v, err := sampleEmission(m.cfg.Emission.Family, m.emissions[state], rng)
		if err != nil {
			return nil, nil, err
		}
		values[t] = v
	}

	return states, values, nil
}

// sampleEmission draws one observation from a reference family.
func sampleEmission(family string, em dist.Emission, rng *rand.Rand) (float64, error) {
	params := em.Params()

	switch family {
	case "discrete":
		offset, _ := em.Option(dist.OptOffset)

		return offset + float64(sampleIndex(params.Values(), rng)), nil

	case "gamma":
		offset, _ := em.Option(dist.OptOffset)
		sampler := distuv.Gamma{Alpha: params.At(0), Beta: 1 / params.At(1), Src: rng}

		return sampler.Rand() - offset, nil

	case "negbinomial_scaled":
		// Gamma–Poisson mixture with the instance's dispersion scale.
		mean, dispersion := params.At(0), params.At(1)
		scale, _ := em.Option(dist.OptScale)
		offset, _ := em.Option(dist.OptOffset)

		lambda := distuv.Gamma{Alpha: scale * dispersion, Beta: dispersion / mean, Src: rng}.Rand()
		pois := distuv.Poisson{Lambda: lambda, Src: rng}

		return pois.Rand() - offset, nil
	}

	return 0, fmt.Errorf("%w: cannot simulate family %q", errBadConfig, family)
}

// sampleIndex draws an index proportional to the given weights.
func sampleIndex(weights []float64, rng *rand.Rand) int {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}

	u := rng.Float64() * sum
	acc := 0.0
	for i, w := range weights {
		acc += w
		if u <= acc {
			return i
		}
	}

	return len(weights) - 1
}
