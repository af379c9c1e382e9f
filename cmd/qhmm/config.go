package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coregenomics/qhmm/dist"
	"github.com/coregenomics/qhmm/hmm"
	"github.com/coregenomics/qhmm/registry"
	"github.com/coregenomics/qhmm/seq"
	"github.com/coregenomics/qhmm/tables"
)

var (
	errBadConfig = errors.New("qhmm: invalid model configuration")
	errBadData   = errors.New("qhmm: invalid data file")
)

// modelConfig is the YAML model description.
//
//	states: 2
//	init: [1.0, 0.0]
//	emission:
//	  family: discrete
//	  params:
//	    - [0.5, 0.5]
//	    - [0.1, 0.9]
//	  options:
//	    offset: 0
//	  tie: false
//	transitions:
//	  targets:
//	    - [0, 1]
//	    - [0, 1]
//	  params:
//	    - [0.9, 0.1]
//	    - [0.2, 0.8]
type modelConfig struct {
	States   int              `yaml:"states"`
	Init     []float64        `yaml:"init"`
	Emission emissionConfig   `yaml:"emission"`
	Trans    transitionConfig `yaml:"transitions"`
}

type emissionConfig struct {
	Family  string             `yaml:"family"`
	Params  [][]float64        `yaml:"params"`
	Options map[string]float64 `yaml:"options"`

	// Tie shares one parameter group across all states.
	Tie bool `yaml:"tie"`
}

type transitionConfig struct {
	Targets [][]int     `yaml:"targets"`
	Params  [][]float64 `yaml:"params"`
}

// model is a fully wired HMM: engine plus the distribution instances
// grouped for EM.
type model struct {
	cfg    modelConfig
	engine *hmm.Engine

	emissions   []dist.Emission
	transitions []dist.Transition

	emissionGroups   [][]dist.Emission
	transitionGroups [][]dist.Transition
}

// loadConfig reads and validates the YAML model file.
func loadConfig(path string) (modelConfig, error) {
	var cfg modelConfig

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read model config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse model config: %w", err)
	}

	if cfg.States <= 0 {
		return cfg, fmt.Errorf("%w: states must be positive", errBadConfig)
	}
	if len(cfg.Init) != cfg.States {
		return cfg, fmt.Errorf("%w: init needs %d probabilities", errBadConfig, cfg.States)
	}
	if cfg.Emission.Family == "" {
		return cfg, fmt.Errorf("%w: emission.family is required", errBadConfig)
	}
	if len(cfg.Emission.Params) != cfg.States {
		return cfg, fmt.Errorf("%w: emission.params needs one row per state", errBadConfig)
	}
	if len(cfg.Trans.Params) != cfg.States {
		return cfg, fmt.Errorf("%w: transitions.params needs one row per state", errBadConfig)
	}

	return cfg, nil
}

// buildModel instantiates distributions through the factory registry
// and wires tables, engine and sharing groups.
func buildModel(cfg modelConfig) (*model, error) {
	reg := registry.New()
	if err := registry.RegisterBuiltins(reg); err != nil {
		return nil, err
	}

	factory, err := reg.Lookup(cfg.Emission.Family)
	if err != nil {
		return nil, err
	}
	if factory.NewEmission == nil {
		return nil, fmt.Errorf("%w: family %q has no emission form", errBadConfig, cfg.Emission.Family)
	}

	m := &model{cfg: cfg}

	for state := 0; state < cfg.States; state++ {
		em := factory.NewEmission(state, 0, 1)
		for name, value := range cfg.Emission.Options {
			if !em.SetOption(name, value) {
				return nil, fmt.Errorf("%w: option %q rejected by family %q",
					errBadConfig, name, cfg.Emission.Family)
			}
		}
		if err := em.SetParams(dist.NewParams(cfg.Emission.Params[state]...)); err != nil {
			return nil, fmt.Errorf("emission state %d: %w", state, err)
		}
		m.emissions = append(m.emissions, em)

		targets := allStates(cfg.States)
		if cfg.Trans.Targets != nil {
			targets = cfg.Trans.Targets[state]
		}
		tr := dist.NewDiscreteTransition(cfg.States, state, targets)
		if err := tr.SetParams(dist.NewParams(cfg.Trans.Params[state]...)); err != nil {
			return nil, fmt.Errorf("transition state %d: %w", state, err)
		}
		m.transitions = append(m.transitions, tr)
	}

	if cfg.Emission.Tie {
		m.emissionGroups = [][]dist.Emission{m.emissions}
	} else {
		for _, em := range m.emissions {
			m.emissionGroups = append(m.emissionGroups, []dist.Emission{em})
		}
	}
	for _, tr := range m.transitions {
		m.transitionGroups = append(m.transitionGroups, []dist.Transition{tr})
	}

	tt, err := tables.NewHomogeneousTransitions(m.transitions...)
	if err != nil {
		return nil, err
	}
	et, err := tables.NewEmissions(m.emissions...)
	if err != nil {
		return nil, err
	}

	m.engine, err = hmm.New(tt, et, hmm.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := m.engine.SetInitialProbs(cfg.Init); err != nil {
		return nil, err
	}

	return m, nil
}

func allStates(n int) []int {
	targets := make([]int, n)
	for i := range targets {
		targets[i] = i
	}

	return targets
}

// readSequence loads a whitespace/newline separated column of numbers
// as a one-slot sequence.
func readSequence(path string) (*seq.Sequence, error) {
	fid, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	defer fid.Close()

	var values []float64
	scanner := bufio.NewScanner(fid)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errBadData, scanner.Text())
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no observations", errBadData)
	}

	return seq.New(len(values), []int{1}, values, nil, nil)
}

// writeParams renders the current model parameters as YAML on stdout.
func (m *model) writeParams() error {
	out := struct {
		Emission    [][]float64 `yaml:"emission"`
		Transitions [][]float64 `yaml:"transitions"`
	}{}

	for _, em := range m.emissions {
		out.Emission = append(out.Emission, em.Params().Values())
	}
	for _, tr := range m.transitions {
		out.Transitions = append(out.Transitions, tr.Params().Values())
	}

	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()

	return enc.Encode(out)
}

// formatPath renders a state path one index per line.
func formatPath(path []int) string {
	var b strings.Builder
	for _, s := range path {
		fmt.Fprintln(&b, s)
	}

	return b.String()
}
