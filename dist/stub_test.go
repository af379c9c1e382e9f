// Test doubles for the EM statistics protocol: fixed sequences and
// posterior arrays handed to M-steps without running a real DP sweep.
package dist_test

import (
	"github.com/coregenomics/qhmm/dist"
	"github.com/coregenomics/qhmm/seq"
)

// stubEntry pairs one training sequence with the posterior weights of a
// single state along it.
type stubEntry struct {
	s    *seq.Sequence
	post []float64
}

// stubSequences implements dist.Sequences over in-memory tables.
type stubSequences struct {
	// entries maps (stateID, slotID) to that pair's visit list.
	entries map[[2]int][]stubEntry

	// xi holds transition posteriors: xi[pos][gidx][tgtIdx].
	xi [][][]float64
}

func (s *stubSequences) PosteriorIter(stateID, slotID int) dist.PosteriorIter {
	return &stubPosteriorIter{entries: s.entries[[2]int{stateID, slotID}], idx: -1}
}

func (s *stubSequences) TransitionPosteriorIter([]dist.Transition) dist.TransitionPosteriorIter {
	return &stubTransIter{xi: s.xi, idx: -1}
}

type stubPosteriorIter struct {
	entries []stubEntry
	idx     int
}

func (p *stubPosteriorIter) Next() bool {
	p.idx++

	return p.idx < len(p.entries)
}

func (p *stubPosteriorIter) Posterior() []float64 { return p.entries[p.idx].post }

func (p *stubPosteriorIter) Iter() *seq.Iter { return p.entries[p.idx].s.Iter() }

func (p *stubPosteriorIter) Reset() { p.idx = -1 }

type stubTransIter struct {
	xi  [][][]float64
	idx int
}

func (t *stubTransIter) Next() bool {
	t.idx++

	return t.idx < len(t.xi)
}

func (t *stubTransIter) Posterior(gidx, tgtIdx int) float64 { return t.xi[t.idx][gidx][tgtIdx] }

func (t *stubTransIter) Reset() { t.idx = -1 }

// mustSequence builds a one-slot, one-dimensional sequence from values.
func mustSequence(values []float64) *seq.Sequence {
	s, err := seq.New(len(values), []int{1}, values, nil, nil)
	if err != nil {
		panic(err)
	}

	return s
}

// ones returns a posterior vector of n ones (full responsibility).
func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}

	return v
}
