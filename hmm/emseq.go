package hmm

import (
	"math"

	"github.com/coregenomics/qhmm/dist"
	"github.com/coregenomics/qhmm/seq"
)

// emSequences implements the dist.Sequences protocol over a trainer's
// materialised forward/backward/posterior matrices.
type emSequences struct {
	t *Trainer
}

// PosteriorIter ignores the slot: state posteriors are shared by every
// slot of a state.
func (s *emSequences) PosteriorIter(stateID, _ int) dist.PosteriorIter {
	return &statePosteriorIter{t: s.t, state: stateID, idx: -1}
}

func (s *emSequences) TransitionPosteriorIter(group []dist.Transition) dist.TransitionPosteriorIter {
	it := &transPosteriorIter{t: s.t, group: group, seqIdx: -1}
	it.cur = make([][]float64, len(group))
	for g, member := range group {
		it.cur[g] = make([]float64, len(member.Targets()))
	}

	return it
}

// statePosteriorIter walks the per-sequence posterior row of one state.
type statePosteriorIter struct {
	t     *Trainer
	state int
	idx   int
}

func (p *statePosteriorIter) Next() bool {
	p.idx++

	return p.idx < len(p.t.seqs)
}

func (p *statePosteriorIter) Posterior() []float64 {
	length := p.t.seqs[p.idx].Len()

	// gamma is state-major: row `state` of sequence idx is contiguous.
	return p.t.gamma[p.idx][p.state*length : (p.state+1)*length]
}

func (p *statePosteriorIter) Iter() *seq.Iter { return p.t.seqs[p.idx].Iter() }

func (p *statePosteriorIter) Reset() { p.idx = -1 }

// transPosteriorIter walks every transition-target position (t ≥ 1)
// across all sequences, exposing ξ per group member and target.
type transPosteriorIter struct {
	t     *Trainer
	group []dist.Transition

	seqIdx int
	pos    int
	it     *seq.Iter

	cur [][]float64 // cur[gidx][tgtIdx] at the current position
}

func (p *transPosteriorIter) Next() bool {
	if p.seqIdx < 0 {
		p.seqIdx = 0
		p.pos = 1
	} else {
		p.pos++
	}

	// Skip past sequences too short to contain a transition.
	for p.seqIdx < len(p.t.seqs) && p.pos >= p.t.seqs[p.seqIdx].Len() {
		p.seqIdx++
		p.pos = 1
		p.it = nil
	}
	if p.seqIdx >= len(p.t.seqs) {
		return false
	}

	if p.it == nil {
		p.it = p.t.seqs[p.seqIdx].Iter()
		p.it.Next()
	} else {
		p.it.Next()
	}
	p.compute()

	return true
}

func (p *transPosteriorIter) Posterior(gidx, tgtIdx int) float64 {
	return p.cur[gidx][tgtIdx]
}

func (p *transPosteriorIter) Reset() {
	p.seqIdx = -1
	p.pos = 0
	p.it = nil
}

// compute fills cur with ξ values for the transition into position pos,
// under the pre-step parameters.
func (p *transPosteriorIter) compute() {
	e := p.t.engine
	n := e.n
	fw := p.t.fw[p.seqIdx]
	bk := p.t.bk[p.seqIdx]
	loglik := p.t.loglik[p.seqIdx]

	for g, member := range p.group {
		k := member.StateID()
		for tgtIdx, l := range member.Targets() {
			logTrans := e.trans.LogProb(p.it, k, l)
			logEmission := e.emit.LogProb(p.it, l)

			p.cur[g][tgtIdx] = math.Exp(fw[(p.pos-1)*n+k] + logTrans + logEmission + bk[p.pos*n+l] - loglik)
		}
	}
}
