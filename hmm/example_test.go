package hmm_test

import (
	"fmt"

	"github.com/coregenomics/qhmm/dist"
	"github.com/coregenomics/qhmm/hmm"
	"github.com/coregenomics/qhmm/seq"
	"github.com/coregenomics/qhmm/tables"
)

// ExampleEngine_Viterbi decodes the fair/biased coin sequence.
func ExampleEngine_Viterbi() {
	// Fair coin F emits 0/1 evenly; biased coin B favours 1.
	eF := dist.NewDiscreteEmission(0, 0)
	_ = eF.SetParams(dist.NewParams(0.5, 0.5))
	eB := dist.NewDiscreteEmission(1, 0)
	_ = eB.SetParams(dist.NewParams(0.1, 0.9))

	tF := dist.NewDiscreteTransition(2, 0, []int{0, 1})
	_ = tF.SetParams(dist.NewParams(0.9, 0.1))
	tB := dist.NewDiscreteTransition(2, 1, []int{0, 1})
	_ = tB.SetParams(dist.NewParams(0.2, 0.8))

	tt, _ := tables.NewHomogeneousTransitions(tF, tB)
	et, _ := tables.NewEmissions(eF, eB)

	engine, _ := hmm.New(tt, et)
	_ = engine.SetInitialProbs([]float64{0.5, 0.5})

	s, _ := seq.New(6, []int{1}, []float64{1, 1, 1, 1, 1, 0}, nil, nil)

	path := make([]int, s.Len())
	_, _ = engine.Viterbi(s.Iter(), path)
	fmt.Println(path)
	// Output: [1 1 1 1 1 0]
}
