package inference

import (
	"math"

	"github.com/happyhackingspace/mmp/tensor"
)

// sweeper holds the mutable state of one call: the belief sequence and the
// accumulated free energy.
type sweeper struct {
	m  *model
	w  Window
	ll []*tensor.Dense

	qs [][][]float64
	F  float64
}

// likelihoodMessage is the log evidence for factor f at timestep t given the
// current beliefs about every other factor at t. Future timesteps carry no
// evidence.
func (s *sweeper) likelihoodMessage(t, f int) []float64 {
	if !s.w.IsPast(t) {
		return make([]float64, s.m.numStates[f])
	}
	return tensor.LogFloor(tensor.Marginal(s.ll[t], s.qs[t], f))
}

// pastMessage is the log prior at t == 0, otherwise the log of the belief at
// t-1 pushed forward through the action taken entering t.
func (s *sweeper) pastMessage(t, f int) []float64 {
	if t == 0 {
		return s.m.lnPrior[f]
	}
	u := s.m.actions[t-1][f]
	return tensor.LogFloor(tensor.MatVec(s.m.fwd[f][u], s.qs[t-1][f]))
}

// futureMessage is the terminal message at or past the cutoff, otherwise the
// log of the belief at t+1 pulled back through the action taken leaving t.
func (s *sweeper) futureMessage(t, f int) []float64 {
	if s.w.IsTerminal(t) {
		return s.m.qsT[f]
	}
	u := s.m.actions[t][f]
	return tensor.LogFloor(tensor.MatVec(s.m.bwd[f][u], s.qs[t+1][f]))
}

// step visits every factor at timestep t in ascending order. Each factor sees
// the beliefs already written for earlier factors in this pass.
func (s *sweeper) step(t int, rule UpdateRule, tau float64) {
	for f := range s.m.numFactors {
		lnA := s.likelihoodMessage(t, f)
		lnPast := s.pastMessage(t, f)
		lnFuture := s.futureMessage(t, f)

		switch rule {
		case GradientDescent:
			s.F += s.gradientUpdate(t, f, tau, lnA, lnPast, lnFuture)
		default:
			s.directUpdate(t, f, lnA, lnPast, lnFuture)
		}
	}

	if rule != GradientDescent {
		var lnLL *tensor.Dense
		if s.w.IsPast(t) {
			lnLL = s.m.lnLL[t]
		}
		s.F += FreeEnergy(s.qs[t], s.m.lnPrior, lnLL)
	}
}

func logFloor(v float64) float64 {
	return math.Log(v + tensor.Floor)
}
