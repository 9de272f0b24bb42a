package inference

import (
	"github.com/happyhackingspace/mmp/tensor"
	"gonum.org/v1/gonum/floats"
)

// UpdateRule selects how combined log-messages become a belief.
type UpdateRule int

const (
	// Direct sets the belief to the softmax of the summed messages.
	Direct UpdateRule = iota
	// GradientDescent takes one damped step along the free-energy gradient
	// in log space.
	GradientDescent
)

func (r UpdateRule) String() string {
	switch r {
	case GradientDescent:
		return "gradient_descent"
	default:
		return "direct"
	}
}

// directUpdate writes softmax(lnA + lnPast + lnFuture) into qs[t][f].
func (s *sweeper) directUpdate(t, f int, lnA, lnPast, lnFuture []float64) {
	x := make([]float64, len(lnA))
	floats.AddTo(x, lnA, lnPast)
	floats.Add(x, lnFuture)
	tensor.SoftmaxTo(s.qs[t][f], x)
}

// gradientUpdate takes one step of size tau from the current log belief and
// returns this factor's free-energy contribution.
func (s *sweeper) gradientUpdate(t, f int, tau float64, lnA, lnPast, lnFuture []float64) float64 {
	lnqs := tensor.LogFloor(s.qs[t][f])

	coeff := 2.0
	if s.w.IsTerminal(t) {
		coeff = 1
	}

	// err = coeff*lnA + lnPast + lnFuture - coeff*lnqs, centred on its mean.
	n := len(lnqs)
	err := make([]float64, n)
	floats.AddScaled(err, coeff, lnA)
	floats.Add(err, lnPast)
	floats.Add(err, lnFuture)
	floats.AddScaled(err, -coeff, lnqs)
	floats.AddConst(-floats.Sum(err)/float64(n), err)

	floats.AddScaled(lnqs, tau, err)
	tensor.SoftmaxTo(s.qs[t][f], lnqs)

	half := make([]float64, n)
	floats.ScaleTo(half, 0.5, err)
	if s.w.IsBoundary(t) {
		return 0.5 * floats.Dot(lnqs, half)
	}
	// Carried over unchanged from SPM's MDP scheme: the likelihood term is
	// discounted by (F-1)/F away from the boundaries.
	k := float64(s.m.numFactors-1) / float64(s.m.numFactors)
	floats.AddScaled(half, -0.5*k, lnA)
	return floats.Dot(lnqs, half)
}
