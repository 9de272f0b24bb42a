package inference

import (
	"github.com/happyhackingspace/mmp/tensor"
	"gonum.org/v1/gonum/floats"
)

// FreeEnergy returns the variational free energy of the factorised belief qs
// for one timestep: the KL divergence of each factor from its prior, summed
// over factors, minus the expected log-likelihood when lnLL is non-nil.
//
// lnPrior holds log prior vectors. lnLL, when given, is a log likelihood
// tensor with one axis per factor.
//
// Values are not comparable with pymdp's calc_free_energy, which dots q with
// the raw prior and keeps only element [0] of the likelihood contraction.
func FreeEnergy(qs, lnPrior [][]float64, lnLL *tensor.Dense) float64 {
	var fe float64
	for f, q := range qs {
		negH := floats.Dot(q, tensor.LogFloor(q))
		crossH := -floats.Dot(q, lnPrior[f])
		fe += negH + crossH
	}
	if lnLL != nil {
		fe -= tensor.Expectation(lnLL, qs)
	}
	return fe
}
