package inference

import (
	"fmt"

	"github.com/happyhackingspace/mmp/tensor"
	"gonum.org/v1/gonum/mat"
)

// Input is the generative model, evidence and candidate policy for one call.
// Nothing in it is modified.
type Input struct {
	// A holds one likelihood tensor per observation modality, shaped
	// [num_obs, ns_0, ..., ns_{F-1}]. Only its factor structure is read.
	A tensor.Collection
	// B holds one transition tensor per factor, shaped
	// [next_state, state, action].
	B tensor.Collection
	// LLSeq holds one joint likelihood per past timestep, already
	// conditioned on the observation at that step, shaped [ns_0, ..., ns_{F-1}].
	LLSeq []*tensor.Dense
	// Policy is [future_len][num_factors] action indices.
	Policy [][]int
	// PrevActions is [past_len][num_factors]. Nil means action 0 throughout.
	PrevActions [][]int
	// Prior is one probability vector per factor over the first timestep.
	// Nil means uniform.
	Prior [][]float64
}

// model is everything derived from Input once per call.
type model struct {
	numFactors int
	numStates  []int

	fwd [][]*mat.Dense // fwd[f][u] = B[f][:, :, u]
	bwd [][]*mat.Dense // bwd[f][u] = column-normalised transpose of fwd[f][u]

	actions [][]int // prev actions followed by the policy, [t][f]
	prior   [][]float64
	lnPrior [][]float64
	lnLL    []*tensor.Dense // log(LLSeq[t] + floor)
	qsT     [][]float64     // terminal message, all zeros
}

func prepare(in Input, w Window) (*model, error) {
	numFactors := len(in.B)
	if numFactors == 0 {
		return nil, fmt.Errorf("%w: no hidden-state factors in B", ErrDimensionMismatch)
	}

	m := &model{
		numFactors: numFactors,
		numStates:  make([]int, numFactors),
		fwd:        make([][]*mat.Dense, numFactors),
		bwd:        make([][]*mat.Dense, numFactors),
	}

	numActions := make([]int, numFactors)
	for f, b := range in.B {
		if b == nil || b.NDim() != 3 || b.Dim(0) != b.Dim(1) {
			return nil, fmt.Errorf("%w: B[%d] must be [next, current, action] with square state axes", ErrDimensionMismatch, f)
		}
		m.numStates[f] = b.Dim(0)
		numActions[f] = b.Dim(2)

		m.fwd[f] = make([]*mat.Dense, numActions[f])
		m.bwd[f] = make([]*mat.Dense, numActions[f])
		for u := range numActions[f] {
			m.fwd[f][u] = tensor.Slice3(b, u)
			m.bwd[f][u] = tensor.NormColumns(m.fwd[f][u].T())
		}
	}

	if len(in.A) == 0 {
		return nil, fmt.Errorf("%w: no likelihood modalities in A", ErrDimensionMismatch)
	}
	for g, a := range in.A {
		if a == nil || a.NDim() != numFactors+1 {
			return nil, fmt.Errorf("%w: A[%d] must have one observation axis and %d factor axes", ErrDimensionMismatch, g, numFactors)
		}
		for f := range numFactors {
			if a.Dim(f+1) != m.numStates[f] {
				return nil, fmt.Errorf("%w: A[%d] axis %d has %d states, B[%d] has %d",
					ErrDimensionMismatch, g, f+1, a.Dim(f+1), f, m.numStates[f])
			}
		}
	}

	m.lnLL = make([]*tensor.Dense, len(in.LLSeq))
	for t, ll := range in.LLSeq {
		if ll == nil || !ll.SameShape(m.numStates) {
			return nil, fmt.Errorf("%w: evidence at timestep %d must have shape %v", ErrDimensionMismatch, t, m.numStates)
		}
		m.lnLL[t] = ll.Apply(logFloor)
	}

	prev := in.PrevActions
	if prev == nil {
		prev = make([][]int, w.PastLen)
		for t := range prev {
			prev[t] = make([]int, numFactors)
		}
	}
	if len(prev) != w.PastLen {
		return nil, fmt.Errorf("%w: %d previous actions for %d evidence timesteps", ErrDimensionMismatch, len(prev), w.PastLen)
	}
	m.actions = make([][]int, 0, len(prev)+len(in.Policy))
	m.actions = append(m.actions, prev...)
	m.actions = append(m.actions, in.Policy...)
	for t, row := range m.actions {
		if len(row) != numFactors {
			return nil, fmt.Errorf("%w: action row %d has %d entries for %d factors", ErrDimensionMismatch, t, len(row), numFactors)
		}
		for f, u := range row {
			if u < 0 || u >= numActions[f] {
				return nil, fmt.Errorf("%w: action %d at timestep %d for factor %d (have %d actions)",
					ErrInvalidActionIndex, u, t, f, numActions[f])
			}
		}
	}

	m.prior = in.Prior
	if m.prior == nil {
		m.prior = make([][]float64, numFactors)
		for f := range numFactors {
			m.prior[f] = tensor.Uniform(m.numStates[f])
		}
	}
	if len(m.prior) != numFactors {
		return nil, fmt.Errorf("%w: prior has %d factors, B has %d", ErrDimensionMismatch, len(m.prior), numFactors)
	}
	m.lnPrior = make([][]float64, numFactors)
	m.qsT = make([][]float64, numFactors)
	for f := range numFactors {
		if len(m.prior[f]) != m.numStates[f] {
			return nil, fmt.Errorf("%w: prior for factor %d has %d states, want %d",
				ErrDimensionMismatch, f, len(m.prior[f]), m.numStates[f])
		}
		m.lnPrior[f] = tensor.LogFloor(m.prior[f])
		m.qsT[f] = make([]float64, m.numStates[f])
	}

	return m, nil
}

// uniformBeliefs allocates the belief sequence as one slab cut into
// non-overlapping per-timestep, per-factor vectors, each uniform.
func uniformBeliefs(inferLen int, numStates []int) [][][]float64 {
	per := 0
	for _, n := range numStates {
		per += n
	}
	slab := make([]float64, inferLen*per)
	qs := make([][][]float64, inferLen)
	off := 0
	for t := range qs {
		qs[t] = make([][]float64, len(numStates))
		for f, n := range numStates {
			v := slab[off : off+n : off+n]
			for i := range v {
				v[i] = 1 / float64(n)
			}
			qs[t][f] = v
			off += n
		}
	}
	return qs
}
