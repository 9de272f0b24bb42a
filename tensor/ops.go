package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Floor is added before every logarithm and column normalisation so that
// zero probabilities never produce -Inf or NaN.
const Floor = 1e-16

// Uniform returns the uniform distribution over n states.
func Uniform(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1 / float64(n)
	}
	return v
}

// LogFloor returns log(x + Floor) elementwise.
func LogFloor(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Log(v + Floor)
	}
	return out
}

// SoftmaxTo writes exp(x) normalised to sum to one into dst, which must have
// the same length as x. The maximum is subtracted first. dst and x may alias.
func SoftmaxTo(dst, x []float64) {
	if len(dst) != len(x) {
		panic("tensor: softmax length mismatch")
	}
	mx := floats.Max(x)
	for i, v := range x {
		dst[i] = math.Exp(v - mx)
	}
	floats.Scale(1/floats.Sum(dst), dst)
}

// NormColumns adds Floor to every entry of m and divides each column by its
// sum, so every column of the result is a probability vector.
func NormColumns(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			col[i] = m.At(i, j) + Floor
		}
		floats.Scale(1/floats.Sum(col), col)
		out.SetCol(j, col)
	}
	return out
}

// Slice3 extracts the matrix t[:, :, k] from a rank-3 tensor.
func Slice3(t *Dense, k int) *mat.Dense {
	if t.NDim() != 3 {
		panic(fmt.Sprintf("tensor: Slice3 needs rank 3, have shape %v", t.shape))
	}
	r, c := t.shape[0], t.shape[1]
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, t.At(i, j, k))
		}
	}
	return out
}

// MatVec returns m·v.
func MatVec(m mat.Matrix, v []float64) []float64 {
	r, _ := m.Dims()
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(len(v), v))
	res := make([]float64, r)
	for i := range res {
		res[i] = out.AtVec(i)
	}
	return res
}

// Marginal contracts x against every belief vector in qs except qs[keep] and
// returns the resulting vector over axis keep. x must have one axis per
// entry of qs.
func Marginal(x *Dense, qs [][]float64, keep int) []float64 {
	if keep < 0 || keep >= len(qs) {
		panic(fmt.Sprintf("tensor: marginal axis %d out of range for %d factors", keep, len(qs)))
	}
	return contract(x, qs, keep)
}

// Expectation contracts x against every belief vector in qs and returns the
// scalar expectation of x under the product distribution.
func Expectation(x *Dense, qs [][]float64) float64 {
	return contract(x, qs, -1)[0]
}

func contract(x *Dense, qs [][]float64, keep int) []float64 {
	if x.NDim() != len(qs) {
		panic(fmt.Sprintf("tensor: shape %v cannot be contracted with %d factors", x.shape, len(qs)))
	}
	for i, q := range qs {
		if len(q) != x.shape[i] {
			panic(fmt.Sprintf("tensor: factor %d has %d states, tensor axis has %d", i, len(q), x.shape[i]))
		}
	}

	n := 1
	if keep >= 0 {
		n = x.shape[keep]
	}
	out := make([]float64, n)
	idx := make([]int, len(x.shape))
	for _, v := range x.data {
		w := v
		for i, q := range qs {
			if i != keep {
				w *= q[idx[i]]
			}
		}
		if keep >= 0 {
			out[idx[keep]] += w
		} else {
			out[0] += w
		}
		// Row-major odometer: last axis varies fastest.
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < x.shape[i] {
				break
			}
			idx[i] = 0
		}
	}
	return out
}
