package tensor

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/mat"
)

var approx = cmpopts.EquateApprox(0, 1e-12)

func TestDenseIndexing(t *testing.T) {
	x := New([]float64{0, 1, 2, 3, 4, 5}, 2, 3)
	if x.At(1, 2) != 5 {
		t.Errorf("At(1,2) = %v, want 5", x.At(1, 2))
	}
	if x.At(0, 1) != 1 {
		t.Errorf("At(0,1) = %v, want 1", x.At(0, 1))
	}
	x.Set(9, 1, 0)
	if x.Data()[3] != 9 {
		t.Errorf("Set did not write row-major offset 3: %v", x.Data())
	}

	c := x.Clone()
	c.Set(-1, 0, 0)
	if x.At(0, 0) != 0 {
		t.Error("Clone shares storage with the original")
	}
}

func TestNewShapeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for shape/data mismatch")
		}
	}()
	New([]float64{1, 2, 3}, 2, 2)
}

func TestSoftmaxTo(t *testing.T) {
	got := make([]float64, 3)
	SoftmaxTo(got, []float64{1, 2, 3})
	e1, e2, e3 := math.Exp(1), math.Exp(2), math.Exp(3)
	z := e1 + e2 + e3
	want := []float64{e1 / z, e2 / z, e3 / z}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Softmax mismatch (-want +got):\n%s", diff)
	}

	// Shift invariance.
	shifted := []float64{1001, 1002, 1003}
	SoftmaxTo(shifted, shifted)
	if diff := cmp.Diff(want, shifted, approx); diff != "" {
		t.Errorf("Softmax not shift invariant (-want +got):\n%s", diff)
	}
}

func TestLogFloorFinite(t *testing.T) {
	got := LogFloor([]float64{0, 1})
	if math.IsInf(got[0], 0) || math.IsNaN(got[0]) {
		t.Errorf("LogFloor(0) = %v, want finite", got[0])
	}
	if math.Abs(got[0]-math.Log(Floor)) > 1e-12 {
		t.Errorf("LogFloor(0) = %v, want log(1e-16)", got[0])
	}
	if math.Abs(got[1]) > 1e-12 {
		t.Errorf("LogFloor(1) = %v, want ~0", got[1])
	}
}

func TestNormColumns(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{
		1, 0,
		3, 0,
	})
	n := NormColumns(m)
	for j := 0; j < 2; j++ {
		s := n.At(0, j) + n.At(1, j)
		if math.Abs(s-1) > 1e-12 {
			t.Errorf("column %d sums to %v, want 1", j, s)
		}
	}
	if math.Abs(n.At(0, 0)-0.25) > 1e-12 {
		t.Errorf("n[0,0] = %v, want 0.25", n.At(0, 0))
	}
	// A zero column becomes uniform through the floor.
	if math.Abs(n.At(0, 1)-0.5) > 1e-12 {
		t.Errorf("n[0,1] = %v, want 0.5", n.At(0, 1))
	}
}

func TestSlice3AndMatVec(t *testing.T) {
	// 2x2x2, action 1 swaps the states.
	b := Zeros(2, 2, 2)
	b.Set(1, 0, 0, 0)
	b.Set(1, 1, 1, 0)
	b.Set(1, 1, 0, 1)
	b.Set(1, 0, 1, 1)

	swap := Slice3(b, 1)
	got := MatVec(swap, []float64{0.9, 0.1})
	if diff := cmp.Diff([]float64{0.1, 0.9}, got, approx); diff != "" {
		t.Errorf("MatVec mismatch:\n%s", diff)
	}
}

func TestMarginalBruteForce(t *testing.T) {
	x := New([]float64{
		0.1, 0.2, 0.3,
		0.4, 0.5, 0.6,
	}, 2, 3)
	qs := [][]float64{{0.3, 0.7}, {0.2, 0.5, 0.3}}

	got0 := Marginal(x, qs, 0)
	want0 := make([]float64, 2)
	for i := range 2 {
		for j := range 3 {
			want0[i] += x.At(i, j) * qs[1][j]
		}
	}
	if diff := cmp.Diff(want0, got0, approx); diff != "" {
		t.Errorf("Marginal(keep=0) mismatch:\n%s", diff)
	}

	got1 := Marginal(x, qs, 1)
	want1 := make([]float64, 3)
	for i := range 2 {
		for j := range 3 {
			want1[j] += x.At(i, j) * qs[0][i]
		}
	}
	if diff := cmp.Diff(want1, got1, approx); diff != "" {
		t.Errorf("Marginal(keep=1) mismatch:\n%s", diff)
	}

	var wantE float64
	for i := range 2 {
		for j := range 3 {
			wantE += x.At(i, j) * qs[0][i] * qs[1][j]
		}
	}
	if got := Expectation(x, qs); math.Abs(got-wantE) > 1e-12 {
		t.Errorf("Expectation = %v, want %v", got, wantE)
	}
}

func TestMarginalSingleFactorIsIdentity(t *testing.T) {
	x := New([]float64{0.2, 0.8}, 2)
	got := Marginal(x, [][]float64{{0.5, 0.5}}, 0)
	if diff := cmp.Diff([]float64{0.2, 0.8}, got, approx); diff != "" {
		t.Errorf("single-factor marginal should return the tensor:\n%s", diff)
	}
}
