package inference

import "testing"

func TestNewWindow(t *testing.T) {
	tests := []struct {
		past, future int
		last         bool
		wantInfer    int
		wantCutoff   int
	}{
		{2, 2, false, 4, 2},
		{2, 2, true, 3, 2},
		{1, 1, true, 1, 0},
		{3, 1, true, 3, 2},
		{0, 1, true, 0, -1},
		{5, 0, false, 5, 3},
	}
	for _, tt := range tests {
		w := NewWindow(tt.past, tt.future, tt.last)
		if w.InferLen != tt.wantInfer || w.FutureCutoff != tt.wantCutoff {
			t.Errorf("NewWindow(%d, %d, %v) = infer %d cutoff %d; want %d, %d",
				tt.past, tt.future, tt.last, w.InferLen, w.FutureCutoff, tt.wantInfer, tt.wantCutoff)
		}
	}
}

func TestWindowPredicates(t *testing.T) {
	w := NewWindow(2, 2, false) // infer 4, cutoff 2

	if !w.IsPast(1) || w.IsPast(2) {
		t.Error("IsPast should hold for t < 2 only")
	}
	if w.IsTerminal(1) || !w.IsTerminal(2) || !w.IsTerminal(3) {
		t.Error("IsTerminal should hold for t >= 2 only")
	}
	if !w.IsBoundary(0) || !w.IsBoundary(3) || w.IsBoundary(1) {
		t.Error("IsBoundary should hold for t == 0 and t == 3 only")
	}
}
