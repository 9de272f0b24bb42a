package modelfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/happyhackingspace/mmp/tensor"
	"github.com/stretchr/testify/require"
)

func sampleModel() *Model {
	return &Model{
		Factors: []Factor{
			{Name: "location", States: []string{"left", "right"}, Actions: []string{"stay", "move"}},
		},
		A: []Tensor{{Shape: []int{2, 2}, Data: []float64{0.9, 0.1, 0.1, 0.9}}},
		B: []Tensor{{Shape: []int{2, 2, 2}, Data: []float64{1, 0, 0, 1, 0, 1, 1, 0}}},
	}
}

func TestAlphabet(t *testing.T) {
	a := NewAlphabet("stay", "move", "stay")
	require.Equal(t, 2, a.Size())
	require.Equal(t, 0, a.Get("stay"))
	require.Equal(t, 1, a.Get("move"))
	require.Equal(t, -1, a.Get("jump"))
	require.Equal(t, "move", a.Name(1))
	require.Equal(t, "", a.Name(5))
}

func TestFormatOf(t *testing.T) {
	require.Equal(t, YAML, FormatOf("model.yaml"))
	require.Equal(t, YAML, FormatOf("MODEL.YML"))
	require.Equal(t, JSON, FormatOf("model.json"))
	require.Equal(t, JSON, FormatOf("model"))
}

func TestModelRoundTrip(t *testing.T) {
	for _, name := range []string{"model.json", "model.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, SaveModel(sampleModel(), path))

			loaded, err := LoadModel(path)
			require.NoError(t, err)
			require.Equal(t, sampleModel(), loaded)

			b, err := loaded.B[0].Dense()
			require.NoError(t, err)
			require.Equal(t, []int{2, 2, 2}, b.Shape())
			require.Equal(t, 1.0, b.At(1, 0, 1))
		})
	}
}

func TestLoadQueryYAML(t *testing.T) {
	doc := `
ll_seq:
  - shape: [2]
    data: [0.8, 0.2]
prior:
  - [0.5, 0.5]
policies:
  - [[0], [1]]
  - [[1], [1]]
`
	path := filepath.Join(t.TempDir(), "query.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	q, err := LoadQuery(path)
	require.NoError(t, err)
	require.Len(t, q.Evidence, 1)
	require.Len(t, q.Policies, 2)
	require.Equal(t, [][]int{{0}, {1}}, q.Policies[0])
	require.Nil(t, q.PrevActions)

	ll, err := q.Evidence[0].Dense()
	require.NoError(t, err)
	require.InDelta(t, 0.8, ll.At(0), 1e-12)
}

func TestTensorDenseErrors(t *testing.T) {
	_, err := Tensor{Shape: []int{2, 2}, Data: []float64{1, 2, 3}}.Dense()
	require.Error(t, err)
	_, err = Tensor{Data: []float64{1}}.Dense()
	require.Error(t, err)
	_, err = Tensor{Shape: []int{0}, Data: nil}.Dense()
	require.Error(t, err)
}

func TestFromDenseCopies(t *testing.T) {
	d := tensor.New([]float64{1, 2}, 2)
	ft := FromDense(d)
	d.Set(9, 0)
	require.Equal(t, []float64{1, 2}, ft.Data)
}

func TestLoadModelRejectsLabelMismatch(t *testing.T) {
	m := sampleModel()
	m.Factors = append(m.Factors, Factor{Name: "extra"})
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, SaveModel(m, path))

	_, err := LoadModel(path)
	require.Error(t, err)
}

func TestLoadModelRejectsDuplicateStateNames(t *testing.T) {
	m := sampleModel()
	m.Factors[0].States = []string{"left", "left"}
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, SaveModel(m, path))

	_, err := LoadModel(path)
	require.ErrorContains(t, err, "duplicate state names")
}

func TestCheckLabels(t *testing.T) {
	shape := []int{2, 2, 3}
	require.NoError(t, CheckLabels(shape, nil, nil))
	require.NoError(t, CheckLabels(shape, []string{"off", "on"}, []string{"stay", "swap", "reset"}))
	require.ErrorContains(t, CheckLabels(shape, []string{"off"}, nil), "needs 2 distinct state names")
	require.ErrorContains(t, CheckLabels(shape, nil, []string{"stay", "stay", "go"}), "duplicate action names")
	require.NoError(t, CheckLabels([]int{2, 2}, []string{"a", "b", "c"}, nil))
}
