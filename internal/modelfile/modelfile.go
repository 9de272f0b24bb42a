// Package modelfile reads and writes generative models and inference queries
// as JSON or YAML.
package modelfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/happyhackingspace/mmp/tensor"
	"gopkg.in/yaml.v3"
)

// Format is a serialisation format.
type Format int

const (
	JSON Format = iota
	YAML
)

// FormatOf picks the format from a file extension. Anything that is not
// .yaml or .yml is treated as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// Tensor is the on-disk form of a dense tensor: row-major data plus shape.
type Tensor struct {
	Shape []int     `json:"shape" yaml:"shape"`
	Data  []float64 `json:"data" yaml:"data,flow"`
}

// Dense converts t to an in-memory tensor.
func (t Tensor) Dense() (*tensor.Dense, error) {
	if len(t.Shape) == 0 {
		return nil, fmt.Errorf("tensor has no shape")
	}
	n := 1
	for _, d := range t.Shape {
		if d <= 0 {
			return nil, fmt.Errorf("tensor shape %v has non-positive extent", t.Shape)
		}
		n *= d
	}
	if n != len(t.Data) {
		return nil, fmt.Errorf("tensor shape %v needs %d values, have %d", t.Shape, n, len(t.Data))
	}
	data := make([]float64, n)
	copy(data, t.Data)
	return tensor.New(data, t.Shape...), nil
}

// FromDense converts an in-memory tensor to its on-disk form.
func FromDense(d *tensor.Dense) Tensor {
	data := make([]float64, d.Len())
	copy(data, d.Data())
	return Tensor{Shape: d.Shape(), Data: data}
}

// Factor names a hidden-state factor, its states and its actions.
type Factor struct {
	Name    string   `json:"name" yaml:"name"`
	States  []string `json:"states,omitempty" yaml:"states,omitempty"`
	Actions []string `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// Model is a generative model: likelihoods A (one per modality) and
// transitions B (one per factor). Factors is optional labelling.
type Model struct {
	Factors []Factor `json:"factors,omitempty" yaml:"factors,omitempty"`
	A       []Tensor `json:"A" yaml:"A"`
	B       []Tensor `json:"B" yaml:"B"`
}

// Query is the evidence and candidate policies for an inference run.
type Query struct {
	// Evidence is one joint likelihood tensor per past timestep.
	Evidence    []Tensor    `json:"ll_seq" yaml:"ll_seq"`
	PrevActions [][]int     `json:"prev_actions,omitempty" yaml:"prev_actions,omitempty"`
	Prior       [][]float64 `json:"prior,omitempty" yaml:"prior,omitempty"`
	// Policies is [policy][future_step][factor] action indices.
	Policies [][][]int `json:"policies,omitempty" yaml:"policies,omitempty"`
	// NamedPolicies is Policies spelled with action names.
	NamedPolicies [][][]string `json:"named_policies,omitempty" yaml:"named_policies,omitempty"`
}

// Marshal encodes v in the given format.
func Marshal(v any, f Format) ([]byte, error) {
	if f == YAML {
		return yaml.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}

// Unmarshal decodes data in the given format into v.
func Unmarshal(data []byte, f Format, v any) error {
	if f == YAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// LoadModel reads a model file.
func LoadModel(path string) (*Model, error) {
	var m Model
	if err := load(path, &m); err != nil {
		return nil, err
	}
	if len(m.B) == 0 {
		return nil, fmt.Errorf("model %s: no transition tensors", path)
	}
	if len(m.Factors) != 0 && len(m.Factors) != len(m.B) {
		return nil, fmt.Errorf("model %s: %d factor labels for %d transition tensors", path, len(m.Factors), len(m.B))
	}
	for f, fac := range m.Factors {
		if err := CheckLabels(m.B[f].Shape, fac.States, fac.Actions); err != nil {
			return nil, fmt.Errorf("model %s: factor %d: %w", path, f, err)
		}
	}
	return &m, nil
}

// CheckLabels verifies that states and actions, when given, name every state
// and action of a [next, current, action] transition shape exactly once.
// Other shapes are left to inference to reject.
func CheckLabels(shape []int, states, actions []string) error {
	if len(shape) != 3 {
		return nil
	}
	if err := checkNames("state", states, shape[0]); err != nil {
		return err
	}
	return checkNames("action", actions, shape[2])
}

func checkNames(kind string, names []string, want int) error {
	if len(names) == 0 {
		return nil
	}
	a := NewAlphabet(names...)
	if a.Size() != len(names) {
		return fmt.Errorf("duplicate %s names in %q", kind, names)
	}
	if a.Size() != want {
		return fmt.Errorf("needs %d distinct %s names, have %d", want, kind, a.Size())
	}
	return nil
}

// SaveModel writes a model file in the format implied by its extension.
func SaveModel(m *Model, path string) error {
	return save(m, path)
}

// LoadQuery reads a query file.
func LoadQuery(path string) (*Query, error) {
	var q Query
	if err := load(path, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := Unmarshal(data, FormatOf(path), v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func save(v any, path string) error {
	data, err := Marshal(v, FormatOf(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
