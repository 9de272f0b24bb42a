// Package mmp estimates posterior beliefs over hidden states in a factorised
// discrete POMDP and scores candidate policies by variational free energy,
// using marginal message passing.
//
//	e, _ := mmp.Load("model.yaml")
//	q, _ := mmp.LoadQuery("query.yaml")
//	res, _ := e.Infer(q, q.Policies[0], nil)
//	fmt.Println(res.FreeEnergy)
//	fmt.Println(res.Beliefs[0]) // per-factor beliefs at the first timestep
package mmp

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/happyhackingspace/mmp/inference"
	"github.com/happyhackingspace/mmp/internal/metrics"
	"github.com/happyhackingspace/mmp/internal/modelfile"
	"github.com/happyhackingspace/mmp/tensor"
	"github.com/prometheus/client_golang/prometheus"
)

// Errors returned by Infer and EvaluatePolicies, usable with errors.Is.
var (
	ErrDimensionMismatch  = inference.ErrDimensionMismatch
	ErrInvalidActionIndex = inference.ErrInvalidActionIndex
	ErrInvalidConfig      = inference.ErrInvalidConfig
)

// Factor labels a hidden-state factor.
type Factor struct {
	Name    string
	States  []string
	Actions []string
}

// Model is a generative model.
type Model struct {
	A       tensor.Collection // likelihoods, one per modality: [obs, ns_0, ..., ns_{F-1}]
	B       tensor.Collection // transitions, one per factor: [next, current, action]
	Factors []Factor          // optional labels, one per factor
}

// Query is the evidence for a run and the policies to evaluate against it.
type Query struct {
	Evidence    []*tensor.Dense // joint likelihood per past timestep
	PrevActions [][]int         // [past_len][num_factors]; nil means action 0
	Prior       [][]float64     // per-factor prior; nil means uniform
	Policies    [][][]int       // [policy][future_len][num_factors]
}

// Config holds the inference parameters.
type Config struct {
	NumIter      int
	GradDescent  bool
	Tau          float64
	LastTimestep bool
	// Workers bounds concurrent calls in EvaluatePolicies.
	Workers int
}

// DefaultConfig returns the standard inference parameters.
func DefaultConfig() *Config {
	d := inference.DefaultConfig()
	return &Config{
		NumIter: d.NumIter,
		Tau:     d.Tau,
		Workers: 4,
	}
}

func (c *Config) core() inference.Config {
	return inference.Config{
		NumIter:      c.NumIter,
		GradDescent:  c.GradDescent,
		Tau:          c.Tau,
		LastTimestep: c.LastTimestep,
	}
}

// Result holds the beliefs and free energy for one policy.
type Result struct {
	Policy     [][]int       `json:"policy"`
	Beliefs    [][][]float64 `json:"beliefs"`
	FreeEnergy float64       `json:"free_energy"`
	InferLen   int           `json:"infer_len"`
}

// Engine runs inference against one model. It is safe for concurrent use.
type Engine struct {
	model   *Model
	metrics *metrics.Metrics

	// Label lookups per factor; nil where the factor is unlabelled.
	states  []*modelfile.Alphabet
	actions []*modelfile.Alphabet
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegisterer reports call metrics to reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.metrics = metrics.MustNew(reg)
	}
}

// New creates an engine for m. State and action labels, when present, must
// name every state and action of their factor exactly once.
func New(m *Model, opts ...Option) (*Engine, error) {
	if m == nil || len(m.B) == 0 {
		return nil, fmt.Errorf("mmp: model has no transition tensors")
	}
	if len(m.Factors) != 0 && len(m.Factors) != len(m.B) {
		return nil, fmt.Errorf("mmp: %d factor labels for %d factors", len(m.Factors), len(m.B))
	}
	e := &Engine{
		model:   m,
		states:  make([]*modelfile.Alphabet, len(m.Factors)),
		actions: make([]*modelfile.Alphabet, len(m.Factors)),
	}
	for f, fac := range m.Factors {
		if m.B[f] == nil {
			return nil, fmt.Errorf("mmp: %w: B[%d] is nil", ErrDimensionMismatch, f)
		}
		if err := modelfile.CheckLabels(m.B[f].Shape(), fac.States, fac.Actions); err != nil {
			return nil, fmt.Errorf("mmp: factor %d: %w", f, err)
		}
		if len(fac.States) > 0 {
			e.states[f] = modelfile.NewAlphabet(fac.States...)
		}
		if len(fac.Actions) > 0 {
			e.actions[f] = modelfile.NewAlphabet(fac.Actions...)
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Load creates an engine from a JSON or YAML model file.
func Load(path string, opts ...Option) (*Engine, error) {
	mf, err := modelfile.LoadModel(path)
	if err != nil {
		return nil, fmt.Errorf("mmp: %w", err)
	}
	m, err := modelFromFile(mf)
	if err != nil {
		return nil, fmt.Errorf("mmp: %s: %w", path, err)
	}
	return New(m, opts...)
}

// Save writes the engine's model to path.
func (e *Engine) Save(path string) error {
	mf := &modelfile.Model{}
	for _, a := range e.model.A {
		mf.A = append(mf.A, modelfile.FromDense(a))
	}
	for _, b := range e.model.B {
		mf.B = append(mf.B, modelfile.FromDense(b))
	}
	for _, f := range e.model.Factors {
		mf.Factors = append(mf.Factors, modelfile.Factor{Name: f.Name, States: f.States, Actions: f.Actions})
	}
	if err := modelfile.SaveModel(mf, path); err != nil {
		return fmt.Errorf("mmp: %w", err)
	}
	return nil
}

// Model returns the engine's model.
func (e *Engine) Model() *Model {
	return e.model
}

// Infer computes beliefs over the window spanned by q's evidence and policy,
// and the free energy accumulated over every sweep.
func (e *Engine) Infer(q *Query, policy [][]int, cfg *Config) (*Result, error) {
	if q == nil {
		return nil, fmt.Errorf("mmp: nil query")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	rule := cfg.core().Rule().String()
	start := time.Now()

	out, err := inference.Run(inference.Input{
		A:           e.model.A,
		B:           e.model.B,
		LLSeq:       q.Evidence,
		Policy:      policy,
		PrevActions: q.PrevActions,
		Prior:       q.Prior,
	}, cfg.core())
	if err != nil {
		e.metrics.ObserveFailure(rule)
		return nil, fmt.Errorf("mmp: %w", err)
	}

	elapsed := time.Since(start)
	e.metrics.ObserveSuccess(rule, cfg.NumIter, elapsed, out.FreeEnergy)
	slog.Debug("Inference completed",
		"factors", len(e.model.B),
		"infer_len", out.Window.InferLen,
		"rule", rule,
		"free_energy", out.FreeEnergy,
		"duration", elapsed)

	return &Result{
		Policy:     policy,
		Beliefs:    out.Beliefs,
		FreeEnergy: out.FreeEnergy,
		InferLen:   out.Window.InferLen,
	}, nil
}

// NamedBeliefs returns r's beliefs keyed by factor and state name. Unlabelled
// factors and states fall back to their indices.
func (e *Engine) NamedBeliefs(r *Result) []map[string]map[string]float64 {
	out := make([]map[string]map[string]float64, len(r.Beliefs))
	for t, beliefs := range r.Beliefs {
		out[t] = make(map[string]map[string]float64, len(beliefs))
		for f, q := range beliefs {
			states := make(map[string]float64, len(q))
			for s, p := range q {
				states[e.stateName(f, s)] = p
			}
			out[t][e.factorName(f)] = states
		}
	}
	return out
}

// PolicyNames renders a policy as action names per step and factor.
func (e *Engine) PolicyNames(policy [][]int) [][]string {
	out := make([][]string, len(policy))
	for t, row := range policy {
		out[t] = make([]string, len(row))
		for f, u := range row {
			out[t][f] = e.actionName(f, u)
		}
	}
	return out
}

func (e *Engine) factorName(f int) string {
	if f < len(e.model.Factors) && e.model.Factors[f].Name != "" {
		return e.model.Factors[f].Name
	}
	return "factor_" + strconv.Itoa(f)
}

func (e *Engine) stateName(f, s int) string {
	return labelOr(e.states, f, s)
}

func (e *Engine) actionName(f, u int) string {
	return labelOr(e.actions, f, u)
}

func labelOr(alphabets []*modelfile.Alphabet, f, id int) string {
	if f < len(alphabets) && alphabets[f] != nil {
		if name := alphabets[f].Name(id); name != "" {
			return name
		}
	}
	return strconv.Itoa(id)
}
