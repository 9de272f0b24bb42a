// Package inference implements marginal message passing over a window of past
// evidence and a candidate future policy in a factorised discrete POMDP.
//
// Run sweeps the window a fixed number of times. Within a sweep timesteps are
// visited in ascending order and, at each timestep, factors in ascending
// order; every update reads the freshest beliefs available, so the result
// depends on that order.
package inference

import (
	"fmt"
	"log/slog"
)

// Config holds the sweep parameters.
type Config struct {
	NumIter      int     // number of full sweeps; 0 returns the initial beliefs
	GradDescent  bool    // use the gradient-descent update instead of the direct one
	Tau          float64 // gradient step size
	LastTimestep bool    // the policy ends at the final step of the episode
}

// DefaultConfig returns the standard sweep parameters.
func DefaultConfig() Config {
	return Config{
		NumIter: 10,
		Tau:     0.25,
	}
}

// Rule returns the update rule selected by the config.
func (c Config) Rule() UpdateRule {
	if c.GradDescent {
		return GradientDescent
	}
	return Direct
}

// Output is the result of one call.
type Output struct {
	// Beliefs is [infer_len][num_factors] probability vectors.
	Beliefs [][][]float64
	// FreeEnergy is accumulated over every sweep and timestep, not only the
	// final sweep.
	FreeEnergy float64
	Window     Window
}

// Run computes posterior beliefs over the inference window and the
// accumulated variational free energy of the policy.
func Run(in Input, cfg Config) (*Output, error) {
	if cfg.NumIter < 0 {
		return nil, fmt.Errorf("%w: negative iteration count %d", ErrInvalidConfig, cfg.NumIter)
	}
	if cfg.GradDescent && cfg.Tau <= 0 {
		return nil, fmt.Errorf("%w: step size must be positive, got %v", ErrInvalidConfig, cfg.Tau)
	}

	w := NewWindow(len(in.LLSeq), len(in.Policy), cfg.LastTimestep)
	if w.InferLen < 0 {
		return nil, fmt.Errorf("%w: empty inference window", ErrDimensionMismatch)
	}

	m, err := prepare(in, w)
	if err != nil {
		return nil, err
	}

	s := &sweeper{
		m:  m,
		w:  w,
		ll: in.LLSeq,
		qs: uniformBeliefs(w.InferLen, m.numStates),
	}

	rule := cfg.Rule()
	// F accumulates across sweeps.
	for itr := range cfg.NumIter {
		for t := range w.InferLen {
			s.step(t, rule, cfg.Tau)
		}
		slog.Debug("MMP sweep", "iteration", itr+1, "rule", rule.String(), "free_energy", s.F)
	}

	return &Output{
		Beliefs:    s.qs,
		FreeEnergy: s.F,
		Window:     w,
	}, nil
}
