package mmp

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// PolicyScore is the outcome of evaluating one policy.
type PolicyScore struct {
	Index      int     `json:"index"`
	Policy     [][]int `json:"policy"`
	FreeEnergy float64 `json:"free_energy"`
	Result     *Result `json:"-"`
}

// EvaluatePolicies runs Infer for every policy in q, at most cfg.Workers at a
// time, and returns the scores in the order of q.Policies. Each call is
// independent; no policy is selected here. Cancelling ctx stops calls that
// have not started yet.
func (e *Engine) EvaluatePolicies(ctx context.Context, q *Query, cfg *Config) ([]PolicyScore, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if q == nil || len(q.Policies) == 0 {
		return nil, fmt.Errorf("mmp: query has no policies")
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	scores := make([]PolicyScore, len(q.Policies))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, policy := range q.Policies {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.Infer(q, policy, cfg)
			if err != nil {
				return fmt.Errorf("policy %d: %w", i, err)
			}
			scores[i] = PolicyScore{
				Index:      i,
				Policy:     policy,
				FreeEnergy: res.FreeEnergy,
				Result:     res,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("Policies evaluated", "policies", len(scores), "workers", workers)
	return scores, nil
}
