package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/happyhackingspace/mmp"
	"github.com/happyhackingspace/mmp/internal/config"
	"github.com/happyhackingspace/mmp/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func (c *CLI) newInferCommand() *cobra.Command {
	var policyIndex int
	var named bool

	cmd := &cobra.Command{
		Use:   "infer <model-file> <query-file>",
		Short: "Infer hidden-state beliefs under one policy",
		Args:  cobra.ExactArgs(2),
		Example: `  # Beliefs under the first policy in the query file
  mmp infer model.yaml query.yaml

  # Pick another policy and print beliefs by state name
  mmp infer model.yaml query.yaml --policy 2 --named

  # Gradient-descent update with a smaller step
  mmp infer model.yaml query.yaml --grad-descent --tau 0.1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.settings(cmd)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			e, q, err := loadInputs(args[0], args[1], reg)
			if err != nil {
				return err
			}
			if policyIndex < 0 || policyIndex >= len(q.Policies) {
				return fmt.Errorf("policy %d out of range: query has %d policies", policyIndex, len(q.Policies))
			}

			start := time.Now()
			res, err := e.Infer(q, q.Policies[policyIndex], engineConfig(s))
			if err != nil {
				return err
			}
			slog.Debug("Inference finished", "policy", policyIndex, "duration", time.Since(start))

			var out any = res
			if named {
				out = struct {
					Policy     [][]string                      `json:"policy"`
					Beliefs    []map[string]map[string]float64 `json:"beliefs"`
					FreeEnergy float64                         `json:"free_energy"`
				}{e.PolicyNames(res.Policy), e.NamedBeliefs(res), res.FreeEnergy}
			}
			output, _ := json.MarshalIndent(out, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(output))

			return writeMetrics(s, reg)
		},
	}

	addInferenceFlags(cmd)
	cmd.Flags().IntVar(&policyIndex, "policy", 0, "Index of the policy in the query file")
	cmd.Flags().BoolVar(&named, "named", false, "Print beliefs keyed by factor and state names")
	return cmd
}

func loadInputs(modelPath, queryPath string, reg prometheus.Registerer) (*mmp.Engine, *mmp.Query, error) {
	start := time.Now()
	e, err := mmp.Load(modelPath, mmp.WithRegisterer(reg))
	if err != nil {
		return nil, nil, err
	}
	q, err := e.LoadQuery(queryPath)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("Inputs loaded",
		"model", modelPath,
		"query", queryPath,
		"evidence", len(q.Evidence),
		"policies", len(q.Policies),
		"duration", time.Since(start))
	return e, q, nil
}

func engineConfig(s *config.Settings) *mmp.Config {
	return &mmp.Config{
		NumIter:      s.NumIter,
		GradDescent:  s.GradDescent,
		Tau:          s.Tau,
		LastTimestep: s.LastTimestep,
		Workers:      s.Workers,
	}
}

func writeMetrics(s *config.Settings, g prometheus.Gatherer) error {
	if s.MetricsFile == "" {
		return nil
	}
	if err := metrics.WriteTextfile(s.MetricsFile, g); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	slog.Debug("Metrics written", "path", s.MetricsFile)
	return nil
}
