package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/happyhackingspace/mmp/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "evaluate <model-file> <query-file>",
		Short: "Score every policy in a query file by free energy",
		Args:  cobra.ExactArgs(2),
		Example: `  mmp evaluate model.yaml query.yaml
  mmp evaluate model.yaml query.yaml --workers 8 --json`,
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

			slog.Info("Evaluating policies", "policies", len(q.Policies), "workers", s.Workers)
			start := time.Now()
			scores, err := e.EvaluatePolicies(cmd.Context(), q, engineConfig(s))
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))

			w := cmd.OutOrStdout()
			if asJSON {
				output, _ := json.MarshalIndent(scores, "", "  ")
				fmt.Fprintln(w, string(output))
				return writeMetrics(s, reg)
			}

			fmt.Fprintf(w, "%6s  %14s  %s\n", "policy", "free_energy", "actions")
			for _, sc := range scores {
				steps := make([]string, 0, len(sc.Policy))
				for _, row := range e.PolicyNames(sc.Policy) {
					steps = append(steps, strings.Join(row, ","))
				}
				fmt.Fprintf(w, "%6d  %14.6f  %s\n", sc.Index, sc.FreeEnergy, strings.Join(steps, " -> "))
			}
			return writeMetrics(s, reg)
		},
	}

	addInferenceFlags(cmd)
	cmd.Flags().Int(config.KeyWorkers, 4, "Policies evaluated concurrently")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print scores as JSON")
	return cmd
}
