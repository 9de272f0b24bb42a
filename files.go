package mmp

import (
	"fmt"

	"github.com/happyhackingspace/mmp/internal/modelfile"
)

// LoadQuery reads a JSON or YAML query file. Policies may be given as action
// indices (policies) or, when the model labels its actions, as action names
// (named_policies); named policies are appended after indexed ones.
func (e *Engine) LoadQuery(path string) (*Query, error) {
	qf, err := modelfile.LoadQuery(path)
	if err != nil {
		return nil, fmt.Errorf("mmp: %w", err)
	}
	q, err := queryFromFile(qf, e.actions)
	if err != nil {
		return nil, fmt.Errorf("mmp: %s: %w", path, err)
	}
	return q, nil
}

// LoadQuery reads a query file that uses action indices only.
func LoadQuery(path string) (*Query, error) {
	qf, err := modelfile.LoadQuery(path)
	if err != nil {
		return nil, fmt.Errorf("mmp: %w", err)
	}
	q, err := queryFromFile(qf, nil)
	if err != nil {
		return nil, fmt.Errorf("mmp: %s: %w", path, err)
	}
	return q, nil
}

func modelFromFile(mf *modelfile.Model) (*Model, error) {
	m := &Model{}
	for i, t := range mf.A {
		d, err := t.Dense()
		if err != nil {
			return nil, fmt.Errorf("A[%d]: %w", i, err)
		}
		m.A = append(m.A, d)
	}
	for i, t := range mf.B {
		d, err := t.Dense()
		if err != nil {
			return nil, fmt.Errorf("B[%d]: %w", i, err)
		}
		m.B = append(m.B, d)
	}
	for _, f := range mf.Factors {
		m.Factors = append(m.Factors, Factor{Name: f.Name, States: f.States, Actions: f.Actions})
	}
	return m, nil
}

func queryFromFile(qf *modelfile.Query, actions []*modelfile.Alphabet) (*Query, error) {
	q := &Query{
		PrevActions: qf.PrevActions,
		Prior:       qf.Prior,
		Policies:    qf.Policies,
	}
	for t, ft := range qf.Evidence {
		d, err := ft.Dense()
		if err != nil {
			return nil, fmt.Errorf("ll_seq[%d]: %w", t, err)
		}
		q.Evidence = append(q.Evidence, d)
	}

	for p, named := range qf.NamedPolicies {
		policy := make([][]int, len(named))
		for t, row := range named {
			policy[t] = make([]int, len(row))
			for f, name := range row {
				if f >= len(actions) || actions[f] == nil {
					return nil, fmt.Errorf("named_policies[%d]: factor %d has no action labels", p, f)
				}
				u := actions[f].Get(name)
				if u < 0 {
					return nil, fmt.Errorf("named_policies[%d]: unknown action %q for factor %d", p, name, f)
				}
				policy[t][f] = u
			}
		}
		q.Policies = append(q.Policies, policy)
	}
	return q, nil
}
