package harness

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// SuiteResult aggregates the results of a suite run, in input order.
type SuiteResult struct {
	Results []*Result `json:"results"`
	Passed  int       `json:"passed"`
	Failed  int       `json:"failed"`
	Total   int       `json:"total"`
}

// Pass reports whether every scenario passed.
func (s *SuiteResult) Pass() bool {
	return s.Failed == 0
}

// RunSuite runs scenarios with at most parallel concurrent sessions. Each
// scenario gets its own session and result; results keep input order.
// onResult, if non-nil, is called as each scenario finishes (possibly
// concurrently).
func RunSuite(ctx context.Context, scenarios []*Scenario, opts Options, parallel int, onResult func(*Result)) (*SuiteResult, error) {
	if parallel < 1 {
		parallel = 1
	}

	results := make([]*Result, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, s := range scenarios {
		i, s := i, s
		g.Go(func() error {
			result, err := Run(gctx, s, opts)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", s.Name, err)
			}
			results[i] = result
			if onResult != nil {
				onResult(result)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	suite := &SuiteResult{Results: results, Total: len(results)}
	for _, r := range results {
		if r.Pass {
			suite.Passed++
		} else {
			suite.Failed++
		}
	}
	return suite, nil
}
