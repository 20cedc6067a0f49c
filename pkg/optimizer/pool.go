package optimizer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/raykavin/backsim/pkg/logger"
	"github.com/samber/lo"
)

// runEvaluations evaluates every parameter set with at most parallelism
// evaluations in flight. The first error stops new evaluations and cancels
// the running ones; results keep the order of parameterSets.
func runEvaluations(
	ctx context.Context,
	log logger.Logger,
	evaluator Evaluator,
	parameterSets []ParameterSet,
	parallelism int,
) ([]*Result, error) {
	parallelism = max(parallelism, 1)

	evalCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		results   = make([]*Result, len(parameterSets))
		wg        sync.WaitGroup
		errCh     = make(chan error, 1)
		semaphore = make(chan struct{}, parallelism)
	)

	collect := func() []*Result {
		return lo.Filter(results, func(result *Result, _ int) bool { return result != nil })
	}

	stop := func() ([]*Result, error) {
		wg.Wait()
		select {
		case err := <-errCh:
			return collect(), err
		default:
			return collect(), ctx.Err()
		}
	}

	for i, params := range parameterSets {
		if evalCtx.Err() != nil {
			return stop()
		}

		select {
		case <-evalCtx.Done():
			return stop()
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(index int, paramSet ParameterSet) {
			defer wg.Done()
			defer func() { <-semaphore }()

			log.Debugf("Evaluating parameter set %d/%d %s", index+1, len(parameterSets), FormatParameterSet(paramSet))

			result, err := evaluator.Evaluate(evalCtx, paramSet)
			if err != nil {
				select {
				case errCh <- fmt.Errorf("evaluation of %s: %w", FormatParameterSet(paramSet), err):
				default:
				}
				cancel()
				return
			}

			// each goroutine owns its slot
			results[index] = result
		}(i, params)
	}

	wg.Wait()

	select {
	case err := <-errCh:
		return collect(), err
	default:
		return collect(), nil
	}
}

// sortResults orders results best first by targetMetric
func sortResults(results []*Result, targetMetric MetricName, maximize bool) {
	sort.Stable(ResultSorter{
		Results:    results,
		MetricName: string(targetMetric),
		Maximize:   maximize,
	})
}
