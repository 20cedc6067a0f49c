package optimizer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/raykavin/backsim/pkg/logger"
)

// RandomSearch implements a random search optimization algorithm
type RandomSearch struct {
	parameters    []Parameter
	maxIterations int
	parallelism   int
	logger        logger.Logger
	rng           *rand.Rand
}

// NewRandomSearch creates a new random search optimizer
func NewRandomSearch(config *Config) (*RandomSearch, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	return &RandomSearch{
		parameters:    config.Parameters,
		maxIterations: config.MaxIterations,
		parallelism:   config.Parallelism,
		logger:        config.Logger,
		rng:           rng,
	}, nil
}

// SetParameters sets the parameters to be optimized
func (r *RandomSearch) SetParameters(params []Parameter) error {
	if len(params) == 0 {
		return fmt.Errorf("at least one parameter must be provided")
	}
	r.parameters = params
	return nil
}

// SetMaxIterations sets the maximum number of iterations
func (r *RandomSearch) SetMaxIterations(iterations int) {
	r.maxIterations = iterations
}

// SetParallelism sets the number of parallel evaluations
func (r *RandomSearch) SetParallelism(n int) {
	r.parallelism = n
}

// Optimize runs the random search optimization process
func (r *RandomSearch) Optimize(
	ctx context.Context,
	evaluator Evaluator,
	targetMetric MetricName,
	maximize bool,
) ([]*Result, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator cannot be nil")
	}

	// Generate random parameter sets
	parameterSets := r.generateRandomParameterSets()

	r.logger.Infof("Starting random search with %d iterations", len(parameterSets))

	results, err := runEvaluations(ctx, r.logger, evaluator, parameterSets, r.parallelism)
	if err != nil {
		return nil, err
	}

	sortResults(results, targetMetric, maximize)

	r.logger.Infof("Random search completed with %d results", len(results))
	return results, nil
}

// generateRandomParameterSets creates random parameter sets for evaluation
func (r *RandomSearch) generateRandomParameterSets() []ParameterSet {
	parameterSets := make([]ParameterSet, r.maxIterations)

	for i := 0; i < r.maxIterations; i++ {
		paramSet := make(ParameterSet)
		for _, param := range r.parameters {
			value := r.generateRandomValue(param)
			paramSet[param.Name] = value
		}
		parameterSets[i] = paramSet
	}

	return parameterSets
}

// generateRandomValue creates a random value for a parameter based on its type and range
func (r *RandomSearch) generateRandomValue(param Parameter) any {
	switch param.Type {
	case TypeInt:
		return r.generateRandomInt(param)
	case TypeFloat:
		return r.generateRandomFloat(param)
	case TypeBool:
		return r.rng.Intn(2) == 1
	case TypeString, TypeCategorical:
		return r.generateRandomOption(param)
	default:
		// Default to the parameter's default value if type is unsupported
		return param.Default
	}
}

// generateRandomInt creates a random integer within the specified range
func (r *RandomSearch) generateRandomInt(param Parameter) int {
	low, ok := param.Min.(int)
	if !ok {
		if def, ok := param.Default.(int); ok {
			return def
		}
		return 0
	}

	high, ok := param.Max.(int)
	if !ok || low >= high {
		return low
	}

	value := low + r.rng.Intn(high-low+1)
	if step, ok := param.Step.(int); ok && step > 1 {
		value = low + (value-low)/step*step
	}
	return value
}

// generateRandomFloat creates a random float within the specified range
func (r *RandomSearch) generateRandomFloat(param Parameter) float64 {
	low, ok := param.Min.(float64)
	if !ok {
		if def, ok := param.Default.(float64); ok {
			return def
		}
		return 0.0
	}

	high, ok := param.Max.(float64)
	if !ok || low >= high {
		return low
	}

	return low + r.rng.Float64()*(high-low)
}

// generateRandomOption selects a random option from the available options
func (r *RandomSearch) generateRandomOption(param Parameter) any {
	if len(param.Options) == 0 {
		// Fall back to default if no options are available
		return param.Default
	}

	index := r.rng.Intn(len(param.Options))
	return param.Options[index]
}
