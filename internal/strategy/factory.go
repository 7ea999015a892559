package strategy

import (
	"errors"
	"fmt"
)

// Registered strategy names.
const (
	NameRebalancing = "rebalancing"
	NameStop        = "stop"
)

// ErrUnknownStrategy is returned for a strategy name that is not
// registered.
var ErrUnknownStrategy = errors.New("unknown strategy name")

// DefaultDispatcher returns a dispatcher with the default parameter set
// for the named strategy.
func DefaultDispatcher(name string) (Dispatcher, error) {
	switch name {
	case NameRebalancing:
		return NewRebalancingDispatcher(RebalancingConfig{Alpha: 0.7, Epsilon: 0.05}), nil
	case NameStop:
		return NewStopDispatcher(StopConfig{
			StopOrderMargin:         0.1,
			StopOrderMoveMargin:     0.1,
			StopOrderIncreasePerDay: 0.01,
			StopOrderDecreasePerDay: 0.1,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// CombinationDispatchers returns the full parameter grid of dispatchers
// for the named strategy, for batch evaluation.
func CombinationDispatchers(name string) ([]Dispatcher, error) {
	switch name {
	case NameRebalancing:
		return RebalancingCombinations(
			[]float64{0.1, 0.3, 0.5, 0.7, 0.9},
			[]float64{0.01, 0.05, 0.1, 0.2},
		), nil
	case NameStop:
		return StopCombinations(
			[]float64{0.05, 0.1, 0.15, 0.2},
			[]float64{0.05, 0.1, 0.15, 0.2},
			[]float64{0.01, 0.05, 0.1},
			[]float64{0.01, 0.05, 0.1},
		), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}
