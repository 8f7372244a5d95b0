package bot

import (
	"fmt"

	"janshi/internal/bot/shape"
	"janshi/internal/config"
)

// NewStrategy builds the local decision stack from the agent config:
// style picks the tuning preset, estimator the shape backend.
func NewStrategy(cfg *config.Config) (Strategy, error) {
	est, err := NewEstimator(cfg.Agent.Estimator)
	if err != nil {
		return nil, err
	}
	tuning := StyleTuning(cfg.Agent.Style, cfg.Engine)
	return newLocalStrategy(est, cfg.Danger, cfg.LastAvoid, tuning), nil
}

// NewEstimator maps a config name to a shape estimator.
func NewEstimator(name string) (shape.Estimator, error) {
	switch name {
	case "", "heuristic":
		return shape.Heuristic{}, nil
	case "exact":
		return shape.NewSearcher(), nil
	default:
		return nil, fmt.Errorf("unknown estimator %q", name)
	}
}
