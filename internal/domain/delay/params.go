package delay

import (
	"fmt"

	"github.com/phrazzld/latewatch/internal/domain"
)

// Params defines the tunable thresholds of the classification.
type Params struct {
	// CompletionThreshold is the progress at or above which an assignment
	// is considered complete.
	CompletionThreshold float64

	// LagTolerance is how many percentage points actual progress may trail
	// expected progress before the assignment counts as behind schedule.
	LagTolerance float64
}

// ParamsConfig allows overriding the default parameters. Zero fields keep
// their defaults.
type ParamsConfig struct {
	LagTolerance float64
}

// NewDefaultParams returns the thresholds used in production: an assignment
// is complete at 100% and late when it trails expectations by more than 20 points.
func NewDefaultParams() Params {
	return Params{
		CompletionThreshold: 100,
		LagTolerance:        20,
	}
}

// NewParams builds Params from cfg, validating the overrides.
func NewParams(cfg ParamsConfig) (Params, error) {
	p := NewDefaultParams()
	if cfg.LagTolerance != 0 {
		p.LagTolerance = cfg.LagTolerance
	}
	if p.LagTolerance < 0 || p.LagTolerance > 100 {
		return Params{}, fmt.Errorf("%w: lag tolerance must be between 0 and 100, got %v",
			domain.ErrValidation, p.LagTolerance)
	}
	return p, nil
}
