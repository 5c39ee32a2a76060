package filters

import (
	"fmt"
	"math"

	"github.com/asecurityteam/rolling"
	"github.com/fanctld/fanctld/internal/configuration"
)

// Filter smooths a stream of temperature readings. Implementations are
// stateful across ticks and not safe for concurrent use.
type Filter interface {
	// Apply feeds one reading into the filter and returns the smoothed value.
	// A failed reading is fed as +Inf so that failures dominate high quantiles;
	// a filter output that is not a finite number is itself a failure.
	Apply(value float64, err error) (float64, error)
}

// NewChain builds the filter chain for one sensor in configuration order.
func NewChain(configs []configuration.FilterConfig) []Filter {
	var chain []Filter
	for _, config := range configs {
		if config.MovingMedian != nil {
			chain = append(chain, NewMovingQuantile(0.5, config.MovingMedian.Window))
		}
		if config.MovingQuantile != nil {
			chain = append(chain, NewMovingQuantile(config.MovingQuantile.Quantile, config.MovingQuantile.Window))
		}
	}
	return chain
}

// ApplyChain runs a reading through all filters in order.
func ApplyChain(chain []Filter, value float64, err error) (float64, error) {
	for _, filter := range chain {
		value, err = filter.Apply(value, err)
	}
	return value, err
}

type movingQuantileFilter struct {
	quantile float64
	size     int
	window   *rolling.PointPolicy
	primed   bool
}

// NewMovingQuantile returns a filter that reports the given quantile over a
// rolling window of readings. The median is the 0.5 quantile.
func NewMovingQuantile(quantile float64, window int) Filter {
	return &movingQuantileFilter{
		quantile: quantile,
		size:     window,
		window:   rolling.NewPointPolicy(rolling.NewWindow(window)),
	}
}

func (f *movingQuantileFilter) Apply(value float64, err error) (float64, error) {
	if err != nil {
		value = math.Inf(1)
	}
	// a fresh window reduces as if filled with zeros, seed it with the
	// first reading instead
	if !f.primed {
		fillWindow(f.window, f.size, value)
		f.primed = true
	} else {
		f.window.Append(value)
	}

	filtered := f.window.Reduce(rolling.Percentile(f.quantile * 100))
	if math.IsInf(filtered, 0) || math.IsNaN(filtered) {
		return 0, fmt.Errorf("filter window is dominated by failed readings")
	}
	return filtered, nil
}

// completely fills the given window with the given value
func fillWindow(window *rolling.PointPolicy, size int, value float64) {
	for i := 0; i < size; i++ {
		window.Append(value)
	}
}
