package sensors

import (
	"fmt"

	"github.com/fanctld/fanctld/internal/configuration"
)

// AggregateSensor combines the readings of other sensors.
type AggregateSensor struct {
	Config configuration.SensorConfig

	// Lookup resolves the current reading of an input sensor. The control
	// loop injects its per-cycle reading cache here so inputs are not read
	// twice. When nil, inputs are resolved through the sensor registry and
	// read directly.
	Lookup func(id string) (float64, error)
}

func (sensor *AggregateSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor *AggregateSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

func (sensor *AggregateSensor) GetValue() (float64, error) {
	op := sensor.Config.Aggregate.Op
	if op == "" {
		op = configuration.AggregateOpMax
	}

	values := make([]float64, 0, len(sensor.Config.Aggregate.Sensors))
	var lastErr error
	for _, id := range sensor.Config.Aggregate.Sensors {
		value, err := sensor.readInput(id)
		if err != nil {
			if op == configuration.AggregateOpAvg {
				// an average over partial inputs would be misleading
				return 0, fmt.Errorf("sensor %s: %s", id, err.Error())
			}
			lastErr = err
			continue
		}
		values = append(values, value)
	}

	if len(values) <= 0 {
		if lastErr != nil {
			return 0, lastErr
		}
		return 0, fmt.Errorf("aggregate sensor %s has no inputs", sensor.Config.ID)
	}

	switch op {
	case configuration.AggregateOpAvg:
		sum := 0.0
		for _, value := range values {
			sum += value
		}
		return sum / float64(len(values)), nil
	default:
		max := values[0]
		for _, value := range values[1:] {
			if value > max {
				max = value
			}
		}
		return max, nil
	}
}

func (sensor *AggregateSensor) readInput(id string) (float64, error) {
	if sensor.Lookup != nil {
		return sensor.Lookup(id)
	}
	input, ok := SensorMap.Get(id)
	if !ok {
		return 0, fmt.Errorf("unknown sensor: %s", id)
	}
	return input.GetValue()
}

func (sensor *AggregateSensor) Bounds() (float64, float64) {
	return sensor.Config.Min, sensor.Config.Max
}
