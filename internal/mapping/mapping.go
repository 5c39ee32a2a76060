package mapping

import (
	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/util"
)

// TemperatureSpeed normalizes a temperature reading into a cooling demand
// in [0..1]. At min the demand is 0, at max it is 1, in between it rises
// linearly. Readings outside the window are clamped, not extrapolated.
func TemperatureSpeed(current float64, min float64, max float64) float64 {
	return util.Coerce((current-min)/(max-min), 0, 1)
}

// MappingSpeeds computes the speed of every mapping as the highest demand
// among its sensors. A sensor missing from sensorSpeeds counts as full
// demand, the same as a failing sensor.
func MappingSpeeds(mappings []configuration.MappingConfig, sensorSpeeds map[string]float64) map[string]float64 {
	result := make(map[string]float64, len(mappings))
	for _, mapping := range mappings {
		speed := 0.0
		for _, sensorId := range mapping.Sensors {
			sensorSpeed, ok := sensorSpeeds[sensorId]
			if !ok {
				sensorSpeed = 1.0
			}
			if sensorSpeed > speed {
				speed = sensorSpeed
			}
		}
		result[mapping.ID] = speed
	}
	return result
}

// FanSpeeds computes the target speed of every fan referenced by any
// mapping: the highest of mappingSpeed times the fan's modifier across
// all mappings naming it, clamped to [0..1].
func FanSpeeds(mappings []configuration.MappingConfig, mappingSpeeds map[string]float64) map[string]float64 {
	result := map[string]float64{}
	for _, mapping := range mappings {
		mappingSpeed := mappingSpeeds[mapping.ID]
		for _, fanRef := range mapping.Fans {
			speed := util.Coerce(mappingSpeed*fanRef.Modifier, 0, 1)
			if current, ok := result[fanRef.Fan]; !ok || speed > current {
				result[fanRef.Fan] = speed
			}
		}
	}
	return result
}
