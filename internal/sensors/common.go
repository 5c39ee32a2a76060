package sensors

import (
	"fmt"

	"github.com/fanctld/fanctld/internal/configuration"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// SensorMap contains all active sensors keyed by their id.
var SensorMap = cmap.New[Sensor]()

type Sensor interface {
	GetId() string

	GetConfig() configuration.SensorConfig

	// GetValue returns the current temperature of this sensor in degrees
	// celsius. An error marks the sensor as failing for this reading.
	GetValue() (float64, error)

	// Bounds returns the effective min/max temperature of this sensor for
	// the most recent reading. Most backends report their configured
	// values, backends that receive bounds at runtime may report others.
	Bounds() (min float64, max float64)
}

func NewSensor(config configuration.SensorConfig) (Sensor, error) {
	if config.File != nil {
		return NewFileSensor(config)
	}
	if config.Cmd != nil {
		return &CmdSensor{
			Config: config,
			min:    config.Min,
			max:    config.Max,
		}, nil
	}
	if config.HddTemp != nil {
		return NewHddTempSensor(config)
	}
	if config.Snmp != nil {
		return NewSnmpSensor(config)
	}
	if config.Nvidia != nil {
		return NewNvidiaSensor(config)
	}
	if config.Aggregate != nil {
		return &AggregateSensor{
			Config: config,
		}, nil
	}

	return nil, fmt.Errorf("unable to process sensor configuration: %s", config.ID)
}
