package sensors

import (
	"strconv"
	"strings"
	"time"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/util"
)

type CmdSensor struct {
	Config configuration.SensorConfig

	// effective bounds, updated when the command reports its own
	min float64
	max float64
}

func (sensor *CmdSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor *CmdSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

// GetValue executes the sensor command and parses its output. The first
// line of output is the temperature in degrees celsius. A second and third
// line, if present, override the configured min and max temperature until
// the next execution.
func (sensor *CmdSensor) GetValue() (float64, error) {
	timeout := configuration.CurrentConfig.SensorTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	result, err := util.SafeCmdExecution(sensor.Config.Cmd.Exec, sensor.Config.Cmd.Args, timeout)
	if err != nil {
		return 0, err
	}
	return sensor.parseOutput(result)
}

func (sensor *CmdSensor) parseOutput(result string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(result), "\n")
	temp, err := strconv.ParseFloat(strings.TrimSpace(lines[0]), 64)
	if err != nil {
		return 0, err
	}

	min, max := sensor.Config.Min, sensor.Config.Max
	if len(lines) >= 3 {
		reportedMin, minErr := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
		reportedMax, maxErr := strconv.ParseFloat(strings.TrimSpace(lines[2]), 64)
		if minErr == nil && maxErr == nil && reportedMin < reportedMax {
			min, max = reportedMin, reportedMax
		}
	}
	sensor.min, sensor.max = min, max

	return temp, nil
}

func (sensor *CmdSensor) Bounds() (float64, float64) {
	return sensor.min, sensor.max
}
