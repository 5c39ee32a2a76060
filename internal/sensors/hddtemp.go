package sensors

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/util"
)

// Disks need time to wake up, so hddtemp gets a more generous timeout
// than other sensor commands.
const hddTempTimeout = 10 * time.Second

type HddTempSensor struct {
	Config configuration.SensorConfig

	// absolute path of the hddtemp binary
	Exec string
}

func NewHddTempSensor(config configuration.SensorConfig) (*HddTempSensor, error) {
	binary := config.HddTemp.Exec
	if binary == "" {
		binary = "hddtemp"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("sensor %s: %s", config.ID, err.Error())
	}
	return &HddTempSensor{
		Config: config,
		Exec:   resolved,
	}, nil
}

func (sensor *HddTempSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor *HddTempSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

// GetValue reports the hottest of the configured disks. Disks in standby
// produce a non-numeric line and are skipped so they can keep sleeping.
func (sensor *HddTempSensor) GetValue() (float64, error) {
	devices, err := util.ExpandGlob(sensor.Config.HddTemp.Devices)
	if err != nil {
		return 0, err
	}
	if len(devices) <= 0 {
		return 0, fmt.Errorf("no device matches %s", sensor.Config.HddTemp.Devices)
	}

	args := append([]string{"-n", "-u", "C", "--"}, devices...)
	result, err := util.SafeCmdExecution(sensor.Exec, args, hddTempTimeout)
	if err != nil {
		return 0, err
	}

	max := 0.0
	found := false
	for _, line := range strings.Split(result, "\n") {
		value, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if err != nil {
			continue
		}
		if !found || value > max {
			max = value
		}
		found = true
	}
	if !found {
		return 0, fmt.Errorf("hddtemp returned no valid temperature for %s", sensor.Config.HddTemp.Devices)
	}

	return max, nil
}

func (sensor *HddTempSensor) Bounds() (float64, float64) {
	return sensor.Config.Min, sensor.Config.Max
}

// ReadTimeout widens the per-read deadline of the control loop to what
// the hddtemp call itself may take.
func (sensor *HddTempSensor) ReadTimeout() time.Duration {
	return hddTempTimeout + 2*time.Second
}
