package sensors

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/util"
	"github.com/mitchellh/go-homedir"
)

type FileSensor struct {
	Config configuration.SensorConfig

	// resolved sensor file after glob and home directory expansion
	FilePath string
}

// NewFileSensor resolves the configured path and ensures it points at
// exactly one readable file.
func NewFileSensor(config configuration.SensorConfig) (*FileSensor, error) {
	filePath := config.File.Path
	if strings.HasPrefix(filePath, "~") {
		expanded, err := homedir.Expand(filePath)
		if err != nil {
			return nil, err
		}
		filePath = expanded
	}

	filePath, err := util.ExpandGlobToSingleFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("sensor %s: %s", config.ID, err.Error())
	}

	return &FileSensor{
		Config:   config,
		FilePath: filePath,
	}, nil
}

func (sensor *FileSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor *FileSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

// GetValue reads the sensor file and converts its millidegree value to
// degrees celsius, like the kernel hwmon/thermal interfaces report it.
func (sensor *FileSensor) GetValue() (float64, error) {
	data, err := os.ReadFile(sensor.FilePath)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, err
	}
	return value / 1000, nil
}

func (sensor *FileSensor) Bounds() (float64, float64) {
	return sensor.Config.Min, sensor.Config.Max
}
