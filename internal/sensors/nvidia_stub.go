//go:build disable_nvml

package sensors

import (
	"errors"

	"github.com/fanctld/fanctld/internal/configuration"
)

func NewNvidiaSensor(config configuration.SensorConfig) (Sensor, error) {
	return nil, errors.New("this version of fanctld was built without NVIDIA (nvml) support")
}

// CleanupNvml does nothing when fanctld was compiled without nvml support.
func CleanupNvml() {
}
