//go:build !disable_nvml

package sensors

import (
	"errors"
	"fmt"
	"sync"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/fanctld/fanctld/internal/configuration"
)

var (
	nvmlInitOnce    sync.Once
	nvmlInitErr     error
	nvmlInitialized bool
)

func initNvml() error {
	nvmlInitOnce.Do(func() {
		if ret := nvml.Init(); ret != nvml.SUCCESS {
			nvmlInitErr = fmt.Errorf("unable to initialize nvml: %s", nvml.ErrorString(ret))
			return
		}
		nvmlInitialized = true
	})
	return nvmlInitErr
}

// CleanupNvml releases the nvml library handle. Meant to be deferred from
// main, it is a no-op if nvml was never initialized.
func CleanupNvml() {
	if nvmlInitialized {
		// ignore the error code returned by Shutdown, can't do anything about it anyway
		_ = nvml.Shutdown()
	}
}

type NvidiaSensor struct {
	Config configuration.SensorConfig

	device nvml.Device
}

func NewNvidiaSensor(config configuration.SensorConfig) (*NvidiaSensor, error) {
	if err := initNvml(); err != nil {
		return nil, err
	}

	index := config.Nvidia.Index
	device, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("unable to get handle for nvidia device %d: %s", index, nvml.ErrorString(ret))
	}

	sensor := &NvidiaSensor{
		Config: config,
		device: device,
	}
	// probe once so a device without a readable temperature sensor is
	// rejected at startup instead of failing on every tick
	if _, err := sensor.GetValue(); err != nil {
		return nil, fmt.Errorf("nvidia device %d does not support reading the temperature: %s", index, err.Error())
	}
	return sensor, nil
}

func (sensor *NvidiaSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor *NvidiaSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

func (sensor *NvidiaSensor) GetValue() (float64, error) {
	tempDegC, ret := sensor.device.GetTemperature(nvml.TEMPERATURE_GPU)
	if ret != nvml.SUCCESS {
		return 0, errors.New(nvml.ErrorString(ret))
	}
	return float64(tempDegC), nil
}

func (sensor *NvidiaSensor) Bounds() (float64, float64) {
	return sensor.Config.Min, sensor.Config.Max
}
