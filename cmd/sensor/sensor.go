package sensor

import (
	"fmt"
	"strings"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/mapping"
	"github.com/fanctld/fanctld/internal/sensors"
	"github.com/fanctld/fanctld/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var sensorId string

var Command = &cobra.Command{
	Use:              "sensor",
	Short:            "Print the current value and speed of a sensor",
	Long:             ``,
	TraverseChildren: true,
	Args:             cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		sensor, err := getSensor(sensorId)
		if err != nil {
			return err
		}

		value, err := sensor.GetValue()
		if err != nil {
			return err
		}

		min, max := sensor.Bounds()
		speed := mapping.TemperatureSpeed(value, min, max)

		fmt.Printf("%.2f\n", value)
		fmt.Printf("%.2f\n", speed)
		return nil
	},
}

func init() {
	Command.PersistentFlags().StringVarP(
		&sensorId,
		"id", "i",
		"",
		"Sensor ID as specified in the config",
	)
	_ = Command.MarkPersistentFlagRequired("id")
}

func getSensor(id string) (sensors.Sensor, error) {
	configPath := configuration.DetectConfigFile()
	ui.Info("Using configuration file at: %s", configPath)
	configuration.LoadConfig()
	if err := configuration.Validate(configPath); err != nil {
		ui.Fatal("%v", err)
	}

	// aggregates resolve their inputs through the registry, so every
	// sensor is built before the requested one is looked up
	availableSensorIds := []string{}
	for _, config := range configuration.CurrentConfig.Sensors {
		availableSensorIds = append(availableSensorIds, config.ID)
		sensor, err := sensors.NewSensor(config)
		if err != nil {
			return nil, err
		}
		sensors.SensorMap.Set(config.ID, sensor)
	}

	sensor, ok := sensors.SensorMap.Get(id)
	if !ok {
		return nil, fmt.Errorf("no sensor with id found: %s, options: %s", id, strings.Join(availableSensorIds, ", "))
	}
	return sensor, nil
}
