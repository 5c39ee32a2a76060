package configuration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(value int) *int {
	return &value
}

func floatPtr(value float64) *float64 {
	return &value
}

func validBaseConfig() Configuration {
	return Configuration{
		Interval:      5 * time.Second,
		SensorTimeout: 2 * time.Second,
		Arduinos: []ArduinoConfig{
			{
				ID:        "mcu0",
				SerialUrl: "/dev/ttyACM0",
			},
		},
		Sensors: []SensorConfig{
			{
				ID:    "cpu",
				Min:   50,
				Max:   65,
				Panic: floatPtr(80),
				File: &FileSensorConfig{
					Path: "/sys/class/hwmon/hwmon0/temp1_input",
				},
			},
		},
		Fans: []FanConfig{
			{
				ID:           "intake",
				PwmLineStart: intPtr(100),
				PwmLineEnd:   intPtr(240),
				Arduino: &ArduinoFanConfig{
					Arduino:  "mcu0",
					PwmPin:   9,
					TachoPin: 3,
				},
			},
		},
		Mappings: []MappingConfig{
			{
				ID: "main",
				Fans: []MappingFanConfig{
					{Fan: "intake", Modifier: 1.0},
				},
				Sensors: []string{"cpu"},
			},
		},
	}
}

func TestValidateValidConfig(t *testing.T) {
	// GIVEN
	config := validBaseConfig()

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.NoError(t, err)
}

func TestValidateDuplicateSensorId(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors = append(config.Sensors, config.Sensors[0])

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "Duplicate sensor id: cpu")
}

func TestValidateSensorSubConfigIsMissing(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors[0].File = nil

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "Sensor cpu: sub-configuration for sensor is missing, use one of: file | cmd | hddtemp | snmp | nvidia | aggregate")
}

func TestValidateSensorMinEqualsMax(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors[0].Min = 65
	config.Sensors[0].Max = 65

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "Sensor cpu: max (65.0) must be greater than min (65.0)")
}

func TestValidateSensorMinAboveMax(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors[0].Min = 70
	config.Sensors[0].Max = 65

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.Error(t, err)
}

func TestValidateMappingUnknownSensor(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Mappings[0].Sensors = []string{"cpu", "gpu"}

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "Mapping main: unknown sensor 'gpu'")
}

func TestValidateMappingUnknownFan(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Mappings[0].Fans = append(config.Mappings[0].Fans, MappingFanConfig{Fan: "outtake", Modifier: 0.6})

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "Mapping main: unknown fan 'outtake'")
}

func TestValidateMappingModifierZero(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Mappings[0].Fans[0].Modifier = 0

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "Mapping main: fan 'intake' modifier must be > 0")
}

func TestValidateFanUnknownArduino(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Fans[0].Arduino.Arduino = "mcu1"

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "Fan intake: unknown arduino 'mcu1'")
}

func TestValidateFanPwmLineStartAboveEnd(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Fans[0].PwmLineStart = intPtr(241)

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "Fan intake: pwmLineStart (241) must not exceed pwmLineEnd (240)")
}

func TestValidateFanPwmLineEndOutOfRange(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Fans[0].PwmLineEnd = intPtr(256)

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "Fan intake: pwmLineEnd must be in [0, 255]")
}

func TestValidateDuplicatePwmPin(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Fans = append(config.Fans, FanConfig{
		ID: "outtake",
		Arduino: &ArduinoFanConfig{
			Arduino:  "mcu0",
			PwmPin:   9,
			TachoPin: 4,
		},
	})
	config.Mappings[0].Fans = append(config.Mappings[0].Fans, MappingFanConfig{Fan: "outtake", Modifier: 0.6})

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "Fan outtake: pwm pin 9 on arduino 'mcu0' is already in use")
}

func TestValidateAggregateCycle(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors = append(config.Sensors,
		SensorConfig{
			ID:  "agg1",
			Min: 40, Max: 70,
			Aggregate: &AggregateSensorConfig{Sensors: []string{"agg2"}},
		},
		SensorConfig{
			ID:  "agg2",
			Min: 40, Max: 70,
			Aggregate: &AggregateSensorConfig{Sensors: []string{"agg1"}},
		},
	)
	config.Mappings[0].Sensors = append(config.Mappings[0].Sensors, "agg1", "agg2")

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "aggregate sensor cycle")
}

func TestValidateAggregateUnknownReference(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors = append(config.Sensors, SensorConfig{
		ID:  "agg",
		Min: 40, Max: 70,
		Aggregate: &AggregateSensorConfig{Sensors: []string{"nope"}},
	})
	config.Mappings[0].Sensors = append(config.Mappings[0].Sensors, "agg")

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "Sensor agg: aggregate references unknown sensor 'nope'")
}

func TestValidateAggregateSelfReference(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors = append(config.Sensors, SensorConfig{
		ID:  "agg",
		Min: 40, Max: 70,
		Aggregate: &AggregateSensorConfig{Sensors: []string{"agg"}},
	})
	config.Mappings[0].Sensors = append(config.Mappings[0].Sensors, "agg")

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "Sensor agg: aggregate references itself")
}

func TestValidateMappingEmptyFanList(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Mappings[0].Fans = nil

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "Mapping main: fan list is empty")
}

func TestValidateIntervalMissing(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Interval = 0

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "tick interval must be > 0")
}

func TestValidateFilterWindowInvalid(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors[0].Filters = []FilterConfig{
		{MovingMedian: &MovingMedianFilterConfig{Window: 0}},
	}

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "Sensor cpu: movingMedian window must be > 0")
}

func TestValidateFilterQuantileInvalid(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors[0].Filters = []FilterConfig{
		{MovingQuantile: &MovingQuantileFilterConfig{Quantile: 1.5, Window: 3}},
	}

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "Sensor cpu: movingQuantile quantile must be in (0, 1)")
}
