package sensors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSensor reports a fixed value, or an error if failing is set.
type fakeSensor struct {
	id      string
	value   float64
	failing bool
}

func (sensor *fakeSensor) GetId() string { return sensor.id }

func (sensor *fakeSensor) GetConfig() configuration.SensorConfig {
	return configuration.SensorConfig{ID: sensor.id}
}

func (sensor *fakeSensor) GetValue() (float64, error) {
	if sensor.failing {
		return 0, os.ErrDeadlineExceeded
	}
	return sensor.value, nil
}

func (sensor *fakeSensor) Bounds() (float64, float64) { return 0, 100 }

func registerFakeSensor(t *testing.T, id string, value float64, failing bool) {
	t.Helper()
	SensorMap.Set(id, &fakeSensor{id: id, value: value, failing: failing})
	t.Cleanup(func() { SensorMap.Remove(id) })
}

func writeSensorFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSensorGetValue(t *testing.T) {
	// GIVEN
	path := writeSensorFile(t, "temp1_input", "42000\n")
	sensor, err := NewFileSensor(configuration.SensorConfig{
		ID:   "cpu",
		Min:  40,
		Max:  70,
		File: &configuration.FileSensorConfig{Path: path},
	})
	require.NoError(t, err)

	// WHEN
	value, err := sensor.GetValue()

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 42.0, value)
}

func TestFileSensorGlobResolvesSingleMatch(t *testing.T) {
	// GIVEN
	path := writeSensorFile(t, "temp1_input", "36500")
	pattern := filepath.Join(filepath.Dir(path), "temp?_input")

	// WHEN
	sensor, err := NewFileSensor(configuration.SensorConfig{
		ID:   "cpu",
		File: &configuration.FileSensorConfig{Path: pattern},
	})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, path, sensor.FilePath)

	value, err := sensor.GetValue()
	require.NoError(t, err)
	assert.Equal(t, 36.5, value)
}

func TestFileSensorGlobRejectsMultipleMatches(t *testing.T) {
	// GIVEN
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "temp1_input"), []byte("1000"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "temp2_input"), []byte("2000"), 0o644))

	// WHEN
	_, err := NewFileSensor(configuration.SensorConfig{
		ID:   "cpu",
		File: &configuration.FileSensorConfig{Path: filepath.Join(dir, "temp?_input")},
	})

	// THEN
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected exactly one")
}

func TestFileSensorGlobRejectsNoMatch(t *testing.T) {
	// GIVEN
	dir := t.TempDir()

	// WHEN
	_, err := NewFileSensor(configuration.SensorConfig{
		ID:   "cpu",
		File: &configuration.FileSensorConfig{Path: filepath.Join(dir, "temp?_input")},
	})

	// THEN
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no file matches")
}

func TestFileSensorReadFailure(t *testing.T) {
	// GIVEN
	sensor := &FileSensor{
		Config:   configuration.SensorConfig{ID: "cpu"},
		FilePath: filepath.Join(t.TempDir(), "gone"),
	}

	// WHEN
	_, err := sensor.GetValue()

	// THEN
	assert.Error(t, err)
}

func TestFileSensorBounds(t *testing.T) {
	// GIVEN
	path := writeSensorFile(t, "temp1_input", "50000")
	sensor, err := NewFileSensor(configuration.SensorConfig{
		ID:   "cpu",
		Min:  40,
		Max:  70,
		File: &configuration.FileSensorConfig{Path: path},
	})
	require.NoError(t, err)

	// WHEN
	min, max := sensor.Bounds()

	// THEN
	assert.Equal(t, 40.0, min)
	assert.Equal(t, 70.0, max)
}

func newCmdSensor(min float64, max float64) *CmdSensor {
	config := configuration.SensorConfig{
		ID:  "exhaust",
		Min: min,
		Max: max,
		Cmd: &configuration.CmdSensorConfig{Exec: "/usr/bin/temp-probe"},
	}
	return &CmdSensor{Config: config, min: min, max: max}
}

func TestCmdSensorParsesSingleLine(t *testing.T) {
	// GIVEN
	sensor := newCmdSensor(30, 60)

	// WHEN
	value, err := sensor.parseOutput("53.5\n")

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 53.5, value)

	min, max := sensor.Bounds()
	assert.Equal(t, 30.0, min)
	assert.Equal(t, 60.0, max)
}

func TestCmdSensorOutputOverridesBounds(t *testing.T) {
	// GIVEN
	sensor := newCmdSensor(30, 60)

	// WHEN
	value, err := sensor.parseOutput("53.5\n35\n75\n")

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 53.5, value)

	min, max := sensor.Bounds()
	assert.Equal(t, 35.0, min)
	assert.Equal(t, 75.0, max)
}

func TestCmdSensorIgnoresInvalidBoundsOverride(t *testing.T) {
	// GIVEN
	sensor := newCmdSensor(30, 60)

	// WHEN min >= max the reported bounds are unusable
	value, err := sensor.parseOutput("53.5\n80\n75\n")

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 53.5, value)

	min, max := sensor.Bounds()
	assert.Equal(t, 30.0, min)
	assert.Equal(t, 60.0, max)
}

func TestCmdSensorUnparsableOutput(t *testing.T) {
	// GIVEN
	sensor := newCmdSensor(30, 60)

	// WHEN
	_, err := sensor.parseOutput("n/a\n")

	// THEN
	assert.Error(t, err)
}

func TestAggregateSensorMax(t *testing.T) {
	// GIVEN
	registerFakeSensor(t, "cpu", 55, false)
	registerFakeSensor(t, "gpu", 62, false)
	sensor := &AggregateSensor{
		Config: configuration.SensorConfig{
			ID:        "hottest",
			Aggregate: &configuration.AggregateSensorConfig{Sensors: []string{"cpu", "gpu"}},
		},
	}

	// WHEN
	value, err := sensor.GetValue()

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 62.0, value)
}

func TestAggregateSensorMaxSkipsFailingInput(t *testing.T) {
	// GIVEN
	registerFakeSensor(t, "cpu", 55, false)
	registerFakeSensor(t, "gpu", 0, true)
	sensor := &AggregateSensor{
		Config: configuration.SensorConfig{
			ID:        "hottest",
			Aggregate: &configuration.AggregateSensorConfig{Sensors: []string{"cpu", "gpu"}},
		},
	}

	// WHEN
	value, err := sensor.GetValue()

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 55.0, value)
}

func TestAggregateSensorMaxAllFailing(t *testing.T) {
	// GIVEN
	registerFakeSensor(t, "cpu", 0, true)
	registerFakeSensor(t, "gpu", 0, true)
	sensor := &AggregateSensor{
		Config: configuration.SensorConfig{
			ID:        "hottest",
			Aggregate: &configuration.AggregateSensorConfig{Sensors: []string{"cpu", "gpu"}},
		},
	}

	// WHEN
	_, err := sensor.GetValue()

	// THEN
	assert.Error(t, err)
}

func TestAggregateSensorAvg(t *testing.T) {
	// GIVEN
	registerFakeSensor(t, "cpu", 50, false)
	registerFakeSensor(t, "gpu", 60, false)
	sensor := &AggregateSensor{
		Config: configuration.SensorConfig{
			ID: "mean",
			Aggregate: &configuration.AggregateSensorConfig{
				Sensors: []string{"cpu", "gpu"},
				Op:      configuration.AggregateOpAvg,
			},
		},
	}

	// WHEN
	value, err := sensor.GetValue()

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 55.0, value)
}

func TestAggregateSensorAvgFailsOnFailingInput(t *testing.T) {
	// GIVEN
	registerFakeSensor(t, "cpu", 50, false)
	registerFakeSensor(t, "gpu", 0, true)
	sensor := &AggregateSensor{
		Config: configuration.SensorConfig{
			ID: "mean",
			Aggregate: &configuration.AggregateSensorConfig{
				Sensors: []string{"cpu", "gpu"},
				Op:      configuration.AggregateOpAvg,
			},
		},
	}

	// WHEN
	_, err := sensor.GetValue()

	// THEN
	assert.Error(t, err)
}

func TestAggregateSensorUsesInjectedLookup(t *testing.T) {
	// GIVEN a lookup cache instead of registered sensors
	sensor := &AggregateSensor{
		Config: configuration.SensorConfig{
			ID:        "hottest",
			Aggregate: &configuration.AggregateSensorConfig{Sensors: []string{"cpu", "gpu"}},
		},
		Lookup: func(id string) (float64, error) {
			if id == "cpu" {
				return 48, nil
			}
			return 51, nil
		},
	}

	// WHEN
	value, err := sensor.GetValue()

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 51.0, value)
}

func TestNewSensorDispatch(t *testing.T) {
	// GIVEN
	path := writeSensorFile(t, "temp1_input", "42000")

	// WHEN
	fileSensor, err := NewSensor(configuration.SensorConfig{
		ID:   "cpu",
		File: &configuration.FileSensorConfig{Path: path},
	})
	require.NoError(t, err)
	cmdSensor, err := NewSensor(configuration.SensorConfig{
		ID:  "case",
		Cmd: &configuration.CmdSensorConfig{Exec: "/usr/bin/temp-probe"},
	})
	require.NoError(t, err)
	aggregateSensor, err := NewSensor(configuration.SensorConfig{
		ID:        "hottest",
		Aggregate: &configuration.AggregateSensorConfig{Sensors: []string{"cpu"}},
	})
	require.NoError(t, err)

	// THEN
	assert.IsType(t, &FileSensor{}, fileSensor)
	assert.IsType(t, &CmdSensor{}, cmdSensor)
	assert.IsType(t, &AggregateSensor{}, aggregateSensor)
}

func TestNewSensorRejectsEmptyConfig(t *testing.T) {
	// WHEN
	_, err := NewSensor(configuration.SensorConfig{ID: "mystery"})

	// THEN
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}
