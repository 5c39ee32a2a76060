package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/snapshot"
	"github.com/fanctld/fanctld/internal/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, path string) *httptest.ResponseRecorder {
	rest := CreateRestService()
	request := httptest.NewRequest(http.MethodGet, path, nil)
	recorder := httptest.NewRecorder()
	rest.ServeHTTP(recorder, request)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	var result T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	return result
}

func setupTestConfig() {
	panicTemp := 80.0
	configuration.CurrentConfig = configuration.Configuration{
		Sensors: []configuration.SensorConfig{
			{ID: "cpu", Min: 50, Max: 65, Panic: &panicTemp},
			{ID: "hdd", Min: 35, Max: 48},
		},
		Fans: []configuration.FanConfig{
			{ID: "intake"},
		},
		Mappings: []configuration.MappingConfig{
			{
				ID:      "case",
				Fans:    []configuration.MappingFanConfig{{Fan: "intake", Modifier: 1.0}},
				Sensors: []string{"cpu"},
			},
		},
		Arduinos: []configuration.ArduinoConfig{
			{ID: "mcu0", SerialUrl: "/dev/ttyACM0"},
		},
	}
}

func publishTestTick() {
	snapshot.Current.Publish(&snapshot.Tick{
		Time:     time.Now(),
		Duration: 42 * time.Millisecond,
		State:    trigger.StateNormal,
		Sensors: []snapshot.SensorReading{
			{ID: "cpu", Value: 57.5, Raw: 58, Min: 50, Max: 65},
			{ID: "hdd", Value: math.NaN(), Raw: math.NaN(), Min: 35, Max: 48, Failing: true},
		},
		Fans: []snapshot.FanStatus{
			{ID: "intake", Speed: 0.5, Pwm: 170, Rpm: 1200, HasRpm: true, LineStart: 100, LineEnd: 240},
		},
		Boards: []snapshot.BoardStatus{
			{ID: "mcu0", Connected: true, StatusAge: 1.5},
		},
	})
}

func TestSnapshotEndpointBeforeFirstTick(t *testing.T) {
	// GIVEN no published tick yet
	setupTestConfig()

	// WHEN
	recorder := serve(t, "/snapshot/")

	// THEN
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestSensorsBeforeFirstTickServeConfiguration(t *testing.T) {
	// GIVEN
	setupTestConfig()

	// WHEN
	recorder := serve(t, "/sensor/")

	// THEN
	require.Equal(t, http.StatusOK, recorder.Code)
	views := decode[[]sensorView](t, recorder)
	require.Len(t, views, 2)
	assert.Equal(t, "cpu", views[0].Id)
	assert.Equal(t, 50.0, views[0].Min)
	assert.Nil(t, views[0].Value)
}

func TestAliveEndpoint(t *testing.T) {
	recorder := serve(t, "/alive/")

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestGetSensorsMergesSnapshot(t *testing.T) {
	// GIVEN
	setupTestConfig()
	publishTestTick()

	// WHEN
	recorder := serve(t, "/sensor/")

	// THEN
	require.Equal(t, http.StatusOK, recorder.Code)
	views := decode[[]sensorView](t, recorder)
	require.Len(t, views, 2)

	require.NotNil(t, views[0].Value)
	assert.Equal(t, 57.5, *views[0].Value)
	assert.False(t, views[0].Failing)

	// a failing reading is null, not NaN
	assert.Nil(t, views[1].Value)
	assert.True(t, views[1].Failing)
}

func TestGetSingleSensor(t *testing.T) {
	// GIVEN
	setupTestConfig()
	publishTestTick()

	// WHEN
	recorder := serve(t, "/sensor/cpu/")

	// THEN
	require.Equal(t, http.StatusOK, recorder.Code)
	view := decode[sensorView](t, recorder)
	assert.Equal(t, "cpu", view.Id)
}

func TestGetUnknownSensorReturnsNotFound(t *testing.T) {
	// GIVEN
	setupTestConfig()

	// WHEN
	recorder := serve(t, "/sensor/mystery/")

	// THEN
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestGetFansMergesSnapshot(t *testing.T) {
	// GIVEN
	setupTestConfig()
	publishTestTick()

	// WHEN
	recorder := serve(t, "/fan/")

	// THEN
	require.Equal(t, http.StatusOK, recorder.Code)
	views := decode[[]fanView](t, recorder)
	require.Len(t, views, 1)

	view := views[0]
	assert.Equal(t, "intake", view.Id)
	assert.True(t, view.NeverStop)
	require.NotNil(t, view.Pwm)
	assert.Equal(t, 170, *view.Pwm)
	require.NotNil(t, view.Rpm)
	assert.Equal(t, 1200, *view.Rpm)
}

func TestGetMapping(t *testing.T) {
	// GIVEN
	setupTestConfig()

	// WHEN
	recorder := serve(t, "/mapping/case/")

	// THEN
	require.Equal(t, http.StatusOK, recorder.Code)
	view := decode[configuration.MappingConfig](t, recorder)
	assert.Equal(t, []string{"cpu"}, view.Sensors)
}

func TestGetArduinos(t *testing.T) {
	// GIVEN
	setupTestConfig()
	publishTestTick()

	// WHEN
	recorder := serve(t, "/arduino/")

	// THEN
	require.Equal(t, http.StatusOK, recorder.Code)
	views := decode[[]arduinoView](t, recorder)
	require.Len(t, views, 1)
	assert.True(t, views[0].Connected)
	require.NotNil(t, views[0].StatusAge)
	assert.Equal(t, 1.5, *views[0].StatusAge)
}

func TestSnapshotEndpoint(t *testing.T) {
	// GIVEN
	setupTestConfig()
	publishTestTick()

	// WHEN
	recorder := serve(t, "/snapshot/")

	// THEN
	require.Equal(t, http.StatusOK, recorder.Code)
	view := decode[tickView](t, recorder)
	assert.Equal(t, "normal", view.State)
	assert.Len(t, view.Sensors, 2)
	assert.Len(t, view.Fans, 1)
	assert.Len(t, view.Arduinos, 1)
}
