package api

import (
	"net/http"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/snapshot"
	"github.com/labstack/echo/v4"
)

// sensorView is the configured shape of a sensor plus its part of the
// most recent tick, when one has been published.
type sensorView struct {
	Id          string   `json:"id"`
	Min         float64  `json:"min"`
	Max         float64  `json:"max"`
	Panic       *float64 `json:"panic,omitempty"`
	Value       *float64 `json:"value"`
	Raw         *float64 `json:"raw"`
	Failing     bool     `json:"failing"`
	IsPanic     bool     `json:"isPanic"`
	IsThreshold bool     `json:"isThreshold"`
}

func registerSensorEndpoints(rest *echo.Echo) {
	group := rest.Group("/sensor")

	group.GET("/", getSensors)
	group.GET("/:"+urlParamId+"/", getSensor)
}

// returns a list of all currently configured sensors
func getSensors(c echo.Context) error {
	return c.JSONPretty(http.StatusOK, sensorViews(), indentationChar)
}

func getSensor(c echo.Context) error {
	id := c.Param(urlParamId)
	for _, view := range sensorViews() {
		if view.Id == id {
			return c.JSONPretty(http.StatusOK, view, indentationChar)
		}
	}
	return returnNotFound(c, id)
}

func sensorViews() []sensorView {
	readings := map[string]snapshot.SensorReading{}
	if tick := snapshot.Current.Load(); tick != nil {
		for _, reading := range tick.Sensors {
			readings[reading.ID] = reading
		}
	}

	result := []sensorView{}
	for _, config := range configuration.CurrentConfig.Sensors {
		view := sensorView{
			Id:    config.ID,
			Min:   config.Min,
			Max:   config.Max,
			Panic: config.Panic,
		}
		if reading, ok := readings[config.ID]; ok {
			// the tick carries the effective bounds, which may differ
			// from the configured ones for cmd sensors
			view.Min = reading.Min
			view.Max = reading.Max
			view.Value = floatOrNil(reading.Value)
			view.Raw = floatOrNil(reading.Raw)
			view.Failing = reading.Failing
			view.IsPanic = reading.IsPanic
			view.IsThreshold = reading.IsThreshold
		}
		result = append(result, view)
	}
	return result
}
