package api

import (
	"net/http"
	"time"

	"github.com/fanctld/fanctld/internal/snapshot"
	"github.com/labstack/echo/v4"
)

// tickView is one full control cycle in wire form.
type tickView struct {
	Time     time.Time     `json:"time"`
	Duration string        `json:"duration"`
	State    string        `json:"state"`
	Sensors  []sensorView  `json:"sensors"`
	Fans     []fanView     `json:"fans"`
	Arduinos []arduinoView `json:"arduinos"`
}

func registerSnapshotEndpoints(rest *echo.Echo) {
	rest.GET("/snapshot/", getSnapshot)
}

// returns the outcome of the most recent control cycle
func getSnapshot(c echo.Context) error {
	tick := snapshot.Current.Load()
	if tick == nil {
		return c.JSONPretty(http.StatusServiceUnavailable, &Result{
			Name:    "Not ready",
			Message: "No control cycle has completed yet",
		}, indentationChar)
	}

	return c.JSONPretty(http.StatusOK, &tickView{
		Time:     tick.Time,
		Duration: tick.Duration.String(),
		State:    tick.State.String(),
		Sensors:  sensorViews(),
		Fans:     fanViews(),
		Arduinos: arduinoViews(),
	}, indentationChar)
}
