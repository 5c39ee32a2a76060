package api

import (
	"net/http"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/snapshot"
	"github.com/labstack/echo/v4"
)

// fanView is the configured shape of a fan plus its part of the most
// recent tick, when one has been published.
type fanView struct {
	Id           string   `json:"id"`
	NeverStop    bool     `json:"neverStop"`
	PwmLineStart int      `json:"pwmLineStart"`
	PwmLineEnd   int      `json:"pwmLineEnd"`
	Speed        *float64 `json:"speed"`
	Pwm          *int     `json:"pwm"`
	Rpm          *int     `json:"rpm"`
	Stopped      bool     `json:"stopped"`
	Failing      bool     `json:"failing"`
}

func registerFanEndpoints(rest *echo.Echo) {
	group := rest.Group("/fan")

	group.GET("/", getFans)
	group.GET("/:"+urlParamId+"/", getFan)
}

// returns a list of all currently configured fans
func getFans(c echo.Context) error {
	return c.JSONPretty(http.StatusOK, fanViews(), indentationChar)
}

func getFan(c echo.Context) error {
	id := c.Param(urlParamId)
	for _, view := range fanViews() {
		if view.Id == id {
			return c.JSONPretty(http.StatusOK, view, indentationChar)
		}
	}
	return returnNotFound(c, id)
}

func fanViews() []fanView {
	statuses := map[string]snapshot.FanStatus{}
	if tick := snapshot.Current.Load(); tick != nil {
		for _, status := range tick.Fans {
			statuses[status.ID] = status
		}
	}

	result := []fanView{}
	for _, config := range configuration.CurrentConfig.Fans {
		view := fanView{
			Id:           config.ID,
			NeverStop:    config.NeverStop.Get(),
			PwmLineStart: config.LineStart(),
			PwmLineEnd:   config.LineEnd(),
		}
		if status, ok := statuses[config.ID]; ok {
			speed := status.Speed
			view.Speed = &speed
			pwm := status.Pwm
			view.Pwm = &pwm
			if status.HasRpm {
				rpm := status.Rpm
				view.Rpm = &rpm
			}
			view.Stopped = status.IsStopped
			view.Failing = status.IsFailing
		}
		result = append(result, view)
	}
	return result
}
