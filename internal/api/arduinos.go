package api

import (
	"net/http"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/snapshot"
	"github.com/labstack/echo/v4"
)

// arduinoView is the configured shape of a board plus its part of the
// most recent tick, when one has been published.
type arduinoView struct {
	Id        string   `json:"id"`
	SerialUrl string   `json:"serialUrl"`
	BaudRate  int      `json:"baudRate"`
	Connected bool     `json:"connected"`
	StatusAge *float64 `json:"statusAge"`
}

func registerArduinoEndpoints(rest *echo.Echo) {
	group := rest.Group("/arduino")

	group.GET("/", getArduinos)
	group.GET("/:"+urlParamId+"/", getArduino)
}

// returns a list of all currently configured arduino boards
func getArduinos(c echo.Context) error {
	return c.JSONPretty(http.StatusOK, arduinoViews(), indentationChar)
}

func getArduino(c echo.Context) error {
	id := c.Param(urlParamId)
	for _, view := range arduinoViews() {
		if view.Id == id {
			return c.JSONPretty(http.StatusOK, view, indentationChar)
		}
	}
	return returnNotFound(c, id)
}

func arduinoViews() []arduinoView {
	statuses := map[string]snapshot.BoardStatus{}
	if tick := snapshot.Current.Load(); tick != nil {
		for _, status := range tick.Boards {
			statuses[status.ID] = status
		}
	}

	result := []arduinoView{}
	for _, config := range configuration.CurrentConfig.Arduinos {
		view := arduinoView{
			Id:        config.ID,
			SerialUrl: config.SerialUrl,
			BaudRate:  config.Baud(),
		}
		if status, ok := statuses[config.ID]; ok {
			view.Connected = status.Connected
			view.StatusAge = floatOrNil(status.StatusAge)
		}
		result = append(result, view)
	}
	return result
}
