package api

import (
	"net/http"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/labstack/echo/v4"
	"github.com/qdm12/reprint"
)

func registerMappingEndpoints(rest *echo.Echo) {
	group := rest.Group("/mapping")

	group.GET("/", getMappings)
	group.GET("/:"+urlParamId+"/", getMapping)
}

// returns a list of all currently configured mappings
func getMappings(c echo.Context) error {
	data := reprint.This(configuration.CurrentConfig.Mappings)
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func getMapping(c echo.Context) error {
	id := c.Param(urlParamId)
	for _, mapping := range configuration.CurrentConfig.Mappings {
		if mapping.ID == id {
			return c.JSONPretty(http.StatusOK, mapping, indentationChar)
		}
	}
	return returnNotFound(c, id)
}
