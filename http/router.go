package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func NewHttpRouter(dispatcher Dispatcher) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(correlationMiddleware)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	handler := Handler{dispatcher: dispatcher}

	e.POST("/", handler.HandleRequest)

	return e
}
