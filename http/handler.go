package http

import (
	"context"
	"io"
	"net/http"

	"otabridge/ota"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, params map[string]any) map[string]any
}

type Handler struct {
	dispatcher Dispatcher
}

// HandleRequest serves the single OTA endpoint. Business failures are
// reported inside the body; the transport status is always 200 JSON.
func (h Handler) HandleRequest(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	params, err := ota.DecodeParams(payload)
	if err != nil {
		logrus.WithError(err).Error("could not decode request body")
		return c.JSON(http.StatusOK, ota.MalformedPayload())
	}

	return c.JSON(http.StatusOK, h.dispatcher.Dispatch(c.Request().Context(), params))
}
