package http

import (
	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"
)

const correlationHeader = "Correlation-ID"

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		correlationID := c.Request().Header.Get(correlationHeader)
		if correlationID == "" {
			correlationID = shortuuid.New()
		}
		c.Response().Header().Set(correlationHeader, correlationID)

		err := next(c)

		logger := logrus.WithFields(logrus.Fields{
			"correlation_id": correlationID,
			"path":           c.Request().URL.Path,
		})
		if err != nil {
			logger.WithError(err).Error("request handling error")
			return err
		}
		logger.Debug("handled request")

		return nil
	}
}
