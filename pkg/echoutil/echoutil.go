package echoutil

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// LogHandlerFunc is a middleware logs requests and responses with echo's logger, in INFO level.
func LogHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		meth := c.Request().Method
		path := c.Request().URL
		begin := time.Now()
		c.Logger().Infof("< request @[%s] %s %s", begin.Format(time.RFC3339Nano), meth, path)

		defer func() {
			end := time.Now()
			c.Logger().Infof(
				"> response status = %d (for request @[%s] %s %s) in %v / error = %+v",
				c.Response().Status, begin.Format(time.RFC3339Nano), meth, path, end.Sub(begin), err,
			)
		}()

		return next(c)
	}
}

// SetLevel sets log level of echo's logger.
//
// loglevel is one of "debug", "info", "warn", "error" or "off" (case insensitive).
// Empty or unknown levels fall back to "warn".
func SetLevel(e *echo.Echo, loglevel string) {
	switch strings.ToLower(loglevel) {
	case "debug":
		e.Logger.SetLevel(log.DEBUG)
	case "info":
		e.Logger.SetLevel(log.INFO)
	case "warn", "":
		e.Logger.SetLevel(log.WARN)
	case "error":
		e.Logger.SetLevel(log.ERROR)
	case "off":
		e.Logger.SetLevel(log.OFF)
	default:
		e.Logger.SetLevel(log.WARN)
		e.Logger.Warnf("unknown loglevel: %s . fall-backed to warn", loglevel)
	}
}
