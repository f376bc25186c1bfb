package handlers

import (
	"log"

	"github.com/labstack/echo/v4"
)

// echoLogger returns a logger writing into the output of echo's logger.
func echoLogger(c echo.Context) *log.Logger {
	return log.New(c.Logger().Output(), "[deckd] ", log.LstdFlags|log.Lmsgprefix)
}
