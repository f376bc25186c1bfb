package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/pipedeck/pkg/api/types/errors"
	"github.com/opst/pipedeck/pkg/history"
)

// GetHistoryHandler handles GET /api/history/:type .
func GetHistoryHandler(store history.Store, typeParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		entries, err := store.Entries(c.Request().Context(), c.Param(typeParam))
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if entries == nil {
			entries = []history.Entry{}
		}
		return c.JSON(http.StatusOK, entries)
	}
}

// PostHistoryHandler handles POST /api/history/:type .
//
// Body is an entry. Its type is replaced with one in the path.
func PostHistoryHandler(store history.Store, typeParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		e := history.Entry{}
		if err := (&echo.DefaultBinder{}).BindBody(c, &e); err != nil {
			return apierr.BadRequest("request body should be a json object of history entry", err)
		}
		e.Type = c.Param(typeParam)

		added, err := store.AddEntry(c.Request().Context(), e)
		if errors.Is(err, history.ErrInvalidEntry) {
			return apierr.BadRequest("history entry is invalid", err)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, added)
	}
}
