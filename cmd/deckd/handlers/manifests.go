package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/pipedeck/pkg/api/types/errors"
	"github.com/opst/pipedeck/pkg/manifest"
)

type DeleteManifestRequest struct {
	Application        string  `json:"application"`
	Verified           bool    `json:"verified"`
	Reason             *string `json:"reason"`
	Cascading          *bool   `json:"cascading"`
	GracePeriodSeconds *int    `json:"gracePeriodSeconds"`
}

// ManifestParams are names of path parameters locating a manifest.
type ManifestParams struct {
	Account   string
	Namespace string
	Kind      string
	Name      string
}

// DeleteManifestHandler handles DELETE /api/manifests/:account/:namespace/:kind/:name .
//
// Deletion is cascading unless "cascading": false is passed.
func DeleteManifestHandler(w *manifest.Writer, params ManifestParams, timeout time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		coords, err := manifest.ParseCoordinates(
			c.Param(params.Account), c.Param(params.Namespace),
			c.Param(params.Kind), c.Param(params.Name),
		)
		if err != nil {
			return apierr.BadRequest("manifest is not specified correctly", err)
		}

		req := DeleteManifestRequest{}
		if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
			return apierr.BadRequest("request body should be a json object", err)
		}
		if req.Application == "" {
			return apierr.BadRequest(`"application" is required`, nil)
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()

		dialog := manifest.NewDeleteDialog(
			coords, w, req.Application,
			manifest.WithDialogLogger(echoLogger(c)),
		)
		dialog.Command.Reason = req.Reason
		dialog.Command.Options.GracePeriodSeconds = req.GracePeriodSeconds
		if req.Cascading != nil {
			dialog.Command.Options.Cascading = *req.Cascading
		}
		dialog.Verification.Verified = req.Verified

		if err := dialog.Delete(ctx); err != nil {
			return apierr.BadRequest(`deletion should be verified with "verified": true`, err)
		}

		task, err := dialog.Monitor().Wait(ctx)
		if err != nil {
			return taskError(err)
		}
		return c.JSON(http.StatusOK, task)
	}
}
