package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/pipedeck/pkg/api/types/errors"
	apitasks "github.com/opst/pipedeck/pkg/api/types/tasks"
	"github.com/opst/pipedeck/pkg/application"
	"github.com/opst/pipedeck/pkg/tasks"
	"github.com/opst/pipedeck/pkg/utils/promise"
)

// DeleteApplicationResponse is the body of DELETE /api/applications/:name .
//
// Deletion responds 200 even when the task failed. See Succeeded.
type DeleteApplicationResponse struct {
	Task      *apitasks.Task `json:"task,omitempty"`
	Succeeded bool           `json:"succeeded"`
	Error     string         `json:"error,omitempty"`
}

func bindAttributes(c echo.Context) (application.Attributes, error) {
	attrs := application.Attributes{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &attrs); err != nil {
		return nil, apierr.BadRequest("request body should be a json object of application attributes", err)
	}
	return attrs, nil
}

// respondTask awaits p, and responds the task.
//
// Failures are responded as 502 Bad Gateway, since the task runs in the orchestrator.
func respondTask(c echo.Context, ctx context.Context, p promise.Promise[apitasks.Task]) error {
	task, err := p.Await(ctx)
	if err != nil {
		return taskError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func taskError(err error) *echo.HTTPError {
	if failed := tasks.FailedTask(err); failed != nil {
		return apierr.BadGateway(
			"task failed", err,
			apierr.WithAdvice("task "+failed.Id+" is "+string(failed.Status)+". see the orchestrator for details."),
		)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apierr.GatewayTimeout("task may be still running. see the orchestrator.", err)
	}
	if errors.Is(err, tasks.ErrInvalidRequest) {
		return apierr.BadRequest("application name is required", err)
	}
	return apierr.BadGateway("orchestrator error", err)
}

// CreateApplicationHandler handles POST /api/applications .
func CreateApplicationHandler(w *application.Writer, timeout time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		attrs, err := bindAttributes(c)
		if err != nil {
			return err
		}
		if attrs.Name() == "" {
			return apierr.BadRequest(`"name" is required`, nil)
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()
		return respondTask(c, ctx, w.CreateApplication(ctx, attrs))
	}
}

// UpdateApplicationHandler handles PUT /api/applications/:name .
//
// "name" in the body is replaced with one in the path.
func UpdateApplicationHandler(w *application.Writer, nameParam string, timeout time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		attrs, err := bindAttributes(c)
		if err != nil {
			return err
		}
		attrs["name"] = c.Param(nameParam)

		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()
		return respondTask(c, ctx, w.UpdateApplication(ctx, attrs))
	}
}

// DeleteApplicationHandler handles DELETE /api/applications/:name .
func DeleteApplicationHandler(w *application.Writer, nameParam string, timeout time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()

		// the outcome tells timeout also. Only the request itself can break the wait.
		outcome, err := w.DeleteApplication(
			ctx, application.Attributes{"name": c.Param(nameParam)},
		).Await(c.Request().Context())
		if err != nil {
			return err
		}

		resp := DeleteApplicationResponse{Task: outcome.Task, Succeeded: outcome.Succeeded()}
		if outcome.Err != nil {
			resp.Error = outcome.Err.Error()
		}
		return c.JSON(http.StatusOK, resp)
	}
}
