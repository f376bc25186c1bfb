package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/pipedeck/pkg/api/types/errors"
	"github.com/opst/pipedeck/pkg/application"
	"github.com/opst/pipedeck/pkg/executions/filter"
	"github.com/opst/pipedeck/pkg/executions/groups"
	"github.com/opst/pipedeck/pkg/rest"
	"github.com/opst/pipedeck/pkg/state"
)

const (
	// StateExecutions is the navigation state of the execution list.
	StateExecutions = "executions"

	// StateExecutionDetails is the navigation state showing details of an execution.
	StateExecutionDetails = "executions.execution"
)

// criteriaFromQuery reads filter criteria from query parameters.
//
//	?pipeline=build&pipeline=deploy&status=RUNNING,TERMINAL&groupBy=none
func criteriaFromQuery(c echo.Context) (filter.Criteria, error) {
	q := c.QueryParams()
	groupBy, err := filter.ParseGroupBy(q.Get("groupBy"))
	if err != nil {
		return filter.Criteria{}, err
	}
	return filter.Criteria{
		Pipelines: splitQuery(q["pipeline"]),
		Statuses:  splitQuery(q["status"]),
		GroupBy:   groupBy,
	}, nil
}

func splitQuery(values []string) []string {
	ret := []string{}
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				ret = append(ret, s)
			}
		}
	}
	return ret
}

// newGroupsService sets up filtering of executions of app.
//
// Groups are rebuilt on each refresh of app. Call the returned func to stop it.
func newGroupsService(app *application.Application, criteria filter.Criteria) (*filter.Service, func()) {
	service := filter.NewService(filter.NewFilterModel())
	service.SetCriteria(criteria)
	unsubscribe := app.Executions.OnRefresh(func() {
		service.UpdateExecutionGroups(app)
	})
	return service, unsubscribe
}

// GetExecutionGroupsHandler handles GET /api/applications/:name/executions/groups .
func GetExecutionGroupsHandler(client rest.Client, nameParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		criteria, err := criteriaFromQuery(c)
		if err != nil {
			return apierr.BadRequest(`"groupBy" should be "name" or "none"`, err)
		}

		app := application.New(c.Param(nameParam), client, echoLogger(c))
		service, stop := newGroupsService(app, criteria)
		defer stop()

		if err := app.Executions.Refresh(c.Request().Context()); err != nil {
			return apierr.BadGateway("cannot get executions from orchestrator", err)
		}

		view := groups.New(app, service, state.NewRouter(StateExecutions), func(groups.State) {})
		defer view.Close()
		return c.JSON(http.StatusOK, view.State())
	}
}

// StreamExecutionGroupsHandler handles GET /api/applications/:name/executions/groups/stream .
//
// It responds Server-Sent Events. Each event is
//
//	event: groups
//	data: {"groups": [...], "showingDetails": false}
//
// and sent each time executions are polled or the details are toggled.
// Pass "?execution=ID" to open details of the execution.
func StreamExecutionGroupsHandler(client rest.Client, nameParam string, interval time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		criteria, err := criteriaFromQuery(c)
		if err != nil {
			return apierr.BadRequest(`"groupBy" should be "name" or "none"`, err)
		}

		ctx, cancel := context.WithCancel(c.Request().Context())
		defer cancel()

		logger := echoLogger(c)
		app := application.New(c.Param(nameParam), client, logger)
		service, stop := newGroupsService(app, criteria)
		defer stop()

		router := state.NewRouter(StateExecutions)
		if c.QueryParam("execution") != "" {
			router.Go(StateExecutionDetails)
		}

		// keeps only the latest state not sent yet.
		rendered := make(chan groups.State, 1)
		view := groups.New(app, service, router, func(s groups.State) {
			select {
			case <-rendered:
			default:
			}
			rendered <- s
		})
		defer view.Close()

		go app.Executions.Poll(ctx, interval)

		resp := c.Response()
		resp.Header().Set(echo.HeaderContentType, "text/event-stream")
		resp.Header().Set(echo.HeaderCacheControl, "no-cache")
		resp.Header().Set(echo.HeaderConnection, "keep-alive")
		resp.WriteHeader(http.StatusOK)
		resp.Flush()

		for {
			select {
			case <-ctx.Done():
				return nil
			case s := <-rendered:
				if err := writeEvent(resp, "groups", s); err != nil {
					logger.Printf("stream closed: %s", err)
					return nil
				}
			}
		}
	}
}

func writeEvent(resp *echo.Response, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	resp.Flush()
	return nil
}
