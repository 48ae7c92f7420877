// Package server exposes the timeline over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/harrisonrobin/taskline/pkg/config"
	"github.com/harrisonrobin/taskline/pkg/model"
	"github.com/harrisonrobin/taskline/pkg/timeline"
	"github.com/harrisonrobin/taskline/pkg/workspace"
)

const (
	DefaultView        = timeline.ViewDetailed
	DefaultGranularity = "monthly"
)

// Refresher re-fetches all tasks from the remote workspace.
type Refresher interface {
	FetchAllTasks(ctx context.Context) (*workspace.Result, error)
}

// Deps are the collaborators the handlers use. Refresher may be nil, in which
// case POST /api/refresh is not registered.
type Deps struct {
	Store     RecordStore
	Refresher Refresher
	Log       zerolog.Logger
}

// New builds the echo instance with middleware and routes.
func New(cfg config.ServerConfig, deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogger(deps.Log))
	if cfg.Username != "" {
		e.Use(middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
			Skipper: func(c echo.Context) bool { return c.Path() == "/healthz" },
			Validator: func(user, pass string, _ echo.Context) (bool, error) {
				okUser := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.Username)) == 1
				okPass := subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.Password)) == 1
				return okUser && okPass, nil
			},
			Realm: "taskline",
		}))
	}

	Register(e, deps)
	return e
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, deps Deps) {
	e.GET("/api/timeline", getTimeline(deps.Store))
	e.GET("/api/options", getOptions(deps.Store))
	if deps.Refresher != nil {
		e.POST("/api/refresh", postRefresh(deps.Store, deps.Refresher, deps.Log))
	}
	e.GET("/healthz", healthz)
}

type timelineResponse struct {
	View        timeline.ViewMode   `json:"view"`
	Granularity string              `json:"granularity"`
	Rows        []model.TimelineRow `json:"rows"`
	Ticks       timeline.TickConfig `json:"ticks"`
}

type refreshResponse struct {
	Records int      `json:"records"`
	Skipped int      `json:"skipped"`
	Skips   []string `json:"skips,omitempty"`
}

func healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func getTimeline(store RecordStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		view := DefaultView
		if v := c.QueryParam("view"); v != "" {
			parsed, err := timeline.ParseViewMode(v)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			view = parsed
		}
		granularity := c.QueryParam("granularity")
		if granularity == "" {
			granularity = DefaultGranularity
		}

		records, err := store.Load()
		if err != nil {
			c.Logger().Error(err)
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to load records")
		}

		params := c.QueryParams()
		sel := timeline.Selection{
			Assignees:  params["assignee"],
			Priorities: params["priority"],
			Statuses:   params["status"],
		}
		rows := timeline.ApplyFilters(timeline.Build(records, view), sel)
		if rows == nil {
			rows = []model.TimelineRow{}
		}

		return c.JSON(http.StatusOK, timelineResponse{
			View:        view,
			Granularity: granularity,
			Rows:        rows,
			Ticks:       timeline.ResolveGranularity(granularity),
		})
	}
}

func getOptions(store RecordStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		records, err := store.Load()
		if err != nil {
			c.Logger().Error(err)
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to load records")
		}
		return c.JSON(http.StatusOK, timeline.Options(records))
	}
}

func postRefresh(store RecordStore, refresher Refresher, log zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		res, err := refresher.FetchAllTasks(ctx)
		if err != nil {
			log.Error().Err(err).Msg("refresh failed")
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		resp := refreshResponse{Records: len(res.Records), Skipped: len(res.Skipped)}
		for _, s := range res.Skipped {
			resp.Skips = append(resp.Skips, s.String())
		}
		// Every branch failed; the stored records stay in place.
		if len(res.Records) == 0 && len(res.Skipped) > 0 {
			log.Error().Int("skipped", resp.Skipped).Msg("refresh fetched no tasks")
			return c.JSON(http.StatusBadGateway, resp)
		}
		if err := store.Save(res.Records); err != nil {
			log.Error().Err(err).Msg("failed to save records")
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to save records")
		}

		log.Info().Int("records", resp.Records).Int("skipped", resp.Skipped).Msg("records refreshed")
		return c.JSON(http.StatusOK, resp)
	}
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			log.Debug().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("elapsed", time.Since(start)).
				Msg("request")
			return nil
		}
	}
}
