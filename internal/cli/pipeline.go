package cli

import (
	"net/http"

	"github.com/stwalsh4118/projectmap/internal/client"
	"github.com/stwalsh4118/projectmap/internal/clock"
	"github.com/stwalsh4118/projectmap/internal/config"
	"github.com/stwalsh4118/projectmap/internal/filter"
	"github.com/stwalsh4118/projectmap/internal/geo"
	"github.com/stwalsh4118/projectmap/internal/input"
	"github.com/stwalsh4118/projectmap/internal/logger"
	"github.com/stwalsh4118/projectmap/internal/mapview"
	"github.com/stwalsh4118/projectmap/internal/reconcile"
	"github.com/stwalsh4118/projectmap/internal/tui"
	"github.com/stwalsh4118/projectmap/internal/views"
)

// DefaultCenter is the view center until a location is loaded.
var DefaultCenter = geo.Point{Lat: 13.7440357, Lng: 100.5486963}

// DefaultZoom is the initial map zoom level.
const DefaultZoom = 15

// pipeline is the wired client-side stack.
type pipeline struct {
	client  *client.Client
	store   *filter.Store
	session *tui.Session
}

func newPipeline(cfg *config.ClientConfig, defaults filter.Defaults, sched clock.Scheduler, log *logger.Logger) *pipeline {
	c := client.New(cfg.ServerURL, cfg.ResultLimit,
		client.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		client.WithLogger(log.WithComponent("client")),
	)
	store := filter.NewStore(defaults)
	canvas := mapview.NewCanvas(DefaultCenter, DefaultZoom)
	engine := reconcile.New(canvas, c, store, DefaultCenter, log)

	session := &tui.Session{
		Engine:      engine,
		Canvas:      canvas,
		Controller:  input.NewController(store, engine, c, sched, cfg.Debounce, log),
		List:        views.NewListView(engine, sched),
		Summary:     views.NewSummaryView(),
		Sidebar:     views.NewSidebarListView(engine),
		Suggestions: views.NewSuggestionView(engine),
	}
	engine.AddView(session.List)
	engine.AddView(session.Summary)
	engine.AddView(session.Sidebar)
	engine.AddView(session.Suggestions)

	return &pipeline{client: c, store: store, session: session}
}

func configDefaults(cfg *config.ClientConfig) filter.Defaults {
	return filter.Defaults{
		LocationID:        cfg.DefaultLocationID,
		PropertyTypeIDs:   cfg.DefaultPropertyTypes,
		BuildingStatusIDs: cfg.DefaultBuildingStatus,
	}
}
