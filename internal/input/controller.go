// Package input turns user input into filter changes and queries.
//
// Dropdown and checkbox changes query immediately. Keyword input waits for
// a quiet period; each keystroke cancels the pending timer and starts a new
// one, so only the final text is searched.
package input

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stwalsh4118/projectmap/internal/client"
	"github.com/stwalsh4118/projectmap/internal/clock"
	"github.com/stwalsh4118/projectmap/internal/filter"
	"github.com/stwalsh4118/projectmap/internal/geo"
	"github.com/stwalsh4118/projectmap/internal/logger"
	"github.com/stwalsh4118/projectmap/internal/models"
	"github.com/stwalsh4118/projectmap/internal/textmatch"
)

// DefaultDebounce is the keyword quiet period.
const DefaultDebounce = 300 * time.Millisecond

// ErrUnknownOption is returned for ids not offered by a filter control.
var ErrUnknownOption = errors.New("unknown filter option")

// Engine is the part of the reconciliation engine the controller drives.
type Engine interface {
	Refresh(ctx context.Context) uint64
	SetViewCenter(p geo.Point)
}

// LookupSource provides the filter options.
type LookupSource interface {
	Locations(ctx context.Context) ([]models.LookupOption, error)
	PropertyTypes(ctx context.Context) ([]models.LookupOption, error)
	BuildingStatuses(ctx context.Context) ([]models.LookupOption, error)
}

// Controller wires filter controls to the filter store and the engine.
type Controller struct {
	mu        sync.Mutex
	ctx       context.Context
	store     *filter.Store
	engine    Engine
	lookups   LookupSource
	scheduler clock.Scheduler
	debounce  time.Duration
	log       *logger.Logger

	keywordTimer clock.Timer
	keywordGen   uint64
	keywordText  string

	locations         []models.LookupOption
	locationsDisabled bool

	propertyTypes    *MultiSelect
	buildingStatuses *MultiSelect
}

// NewController creates a controller. A negative debounce uses
// DefaultDebounce.
func NewController(store *filter.Store, engine Engine, lookups LookupSource, scheduler clock.Scheduler, debounce time.Duration, log *logger.Logger) *Controller {
	if debounce < 0 {
		debounce = DefaultDebounce
	}
	c := &Controller{
		ctx:               context.Background(),
		store:             store,
		engine:            engine,
		lookups:           lookups,
		scheduler:         scheduler,
		debounce:          debounce,
		log:               log.WithComponent("input"),
		locationsDisabled: true,
	}
	c.propertyTypes = newMultiSelect("Select Property Types", "types", func(ids []string) {
		c.store.SetPropertyTypes(ids)
		c.refresh("property_types")
	})
	c.buildingStatuses = newMultiSelect("Select Building Status", "statuses", func(ids []string) {
		c.store.SetBuildingStatuses(ids)
		c.refresh("building_status")
	})
	return c
}

// Init loads the filter options, centres the engine on the selected
// location and issues the first query. Lookup failures are logged and
// leave that control disabled. ctx is used for every query the controller
// issues afterwards.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	err := c.Load(ctx)

	criteria := c.store.Snapshot()
	if opt, ok := c.location(criteria.LocationID); ok {
		if center, ok := opt.Center(); ok {
			c.engine.SetViewCenter(center)
		}
	}
	c.refresh("init")
	return err
}

// Load fetches the three option lists. Each failure disables only its own
// control; the joined failures are returned.
func (c *Controller) Load(ctx context.Context) error {
	criteria := c.store.Snapshot()
	var errs []error

	locations, err := c.lookups.Locations(ctx)
	c.mu.Lock()
	if err != nil {
		c.locations = nil
		c.locationsDisabled = true
	} else {
		c.locations = locations
		c.locationsDisabled = len(locations) == 0
	}
	c.mu.Unlock()
	errs = append(errs, c.lookupFailed(err))

	types, err := c.lookups.PropertyTypes(ctx)
	if err != nil {
		c.propertyTypes.disable()
	} else {
		c.propertyTypes.load(types, criteria.PropertyTypeIDs)
	}
	errs = append(errs, c.lookupFailed(err))

	statuses, err := c.lookups.BuildingStatuses(ctx)
	if err != nil {
		c.buildingStatuses.disable()
	} else {
		c.buildingStatuses.load(statuses, criteria.BuildingStatusIDs)
	}
	errs = append(errs, c.lookupFailed(err))

	return errors.Join(errs...)
}

func (c *Controller) lookupFailed(err error) error {
	if err == nil {
		return nil
	}
	fields := map[string]interface{}{"error": err.Error()}
	var lf *client.LookupFailure
	if errors.As(err, &lf) {
		fields["lookup"] = lf.Lookup
	}
	c.log.Warn("Filter options unavailable, control disabled", fields)
	return err
}

// Locations returns the location options.
func (c *Controller) Locations() []models.LookupOption {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.LookupOption(nil), c.locations...)
}

// LocationsDisabled reports whether the location control has no options.
func (c *Controller) LocationsDisabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locationsDisabled
}

// PropertyTypes returns the property-type control.
func (c *Controller) PropertyTypes() *MultiSelect {
	return c.propertyTypes
}

// BuildingStatuses returns the building-status control.
func (c *Controller) BuildingStatuses() *MultiSelect {
	return c.buildingStatuses
}

func (c *Controller) location(id string) (models.LookupOption, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range c.locations {
		if o.Key() == id {
			return o, true
		}
	}
	return models.LookupOption{}, false
}

// SelectLocation filters by location, moves the view center to it and
// queries. An empty id removes the location filter and keeps the center.
func (c *Controller) SelectLocation(id string) error {
	if id == "" {
		c.store.SetLocation("")
		c.refresh("location_id")
		return nil
	}

	opt, ok := c.location(id)
	if !ok {
		return fmt.Errorf("%w: location %s", ErrUnknownOption, id)
	}
	c.store.SetLocation(id)
	if center, ok := opt.Center(); ok {
		c.engine.SetViewCenter(center)
	}
	c.refresh("location_id")
	return nil
}

// KeywordChanged records a keystroke. The keyword is applied after the
// debounce window passes without another keystroke, and only queries when
// the effective keyword changed.
func (c *Controller) KeywordChanged(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.keywordTimer != nil {
		c.keywordTimer.Stop()
	}
	c.keywordGen++
	gen := c.keywordGen
	c.keywordText = text
	c.keywordTimer = c.scheduler.AfterFunc(c.debounce, func() { c.keywordSettled(gen) })
}

func (c *Controller) keywordSettled(gen uint64) {
	c.mu.Lock()
	if gen != c.keywordGen {
		c.mu.Unlock()
		return
	}
	c.keywordTimer = nil
	text := c.keywordText
	c.mu.Unlock()

	before := c.store.Snapshot().EffectiveKeyword()
	c.store.SetKeyword(text)
	if textmatch.EffectiveKeyword(text) == before {
		return
	}
	c.refresh("keyword")
}

// PendingKeyword reports whether a keystroke is waiting out the debounce.
func (c *Controller) PendingKeyword() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keywordTimer != nil
}

// Reset restores the default filters, resyncs the controls and queries.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.keywordTimer != nil {
		c.keywordTimer.Stop()
		c.keywordTimer = nil
	}
	c.keywordGen++
	c.mu.Unlock()

	c.store.Reset()
	criteria := c.store.Snapshot()
	c.propertyTypes.load(c.propertyTypes.Options(), criteria.PropertyTypeIDs)
	c.buildingStatuses.load(c.buildingStatuses.Options(), criteria.BuildingStatusIDs)
	if opt, ok := c.location(criteria.LocationID); ok {
		if center, ok := opt.Center(); ok {
			c.engine.SetViewCenter(center)
		}
	}
	c.refresh("reset")
}

func (c *Controller) refresh(trigger string) {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	seq := c.engine.Refresh(ctx)
	c.log.Debug("Query issued", map[string]interface{}{
		"trigger": trigger,
		"seq":     seq,
	})
}
