package app

import (
	"context"
	"fmt"

	"github.com/klokku/scheduler/internal/config"
	"github.com/klokku/scheduler/internal/database"
	"github.com/klokku/scheduler/internal/event_bus"
	"github.com/klokku/scheduler/internal/utils"
	"github.com/klokku/scheduler/pkg/event"
	"github.com/klokku/scheduler/pkg/report"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds the store, services and handlers of one invocation.
type Dependencies struct {
	Config   config.Application
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	EventRepository event.Repository
	EventStore      *event.Store
	EventHandler    *event.Handler

	ReportService *report.Service
	ReportHandler *report.Handler

	closers []func()
}

// BuildDependencies opens the configured backend, loads the store and wires
// services and handlers around it.
func BuildDependencies(ctx context.Context, cfg config.Application, clock utils.Clock) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg, Clock: clock}

	repo, err := deps.openRepository(ctx)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.EventRepository = repo

	deps.EventBus = event_bus.NewEventBus()
	subscribeAuditLog(deps.EventBus)

	deps.EventStore, err = event.NewStore(ctx, deps.EventRepository, event.WithEventBus(deps.EventBus))
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.EventHandler = event.NewHandler(deps.EventStore)

	renderer, err := report.RendererFor(cfg.Report.Format)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.ReportService = report.NewService(deps.EventStore, deps.Clock, cfg.Report.Dir, renderer)
	deps.ReportHandler = report.NewHandler(deps.ReportService)

	return deps, nil
}

func (d *Dependencies) openRepository(ctx context.Context) (event.Repository, error) {
	switch d.Config.Storage.Backend {
	case "", config.BackendFile:
		log.Debugf("Using events file %s", d.Config.Storage.File)
		return event.NewFileRepository(d.Config.Storage.File), nil
	case config.BackendPostgres:
		if err := database.Migrate(d.Config.Database); err != nil {
			return nil, err
		}
		pool, err := database.Open(ctx, d.Config.Database)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, pool.Close)
		return event.NewPostgresRepository(pool), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", d.Config.Storage.Backend)
	}
}

// Close releases backend connections.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

func subscribeAuditLog(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped(bus, event_bus.EventCreatedType, func(e event_bus.EventT[event_bus.EventCreated]) error {
		log.WithFields(log.Fields{
			"key":      e.Data.Key,
			"category": e.Data.Category,
			"duration": e.Data.Duration,
		}).Debugf("Event %q created", e.Data.Name)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.EventUpdatedType, func(e event_bus.EventT[event_bus.EventUpdated]) error {
		log.WithFields(log.Fields{
			"previousKey": e.Data.PreviousKey,
			"key":         e.Data.Key,
			"category":    e.Data.Category,
			"duration":    e.Data.Duration,
		}).Debugf("Event %q updated", e.Data.Name)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.EventDeletedType, func(e event_bus.EventT[event_bus.EventDeleted]) error {
		log.WithField("key", e.Data.Key).Debug("Event deleted")
		return nil
	})
}
