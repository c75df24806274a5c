package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/migtrack/internal/catalog"
	"github.com/desertthunder/migtrack/internal/hub"
	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/notify"
	"github.com/desertthunder/migtrack/internal/repositories"
	"github.com/desertthunder/migtrack/internal/server"
	"github.com/desertthunder/migtrack/internal/shared"
	"github.com/desertthunder/migtrack/internal/tracker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// publishFunc adapts a function to [tracker.Publisher].
type publishFunc func(models.Snapshot)

func (f publishFunc) Publish(s models.Snapshot) { f(s) }

// application is the wired tracker: store, notification workers, broadcast hub and HTTP routes.
type application struct {
	db         *sql.DB
	store      *tracker.Store
	dispatcher *notify.Dispatcher
	hub        *hub.Hub
	router     *server.BasicRouter
	logger     *log.Logger
}

// newApplication loads the catalog, opens the migrated database and wires every component.
//
// Nothing runs until [application.run] is called.
func newApplication(ctx context.Context, cfg *shared.Config, logger *log.Logger) (*application, error) {
	cat, err := catalog.LoadFile(cfg.Tracker.CatalogPath)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded", "path", cfg.Tracker.CatalogPath, "components", cat.Len())

	db, err := shared.OpenMigrated(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	events := repositories.NewEventRepository(db)
	senders := []notify.Sender{events}
	if cfg.Notifications.LogEvents {
		senders = append(senders, notify.NewLogSender(shared.WithLogger(logger, "sender", "log")))
	}
	for _, wh := range cfg.Notifications.Webhooks {
		senders = append(senders, notify.NewWebhookSender(wh, cfg.Notifications.RateLimit, nil))
	}

	dispatcher := notify.New(notify.Options{
		Workers:     cfg.Notifications.Workers,
		QueueSize:   cfg.Notifications.QueueSize,
		SendTimeout: cfg.Notifications.SendTimeout,
		Logger:      shared.WithLogger(logger, "module", "notify"),
	}, senders...)

	var h *hub.Hub
	store := tracker.New(cat,
		tracker.WithNotifier(dispatcher),
		tracker.WithPublisher(publishFunc(func(s models.Snapshot) { h.Publish(s) })),
		tracker.WithLogger(shared.WithLogger(logger, "module", "tracker")),
	)
	h = hub.New(store,
		hub.WithInterval(cfg.Tracker.HeartbeatInterval),
		hub.WithBuffer(cfg.Tracker.SubscriberBuffer),
		hub.WithLogger(shared.WithLogger(logger, "module", "hub")),
	)

	router := server.NewBasicRouter()
	router.Use(server.Recover(logger), server.Logging(logger), server.CORS())
	router.Handler(server.NewAPIHandler(store, server.APIOptions{
		Events:  events,
		Reports: repositories.NewReportRepository(db),
		File:    repositories.NewFileReportWriter(cfg.Report.OutputPath),
		Logger:  shared.WithLogger(logger, "module", "api"),
	}))
	router.Handler(server.NewWebSocketHandler(h, shared.WithLogger(logger, "module", "ws")))
	router.Handle("GET", "/metrics", promhttp.Handler())

	return &application{
		db:         db,
		store:      store,
		dispatcher: dispatcher,
		hub:        h,
		router:     router,
		logger:     logger,
	}, nil
}

// run serves addr until ctx is done, then drains notifications and closes the database.
func (a *application) run(ctx context.Context, addr string) error {
	defer a.db.Close()

	if err := a.dispatcher.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.hub.Run(gctx) })
	g.Go(func() error { return server.New(addr, a.router, a.logger).Run(gctx) })

	err := g.Wait()
	a.hub.Close()
	if cerr := a.dispatcher.Close(); cerr != nil && err == nil {
		err = cerr
	}

	stats := a.dispatcher.Stats()
	a.logger.Info("tracker stopped", "dispatched", stats.Dispatched, "failed", stats.Failed, "dropped", stats.Dropped)
	return err
}

// Serve runs the tracker until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if path := cmd.String("catalog"); path != "" {
		cfg.Tracker.CatalogPath = path
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(cfg.Log.Level))

	addr := cfg.Server.Addr()
	if v := cmd.String("addr"); v != "" {
		addr = v
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start tracker: %w", err)
	}
	return app.run(ctx, addr)
}
