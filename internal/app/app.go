// Package app is the composition root: it builds the storage backends,
// the Telegram bot, the alert dispatcher and the HTTP server, and runs
// them until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/vpasslabs/signalbot/core/config"
	"github.com/vpasslabs/signalbot/core/database"
	"github.com/vpasslabs/signalbot/core/logger"
	"github.com/vpasslabs/signalbot/core/telegram"
	"github.com/vpasslabs/signalbot/internal/acl"
	"github.com/vpasslabs/signalbot/internal/alertapi"
	"github.com/vpasslabs/signalbot/internal/dispatch"
	"github.com/vpasslabs/signalbot/internal/ephemeral"
	"github.com/vpasslabs/signalbot/internal/menu"
	"github.com/vpasslabs/signalbot/internal/store"
	"github.com/vpasslabs/signalbot/internal/topic"
)

// App owns every long-lived component of the bot process.
type App struct {
	cfg *coreconfig.Config

	bot       *tele.Bot
	transport *telegram.Transport

	store   store.Store
	acl     acl.List
	tracker *ephemeral.Tracker
	menu    *menu.Menu

	dispatcher *dispatch.Dispatcher
	alerts     *alertapi.Server

	db *sqlx.DB
}

// New wires the application from config. Nothing starts polling or
// listening until Run.
func New(ctx context.Context, cfg *coreconfig.Config) (*App, error) {
	a := &App{cfg: cfg}

	if err := a.buildStorage(ctx); err != nil {
		return nil, err
	}

	bot, err := telegram.NewBot(cfg)
	if err != nil {
		a.closeStorage()
		return nil, err
	}
	a.bot = bot
	a.transport = telegram.NewTransport(bot)
	a.tracker = ephemeral.NewTracker()

	catalog := topic.NewCatalog(catalogEntries(cfg.Topics))
	a.menu = menu.New(menu.Options{
		Store:   a.store,
		ACL:     a.acl,
		Tracker: a.tracker,
		Deleter: a.transport,
		Catalog: catalog,
		AdminID: cfg.Telegram.AdminID,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.dispatcher = dispatch.New(a.store, a.transport, dispatch.Options{
		Timeout: time.Duration(cfg.Telegram.DeliveryTimeoutSeconds) * time.Second,
		Markup:  menu.AlertMarkup,
		Tracker: a.tracker,
		Metrics: dispatch.NewMetrics(reg),
	})
	a.alerts = alertapi.New(cfg.AlertAPI, a.dispatcher, reg)

	a.bindBot()
	return a, nil
}

// Run starts the Telegram runtime and the alert HTTP server and blocks
// until either stops or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- a.alerts.Run(runCtx) }()
	go func() { errCh <- telegram.Run(runCtx, a.bot, a.cfg) }()

	err := <-errCh
	cancel()
	if second := <-errCh; err == nil {
		err = second
	}

	a.closeStorage()
	logger.Info(ctx, "app", "app.stopped")
	return err
}

func (a *App) buildStorage(ctx context.Context) error {
	switch a.cfg.Storage.Driver {
	case coreconfig.StorageDriverPostgres:
		db, err := database.Connect(ctx, a.cfg.Database)
		if err != nil {
			return err
		}
		if err := database.RunMigrations(ctx, a.cfg.Database, "migrations"); err != nil {
			_ = db.Close()
			return err
		}
		a.db = db
		a.store = store.NewPostgres(db)
		a.acl = acl.NewPostgres(db)
	default:
		st, err := store.NewFile(a.cfg.Storage.SubscribersPath)
		if err != nil {
			return fmt.Errorf("open subscriber store: %w", err)
		}
		al, err := acl.NewFile(a.cfg.Storage.AllowListPath)
		if err != nil {
			_ = st.Close()
			return fmt.Errorf("open allow-list: %w", err)
		}
		a.store = st
		a.acl = al
	}

	logger.Info(ctx, "app", "app.storage_ready",
		slog.String("driver", a.cfg.Storage.Driver),
	)
	return nil
}

func (a *App) closeStorage() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.acl != nil {
		_ = a.acl.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func catalogEntries(specs []coreconfig.TopicSpec) []topic.Entry {
	entries := make([]topic.Entry, 0, len(specs))
	for _, s := range specs {
		entries = append(entries, topic.Entry{
			Slug:  topic.Normalize(s.Slug),
			Title: s.Title,
		})
	}
	return entries
}
