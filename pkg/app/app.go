package app

import (
	"context"
	"time"

	"github.com/Blu3B0y/finsight/pkg/finsight"
	"github.com/Blu3B0y/finsight/pkg/msglog"
	"github.com/Blu3B0y/finsight/pkg/store"
	"github.com/Blu3B0y/finsight/pkg/telegram"
	"github.com/Blu3B0y/finsight/pkg/worker"

	"github.com/labstack/echo/v4"
	"github.com/vmkteam/appkit"
	"github.com/vmkteam/embedlog"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Server struct {
		Host    string
		Port    int
		IsDevel bool
	}
	Telegram struct {
		Token         string
		WebhookSecret string
		Debug         bool
	}
	Store struct {
		URL        string
		ServiceKey string
		Timeout    time.Duration
	}
	Database struct {
		Path string
	}
	Dashboard struct {
		URL string
	}
	Worker struct {
		Count     int
		QueueSize int
	}
}

type App struct {
	embedlog.Logger
	appName  string
	cfg      Config
	echo     *echo.Echo
	messages *msglog.Log
	pool     *worker.Pool
	tgBot    *telegram.Bot
}

func New(appName string, sl embedlog.Logger, cfg Config, messages *msglog.Log) (*App, error) {
	a := &App{
		appName:  appName,
		cfg:      cfg,
		echo:     appkit.NewEcho(),
		messages: messages,
		Logger:   sl,
	}

	a.pool = worker.NewPool(cfg.Worker.Count, cfg.Worker.QueueSize, sl)

	storeClient := store.NewClient(store.Config{
		BaseURL:    cfg.Store.URL,
		ServiceKey: cfg.Store.ServiceKey,
		Timeout:    cfg.Store.Timeout,
	}, sl)
	mgr := finsight.NewManager(store.NewRepo(storeClient), sl)

	if cfg.Telegram.Token != "" {
		tgBot, err := telegram.New(telegram.Config{
			Token:         cfg.Telegram.Token,
			WebhookSecret: cfg.Telegram.WebhookSecret,
			Debug:         cfg.Telegram.Debug,
			DashboardURL:  cfg.Dashboard.URL,
		}, mgr, messages, a.pool, sl)
		if err != nil {
			return nil, err
		}
		a.tgBot = tgBot
	}

	return a, nil
}

// Run is a function that runs application.
func (a *App) Run(ctx context.Context) error {
	a.registerMetrics()
	a.registerHandlers()
	a.registerDebugHandlers()
	a.registerMetadata()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.pool.Run(ctx)
	})

	if a.tgBot != nil {
		g.Go(func() error {
			return a.tgBot.Start(ctx)
		})
	}

	g.Go(func() error {
		return a.runHTTPServer(ctx, a.cfg.Server.Host, a.cfg.Server.Port)
	})

	return g.Wait()
}

// Shutdown is a function that gracefully stops HTTP server.
func (a *App) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.tgBot != nil {
		a.tgBot.Stop(ctx)
	}

	return a.echo.Shutdown(ctx)
}

// registerMetadata is a function that registers meta info from service.
func (a *App) registerMetadata() {
	services := []appkit.ServiceMetadata{}
	if a.tgBot != nil {
		// updates arrive over the webhook route, processing is async
		services = append(services, appkit.NewServiceMetadata("telegram-bot", appkit.MetadataServiceTypeAsync))
	}
	services = append(services, appkit.NewServiceMetadata("worker-pool", appkit.MetadataServiceTypeAsync))

	opts := appkit.MetadataOpts{
		HasPublicAPI:  false, // no public API, only the Telegram webhook
		HasPrivateAPI: false,
		DBs: []appkit.DBMetadata{
			appkit.NewDBMetadata(a.cfg.Database.Path, 1, false),
		},
		Services: services,
	}

	md := appkit.NewMetadataManager(opts)
	md.RegisterMetrics()

	a.echo.GET("/debug/metadata", md.Handler)
}
