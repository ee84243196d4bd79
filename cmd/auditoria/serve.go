package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	notificationsmod "github.com/auditoria/auditoria/modules/notifications"
	"github.com/auditoria/auditoria/modules/tasks"
	"github.com/auditoria/auditoria/pkg/clientip"
	"github.com/auditoria/auditoria/pkg/httpserver"
	"github.com/auditoria/auditoria/pkg/jwt"
	"github.com/auditoria/auditoria/pkg/kvstore"
	"github.com/auditoria/auditoria/pkg/logger"
	"github.com/auditoria/auditoria/pkg/notifications"
	"github.com/auditoria/auditoria/pkg/ratelimiter"
	"github.com/auditoria/auditoria/pkg/redis"
	"github.com/auditoria/auditoria/pkg/requestid"
	"github.com/auditoria/auditoria/pkg/taskrecords"
)

func newServeCommand() *cobra.Command {
	var addr string
	var warm bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServerConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}

			log := logger.NewFromConfig(cfg.Logger, logger.WithContextExtractors(
				requestid.LoggerExtractor(),
				clientip.LoggerExtractor(),
			))
			logger.SetAsDefault(log)

			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}

			srv := httpserver.NewFromConfig(cfg.HTTP,
				httpserver.WithLogger(log),
				httpserver.WithStopHook("notification dispatcher", a.drain),
				httpserver.WithStopHook("store", a.closeStore),
			)

			g, ctx := errgroup.WithContext(cmd.Context())
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			g.Go(func() error {
				defer cancel()
				return srv.Run(ctx, a.router)
			})
			if warm {
				g.Go(func() error {
					a.warmTasks(ctx)
					return nil
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides HTTP_ADDR)")
	cmd.Flags().BoolVar(&warm, "warm-cache", false, "Fetch the task-records dataset into the cache at startup")
	return cmd
}

// app holds the wired components of the server.
type app struct {
	cfg        serverConfig
	log        *slog.Logger
	store      kvstore.Store
	closer     func() error
	ready      func(context.Context) error
	dispatcher *notifications.Dispatcher
	engine     *notifications.Engine
	records    *taskrecords.Engine
	router     http.Handler
}

func newApp(cfg serverConfig, log *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, log: log}

	switch cfg.StoreBackend {
	case storeMemory:
		mem := kvstore.NewMemory()
		a.store, a.closer, a.ready = mem, mem.Close, mem.Ping
	default:
		handle := redis.NewHandle(cfg.Redis)
		a.store, a.closer, a.ready = redis.NewStore(handle), handle.Close, redis.Healthcheck(handle)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, a.release(context.Background()))
		}
	}()
	if cfg.KeyPrefix != "" {
		a.store = kvstore.WithPrefix(a.store, cfg.KeyPrefix)
	}

	storage, err := notifications.NewStorage(cfg.Notifications.Storage, a.store, cfg.Notifications.TTL)
	if err != nil {
		return nil, err
	}

	a.dispatcher = notifications.NewDispatcher(append(cfg.Notifications.DispatcherOptions(),
		notifications.WithDispatcherLogger(log))...)
	a.engine = notifications.NewEngine(storage, a.store,
		notifications.WithDispatcher(a.dispatcher),
		notifications.WithEngineLogger(log),
	)
	gateway := notifications.NewGateway(a.store,
		notifications.WithHeartbeat(cfg.Notifications.Heartbeat),
		notifications.WithGatewayLogger(log),
	)

	routeOpts := []notificationsmod.Option{notificationsmod.WithLogger(log)}
	if cfg.RateLimit.Enabled() {
		limiter, err := ratelimiter.NewWindow(a.store, cfg.RateLimit.Limit, cfg.RateLimit.Window)
		if err != nil {
			return nil, err
		}
		routeOpts = append(routeOpts, notificationsmod.WithWebhookLimiter(limiter))
	}
	if cfg.JWT.SigningKey != "" {
		tokens, err := jwt.NewFromConfig(cfg.JWT)
		if err != nil {
			return nil, err
		}
		routeOpts = append(routeOpts, notificationsmod.WithTokens(tokens))
	} else {
		log.Warn("JWT_SECRET is not set: every caller is anonymous and admin routes are closed")
	}

	a.records = taskrecords.NewEngine(a.store,
		taskrecords.NewHTTPFetcher(cfg.Tasks.UpstreamURL,
			taskrecords.WithBearerToken(cfg.Tasks.UpstreamToken),
			taskrecords.WithHTTPClient(&http.Client{
				Timeout:   cfg.Tasks.UpstreamTimeout,
				Transport: requestid.Transport{},
			}),
		),
		taskrecords.WithCacheKey(cfg.Tasks.CacheKey),
		taskrecords.WithCacheTTL(cfg.Tasks.CacheTTL),
		taskrecords.WithLogger(log),
	)

	r := chi.NewRouter()
	r.Use(requestid.Middleware, clientip.NewFromConfig(cfg.ClientIP).Middleware)
	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, a.ready))
	r.Mount("/notifications", notificationsmod.NewService(cfg.Routes, a.engine, gateway, routeOpts...).Handle())
	r.Mount("/tasks-records", tasks.NewService(a.records, tasks.WithLogger(log)).Handle())
	a.router = r

	return a, nil
}

// drain lets queued deliveries finish within the configured budget.
func (a *app) drain(ctx context.Context) error {
	if a.cfg.Notifications.DrainTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Notifications.DrainTimeout)
		defer cancel()
	}
	return a.dispatcher.Stop(ctx)
}

func (a *app) closeStore(context.Context) error {
	return a.closer()
}

// release undoes a partially built app.
func (a *app) release(ctx context.Context) error {
	var err error
	if a.dispatcher != nil {
		err = a.dispatcher.Stop(ctx)
	}
	return errors.Join(err, a.closer())
}

func (a *app) warmTasks(ctx context.Context) {
	entries, err := a.records.Dataset(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.log.LogAttrs(ctx, slog.LevelWarn, "task-records warm-up failed", logger.Error(err))
		}
		return
	}
	a.log.LogAttrs(ctx, slog.LevelInfo, "task-records cache warmed", slog.Int("entries", len(entries)))
}
