package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/ordering"
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/phrazzld/taskboard-api/internal/realtime"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/store"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// stores groups the persistence layer.
type stores struct {
	users    store.UserStore
	projects store.ProjectStore
	tasks    store.TaskStore
}

// services groups everything the router needs.
type services struct {
	auth          auth.Service
	jwt           auth.JWTService
	tasks         service.TaskService
	projects      service.ProjectService
	users         service.UserService
	subscriptions service.SubscriptionService
}

// application holds the wired dependencies of a running server.
type application struct {
	config   *config.Config
	logger   *slog.Logger
	db       *sql.DB
	stores   stores
	services services
	hasher   auth.PasswordHasher
	hub      *realtime.Hub
	tracer   *sdktrace.TracerProvider
	cleanups []func(context.Context) error
}

// newApplication wires stores, services and the realtime hub. When a Redis
// URL is configured the hub relays events through Redis and the subscriber
// runs until ctx is cancelled.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		stores: stores{
			users:    postgres.NewPostgresUserStore(db, logger),
			projects: postgres.NewPostgresProjectStore(db, logger),
			tasks:    postgres.NewPostgresTaskStore(db, logger),
		},
		hub:    realtime.NewHub(logger),
		tracer: newTracerProvider(),
	}
	app.cleanups = append(app.cleanups, app.tracer.Shutdown)

	if cfg.Realtime.RedisURL != "" {
		if err := app.startRelay(ctx); err != nil {
			app.cleanup()
			return nil, err
		}
	}

	bcrypt := auth.NewBcrypt(cfg.Auth.BCryptCost)
	app.hasher = bcrypt
	svcs, err := newServices(cfg.Auth, app.stores, app.hub, bcrypt, logger)
	if err != nil {
		app.cleanup()
		return nil, err
	}
	app.services = *svcs
	return app, nil
}

func (app *application) startRelay(ctx context.Context) error {
	client, err := realtime.NewRedisClient(app.config.Realtime.RedisURL)
	if err != nil {
		return err
	}
	relay, err := realtime.NewRedisRelay(client, app.config.Realtime.Channel, app.logger)
	if err != nil {
		_ = client.Close()
		return err
	}
	app.hub.UseRelay(relay)
	go relay.Run(ctx, app.hub.DeliverEncoded)

	app.cleanups = append(app.cleanups, func(context.Context) error { return client.Close() })
	app.logger.Info("realtime relay enabled", slog.String("channel", app.config.Realtime.Channel))
	return nil
}

// newServices builds the service layer over s. bcrypt both hashes and
// verifies passwords.
func newServices(
	cfg config.AuthConfig,
	s stores,
	hub *realtime.Hub,
	bcrypt *auth.Bcrypt,
	logger *slog.Logger,
) (*services, error) {
	jwtService, err := auth.NewJWTService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create jwt service: %w", err)
	}
	engine, err := ordering.NewEngine(s.tasks, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create ordering engine: %w", err)
	}
	tasks, err := service.NewTaskService(s.tasks, s.projects, s.users, engine, hub, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}
	projects, err := service.NewProjectService(s.projects, s.tasks, s.users, hub, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create project service: %w", err)
	}
	users, err := service.NewUserService(s.users, s.projects, s.tasks, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}
	subscriptions, err := service.NewSubscriptionService(hub, s.projects, s.tasks, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription service: %w", err)
	}
	authService, err := auth.NewService(s.users, jwtService, bcrypt, bcrypt, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	return &services{
		auth:          authService,
		jwt:           jwtService,
		tasks:         tasks,
		projects:      projects,
		users:         users,
		subscriptions: subscriptions,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then releases resources.
func (app *application) Run(ctx context.Context) error {
	router := newRouter(routerDeps{
		services: app.services,
		hub:      app.hub,
		db:       app.db,
		tracer:   app.tracer,
		stream: realtime.StreamOptions{
			Keepalive: app.config.Realtime.Keepalive(),
			Buffer:    app.config.Realtime.SendBuffer,
		},
		logger: app.logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		// Requests inherit ctx so open event streams end on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	err := serve(ctx, server, app.config.Server.ShutdownTimeout(), app.logger)
	app.cleanup()
	return err
}

func (app *application) seed(ctx context.Context) error {
	defer app.cleanup()
	return seedData(ctx, app.stores, app.hasher, app.logger)
}

// cleanup runs registered cleanups in reverse order. Errors are logged.
func (app *application) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout())
	defer cancel()
	for i := len(app.cleanups) - 1; i >= 0; i-- {
		if err := app.cleanups[i](ctx); err != nil {
			app.logger.Error("cleanup failed", slog.String("error", err.Error()))
		}
	}
	app.cleanups = nil
}
