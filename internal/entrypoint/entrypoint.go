package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/studyshelf/internal/auth"
	"github.com/mrlokans/studyshelf/internal/config"
	"github.com/mrlokans/studyshelf/internal/database"
	"github.com/mrlokans/studyshelf/internal/database/books"
	"github.com/mrlokans/studyshelf/internal/database/discussions"
	"github.com/mrlokans/studyshelf/internal/database/groups"
	"github.com/mrlokans/studyshelf/internal/database/progress"
	"github.com/mrlokans/studyshelf/internal/database/users"
	"github.com/mrlokans/studyshelf/internal/engine"
	"github.com/mrlokans/studyshelf/internal/events"
	http_controllers "github.com/mrlokans/studyshelf/internal/http"
	"github.com/mrlokans/studyshelf/internal/locker"
	"github.com/mrlokans/studyshelf/internal/metrics"
	"github.com/mrlokans/studyshelf/internal/scheduler"
	"github.com/mrlokans/studyshelf/internal/tasks"
)

// App is the fully wired service.
type App struct {
	Config     *config.Config
	Router     *gin.Engine
	DB         *database.Database
	Engine     *engine.Engine
	Metrics    *metrics.Metrics
	TaskClient *tasks.Client                      // nil when tasks are disabled
	Scheduler  *scheduler.SummaryRefreshScheduler // nil when disabled

	taskCancel context.CancelFunc
	closers    []func() error
}

// Build wires every component from cfg. Call Close when done.
func Build(cfg *config.Config, version string) (_ *App, err error) {
	app := &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.DB = db
	app.closers = append(app.closers, db.Close)

	app.Metrics = metrics.New()

	locks, err := app.newLocker(cfg.Locks)
	if err != nil {
		return nil, err
	}

	usersRepo := users.NewRepository(db.DB)
	booksRepo := books.NewRepository(db.DB)
	groupsRepo := groups.NewRepository(db.DB)
	progressRepo := progress.NewRepository(db.DB)

	publisher := events.Multi{app.Metrics}
	if nats := app.newNATSPublisher(cfg.Events); nats != nil {
		publisher = append(publisher, nats)
	}

	if cfg.Tasks.Enabled {
		trigger, err := app.initTasks(cfg, usersRepo, progressRepo)
		if err != nil {
			return nil, err
		}
		publisher = append(publisher, trigger)
	}

	app.Engine = engine.New(
		engine.Stores{
			Groups:      groupsRepo,
			Books:       booksRepo,
			Progress:    progressRepo,
			Discussions: discussions.NewRepository(db.DB),
		},
		locks,
		publisher,
		cfg.Groups.DefaultMaxMembers,
		engine.WithLogger(slog.Default().With("component", "engine")),
	)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret, err = auth.GenerateSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		slog.Warn("Generated JWT secret; tokens will not survive a restart (set AUTH_JWT_SECRET to persist)")
	}
	tokens := auth.NewTokenManager(secret, cfg.Auth.TokenDuration)

	app.Router = http_controllers.NewRouter(http_controllers.RouterConfig{
		Engine:      app.Engine,
		Books:       booksRepo,
		AuthService: auth.NewService(usersRepo, tokens, cfg.Auth),
		Tokens:      tokens,
		Database:    db,
		Metrics:     app.Metrics,
		Version:     version,
	})
	return app, nil
}

func (a *App) newLocker(cfg config.Locks) (locker.Locker, error) {
	switch cfg.Backend {
	case config.LockBackendMemory, "":
		slog.Info("Using in-process locks")
		return locker.NewMemory(), nil
	case config.LockBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		a.closers = append(a.closers, client.Close)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		slog.Info("Using redis locks", "addr", cfg.RedisAddr, "ttl", cfg.TTL)
		return locker.NewRedis(client, cfg.TTL, cfg.RetryWait), nil
	default:
		return nil, fmt.Errorf("unsupported lock backend %q", cfg.Backend)
	}
}

// newNATSPublisher connects to NATS when configured. Events are best
// effort, so a failed connection only disables NATS publishing.
func (a *App) newNATSPublisher(cfg config.Events) events.Publisher {
	if cfg.NATSURL == "" {
		return nil
	}
	nc, err := events.Connect(cfg.NATSURL)
	if err != nil {
		slog.Warn("NATS unavailable, domain events will not be published", "url", cfg.NATSURL, "error", err)
		return nil
	}
	a.closers = append(a.closers, func() error {
		return nc.Drain()
	})
	slog.Info("Publishing domain events to NATS", "url", cfg.NATSURL, "prefix", cfg.SubjectPrefix)
	return events.NewNATSPublisher(nc, cfg.SubjectPrefix)
}

func (a *App) initTasks(cfg *config.Config, usersRepo *users.Repository, progressRepo *progress.Repository) (events.Publisher, error) {
	client, err := tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize task queue: %w", err)
	}
	a.TaskClient = client
	a.closers = append(a.closers, client.Close)

	refresher := tasks.NewSummaryRefresher(usersRepo, progressRepo)
	client.Register(
		tasks.NewRefreshReadingSummaryQueue(refresher, a.Metrics),
		tasks.NewRefreshAllSummariesQueue(refresher, a.Metrics),
	)

	if cfg.Scheduler.SummaryRefreshEnabled {
		if err := scheduler.ValidateSchedule(cfg.Scheduler.SummaryRefreshSchedule); err != nil {
			return nil, fmt.Errorf("invalid SUMMARY_REFRESH_SCHEDULE %q: %w", cfg.Scheduler.SummaryRefreshSchedule, err)
		}
		a.Scheduler = scheduler.NewSummaryRefreshScheduler(client, cfg.Scheduler.SummaryRefreshSchedule)
	}
	return tasks.NewSummaryTrigger(client), nil
}

// Start launches the background workers and the scheduler.
func (a *App) Start(ctx context.Context) error {
	if a.TaskClient != nil {
		var taskCtx context.Context
		taskCtx, a.taskCancel = context.WithCancel(ctx)
		go a.TaskClient.Start(taskCtx)
	}
	if a.Scheduler != nil {
		if err := a.Scheduler.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown stops the scheduler and waits for running tasks.
func (a *App) Shutdown(ctx context.Context) {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.TaskClient != nil && a.taskCancel != nil {
		a.TaskClient.Stop(ctx)
		a.taskCancel()
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("Error during close", "error", err)
		}
	}
	a.closers = nil
}

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	slog.Info("Shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("Server exiting")
	return nil
}

func Run(cfg *config.Config, version string) error {
	slog.Info("Starting studyshelf", "version", version, "database_driver", cfg.Database.Driver)

	app, err := Build(cfg, version)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return err
	}

	return Serve(app.Router, cfg, app.Shutdown)
}
