package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"

	"github.com/devbook/devbook/internal/config"
	http_controllers "github.com/devbook/devbook/internal/http"
	"github.com/devbook/devbook/internal/logging"
	"github.com/devbook/devbook/internal/scheduler"
	"github.com/devbook/devbook/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then drains in-flight
// requests for at most the configured shutdown timeout.
func Serve(router *gin.Engine, cfg *config.Config, log logrus.FieldLogger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listenErr := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var serveErr error
	select {
	case err, ok := <-listenErr:
		if ok {
			serveErr = fmt.Errorf("listen: %w", err)
		}
	case sig := <-quit:
		log.WithFields(logrus.Fields{"signal": sig.String(), "timeout": timeout}).Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("server shutdown: %w", err)
	}

	// Stop background work once no request can enqueue more
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if serveErr != nil {
		return serveErr
	}

	log.Info("server exiting")
	return nil
}

// Run builds the application from cfg and serves it.
func Run(cfg *config.Config, log *logrus.Logger, version string) error {
	log.WithField("version", version).Info("starting DevBook")

	app, err := NewApp(cfg, log)
	if err != nil {
		return err
	}
	defer logging.Close(log, app, "database")

	var taskClient *tasks.Client
	var maintenance *scheduler.MaintenanceScheduler
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		if cfg.Database.Driver == config.DatabaseDriverMySQL {
			log.Warn("maintenance tasks keep their queue in sqlite next to DATABASE_PATH")
		}
		taskCfg := tasks.ConfigFrom(cfg.Tasks, cfg.Audit)

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg, log)
		if err != nil {
			return fmt.Errorf("initialize task queue: %w", err)
		}
		defer logging.Close(log, taskClient, "task client")

		taskClient.Register(
			tasks.NewCleanupAuditEventsQueue(app.Audit, log),
			tasks.NewOverdueSnapshotQueue(app.Lending, log),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		maintenance = scheduler.NewMaintenanceScheduler(
			taskClient,
			cfg.Tasks.MaintenanceSchedule,
			func() []backlite.Task { return tasks.MaintenanceTasks(taskCfg) },
			log,
		)
		if err := maintenance.Start(taskCtx); err != nil {
			taskCtxCancel()
			return err
		}
	} else {
		log.Debug("maintenance tasks disabled")
	}

	router := http_controllers.NewRouter(app.RouterConfig(version))

	onShutdown := func(ctx context.Context) {
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	return Serve(router, cfg, log, onShutdown)
}
