// Package classification Redis Control Service.
//
// Deploys Redis nodes and cluster proxies as containers and keeps track of them
//
// Terms Of Service:
//
// there are no TOS at this moment, use at your own risk we take no responsibility
//
//    Version: 0.1.0
//    Contact: https://github.com/redisctl/im-redis
//
//    Consumes:
//      - application/json
//      - application/x-www-form-urlencoded
//
//    Produces:
//      - application/json
//
//    SecurityDefinitions:
//      oauth2:
//        type: oauth2
//        tokenUrl: /not-valid--tokens-are-issued-by-the-identity-provider
//        refreshUrl: /not-valid--tokens-are-issued-by-the-identity-provider
//        flow: password
// swagger:meta
package main

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

	"github.com/redisctl/im-redis/internal/handler"
	"github.com/redisctl/im-redis/internal/log"
	"github.com/redisctl/im-redis/internal/middleware"
	"github.com/redisctl/im-redis/internal/server"
	"github.com/redisctl/im-redis/internal/tracing"
	"github.com/redisctl/im-redis/pkg/audit"
	"github.com/redisctl/im-redis/pkg/cluster"
	"github.com/redisctl/im-redis/pkg/config"
	"github.com/redisctl/im-redis/pkg/containerize"
	"github.com/redisctl/im-redis/pkg/image"
	"github.com/redisctl/im-redis/pkg/notifier"
	"github.com/redisctl/im-redis/pkg/orchestrator"
	"github.com/redisctl/im-redis/pkg/poller"
	"github.com/redisctl/im-redis/pkg/registry"
	"github.com/redisctl/im-redis/pkg/storage"
	"github.com/redisctl/im-redis/pkg/task"
	"gorm.io/gorm"
)

const serviceName = "im-redis"

func main() {
	if err := run(); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	logger, err := log.NewLogger(os.Stdout, cfg.Logging.Level, cfg.Logging.Pretty)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(serviceName, cfg.Tracing.JaegerEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("Failed to flush spans", "error", err)
		}
	}()

	db, err := storage.NewDatabase(logger, cfg.Postgresql)
	if err != nil {
		return err
	}

	redis, err := storage.NewRedis(cfg.Redis)
	if err != nil {
		return err
	}
	defer redis.Close()

	orchestratorClient, err := newOrchestrator(logger, cfg.Orchestrator)
	if err != nil {
		return err
	}

	executor := task.NewExecutor(logger, cfg.Notifier.Concurrency, cfg.Notifier.Timeout)
	remoteNotifier := notifier.New(logger, executor, cfg.Notifier.Delay)

	registryService := registry.NewService(registry.NewRepository(db))
	clusterService := cluster.NewService(cluster.NewRepository(db))
	imageService := image.NewService(image.NewRepository(db))

	if cfg.ImagesFile != "" {
		if err := image.LoadImages(ctx, logger, cfg.ImagesFile, imageService); err != nil {
			return err
		}
	}

	auditService, closePublisher, err := newAuditService(logger, cfg, db)
	if err != nil {
		return err
	}
	defer closePublisher()

	nodePoller := poller.New(logger, redis, registryService, cfg.Poller.Interval)
	go nodePoller.Run(ctx)

	containerizeService := containerize.NewService(
		logger,
		orchestratorClient,
		registryService,
		clusterService,
		imageService,
		auditService,
		remoteNotifier,
		nodePoller,
	)

	authentication, err := middleware.NewAuthentication(logger, cfg.Authentication.PublicKey)
	if err != nil {
		return err
	}
	accessControl := middleware.NewAccessControl(logger)

	err = handler.RegisterValidation()
	if err != nil {
		return err
	}

	r := server.GetEngine(logger, cfg.BasePath)
	api := r.Group(cfg.BasePath)
	containerize.Routes(api, authentication, accessControl, containerize.NewHandler(containerizeService))
	cluster.Routes(api, authentication, accessControl, cluster.NewHandler(clusterService))
	image.Routes(api, authentication, accessControl, image.NewHandler(imageService))
	audit.Routes(api, authentication, accessControl, audit.NewHandler(auditService))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", srv.Addr, "orchestrator", cfg.Orchestrator.Backend)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down server", "error", err)
	}
	if err := executor.Shutdown(shutdownCtx); err != nil {
		logger.Error("Pending notifications were cancelled", "error", err)
	}
	return nil
}

type orchestratorClient interface {
	DeployNode(ctx context.Context, request orchestrator.NodeRequest) (orchestrator.Unit, error)
	DeployProxy(ctx context.Context, request orchestrator.ProxyRequest) (orchestrator.Unit, error)
	Remove(ctx context.Context, containerIDs []string) error
	Revive(ctx context.Context, containerID string) error
	ListUnits(ctx context.Context) ([]orchestrator.Unit, error)
	ListPods(ctx context.Context) ([]string, error)
	ListPodHosts(ctx context.Context, pod string) ([]orchestrator.Host, error)
}

func newOrchestrator(logger *slog.Logger, c config.Orchestrator) (orchestratorClient, error) {
	if c.Backend == config.DockerBackend {
		docker, err := orchestrator.NewDocker(logger, c)
		if err != nil {
			return nil, err
		}
		return docker, nil
	}

	kubernetes, err := orchestrator.NewKubernetes(logger, c)
	if err != nil {
		return nil, err
	}
	return kubernetes, nil
}

// newAuditService publishes audits to RabbitMQ only if it's configured.
func newAuditService(logger *slog.Logger, cfg config.Config, db *gorm.DB) (*audit.Service, func(), error) {
	repository := audit.NewRepository(db)
	broker := audit.NewBroker()

	if !cfg.RabbitMqURL.Enabled() {
		return audit.NewService(logger, repository, broker, nil), func() {}, nil
	}

	publisher, err := audit.NewAMQPPublisher(logger, cfg.RabbitMqURL.GetUrl(), cfg.RabbitMqURL.Exchange)
	if err != nil {
		return nil, nil, err
	}
	closePublisher := func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close audit publisher", "error", err)
		}
	}
	return audit.NewService(logger, repository, broker, publisher), closePublisher, nil
}
