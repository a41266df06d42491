package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scoreboard/internal/common/cache"
	"scoreboard/internal/common/db"
	"scoreboard/internal/common/mq"
	"scoreboard/internal/common/storage"
	"scoreboard/internal/scoreboard/controller"
	"scoreboard/internal/scoreboard/middleware"
	"scoreboard/internal/scoreboard/repository"
	"scoreboard/internal/scoreboard/service"
	"scoreboard/internal/scoreboard/site"
	"scoreboard/internal/scoreboard/webcast"
	"scoreboard/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConfigPath = "configs/scoreboard.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(appCfg); err != nil {
		logger.Error(context.Background(), "scoreboard server stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(appCfg *AppConfig) error {
	ctx := context.Background()
	sb := appCfg.Scoreboard

	var (
		cacheOps cache.BasicOps
		objects  storage.ObjectStorage
		sinks    []service.RunSink
	)

	if appCfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
		if err != nil {
			return fmt.Errorf("init redis failed: %w", err)
		}
		defer func() {
			_ = redisCache.Close()
		}()
		cacheOps = redisCache
	}

	if appCfg.Database.DSN != "" {
		mysqlDB, err := db.NewMySQLWithConfig(&appCfg.Database)
		if err != nil {
			return fmt.Errorf("init database failed: %w", err)
		}
		defer func() {
			_ = mysqlDB.Close()
		}()
		journal := repository.NewMySQLRunJournal(mysqlDB)
		if err := journal.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("init run journal failed: %w", err)
		}
		sinks = append(sinks, service.NewJournalSink(journal))
	}

	if len(appCfg.Kafka.Brokers) > 0 {
		mqClient, err := mq.NewKafkaQueue(appCfg.Kafka)
		if err != nil {
			return fmt.Errorf("init kafka failed: %w", err)
		}
		defer func() {
			_ = mqClient.Close()
		}()
		sinks = append(sinks, service.NewMQRunPublisher(mqClient, sb.RunTopic))
	}

	if appCfg.MinIO.Endpoint != "" {
		objStorage, err := storage.NewMinIOStorage(appCfg.MinIO)
		if err != nil {
			return fmt.Errorf("init minio failed: %w", err)
		}
		objects = objStorage
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(promRegistry)

	snapshots, err := repository.NewSnapshotRepository(cacheOps, sb.LocalCacheSize, sb.SnapshotTTL)
	if err != nil {
		return fmt.Errorf("init snapshot repository failed: %w", err)
	}
	defer snapshots.Close()

	registry := service.NewRegistry(service.Dependencies{
		Sinks:       sinks,
		SinkTimeout: sb.SinkTimeout,
		Metrics:     metrics,
		Snapshots:   snapshots,
	})
	if err := registerContests(registry, appCfg.Contests, objects, sb); err != nil {
		return err
	}

	reveal := service.NewRevealService(service.RevealConfig{
		Secret: sb.Reveal.JWTSecret,
		Issuer: sb.Reveal.Issuer,
		TTL:    sb.Reveal.SessionTTL,
	}, metrics)
	rateLimiter := service.NewRateLimitService(cacheOps, sb.RateLimit.Window, time.Second)

	httpServer := buildHTTPServer(appCfg.Server, controller.RouteConfig{
		Registry:    registry,
		Reveal:      reveal,
		RateLimiter: rateLimiter,
		APIKey:      sb.APIKey,
		RunsAllRate: middleware.RateLimitPolicy{Window: sb.RateLimit.Window, IPMax: sb.RateLimit.IPMax},
		CORS:        sb.CORS,
	}, promRegistry)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("init http listener failed: %w", err)
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(shutdownCtx)
	g.Go(func() error {
		return registry.Run(gctx)
	})
	g.Go(func() error {
		logger.Info(ctx, "scoreboard http server started", zap.String("addr", appCfg.Server.Addr))
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "shutdown signal received")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(timeoutCtx)
	})
	return g.Wait()
}

func registerContests(registry *service.Registry, contests []ContestConfig, objects storage.ObjectStorage, sb ScoreboardConfig) error {
	for _, cc := range contests {
		opts := service.ContestOptions{PanelSize: sb.PanelSize}
		if cc.Sites != "" {
			sites, err := site.LoadConfig(cc.Sites)
			if err != nil {
				return fmt.Errorf("contest %s: %w", cc.Name, err)
			}
			opts.Sites = sites
		}
		if cc.Secrets != "" {
			secrets, err := site.LoadSecretConfig(cc.Secrets)
			if err != nil {
				return fmt.Errorf("contest %s: %w", cc.Name, err)
			}
			opts.Secrets = secrets
		}
		if _, err := registry.Create(cc.Name, opts); err != nil {
			return err
		}
		if cc.Source == "" {
			logger.Info(context.Background(), "contest has no source, waiting for uploads", zap.String("contest", cc.Name))
			continue
		}
		source, err := webcast.NewSource(cc.Source, objects)
		if err != nil {
			return fmt.Errorf("contest %s: %w", cc.Name, err)
		}
		if _, err := registry.Watch(cc.Name, source, service.IngestOptions{
			Interval:     sb.RefreshInterval,
			FetchTimeout: sb.FetchTimeout,
		}); err != nil {
			return err
		}
	}
	return nil
}

func buildHTTPServer(cfg ServerConfig, routes controller.RouteConfig, gatherer prometheus.Gatherer) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestContext())

	controller.RegisterRoutes(router, routes)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
