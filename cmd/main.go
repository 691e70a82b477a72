package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog_viewer/config"
	"catalog_viewer/internal/cache"
	"catalog_viewer/internal/clients"
	"catalog_viewer/internal/delivery"
	grpcHandler "catalog_viewer/internal/delivery/grpc"
	"catalog_viewer/internal/middleware"
	"catalog_viewer/internal/proxy"
	"catalog_viewer/internal/repository"
	"catalog_viewer/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

func main() {
	logger := setupLogger("info", "json")

	cfg := config.LoadConfig(logger)

	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s' in config, using default 'info'. Error: %v", cfg.LogLevel, err)
	} else {
		logger.SetLevel(logLevel)
	}
	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logger.Info("Starting Catalog Viewer...")
	logger.Infof("Catalog API target: %s", cfg.APIURL)

	health := grpcHandler.NewHealthReporter(logger)

	catalogClient := clients.NewCatalogHTTPClient(cfg.RequestTimeout, logger)
	productCache := cache.NewProductCache(catalogClient, cache.Options{
		DedupingInterval:   cfg.DedupingInterval,
		ErrorRetryCount:    cfg.ErrorRetryCount,
		ErrorRetryInterval: cfg.ErrorRetryInterval,
	}, logger)
	productCache.AddObserver(health)

	sessionRepo := repository.NewInMemorySessionRepository(logger)
	browseUseCase := usecase.NewBrowseUseCase(productCache, sessionRepo, usecase.BrowseOptions{
		List: usecase.ListOptions{
			BaseURL:           cfg.APIURL,
			DefaultSortColumn: cfg.SortColumn(),
			DefaultSortOrder:  cfg.SortOrder(),
		},
		Debounce: cfg.SearchDebounce,
	}, logger)
	browseHandler := delivery.NewBrowseHandler(browseUseCase, cfg.WaitTimeout, logger)

	upstreamProxy, err := proxy.NewReverseProxy(apiOrigin(cfg.APIURL), "/upstream", logger)
	if err != nil {
		logger.Fatalf("Failed to create upstream proxy: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go browseUseCase.RunExpiry(ctx, cfg.SessionTTL, max(cfg.SessionTTL/2, time.Second))

	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestLogger(logger))

	delivery.RegisterSystemRoutes(router, health)
	browseHandler.RegisterRoutes(router)
	router.Any("/upstream/*proxyPath", proxy.ProxyHandler(upstreamProxy, logger))

	httpServer := &http.Server{
		Addr:    cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to serve HTTP: %v", err)
		}
		logger.Info("HTTP server stopped serving.")
	}()

	lis, err := net.Listen("tcp", cfg.GrpcPort)
	if err != nil {
		logger.Fatalf("Failed to listen on port %s: %v", cfg.GrpcPort, err)
	}
	logger.Infof("gRPC server listening on %s", cfg.GrpcPort)

	grpcServer := grpc.NewServer()
	health.Register(grpcServer)

	reflection.Register(grpcServer)
	logger.Info("gRPC reflection service registered")

	go func() {
		logger.Info("Starting gRPC server...")
		if err := grpcServer.Serve(lis); err != nil && err != grpc.ErrServerStopped {
			logger.Fatalf("Failed to serve gRPC: %v", err)
		}
		logger.Info("gRPC server stopped serving.")
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("Signal listener started.")

	<-quit
	logger.Warn("Shutdown signal received...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server shutdown error: %v", err)
	}

	browseUseCase.ExpireIdle(0)

	logger.Info("Attempting graceful shutdown of gRPC server...")
	health.Shutdown()
	grpcServer.GracefulStop()
	logger.Info("gRPC server gracefully stopped.")
	logger.Info("Catalog Viewer shut down gracefully.")
}

func setupLogger(level, format string) *logrus.Logger {
	logger := logrus.New()
	if format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.SetOutput(os.Stdout)

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Invalid log level '%s', using default 'info'. Error: %v", level, err)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return logger
}

// apiOrigin trims the catalog URL down to scheme and host for the proxy.
func apiOrigin(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil {
		return apiURL
	}
	return u.Scheme + "://" + u.Host
}
