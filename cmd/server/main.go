package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.canoozie.net/riddling/graphpath/pkg/config"
	"git.canoozie.net/riddling/graphpath/pkg/model"
	"git.canoozie.net/riddling/graphpath/pkg/query"
	"git.canoozie.net/riddling/graphpath/pkg/server"
)

var configPath = flag.String("config", os.Getenv("GRAPHPATH_CONFIG"), "Path to a YAML configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := cfg.Logger()
	model.SetDefaultLogger(logger)
	logger.Info("Starting graphpath gRPC server")
	logger.Debug("Configuration:\n%s", cfg)

	repo, err := model.LoadDocumentFile(cfg.Graph.Path)
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}
	logger.Info("Loaded graph %s (%d elements)", cfg.Graph.Path, len(repo.Elements("")))

	engine := query.NewEngine(repo, logger)
	grpcServer, _ := server.NewGRPCServer(engine,
		server.WithLogger(logger),
		server.WithMaxResults(cfg.Enumerate.MaxResults),
		server.WithDefaultMaxLength(cfg.Enumerate.MaxPathLength),
		server.WithWorkers(cfg.Enumerate.Workers),
	)

	lis, err := net.Listen("tcp", cfg.Server.Address)
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}

	var metricsServer *http.Server
	if cfg.Metrics.Address != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("Serving metrics on %s", cfg.Metrics.Address)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed: %v", err)
			}
		}()
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info("Shutting down gRPC server")
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(ctx)
		}
		grpcServer.GracefulStop()
	}()

	logger.Info("Starting gRPC server on %s", cfg.Server.Address)
	if err := grpcServer.Serve(lis); err != nil {
		log.Fatalf("Failed to serve: %v", err)
	}
}
