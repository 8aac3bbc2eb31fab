package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illmade-knight/go-refdata/pkg/api"
	"github.com/illmade-knight/go-refdata/pkg/bootstrap"
	"github.com/illmade-knight/go-refdata/pkg/config"
	"github.com/illmade-knight/go-refdata/pkg/microservice"
	"github.com/illmade-knight/go-refdata/pkg/refdata"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to a YAML config file")
		envFile    = flag.String("env", "", "Path to a .env file")
		port       = flag.String("port", "", "HTTP listen address, overrides service.http_port")
	)
	flag.Parse()

	if err := run(*configPath, *envFile, *port); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, envFile, port string) error {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Service.HTTPPort = port
	}

	logger := microservice.NewLogger(os.Stderr, cfg.Service.LogLevel, cfg.Service.LogPretty, cfg.Service.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := refdata.NewMetrics(reg)

	svc, closeDeps, err := bootstrap.NewDataService(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDeps(); err != nil {
			logger.Error().Err(err).Msg("Error releasing clients.")
		}
	}()

	if cfg.Service.Preload {
		if err := svc.Preload(ctx); err != nil {
			// Not fatal: accessors fetch again on demand.
			logger.Warn().Err(err).Msg("Preload failed.")
		}
	}

	server := microservice.NewBaseServer(logger, cfg.Service.HTTPPort, reg)
	api.NewHandler(svc, logger).Mount(server.Router())
	if err := server.Start(); err != nil {
		return err
	}
	logger.Info().Str("provider_type", cfg.Provider.Type).Str("port", server.GetHTTPPort()).Msg("Reference data API ready.")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
