package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/illmade-knight/go-refdata/pkg/bootstrap"
	"github.com/illmade-knight/go-refdata/pkg/bundle"
	"github.com/illmade-knight/go-refdata/pkg/config"
	"github.com/illmade-knight/go-refdata/pkg/microservice"
	"github.com/illmade-knight/go-refdata/pkg/types"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to a YAML config file")
		envFile    = flag.String("env", "", "Path to a .env file")
		kinds      = flag.String("kinds", "", "Comma-separated collections to seed, e.g. composers,terms (default all)")
		dryRun     = flag.Bool("dry-run", false, "Log row counts without writing")
	)
	flag.Parse()

	if err := run(*configPath, *envFile, *kinds, *dryRun); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseKinds(list string) ([]types.Kind, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var out []types.Kind
	for _, name := range strings.Split(list, ",") {
		kind, err := types.ParseKind(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out = append(out, kind)
	}
	return out, nil
}

func run(configPath, envFile, kindList string, dryRun bool) error {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return err
	}
	logger := microservice.NewLogger(os.Stderr, cfg.Service.LogLevel, cfg.Service.LogPretty, "refdata-seed")

	kinds, err := parseKinds(kindList)
	if err != nil {
		return err
	}
	tables, err := bootstrap.TableOverrides(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, closeSrc, err := bootstrap.NewBundleSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeSrc() }()

	b, err := bundle.Load(ctx, src)
	if err != nil {
		return err
	}

	st, err := bootstrap.NewTableStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	result, err := bootstrap.Seed(ctx, bootstrap.SeedConfig{
		Kinds:  kinds,
		Tables: tables,
		DryRun: dryRun,
	}, b, st, logger)
	if err != nil {
		return err
	}

	total := 0
	for _, n := range result {
		total += n
	}
	logger.Info().
		Str("source", src.Name()).
		Str("store", st.Name()).
		Int("tables", len(result)).
		Int("rows", total).
		Bool("dry_run", dryRun).
		Msg("Seeding complete.")
	return nil
}
