// Package bootstrap turns a config.Config into wired components.
package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/illmade-knight/go-refdata/pkg/bundle"
	"github.com/illmade-knight/go-refdata/pkg/cache"
	"github.com/illmade-knight/go-refdata/pkg/config"
	"github.com/illmade-knight/go-refdata/pkg/refdata"
	"github.com/illmade-knight/go-refdata/pkg/store"
	"github.com/illmade-knight/go-refdata/pkg/types"
	"github.com/rs/zerolog"
)

// NewTableStore builds the store named by remote.backend. Stores with missing
// parameters are still returned; their Configured method reports what is absent.
func NewTableStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.TableStore, error) {
	switch cfg.Remote.Backend {
	case config.BackendSupabase, "":
		return store.NewSupabaseStore(store.SupabaseConfig{
			URL:     cfg.Supabase.URL,
			APIKey:  cfg.Supabase.APIKey,
			Timeout: cfg.Supabase.Timeout,
		}, nil, logger), nil
	case config.BackendPostgres:
		return store.NewPostgresStore(store.PostgresConfig{DSN: cfg.Postgres.DSN}, logger)
	case config.BackendFirestore:
		fsCfg := &store.FirestoreConfig{
			ProjectID:       cfg.Firestore.ProjectID,
			CredentialsFile: cfg.Firestore.CredentialsFile,
		}
		if fsCfg.ProjectID == "" {
			return store.NewFirestoreStore(fsCfg, nil, logger), nil
		}
		client, err := store.NewFirestoreClient(ctx, fsCfg, logger)
		if err != nil {
			return nil, err
		}
		return store.NewFirestoreStore(fsCfg, client, logger), nil
	case config.BackendBigQuery:
		bqCfg := &store.BigQueryConfig{
			ProjectID:       cfg.BigQuery.ProjectID,
			DatasetID:       cfg.BigQuery.DatasetID,
			CredentialsFile: cfg.BigQuery.CredentialsFile,
		}
		if bqCfg.ProjectID == "" {
			return store.NewBigQueryStore(bqCfg, nil, logger), nil
		}
		client, err := store.NewBigQueryClient(ctx, bqCfg, logger)
		if err != nil {
			return nil, err
		}
		return store.NewBigQueryStore(bqCfg, client, logger), nil
	default:
		return nil, fmt.Errorf("unsupported remote backend %q", cfg.Remote.Backend)
	}
}

// NewBundleSource selects where the local bundle is read from. The returned
// closer releases any client the source holds.
func NewBundleSource(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (bundle.Source, func() error, error) {
	noop := func() error { return nil }
	switch {
	case cfg.Bundle.Path != "":
		return bundle.FileSource{Path: cfg.Bundle.Path}, noop, nil
	case cfg.Bundle.GCSBucket != "":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		logger.Info().Str("bucket", cfg.Bundle.GCSBucket).Str("object", cfg.Bundle.GCSObject).Msg("Reading bundle from Cloud Storage.")
		return bundle.GCSSource{
			Client: bundle.NewGCSClientAdapter(client),
			Bucket: cfg.Bundle.GCSBucket,
			Object: cfg.Bundle.GCSObject,
		}, client.Close, nil
	default:
		return bundle.EmbeddedSource{}, noop, nil
	}
}

// TableOverrides converts remote.tables into kind-keyed overrides.
func TableOverrides(cfg *config.Config) (map[types.Kind]string, error) {
	out := make(map[types.Kind]string, len(cfg.Remote.Tables))
	for name, table := range cfg.Remote.Tables {
		kind, err := types.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("remote.tables: %w", err)
		}
		out[kind] = table
	}
	return out, nil
}

// closers collects cleanup functions registered by lazily built components.
type closers struct {
	mu  sync.Mutex
	fns []func() error
}

func (c *closers) add(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fns = append(c.fns, fn)
}

func (c *closers) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for i := len(c.fns) - 1; i >= 0; i-- {
		errs = append(errs, c.fns[i]())
	}
	c.fns = nil
	return errors.Join(errs...)
}

// NewDataService wires a DataService from cfg. Providers are built on first
// access. When Redis is enabled the remote provider is fronted by a mirror;
// an unreachable Redis is logged and the remote provider is used directly.
// The returned function releases every client that was opened.
func NewDataService(
	ctx context.Context,
	cfg *config.Config,
	logger zerolog.Logger,
	metrics *refdata.Metrics,
) (*refdata.DataService, func() error, error) {
	overrides, err := TableOverrides(cfg)
	if err != nil {
		return nil, nil, err
	}
	buildCtx := context.WithoutCancel(ctx)
	cl := &closers{}

	local := func() (refdata.DataProvider, error) {
		src, closeSrc, err := NewBundleSource(buildCtx, cfg, logger)
		if err != nil {
			return nil, err
		}
		defer func() { _ = closeSrc() }()
		b, err := bundle.Load(buildCtx, src)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("source", src.Name()).Msg("Loaded reference data bundle.")
		return refdata.NewLocalProvider(b), nil
	}

	remote := func() (refdata.DataProvider, error) {
		st, err := NewTableStore(buildCtx, cfg, logger)
		if err != nil {
			return nil, err
		}
		cl.add(st.Close)
		var provider refdata.DataProvider = refdata.NewRemoteProvider(st, overrides, logger)
		if !cfg.Redis.Enabled {
			return provider, nil
		}
		mirror, err := cache.NewRedisCache[types.Kind, json.RawMessage](buildCtx, &cache.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis mirror unavailable, reading the remote store directly.")
			return provider, nil
		}
		cl.add(mirror.Close)
		return refdata.NewMirrorProvider(&refdata.MirrorConfig{}, provider, mirror, logger), nil
	}

	svc := refdata.NewDataService(&refdata.ServiceConfig{
		Type:    refdata.ProviderType(cfg.Provider.Type),
		Local:   local,
		Remote:  remote,
		Metrics: metrics,
	}, logger)
	return svc, cl.close, nil
}
