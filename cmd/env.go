package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/fuse"
	"github.com/sells-group/prospect-cli/internal/pipeline"
	"github.com/sells-group/prospect-cli/internal/render"
	"github.com/sells-group/prospect-cli/internal/session"
	"github.com/sells-group/prospect-cli/internal/store"
	"github.com/sells-group/prospect-cli/pkg/gsearch"
	"github.com/sells-group/prospect-cli/pkg/instagram"
	"github.com/sells-group/prospect-cli/pkg/linkedin"
)

// pipelineEnv holds the initialized store, clients, and pipeline needed
// by the run/batch/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "prospect.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline sets up the store and all source adapters and builds the
// Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	if n, err := st.DeleteExpiredSources(ctx); err != nil {
		zap.L().Warn("expired source cleanup failed", zap.Error(err))
	} else if n > 0 {
		zap.L().Debug("expired source cache entries removed", zap.Int("count", n))
	}

	var igOpts []instagram.Option
	if cfg.Instagram.BaseURL != "" {
		igOpts = append(igOpts, instagram.WithBaseURL(cfg.Instagram.BaseURL))
	}
	igClient := instagram.NewClient(igOpts...)

	var searchClient gsearch.Client
	if cfg.Search.APIKey != "" && cfg.Search.EngineID != "" {
		searchClient = gsearch.NewClient(cfg.Search.APIKey, cfg.Search.EngineID)
	}

	fuseCfg := fuse.DefaultConfig()
	if cfg.Fusion.ConfigPath != "" {
		fuseCfg, err = fuse.LoadConfig(cfg.Fusion.ConfigPath)
		if err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "load fusion config")
		}
	}

	p := pipeline.New(
		cfg,
		st,
		igClient,
		searchClient,
		linkedin.NewClient(),
		render.NewHTTPRenderer(),
		fuse.New(fuseCfg),
		func() *session.Manager { return session.NewManager("facebook.com") },
	)

	return &pipelineEnv{Store: st, Pipeline: p}, nil
}
