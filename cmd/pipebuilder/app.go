package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/pipebuilder/internal/config"
	"github.com/aretw0/pipebuilder/internal/logging"
	loamAdapter "github.com/aretw0/pipebuilder/pkg/adapters/loam"
	"github.com/aretw0/pipebuilder/pkg/adapters/memory"
	"github.com/aretw0/pipebuilder/pkg/adapters/redis"
	"github.com/aretw0/pipebuilder/pkg/catalog"
	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/persistence/middleware"
	"github.com/aretw0/pipebuilder/pkg/ports"
	"github.com/aretw0/pipebuilder/pkg/sdk"
	"github.com/aretw0/pipebuilder/pkg/session"
)

// app holds the dependencies shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	source  ports.DefinitionSource
	catalog *catalog.Catalog
}

func newApp(cmd *cobra.Command) (*app, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, file)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithWriter(os.Stderr, level, logging.Format(cfg.Log.Format))

	source, err := newSource(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		source:  source,
		catalog: catalog.New(source, catalog.WithLogger(logger)),
	}, nil
}

// newSource prefers the remote API, then a local definitions directory.
// With neither configured every component is free-form.
func newSource(cfg *config.Config, logger *slog.Logger) (ports.DefinitionSource, error) {
	switch {
	case cfg.Backend.BaseURL != "":
		client := sdk.New(cfg.Backend.BaseURL,
			sdk.WithAccessToken(cfg.Backend.AccessToken),
			sdk.WithRetry(cfg.Backend.Retries, sdk.DefaultBackoff),
			sdk.WithLogger(logger),
		)
		return catalog.NewClientSource(client), nil
	case cfg.DefinitionsDir != "":
		return loamAdapter.Open(cfg.DefinitionsDir)
	default:
		logger.Warn("No definitions configured, components are edited free-form")
		return memory.NewFromSpecs(nil), nil
	}
}

// sessions builds the recipe store chain and its lock manager.
func (a *app) sessions() (*session.Manager, error) {
	var (
		store ports.RecipeStore
		opts  = []session.Option{session.WithLogger(a.logger), session.WithLockTTL(a.cfg.Store.LockTTL)}
	)

	switch a.cfg.Store.Driver {
	case config.StoreRedis:
		rc := a.cfg.Store.Redis
		rs := redis.New(rc.Addr, rc.Password, rc.DB, redis.WithPrefix(rc.Prefix+"pipeline:"), redis.WithTTL(rc.TTL))
		if err := rs.Client().Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", rc.Addr, err)
		}
		store = rs
		opts = append(opts, session.WithLocker(redis.NewLocker(rs.Client(), rc.Prefix)))
	default:
		store = memory.NewStore()
	}

	var mws []middleware.Middleware
	if len(a.cfg.Security.MaskKeys) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(a.cfg.Security.MaskKeys))
	}
	active, fallback, err := a.cfg.Security.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}

	return session.NewManager(middleware.Chain(store, mws...), opts...), nil
}

// readRecipe decodes a recipe file. JSON documents are valid YAML.
func readRecipe(path string) (*domain.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe: %w", err)
	}
	var r domain.Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRecipe, err)
	}
	if len(r.Components) == 0 {
		return nil, fmt.Errorf("%w: no components", domain.ErrInvalidRecipe)
	}
	return &r, nil
}
