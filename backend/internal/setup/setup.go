package setup

import (
	"context"
	"fmt"

	"github.com/ecomm-dev/accounts/backend/internal/handler"
	backend_mw "github.com/ecomm-dev/accounts/backend/internal/middleware"
	"github.com/ecomm-dev/accounts/backend/internal/middleware/ratelimit"
	"github.com/ecomm-dev/accounts/backend/internal/service"
	"github.com/ecomm-dev/accounts/backend/internal/storage/memory"
	"github.com/ecomm-dev/accounts/backend/internal/storage/mongo"
	"github.com/ecomm-dev/accounts/backend/internal/storage/pg"
	"github.com/ecomm-dev/accounts/shared/config"
	"github.com/ecomm-dev/accounts/shared/crypto"
	"github.com/ecomm-dev/accounts/shared/jwt"
	"github.com/ecomm-dev/accounts/shared/logger"
	mw "github.com/ecomm-dev/accounts/shared/middleware"
)

// Store is what every account storage driver provides.
type Store interface {
	service.AccountStorage
	backend_mw.Counter
	handler.HealthChecker
	ValidID(id string) bool
	Close(ctx context.Context) error
}

var (
	_ Store = (*mongo.Storage)(nil)
	_ Store = (*pg.Storage)(nil)
	_ Store = (*memory.Storage)(nil)
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config  *config.Config
	Storage Store
	Handler *handler.Handler
	Auth    *mw.Auth
	Unique  *backend_mw.Unique
	Jwt     jwt.JwtService

	// LoginLimiter throttles login attempts, nil when disabled in config.
	LoginLimiter *ratelimit.Limiter
}

// SetupDependencies opens the configured store and wires everything on top of it.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	deps, err := Build(cfg, store, crypto.DefaultCost)
	if err != nil {
		store.Close(ctx)
		return nil, err
	}
	return deps, nil
}

// Build wires services, middleware and handlers around an open store.
func Build(cfg *config.Config, store Store, hashCost int) (*Dependencies, error) {
	jwtService, err := jwt.New(cfg.JwtKey())
	if err != nil {
		return nil, err
	}
	hasher := crypto.NewHasher(hashCost, cfg.Public.HashConcurrency)

	accounts := service.NewAccount(store, hasher, jwtService, &cfg.Public)
	h := handler.New(accounts, store)

	deps := &Dependencies{
		Config:  cfg,
		Storage: store,
		Handler: h,
		Auth:    mw.NewAuth(jwtService),
		Unique:  backend_mw.NewUnique(store, cfg.Public.Messages),
		Jwt:     jwtService,
	}
	if rl := cfg.Public.LoginRateLimit; rl.Enabled() {
		deps.LoginLimiter = ratelimit.PerMinute(rl.PerMinute, rl.Burst)
	}
	return deps, nil
}

func openStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Public.Storage.Driver {
	case "mongo":
		s, err := mongo.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := pg.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		logger.Log.Warn("using in-memory storage, accounts are lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Public.Storage.Driver)
	}
}
