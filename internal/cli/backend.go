// Package cli wires the configured store, logger and session manager for the commands.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/switchboard/internal/config"
	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/adapters/loam"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/adapters/redis"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/session"
)

// Backend is the definition store selected by the configuration.
type Backend struct {
	Store ports.DefinitionStore

	// Locker guards saves across processes. Nil for stores local to one process.
	Locker ports.DistributedLocker

	closers []func() error
}

// Close releases connections held by the store.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// OpenBackend initializes the store named by cfg.Store.Kind.
func OpenBackend(cfg *config.Config) (*Backend, error) {
	switch cfg.Store.Kind {
	case config.StoreMemory:
		return &Backend{Store: memory.NewStore()}, nil

	case config.StoreLoam:
		store, err := loam.Open(cfg.Store.Dir)
		if err != nil {
			return nil, fmt.Errorf("error opening loam store: %w", err)
		}
		return &Backend{Store: store}, nil

	case config.StoreRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		return &Backend{
			Store:   store,
			Locker:  redis.NewLocker(store.Client(), cfg.Redis.Prefix),
			closers: []func() error{store.Close},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
}

// NewLogger configures the application logger from a level name.
func NewLogger(level string) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(lvl), nil
}

// NewManager builds a session manager over the backend.
func NewManager(b *Backend, cfg *config.Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) *session.Manager {
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithHooks(domain.ChainHooks(hooks...)),
	}
	if b.Locker != nil {
		opts = append(opts, session.WithLocker(b.Locker))
		if cfg.Redis.LockTTL > 0 {
			opts = append(opts, session.WithLockTTL(cfg.Redis.LockTTL))
		}
	}
	if cfg.UndoLimit != nil {
		opts = append(opts, session.WithUndoLimit(*cfg.UndoLimit))
	}
	return session.NewManager(b.Store, opts...)
}
