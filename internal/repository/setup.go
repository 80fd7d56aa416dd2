// Package repository selects the hierarchy store implementation at startup.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"coursehub/internal/config"
	"coursehub/internal/domain/repositories"
	repos "coursehub/internal/domain/repositories/portal"
	"coursehub/internal/repository/memory"
	mongorepo "coursehub/internal/repository/mongo"
	"coursehub/internal/repository/postgres"
	portalpg "coursehub/internal/repository/postgres/portal"
)

// Backend is an opened hierarchy store.
type Backend struct {
	Name         string
	Repositories *repos.Repositories
	// Tx is nil unless the backend supports transactions (postgres).
	Tx repositories.TransactionManager
	// Pool is set for the postgres backend only.
	Pool *pgxpool.Pool

	close func(context.Context) error
}

// Close releases the backend's connections.
func (b *Backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}

// InTx runs fn inside a transaction when the backend has one, directly otherwise.
func (b *Backend) InTx(ctx context.Context, fn repositories.TxFn) error {
	return repositories.RunInTx(ctx, b.Tx, fn)
}

// SetupBackend opens the store named by cfg.HierarchyBackend.
func SetupBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.HierarchyBackend {
	case "postgres":
		pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Info("database connected", "backend", "postgres", "table_prefix", cfg.TablePrefix)
		return &Backend{
			Name: "postgres",
			Repositories: portalpg.NewRepositories(&postgres.RepositoryConfig{
				Pool:   pool,
				Tables: postgres.NewTableNames(cfg.TablePrefix),
				Logger: logger,
			}),
			Tx:   postgres.NewTransactionManager(pool, logger),
			Pool: pool,
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case "mongo":
		client, err := mongorepo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		db := client.Database(cfg.MongoDatabase)
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		logger.Info("database connected", "backend", "mongo", "database", cfg.MongoDatabase)
		return &Backend{
			Name:         "mongo",
			Repositories: mongorepo.NewRepositories(db, logger),
			close:        client.Disconnect,
		}, nil

	case "memory":
		logger.Warn("using in-memory hierarchy store; data is lost on restart")
		return &Backend{Name: "memory", Repositories: memory.NewRepositories()}, nil

	default:
		return nil, fmt.Errorf("unknown HIERARCHY_BACKEND %q", cfg.HierarchyBackend)
	}
}
