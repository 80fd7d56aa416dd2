package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL for the given table prefix.
func Schema(prefix string) string {
	return strings.ReplaceAll(schemaSQL, "{{prefix}}", prefix)
}

// Migrate creates any missing hierarchy tables and indexes.
func Migrate(ctx context.Context, pool *pgxpool.Pool, prefix string) error {
	if _, err := pool.Exec(ctx, Schema(prefix)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
