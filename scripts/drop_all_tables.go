package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"coursehub/internal/config"
	"coursehub/internal/repository/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.SupabaseDBURL == "" {
		log.Fatal("SUPABASE_DB_URL environment variable is required")
	}
	if cfg.Environment == "prod" {
		log.Fatal("refusing to drop production tables")
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Children first so the order holds if foreign keys are added later
	tables := postgres.NewTableNames(cfg.TablePrefix).All()
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+tables[i]+" CASCADE"); err != nil {
			log.Fatalf("Failed to drop %s: %v", tables[i], err)
		}
	}

	fmt.Printf("All tables dropped successfully (prefix: %s)\n", cfg.TablePrefix)
}
