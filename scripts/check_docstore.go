//go:build ignore

// check_docstore connects to the configured Postgres database, applies the
// document store schema and prints a document count per collection.
//
//	STORE_BACKEND=postgres go run scripts/check_docstore.go
package main

import (
	"context"
	"fmt"
	"os"

	"pharmago/internal/config"
	"pharmago/internal/database"
	"pharmago/internal/docstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Logger)
	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully connected to database: %s\n", dbName)

	if err := database.Migrate(ctx, pool, logger, docstore.Schema); err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}

	rows, err := pool.Query(ctx, "SELECT collection, count(*) FROM documents GROUP BY collection ORDER BY collection")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	fmt.Println("\nCollections:")
	for rows.Next() {
		var (
			name  string
			count int64
		)
		if err := rows.Scan(&name, &count); err != nil {
			fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  - %s: %d\n", name, count)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Rows failed: %v\n", err)
		os.Exit(1)
	}
}
