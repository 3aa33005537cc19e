package integration

import (
	"context"
	"testing"
	"time"

	"pharmago/internal/catalog"
	"pharmago/internal/config"
	"pharmago/internal/database"
	"pharmago/internal/docstore"
	"pharmago/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	Store     docstore.Store
	ConnStr   string
}

// SetupTestDB starts a PostgreSQL container and returns a migrated document store on it.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Backend:         config.BackendPostgres,
		URL:             connStr,
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPool(ctx, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, logger, docstore.Schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		Store:     docstore.NewPostgresStore(pool, logger),
		ConnStr:   connStr,
	}
}

// CleanupDB removes every stored document.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "DELETE FROM documents"); err != nil {
		t.Logf("failed to clean documents: %v", err)
	}
}

// TestCatalog returns a small two-pharmacy listing.
func TestCatalog() *catalog.Catalog {
	return catalog.New([]model.Pharmacy{
		{
			ID:         "1",
			Name:       "Apollo Pharmacy",
			DistanceKm: 0.8,
			Rating:     4.2,
			Medicines: []model.Medicine{
				{ID: "m1", Name: "Paracetamol", Brand: "Crocin", Strength: "500mg", Price: model.PriceFromFloat(24.5), Stock: 25, Available: true, Category: "Pain Relief"},
				{ID: "m2", Name: "Cetirizine", Brand: "Zyrtec", Strength: "10mg", Price: model.PriceFromFloat(85), Stock: 0, Available: false, Category: "Allergy"},
			},
		},
		{
			ID:         "2",
			Name:       "MedPlus",
			DistanceKm: 1.2,
			Rating:     4.0,
			Medicines: []model.Medicine{
				{ID: "m1", Name: "Paracetamol", Brand: "Dolo", Strength: "650mg", Price: model.PriceFromFloat(22), Stock: 35, Available: true, Category: "Pain Relief"},
			},
		},
	}, 0, zerolog.Nop())
}
