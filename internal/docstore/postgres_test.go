package docstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pharmago/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container with the documents schema applied.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL document store tests in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop(), Schema))

	return pool
}

func TestPostgresStore(t *testing.T) {
	pool := setupTestDB(t)

	// Each subtest gets its own collection prefix on the shared database.
	n := 0
	runStoreSuite(t, func(t *testing.T) Store {
		n++
		return &prefixedStore{
			Store:  NewPostgresStore(pool, zerolog.Nop()),
			prefix: fmt.Sprintf("t%d-", n),
		}
	})
}

// prefixedStore namespaces collections so subtests do not see each other.
type prefixedStore struct {
	Store
	prefix string
}

func (s *prefixedStore) Create(ctx context.Context, collection string, data Document) (string, error) {
	return s.Store.Create(ctx, s.prefix+collection, data)
}

func (s *prefixedStore) ReadAll(ctx context.Context, collection string) ([]Document, error) {
	return s.Store.ReadAll(ctx, s.prefix+collection)
}

func (s *prefixedStore) Get(ctx context.Context, collection, id string) (Document, error) {
	return s.Store.Get(ctx, s.prefix+collection, id)
}

func (s *prefixedStore) FindBy(ctx context.Context, collection, field string, value any) ([]Document, error) {
	return s.Store.FindBy(ctx, s.prefix+collection, field, value)
}

func (s *prefixedStore) Update(ctx context.Context, collection, id string, patch Document) error {
	return s.Store.Update(ctx, s.prefix+collection, id, patch)
}

func (s *prefixedStore) Delete(ctx context.Context, collection, id string) error {
	return s.Store.Delete(ctx, s.prefix+collection, id)
}
