package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pharmago/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Schema creates the documents table.
const Schema = `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		data JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (collection, id)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_data ON documents USING GIN (data);
`

// postgresStore implements Store on a PostgreSQL jsonb table.
type postgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore creates a PostgreSQL-backed document store.
func NewPostgresStore(pool *pgxpool.Pool, logger zerolog.Logger) Store {
	return &postgresStore{
		pool:   pool,
		logger: logger.With().Str("repository", "docstore-postgres").Logger(),
	}
}

func (s *postgresStore) Create(ctx context.Context, collection string, data Document) (string, error) {
	doc := make(Document, len(data)+1)
	for k, v := range data {
		doc[k] = v
	}

	id := doc.ID()
	if id == "" {
		id = uuid.NewString()
		doc[IDField] = id
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query, collection, id, string(payload))
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("collection", collection).
			Str("id", id).
			Msg("failed to create document")
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", model.ErrDocumentExists
	}

	s.logger.Debug().Str("collection", collection).Str("id", id).Msg("document created")

	return id, nil
}

func (s *postgresStore) ReadAll(ctx context.Context, collection string) ([]Document, error) {
	query := `
		SELECT data
		FROM documents
		WHERE collection = $1
		ORDER BY created_at, id
	`

	return s.query(ctx, query, collection)
}

func (s *postgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	query := `
		SELECT data
		FROM documents
		WHERE collection = $1 AND id = $2
	`

	var payload []byte
	err := s.pool.QueryRow(ctx, query, collection, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrDocumentNotFound
		}
		s.logger.Error().
			Err(err).
			Str("collection", collection).
			Str("id", id).
			Msg("failed to query document")
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *postgresStore) FindBy(ctx context.Context, collection, field string, value any) ([]Document, error) {
	want, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query value: %w", err)
	}

	query := `
		SELECT data
		FROM documents
		WHERE collection = $1 AND data -> $2::text = $3::jsonb
		ORDER BY created_at, id
	`

	return s.query(ctx, query, collection, field, string(want))
}

func (s *postgresStore) Update(ctx context.Context, collection, id string, patch Document) error {
	fields := make(Document, len(patch))
	for k, v := range patch {
		if k != IDField {
			fields[k] = v
		}
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode patch: %w", err)
	}

	query := `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`

	tag, err := s.pool.Exec(ctx, query, collection, id, string(payload))
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("collection", collection).
			Str("id", id).
			Msg("failed to update document")
		return fmt.Errorf("failed to update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrDocumentNotFound
	}

	s.logger.Debug().Str("collection", collection).Str("id", id).Msg("document updated")

	return nil
}

func (s *postgresStore) Delete(ctx context.Context, collection, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("collection", collection).
			Str("id", id).
			Msg("failed to delete document")
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrDocumentNotFound
	}

	s.logger.Debug().Str("collection", collection).Str("id", id).Msg("document deleted")

	return nil
}

func (s *postgresStore) query(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to query documents")
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			s.logger.Error().Err(err).Msg("failed to scan document row")
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		var doc Document
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		s.logger.Error().Err(err).Msg("error iterating document rows")
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}
