// Package docstore is a small collection/document store holding the records
// the services keep between requests.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// IDField is the document key holding the document ID.
const IDField = "id"

// Document is a JSON object stored in a collection.
type Document map[string]any

// ID returns the document ID, or "" when absent.
func (d Document) ID() string {
	id, _ := d[IDField].(string)
	return id
}

// Store defines collection-level document operations.
type Store interface {
	// Create stores data under its "id" field, or under a generated ID when
	// absent, and returns the ID used.
	Create(ctx context.Context, collection string, data Document) (string, error)

	// ReadAll returns every document of a collection in creation order.
	ReadAll(ctx context.Context, collection string) ([]Document, error)

	// Get returns one document.
	Get(ctx context.Context, collection, id string) (Document, error)

	// FindBy returns the documents whose top-level field equals value.
	FindBy(ctx context.Context, collection, field string, value any) ([]Document, error)

	// Update shallow-merges patch into an existing document.
	Update(ctx context.Context, collection, id string, patch Document) error

	// Delete removes a document.
	Delete(ctx context.Context, collection, id string) error
}

// Encode converts a JSON-tagged struct into a Document.
func Encode(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return doc, nil
}

// Decode fills dst from a Document.
func Decode(doc Document, dst any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

// normalise round-trips a value through JSON so in-memory documents hold the
// same shapes a JSON column would return.
func normalise(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
