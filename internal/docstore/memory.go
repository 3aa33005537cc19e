package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"pharmago/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type memoryCollection struct {
	order []string
	docs  map[string]Document
}

// memoryStore implements Store in process memory.
type memoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
	logger      zerolog.Logger
}

// NewMemoryStore creates an in-memory document store.
func NewMemoryStore(logger zerolog.Logger) Store {
	return &memoryStore{
		collections: make(map[string]*memoryCollection),
		logger:      logger.With().Str("repository", "docstore-memory").Logger(),
	}
}

func (s *memoryStore) collection(name string) *memoryCollection {
	c, exists := s.collections[name]
	if !exists {
		c = &memoryCollection{docs: make(map[string]Document)}
		s.collections[name] = c
	}
	return c
}

func (s *memoryStore) Create(ctx context.Context, collection string, data Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	normalised, err := normalise(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	doc, _ := normalised.(map[string]any)
	if doc == nil {
		doc = map[string]any{}
	}

	id := Document(doc).ID()
	if id == "" {
		id = uuid.NewString()
		doc[IDField] = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	if _, exists := c.docs[id]; exists {
		return "", model.ErrDocumentExists
	}
	c.docs[id] = doc
	c.order = append(c.order, id)

	s.logger.Debug().Str("collection", collection).Str("id", id).Msg("document created")

	return id, nil
}

func (s *memoryStore) ReadAll(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.collections[collection]
	if !exists {
		return []Document{}, nil
	}

	docs := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, copyDocument(c.docs[id]))
	}
	return docs, nil
}

func (s *memoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.collections[collection]
	if !exists {
		return nil, model.ErrDocumentNotFound
	}
	doc, exists := c.docs[id]
	if !exists {
		return nil, model.ErrDocumentNotFound
	}
	return copyDocument(doc), nil
}

func (s *memoryStore) FindBy(ctx context.Context, collection, field string, value any) ([]Document, error) {
	want, err := normalise(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query value: %w", err)
	}

	all, err := s.ReadAll(ctx, collection)
	if err != nil {
		return nil, err
	}

	matches := make([]Document, 0)
	for _, doc := range all {
		if got, exists := doc[field]; exists && reflect.DeepEqual(got, want) {
			matches = append(matches, doc)
		}
	}
	return matches, nil
}

func (s *memoryStore) Update(ctx context.Context, collection, id string, patch Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	normalised, err := normalise(patch)
	if err != nil {
		return fmt.Errorf("failed to encode patch: %w", err)
	}
	fields, _ := normalised.(map[string]any)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.collections[collection]
	if !exists {
		return model.ErrDocumentNotFound
	}
	doc, exists := c.docs[id]
	if !exists {
		return model.ErrDocumentNotFound
	}

	for k, v := range fields {
		if k == IDField {
			continue
		}
		doc[k] = v
	}

	s.logger.Debug().Str("collection", collection).Str("id", id).Msg("document updated")

	return nil
}

func (s *memoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.collections[collection]
	if !exists {
		return model.ErrDocumentNotFound
	}
	if _, exists := c.docs[id]; !exists {
		return model.ErrDocumentNotFound
	}

	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}

	s.logger.Debug().Str("collection", collection).Str("id", id).Msg("document deleted")

	return nil
}

// copyDocument returns a deep copy so callers cannot mutate stored state.
func copyDocument(doc Document) Document {
	out, _ := normalise(doc)
	m, _ := out.(map[string]any)
	return Document(m)
}
