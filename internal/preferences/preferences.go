// Package preferences keeps small per-user JSON blobs such as settings and profile.
package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"pharmago/internal/model"

	"github.com/rs/zerolog"
)

// Allowed preference keys.
const (
	KeySettings = "userSettings"
	KeyProfile  = "userProfile"
)

// ValidKey reports whether key may be stored.
func ValidKey(key string) bool {
	return key == KeySettings || key == KeyProfile
}

// Store reads and writes preference blobs.
type Store interface {
	// Get decodes the stored value into dst and reports whether one existed.
	Get(ctx context.Context, userID, key string, dst any) (bool, error)

	// Put replaces the stored value.
	Put(ctx context.Context, userID, key string, value any) error
}

func encode(key string, value any) ([]byte, error) {
	if !ValidKey(key) {
		return nil, model.ErrInvalidPreference
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preference %s: %w", key, err)
	}
	return data, nil
}

func decode(key string, data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode preference %s: %w", key, err)
	}
	return nil
}

// memoryStore implements Store in process memory.
type memoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	logger zerolog.Logger
}

// NewMemoryStore creates an in-memory preference store.
func NewMemoryStore(logger zerolog.Logger) Store {
	return &memoryStore{
		values: make(map[string][]byte),
		logger: logger.With().Str("repository", "preferences-memory").Logger(),
	}
}

func memoryKey(userID, key string) string {
	return userID + "/" + key
}

func (s *memoryStore) Get(ctx context.Context, userID, key string, dst any) (bool, error) {
	if !ValidKey(key) {
		return false, model.ErrInvalidPreference
	}

	s.mu.RLock()
	data, exists := s.values[memoryKey(userID, key)]
	s.mu.RUnlock()

	if !exists {
		return false, nil
	}
	return true, decode(key, data, dst)
}

func (s *memoryStore) Put(ctx context.Context, userID, key string, value any) error {
	data, err := encode(key, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.values[memoryKey(userID, key)] = data
	s.mu.Unlock()

	s.logger.Debug().Str("user_id", userID).Str("key", key).Msg("preference stored")

	return nil
}
