package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ndemidenko/habitbot/internal/domain"
)

// SettingsStore is an in-memory implementation of domain.SettingsStore.
// It is NOT persistent and is only suitable for development and tests.
type SettingsStore struct {
	mu       sync.RWMutex
	settings map[domain.UserID][]byte
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{
		settings: make(map[domain.UserID][]byte),
	}
}

// Entries are stored JSON-encoded so callers get the same decode
// round-trip behavior as the blob-backed store.
func (s *SettingsStore) Save(ctx context.Context, id domain.UserID, settings *domain.UserSettings) error {
	b, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[id] = b
	return nil
}

func (s *SettingsStore) Load(ctx context.Context, id domain.UserID) (*domain.UserSettings, error) {
	s.mu.RLock()
	b, ok := s.settings[id]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSettingsNotFound
	}

	var out domain.UserSettings
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SettingsStore) LoadAll(ctx context.Context) (map[domain.UserID]*domain.UserSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.UserID]*domain.UserSettings, len(s.settings))
	for id, b := range s.settings {
		var st domain.UserSettings
		if err := json.Unmarshal(b, &st); err != nil {
			return nil, err
		}
		out[id] = &st
	}
	return out, nil
}
