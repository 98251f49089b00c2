package notification

import (
	"context"
	"sync"

	"github.com/phrazzld/latewatch/internal/domain"
)

// ConfigStore holds the current notification config of each project.
type ConfigStore interface {
	// Get returns the config for projectID. ok is false when none was received.
	Get(ctx context.Context, projectID int64) (cfg domain.NotificationConfig, ok bool, err error)

	// Put replaces the whole config for cfg.ProjectID.
	Put(ctx context.Context, cfg domain.NotificationConfig) error
}

// MemoryConfigStore is a process-local ConfigStore. Entries are never evicted.
type MemoryConfigStore struct {
	mu      sync.RWMutex
	configs map[int64]domain.NotificationConfig
}

// NewMemoryConfigStore creates an empty MemoryConfigStore.
func NewMemoryConfigStore() *MemoryConfigStore {
	return &MemoryConfigStore{configs: make(map[int64]domain.NotificationConfig)}
}

var _ ConfigStore = (*MemoryConfigStore)(nil)

// Get implements ConfigStore.
func (s *MemoryConfigStore) Get(_ context.Context, projectID int64) (domain.NotificationConfig, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[projectID]
	return cfg, ok, nil
}

// Put implements ConfigStore.
func (s *MemoryConfigStore) Put(_ context.Context, cfg domain.NotificationConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.ProjectID] = cfg
	return nil
}

// Len returns the number of projects with a config.
func (s *MemoryConfigStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.configs)
}
