package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mmcdole/vdp/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Registry keys. Each registry is one versioned document.
const (
	ProgressKey = "vdp-progress"
	OfflineKey  = "vdp-offline-audio"

	registryVersion = 1
)

var bucketRegistries = []byte("registries")

// registryDoc is the serialized form of a registry.
type registryDoc[T any] struct {
	Version int          `json:"version"`
	Records map[string]T `json:"records"`
}

// Store implements domain.ProgressStore and domain.OfflineRegistry on
// BoltDB. Two registries live side by side under fixed keys.
type Store struct {
	db     *bolt.DB
	mu     sync.RWMutex // Protects memory cache
	writes sync.Mutex   // Serializes read-modify-write of a registry
	logger *slog.Logger

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

var (
	_ domain.ProgressStore   = (*Store)(nil)
	_ domain.OfflineRegistry = (*Store)(nil)
)

// NewStore opens (or creates) the registry database at path.
// An empty path gives a memory-only store.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return &Store{cache: make(map[string][]byte), logger: logger}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRegistries)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, cache: make(map[string][]byte), logger: logger}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *Store) raw(key string) []byte {
	s.mu.RLock()
	if data, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return data
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRegistries)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return nil
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	return data
}

func (s *Store) put(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketRegistries).Put([]byte(key), data)
		})
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}

	// Memory follows disk so a failed write never shows up in reads
	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()
	return nil
}

// load decodes a registry. Missing, unreadable or unknown-version content
// degrades to an empty registry.
func load[T any](s *Store, key string) map[string]T {
	data := s.raw(key)
	if data == nil {
		return make(map[string]T)
	}

	var doc registryDoc[T]
	if err := json.Unmarshal(data, &doc); err == nil && doc.Version == registryVersion && doc.Records != nil {
		return doc.Records
	}

	// Pre-versioned registries were a bare id -> record map
	var legacy map[string]T
	if err := json.Unmarshal(data, &legacy); err == nil && legacy != nil {
		return legacy
	}

	s.logger.Warn("registry unreadable, starting empty", "key", key)
	return make(map[string]T)
}

func save[T any](s *Store, key string, records map[string]T) error {
	return s.put(key, registryDoc[T]{Version: registryVersion, Records: records})
}

// update runs a read-modify-write of one registry under the write lock.
func update[T any](s *Store, key string, fn func(records map[string]T)) error {
	s.writes.Lock()
	defer s.writes.Unlock()

	records := load[T](s, key)
	fn(records)
	return save(s, key, records)
}

// === Progress registry ===

func (s *Store) GetProgress(id string) (domain.ProgressRecord, bool) {
	rec, ok := load[domain.ProgressRecord](s, ProgressKey)[id]
	return rec, ok
}

func (s *Store) SetProgress(id string, rec domain.ProgressRecord) error {
	return update(s, ProgressKey, func(m map[string]domain.ProgressRecord) {
		m[id] = rec
	})
}

func (s *Store) DeleteProgress(id string) error {
	return update(s, ProgressKey, func(m map[string]domain.ProgressRecord) {
		delete(m, id)
	})
}

func (s *Store) AllProgress() map[string]domain.ProgressRecord {
	return load[domain.ProgressRecord](s, ProgressKey)
}

func (s *Store) ClearProgress() error {
	s.writes.Lock()
	defer s.writes.Unlock()
	return save(s, ProgressKey, map[string]domain.ProgressRecord{})
}

// === Offline registry ===

func (s *Store) GetOffline(id string) (domain.OfflineRecord, bool) {
	rec, ok := load[domain.OfflineRecord](s, OfflineKey)[id]
	return rec, ok
}

func (s *Store) SetOffline(id string, rec domain.OfflineRecord) error {
	return update(s, OfflineKey, func(m map[string]domain.OfflineRecord) {
		m[id] = rec
	})
}

func (s *Store) DeleteOffline(id string) error {
	return update(s, OfflineKey, func(m map[string]domain.OfflineRecord) {
		delete(m, id)
	})
}

func (s *Store) AllOffline() map[string]domain.OfflineRecord {
	return load[domain.OfflineRecord](s, OfflineKey)
}

func (s *Store) CountOffline() int {
	return len(load[domain.OfflineRecord](s, OfflineKey))
}

func (s *Store) ClearOffline() error {
	s.writes.Lock()
	defer s.writes.Unlock()
	return save(s, OfflineKey, map[string]domain.OfflineRecord{})
}
