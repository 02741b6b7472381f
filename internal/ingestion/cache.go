package ingestion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/hackwatch/hackwatch/internal/models"
)

var commitsBucket = []byte("commits")

// Cache is a read-through commit cache backed by a single bbolt file.
// Entries are keyed by repository URL and expire after the TTL. Only
// error-free ingestion results are ever stored, so a hit can stand in
// for a full fetch.
type Cache struct {
	db  *bolt.DB
	ttl time.Duration
}

type cacheEntry struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Commits   []models.Commit `json:"commits"`
}

// OpenCache opens (creating if necessary) the cache file at path.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open commit cache %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(commitsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize commit cache: %w", err)
	}

	return &Cache{db: db, ttl: ttl}, nil
}

// Get returns the cached commits for a repository URL, treating stale
// or undecodable entries as misses.
func (c *Cache) Get(repoURL string) ([]models.Commit, bool) {
	var entry cacheEntry
	found := false

	_ = c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(commitsBucket).Get([]byte(repoURL))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil
		}
		found = true
		return nil
	})

	if !found {
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.FetchedAt) > c.ttl {
		return nil, false
	}
	return entry.Commits, true
}

// Put stores the commits for a repository URL.
func (c *Cache) Put(repoURL string, commits []models.Commit) error {
	raw, err := json.Marshal(cacheEntry{FetchedAt: time.Now().UTC(), Commits: commits})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(commitsBucket).Put([]byte(repoURL), raw)
	})
}

// Close releases the underlying database file.
func (c *Cache) Close() error {
	return c.db.Close()
}
