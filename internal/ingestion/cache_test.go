package ingestion

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackwatch/hackwatch/internal/models"
)

func TestCacheRoundTrip(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "commits.db"), time.Hour)
	require.NoError(t, err)
	defer cache.Close()

	commits := []models.Commit{
		{SHA: "aaa", Author: "A", Email: "a@x", Timestamp: "2026-02-21T12:00:00Z", Message: "m", FilesChanged: []string{"a.go"}},
	}
	require.NoError(t, cache.Put("https://github.com/acme/widget", commits))

	got, ok := cache.Get("https://github.com/acme/widget")
	require.True(t, ok)
	assert.Equal(t, commits, got)

	_, ok = cache.Get("https://github.com/acme/other")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "commits.db"), time.Millisecond)
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.Put("https://github.com/acme/widget", []models.Commit{{SHA: "aaa"}}))
	time.Sleep(5 * time.Millisecond)

	_, ok := cache.Get("https://github.com/acme/widget")
	assert.False(t, ok, "stale entries are misses")
}
