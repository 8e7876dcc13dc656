// Package cache implements a process-local, TTL-based response cache sitting
// between source adapters and the orchestrator: responses are addressed by
// (source, today's date, hash of query parameters) and persisted as one JSON
// file per entry under a directory, with mutex-guarded reads and writes.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is the on-disk shape of a cached response.
type Entry struct {
	Source      string          `json:"source"`
	QueryParams json.RawMessage `json:"query_params"`
	CachedAt    time.Time       `json:"cached_at"`
	Data        json.RawMessage `json:"data"`
}

// Stats reports cache occupancy.
type Stats struct {
	Enabled bool
	Entries int
	Bytes   int64
}

// Cache is a directory-backed, TTL-keyed response cache. A zero-value Cache
// with Enabled=false behaves as a no-op: every Get misses and every Set is
// skipped without touching the filesystem.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
	mu      sync.Mutex // guards the directory against racing writers of the same key
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the default 24h TTL.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) { c.ttl = d }
}

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New constructs a disk-backed cache rooted at dir. When enabled is false,
// every Get misses and every Set is a no-op, without touching the
// filesystem.
func New(dir string, enabled bool, opts ...Option) (*Cache, error) {
	c := &Cache{
		dir:     dir,
		ttl:     24 * time.Hour,
		enabled: enabled,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.enabled {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache: create dir: %w", err)
		}
	}
	return c, nil
}

// Enabled reports whether the cache is globally active.
func (c *Cache) Enabled() bool { return c.enabled }

func fingerprint(params any) (string, error) {
	buf, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("cache: marshal params: %w", err)
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}

// key computes the (source-tag, today's date, hash(parameters)) cache key
// and the filename it maps to.
func (c *Cache) key(source string, params any) (string, string, error) {
	hash, err := fingerprint(params)
	if err != nil {
		return "", "", err
	}
	date := c.now().UTC().Format("2006-01-02")
	short := hash
	if len(short) > 12 {
		short = short[:12]
	}
	filename := fmt.Sprintf("%s_%s_%s.json", source, date, short)
	return filename, hash, nil
}

// Get retrieves a cached value for (source, params). ok is false on a miss,
// on a disabled cache, or when a stale entry is found; a stale entry's file
// is deleted as a side effect.
func (c *Cache) Get(source string, params any, out any) (ok bool, err error) {
	if !c.enabled {
		return false, nil
	}

	filename, _, err := c.key(source, params)
	if err != nil {
		return false, err
	}
	path := filepath.Join(c.dir, filename)

	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("cache: read %s: %w", path, err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// A corrupt entry is treated as a miss rather than a hard error.
		return false, nil
	}

	if c.now().Sub(entry.CachedAt) > c.ttl {
		_ = os.Remove(path)
		return false, nil
	}

	if out != nil {
		if err := json.Unmarshal(entry.Data, out); err != nil {
			return false, fmt.Errorf("cache: decode payload: %w", err)
		}
	}
	return true, nil
}

// Set stores value under (source, params). It returns false (never an
// error) when the cache is disabled.
func (c *Cache) Set(source string, params any, value any) (bool, error) {
	if !c.enabled {
		return false, nil
	}

	filename, _, err := c.key(source, params)
	if err != nil {
		return false, err
	}
	path := filepath.Join(c.dir, filename)

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return false, fmt.Errorf("cache: marshal params: %w", err)
	}
	dataJSON, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("cache: marshal value: %w", err)
	}

	entry := Entry{
		Source:      source,
		QueryParams: paramsJSON,
		CachedAt:    c.now(),
		Data:        dataJSON,
	}
	buf, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return false, fmt.Errorf("cache: marshal entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := writeAtomic(c.dir, path, buf); err != nil {
		return false, fmt.Errorf("cache: write %s: %w", path, err)
	}
	return true, nil
}

// writeAtomic writes data to a uniquely-named temp file in dir and renames it
// onto path, so a concurrent reader never observes a partial file.
func writeAtomic(dir, path string, data []byte) error {
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp-%s", uuid.New().String()))
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Clear removes entries, optionally scoped to a single source prefix, and
// returns the count removed.
func (c *Cache) Clear(source string) (int, error) {
	if !c.enabled {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("cache: list dir: %w", err)
	}

	count := 0
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		if source != "" && !strings.HasPrefix(name, source+"_") {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, name)); err == nil {
			count++
		}
	}
	return count, nil
}

// StatsOf reports occupancy by walking the cache directory.
func (c *Cache) StatsOf() (Stats, error) {
	stats := Stats{Enabled: c.enabled}
	if !c.enabled {
		return stats, nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("cache: list dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		info, err := os.Stat(filepath.Join(c.dir, name))
		if err != nil {
			continue
		}
		stats.Entries++
		stats.Bytes += info.Size()
	}
	return stats, nil
}
