package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/stake-plus/gemtracker/src/shared/tracking"
)

// DefaultCacheKey is where the shared snapshot lives in Redis.
const DefaultCacheKey = "gemtracker:catalog:snapshot"

// fetchTimeout bounds a shared upstream fetch, which outlives any single caller.
const fetchTimeout = 30 * time.Second

type snapshot struct {
	Fingerprint uint64                  `json:"fingerprint"`
	FetchedAt   time.Time               `json:"fetchedAt"`
	Entries     []tracking.CatalogEntry `json:"entries"`
}

// CachedSource keeps the last catalog snapshot in Redis for a short TTL and collapses
// concurrent fetches into one upstream request. A nil client or a zero TTL disables the
// Redis layer.
type CachedSource struct {
	source tracking.CatalogSource
	rdb    *redis.Client
	key    string
	ttl    time.Duration

	group           singleflight.Group
	lastFingerprint atomic.Uint64
}

var _ tracking.CatalogInvalidator = (*CachedSource)(nil)

// NewCachedSource wraps source.
func NewCachedSource(source tracking.CatalogSource, rdb *redis.Client, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		rdb:    rdb,
		key:    DefaultCacheKey,
		ttl:    ttl,
	}
}

// FetchCatalog returns the cached snapshot when fresh, otherwise fetches upstream.
func (c *CachedSource) FetchCatalog(ctx context.Context) ([]tracking.CatalogEntry, error) {
	if entries, ok := c.load(ctx); ok {
		return entries, nil
	}

	v, err, _ := c.group.Do(c.key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		entries, err := c.source.FetchCatalog(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.save(fetchCtx, entries)
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]tracking.CatalogEntry), nil
}

func (c *CachedSource) enabled() bool {
	return c.rdb != nil && c.ttl > 0
}

func (c *CachedSource) load(ctx context.Context) ([]tracking.CatalogEntry, bool) {
	if !c.enabled() {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Printf("catalog: read cached snapshot: %v", err)
		return nil, false
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		log.Printf("catalog: discard unreadable snapshot: %v", err)
		return nil, false
	}
	return snap.Entries, true
}

func (c *CachedSource) save(ctx context.Context, entries []tracking.CatalogEntry) {
	fp := Fingerprint(entries)
	if prev := c.lastFingerprint.Swap(fp); prev != fp {
		log.Printf("catalog: snapshot changed (%d entries, fingerprint %016x)", len(entries), fp)
	}
	if !c.enabled() {
		return
	}

	raw, err := json.Marshal(snapshot{Fingerprint: fp, FetchedAt: time.Now().UTC(), Entries: entries})
	if err != nil {
		log.Printf("catalog: encode snapshot: %v", err)
		return
	}
	if err := c.rdb.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		log.Printf("catalog: cache snapshot: %v", err)
	}
}

// Invalidate drops the cached snapshot so the next fetch goes upstream.
func (c *CachedSource) Invalidate(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("catalog: invalidate: %w", err)
	}
	return nil
}

// Fingerprint hashes a snapshot so changes can be spotted without comparing entries.
func Fingerprint(entries []tracking.CatalogEntry) uint64 {
	h := xxhash.New64()
	for _, e := range entries {
		h.WriteString(e.Name)
		h.Write([]byte{0})
		h.WriteString(e.Author)
		h.Write([]byte{0})
		h.WriteString(e.Badge)
		h.Write([]byte{0x1e})
	}
	return h.Sum64()
}
