// Package metadata resolves partial book references to full bibliographic
// metadata via external sources.
package metadata

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrNotFound signals that a lookup completed but resolved to nothing.
// Callers treat it as a normal outcome, not a failure.
var ErrNotFound = errors.New("metadata: book not found")

// BookMetadata contains enriched book information from external sources.
type BookMetadata struct {
	Title      string   `json:"title,omitempty"`
	Author     string   `json:"author,omitempty"`
	ISBN       string   `json:"isbn,omitempty"`
	PageCount  int      `json:"page_count,omitempty"`
	Genre      string   `json:"genre,omitempty"`
	Synopsis   string   `json:"synopsis,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	SeriesName string   `json:"series_name,omitempty"`
	SourceKey  string   `json:"source_key,omitempty"` // provider-internal identifier
}

// Provider defines the two lookups the import pipeline depends on.
// Both are idempotent and side-effect-free; either may return ErrNotFound.
type Provider interface {
	LookupByISBN(ctx context.Context, isbn string) (*BookMetadata, error)
	LookupByTitleAuthor(ctx context.Context, title, author string) (*BookMetadata, error)
}

type cacheEntry struct {
	meta     *BookMetadata
	notFound bool
	expires  time.Time
}

// CachedProvider memoizes lookups for a fixed TTL. Both hits and not-found
// results are cached so that repeated rows within one file (and a re-parse of
// the same file) cost at most one upstream call per key.
type CachedProvider struct {
	provider Provider
	ttl      time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCachedProvider wraps a provider with a TTL lookup cache.
func NewCachedProvider(provider Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		ttl:      ttl,
		entries:  make(map[string]cacheEntry),
	}
}

func (c *CachedProvider) LookupByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	return c.lookup(ctx, "isbn|"+isbn, func() (*BookMetadata, error) {
		return c.provider.LookupByISBN(ctx, isbn)
	})
}

func (c *CachedProvider) LookupByTitleAuthor(ctx context.Context, title, author string) (*BookMetadata, error) {
	key := "ta|" + strings.ToLower(title) + "|" + strings.ToLower(author)
	return c.lookup(ctx, key, func() (*BookMetadata, error) {
		return c.provider.LookupByTitleAuthor(ctx, title, author)
	})
}

func (c *CachedProvider) lookup(ctx context.Context, key string, fetch func() (*BookMetadata, error)) (*BookMetadata, error) {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && time.Now().Before(entry.expires) {
		c.mu.Unlock()
		if entry.notFound {
			return nil, ErrNotFound
		}
		copied := *entry.meta
		return &copied, nil
	}
	c.mu.Unlock()

	meta, err := fetch()
	if err != nil {
		// Only the definitive not-found outcome is cacheable; transient
		// failures (timeouts, 5xx) must stay retryable.
		if errors.Is(err, ErrNotFound) {
			c.store(key, cacheEntry{notFound: true, expires: time.Now().Add(c.ttl)})
		}
		return nil, err
	}

	c.store(key, cacheEntry{meta: meta, expires: time.Now().Add(c.ttl)})
	copied := *meta
	return &copied, nil
}

func (c *CachedProvider) store(key string, entry cacheEntry) {
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Compile-time interface check
var _ Provider = (*CachedProvider)(nil)
