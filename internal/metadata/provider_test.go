package metadata

import (
	"context"
	"errors"
	"testing"
	"time"
)

// countingProvider returns canned responses and tracks upstream call counts.
type countingProvider struct {
	meta  *BookMetadata
	err   error
	calls int
}

func (p *countingProvider) LookupByISBN(_ context.Context, _ string) (*BookMetadata, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.meta, nil
}

func (p *countingProvider) LookupByTitleAuthor(_ context.Context, _, _ string) (*BookMetadata, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.meta, nil
}

func TestCachedProvider_MemoizesHits(t *testing.T) {
	upstream := &countingProvider{meta: &BookMetadata{Title: "Dune", ISBN: "9780441013593"}}
	cached := NewCachedProvider(upstream, time.Hour)

	ctx := context.Background()
	first, err := cached.LookupByISBN(ctx, "9780441013593")
	if err != nil {
		t.Fatalf("first lookup failed: %v", err)
	}
	second, err := cached.LookupByISBN(ctx, "9780441013593")
	if err != nil {
		t.Fatalf("second lookup failed: %v", err)
	}

	if upstream.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", upstream.calls)
	}
	if second.Title != "Dune" {
		t.Errorf("expected cached metadata, got %+v", second)
	}

	// Callers get copies, not the cached value itself.
	first.Title = "mutated"
	third, _ := cached.LookupByISBN(ctx, "9780441013593")
	if third.Title != "Dune" {
		t.Errorf("cache entry was mutated through a returned copy")
	}
}

func TestCachedProvider_MemoizesNotFound(t *testing.T) {
	upstream := &countingProvider{err: ErrNotFound}
	cached := NewCachedProvider(upstream, time.Hour)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := cached.LookupByTitleAuthor(ctx, "Unknown", "Nobody"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}

	if upstream.calls != 1 {
		t.Errorf("expected not-found to be cached after 1 call, got %d", upstream.calls)
	}
}

func TestCachedProvider_TransientErrorsNotCached(t *testing.T) {
	upstream := &countingProvider{err: errors.New("connection refused")}
	cached := NewCachedProvider(upstream, time.Hour)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := cached.LookupByISBN(ctx, "9780441013593"); err == nil {
			t.Fatal("expected an error")
		}
	}

	if upstream.calls != 3 {
		t.Errorf("expected every transient failure to retry upstream, got %d calls", upstream.calls)
	}
}

func TestCachedProvider_Expiry(t *testing.T) {
	upstream := &countingProvider{meta: &BookMetadata{Title: "Dune"}}
	cached := NewCachedProvider(upstream, time.Millisecond)

	ctx := context.Background()
	if _, err := cached.LookupByISBN(ctx, "9780441013593"); err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := cached.LookupByISBN(ctx, "9780441013593"); err != nil {
		t.Fatalf("lookup failed: %v", err)
	}

	if upstream.calls != 2 {
		t.Errorf("expected expired entry to refetch, got %d calls", upstream.calls)
	}
}

func TestCachedProvider_TitleAuthorKeyCaseInsensitive(t *testing.T) {
	upstream := &countingProvider{meta: &BookMetadata{Title: "Dune"}}
	cached := NewCachedProvider(upstream, time.Hour)

	ctx := context.Background()
	_, _ = cached.LookupByTitleAuthor(ctx, "Dune", "Frank Herbert")
	_, _ = cached.LookupByTitleAuthor(ctx, "DUNE", "frank herbert")

	if upstream.calls != 1 {
		t.Errorf("expected case-insensitive cache key, got %d calls", upstream.calls)
	}
}
