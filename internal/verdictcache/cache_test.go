package verdictcache_test

import (
	"testing"
	"time"

	"phishgate/internal/verdict"
	"phishgate/internal/verdictcache"
)

func TestCache_GetMiss(t *testing.T) {
	t.Parallel()
	c := verdictcache.New()
	if got := c.Get("https://example.com/"); got != nil {
		t.Errorf("expected nil on miss, got %+v", got)
	}
}

func TestCache_PutGet_Idempotent(t *testing.T) {
	t.Parallel()
	c := verdictcache.New()
	e := &verdict.Entry{URL: "https://example.com/", Result: verdict.Legitimate, Source: verdict.SourceDatabase}

	c.Put(e.URL, e, 30*time.Second)

	first := c.Get(e.URL)
	second := c.Get(e.URL)
	if first != e || second != e {
		t.Errorf("expected both gets to return the cached entry, got %+v / %+v", first, second)
	}
	if c.Size() != 1 {
		t.Errorf("expected size 1, got %d", c.Size())
	}
}

func TestCache_PutReplacesWholesale(t *testing.T) {
	t.Parallel()
	c := verdictcache.New()
	url := "https://example.com/"
	c.Put(url, &verdict.Entry{URL: url, Result: verdict.Unknown, Source: verdict.SourceError}, time.Minute)
	c.Put(url, &verdict.Entry{URL: url, Result: verdict.Phishing, Source: verdict.SourceDatabase}, time.Minute)

	got := c.Get(url)
	if got == nil || got.Result != verdict.Phishing || got.Source != verdict.SourceDatabase {
		t.Errorf("expected replaced entry, got %+v", got)
	}
	if c.Size() != 1 {
		t.Errorf("expected single live entry per URL, size = %d", c.Size())
	}
}

func TestCache_ExpiryIsLazy(t *testing.T) {
	t.Parallel()
	c := verdictcache.New()
	now := time.Now()
	c.SetNow(func() time.Time { return now })

	url := "https://example.com/"
	c.Put(url, &verdict.Entry{URL: url, Result: verdict.Legitimate, Source: verdict.SourceDatabase}, 30*time.Second)

	// Still live just inside the window.
	now = now.Add(29 * time.Second)
	if c.Get(url) == nil {
		t.Fatal("entry should still be live before expiry")
	}

	// Past expiry: treated as absent and physically removed by the lookup.
	now = now.Add(2 * time.Second)
	if got := c.Get(url); got != nil {
		t.Errorf("expected nil after expiry, got %+v", got)
	}
	if c.Size() != 0 {
		t.Errorf("expired entry should have been evicted on read, size = %d", c.Size())
	}
}

func TestCache_SizeCountsStaleUntilSwept(t *testing.T) {
	t.Parallel()
	c := verdictcache.New()
	now := time.Now()
	c.SetNow(func() time.Time { return now })

	c.Put("https://a.example/", &verdict.Entry{Result: verdict.Legitimate}, 10*time.Second)
	c.Put("https://b.example/", &verdict.Entry{Result: verdict.Legitimate}, time.Hour)

	now = now.Add(time.Minute)
	if c.Size() != 2 {
		t.Errorf("Size should include stale entries, got %d", c.Size())
	}

	c.Sweep()
	if c.Size() != 1 {
		t.Errorf("Sweep should drop only expired entries, size = %d", c.Size())
	}
}

func TestCache_DefaultTTLOnNonPositive(t *testing.T) {
	t.Parallel()
	c := verdictcache.New()
	now := time.Now()
	c.SetNow(func() time.Time { return now })

	c.Put("https://example.com/", &verdict.Entry{Result: verdict.Legitimate}, 0)

	now = now.Add(verdictcache.DefaultTTL - time.Second)
	if c.Get("https://example.com/") == nil {
		t.Error("entry should live for the default TTL")
	}
	now = now.Add(2 * time.Second)
	if c.Get("https://example.com/") != nil {
		t.Error("entry should expire after the default TTL")
	}
}
