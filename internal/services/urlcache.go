package services

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCacheSize = 4096
	defaultCacheTTL  = time.Hour
	// signedURLMargin is how long before its signature expires a cached URL stops being served.
	signedURLMargin = 30 * time.Second
)

type cachedURL struct {
	url       string
	expiresAt time.Time // zero for permanent URLs
}

// URLCache memoizes resolved URLs by (asset id, size label). Signed URLs are
// additionally keyed by the window they were signed for. It is bounded in size
// and age, and never returns a signed URL whose window is about to close.
type URLCache struct {
	entries *expirable.LRU[string, cachedURL]
	now     func() time.Time
}

// NewURLCache builds a cache holding at most size entries for at most ttl each.
func NewURLCache(size int, ttl time.Duration) *URLCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &URLCache{
		entries: expirable.NewLRU[string, cachedURL](size, nil, ttl),
		now:     time.Now,
	}
}

func cacheKey(assetID, label string) string {
	return assetID + "_" + label
}

func signedKey(assetID, label string, ttl time.Duration) string {
	return cacheKey(assetID, label) + "@" + ttl.String()
}

// Get returns the permanent URL of (assetID, label), or else a URL signed for ttl.
func (c *URLCache) Get(assetID, label string, ttl time.Duration) (string, bool) {
	if entry, ok := c.entries.Get(cacheKey(assetID, label)); ok {
		return entry.url, true
	}
	key := signedKey(assetID, label, ttl)
	entry, ok := c.entries.Get(key)
	if !ok {
		return "", false
	}
	if !c.now().Add(signedURLMargin).Before(entry.expiresAt) {
		c.entries.Remove(key)
		return "", false
	}
	return entry.url, true
}

// Put stores url; expiresAt is the signature expiry, or zero for a permanent URL,
// and ttl the window a signed URL was issued for.
func (c *URLCache) Put(assetID, label, url string, expiresAt time.Time, ttl time.Duration) {
	key := cacheKey(assetID, label)
	if !expiresAt.IsZero() {
		key = signedKey(assetID, label, ttl)
	}
	c.entries.Add(key, cachedURL{url: url, expiresAt: expiresAt})
}

// Forget drops every cached URL of an asset.
func (c *URLCache) Forget(assetID string) {
	prefix := assetID + "_"
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.entries.Remove(key)
		}
	}
}

func (c *URLCache) Len() int {
	return c.entries.Len()
}
