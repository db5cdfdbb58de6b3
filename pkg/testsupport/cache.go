package testsupport

import (
	"testing"

	"github.com/goliatone/go-repository-cache/cache"
)

// NewCache returns a go-repository-cache service with default settings and
// the default key serializer.
func NewCache(t testing.TB) (cache.CacheService, cache.KeySerializer) {
	t.Helper()
	service, err := cache.NewCacheService(cache.DefaultConfig())
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	return service, cache.NewDefaultKeySerializer()
}
