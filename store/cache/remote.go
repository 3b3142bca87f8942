package cache

import (
	"context"
	"os"
	"time"
)

// RemoteCache is the optional shared L2 tier. A single-process
// deployment runs fine without it; it only matters when several
// instances should see each other's search results.
//
// To back it with Redis:
//  1. go get github.com/redis/go-redis/v9
//  2. implement this interface on top of the client
//  3. pass the implementation to NewTiered
type RemoteCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context)
	Close() error
}

// RemoteEnabled reports whether a remote cache address is configured.
func RemoteEnabled() bool {
	return os.Getenv("VOYAGENT_CACHE_REDIS_ADDR") != ""
}

// NilRemoteCache is a no-op RemoteCache so the tiered cache works
// without a remote backend.
type NilRemoteCache struct{}

func NewNilRemoteCache() *NilRemoteCache { return &NilRemoteCache{} }

func (*NilRemoteCache) Get(context.Context, string) ([]byte, bool)          { return nil, false }
func (*NilRemoteCache) Set(context.Context, string, []byte, time.Duration) {}
func (*NilRemoteCache) Delete(context.Context, string)                     {}
func (*NilRemoteCache) Clear(context.Context)                              {}
func (*NilRemoteCache) Close() error                                       { return nil }
