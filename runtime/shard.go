package runtime

import (
	"github.com/cespare/xxhash/v2"
)

// DefaultShardCount keeps lock contention between unrelated rooms low
// without allocating a mutex per key.
const DefaultShardCount = 64

// shardIndex maps a key to one of n shards.
func shardIndex(key string, n int) int {
	return int(xxhash.Sum64String(key) % uint64(n))
}

func normalizeShardCount(n int) int {
	if n <= 0 {
		return DefaultShardCount
	}
	return n
}
