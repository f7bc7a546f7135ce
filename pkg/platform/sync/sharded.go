// Package sync provides a lock-sharded map for per-key state that many
// goroutines update at once, such as failure counters keyed by address.
package sync

import (
	"hash/maphash"
	"sync"
)

const shardCount = 32

// ShardedMap spreads string keys over 32 mutex-guarded shards. Operations on
// one key are serialized; unrelated keys rarely share a lock.
//
// Keys are often client controlled, so shard selection uses a per-map random
// seed and cannot be steered onto one shard.
type ShardedMap[V any] struct {
	seed   maphash.Seed
	shards [shardCount]shard[V]
}

type shard[V any] struct {
	mu    sync.Mutex
	items map[string]V
}

func NewShardedMap[V any]() *ShardedMap[V] {
	m := &ShardedMap[V]{seed: maphash.MakeSeed()}
	for i := range m.shards {
		m.shards[i].items = make(map[string]V)
	}
	return m
}

// Do runs fn while holding the lock of key's shard. fn sees every entry of
// that shard and may mutate them, but must not call back into m.
func (m *ShardedMap[V]) Do(key string, fn func(items map[string]V)) {
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.items)
}

func (m *ShardedMap[V]) Get(key string) (V, bool) {
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok
}

// Len locks shards one after another, so concurrent writers can make the
// total slightly stale.
func (m *ShardedMap[V]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		n += len(s.items)
		s.mu.Unlock()
	}
	return n
}

func (m *ShardedMap[V]) Shards() int {
	return shardCount
}

func (m *ShardedMap[V]) shard(key string) *shard[V] {
	return &m.shards[m.shardFor(key)]
}

func (m *ShardedMap[V]) shardFor(key string) int {
	return int(maphash.String(m.seed, key) % shardCount)
}
