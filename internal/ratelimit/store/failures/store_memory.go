package failures

import (
	"sync/atomic"
	"time"

	"syncauth/internal/ratelimit/models"
	psync "syncauth/pkg/platform/sync"
)

// Timer is a pending expiry. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// ArmFunc schedules the expiry of a freshly blocked record. It runs while the
// address's shard is locked, so it must return promptly and must not call back
// into the store. The generation identifies the record to Expire.
type ArmFunc func(address string, generation uint64) Timer

// Outcome describes the effect of a store mutation on one address.
type Outcome struct {
	Record models.FailureRecord
	// Tracked is false when the address cap prevented creating a record.
	Tracked bool
	// Created is true when this call started a new record.
	Created bool
	// Armed is true only for the single call that scheduled the expiry.
	Armed bool
	// Evicted names an unblocked address dropped to make room, if any.
	Evicted string
}

type entry struct {
	record     models.FailureRecord
	generation uint64
	expiry     Timer
}

// InMemoryFailureStore tracks per-address failure records across lock shards.
// Counter increments and the "expiry already scheduled" check happen under the
// same shard lock, so concurrent failures from one address schedule at most one
// expiry while unrelated addresses proceed in parallel.
type InMemoryFailureStore struct {
	records     *psync.ShardedMap[*entry]
	perShardCap int
	generations atomic.Uint64
}

type Option func(*InMemoryFailureStore)

// WithMaxTracked caps the number of tracked addresses. The cap is enforced per
// shard, so the effective total is rounded up to a multiple of the shard count.
func WithMaxTracked(n int) Option {
	return func(s *InMemoryFailureStore) {
		if n <= 0 {
			s.perShardCap = 0
			return
		}
		shards := s.records.Shards()
		s.perShardCap = (n + shards - 1) / shards
	}
}

func New(opts ...Option) *InMemoryFailureStore {
	s := &InMemoryFailureStore{
		records: psync.NewShardedMap[*entry](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordFailure increments the address's counter, creating the record at 1.
// When the new count exceeds threshold and no expiry is pending, arm is called
// exactly once and the record becomes blocked.
func (s *InMemoryFailureStore) RecordFailure(address string, threshold int, now time.Time, duration time.Duration, arm ArmFunc) Outcome {
	var out Outcome
	s.records.Do(address, func(items map[string]*entry) {
		e, exists := items[address]
		if !exists {
			if s.perShardCap > 0 && len(items) >= s.perShardCap {
				evicted, ok := evictUnblocked(items)
				if !ok {
					return
				}
				out.Evicted = evicted
			}
			e = &entry{
				record:     models.FailureRecord{Address: address},
				generation: s.generations.Add(1),
			}
			items[address] = e
			out.Created = true
		}
		e.record.Failures++
		out.Tracked = true
		out.Armed = armIfExceeded(e, threshold, now, duration, arm)
		out.Record = e.record
	})
	return out
}

// ArmIfExceeded schedules an expiry for an address whose counter already
// exceeds threshold but has none pending, e.g. after the threshold was lowered
// at runtime. It never changes the counter. exists is false when the address has
// no record.
func (s *InMemoryFailureStore) ArmIfExceeded(address string, threshold int, now time.Time, duration time.Duration, arm ArmFunc) (out Outcome, exists bool) {
	s.records.Do(address, func(items map[string]*entry) {
		e, ok := items[address]
		if !ok {
			return
		}
		exists = true
		out.Tracked = true
		out.Armed = armIfExceeded(e, threshold, now, duration, arm)
		out.Record = e.record
	})
	return out, exists
}

// Expire deletes the record for address if it is still the generation that
// scheduled the expiry. A newer record for the same address is left alone.
func (s *InMemoryFailureStore) Expire(address string, generation uint64) bool {
	removed := false
	s.records.Do(address, func(items map[string]*entry) {
		if e, ok := items[address]; ok && e.generation == generation {
			delete(items, address)
			removed = true
		}
	})
	return removed
}

// Clear drops the record for address and cancels its pending expiry.
func (s *InMemoryFailureStore) Clear(address string) bool {
	removed := false
	s.records.Do(address, func(items map[string]*entry) {
		e, ok := items[address]
		if !ok {
			return
		}
		if e.expiry != nil {
			e.expiry.Stop()
		}
		delete(items, address)
		removed = true
	})
	return removed
}

// Get returns a copy of the record for address.
func (s *InMemoryFailureStore) Get(address string) (models.FailureRecord, bool) {
	var (
		record models.FailureRecord
		found  bool
	)
	s.records.Do(address, func(items map[string]*entry) {
		if e, ok := items[address]; ok {
			record, found = e.record, true
		}
	})
	return record, found
}

// Len returns the number of tracked addresses.
func (s *InMemoryFailureStore) Len() int {
	return s.records.Len()
}

func armIfExceeded(e *entry, threshold int, now time.Time, duration time.Duration, arm ArmFunc) bool {
	if e.expiry != nil || !e.record.Exceeds(threshold) {
		return false
	}
	e.expiry = arm(e.record.Address, e.generation)
	e.record.Blocked = true
	e.record.BlockedAt = now
	e.record.ExpiresAt = now.Add(duration)
	return true
}

// evictUnblocked removes one record with no pending expiry. Blocked records
// are never evicted so a full shard cannot be used to lift a block.
func evictUnblocked(items map[string]*entry) (string, bool) {
	for address, e := range items {
		if e.expiry == nil {
			delete(items, address)
			return address, true
		}
	}
	return "", false
}
