package store

import (
	"fmt"
	"strings"
	"sync"

	"simpledb/internal/config"
	"simpledb/internal/hash"
	dberrors "simpledb/pkg/errors"
	"simpledb/pkg/logger"
)

const (
	DefaultCapacity = config.DefaultCapacity
	MaxKeyLength    = 255
	MaxValueLength  = 4095

	none = -1 // empty bucket / end of chain / empty free list
)

// entry is one slot of the arena. Live entries are linked into their bucket's
// chain through next; released slots are linked into the free list instead.
type entry struct {
	key   string
	value string
	next  int
}

// Store is a fixed-capacity hash table with separate chaining. Chains are
// threaded through an entry arena by index, new keys go to the chain head.
// A single RWMutex guards the whole table.
type Store struct {
	mu       sync.RWMutex
	hashName string
	hash     hash.Func
	buckets  []int   // chain head per bucket, none when empty
	entries  []entry // arena
	free     int     // first released slot
	count    int     // live entries
}

// New creates a store with the default capacity and djb2 hashing.
func New() *Store {
	s, _ := NewWithOptions(DefaultCapacity, hash.DJB2)
	return s
}

// NewWithOptions creates a store with the given bucket count and named hash
// function. The capacity is fixed for the lifetime of the store.
func NewWithOptions(capacity int, hashName string) (*Store, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", dberrors.ErrInvalidCapacity, capacity)
	}
	f, err := hash.FromName(hashName)
	if err != nil {
		return nil, err
	}
	hashName = strings.ToLower(hashName)
	if hashName == "" {
		hashName = hash.DJB2
	}

	s := &Store{
		hashName: hashName,
		hash:     f,
		buckets:  make([]int, capacity),
		free:     none,
	}
	for i := range s.buckets {
		s.buckets[i] = none
	}
	logger.Debug("Created store", "capacity", capacity, "hash", hashName)
	return s, nil
}

// NewFromConfig creates a store sized and hashed per conf.
func NewFromConfig(conf *config.Config) (*Store, error) {
	return NewWithOptions(conf.Capacity, conf.HashFunction)
}

func validate(key, value string) error {
	if key == "" {
		return dberrors.ErrEmptyKey
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: %d > %d", dberrors.ErrKeyTooLong, len(key), MaxKeyLength)
	}
	if len(value) > MaxValueLength {
		return fmt.Errorf("%w: %d > %d", dberrors.ErrValueTooLong, len(value), MaxValueLength)
	}
	return nil
}

// usableLocked reports why the store cannot serve a call, if it cannot.
func (s *Store) usableLocked() error {
	if s.buckets == nil {
		return dberrors.ErrDestroyed
	}
	return nil
}

func (s *Store) indexOf(key string) int {
	return hash.Index(s.hash, key, len(s.buckets))
}

// findLocked returns the arena slot holding key, or none.
func (s *Store) findLocked(key string) int {
	for i := s.buckets[s.indexOf(key)]; i != none; i = s.entries[i].next {
		if s.entries[i].key == key {
			return i
		}
	}
	return none
}

// allocLocked reuses a released slot when one exists.
func (s *Store) allocLocked() int {
	if s.free == none {
		s.entries = append(s.entries, entry{})
		return len(s.entries) - 1
	}
	slot := s.free
	s.free = s.entries[slot].next
	return slot
}

func (s *Store) releaseLocked(slot int) {
	s.entries[slot] = entry{next: s.free}
	s.free = slot
}

// Set inserts key or replaces its value in place. Invalid input leaves the
// store untouched.
func (s *Store) Set(key, value string) error {
	if s == nil {
		return dberrors.ErrNilStore
	}
	if err := validate(key, value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}

	if slot := s.findLocked(key); slot != none {
		s.entries[slot].value = strings.Clone(value)
		return nil
	}

	idx := s.indexOf(key)
	slot := s.allocLocked()
	s.entries[slot] = entry{
		key:   strings.Clone(key),
		value: strings.Clone(value),
		next:  s.buckets[idx],
	}
	s.buckets[idx] = slot
	s.count++
	return nil
}

// Get returns the value stored under key. Absent keys, empty keys and nil or
// destroyed stores all report not found.
func (s *Store) Get(key string) (string, bool) {
	if s == nil || key == "" {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.usableLocked() != nil {
		return "", false
	}

	if slot := s.findLocked(key); slot != none {
		return s.entries[slot].value, true
	}
	return "", false
}

// Delete unlinks key from its chain and releases its slot.
func (s *Store) Delete(key string) error {
	if s == nil {
		return dberrors.ErrNilStore
	}
	if key == "" {
		return dberrors.ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}

	idx := s.indexOf(key)
	prev := none
	for i := s.buckets[idx]; i != none; prev, i = i, s.entries[i].next {
		if s.entries[i].key != key {
			continue
		}
		if prev == none {
			s.buckets[idx] = s.entries[i].next
		} else {
			s.entries[prev].next = s.entries[i].next
		}
		s.releaseLocked(i)
		s.count--
		return nil
	}
	return fmt.Errorf("%w: %q", dberrors.ErrKeyNotFound, key)
}

// Exists is Get without the value.
func (s *Store) Exists(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Count returns the number of live entries; 0 for a nil store.
func (s *Store) Count() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Capacity returns the fixed bucket count, 0 once destroyed.
func (s *Store) Capacity() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}

// HashFunction returns the configured hash function name.
func (s *Store) HashFunction() string {
	if s == nil {
		return ""
	}
	return s.hashName
}

// Clear drops every entry and empties every bucket.
func (s *Store) Clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usableLocked() != nil {
		return
	}

	dropped := s.count
	for i := range s.buckets {
		s.buckets[i] = none
	}
	s.entries = nil
	s.free = none
	s.count = 0
	if dropped > 0 {
		logger.Debug("Cleared store", "entries", dropped)
	}
}

// Destroy releases all entries and the bucket array. Later calls behave as on
// a nil store; destroying twice is a no-op.
func (s *Store) Destroy() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buckets == nil {
		return
	}

	logger.Debug("Destroyed store", "entries", s.count, "capacity", len(s.buckets))
	s.buckets = nil
	s.entries = nil
	s.free = none
	s.count = 0
}

// Keys returns a snapshot of every key, bucket by bucket in ascending order
// and newest first within a bucket.
func (s *Store) Keys() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, s.count)
	s.walkLocked(func(_ int, e *entry) {
		keys = append(keys, e.key)
	})
	return keys
}

// Items returns a snapshot copy of all key/value pairs.
func (s *Store) Items() map[string]string {
	if s == nil {
		return map[string]string{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make(map[string]string, s.count)
	s.walkLocked(func(_ int, e *entry) {
		items[e.key] = e.value
	})
	return items
}

// walkLocked visits live entries in enumeration order.
func (s *Store) walkLocked(fn func(bucket int, e *entry)) {
	for b, head := range s.buckets {
		for i := head; i != none; i = s.entries[i].next {
			fn(b, &s.entries[i])
		}
	}
}

func (s *Store) String() string {
	return fmt.Sprintf("<SimpleDB entries=%d>", s.Count())
}
