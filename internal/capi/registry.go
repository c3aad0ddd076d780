// Package capi exposes stores through opaque integer handles so they can be
// driven from code that shares neither Go pointers nor Go errors. Every call
// reports failure through its return value and never panics.
package capi

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"simpledb/internal/config"
	"simpledb/internal/store"
	dberrors "simpledb/pkg/errors"
	"simpledb/pkg/logger"
)

// Handle identifies a store. The zero handle is never issued and stands for
// a null store.
type Handle uint64

// Status is the numeric outcome of a mutating call.
type Status int32

const (
	StatusOK              Status = 0
	StatusInvalidArgument Status = 1
	StatusNotFound        Status = 2
	StatusInternal        Status = 3
)

func statusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, dberrors.ErrKeyNotFound):
		return StatusNotFound
	case dberrors.IsInvalidArgument(err):
		return StatusInvalidArgument
	default:
		return StatusInternal
	}
}

// Registry owns the stores behind issued handles.
type Registry struct {
	mu     sync.RWMutex
	stores map[Handle]*store.Store
	next   Handle
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[Handle]*store.Store)}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by the exported library.
func Default() *Registry {
	return defaultRegistry
}

// recoverTo turns a panic into a logged failure.
func recoverTo(op string) {
	if r := recover(); r != nil {
		logger.Error("Recovered panic at boundary", "op", op, "panic", r)
	}
}

func (r *Registry) lookup(h Handle) *store.Store {
	if h == 0 {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stores[h]
}

// resolve is lookup for calls that must tell an unknown handle apart.
func (r *Registry) resolve(h Handle) (*store.Store, error) {
	s := r.lookup(h)
	if s == nil {
		return nil, fmt.Errorf("%w: %d", dberrors.ErrInvalidHandle, h)
	}
	return s, nil
}

func (r *Registry) register(s *store.Store) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.stores[r.next] = s
	return r.next
}

// Create registers a default store. It returns 0 on failure.
func (r *Registry) Create() (h Handle) {
	defer recoverTo("create")
	return r.register(store.New())
}

// CreateFromConfig registers a store built from conf. It returns 0 on failure.
func (r *Registry) CreateFromConfig(conf *config.Config) (h Handle) {
	defer recoverTo("create")
	s, err := store.NewFromConfig(conf)
	if err != nil {
		logger.Warn("Failed to create store", "error", err)
		return 0
	}
	return r.register(s)
}

// Destroy tears down the store and forgets the handle. Unknown handles are ignored.
func (r *Registry) Destroy(h Handle) {
	defer recoverTo("destroy")
	r.mu.Lock()
	s, ok := r.stores[h]
	delete(r.stores, h)
	r.mu.Unlock()
	if ok {
		s.Destroy()
	}
}

// Len reports how many handles are live.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

func (r *Registry) SetStatus(h Handle, key, value string) (st Status) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Recovered panic at boundary", "op", "set", "panic", p)
			st = StatusInternal
		}
	}()
	s, err := r.resolve(h)
	if err != nil {
		return statusOf(err)
	}
	return statusOf(s.Set(key, value))
}

func (r *Registry) Set(h Handle, key, value string) bool {
	return r.SetStatus(h, key, value) == StatusOK
}

// Get copies out the value under key. Unknown handles read as not found.
func (r *Registry) Get(h Handle, key string) (value string, ok bool) {
	defer recoverTo("get")
	return r.lookup(h).Get(key)
}

func (r *Registry) DeleteStatus(h Handle, key string) (st Status) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Recovered panic at boundary", "op", "delete", "panic", p)
			st = StatusInternal
		}
	}()
	s, err := r.resolve(h)
	if err != nil {
		return statusOf(err)
	}
	return statusOf(s.Delete(key))
}

func (r *Registry) Delete(h Handle, key string) bool {
	return r.DeleteStatus(h, key) == StatusOK
}

func (r *Registry) Exists(h Handle, key string) bool {
	_, ok := r.Get(h, key)
	return ok
}

func (r *Registry) Count(h Handle) int {
	return r.lookup(h).Count()
}

func (r *Registry) Clear(h Handle) {
	defer recoverTo("clear")
	r.lookup(h).Clear()
}

// Keys returns owned copies of every key, nil for an unknown handle.
func (r *Registry) Keys(h Handle) (keys []string) {
	defer recoverTo("keys")
	return r.lookup(h).Keys()
}

func (r *Registry) Stats(h Handle) (st store.Stats) {
	defer recoverTo("stats")
	return r.lookup(h).Stats()
}

func (r *Registry) Dump(h Handle, w io.Writer) bool {
	defer recoverTo("print")
	s := r.lookup(h)
	if s == nil {
		return false
	}
	if err := s.Dump(w); err != nil {
		logger.Warn("Failed to print store", "error", err)
		return false
	}
	return true
}
