// Command libsimpledb builds the store as a C shared library:
//
//	go build -buildmode=c-shared -o libsimpledb.so ./cmd/libsimpledb
//
// Stores are addressed by opaque handles; 0 is the null handle. Strings
// returned by db_get and db_keys are malloc'd copies owned by the caller and
// must be released with db_free_string and db_free_keys. Callers written
// against the older ABI, where db_get returned a borrowed pointer into the
// entry, leak one allocation per lookup until they add the free.
package main

/*
#include <stdbool.h>
#include <stddef.h>
#include <stdint.h>

typedef struct DBStats {
	size_t total_entries;
	size_t total_collisions;
	size_t max_chain_length;
	size_t used_buckets;
} DBStats;
*/
import "C"

import (
	"os"

	"simpledb/internal/capi"
	"simpledb/internal/config"
	"simpledb/pkg/logger"
)

// ConfigEnv names a YAML file applied to every store the library creates.
const ConfigEnv = "SIMPLEDB_CONFIG"

var conf = config.Default()

func init() {
	path := os.Getenv(ConfigEnv)
	if path == "" {
		return
	}
	c, err := config.FromFile(path)
	if err != nil {
		logger.Error("Failed to load config, using defaults", "path", path, "error", err)
		return
	}
	if err := logger.InitLogger(c.LogLevel, c.LogFile); err != nil {
		logger.Error("Failed to init logger", "error", err)
	}
	conf = c
}

func handle(h C.uintptr_t) capi.Handle {
	return capi.Handle(h)
}

//export db_create
func db_create() C.uintptr_t {
	return C.uintptr_t(capi.Default().CreateFromConfig(conf))
}

//export db_destroy
func db_destroy(h C.uintptr_t) {
	capi.Default().Destroy(handle(h))
}

//export db_set
func db_set(h C.uintptr_t, key, value *C.char) C.bool {
	return db_set_ex(h, key, value) == C.int(capi.StatusOK)
}

// db_set_ex is db_set reporting a capi.Status code.
//
//export db_set_ex
func db_set_ex(h C.uintptr_t, key, value *C.char) C.int {
	k, ok := goString(key)
	if !ok {
		return C.int(capi.StatusInvalidArgument)
	}
	v, ok := goString(value)
	if !ok {
		return C.int(capi.StatusInvalidArgument)
	}
	return C.int(capi.Default().SetStatus(handle(h), k, v))
}

//export db_get
func db_get(h C.uintptr_t, key *C.char) *C.char {
	k, ok := goString(key)
	if !ok {
		return nil
	}
	value, ok := capi.Default().Get(handle(h), k)
	if !ok {
		return nil
	}
	return cString(value)
}

//export db_free_string
func db_free_string(s *C.char) {
	freeString(s)
}

//export db_delete
func db_delete(h C.uintptr_t, key *C.char) C.bool {
	return db_delete_ex(h, key) == C.int(capi.StatusOK)
}

//export db_delete_ex
func db_delete_ex(h C.uintptr_t, key *C.char) C.int {
	k, ok := goString(key)
	if !ok {
		return C.int(capi.StatusInvalidArgument)
	}
	return C.int(capi.Default().DeleteStatus(handle(h), k))
}

//export db_exists
func db_exists(h C.uintptr_t, key *C.char) C.bool {
	k, ok := goString(key)
	if !ok {
		return false
	}
	return C.bool(capi.Default().Exists(handle(h), k))
}

//export db_count
func db_count(h C.uintptr_t) C.size_t {
	return C.size_t(capi.Default().Count(handle(h)))
}

//export db_clear
func db_clear(h C.uintptr_t) {
	capi.Default().Clear(handle(h))
}

// db_keys returns a malloc'd array of owned key copies and stores its length
// in *count. An empty or unknown store yields NULL with *count = 0.
//
//export db_keys
func db_keys(h C.uintptr_t, count *C.size_t) **C.char {
	if count == nil {
		return nil
	}
	keys := capi.Default().Keys(handle(h))
	*count = C.size_t(len(keys))
	return cStrings(keys)
}

//export db_free_keys
func db_free_keys(keys **C.char, count C.size_t) {
	freeStrings(keys, count)
}

//export db_stats
func db_stats(h C.uintptr_t) C.DBStats {
	st := capi.Default().Stats(handle(h))
	return C.DBStats{
		total_entries:    C.size_t(st.TotalEntries),
		total_collisions: C.size_t(st.TotalCollisions),
		max_chain_length: C.size_t(st.MaxChainLength),
		used_buckets:     C.size_t(st.UsedBuckets),
	}
}

//export db_print
func db_print(h C.uintptr_t) {
	capi.Default().Dump(handle(h), os.Stdout)
}

func main() {}
