package store

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simpledb/internal/config"
	"simpledb/internal/hash"
	dberrors "simpledb/pkg/errors"
)

// key_0, key_1492 and key_1573 share bucket 893 under djb2 % 1024.
var collidingKeys = []string{"key_0", "key_1492", "key_1573"}

// checkInvariants walks the raw table: every entry sits in its hash bucket,
// keys are unique and the counter matches the chain lengths.
func checkInvariants(t *testing.T, s *Store) {
	t.Helper()
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	total := 0
	for b, head := range s.buckets {
		for i := head; i != none; i = s.entries[i].next {
			key := s.entries[i].key
			assert.Equal(t, b, s.indexOf(key), "key %q in wrong bucket", key)
			assert.False(t, seen[key], "duplicate key %q", key)
			seen[key] = true
			total++
		}
	}
	assert.Equal(t, s.count, total)
}

func TestStore_BasicOperations(t *testing.T) {
	s := New()

	require.NoError(t, s.Set("name", "Alice"))
	require.NoError(t, s.Set("age", "30"))
	require.NoError(t, s.Set("age", "31"))

	assert.Equal(t, 2, s.Count())
	val, ok := s.Get("age")
	assert.True(t, ok)
	assert.Equal(t, "31", val)
	val, ok = s.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "Alice", val)
	checkInvariants(t, s)
}

func TestStore_Missing(t *testing.T) {
	s := New()

	val, ok := s.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, val)
	assert.False(t, s.Exists("missing"))

	err := s.Delete("missing")
	assert.True(t, errors.Is(err, dberrors.ErrKeyNotFound))
	assert.False(t, dberrors.IsInvalidArgument(err))
	assert.Equal(t, 0, s.Count())
}

func TestStore_UpdateKeepsCount(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("k", "v1"))
	assert.Equal(t, 1, s.Count())

	require.NoError(t, s.Set("k", "v2"))
	assert.Equal(t, 1, s.Count())

	require.NoError(t, s.Set("k2", ""))
	assert.Equal(t, 2, s.Count())

	val, ok := s.Get("k2")
	assert.True(t, ok)
	assert.Equal(t, "", val)
}

func TestStore_LengthBounds(t *testing.T) {
	s := New()

	assert.NoError(t, s.Set(strings.Repeat("k", MaxKeyLength), "v"))
	assert.Equal(t, 1, s.Count())

	err := s.Set(strings.Repeat("k", MaxKeyLength+1), "v")
	assert.True(t, errors.Is(err, dberrors.ErrKeyTooLong))
	assert.Equal(t, 1, s.Count())

	assert.NoError(t, s.Set("big", strings.Repeat("v", MaxValueLength)))
	assert.Equal(t, 2, s.Count())

	err = s.Set("bigger", strings.Repeat("v", MaxValueLength+1))
	assert.True(t, errors.Is(err, dberrors.ErrValueTooLong))
	assert.False(t, s.Exists("bigger"))

	// an oversized update leaves the old value in place
	err = s.Set("big", strings.Repeat("v", MaxValueLength+1))
	assert.True(t, dberrors.IsInvalidArgument(err))
	val, _ := s.Get("big")
	assert.Len(t, val, MaxValueLength)

	err = s.Set("", "v")
	assert.True(t, errors.Is(err, dberrors.ErrEmptyKey))
	assert.Equal(t, 2, s.Count())
	checkInvariants(t, s)
}

func TestStore_DeleteCountDuality(t *testing.T) {
	s := New()
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("key_%d", i), "v"))
	}

	assert.NoError(t, s.Delete("key_3"))
	assert.Equal(t, 9, s.Count())
	assert.False(t, s.Exists("key_3"))

	before := s.Items()
	err := s.Delete("key_3")
	assert.True(t, errors.Is(err, dberrors.ErrKeyNotFound))
	assert.Equal(t, 9, s.Count())
	assert.Equal(t, before, s.Items())
	checkInvariants(t, s)
}

func TestStore_ChainOrder(t *testing.T) {
	s := New()
	for _, k := range collidingKeys {
		require.Equal(t, 893, hash.Index(hash.SumDJB2, k, DefaultCapacity))
		require.NoError(t, s.Set(k, "v"))
	}

	// newest first
	assert.Equal(t, []string{"key_1573", "key_1492", "key_0"}, s.Keys())

	// an update does not move the entry
	require.NoError(t, s.Set("key_0", "updated"))
	assert.Equal(t, []string{"key_1573", "key_1492", "key_0"}, s.Keys())

	st := s.Stats()
	assert.Equal(t, Stats{TotalEntries: 3, TotalCollisions: 2, MaxChainLength: 3, UsedBuckets: 1}, st)
}

func TestStore_DeleteWithinChain(t *testing.T) {
	tests := []struct {
		name   string
		remove string
		want   []string
	}{
		{"head", "key_1573", []string{"key_1492", "key_0"}},
		{"middle", "key_1492", []string{"key_1573", "key_0"}},
		{"tail", "key_0", []string{"key_1573", "key_1492"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			for _, k := range collidingKeys {
				require.NoError(t, s.Set(k, k+"-value"))
			}

			require.NoError(t, s.Delete(tt.remove))
			assert.Equal(t, tt.want, s.Keys())
			for _, k := range tt.want {
				val, ok := s.Get(k)
				assert.True(t, ok)
				assert.Equal(t, k+"-value", val)
			}
			checkInvariants(t, s)
		})
	}
}

func TestStore_FreeListReuse(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("a", "1"))
	require.NoError(t, s.Set("b", "2"))
	require.NoError(t, s.Delete("a"))

	require.NoError(t, s.Set("c", "3"))
	assert.Len(t, s.entries, 2, "released slot should be reused")
	assert.Equal(t, none, s.free)

	val, _ := s.Get("c")
	assert.Equal(t, "3", val)
	checkInvariants(t, s)
}

func TestStore_KeysSnapshot(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("name", "Alice"))
	require.NoError(t, s.Set("city", "New York"))

	keys := s.Keys()
	require.NoError(t, s.Delete("name"))
	s.Clear()

	sort.Strings(keys)
	assert.Equal(t, []string{"city", "name"}, keys)
}

func TestStore_KeysBucketOrder(t *testing.T) {
	s := New()
	// buckets: name=70, age=306, country=793, city=798
	for _, k := range []string{"city", "age", "country", "name"} {
		require.NoError(t, s.Set(k, "x"))
	}
	assert.Equal(t, []string{"name", "age", "country", "city"}, s.Keys())
}

func TestStore_Clear(t *testing.T) {
	s := New()
	for i := 0; i < 100; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("key_%d", i), "v"))
	}

	s.Clear()
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.Keys())
	assert.Equal(t, Stats{}, s.Stats())

	s.Clear()
	assert.Equal(t, 0, s.Count())
	assert.Equal(t, DefaultCapacity, s.Capacity())

	// still usable
	require.NoError(t, s.Set("after", "clear"))
	assert.Equal(t, 1, s.Count())
	checkInvariants(t, s)
}

func TestStore_StatsTwoThousandKeys(t *testing.T) {
	s := New()
	for i := 0; i < 2000; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("key_%d", i), fmt.Sprintf("value_%d", i)))
	}

	st := s.Stats()
	assert.Equal(t, 2000, s.Count())
	assert.Equal(t, s.Count(), st.TotalEntries)
	assert.LessOrEqual(t, st.UsedBuckets, DefaultCapacity)
	assert.Equal(t, s.Count()-st.UsedBuckets, st.TotalCollisions)
	assert.Equal(t, 713, st.UsedBuckets)
	assert.Equal(t, 6, st.MaxChainLength)
	assert.InDelta(t, 2000.0/713.0, st.AvgChainLength(), 1e-9)
	assert.InDelta(t, 100*713.0/1024.0, st.BucketUsage(s.Capacity()), 1e-9)
	assert.InDelta(t, 2000.0/1024.0, st.LoadFactor(s.Capacity()), 1e-9)
	assert.Zero(t, st.LoadFactor(0))
	assert.Zero(t, Stats{}.AvgChainLength())
	checkInvariants(t, s)
}

func TestStore_RandomOperations(t *testing.T) {
	s, err := NewWithOptions(16, hash.DJB2)
	require.NoError(t, err)

	model := make(map[string]string)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		key := fmt.Sprintf("k%d", rng.Intn(200))
		switch rng.Intn(4) {
		case 0, 1:
			val := fmt.Sprintf("v%d", i)
			require.NoError(t, s.Set(key, val))
			model[key] = val
		case 2:
			err := s.Delete(key)
			if _, ok := model[key]; ok {
				assert.NoError(t, err)
				delete(model, key)
			} else {
				assert.True(t, errors.Is(err, dberrors.ErrKeyNotFound))
			}
		case 3:
			val, ok := s.Get(key)
			want, wantOK := model[key]
			assert.Equal(t, wantOK, ok)
			assert.Equal(t, want, val)
		}
	}

	assert.Equal(t, len(model), s.Count())
	assert.Equal(t, model, s.Items())
	st := s.Stats()
	assert.Equal(t, s.Count(), st.TotalEntries)
	assert.Equal(t, st.TotalEntries-st.UsedBuckets, st.TotalCollisions)
	checkInvariants(t, s)
}

func TestStore_NilAndDestroyed(t *testing.T) {
	var nilStore *Store
	assert.True(t, errors.Is(nilStore.Set("k", "v"), dberrors.ErrNilStore))
	_, ok := nilStore.Get("k")
	assert.False(t, ok)
	assert.False(t, nilStore.Exists("k"))
	assert.True(t, errors.Is(nilStore.Delete("k"), dberrors.ErrNilStore))
	assert.Equal(t, 0, nilStore.Count())
	assert.Nil(t, nilStore.Keys())
	assert.Equal(t, Stats{}, nilStore.Stats())
	nilStore.Clear()
	nilStore.Destroy()

	s := New()
	require.NoError(t, s.Set("k", "v"))
	s.Destroy()
	s.Destroy()

	assert.Equal(t, 0, s.Count())
	assert.Equal(t, 0, s.Capacity())
	assert.True(t, errors.Is(s.Set("k", "v"), dberrors.ErrDestroyed))
	assert.True(t, errors.Is(s.Delete("k"), dberrors.ErrDestroyed))
	_, ok = s.Get("k")
	assert.False(t, ok)
	assert.Empty(t, s.Keys())
	s.Clear()
}

func TestNewWithOptions(t *testing.T) {
	_, err := NewWithOptions(0, hash.DJB2)
	assert.True(t, errors.Is(err, dberrors.ErrInvalidCapacity))

	_, err = NewWithOptions(8, "fnv")
	assert.True(t, errors.Is(err, dberrors.ErrUnknownHashFunction))

	s, err := NewWithOptions(1, "")
	require.NoError(t, err)
	assert.Equal(t, hash.DJB2, s.HashFunction())

	upper, err := NewWithOptions(8, "MurMur3")
	require.NoError(t, err)
	assert.Equal(t, hash.Murmur3, upper.HashFunction())
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("k%d", i), "v"))
	}
	st := s.Stats()
	assert.Equal(t, 1, st.UsedBuckets)
	assert.Equal(t, 5, st.MaxChainLength)
	assert.Equal(t, 4, st.TotalCollisions)
}

func TestNewFromConfig(t *testing.T) {
	for _, name := range []string{hash.DJB2, hash.Murmur3, hash.XXHash} {
		t.Run(name, func(t *testing.T) {
			conf := config.Default()
			conf.Capacity = 64
			conf.HashFunction = name

			s, err := NewFromConfig(conf)
			require.NoError(t, err)
			assert.Equal(t, 64, s.Capacity())
			assert.Equal(t, name, s.HashFunction())

			for i := 0; i < 300; i++ {
				require.NoError(t, s.Set(fmt.Sprintf("user:%d", i), "x"))
			}
			assert.Len(t, s.Keys(), 300)
			checkInvariants(t, s)
		})
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	const workers, perWorker = 8, 200

	var wg sync.WaitGroup
	wg.Add(workers * 2)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				assert.NoError(t, s.Set(fmt.Sprintf("w%d:%d", id, j), "v"))
			}
		}(w)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				s.Get(fmt.Sprintf("w%d:%d", id, j))
				s.Stats()
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, s.Count())
	checkInvariants(t, s)
}

func TestStore_DumpAndString(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("name", "Alice"))
	require.NoError(t, s.Set("age", "30"))

	var sb strings.Builder
	require.NoError(t, s.Dump(&sb))
	out := sb.String()
	assert.Contains(t, out, "Database contents (2 entries):")
	assert.Contains(t, out, "Bucket 70:\n  \"name\" => \"Alice\"\n")
	assert.Contains(t, out, "Bucket 306:\n  \"age\" => \"30\"\n")
	assert.Less(t, strings.Index(out, "Bucket 70"), strings.Index(out, "Bucket 306"))

	assert.Equal(t, "<SimpleDB entries=2>", s.String())
}
