package hash

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/twmb/murmur3"

	dberrors "simpledb/pkg/errors"
)

const (
	DJB2    = "djb2"
	Murmur3 = "murmur3"
	XXHash  = "xxhash"

	djb2Seed uint32 = 5381
)

// Func maps a key to an unbounded hash value. Index reduces it to a bucket.
type Func func(key string) uint64

// SumDJB2 runs the djb2 recurrence (h = h*33 + c) over the key bytes with
// 32-bit wraparound.
func SumDJB2(key string) uint64 {
	h := djb2Seed
	for i := 0; i < len(key); i++ {
		h = (h << 5) + h + uint32(key[i])
	}
	return uint64(h)
}

func sumMurmur3(key string) uint64 {
	return uint64(murmur3.StringSum32(key))
}

func sumXXHash(key string) uint64 {
	return xxhash.Sum64String(key)
}

// Index returns the bucket for key in a table of the given capacity.
func Index(f Func, key string, capacity int) int {
	return int(f(key) % uint64(capacity))
}

// FromName resolves a configured hash function name. An empty name selects djb2.
func FromName(name string) (Func, error) {
	switch strings.ToLower(name) {
	case "", DJB2:
		return SumDJB2, nil
	case Murmur3:
		return sumMurmur3, nil
	case XXHash:
		return sumXXHash, nil
	default:
		return nil, fmt.Errorf("%w: %q", dberrors.ErrUnknownHashFunction, name)
	}
}
