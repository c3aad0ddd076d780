package store

import (
	"bufio"
	"fmt"
	"io"
)

// Stats describes how entries are spread over the buckets.
type Stats struct {
	TotalEntries    int `json:"total_entries"`
	TotalCollisions int `json:"total_collisions"` // entries beyond the first in each chain
	MaxChainLength  int `json:"max_chain_length"`
	UsedBuckets     int `json:"used_buckets"`
}

// AvgChainLength is entries per non-empty bucket.
func (st Stats) AvgChainLength() float64 {
	if st.UsedBuckets == 0 {
		return 0
	}
	return float64(st.TotalEntries) / float64(st.UsedBuckets)
}

// BucketUsage returns the percentage of capacity holding at least one entry.
func (st Stats) BucketUsage(capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return 100 * float64(st.UsedBuckets) / float64(capacity)
}

// LoadFactor is entries per bucket.
func (st Stats) LoadFactor(capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(st.TotalEntries) / float64(capacity)
}

// Stats scans every bucket once without modifying the store.
func (s *Store) Stats() Stats {
	var st Stats
	if s == nil {
		return st
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	st.TotalEntries = s.count
	for _, head := range s.buckets {
		if head == none {
			continue
		}
		st.UsedBuckets++
		length := 0
		for i := head; i != none; i = s.entries[i].next {
			length++
		}
		st.TotalCollisions += length - 1
		if length > st.MaxChainLength {
			st.MaxChainLength = length
		}
	}
	return st
}

// Dump writes the contents grouped by bucket, for debugging.
func (s *Store) Dump(w io.Writer) error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Database contents (%d entries):\n", s.count)
	fmt.Fprintln(bw, "═══════════════════════════════════════")
	last := none
	s.walkLocked(func(bucket int, e *entry) {
		if bucket != last {
			fmt.Fprintf(bw, "Bucket %d:\n", bucket)
			last = bucket
		}
		fmt.Fprintf(bw, "  %q => %q\n", e.key, e.value)
	})
	fmt.Fprintln(bw, "═══════════════════════════════════════")
	return bw.Flush()
}
