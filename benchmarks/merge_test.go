package benchmarks

import (
	"fmt"
	"testing"
	"time"

	"github.com/kmorrisey/watchwire/pkg/watchwire/feed"
)

// record is a minimal mergeable item.
type record struct {
	id string
	at time.Time
}

func (r record) Key() string          { return r.id }
func (r record) EventTime() time.Time { return r.at }

// buildList creates n records with interleaved timestamps. Lists built
// with overlapping offsets share ids, exercising the dedup path.
func buildList(n, offset int) []record {
	base := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	out := make([]record, n)
	for i := 0; i < n; i++ {
		out[i] = record{
			id: fmt.Sprintf("r-%d", offset+i),
			at: base.Add(time.Duration((offset+i)*7%n) * time.Second),
		}
	}
	return out
}

// BenchmarkMerge_2x10 merges two 10-item lists.
func BenchmarkMerge_2x10(b *testing.B) {
	a, c := buildList(10, 0), buildList(10, 5)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		feed.Merge(a, c)
	}
}

// BenchmarkMerge_2x100 merges two 100-item lists.
func BenchmarkMerge_2x100(b *testing.B) {
	a, c := buildList(100, 0), buildList(100, 50)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		feed.Merge(a, c)
	}
}

// BenchmarkMerge_2x1000 merges two 1000-item lists.
func BenchmarkMerge_2x1000(b *testing.B) {
	a, c := buildList(1000, 0), buildList(1000, 500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		feed.Merge(a, c)
	}
}

// BenchmarkMerge_4x250 merges four lists, simulating a four-tier feed.
func BenchmarkMerge_4x250(b *testing.B) {
	lists := [][]record{
		buildList(250, 0),
		buildList(250, 125),
		buildList(250, 250),
		buildList(250, 375),
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		feed.Merge(lists...)
	}
}

// BenchmarkQueryKey measures key canonicalization.
func BenchmarkQueryKey(b *testing.B) {
	filters := map[string]string{
		"risk_levels": "high,critical",
		"camera_id":   "front-door",
		"zone_id":     "porch",
	}
	for i := 0; i < b.N; i++ {
		feed.QueryKey("alerts", filters, 20)
	}
}
