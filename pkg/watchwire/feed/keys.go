package feed

import (
	"fmt"
	"sort"
	"strings"
)

// QueryKey builds a deterministic identity key from a logical resource
// name, filter parameters, and page size. Identical parameters always
// produce identical keys; any differing parameter produces a different
// key. Keys are used by the session cache to collapse identical
// in-flight requests and to scope invalidation.
func QueryKey(resource string, filters map[string]string, pageSize int) string {
	var b strings.Builder
	b.WriteString(resource)

	// Canonical filter order so map iteration order never leaks in.
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(&b, "|%s=%s", name, filters[name])
	}
	fmt.Fprintf(&b, "|page_size=%d", pageSize)

	return b.String()
}

// PageKey extends a query key with a cursor, identifying one concrete
// page fetch.
func PageKey(queryKey, cursor string) string {
	return queryKey + "|cursor=" + cursor
}
