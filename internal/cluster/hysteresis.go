package cluster

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// ShouldRecluster decides whether the tag set changed enough to throw
// away stored cluster assignments. Reclustering runs on the first pass
// (lastTagCount == 0) or when the absolute tag-count change exceeds
// max(25, 5% of the previous count). Anything smaller reuses stored
// assignments and only attaches brand-new tags.
func ShouldRecluster(lastTagCount, currentTagCount int) bool {
	if lastTagCount == 0 {
		return true
	}

	threshold := lastTagCount / 20
	if threshold < 25 {
		threshold = 25
	}

	delta := currentTagCount - lastTagCount
	if delta < 0 {
		delta = -delta
	}
	return delta > threshold
}

// TagSetHash hashes the sorted tag name set. Stored alongside the tag
// count so a later pass can tell whether the set itself drifted.
func TagSetHash(names []string) string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	h := fnv.New64a()
	for _, name := range sorted {
		_, _ = h.Write([]byte(strings.ToLower(name)))
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
