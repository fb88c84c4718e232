// Package dedup removes duplicate records by key, keeping the first
// occurrence in processing order.
package dedup

import mapset "github.com/deckarep/golang-set/v2"

// Unique walks items in order and keeps the first occurrence of each
// non-empty key. Items whose key is empty are always kept: the caller's
// key function is expected to fall back to a secondary identity before
// returning "". The operation is idempotent.
func Unique[T any](items []T, key func(T) string) []T {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if k != "" && !seen.Add(k) {
			continue
		}
		out = append(out, item)
	}
	return out
}
