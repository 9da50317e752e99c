package sink

// BucketSort partitions items into keyed buckets in a single pass. Items
// sharing a key keep their relative input order; buckets are created on
// first occurrence of a key. The input is not mutated. Iteration order over
// the returned map is unspecified.
func BucketSort[T any, K comparable](items []T, keyOf func(T) K) map[K][]T {
	buckets := make(map[K][]T)
	for _, item := range items {
		key := keyOf(item)
		buckets[key] = append(buckets[key], item)
	}
	return buckets
}
