package sink

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketSort_GroupsAndPreservesOrder(t *testing.T) {
	type item struct {
		key string
		seq int
	}

	items := []item{
		{"a", 0}, {"b", 1}, {"a", 2}, {"c", 3}, {"b", 4}, {"a", 5},
	}

	buckets := BucketSort(items, func(i item) string { return i.key })

	require.Len(t, buckets, 3)
	assert.Equal(t, []item{{"a", 0}, {"a", 2}, {"a", 5}}, buckets["a"])
	assert.Equal(t, []item{{"b", 1}, {"b", 4}}, buckets["b"])
	assert.Equal(t, []item{{"c", 3}}, buckets["c"])
}

func TestBucketSort_CoversEveryItemOnce(t *testing.T) {
	items := make([]int, 1000)
	for i := range items {
		items[i] = i
	}

	buckets := BucketSort(items, func(i int) string { return strconv.Itoa(i % 7) })

	seen := make(map[int]bool)
	total := 0
	for _, bucket := range buckets {
		for _, v := range bucket {
			assert.False(t, seen[v], "item %d appeared twice", v)
			seen[v] = true
			total++
		}
	}
	assert.Equal(t, len(items), total)
}

func TestBucketSort_Empty(t *testing.T) {
	buckets := BucketSort(nil, func(i int) int { return i })
	assert.Empty(t, buckets)
}

func TestBucketSort_DoesNotMutateInput(t *testing.T) {
	items := []string{"b", "a", "b", "c"}
	BucketSort(items, func(s string) string { return s })
	assert.Equal(t, []string{"b", "a", "b", "c"}, items)
}
