package search

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleWithoutReplacement(t *testing.T) {
	rnd := newRandomSource()
	for _, n := range []int{0, 1, 5, 100} {
		for _, count := range []int{0, 1, 3, n, n + 10} {
			ids := make([]string, n)
			member := map[string]bool{}
			for i := range ids {
				ids[i] = strconv.Itoa(i)
				member[ids[i]] = true
			}
			got := sampleIDs(ids, count, rnd)

			want := count
			if want > n {
				want = n
			}
			assert.Len(t, got, want, "n=%d count=%d", n, count)

			seen := map[string]bool{}
			for _, id := range got {
				assert.True(t, member[id], "sampled id %q outside match set", id)
				assert.False(t, seen[id], "sampled id %q twice", id)
				seen[id] = true
			}
		}
	}
}

func TestRandomSourceBounds(t *testing.T) {
	rnd := newRandomSource()
	for i := 0; i < 1000; i++ {
		v := rnd.Intn(10)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 10)
	}
	assert.Equal(t, 0, rnd.Intn(0))
	assert.Equal(t, 0, rnd.Intn(1))
}
