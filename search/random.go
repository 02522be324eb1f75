package search

import (
	crand "crypto/rand"
	"log"
	"math/big"
	mrand "math/rand"
	"sync"
	"time"
)

// randomSource draws selection indexes from the system entropy source and
// falls back to a seeded PRNG when entropy reads fail. The fallback is
// logged once; selection quality degrades but selection never stops.
type randomSource struct {
	mu       sync.Mutex
	fallback *mrand.Rand
	warned   bool
}

func newRandomSource() *randomSource {
	return &randomSource{
		fallback: mrand.New(mrand.NewSource(time.Now().UnixNano())),
	}
}

// Intn returns a uniform value in [0, n).
func (r *randomSource) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := crand.Int(crand.Reader, big.NewInt(int64(n)))
	if err == nil {
		return int(v.Int64())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.warned {
		log.Printf("search: entropy source unavailable, using seeded fallback: %v", err)
		r.warned = true
	}
	return r.fallback.Intn(n)
}

// sampleIDs picks count ids without replacement via a partial shuffle.
// The input slice is reordered in place.
func sampleIDs(ids []string, count int, rnd *randomSource) []string {
	if count > len(ids) {
		count = len(ids)
	}
	for i := 0; i < count; i++ {
		j := i + rnd.Intn(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids[:count]
}
