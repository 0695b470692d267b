package sampler

import (
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/mathext/prng"
)

// Source is the uniform bit generator a Sampler draws from.
type Source interface {
	// Uint64 returns a random number in [0, MaxUint64] and advances the
	// generator's state.
	Uint64() uint64
}

// NewSource returns a Mersenne Twister seeded from the clock. Picking a place
// to eat doesn't need cryptographic randomness.
func NewSource() Source {
	return NewSeededSource(uint64(time.Now().UnixNano()))
}

func NewSeededSource(seed uint64) Source {
	source := prng.NewMT19937()
	source.Seed(seed)
	return source
}

// lockedSource serialises access to a Source, which is usually not safe for
// concurrent use.
type lockedSource struct {
	mu  sync.Mutex
	src Source
}

func (l *lockedSource) next() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Uint64()
}

// index returns a uniform index into a slice of length n. n must be positive.
func (l *lockedSource) index(n int) int {
	return int(l.below(uint64(n)))
}

// below returns a uniform number in [0, n). The top 2^64 mod n values of the
// range would favour the low residues, so draws landing there are repeated.
func (l *lockedSource) below(n uint64) uint64 {
	excess := (math.MaxUint64%n + 1) % n
	for {
		v := l.next()
		if excess == 0 || v <= math.MaxUint64-excess {
			return v % n
		}
	}
}
