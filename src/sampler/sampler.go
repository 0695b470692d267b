// Package sampler draws random shortlists of places without replacement.
package sampler

const DefaultSize = 5

// Sampler is safe for concurrent use.
type Sampler struct {
	rand *lockedSource
}

func New(src Source) *Sampler {
	if src == nil {
		src = NewSource()
	}
	return &Sampler{rand: &lockedSource{src: src}}
}

var global = New(nil)

// Sample draws min(k, len(source)) elements of source using the package Sampler.
func Sample[T any](source []T, k int) []T {
	return SampleWith(global, source, k)
}

// PickOne returns a uniformly random element of sample using the package Sampler.
func PickOne[T any](sample []T) (T, bool) {
	return PickOneWith(global, sample)
}

// SampleWith draws min(k, len(source)) elements without replacement. When
// every element is selected the original order is kept, otherwise the result
// is in draw order. source is never modified.
func SampleWith[T any](s *Sampler, source []T, k int) []T {
	if k <= 0 || len(source) == 0 {
		return []T{}
	}
	if len(source) <= k {
		out := make([]T, len(source))
		copy(out, source)
		return out
	}

	working := make([]T, len(source))
	copy(working, source)

	out := make([]T, 0, k)
	for i := 0; i < k; i++ {
		idx := s.rand.index(len(working))
		out = append(out, working[idx])
		working = append(working[:idx], working[idx+1:]...)
	}
	return out
}

func PickOneWith[T any](s *Sampler, sample []T) (T, bool) {
	var zero T
	if len(sample) == 0 {
		return zero, false
	}
	return sample[s.rand.index(len(sample))], true
}
