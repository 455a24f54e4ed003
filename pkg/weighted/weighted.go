// Package weighted implements data-driven weighted random selection.
package weighted

import "math/rand/v2"

// Choice pairs a label with its selection weight. Zero and negative weights
// are never selected.
type Choice[T any] struct {
	Value  T
	Weight int
}

// Pick selects one choice with probability proportional to its weight, using
// roll, a function returning a value in [0,1). Returns false when no choice
// carries positive weight.
func Pick[T any](choices []Choice[T], roll func() float64) (T, bool) {
	var zero T
	total := 0
	for _, c := range choices {
		if c.Weight > 0 {
			total += c.Weight
		}
	}
	if total == 0 {
		return zero, false
	}

	target := int(roll() * float64(total))
	if target >= total {
		target = total - 1
	}
	for _, c := range choices {
		if c.Weight <= 0 {
			continue
		}
		if target < c.Weight {
			return c.Value, true
		}
		target -= c.Weight
	}
	return zero, false
}

// PickRand is Pick backed by the shared math/rand source.
func PickRand[T any](choices []Choice[T]) (T, bool) {
	return Pick(choices, rand.Float64)
}
