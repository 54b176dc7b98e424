package window

import (
	"fmt"
	"iter"
)

// Slices is a read-only view of the overlapping fixed-size slices of a 1D
// series. Slice i covers series[i : i+Size()].
//
// The view never copies the underlying data and can be iterated any number
// of times.
type Slices struct {
	data []float64
	size int
}

// NewSlices builds the sliding-window view of data. The number of slices is
// len(data) - size + 1.
func NewSlices(data []float64, size int) (Slices, error) {
	if size < 1 {
		return Slices{}, fmt.Errorf("window %d: %w", size, ErrWindowSize)
	}
	if size > len(data) {
		return Slices{}, fmt.Errorf("window %d over %d points: %w", size, len(data), ErrWindowTooLarge)
	}
	return Slices{data: data, size: size}, nil
}

// Len returns the number of slices.
func (s Slices) Len() int {
	if s.size == 0 {
		return 0
	}
	return len(s.data) - s.size + 1
}

// Size returns the length of every slice.
func (s Slices) Size() int {
	return s.size
}

// At returns slice i. The result shares memory with the series and has its
// capacity capped so appends never write into the neighbouring window.
func (s Slices) At(i int) []float64 {
	if i < 0 || i >= s.Len() {
		panic(fmt.Sprintf("window: slice index %d out of range [0,%d)", i, s.Len()))
	}
	return s.data[i : i+s.size : i+s.size]
}

// All yields (index, slice) pairs in order.
func (s Slices) All() iter.Seq2[int, []float64] {
	return func(yield func(int, []float64) bool) {
		for i := 0; i < s.Len(); i++ {
			if !yield(i, s.At(i)) {
				return
			}
		}
	}
}
