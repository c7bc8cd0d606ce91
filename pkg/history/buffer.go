// Package history pkg/history/buffer.go
//
// Fixed-capacity ring buffers over scalar channel samples, with the running
// statistics the analysis pipeline consumes. Writes never block and never
// fail; once full the oldest sample is overwritten.
package history

import "fmt"

// Degenerate OLS denominators below this are treated as zero slope.
const trendEpsilon = 1e-3

// Buffer holds the N most recent samples of one monitored channel.
// Index 0 is always the oldest retained sample.
type Buffer struct {
	values []float64
	head   int
	size   int
}

// New creates a buffer with the given capacity. Capacity must be positive.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		panic(fmt.Sprintf("history: invalid capacity %d", capacity))
	}

	return &Buffer{values: make([]float64, capacity)}
}

// Push appends a sample, evicting the oldest one once full.
func (b *Buffer) Push(v float64) {
	b.values[b.head] = v
	b.head = (b.head + 1) % len(b.values)

	if b.size < len(b.values) {
		b.size++
	}
}

// Fill pushes v until the buffer is at capacity.
func (b *Buffer) Fill(v float64) {
	for i := 0; i < len(b.values); i++ {
		b.Push(v)
	}
}

// Reset discards all held samples.
func (b *Buffer) Reset() {
	b.head = 0
	b.size = 0
}

// Size returns the number of samples currently held.
func (b *Buffer) Size() int { return b.size }

// Capacity returns the fixed capacity.
func (b *Buffer) Capacity() int { return len(b.values) }

// Full reports whether the buffer holds a full capacity of samples.
func (b *Buffer) Full() bool { return b.size == len(b.values) }

// Empty reports whether no samples are held.
func (b *Buffer) Empty() bool { return b.size == 0 }

// At returns the i-th sample, 0 = oldest, Size()-1 = newest.
// Out-of-range access is a contract violation and panics.
func (b *Buffer) At(i int) float64 {
	if i < 0 || i >= b.size {
		panic(fmt.Sprintf("history: index %d out of range [0,%d)", i, b.size))
	}

	oldest := (b.head - b.size + len(b.values)) % len(b.values)

	return b.values[(oldest+i)%len(b.values)]
}

// Newest returns the most recent sample, or 0 when empty.
func (b *Buffer) Newest() float64 {
	if b.size == 0 {
		return 0
	}

	return b.values[(b.head-1+len(b.values))%len(b.values)]
}

// Average returns the mean over currently-held samples, 0 when empty.
func (b *Buffer) Average() float64 {
	if b.size == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < b.size; i++ {
		sum += b.At(i)
	}

	return sum / float64(b.size)
}

// Variance returns the population variance around the given mean over
// currently-held samples, 0 when empty.
func (b *Buffer) Variance(mean float64) float64 {
	if b.size == 0 {
		return 0
	}

	var sumSquares float64

	for i := 0; i < b.size; i++ {
		diff := b.At(i) - mean
		sumSquares += diff * diff
	}

	return sumSquares / float64(b.size)
}

// Trend returns the ordinary-least-squares slope of sample value against
// sample index (0 = oldest). A numerically degenerate denominator yields 0.
func (b *Buffer) Trend() float64 {
	n := float64(b.size)

	var sumX, sumY, sumXY, sumX2 float64

	for i := 0; i < b.size; i++ {
		x := float64(i)
		y := b.At(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	denominator := n*sumX2 - sumX*sumX
	if denominator < trendEpsilon && denominator > -trendEpsilon {
		return 0
	}

	return (n*sumXY - sumX*sumY) / denominator
}
