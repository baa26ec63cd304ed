package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelizeCoversRange(t *testing.T) {
	for _, items := range []int{0, 1, 7, 1000} {
		seen := make([]int32, items)
		ParallelizeN(4, items, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, c := range seen {
			assert.Equal(t, int32(1), c, "items=%d index=%d", items, i)
		}
	}
}

func TestPoolFor(t *testing.T) {
	p := NewPoolWithChunkSize(3, 5)
	n := 53
	out := make([]int, n)
	p.For(n, func(start, end int) {
		assert.LessOrEqual(t, end-start, 5)
		for i := start; i < end; i++ {
			out[i] = i * 2
		}
	})
	for i := range out {
		assert.Equal(t, i*2, out[i])
	}
}

func TestPoolReduceMatchesSequential(t *testing.T) {
	n, size := 1001, 7
	fill := func(start, end int, buf []float64) {
		for i := start; i < end; i++ {
			buf[i%size] += float64(i)
		}
	}

	want := make([]float64, size)
	NewPool(1).Reduce(n, want, fill)

	p := NewPoolWithChunkSize(4, 16)
	for round := 0; round < 3; round++ {
		got := make([]float64, size)
		p.Reduce(n, got, fill)
		assert.Equal(t, want, got, "round %d", round)
	}
}

func TestNilPoolIsSequential(t *testing.T) {
	var p *Pool
	assert.Equal(t, 1, p.Workers())
	sum := 0
	p.For(4, func(start, end int) { sum += end - start })
	assert.Equal(t, 4, sum)
}
