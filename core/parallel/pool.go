package parallel

import (
	"sync"
	"sync/atomic"
)

// Pool runs range jobs on a fixed number of workers. The sample range is cut
// into contiguous chunks of at most ChunkSize; workers pull chunks until the
// range is exhausted.
//
// A Pool with one worker runs everything on the calling goroutine.
// Reduce reuses its per-worker buffers and must not be called concurrently
// on the same Pool.
type Pool struct {
	workers   int
	chunkSize int

	// reduction buffers, one per worker, reused across calls
	mu   sync.Mutex
	bufs [][]float64
}

// NewPool creates a pool with the given number of workers (at least one).
func NewPool(workers int) *Pool {
	return NewPoolWithChunkSize(workers, DefaultChunkSize)
}

// NewPoolWithChunkSize creates a pool with an explicit chunk bound.
func NewPoolWithChunkSize(workers, chunkSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &Pool{workers: workers, chunkSize: chunkSize}
}

// Workers returns the worker count.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workers
}

func (p *Pool) chunks(n int) int {
	return (n + p.chunkSize - 1) / p.chunkSize
}

// For calls fn on disjoint ranges covering [0, n). fn must only write to
// locations owned by its range.
func (p *Pool) For(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if p == nil || p.workers == 1 || n <= p.chunkSize {
		fn(0, n)
		return
	}
	p.run(n, func(_ int, start, end int) { fn(start, end) })
}

// Reduce calls fn on disjoint ranges covering [0, n). fn accumulates into
// buf. Each worker receives a private zeroed buffer of len(dst); after the
// worker has finished all of its chunks, its buffer is added into dst under a
// single lock. On the sequential path buf is dst itself.
func (p *Pool) Reduce(n int, dst []float64, fn func(start, end int, buf []float64)) {
	if n <= 0 {
		return
	}
	if p == nil || p.workers == 1 || n <= p.chunkSize {
		fn(0, n, dst)
		return
	}

	workers := p.activeWorkers(n)
	bufs := p.buffers(workers, len(dst))

	var mu sync.Mutex
	p.runWorkers(n, workers, func(worker int, next func() (int, int, bool)) {
		buf := bufs[worker]
		for i := range buf {
			buf[i] = 0
		}
		for {
			start, end, ok := next()
			if !ok {
				break
			}
			fn(start, end, buf)
		}
		mu.Lock()
		for i, v := range buf {
			dst[i] += v
		}
		mu.Unlock()
	})
}

func (p *Pool) activeWorkers(n int) int {
	workers := p.workers
	if c := p.chunks(n); c < workers {
		workers = c
	}
	return workers
}

func (p *Pool) buffers(workers, size int) [][]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.bufs) < workers {
		p.bufs = append(p.bufs, nil)
	}
	for w := 0; w < workers; w++ {
		if cap(p.bufs[w]) < size {
			p.bufs[w] = make([]float64, size)
		}
		p.bufs[w] = p.bufs[w][:size]
	}
	return p.bufs[:workers]
}

func (p *Pool) run(n int, fn func(worker, start, end int)) {
	p.runWorkers(n, p.activeWorkers(n), func(worker int, next func() (int, int, bool)) {
		for {
			start, end, ok := next()
			if !ok {
				return
			}
			fn(worker, start, end)
		}
	})
}

func (p *Pool) runWorkers(n, workers int, body func(worker int, next func() (int, int, bool))) {
	total := p.chunks(n)
	var cursor int64 = -1
	next := func() (int, int, bool) {
		c := int(atomic.AddInt64(&cursor, 1))
		if c >= total {
			return 0, 0, false
		}
		start := c * p.chunkSize
		end := start + p.chunkSize
		if end > n {
			end = n
		}
		return start, end, true
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(worker int) {
			defer wg.Done()
			body(worker, next)
		}(w)
	}
	wg.Wait()
}
