package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Worker-count bounds. One worker degrades gracefully to a serial
// render; beyond 64 the scheduling overhead outweighs any win.
const (
	MinWorkers = 1
	MaxWorkers = 64
)

// DefaultPollInterval is how long Run waits for the workers to finish
// before waking to report progress and poll for cancellation.
const DefaultPollInterval = 50 * time.Millisecond

// ErrAborted is returned by Run when a pass is canceled before every
// slice has been processed. The output written so far is incomplete
// and must be discarded, never displayed.
var ErrAborted = errors.New("engine: render pass aborted")

// Config describes one render pass.
type Config struct {
	// TotalPixels is the linear pixel range [0, TotalPixels) to cover.
	TotalPixels int

	// Slices is the target number of work slices. More slices mean
	// smoother load balancing and finer progress at a little queue
	// overhead per slice.
	Slices int

	// Workers is the number of concurrent workers claiming slices,
	// in [MinWorkers, MaxWorkers].
	Workers int

	// Process computes every pixel in [start, end). It is called from
	// worker goroutines, one slice at a time, and must write only to
	// output regions covered by that range.
	Process func(start, end int)
}

// Pass is one parallel computation of a full image. Create it with
// NewPass, drive it with Run (or Start plus WaitFor for custom
// monitors), and read the output buffer only after the pass reports
// completion.
type Pass struct {
	queue   *Queue
	total   int
	workers int
	process func(start, end int)

	// aborted is the shared cancellation flag: set once by the
	// monitoring side, read by every worker at the top of its claim
	// loop. Monotonic within a pass.
	aborted atomic.Bool

	started atomic.Bool
	wg      sync.WaitGroup

	// done is closed after the last worker exits; it is the
	// happens-before edge between worker writes and buffer reads.
	done chan struct{}
}

// NewPass validates cfg, builds the fully populated work queue, and
// returns a pass ready to start. No worker is launched yet.
func NewPass(cfg Config) (*Pass, error) {
	if cfg.TotalPixels <= 0 {
		return nil, fmt.Errorf("engine: total pixels must be positive, got %d", cfg.TotalPixels)
	}
	if cfg.Slices <= 0 {
		return nil, fmt.Errorf("engine: slice count must be positive, got %d", cfg.Slices)
	}
	if cfg.Workers < MinWorkers || cfg.Workers > MaxWorkers {
		return nil, fmt.Errorf("engine: workers must be in [%d, %d], got %d", MinWorkers, MaxWorkers, cfg.Workers)
	}
	if cfg.Process == nil {
		return nil, errors.New("engine: process callback must not be nil")
	}

	slices := Partition(cfg.TotalPixels, cfg.Slices)
	q := NewQueue(len(slices))
	for _, s := range slices {
		q.Push(s)
	}

	return &Pass{
		queue:   q,
		total:   len(slices),
		workers: cfg.Workers,
		process: cfg.Process,
		done:    make(chan struct{}),
	}, nil
}

// Start launches the workers. Calling Start more than once is a no-op.
func (p *Pass) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.worker()
	}
	go func() {
		p.wg.Wait()
		close(p.done)
	}()
}

// worker claims slices until the queue is empty or the pass is
// aborted. A claimed slice always runs to completion; cancellation is
// observed only between slices, trading a bounded tail of extra work
// for a hot loop free of per-pixel checks.
func (p *Pass) worker() {
	defer p.wg.Done()
	for {
		if p.aborted.Load() {
			return
		}
		s, ok := p.queue.Pop()
		if !ok {
			return
		}
		p.process(s.Start, s.End)
	}
}

// Cancel requests cooperative cancellation. Workers exit at their next
// slice claim; the in-flight slice of each worker still completes.
// Cancel is monotonic within a pass and safe to call from any
// goroutine, any number of times.
func (p *Pass) Cancel() {
	p.aborted.Store(true)
}

// Aborted reports whether cancellation has been requested.
func (p *Pass) Aborted() bool {
	return p.aborted.Load()
}

// WaitFor blocks until every worker has exited or d has elapsed,
// whichever comes first, and reports whether the pass is fully joined.
// The output buffer must not be read before WaitFor (or Wait) has
// returned true.
func (p *Pass) WaitFor(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-p.done:
		return true
	case <-t.C:
		return false
	}
}

// Wait blocks until every worker has exited.
func (p *Pass) Wait() {
	<-p.done
}

// TotalSlices returns the number of slices the queue was built with.
func (p *Pass) TotalSlices() int {
	return p.total
}

// RemainingSlices returns the number of unclaimed slices. The value
// may be momentarily stale; it is meant for progress reporting.
func (p *Pass) RemainingSlices() int {
	return p.queue.Remaining()
}

// CompletedSlices returns the number of slices claimed so far. It
// never decreases over the life of a pass.
func (p *Pass) CompletedSlices() int {
	return p.total - p.queue.Remaining()
}

// Run drives a pass to completion: it starts the workers, then wakes
// every interval to report progress through onProgress (claimed and
// total slice counts) and to poll ctx for cancellation. A canceled
// context sets the abort flag; workers drain at their next claim and
// Run returns ErrAborted after the full join. On success Run reports
// one final complete progress sample and returns nil.
//
// onProgress may be nil. A non-positive interval means
// DefaultPollInterval. A ctx that is already canceled when Run is
// called aborts the pass before a single slice is claimed.
func (p *Pass) Run(ctx context.Context, interval time.Duration, onProgress func(done, total int)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if ctx.Err() != nil {
		p.Cancel()
	}

	p.Start()
	for !p.WaitFor(interval) {
		if onProgress != nil {
			onProgress(p.CompletedSlices(), p.total)
		}
		if ctx.Err() != nil {
			p.Cancel()
		}
	}

	if p.aborted.Load() {
		return ErrAborted
	}
	if onProgress != nil {
		onProgress(p.total, p.total)
	}
	return nil
}
