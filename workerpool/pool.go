package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/cpu"
)

var (
	ErrPoolStopped = errors.New("pool stopped")
	ErrNilJob      = errors.New("nil job")
)

// PanicError is returned from Handle.Wait when the job panicked.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job panicked: %v", e.Value)
}

type task struct {
	job      func()
	handle   *Handle
	queuedAt time.Time
}

// Handle tracks completion of one submitted job.
type Handle struct {
	done chan struct{}
	err  error
}

// Done is closed once the job has finished running.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the job finishes or ctx is done. Cancelling ctx only
// stops the wait; the job keeps running.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pool is a fixed set of goroutines draining a FIFO job queue.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*task
	closed  bool
	size    int
	workers sync.WaitGroup

	// keeps the metrics lock off the queue lock's cache line
	_       cpu.CacheLinePad
	metrics *poolMetrics
	logger  *zap.Logger
}

type Option func(*Pool)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New starts a pool of size workers. A size of zero or less uses
// AvailableParallelism.
func New(size int, opts ...Option) *Pool {
	if size <= 0 {
		size = AvailableParallelism()
	}

	p := &Pool{
		size:    size,
		metrics: &poolMetrics{},
		logger:  zap.NewNop(),
	}
	p.cond = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}

	p.workers.Add(size)
	for i := 0; i < size; i++ {
		go p.worker(i)
	}

	p.logger.Debug("worker pool started", zap.Int("workers", size))
	return p
}

// Submit queues job and returns a handle for its completion.
func (p *Pool) Submit(job func()) (*Handle, error) {
	if job == nil {
		return nil, ErrNilJob
	}

	t := &task{
		job:      job,
		handle:   &Handle{done: make(chan struct{})},
		queuedAt: time.Now(),
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolStopped
	}
	p.queue = append(p.queue, t)
	p.mu.Unlock()

	p.metrics.submitted()
	p.cond.Signal()
	return t.handle, nil
}

func (p *Pool) worker(id int) {
	defer p.workers.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if p.closed && len(p.queue) == 0 {
			p.mu.Unlock()
			p.logger.Debug("worker exiting", zap.Int("worker", id))
			return
		}

		t := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.run(t)
	}
}

func (p *Pool) run(t *task) {
	start := time.Now()
	p.metrics.started(start.Sub(t.queuedAt))

	defer func() {
		if r := recover(); r != nil {
			t.handle.err = &PanicError{Value: r, Stack: debug.Stack()}
			p.logger.Error("job panicked", zap.Any("panic", r))
		}
		p.metrics.finished(time.Since(start), t.handle.err != nil)
		close(t.handle.done)
	}()

	t.job()
}

// Close stops accepting work, lets the workers drain every queued job and
// waits for them to exit. It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	already := p.closed
	p.closed = true
	p.mu.Unlock()

	if !already {
		p.cond.Broadcast()
	}
	p.workers.Wait()

	if !already {
		p.logger.Debug("worker pool stopped", zap.Int("workers", p.size))
	}
}

// Size returns the number of worker goroutines.
func (p *Pool) Size() int {
	return p.size
}

// IsRunning reports whether the pool still accepts work.
func (p *Pool) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed
}

// QueueLen returns the number of jobs waiting for a worker.
func (p *Pool) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Pool) Metrics() Metrics {
	return p.metrics.snapshot()
}
