// Package serializer runs jobs one at a time, in submission order, on a single
// dedicated worker goroutine. It is the only path by which the bridge touches
// the native engine.
package serializer

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultDepth is the queue capacity used when New is given a non-positive depth.
const DefaultDepth = 32

var (
	// ErrShutdown is returned for jobs submitted after Close and delivered to
	// jobs that were still queued when the worker stopped.
	ErrShutdown = errors.New("serializer shut down")
	// ErrPanic wraps a panic recovered while running a job.
	ErrPanic = errors.New("job panicked")
	// ErrFull is returned by TrySubmit when every queue slot is taken.
	ErrFull = errors.New("serializer queue full")
)

type job struct {
	exec func()
	fail func(error)
}

// Queue is a single-worker FIFO execution queue.
type Queue struct {
	jobs chan job
	quit chan struct{}
	done chan struct{}

	// mu is held for reading while a submitter sends into jobs; the worker takes
	// it for writing once before draining so no send can race the drain.
	mu       sync.RWMutex
	closed   bool
	quitOnce sync.Once
}

// New starts the worker goroutine. Close must be called to release it.
func New(depth int) *Queue {
	if depth <= 0 {
		depth = DefaultDepth
	}
	q := &Queue{
		jobs: make(chan job, depth),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		// quit wins over queued work once raised
		select {
		case <-q.quit:
			q.drain()
			return
		default:
		}
		select {
		case j := <-q.jobs:
			run(j)
		case <-q.quit:
			q.drain()
			return
		}
	}
}

func (q *Queue) drain() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	for {
		select {
		case j := <-q.jobs:
			j.fail(ErrShutdown)
		default:
			return
		}
	}
}

func run(j job) {
	defer func() {
		if r := recover(); r != nil {
			j.fail(fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()
	j.exec()
}

// Submit admits a job. exec runs on the worker; fail is called instead of exec
// when the job cannot run (shutdown) or after exec panics. Submit blocks only
// while the queue is full.
func (q *Queue) Submit(exec func(), fail func(error)) error {
	return q.submit(job{exec: exec, fail: fail}, true)
}

// TrySubmit is Submit without the wait: it returns ErrFull instead of
// blocking when the queue has no free slot.
func (q *Queue) TrySubmit(exec func(), fail func(error)) error {
	return q.submit(job{exec: exec, fail: fail}, false)
}

func (q *Queue) submit(j job, wait bool) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrShutdown
	}
	select {
	case <-q.quit:
		return ErrShutdown
	default:
	}
	if !wait {
		select {
		case q.jobs <- j:
			return nil
		default:
			return ErrFull
		}
	}
	select {
	case q.jobs <- j:
		return nil
	case <-q.quit:
		return ErrShutdown
	}
}

// Len reports the number of queued jobs, excluding the running one.
func (q *Queue) Len() int { return len(q.jobs) }

// Done is closed once the worker has exited.
func (q *Queue) Done() <-chan struct{} { return q.done }

// Close stops admission, fails queued jobs with ErrShutdown and waits for the
// running job to finish or ctx to expire. It is safe to call more than once.
func (q *Queue) Close(ctx context.Context) error {
	q.quitOnce.Do(func() { close(q.quit) })
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
