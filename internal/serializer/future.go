package serializer

import "context"

type result[T any] struct {
	val T
	err error
}

// Future carries the outcome of a job admitted with Enqueue.
type Future[T any] struct {
	ch  chan result[T]
	res *result[T]
}

// Wait blocks until the job has run (or failed to run) and returns its result.
// Repeated calls from the same goroutine return the same result.
func (f *Future[T]) Wait() (T, error) {
	if f.res == nil {
		r := <-f.ch
		f.res = &r
	}
	return f.res.val, f.res.err
}

// Enqueue admits fn without waiting for it to run.
func Enqueue[T any](q *Queue, fn func() (T, error)) (*Future[T], error) {
	return enqueue(fn, q.Submit)
}

// TryEnqueue is Enqueue backed by TrySubmit; it fails with ErrFull rather
// than wait for a slot.
func TryEnqueue[T any](q *Queue, fn func() (T, error)) (*Future[T], error) {
	return enqueue(fn, q.TrySubmit)
}

func enqueue[T any](fn func() (T, error), submit func(exec func(), fail func(error)) error) (*Future[T], error) {
	f := &Future[T]{ch: make(chan result[T], 1)}
	err := submit(
		func() {
			v, err := fn()
			f.ch <- result[T]{val: v, err: err}
		},
		func(err error) { f.ch <- result[T]{err: err} },
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Do admits fn and waits for its result.
func Do[T any](q *Queue, fn func() (T, error)) (T, error) {
	f, err := Enqueue(q, fn)
	if err != nil {
		var zero T
		return zero, err
	}
	return f.Wait()
}

// WaitContext is Wait bounded by ctx. A result that arrives after ctx is done
// is discarded.
func (f *Future[T]) WaitContext(ctx context.Context) (T, error) {
	if f.res == nil {
		select {
		case r := <-f.ch:
			f.res = &r
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
	return f.res.val, f.res.err
}
