// worker/pool.go
package worker

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("worker pool closed")

type Job[T any] func(ctx context.Context) T

type Result[T any] struct {
	JobID  string
	Output T
}

// Task names a job inside a batch.
type Task[T any] struct {
	ID string
	Fn Job[T]
}

// Pool runs jobs on a fixed number of goroutines. Each batch gets its own
// result channel so concurrent callers never see each other's results.
type Pool[T any] struct {
	jobs chan jobWrapper[T]
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

type jobWrapper[T any] struct {
	ctx   context.Context
	index int
	id    string
	fn    Job[T]
	out   chan<- indexed[T]
}

type indexed[T any] struct {
	index  int
	result Result[T]
}

func NewPool[T any](workerCount int, bufferSize int) *Pool[T] {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool[T]{
		jobs: make(chan jobWrapper[T], bufferSize),
		done: make(chan struct{}),
	}

	p.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go p.worker()
	}

	return p
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case job := <-p.jobs:
			output := job.fn(job.ctx)
			// out is buffered for the whole batch.
			job.out <- indexed[T]{
				index:  job.index,
				result: Result[T]{JobID: job.id, Output: output},
			}
		}
	}
}

func (p *Pool[T]) submit(job jobWrapper[T]) error {
	if err := job.ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.done:
		return ErrClosed
	case <-job.ctx.Done():
		return job.ctx.Err()
	case p.jobs <- job:
		return nil
	}
}

// Run executes tasks and returns their results in task order. If ctx ends
// before every task is queued or finished, Run returns the results that
// arrived along with ctx's error.
func (p *Pool[T]) Run(ctx context.Context, tasks []Task[T]) ([]Result[T], error) {
	out := make(chan indexed[T], len(tasks))

	submitted := 0
	var submitErr error
	for i, task := range tasks {
		err := p.submit(jobWrapper[T]{ctx: ctx, index: i, id: task.ID, fn: task.Fn, out: out})
		if err != nil {
			submitErr = err
			break
		}
		submitted++
	}

	slots := make([]*Result[T], len(tasks))
	received := 0
	for received < submitted {
		select {
		case r := <-out:
			res := r.result
			slots[r.index] = &res
			received++
		case <-ctx.Done():
			return collect(slots), ctx.Err()
		}
	}

	return collect(slots), submitErr
}

func collect[T any](slots []*Result[T]) []Result[T] {
	results := make([]Result[T], 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results
}

// Close stops the workers once their current jobs finish.
func (p *Pool[T]) Close() {
	p.once.Do(func() { close(p.done) })
	p.wg.Wait()
}
