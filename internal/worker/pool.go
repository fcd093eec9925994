package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// cancelledResult stands in for jobs that never started because ctx ended
type cancelledResult struct {
	err error
}

func (r *cancelledResult) GetError() error {
	return r.err
}

// Pool runs jobs on a fixed number of goroutines
type Pool struct {
	workers int
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Run executes all jobs and returns their results in job order.
// Jobs not started before ctx ends get a result carrying ctx.Err().
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	indexes := make(chan int)
	var wg sync.WaitGroup

	workers := p.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				// Each index is owned by exactly one worker
				results[idx] = jobs[idx].Execute(ctx)
			}
		}()
	}

	next := 0
dispatch:
	for ; next < len(jobs); next++ {
		select {
		case <-ctx.Done():
			break dispatch
		case indexes <- next:
		}
	}
	close(indexes)
	wg.Wait()

	for i := next; i < len(jobs); i++ {
		results[i] = &cancelledResult{err: ctx.Err()}
	}

	return results
}
