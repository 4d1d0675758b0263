// Package worker provides a small bounded pool used to fan out broadcast
// sends without spawning a goroutine per recipient.
package worker

import (
	"context"
	"errors"
	"log"
	"runtime"
	"sync"
)

type Task func(ctx context.Context) error

type Pool struct {
	wg   sync.WaitGroup
	jobs chan Task
	quit chan struct{}
	n    int
}

func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{jobs: make(chan Task, workers*4), quit: make(chan struct{}), n: workers}
}

// Start launches the workers. Every task accepted by Submit runs exactly
// once, even after ctx is canceled: a canceled ctx is passed through to the
// task, which decides what to do with it. Workers exit only on Stop, after
// draining whatever is still queued. Exiting on ctx cancellation instead
// would strand queued tasks, and callers synchronizing on task completion
// would wait forever.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-p.quit:
					for {
						select {
						case task := <-p.jobs:
							p.run(ctx, id, task)
						default:
							return
						}
					}
				case task := <-p.jobs:
					p.run(ctx, id, task)
				}
			}
		}(i)
	}
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	if task == nil {
		return
	}
	if err := task(ctx); err != nil {
		log.Printf("worker %d task error: %v", id, err)
	}
}

// Stop drains the queue and waits for the workers to exit. Submit must not be
// called concurrently with Stop.
func (p *Pool) Stop() {
	close(p.quit)
	p.wg.Wait()
}

// Submit enqueues a task. When the queue is saturated the task blocks until a
// worker frees up; callers that must not block should wrap Submit themselves.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case <-p.quit:
		return errors.New("pool stopped")
	case p.jobs <- task:
		return nil
	}
}
