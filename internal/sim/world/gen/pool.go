package gen

import (
	"time"
)

// Pool runs the blueprint workers. The world loop submits jobs and
// polls results non-blockingly; there is no cancel signal — stale
// results are discarded by generation id on arrival.
type Pool struct {
	jobs      chan Job
	completed chan ChunkBlueprint
	done      chan struct{}

	generate func(Job) ChunkBlueprint
}

// NewPool starts workers goroutines. The completed channel is sized so
// workers never block on delivery for any realistic backlog.
func NewPool(workers int) *Pool {
	return newPool(workers, Generate)
}

func newPool(workers int, generate func(Job) ChunkBlueprint) *Pool {
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{
		jobs:      make(chan Job, workers*4),
		completed: make(chan ChunkBlueprint, workers*16),
		done:      make(chan struct{}),
		generate:  generate,
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for {
		select {
		case <-p.done:
			return
		case job := <-p.jobs:
			start := time.Now()
			bp := p.runJob(job)
			bp.GenerationSeconds = time.Since(start).Seconds()
			select {
			case p.completed <- bp:
			case <-p.done:
				return
			}
		}
	}
}

// runJob wraps the generator so a panic inside a job becomes a failed
// blueprint instead of tearing down the worker.
func (p *Pool) runJob(job Job) (bp ChunkBlueprint) {
	defer func() {
		if r := recover(); r != nil {
			bp = ChunkBlueprint{
				Coord:        job.Coord,
				GenerationID: job.GenerationID,
				Success:      false,
			}
		}
	}()
	return p.generate(job)
}

// TrySubmit enqueues a job without blocking. False means the queue is
// full and the caller should retry next tick.
func (p *Pool) TrySubmit(job Job) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// TryRecv drains one completed blueprint without blocking.
func (p *Pool) TryRecv() (ChunkBlueprint, bool) {
	select {
	case bp := <-p.completed:
		return bp, true
	default:
		return ChunkBlueprint{}, false
	}
}

func (p *Pool) Close() { close(p.done) }
