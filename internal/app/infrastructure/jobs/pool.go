package jobs

import (
	"errors"
	"fmt"
	"log/slog"
	"redditslacker/pkg/logger"
	"runtime/debug"
	"sync"
)

var (
	ErrQueueFull = errors.New("worker pool queue is full")
	ErrStopped   = errors.New("worker pool is stopped")
)

const defaultQueueSize = 300

// Pool runs slow Slack work (summaries, Reddit calls) off the request path.
type Pool struct {
	log logger.Logger

	mu      sync.RWMutex
	stopped bool

	wg       sync.WaitGroup
	tasks    chan func()
	shutdown chan struct{}
}

func NewPool(log logger.Logger, workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = defaultQueueSize
	}

	p := &Pool{
		log:      log,
		tasks:    make(chan func(), queueSize),
		shutdown: make(chan struct{}),
	}

	for range workers {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrStopped
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop drains queued tasks and waits for the workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	close(p.shutdown)
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.run(task)
		case <-p.shutdown:
			return
		}
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Worker task panicked", fmt.Errorf("panic: %v", r), slog.String("stack", string(debug.Stack())))
		}
	}()
	task()
}
