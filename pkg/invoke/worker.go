package invoke

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/aretw0/arbiter/pkg/domain"
)

// Worker runs tasks one at a time, in submission order, on its own goroutine.
// Submit never blocks: tasks queue up behind a slow one.
type Worker struct {
	name   string
	logger *slog.Logger

	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// NewWorker starts a worker.
func NewWorker(name string, opts ...Option) *Worker {
	s := newSettings(opts)
	w := &Worker{
		name:   name,
		logger: s.logger.With("worker", name),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w
}

// Submit queues a task. It fails once the worker is shut down.
func (w *Worker) Submit(task func()) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return domain.ErrClosed
	}
	w.queue = append(w.queue, task)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// Shutdown discards queued tasks and stops the worker once the running task,
// if any, returns. It does not wait for that task.
func (w *Worker) Shutdown() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	dropped := len(w.queue)
	w.queue = nil
	w.mu.Unlock()

	if dropped > 0 {
		w.logger.Debug("worker shut down with queued tasks", "dropped", dropped)
	}
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Done is closed when the worker goroutine exits.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) loop() {
	defer close(w.done)
	for {
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			return
		}
		if len(w.queue) == 0 {
			w.mu.Unlock()
			<-w.wake
			continue
		}
		task := w.queue[0]
		w.queue[0] = nil
		w.queue = w.queue[1:]
		w.mu.Unlock()

		w.run(task)
	}
}

func (w *Worker) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task()
}
