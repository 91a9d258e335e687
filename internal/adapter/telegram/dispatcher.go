package telegram

import (
	"log/slog"
	"sync"
)

// Dispatcher runs jobs one at a time per key, in submission order, while
// different keys run in parallel. A key's worker exits once its queue drains.
type Dispatcher struct {
	mu      sync.Mutex
	workers map[int64]*worker
	wg      sync.WaitGroup
	logger  *slog.Logger
}

type worker struct {
	jobs []func()
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{workers: make(map[int64]*worker), logger: logger}
}

func (d *Dispatcher) Submit(key int64, job func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w, ok := d.workers[key]; ok {
		w.jobs = append(w.jobs, job)
		return
	}
	w := &worker{jobs: []func(){job}}
	d.workers[key] = w
	d.wg.Add(1)
	go d.run(key, w)
}

// Wait blocks until every submitted job has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Active is the number of keys with a running worker.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.workers)
}

func (d *Dispatcher) run(key int64, w *worker) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		if len(w.jobs) == 0 {
			delete(d.workers, key)
			d.mu.Unlock()
			return
		}
		job := w.jobs[0]
		w.jobs[0] = nil
		w.jobs = w.jobs[1:]
		d.mu.Unlock()

		d.safe(key, job)
	}
}

func (d *Dispatcher) safe(key int64, job func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("update handler panicked", "user_id", key, "panic", r)
		}
	}()
	job()
}
