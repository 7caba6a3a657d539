package experiment

import (
	"sync"

	"go.uber.org/multierr"
)

// Status describes where a worker is in its lifecycle
type Status int

// worker lifecycle states
const (
	Queued Status = iota
	Running
	Finished
	Failed
	Aborted
)

func (s Status) String() string {
	switch s {
	case Queued:
		return "queued"
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// Worker drives one procedure through its lifecycle in a background
// goroutine
type Worker struct {
	proc    Procedure
	emitter *Emitter
	done    chan struct{}

	mu     sync.Mutex
	status Status
	err    error

	abortOnce sync.Once
}

// NewWorker creates a worker for the given procedure.  The emitter is
// shared with the procedure during Execute.
func NewWorker(proc Procedure, emitter *Emitter) *Worker {
	return &Worker{
		proc:    proc,
		emitter: emitter,
		done:    make(chan struct{}),
		status:  Queued,
	}
}

// Start launches the procedure.  It returns immediately; use Wait or
// Done to learn when the run completes.
func (w *Worker) Start() {
	w.setStatus(Running)
	go w.run()
}

func (w *Worker) run() {
	defer close(w.done)
	var runErr error
	if err := w.proc.Startup(); err != nil {
		w.finish(Failed, err)
		return
	}
	runErr = w.proc.Execute(w.emitter)
	shutErr := w.proc.Shutdown()
	err := multierr.Append(runErr, shutErr)
	switch {
	case w.emitter.ShouldStop():
		w.finish(Aborted, err)
	case err != nil:
		w.finish(Failed, err)
	default:
		w.finish(Finished, nil)
	}
}

func (w *Worker) setStatus(s Status) {
	w.mu.Lock()
	w.status = s
	w.mu.Unlock()
}

func (w *Worker) finish(s Status, err error) {
	w.mu.Lock()
	w.status = s
	w.err = err
	w.mu.Unlock()
}

// Status returns the worker's current lifecycle state
func (w *Worker) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Err returns the error the run ended with, nil if it finished clean
func (w *Worker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Abort asks the procedure to stop at its next check.  Safe to call
// more than once and from any goroutine.
func (w *Worker) Abort() {
	w.abortOnce.Do(func() { close(w.emitter.stop) })
}

// Done returns a channel closed when the run completes
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Wait blocks until the run completes and returns its error
func (w *Worker) Wait() error {
	<-w.done
	return w.Err()
}
